package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

// styles are bound to a renderer so color is only emitted when the
// destination is a terminal.
type styles struct {
	key, value, number, dim lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		key:    r.NewStyle().Foreground(colorGray).Width(16),
		value:  r.NewStyle().Foreground(colorWhite),
		number: r.NewStyle().Foreground(colorCyan),
		dim:    r.NewStyle().Foreground(colorDim),
	}
}

func (s styles) keyValue(w io.Writer, key string, n int) {
	fmt.Fprintln(w, s.key.Render(key)+" "+s.number.Render(fmt.Sprint(n)))
}

func (s styles) file(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+s.dim.Render("→")+" "+s.value.Render(path))
}
