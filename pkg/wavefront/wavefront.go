// Package wavefront writes expanded meshes as Wavefront OBJ text, with an
// optional MTL material library holding one diffuse material per color.
//
// Face indices in the records are 1-based and local to each record. The
// writer keeps running vertex and normal offsets so the emitted indices are
// global to the file.
package wavefront

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/lucasb-eyer/go-colorful"
)

// Record is one mesh instance ready for export. expand.OutputMesh and
// expand.Baked both satisfy it.
type Record interface {
	Vertices() iter.Seq[v3.Vec]
	Normals() (iter.Seq[v3.Vec], bool)
	Faces() iter.Seq[[]int]
	Color() colorful.Color
	VertexCount() int
	NormalCount() int
}

// Grouping controls how records are split into OBJ groups.
type Grouping int

const (
	// AllTogether writes every record into one anonymous object.
	AllTogether Grouping = iota
	// Individual gives each record its own group, named g<vertex offset>.
	Individual
	// ByColor groups records by their hex color.
	ByColor
)

var groupingNames = map[Grouping]string{
	AllTogether: "all",
	Individual:  "individual",
	ByColor:     "color",
}

func (g Grouping) String() string {
	if s, ok := groupingNames[g]; ok {
		return s
	}
	return fmt.Sprintf("Grouping(%d)", int(g))
}

// ParseGrouping accepts the names printed by String.
func ParseGrouping(s string) (Grouping, error) {
	for g, name := range groupingNames {
		if strings.EqualFold(s, name) {
			return g, nil
		}
	}
	return AllTogether, fmt.Errorf("wavefront: unknown grouping %q (want all, individual or color)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (g Grouping) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grouping) UnmarshalText(text []byte) error {
	parsed, err := ParseGrouping(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Config selects the grouping policy and material output.
type Config struct {
	Grouping Grouping
	// MaterialLib is the name referenced by the mtllib statement. Empty
	// disables material output.
	MaterialLib string
}

// Write streams records to obj. When cfg.MaterialLib is set, each distinct
// color is written once to mtl as a diffuse material and referenced with
// usemtl; mtl may be nil otherwise. Errors are *ExportError values.
func Write[R Record](cfg Config, records iter.Seq[R], obj io.Writer, mtl io.Writer) error {
	w := &writer{
		cfg:  cfg,
		obj:  bufio.NewWriter(obj),
		seen: make(map[string]bool),
	}
	if cfg.MaterialLib != "" {
		if mtl == nil {
			return mtlErr(fmt.Errorf("material library %q has no sink", cfg.MaterialLib))
		}
		w.mtl = bufio.NewWriter(mtl)
		if _, err := fmt.Fprintf(w.obj, "mtllib %s\n", cfg.MaterialLib); err != nil {
			return objErr(err)
		}
	}

	for r := range records {
		if err := w.record(r); err != nil {
			return err
		}
	}

	if err := objErr(w.obj.Flush()); err != nil {
		return err
	}
	if w.mtl != nil {
		return mtlErr(w.mtl.Flush())
	}
	return nil
}

// Export writes records to the OBJ file at path. The material library, if
// configured, is created next to it.
func Export[R Record](cfg Config, records iter.Seq[R], path string) error {
	f, err := os.Create(path)
	if err != nil {
		return objErr(fmt.Errorf("create %s: %w", path, err))
	}
	if cfg.MaterialLib == "" {
		return writeAndClose(cfg, records, f, nil)
	}
	mtlPath := filepath.Join(filepath.Dir(path), cfg.MaterialLib)
	mf, err := os.Create(mtlPath)
	if err != nil {
		f.Close()
		return mtlErr(fmt.Errorf("create %s: %w", mtlPath, err))
	}
	return writeAndClose(cfg, records, f, mf)
}

// writeAndClose writes records and closes both sinks. The first failure
// wins; close failures are tagged like write failures on the same sink.
func writeAndClose[R Record](cfg Config, records iter.Seq[R], obj, mtl io.WriteCloser) error {
	var mw io.Writer
	if mtl != nil {
		mw = mtl
	}
	err := Write(cfg, records, obj, mw)
	if cerr := obj.Close(); err == nil {
		err = objErr(cerr)
	}
	if mtl != nil {
		if cerr := mtl.Close(); err == nil {
			err = mtlErr(cerr)
		}
	}
	return err
}

type writer struct {
	cfg     Config
	obj     *bufio.Writer
	mtl     *bufio.Writer
	seen    map[string]bool
	vOffset int
	nOffset int
}

func (w *writer) record(r Record) error {
	color := r.Color().Clamped()
	hex := color.Hex()

	switch w.cfg.Grouping {
	case Individual:
		if _, err := fmt.Fprintf(w.obj, "g g%d\n", w.vOffset); err != nil {
			return objErr(err)
		}
	case ByColor:
		if _, err := fmt.Fprintf(w.obj, "g %s\n", hex); err != nil {
			return objErr(err)
		}
	}

	if w.mtl != nil {
		if _, err := fmt.Fprintf(w.obj, "usemtl %s\n", hex); err != nil {
			return objErr(err)
		}
		if !w.seen[hex] {
			w.seen[hex] = true
			if _, err := fmt.Fprintf(w.mtl, "newmtl %s\nKd %s %s %s\nillum 0\n",
				hex, num(color.R), num(color.G), num(color.B)); err != nil {
				return mtlErr(err)
			}
		}
	}

	for v := range r.Vertices() {
		if _, err := fmt.Fprintf(w.obj, "v %s %s %s\n", num(v.X), num(v.Y), num(v.Z)); err != nil {
			return objErr(err)
		}
	}

	normals, hasNormals := r.Normals()
	if hasNormals {
		for n := range normals {
			if _, err := fmt.Fprintf(w.obj, "vn %s %s %s\n", num(n.X), num(n.Y), num(n.Z)); err != nil {
				return objErr(err)
			}
		}
	}

	var line strings.Builder
	for face := range r.Faces() {
		line.Reset()
		line.WriteString("f")
		for _, i := range face {
			line.WriteByte(' ')
			line.WriteString(strconv.Itoa(i + w.vOffset))
			if hasNormals {
				line.WriteString("//")
				line.WriteString(strconv.Itoa(i + w.nOffset))
			}
		}
		line.WriteByte('\n')
		if _, err := w.obj.WriteString(line.String()); err != nil {
			return objErr(err)
		}
	}

	w.vOffset += r.VertexCount()
	if hasNormals {
		w.nOffset += r.NormalCount()
	}
	return nil
}

// num formats a coordinate in its shortest exact decimal form.
func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
