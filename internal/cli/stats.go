package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/chazu/ramify/pkg/config"
	"github.com/chazu/ramify/pkg/observability"
)

func (c *CLI) statsCommand() *cobra.Command {
	var flags expandFlags
	cmd := &cobra.Command{
		Use:   "stats <script>",
		Short: "Expand a scene script and print mesh, vertex and face counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config
			flags.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runStats(cmd, args[0], cfg)
		},
	}
	flags.register(cmd)
	return cmd
}

type stats struct {
	observability.Summary
	Faces int
}

func runStats(cmd *cobra.Command, script string, cfg config.Config) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	prog, err := load(script, cfg, logger)
	if err != nil {
		return err
	}
	defer prog.Close()

	p := newProgress(logger)
	metrics := observability.NewCollector()
	var s stats
	for m := range meshes(ctx, prog, cfg, metrics) {
		s.Faces += m.Mesh().FaceCount()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Summary, err = metrics.Summary()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	p.done(fmt.Sprintf("Expanded %d meshes", s.Meshes))

	writeStats(cmd.OutOrStdout(), s)
	if err := prog.Err(); err != nil {
		logger.Warn("some producers failed", "err", err)
	}
	return nil
}

func writeStats(w io.Writer, s stats) {
	st := newStyles(w)
	st.keyValue(w, "meshes", s.Meshes)
	st.keyValue(w, "vertices", s.Vertices)
	st.keyValue(w, "faces", s.Faces)
	st.keyValue(w, "producers", s.Producers)
	st.keyValue(w, "invocations", s.Invocations)
	st.keyValue(w, "peak worklist", s.PeakWorklist)
	for _, name := range slices.Sorted(maps.Keys(s.ByMesh)) {
		st.keyValue(w, "  "+name, s.ByMesh[name])
	}
}
