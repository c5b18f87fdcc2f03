package cli

import (
	"fmt"
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/ramify/pkg/config"
	"github.com/chazu/ramify/pkg/expand"
	"github.com/chazu/ramify/pkg/observability"
	"github.com/chazu/ramify/pkg/wavefront"
)

type renderOpts struct {
	expandFlags
	output      string
	grouping    string
	noMaterials bool
	bake        bool
	workers     int
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts
	cmd := &cobra.Command{
		Use:   "render <script>",
		Short: "Expand a scene script into a Wavefront OBJ file",
		Long: `Render evaluates a scene script and streams its meshes into an OBJ file.

With materials enabled (the default), a .mtl library named after the output
is written next to it with one diffuse material per color. --bake collects
the meshes first and transforms them in parallel.`,
		Example: `  ramify render examples/torus.lisp -o torus.obj
  ramify render examples/randtower.lisp --seed 7 --grouping color
  ramify render examples/recursive_tile.lisp -n 5000 --bake`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config
			if err := opts.apply(cmd, &cfg); err != nil {
				return err
			}
			return runRender(cmd, args[0], opts.output, cfg)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <script>.obj)")
	cmd.Flags().StringVarP(&opts.grouping, "grouping", "g", "all", "OBJ grouping: all, individual or color")
	cmd.Flags().BoolVar(&opts.noMaterials, "no-materials", false, "skip the .mtl material library")
	cmd.Flags().BoolVar(&opts.bake, "bake", false, "collect and transform meshes in parallel before writing")
	cmd.Flags().IntVarP(&opts.workers, "workers", "j", 0, "bake workers (0 = GOMAXPROCS)")
	return cmd
}

func (o *renderOpts) apply(cmd *cobra.Command, cfg *config.Config) error {
	o.expandFlags.apply(cmd, cfg)
	if cmd.Flags().Changed("grouping") {
		g, err := wavefront.ParseGrouping(o.grouping)
		if err != nil {
			return err
		}
		cfg.Export.Grouping = g
	}
	if cmd.Flags().Changed("no-materials") {
		cfg.Export.Materials = !o.noMaterials
	}
	if cmd.Flags().Changed("bake") {
		cfg.Expand.Bake = o.bake
	}
	if cmd.Flags().Changed("workers") {
		cfg.Expand.Workers = o.workers
	}
	return cfg.Validate()
}

func runRender(cmd *cobra.Command, script, output string, cfg config.Config) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if output == "" {
		output = strings.TrimSuffix(script, filepath.Ext(script)) + ".obj"
	}
	wcfg := wavefront.Config{Grouping: cfg.Export.Grouping}
	if cfg.Export.Materials {
		wcfg.MaterialLib = strings.TrimSuffix(filepath.Base(output), filepath.Ext(output)) + ".mtl"
	}

	prog, err := load(script, cfg, logger)
	if err != nil {
		return err
	}
	defer prog.Close()
	logger.Debug("evaluated script", "path", script, "seed", cfg.Expand.Seed)

	p := newProgress(logger)
	metrics := observability.NewCollector()
	seq := meshes(ctx, prog, cfg, metrics)

	if cfg.Expand.Bake {
		err = renderBaked(cmd, seq, output, wcfg, cfg.Expand.Workers, metrics)
	} else {
		err = wavefront.Export(wcfg, seq, output)
	}
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s, err := metrics.Summary()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	logger.Debug("expansion", "producers", s.Producers, "invocations", s.Invocations, "peak", s.PeakWorklist)
	p.done(fmt.Sprintf("Wrote %d meshes, %d vertices", s.Meshes, s.Vertices))
	out := cmd.OutOrStdout()
	st := newStyles(out)
	st.file(out, output)
	if wcfg.MaterialLib != "" {
		st.file(out, filepath.Join(filepath.Dir(output), wcfg.MaterialLib))
	}
	if err := prog.Err(); err != nil {
		logger.Warn("some producers failed", "err", err)
	}
	return nil
}

func renderBaked(cmd *cobra.Command, seq iter.Seq[expand.OutputMesh], output string, wcfg wavefront.Config, workers int, metrics *observability.Collector) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	p := newProgress(logger)
	records := slices.Collect(seq)
	if err := ctx.Err(); err != nil {
		return err
	}
	p.done(fmt.Sprintf("Expanded %d meshes", len(records)))

	p = newProgress(logger)
	baked, err := expand.Bake(ctx, records, workers)
	if err != nil {
		return err
	}
	metrics.ObserveBake(p.elapsed())
	p.done(fmt.Sprintf("Baked %d meshes", len(baked)))

	return wavefront.Export(wcfg, slices.Values(baked), output)
}
