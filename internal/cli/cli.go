// Package cli implements the ramify command-line interface.
//
// # Commands
//
//   - render: evaluate a script and write the expanded meshes as Wavefront OBJ
//   - stats: evaluate a script and report expansion counters
//
// All commands accept --config to read a ramify.toml file and --verbose (-v)
// for debug logging. Flags given on the command line win over the file.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chazu/ramify/pkg/config"
	"github.com/chazu/ramify/pkg/engine"
	"github.com/chazu/ramify/pkg/expand"
	"github.com/chazu/ramify/pkg/kernel"
	"github.com/chazu/ramify/pkg/kernel/manifold"
	"github.com/chazu/ramify/pkg/kernel/sdfx"
)

// CLI holds state shared by all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	verbose    bool
}

// New creates a CLI logging to w with the default configuration.
func New(w io.Writer) *CLI {
	return &CLI{
		Logger: newLogger(w, log.InfoLevel),
		Config: config.Default(),
	}
}

// Execute runs the ramify command tree with os.Args.
func Execute(ctx context.Context) error {
	return New(os.Stderr).RootCommand().ExecuteContext(ctx)
}

// RootCommand creates the root command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ramify",
		Short:         "ramify expands geometry rules into meshes",
		Long:          `ramify evaluates a Lisp scene script into a graph of transform rules and expands it, lazily, into transformed mesh instances written as Wavefront OBJ.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a ramify.toml file")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.statsCommand())
	return root
}

func (c *CLI) setup() error {
	if c.configPath != "" {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		c.Config = cfg
	}
	level, err := c.Config.Level()
	if err != nil {
		return err
	}
	if c.verbose {
		level = log.DebugLevel
	}
	c.Logger.SetLevel(level)
	return nil
}

// expandFlags are the traversal flags shared by render and stats.
type expandFlags struct {
	limit  int
	seed   uint64
	cells  int
	kernel string
}

func (f *expandFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.limit, "limit", "n", config.DefaultLimit, "maximum number of meshes to emit (0 = unlimited)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "seed for rand, rand-int and choose")
	cmd.Flags().IntVar(&f.cells, "cells", sdfx.DefaultMeshCells, "marching cubes resolution for tessellated solids")
	cmd.Flags().StringVar(&f.kernel, "kernel", config.BackendSdfx, "solid kernel: sdfx or manifold")
}

// apply copies the flags the user set over cfg.
func (f *expandFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("limit") {
		cfg.Expand.Limit = f.limit
	}
	if cmd.Flags().Changed("seed") {
		cfg.Expand.Seed = f.seed
	}
	if cmd.Flags().Changed("cells") {
		cfg.Kernel.Cells = f.cells
	}
	if cmd.Flags().Changed("kernel") {
		cfg.Kernel.Backend = f.kernel
	}
}

func newKernel(cfg config.Kernel) (kernel.Kernel, error) {
	switch cfg.Backend {
	case config.BackendManifold:
		return manifold.New(manifold.WithSegments(cfg.Segments))
	case config.BackendSdfx, "":
		return sdfx.New(sdfx.WithCells(cfg.Cells)), nil
	}
	return nil, fmt.Errorf("unknown kernel backend %q", cfg.Backend)
}

// load evaluates the script at path. Evaluation errors are joined into one.
func load(path string, cfg config.Config, logger *log.Logger) (*engine.Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	k, err := newKernel(cfg.Kernel)
	if err != nil {
		return nil, err
	}
	eng := engine.NewEngine(
		engine.WithSeed(cfg.Expand.Seed),
		engine.WithKernel(k),
		engine.WithLogger(logger),
	)
	prog, evalErrs, err := eng.Evaluate(string(source))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		errs := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			errs[i] = e
		}
		return nil, fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	return prog, nil
}

// meshes returns the program's expansion, limited by cfg and stopped when
// ctx is done.
func meshes(ctx context.Context, prog *engine.Program, cfg config.Config, hooks expand.Hooks) iter.Seq[expand.OutputMesh] {
	seq := expand.Generate(prog.Root(), expand.WithHooks(hooks))
	if cfg.Expand.Limit > 0 {
		seq = expand.Take(seq, cfg.Expand.Limit)
	}
	return func(yield func(expand.OutputMesh) bool) {
		for m := range seq {
			if ctx.Err() != nil || !yield(m) {
				return
			}
		}
	}
}
