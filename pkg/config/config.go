// Package config loads ramify.toml.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/chazu/ramify/pkg/kernel/manifold"
	"github.com/chazu/ramify/pkg/kernel/sdfx"
	"github.com/chazu/ramify/pkg/wavefront"
)

// DefaultLimit is the number of meshes rendered when nothing else is set.
// Scripts with unbounded recursion rely on it to terminate.
const DefaultLimit = 100_000

// Config is the on-disk configuration. Zero-valued fields in the file keep
// their defaults.
type Config struct {
	LogLevel string `toml:"log_level"`
	Expand   Expand `toml:"expand"`
	Export   Export `toml:"export"`
	Kernel   Kernel `toml:"kernel"`
}

// Expand controls traversal.
type Expand struct {
	// Limit caps the number of emitted meshes. Zero means no limit.
	Limit int    `toml:"limit"`
	Seed  uint64 `toml:"seed"`
	// Bake transforms the collected meshes in parallel before export.
	Bake    bool `toml:"bake"`
	Workers int  `toml:"workers"`
}

// Export controls the Wavefront writer.
type Export struct {
	Grouping wavefront.Grouping `toml:"grouping"`
	// Materials writes an .mtl library next to the .obj file.
	Materials bool `toml:"materials"`
}

// Kernel backends.
const (
	BackendSdfx     = "sdfx"
	BackendManifold = "manifold"
)

// Kernel configures the solid modeling kernel.
type Kernel struct {
	Backend string `toml:"backend"`
	// Cells is the sdfx marching cubes resolution.
	Cells int `toml:"cells"`
	// Segments is the manifold circle resolution.
	Segments int `toml:"segments"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Expand:   Expand{Limit: DefaultLimit},
		Export:   Export{Grouping: wavefront.AllTogether, Materials: true},
		Kernel: Kernel{
			Backend:  BackendSdfx,
			Cells:    sdfx.DefaultMeshCells,
			Segments: manifold.DefaultSegments,
		},
	}
}

// Load reads path on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg, keeping any field the data omits, and
// validates the result.
func Parse(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return cfg.Validate()
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.Expand.Limit < 0 {
		errs = append(errs, fmt.Errorf("expand.limit must be >= 0, got %d", c.Expand.Limit))
	}
	if c.Expand.Workers < 0 {
		errs = append(errs, fmt.Errorf("expand.workers must be >= 0, got %d", c.Expand.Workers))
	}
	switch c.Kernel.Backend {
	case BackendSdfx, BackendManifold:
	default:
		errs = append(errs, fmt.Errorf("kernel.backend must be %q or %q, got %q", BackendSdfx, BackendManifold, c.Kernel.Backend))
	}
	if c.Kernel.Segments < 3 {
		errs = append(errs, fmt.Errorf("kernel.segments must be >= 3, got %d", c.Kernel.Segments))
	}
	if c.Kernel.Cells < 1 {
		errs = append(errs, fmt.Errorf("kernel.cells must be >= 1, got %d", c.Kernel.Cells))
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c Config) Level() (log.Level, error) {
	l, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
