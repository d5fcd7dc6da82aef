// Package for run settings read from a yaml file. Flags given on the command
// line take precedence over the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"

	"github.com/jsdoublel/njtree/internal/distance"
	"github.com/jsdoublel/njtree/internal/infer"
	pr "github.com/jsdoublel/njtree/internal/prep"
)

var ErrInvalidConfig = errors.New("invalid config")

const DefaultSeed = 1

type Config struct {
	Format    string     `yaml:"format"`    // alignment format
	Model     string     `yaml:"model"`     // distance model
	MaxTaxa   int        `yaml:"max_taxa"`  // 0 for no limit
	Bootstrap int        `yaml:"bootstrap"` // number of replicates, 0 for none
	Seed      uint64     `yaml:"seed"`      // bootstrap and plot colors
	NProcs    int        `yaml:"nprocs"`    // 0 for all available
	Output    string     `yaml:"output"`    // prefix for png and csv output
	ASCII     bool       `yaml:"ascii"`
	Plot      PlotConfig `yaml:"plot"`
}

type PlotConfig struct {
	Width  float64 `yaml:"width"`  // inches
	Height float64 `yaml:"height"` // inches
}

func Default() *Config {
	plotOpts := pr.DefaultPlotOptions()
	return &Config{
		Format:  pr.Fasta.String(),
		Model:   distance.Identity.String(),
		MaxTaxa: infer.DefaultMaxTaxa,
		Seed:    DefaultSeed,
		Plot:    PlotConfig{Width: float64(plotOpts.Width / vg.Inch), Height: float64(plotOpts.Height / vg.Inch)},
	}
}

// Reads config file at path on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s, %w", path, err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w, %s: %s", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var format pr.Format
	if err := format.Set(c.Format); err != nil {
		return fmt.Errorf("%w, %s", ErrInvalidConfig, err)
	}
	var model distance.Model
	if err := model.Set(c.Model); err != nil {
		return fmt.Errorf("%w, %s", ErrInvalidConfig, err)
	}
	switch {
	case c.MaxTaxa < 0:
		return fmt.Errorf("%w, max_taxa must not be negative, but is %d", ErrInvalidConfig, c.MaxTaxa)
	case c.Bootstrap < 0:
		return fmt.Errorf("%w, bootstrap must not be negative, but is %d", ErrInvalidConfig, c.Bootstrap)
	case c.NProcs < 0:
		return fmt.Errorf("%w, nprocs must not be negative, but is %d", ErrInvalidConfig, c.NProcs)
	case c.Plot.Width <= 0 || c.Plot.Height <= 0:
		return fmt.Errorf("%w, plot size must be positive, but is %gx%g", ErrInvalidConfig, c.Plot.Width, c.Plot.Height)
	}
	return nil
}

// Alignment format; the config must be valid
func (c *Config) AlignmentFormat() pr.Format {
	return pr.ParseFormat[c.Format]
}

func (c *Config) InferOptions() infer.InferOptions {
	return infer.InferOptions{Model: distance.ParseModel[c.Model], MaxTaxa: c.MaxTaxa}
}

func (c *Config) PlotOptions() pr.PlotOptions {
	opts := pr.DefaultPlotOptions()
	opts.Width = vg.Length(c.Plot.Width) * vg.Inch
	opts.Height = vg.Length(c.Plot.Height) * vg.Inch
	opts.Seed = c.Seed
	return opts
}
