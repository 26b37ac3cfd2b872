// Package config reads svdlab settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "SVDLAB_"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	// Preset names the clean surface; ignored when SignalRank > 0.
	Preset string `env:"PRESET, default=three-peaks"`
	Size   int    `env:"SIZE, default=60"`
	// Rows and Cols override Size for rectangular matrices.
	Rows int `env:"ROWS"`
	Cols int `env:"COLS"`
	// SignalRank > 0 selects a random Gaussian signal of that rank.
	SignalRank int `env:"SIGNAL_RANK"`

	Rank   int     `env:"RANK, default=3"`
	Noise  float64 `env:"NOISE, default=0.15"`
	Seed   uint64  `env:"SEED, default=2026"`
	Method string  `env:"METHOD, default=thin"`

	OutDir   string `env:"OUT_DIR, default=out"`
	DBPath   string `env:"DB_PATH, default=svdlab.db"`
	Addr     string `env:"ADDR, default=127.0.0.1:8080"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
}

// Dims returns the matrix shape.
func (c *Config) Dims() (m, n int) {
	m, n = c.Size, c.Size
	if c.Rows > 0 {
		m = c.Rows
	}
	if c.Cols > 0 {
		n = c.Cols
	}
	return m, n
}

func (c *Config) Validate() error {
	m, n := c.Dims()
	switch {
	case m < 1 || n < 1:
		return fmt.Errorf("%w: shape %dx%d", ErrInvalid, m, n)
	case c.Rank < 1:
		return fmt.Errorf("%w: rank %d", ErrInvalid, c.Rank)
	case c.Noise < 0:
		return fmt.Errorf("%w: noise %v", ErrInvalid, c.Noise)
	case c.SignalRank < 0:
		return fmt.Errorf("%w: signal rank %d", ErrInvalid, c.SignalRank)
	}
	return nil
}

// Load reads the optional env files (".env" when none is given) into the
// process environment and decodes the SVDLAB_ variables. Variables already
// set in the environment win over the files.
func Load(ctx context.Context, files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom decodes the configuration from l. Keys are looked up with Prefix.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var c Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &c,
		Lookuper: envconfig.PrefixLookuper(Prefix, l),
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
