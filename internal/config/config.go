// Package config loads service settings from UNISTROKE_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/ayusman/unistroke/internal/gesture"
)

// Prefix is the environment variable prefix.
const Prefix = "UNISTROKE"

type Config struct {
	DBPath         string        `envconfig:"DB_PATH"`
	Addr           string        `envconfig:"ADDR" default:":8080"`
	StaticDir      string        `envconfig:"STATIC_DIR"`
	PluginDir      string        `envconfig:"PLUGIN_DIR"`
	PluginTimeout  time.Duration `envconfig:"PLUGIN_TIMEOUT" default:"5s"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	NumResampled   int           `envconfig:"NUM_RESAMPLED" default:"64"`
	SquareSize     float64       `envconfig:"SQUARE_SIZE" default:"250"`
	AngleRange     float64       `envconfig:"ANGLE_RANGE" default:"45"`
	AnglePrecision float64       `envconfig:"ANGLE_PRECISION" default:"1"`
	UniformScale   bool          `envconfig:"UNIFORM_SCALE" default:"false"`
	Workers        int           `envconfig:"WORKERS" default:"4"`
	MaxDistance    float64       `envconfig:"MAX_DISTANCE" default:"0"`
}

// Load reads the configuration from the environment and fills in paths
// under ~/.unistroke that were left empty.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" || cfg.PluginDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir := filepath.Join(home, ".unistroke")
		if cfg.DBPath == "" {
			cfg.DBPath = filepath.Join(dataDir, "unistroke.db")
		}
		if cfg.PluginDir == "" {
			cfg.PluginDir = filepath.Join(dataDir, "plugins")
		}
	}

	return &cfg, nil
}

// Validate rejects settings the recognizer cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.NumResampled < 2 {
		errs = append(errs, fmt.Errorf("NUM_RESAMPLED must be at least 2, got %d", c.NumResampled))
	}
	if c.SquareSize <= 0 {
		errs = append(errs, fmt.Errorf("SQUARE_SIZE must be positive, got %g", c.SquareSize))
	}
	if c.AngleRange <= 0 || c.AngleRange > 180 {
		errs = append(errs, fmt.Errorf("ANGLE_RANGE must be in (0, 180], got %g", c.AngleRange))
	}
	if c.AnglePrecision <= 0 {
		errs = append(errs, fmt.Errorf("ANGLE_PRECISION must be positive, got %g", c.AnglePrecision))
	}
	if c.MaxDistance < 0 {
		errs = append(errs, fmt.Errorf("MAX_DISTANCE must not be negative, got %g", c.MaxDistance))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Recognizer returns the recognizer options described by the config.
func (c *Config) Recognizer() gesture.Options {
	return gesture.Options{
		NumResampled:   c.NumResampled,
		SquareSize:     c.SquareSize,
		AngleRange:     c.AngleRange,
		AnglePrecision: c.AnglePrecision,
		Uniform:        c.UniformScale,
		Workers:        c.Workers,
	}
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
