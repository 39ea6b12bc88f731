// Package config loads solver settings from defaults, an optional YAML file
// and BLUEPRINT_* environment variables.
package config

import (
	stderrors "errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"

	cerrors "github.com/napolitain/blueprint-solver/internal/errors"
	"github.com/napolitain/blueprint-solver/internal/solver/frontier"
)

const (
	// EnvPrefix prefixes every environment override, e.g. BLUEPRINT_HORIZON.
	EnvPrefix = "BLUEPRINT"
	// DefaultName is the config file searched for in the working directory.
	DefaultName = ".blueprint"
)

// Formats lists the supported output formats.
var Formats = []string{"table", "json", "yaml"}

// Search holds the pruning switches and intra-search parallelism.
type Search struct {
	Dominance     bool `mapstructure:"dominance" yaml:"dominance"`
	Bound         bool `mapstructure:"bound" yaml:"bound"`
	Cutoffs       bool `mapstructure:"cutoffs" yaml:"cutoffs"`
	RedundancyCap bool `mapstructure:"redundancy_cap" yaml:"redundancy_cap"`
	Workers       int  `mapstructure:"workers" yaml:"workers"`
}

// Config is the resolved application configuration.
type Config struct {
	Input           string `mapstructure:"input" yaml:"input"`
	Horizon         int    `mapstructure:"horizon" yaml:"horizon"`
	ExtendedHorizon int    `mapstructure:"extended_horizon" yaml:"extended_horizon"`
	Top             int    `mapstructure:"top" yaml:"top"`
	// Workers is how many blueprints are solved at once.
	Workers  int    `mapstructure:"workers" yaml:"workers"`
	Search   Search `mapstructure:"search" yaml:"search"`
	Output   string `mapstructure:"output" yaml:"output"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// Cache is the SQLite file used to remember solved runs. Empty disables it.
	Cache string `mapstructure:"cache" yaml:"cache"`
}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("input", "blueprints.txt")
	v.SetDefault("horizon", 24)
	v.SetDefault("extended_horizon", 32)
	v.SetDefault("top", 3)
	v.SetDefault("workers", 1)
	v.SetDefault("search.dominance", true)
	v.SetDefault("search.bound", true)
	v.SetDefault("search.cutoffs", true)
	v.SetDefault("search.redundancy_cap", true)
	v.SetDefault("search.workers", 1)
	v.SetDefault("output", "table")
	v.SetDefault("log_level", "info")
	v.SetDefault("cache", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file and decodes the result. An explicit path must
// exist; otherwise .blueprint.yaml in the working directory is used when
// present.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, cerrors.WrapWithContext(cerrors.ErrCodeInvalidConfig, "failed to read config file", err,
				map[string]any{"path": path})
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(DefaultName)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !stderrors.As(err, &notFound) {
				return nil, cerrors.Wrap(cerrors.ErrCodeInvalidConfig, "failed to read config file", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeInvalidConfig, "failed to decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the solver cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Horizon <= 0 || c.Horizon > frontier.MaxHorizon:
		return invalid("horizon", c.Horizon, fmt.Sprintf("must be in [1, %d]", frontier.MaxHorizon))
	case c.ExtendedHorizon <= 0 || c.ExtendedHorizon > frontier.MaxHorizon:
		return invalid("extended_horizon", c.ExtendedHorizon, fmt.Sprintf("must be in [1, %d]", frontier.MaxHorizon))
	case c.Top < 1:
		return invalid("top", c.Top, "must be at least 1")
	case c.Workers < 1:
		return invalid("workers", c.Workers, "must be at least 1")
	case c.Search.Workers < 1:
		return invalid("search.workers", c.Search.Workers, "must be at least 1")
	case !slices.Contains(Formats, c.Output):
		return invalid("output", c.Output, "must be one of "+strings.Join(Formats, ", "))
	}
	return nil
}

// SearchConfig converts the search section to solver settings.
func (c *Config) SearchConfig() frontier.Config {
	return frontier.Config{
		Dominance:     c.Search.Dominance,
		Bound:         c.Search.Bound,
		Cutoffs:       c.Search.Cutoffs,
		RedundancyCap: c.Search.RedundancyCap,
		Workers:       c.Search.Workers,
	}
}

func invalid(key string, value any, reason string) error {
	return cerrors.NewWithContext(cerrors.ErrCodeInvalidConfig,
		fmt.Sprintf("invalid %s %v: %s", key, value, reason),
		map[string]any{"key": key})
}
