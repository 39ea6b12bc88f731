package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/napolitain/blueprint-solver/internal/errors"
	"github.com/napolitain/blueprint-solver/internal/solver/frontier"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 24, cfg.Horizon)
	assert.Equal(t, 32, cfg.ExtendedHorizon)
	assert.Equal(t, 3, cfg.Top)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "table", cfg.Output)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Cache)
	assert.Equal(t, frontier.DefaultConfig(), cfg.SearchConfig())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
horizon: 20
workers: 4
output: json
cache: runs.db
search:
  bound: false
  workers: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Horizon)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "runs.db", cfg.Cache)

	search := cfg.SearchConfig()
	assert.False(t, search.Bound)
	assert.True(t, search.Dominance)
	assert.Equal(t, 2, search.Workers)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeInvalidConfig, cerrors.CodeOf(err))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BLUEPRINT_HORIZON", "30")
	t.Setenv("BLUEPRINT_SEARCH_DOMINANCE", "false")
	t.Setenv("BLUEPRINT_OUTPUT", "yaml")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Horizon)
	assert.False(t, cfg.Search.Dominance)
	assert.Equal(t, "yaml", cfg.Output)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(New(), "")
		require.NoError(t, err)
		return cfg
	}

	tests := map[string]func(*Config){
		"zero horizon":       func(c *Config) { c.Horizon = 0 },
		"huge horizon":       func(c *Config) { c.Horizon = frontier.MaxHorizon + 1 },
		"zero extended":      func(c *Config) { c.ExtendedHorizon = 0 },
		"zero top":           func(c *Config) { c.Top = 0 },
		"zero workers":       func(c *Config) { c.Workers = 0 },
		"zero search worker": func(c *Config) { c.Search.Workers = 0 },
		"unknown format":     func(c *Config) { c.Output = "xml" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, cerrors.ErrCodeInvalidConfig, cerrors.CodeOf(err))
		})
	}

	assert.NoError(t, valid().Validate())
}

func TestInvalidFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 0\n"), 0o600))

	_, err := Load(New(), path)
	require.Error(t, err)
	assert.True(t, cerrors.HasCode(err, cerrors.ErrCodeInvalidConfig))
}
