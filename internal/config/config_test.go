package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "https://lichess.org", cfg.Upstream.BaseURL)
	assert.Equal(t, 21, cfg.Planner.WindowStepDays)
	assert.Equal(t, 14, cfg.Planner.WindowSpanDays)
	assert.Equal(t, 13, cfg.Planner.RotationPrime)
	assert.Equal(t, 8, cfg.Planner.PlayersPerBatch)
	assert.Equal(t, 6, cfg.Harvest.EmptyBatchCeiling)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte(`
logging:
  level: debug
planner:
  windowStepDays: 30
  playersPerBatch: 4
pool:
  strategy: html
  categories:
    - name: blitz
      url: https://example.org/top/blitz
sink:
  backend: none
`)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://env-user@db/harvest")
	t.Setenv(logLevelEnv, "warn")

	cfg := Load()

	// Env beats file, file beats default, unset fields keep defaults.
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "postgres://env-user@db/harvest", cfg.Database.DSN)
	assert.Equal(t, 30, cfg.Planner.WindowStepDays)
	assert.Equal(t, 4, cfg.Planner.PlayersPerBatch)
	assert.Equal(t, 13, cfg.Planner.RotationPrime)
	assert.Equal(t, "html", cfg.Pool.Strategy)
	assert.Equal(t, "none", cfg.Sink.Backend)
}

func TestLoad_BrokenFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("planner: ["), 0o644))

	t.Setenv(configPathEnv, path)

	cfg := Load()
	assert.Equal(t, 21, cfg.Planner.WindowStepDays)
}

func TestValidate_FailsFast(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"step not above span", func(c *Config) { c.Planner.WindowStepDays = c.Planner.WindowSpanDays }},
		{"zero rotation prime", func(c *Config) { c.Planner.RotationPrime = 0 }},
		{"zero players per batch", func(c *Config) { c.Planner.PlayersPerBatch = 0 }},
		{"zero per-player cap", func(c *Config) { c.Planner.PerPlayerCap = 0 }},
		{"zero min plies", func(c *Config) { c.Harvest.MinPlies = 0 }},
		{"zero empty-batch ceiling", func(c *Config) { c.Harvest.EmptyBatchCeiling = 0 }},
		{"decay factor at one", func(c *Config) { c.Rate.DecayFactor = 1 }},
		{"zero limit retries", func(c *Config) { c.Rate.MaxLimitRetries = 0 }},
		{"bad history floor", func(c *Config) { c.Planner.HistoryFloor = "not-a-date" }},
		{"unknown storage backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = "postgres"; c.Database.DSN = "" }},
		{"redis sink without stream", func(c *Config) { c.Sink.Backend = "redis"; c.Redis.Stream = "" }},
		{"empty upstream url", func(c *Config) { c.Upstream.BaseURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestPlannerConfig_Floor(t *testing.T) {
	t.Parallel()

	floor, err := PlannerConfig{HistoryFloor: "2015-01-01"}.Floor()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), floor)

	empty, err := PlannerConfig{}.Floor()
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}
