package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/errers/internal/model"
)

var envNames = []string{
	"ERRERS_BACKEND", "ERRERS_TIMEOUT", "ERRERS_AUTO", "ERRERS_DEFAULT", "ERRERS_LOCAL",
	"ERRERS_LOCAL_RULES", "ERRERS_LOG_LEVEL", "ERRERS_LOG_JSON", "ERRERS_LOG_FILE",
	"ERRERS_OUTPUT_DIR", "ERRERS_WORKERS", "ERRERS_DB_PATH", "ERRERS_DB_RETENTION_RUNS",
	"ERRERS_NO_HISTORY",
}

// clearEnv unsets every variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envNames {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigEnv(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "backend and plain-seconds timeout",
			env:  map[string]string{"ERRERS_BACKEND": "baseline", "ERRERS_TIMEOUT": "2.5"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "baseline", cfg.Backend)
				assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)
			},
		},
		{
			name: "go duration",
			env:  map[string]string{"ERRERS_TIMEOUT": "750ms"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 750*time.Millisecond, cfg.Timeout)
			},
		},
		{
			name: "switches",
			env:  map[string]string{"ERRERS_AUTO": "false", "ERRERS_DEFAULT": "0", "ERRERS_NO_HISTORY": "true"},
			check: func(t *testing.T, cfg *Config) {
				assert.False(t, cfg.Auto)
				assert.False(t, cfg.Default)
				assert.True(t, cfg.Local)
				assert.True(t, cfg.NoHistory)
			},
		},
		{
			name: "malformed values keep defaults",
			env:  map[string]string{"ERRERS_TIMEOUT": "soon", "ERRERS_WORKERS": "-3", "ERRERS_AUTO": "maybe"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 5*time.Second, cfg.Timeout)
				assert.Equal(t, 0, cfg.Workers)
				assert.True(t, cfg.Auto)
			},
		},
		{
			name: "storage",
			env:  map[string]string{"ERRERS_DB_PATH": "libsql://db.example", "ERRERS_DB_RETENTION_RUNS": "3"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "libsql://db.example", cfg.DBPath)
				assert.Equal(t, 3, cfg.RetentionRuns)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ERRERS_LOG_LEVEL=debug\nERRERS_BACKEND=re\n"), 0o644))
	t.Setenv("ERRERS_BACKEND", "full")

	cfg, err := LoadConfig(path)
	t.Cleanup(func() { os.Unsetenv("ERRERS_LOG_LEVEL") })
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "full", cfg.Backend, "the environment wins over .env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.Backend = "pcre" }},
		{"timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"workers", func(c *Config) { c.Workers = -1 }},
		{"retention", func(c *Config) { c.RetentionRuns = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), model.ErrConfig)
		})
	}
}

func TestBindFlags(t *testing.T) {
	cfg := Default()
	cfg.Backend = "baseline"
	fs := pflag.NewFlagSet("errers", pflag.ContinueOnError)
	BindFlags(fs, cfg)

	require.NoError(t, fs.Parse([]string{"--auto=false", "--timeout", "1s", "-w", "4", "--rules", "rules.yaml"}))
	assert.Equal(t, "baseline", cfg.Backend, "unset flags keep the loaded value")
	assert.False(t, cfg.Auto)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "rules.yaml", cfg.LocalRules)
}
