package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/termfx/errers/internal/backend"
	"github.com/termfx/errers/internal/model"
)

// Config holds the application's configuration.
type Config struct {
	Backend string
	Timeout time.Duration

	Auto       bool
	Default    bool
	Local      bool
	LocalRules string // YAML rule file

	LogLevel string
	LogJSON  bool
	LogFile  string

	OutputDir string
	Workers   int

	DBPath        string
	RetentionRuns int
	NoHistory     bool
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Backend:       backend.NameFull,
		Timeout:       5 * time.Second,
		Auto:          true,
		Default:       true,
		Local:         true,
		LogLevel:      "info",
		DBPath:        filepath.Join(".errers", "runs.db"),
		RetentionRuns: 20,
	}
}

// LoadConfig loads configuration from environment variables after reading
// the given .env files, or ./.env when none is given. Variables already set
// in the environment win over .env entries. Malformed values keep the
// default.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %v", model.ErrConfig, err)
	}

	cfg := Default()
	if v := os.Getenv("ERRERS_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("ERRERS_TIMEOUT"); v != "" {
		if d, err := parseDuration(v); err == nil && d >= 0 {
			cfg.Timeout = d
		}
	}
	boolEnv("ERRERS_AUTO", &cfg.Auto)
	boolEnv("ERRERS_DEFAULT", &cfg.Default)
	boolEnv("ERRERS_LOCAL", &cfg.Local)
	cfg.LocalRules = os.Getenv("ERRERS_LOCAL_RULES")

	if v := os.Getenv("ERRERS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	boolEnv("ERRERS_LOG_JSON", &cfg.LogJSON)
	cfg.LogFile = os.Getenv("ERRERS_LOG_FILE")

	cfg.OutputDir = os.Getenv("ERRERS_OUTPUT_DIR")
	intEnv("ERRERS_WORKERS", &cfg.Workers)

	if v := os.Getenv("ERRERS_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	intEnv("ERRERS_DB_RETENTION_RUNS", &cfg.RetentionRuns)
	boolEnv("ERRERS_NO_HISTORY", &cfg.NoHistory)

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := backend.New(c.Backend, c.Timeout); err != nil {
		return fmt.Errorf("%w: %v", model.ErrConfig, err)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %s", model.ErrConfig, c.Timeout)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", model.ErrConfig, c.LogLevel)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", model.ErrConfig, c.Workers)
	}
	if c.RetentionRuns < 0 {
		return fmt.Errorf("%w: negative retention %d", model.ErrConfig, c.RetentionRuns)
	}
	return nil
}

// parseDuration accepts Go durations and plain seconds, such as "5" or "2.5".
func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

func boolEnv(name string, dst *bool) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func intEnv(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			*dst = n
		}
	}
}
