package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers the extraction flags on fs, defaulting to the values
// already in cfg so that flags override the environment.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.Backend, "backend", "b", cfg.Backend,
		"Matching backend: full (recursion, atomic groups, time budget) or baseline.")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout,
		"Time budget of one matching call on the full backend (0 disables it).")

	fs.BoolVar(&cfg.Auto, "auto", cfg.Auto, "Synthesize rules for commands defined in the document.")
	fs.BoolVar(&cfg.Default, "default", cfg.Default, "Apply the generic catch-all cleanup rules.")
	fs.BoolVar(&cfg.Local, "local", cfg.Local, "Apply local rules before standard ones.")
	fs.StringVarP(&cfg.LocalRules, "rules", "r", cfg.LocalRules, "YAML file with local rules.")

	fs.StringVarP(&cfg.LogLevel, "log-level", "l", cfg.LogLevel, "Log level: debug, info, warn or error.")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "Write log records as JSON.")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write log records to this file instead of stderr.")

	fs.StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir,
		"Directory for <stem>_errers.txt and <stem>_errers_times.csv (default: next to each input).")
	fs.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers,
		"Number of documents extracted concurrently, 0 means use all available CPUs.")

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Run history database: a SQLite path or a libsql:// URL.")
	fs.IntVar(&cfg.RetentionRuns, "retention", cfg.RetentionRuns, "Number of runs kept in the history (0 keeps all).")
	fs.BoolVar(&cfg.NoHistory, "no-history", cfg.NoHistory, "Do not record runs in the history database.")
}
