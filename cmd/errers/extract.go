package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/termfx/errers/core"
	"github.com/termfx/errers/db"
	"github.com/termfx/errers/internal/backend"
	"github.com/termfx/errers/internal/config"
	"github.com/termfx/errers/internal/logging"
	"github.com/termfx/errers/internal/model"
	"github.com/termfx/errers/internal/pipeline"
	"github.com/termfx/errers/models"
	"github.com/termfx/errers/providers"
	"github.com/termfx/errers/providers/local"
	"github.com/termfx/errers/providers/standard"
)

type extractFlags struct {
	stdout      bool
	diff        bool
	diffContext int
	jsonOut     bool
	include     []string
	exclude     []string
	patterns    bool
	steps       bool
	trace       bool
}

func newExtractCmd(cfg *config.Config) *cobra.Command {
	var flags extractFlags
	cmd := &cobra.Command{
		Use:   "extract [flags] <file.tex|dir|glob>...",
		Short: "Extract the plain text of LaTeX documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runExtract(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, flags, args)
		},
	}

	fs := cmd.Flags()
	config.BindFlags(fs, cfg)
	fs.BoolVar(&flags.stdout, "stdout", false, "Print the extracted text instead of writing output files.")
	fs.BoolVarP(&flags.diff, "diff", "D", false, "Show a unified diff between the source and the extracted text.")
	fs.IntVarP(&flags.diffContext, "diff-context", "C", 3, "Lines of context for the diff.")
	fs.BoolVarP(&flags.jsonOut, "json", "j", false, "Report results in JSON format.")
	fs.StringSliceVar(&flags.include, "include", nil, "Patterns selecting files under directories (default **/*.tex).")
	fs.StringSliceVar(&flags.exclude, "exclude", nil, "Patterns of files to skip.")
	fs.BoolVar(&flags.patterns, "patterns", false, "Log every expanded pattern.")
	fs.BoolVar(&flags.steps, "steps", false, "Log a diff of every effective substitution.")
	fs.BoolVar(&flags.trace, "trace", false, "Log every rule application.")
	return cmd
}

// extractor holds what the documents of one invocation share.
type extractor struct {
	cfg    *config.Config
	flags  extractFlags
	logs   logging.Channels
	local  *providers.Namespace
	std    *providers.Namespace
	writer *core.AtomicWriter

	// store is nil when history is disabled; storeMu serializes writes,
	// which SQLite would otherwise reject as busy.
	store   *gorm.DB
	storeMu sync.Mutex
	printMu sync.Mutex
}

func runExtract(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, flags extractFlags, args []string) error {
	files, err := core.ResolveInputs(ctx, core.InputScope{Targets: args, Include: flags.include, Exclude: flags.exclude})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no documents found to extract")
	}

	logOut := stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}

	x := &extractor{
		cfg:   cfg,
		flags: flags,
		logs: logging.New(logging.Config{
			Level:    logging.ParseLevel(cfg.LogLevel),
			Output:   logOut,
			JSON:     cfg.LogJSON,
			Patterns: flags.patterns,
			Steps:    flags.steps,
			Trace:    flags.trace,
		}),
		std:    standard.Namespace(),
		writer: core.NewAtomicWriter(core.DefaultWriterConfig()),
	}
	if cfg.Local && cfg.LocalRules != "" {
		if x.local, err = local.Load(cfg.LocalRules); err != nil {
			return err
		}
	}
	if !cfg.NoHistory {
		if x.store, err = db.Connect(cfg.DBPath, false); err != nil {
			x.logs.Log.Warn("Run history unavailable", slog.String("db", cfg.DBPath), slog.Any("error", err))
		} else {
			defer db.Close(x.store)
		}
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	if flags.stdout || flags.diff {
		// Printed text must not interleave.
		workers = 1
	}

	results := make([]model.Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		g.Go(func() error {
			results[i] = x.extract(gctx, file)
			x.print(stdout, &results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	if !flags.jsonOut && !flags.stdout && len(results) > 1 {
		config.PrintSummary(stderr, results)
	}
	if failed > 0 {
		return exitError{code: 1}
	}
	return nil
}

func (x *extractor) extract(ctx context.Context, file string) model.Result {
	res := model.Result{File: file}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	source, err := os.ReadFile(file)
	if err != nil {
		res.Fail(err)
		return res
	}
	res.InputBytes = len(source)
	res.OriginalText = string(source)

	b, err := backend.New(x.cfg.Backend, x.cfg.Timeout)
	if err != nil {
		res.Fail(err)
		return res
	}

	logs := x.logs
	logs.Log = logs.Log.With(slog.String("document", file))

	run := x.beginRun(file, b.Name())
	if run != nil {
		res.RunID = run.ID
	}

	out, err := pipeline.Extract(ctx, pipeline.Source{Path: file}, pipeline.Options{
		Backend:    b,
		Timeout:    x.cfg.Timeout,
		Auto:       x.cfg.Auto,
		Default:    x.cfg.Default,
		Local:      x.cfg.Local,
		LocalRules: x.local,
		Standard:   x.std,
		Logs:       logs,
		Steps:      x.flags.steps,
	})
	if err == nil && !x.flags.stdout {
		err = x.write(file, out)
	}
	x.finishRun(run, res.InputBytes, out, err)
	if err != nil {
		res.Fail(err)
		return res
	}

	res.Success = true
	res.ExtractedText = out.Text
	res.OutputBytes = len(out.Text)
	res.Leftovers = out.Leftovers
	if !x.flags.stdout {
		res.Output, res.Report = core.OutputPaths(file, x.cfg.OutputDir)
	}
	return res
}

func (x *extractor) write(file string, out *pipeline.Result) error {
	textPath, timesPath := core.OutputPaths(file, x.cfg.OutputDir)
	if x.cfg.OutputDir != "" {
		if err := os.MkdirAll(x.cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", model.ErrWriteFile, err)
		}
	}
	if err := x.writer.WriteFile(textPath, []byte(out.Text)); err != nil {
		return fmt.Errorf("%w: %v", model.ErrWriteFile, err)
	}
	if err := x.writer.WriteFile(timesPath, out.Report); err != nil {
		return fmt.Errorf("%w: %v", model.ErrWriteFile, err)
	}
	return nil
}

func (x *extractor) print(w io.Writer, res *model.Result) {
	x.printMu.Lock()
	defer x.printMu.Unlock()

	switch {
	case x.flags.jsonOut:
		config.PrintResult(w, res, true)
	case !res.Success:
		config.PrintResult(w, res, false)
	case x.flags.diff:
		fmt.Fprint(w, config.UnifiedDiff(res.OriginalText, res.ExtractedText, res.File, x.flags.diffContext))
	case x.flags.stdout:
		fmt.Fprint(w, res.ExtractedText)
	default:
		config.PrintResult(w, res, false)
	}
}

func (x *extractor) beginRun(file, backendName string) *models.Run {
	if x.store == nil {
		return nil
	}
	x.storeMu.Lock()
	defer x.storeMu.Unlock()

	options := map[string]any{
		"auto":    x.cfg.Auto,
		"default": x.cfg.Default,
		"local":   x.cfg.Local && x.local != nil,
		"timeout": x.cfg.Timeout.String(),
	}
	run, err := db.BeginRun(x.store, file, backendName, options, x.cfg.RetentionRuns)
	if err != nil {
		x.logs.Log.Warn("Could not record run", slog.Any("error", err))
		return nil
	}
	return run
}

func (x *extractor) finishRun(run *models.Run, inputBytes int, out *pipeline.Result, err error) {
	if run == nil {
		return
	}
	x.storeMu.Lock()
	defer x.storeMu.Unlock()

	outcome := db.Outcome{Err: err, ErrorCode: string(model.Classify(err)), InputBytes: inputBytes}
	if out != nil {
		outcome.OutputBytes = len(out.Text)
		outcome.Leftovers = out.Leftovers
		outcome.Timings = out.Registry.Rows()
	}
	if err := db.FinishRun(x.store, run, outcome); err != nil {
		x.logs.Log.Warn("Could not record run", slog.Any("error", err))
	}
}
