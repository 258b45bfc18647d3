// Package pipeline runs an extraction: it opens the document, selects the
// rule lists of every phase and applies them in order.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/termfx/errers/internal/backend"
	"github.com/termfx/errers/internal/document"
	"github.com/termfx/errers/internal/dsl"
	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/internal/logging"
	"github.com/termfx/errers/providers"
	"github.com/termfx/errers/providers/standard"
)

// DefaultTimeout bounds one matching call on the full backend.
const DefaultTimeout = 5 * time.Second

// Source is the document to extract: a file when Path is set, else Text.
type Source struct {
	Path string
	Text string
}

// Options configures an extraction.
type Options struct {
	// Backend runs the patterns. When nil, the full backend with Timeout is
	// used.
	Backend backend.Backend
	Timeout time.Duration

	// Auto synthesizes rules for commands defined in the document.
	Auto bool
	// Default applies the generic catch-all rules of the cleanup phases.
	Default bool
	// Local searches LocalRules before Standard.
	Local      bool
	LocalRules *providers.Namespace
	Standard   *providers.Namespace

	Logs logging.Channels
	// Steps records every effective substitution on the steps channel.
	Steps bool
}

// Result is the outcome of an extraction.
type Result struct {
	Text string
	// Report is the timing report in CSV form.
	Report    []byte
	Registry  *engine.Registry
	Leftovers map[string]int
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Backend == nil {
		o.Backend = backend.NewFull(o.Timeout)
	}
	if o.Standard == nil {
		o.Standard = standard.Namespace()
	}
	if o.Logs.Log == nil {
		o.Logs = logging.Discard()
	}
	return o
}

// Extract converts src to plain text. Cancelling ctx stops the extraction
// before the next substitution with engine.ErrInterrupted.
func Extract(ctx context.Context, src Source, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if ctx.Err() != nil {
		return nil, engine.ErrInterrupted
	}
	log := opts.Logs.Log

	logOptions(log, opts)
	log.Info("Starting extraction")

	registry := engine.NewRegistry()
	eng, err := dsl.NewEngine(opts.Backend, engine.Config{
		Registry:  registry,
		Interrupt: func() bool { return ctx.Err() != nil },
		Logs:      opts.Logs,
	})
	if err != nil {
		return nil, err
	}

	doc, err := open(eng, src)
	if err != nil {
		return nil, err
	}
	location, other, err := selectRules(eng, doc, opts)
	if err != nil {
		return nil, err
	}

	if logging.Enabled(opts.Logs.Steps) {
		opts.Logs.Steps.Debug(doc.Content + strings.Repeat("=", 80))
	}
	text, err := location.Sub(doc.Content, engine.Args{
		Steps: opts.Steps,
		Vars:  engine.Vars{"file_name": doc.FileName()},
	})
	if err != nil {
		return nil, err
	}
	if text, err = other.Sub(text, engine.Args{Steps: opts.Steps}); err != nil {
		return nil, err
	}

	leftovers, err := census(eng, text)
	if err != nil {
		return nil, err
	}
	if len(leftovers) > 0 {
		log.Warn(leftoverMessage(leftovers, opts, !doc.HasLog))
	}
	log.Info("Extraction done")

	var report bytes.Buffer
	if err := registry.WriteCSV(&report); err != nil {
		return nil, fmt.Errorf("failed to write timing report: %w", err)
	}
	return &Result{Text: text, Report: report.Bytes(), Registry: registry, Leftovers: leftovers}, nil
}

func open(eng *engine.Engine, src Source) (*document.Document, error) {
	if src.Path != "" {
		return document.Open(eng, src.Path)
	}
	return document.FromString(eng, src.Text)
}

func logOptions(log *slog.Logger, opts Options) {
	caps := opts.Backend.Capabilities()
	log.Info("Matching backend",
		slog.String("name", opts.Backend.Name()),
		slog.Bool("atomic", caps.Atomic),
		slog.Bool("recursion", caps.Recursion),
		slog.Duration("timeout", opts.Backend.Timeout()))
	if caps.Timeout {
		log.Info("Automatic detection of catastrophic backtracking activated.")
	} else {
		log.Warn("Automatic detection of catastrophic backtracking deactivated. " +
			"Ill-designed substitution rules may cause the extraction to hang; " +
			"the trace channel shows the offending substitution rule.")
	}
	if !caps.Atomic {
		log.Warn("Possessive quantifiers and atomic groups are unavailable, which makes " +
			"catastrophic backtracking more likely, especially for commands defined in the " +
			`document with \newcommand, \renewcommand, \providecommand, \def, \edef, \gdef ` +
			`and \xdef that involve several levels of curly brackets. Placing them between ` +
			`\makeatletter and \makeatother and writing rules for them by hand avoids the issue.`)
	}

	report := func(what string, on bool) {
		if on {
			log.Info(what + " rules applied")
		} else {
			log.Warn(what + " rules not applied")
		}
	}
	report("Automatic", opts.Auto)
	report("Default", opts.Default)
	if opts.LocalRules != nil {
		report("Local", opts.Local)
	}
}
