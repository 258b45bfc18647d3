// Package engine implements instrumented patterns and the rules built on
// them: compilation with location capture and timing, substitution with
// effective-change accounting, iteration to a fixpoint and ordered rule
// lists.
package engine

import (
	"strings"

	"github.com/termfx/errers/internal/backend"
	"github.com/termfx/errers/internal/logging"
)

// Compiler expands a rule-language pattern into backend syntax.
type Compiler interface {
	Expand(src string) (string, error)
}

// Config carries the run-scoped collaborators of an Engine.
type Config struct {
	Registry  *Registry
	Compiler  Compiler
	Interrupt func() bool
	Logs      logging.Channels
}

// Engine creates patterns and rules bound to one backend. Engines derived
// through Plain or WithCompiler share the registry, log channels and the
// trace nesting depth.
type Engine struct {
	backend   backend.Backend
	registry  *Registry
	compiler  Compiler
	interrupt func() bool
	logs      logging.Channels
	depth     *int
}

// New returns an engine for b. Missing collaborators get defaults.
func New(b backend.Backend, cfg Config) *Engine {
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Logs.Log == nil {
		cfg.Logs = logging.Discard()
	}
	return &Engine{
		backend:   b,
		registry:  cfg.Registry,
		compiler:  cfg.Compiler,
		interrupt: cfg.Interrupt,
		logs:      cfg.Logs,
		depth:     new(int),
	}
}

// Plain returns a sibling engine whose patterns skip the DSL compiler.
func (e *Engine) Plain() *Engine {
	plain := *e
	plain.compiler = nil
	return &plain
}

// WithCompiler returns a sibling engine whose patterns are expanded by c.
func (e *Engine) WithCompiler(c Compiler) *Engine {
	layered := *e
	layered.compiler = c
	return &layered
}

func (e *Engine) Backend() backend.Backend { return e.backend }
func (e *Engine) Registry() *Registry      { return e.registry }
func (e *Engine) Logs() logging.Channels   { return e.logs }

// SinglePass reports whether brackets match at any depth, in which case the
// main rules need a single pass instead of iterating to a fixpoint.
func (e *Engine) SinglePass() bool { return e.backend.Capabilities().Recursion }

func (e *Engine) interrupted() bool {
	return e.interrupt != nil && e.interrupt()
}

// Compact strips verbose comments, unescaped spaces and newlines from a
// pattern source for display.
func Compact(src string) string {
	var b strings.Builder
	escaped := false
	comment := false
	for _, r := range src {
		switch {
		case comment:
			if r == '\n' {
				comment = false
			}
			continue
		case escaped:
			b.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			b.WriteRune(r)
			escaped = true
		case '#':
			comment = true
		case ' ', '\n':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
