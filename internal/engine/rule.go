package engine

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/termfx/errers/internal/logging"
)

// Args are the per-call parameters of Sub and Subn.
type Args struct {
	// Steps logs every round that changed the text on the steps channel.
	Steps bool
	Vars  Vars
}

// Appliable is implemented by Rule and RuleList.
type Appliable interface {
	Sub(text string, args Args) (string, error)
	Subn(text string, args Args) (string, int, error)
	Iterative() bool
}

// Rule substitutes matches of a pattern with a replacement.
type Rule struct {
	pattern    *Pattern
	repl       Replacement
	iterative  bool
	subMatches []string
}

// NewRule compiles pattern and binds it to repl.
func (e *Engine) NewRule(pattern string, repl Replacement, opts ...Option) (*Rule, error) {
	return e.newRule(pattern, repl, collect(opts))
}

// MustRule is NewRule that panics with the compile error. Providers recover
// the panic with Recover.
func (e *Engine) MustRule(pattern string, repl Replacement, opts ...Option) *Rule {
	r, err := e.newRule(pattern, repl, collect(opts))
	if err != nil {
		panic(err)
	}
	return r
}

// Rule is MustRule with a literal template.
func (e *Engine) Rule(pattern, template string, opts ...Option) *Rule {
	r, err := e.newRule(pattern, Literal(template), collect(opts))
	if err != nil {
		panic(err)
	}
	return r
}

func (e *Engine) newRule(pattern string, repl Replacement, o *options) (*Rule, error) {
	r := &Rule{repl: repl, iterative: o.iterative, subMatches: o.subMatches}
	o.owner = r
	o.ownerKind = "rule"
	o.callerSkip = 2
	p, err := e.newPattern(pattern, o)
	if err != nil {
		return nil, err
	}
	r.pattern = p
	if o.traceCreate && logging.Enabled(e.logs.Trace) {
		e.logs.Trace.Debug(logging.Indent(*e.depth, "Created "+p.loc.String()+": "+r.String()))
	}
	return r, nil
}

// Recover turns a compile-error panic raised by MustRule into *err. Other
// panics are re-raised.
func Recover(err *error) {
	if v := recover(); v != nil {
		if cerr, ok := v.(*PatternCompileError); ok {
			*err = cerr
			return
		}
		panic(v)
	}
}

func (r *Rule) Pattern() *Pattern        { return r.pattern }
func (r *Rule) Replacement() Replacement { return r.repl }
func (r *Rule) Iterative() bool          { return r.iterative }
func (r *Rule) Location() Location       { return r.pattern.loc }

func (r *Rule) String() string {
	var b strings.Builder
	b.WriteString("Rule(")
	if r.pattern != nil {
		b.WriteString(quote(r.pattern.compact))
	}
	b.WriteString(", ")
	b.WriteString(r.repl.String())
	if r.iterative {
		b.WriteString(", iterative=true")
	}
	b.WriteString(")")
	return b.String()
}

// Sub applies the rule and returns the new text.
func (r *Rule) Sub(text string, args Args) (string, error) {
	out, _, err := r.Subn(text, args)
	return out, err
}

// Subn applies the rule, repeating while it is iterative and the last round
// made an effective substitution, and returns the total count.
func (r *Rule) Subn(text string, args Args) (string, int, error) {
	total := 0
	for round := 1; ; round++ {
		out, n, err := r.pattern.Subn(text, r.repl, args.Vars, r.subMatches...)
		if err != nil {
			return text, total, err
		}
		if n > 0 && args.Steps {
			r.logStep(round, n, text, out)
		}
		text = out
		total += n
		if !r.iterative || n == 0 {
			return text, total, nil
		}
	}
}

func (r *Rule) logStep(round, n int, before, after string) {
	steps := r.pattern.eng.logs.Steps
	if !logging.Enabled(steps) {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  1,
	})
	if err != nil {
		diff = fmt.Sprintf("diff unavailable: %v", err)
	}
	steps.Debug(r.pattern.loc.String()+": "+r.String(),
		"round", round,
		"substitutions", n,
		"diff", diff)
}
