package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/termfx/errers/internal/backend"
	"github.com/termfx/errers/internal/logging"
)

// Match is a single match of a pattern.
type Match = backend.Match

// Location identifies where a pattern or rule was created.
type Location struct {
	File  string
	Line  int
	Scope string
}

func (l Location) String() string {
	if l.Scope == "" {
		return fmt.Sprintf("%s, line %d", l.File, l.Line)
	}
	return fmt.Sprintf("%s, line %d, %s", l.File, l.Line, l.Scope)
}

// Timer accumulates the number and duration of timed calls.
type Timer struct {
	Count   int
	Elapsed time.Duration
}

func (t *Timer) start() func() {
	t.Count++
	begin := time.Now()
	return func() { t.Elapsed += time.Since(begin) }
}

// Option configures a pattern or rule at creation.
type Option func(*options)

type options struct {
	file, scope *string
	line        *int
	compact     *string
	iterative   bool
	subMatches  []string
	callerSkip  int
	traceCreate bool
	owner       fmt.Stringer
	ownerKind   string
}

// WithLocation overrides the captured creation site.
func WithLocation(file string, line int, scope string) Option {
	return func(o *options) {
		o.file, o.line, o.scope = &file, &line, &scope
	}
}

// WithFile overrides the captured file name only.
func WithFile(file string) Option {
	return func(o *options) { o.file = &file }
}

// WithLine overrides the captured line number only.
func WithLine(line int) Option {
	return func(o *options) { o.line = &line }
}

// WithScope overrides the captured scope only.
func WithScope(scope string) Option {
	return func(o *options) { o.scope = &scope }
}

// WithCompact overrides the display form of the pattern.
func WithCompact(text string) Option {
	return func(o *options) { o.compact = &text }
}

// Iterative makes a rule repeat until a round changes nothing.
func Iterative() Option {
	return func(o *options) { o.iterative = true }
}

// IterativeIf is Iterative when on is true.
func IterativeIf(on bool) Option {
	return func(o *options) { o.iterative = on }
}

// SubMatches restricts counted matches to those where at least one of the
// named groups participated.
func SubMatches(names ...string) Option {
	return func(o *options) { o.subMatches = names }
}

// Traced logs the creation of the rule on the trace channel.
func Traced() Option {
	return func(o *options) { o.traceCreate = true }
}

// Pattern is a compiled expression with its creation site and counters.
type Pattern struct {
	eng      *Engine
	source   string
	compact  string
	expanded string
	expr     *backend.Expr
	loc      Location
	owner    fmt.Stringer
	kind     string

	Compilation Timer
	Run         Timer
	Matches     int
}

// NewPattern compiles src, registering the pattern in the engine registry.
func (e *Engine) NewPattern(src string, opts ...Option) (*Pattern, error) {
	o := collect(opts)
	o.callerSkip = 1
	return e.newPattern(src, o)
}

// MustPattern is NewPattern that panics with the compile error.
func (e *Engine) MustPattern(src string, opts ...Option) *Pattern {
	o := collect(opts)
	o.callerSkip = 1
	p, err := e.newPattern(src, o)
	if err != nil {
		panic(err)
	}
	return p
}

func collect(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (e *Engine) newPattern(src string, o *options) (*Pattern, error) {
	p := &Pattern{eng: e, source: src, kind: "pattern"}
	p.loc = callerLocation(o.callerSkip + 2)
	if o.file != nil {
		p.loc.File = *o.file
	}
	if o.line != nil {
		p.loc.Line = *o.line
	}
	if o.scope != nil {
		p.loc.Scope = *o.scope
	}
	if o.compact != nil {
		p.compact = *o.compact
	} else {
		p.compact = Compact(src)
	}
	p.owner = p
	if o.owner != nil {
		p.owner = o.owner
		p.kind = o.ownerKind
	}
	e.registry.add(p)

	stop := p.Compilation.start()
	defer stop()

	expanded := src
	if e.compiler != nil {
		var err error
		if expanded, err = e.compiler.Expand(src); err != nil {
			return nil, e.compileError(p, src, err)
		}
	}
	p.expanded = expanded

	if logging.Enabled(e.logs.Patterns) {
		e.logs.Patterns.Debug("Pattern "+p.loc.String(), "pattern", expanded)
	}

	expr, err := e.backend.Compile(expanded)
	if err != nil {
		return nil, e.compileError(p, expanded, err)
	}
	p.expr = expr
	return p, nil
}

func (e *Engine) compileError(p *Pattern, expanded string, err error) error {
	var cerr *PatternCompileError
	if errors.As(err, &cerr) {
		return err
	}
	cerr = &PatternCompileError{
		Location: p.loc,
		Pattern:  p.source,
		Expanded: expanded,
		Err:      err,
	}
	e.logs.Log.Error(cerr.Error())
	return cerr
}

// callerLocation describes the frame skip levels above itself.
func callerLocation(skip int) Location {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return Location{File: "<unknown>"}
	}
	scope := ""
	if fn := runtime.FuncForPC(pc); fn != nil {
		scope = shortFuncName(fn.Name())
	}
	return Location{File: filepath.Base(file), Line: line, Scope: scope}
}

// shortFuncName drops the package path and closure suffixes.
func shortFuncName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	parts := strings.Split(name, ".")
	for len(parts) > 1 {
		last := parts[len(parts)-1]
		if !strings.HasPrefix(last, "func") && !isDigits(last) {
			break
		}
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (p *Pattern) Source() string      { return p.source }
func (p *Pattern) CompactForm() string { return p.compact }
func (p *Pattern) Expanded() string    { return p.expanded }
func (p *Pattern) Location() Location  { return p.loc }
func (p *Pattern) Expr() *backend.Expr { return p.expr }

func (p *Pattern) String() string {
	return "Pattern(" + quote(p.compact) + ")"
}

// Search returns the leftmost match or nil.
func (p *Pattern) Search(text string) (*Match, error) {
	var m *Match
	err := p.run(func() (int, error) {
		var err error
		m, err = p.expr.FindFirst(text)
		if m != nil {
			return 1, err
		}
		return 0, err
	})
	return m, err
}

// FindAll returns every non-overlapping match.
func (p *Pattern) FindAll(text string) ([]*Match, error) {
	var ms []*Match
	err := p.run(func() (int, error) {
		var err error
		ms, err = p.expr.FindAll(text)
		return len(ms), err
	})
	return ms, err
}

// Iterate calls fn for every match; errors from fn stop the iteration.
func (p *Pattern) Iterate(text string, fn func(*Match) error) error {
	return p.run(func() (int, error) {
		n := 0
		err := p.expr.Each(text, func(m *Match) error {
			n++
			return fn(m)
		})
		return n, err
	})
}

// Subn replaces every match and returns the new text and the number of
// effective substitutions. Function replacements that return the matched
// text unchanged are not counted. With subMatches, only matches where one
// of the named groups participated are counted.
func (p *Pattern) Subn(text string, repl Replacement, vars Vars, subMatches ...string) (string, int, error) {
	if p.eng.interrupted() {
		return text, 0, ErrInterrupted
	}

	fn, err := repl.resolve(p)
	if err != nil {
		return text, 0, p.applicationError(err)
	}

	void := 0
	var out string
	var n int
	err = p.run(func() (int, error) {
		var err error
		counted := 0
		out, _, err = p.expr.Replace(text, func(m *Match) (string, error) {
			s, err := fn(m, vars)
			if err != nil {
				return "", err
			}
			if repl.callable() && s == m.Text() {
				void++
			}
			if hasAny(m, subMatches) {
				counted++
			}
			return s, nil
		})
		n = counted
		return n, err
	})
	if err != nil {
		var aerr *RuleApplicationError
		var terr *TemplateError
		if !errors.As(err, &aerr) && errors.As(err, &terr) {
			return text, 0, p.applicationError(err)
		}
		return text, 0, err
	}
	return out, n - void, nil
}

// hasAny reports whether one of the named groups participated in m. An
// empty list accepts every match.
func hasAny(m *Match, names []string) bool {
	if len(names) == 0 {
		return true
	}
	for _, name := range names {
		if m.Has(name) {
			return true
		}
	}
	return false
}

// run traces, times and counts one backend call.
func (p *Pattern) run(call func() (int, error)) error {
	eng := p.eng
	if logging.Enabled(eng.logs.Trace) {
		eng.logs.Trace.Debug(logging.Indent(*eng.depth, "Applying "+p.loc.String()+": "+p.owner.String()))
	}

	*eng.depth++
	defer func() { *eng.depth-- }()

	stop := p.Run.start()
	n, err := call()
	stop()
	p.Matches += n
	return p.timeoutError(err)
}

func (p *Pattern) timeoutError(err error) error {
	if err == nil || !errors.Is(err, backend.ErrTimeout) {
		return err
	}
	// Raised by a nested rule: it already names the offending pattern.
	var cb *CatastrophicBacktracking
	if errors.As(err, &cb) {
		return err
	}
	return &CatastrophicBacktracking{
		Kind:     p.kind,
		Location: p.loc,
		Object:   p.owner.String(),
		Timeout:  p.eng.backend.Timeout(),
		Err:      err,
	}
}

func (p *Pattern) applicationError(err error) error {
	aerr := &RuleApplicationError{Location: p.loc, Rule: p.owner.String(), Err: err}
	var terr *TemplateError
	if errors.As(err, &terr) {
		aerr.Excerpt = terr.Excerpt()
	}
	return aerr
}

// quote renders s for display, preferring a raw string literal.
func quote(s string) string {
	if !strings.Contains(s, "`") && strconv.CanBackquote(s) {
		return "`" + s + "`"
	}
	return strconv.Quote(s)
}
