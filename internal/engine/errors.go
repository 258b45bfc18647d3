package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for programmatic checking.
var (
	// ErrRegularExpression matches every pattern compilation or rule
	// application error through errors.Is.
	ErrRegularExpression = errors.New("regular expression error")
	// ErrInterrupted is returned when the interruption probe fires before a
	// substitution.
	ErrInterrupted = errors.New("extraction interrupted")
)

// PatternCompileError reports a pattern the backend could not compile.
type PatternCompileError struct {
	Location Location
	Pattern  string
	Expanded string
	Excerpt  string
	Err      error
}

func (e *PatternCompileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: cannot compile pattern %s: %v", e.Location, quote(e.Pattern), e.Err)
	if e.Excerpt != "" {
		b.WriteString("\n")
		b.WriteString(e.Excerpt)
	}
	return b.String()
}

func (e *PatternCompileError) Unwrap() error        { return e.Err }
func (e *PatternCompileError) Is(target error) bool { return target == ErrRegularExpression }

// RuleApplicationError reports a replacement that could not be expanded for
// a match, such as a template naming an unknown group.
type RuleApplicationError struct {
	Location Location
	Rule     string
	Excerpt  string
	Err      error
}

func (e *RuleApplicationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: cannot apply %s: %v", e.Location, e.Rule, e.Err)
	if e.Excerpt != "" {
		b.WriteString("\n")
		b.WriteString(e.Excerpt)
	}
	return b.String()
}

func (e *RuleApplicationError) Unwrap() error        { return e.Err }
func (e *RuleApplicationError) Is(target error) bool { return target == ErrRegularExpression }

// CatastrophicBacktracking reports a backend call that exceeded the time
// budget. Kind is "pattern" or "rule" depending on the owning object.
type CatastrophicBacktracking struct {
	Kind     string
	Location Location
	Object   string
	Timeout  time.Duration
	Err      error
}

func (e *CatastrophicBacktracking) Error() string {
	return fmt.Sprintf("%s: catastrophic backtracking in %s %s (time budget %s)",
		e.Location, e.Kind, e.Object, e.Timeout)
}

func (e *CatastrophicBacktracking) Unwrap() error { return e.Err }

// TemplateError is a malformed or unresolvable replacement template.
type TemplateError struct {
	Template string
	Pos      int
	Msg      string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}

// Excerpt renders the template with a caret line under the error position.
func (e *TemplateError) Excerpt() string {
	return excerpt(e.Template, e.Pos)
}

// excerpt shows text split at pos: the part before, a marker line, then the
// part after, indented to the split column of the last line.
func excerpt(text string, pos int) string {
	runes := []rune(text)
	if pos < 0 {
		pos = 0
	}
	if pos > len(runes) {
		pos = len(runes)
	}
	before, after := string(runes[:pos]), string(runes[pos:])
	col := len([]rune(before[strings.LastIndexByte(before, '\n')+1:]))
	return before + "\n" + strings.Repeat("-", col) + "^\n" + strings.Repeat(" ", col) + after
}
