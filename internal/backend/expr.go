package backend

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

// Expr is a compiled expression bound to the backend that produced it.
type Expr struct {
	source     string
	translated string
	re         *regexp2.Regexp
}

// Source returns the pattern text as given to Compile.
func (e *Expr) Source() string { return e.source }

// Translated returns the text handed to regexp2.
func (e *Expr) Translated() string { return e.translated }

// GroupNames returns the names of all groups, numbered groups included.
func (e *Expr) GroupNames() []string { return e.re.GetGroupNames() }

// HasGroup reports whether name (or a decimal group number) is defined.
func (e *Expr) HasGroup(name string) bool {
	if n, err := strconv.Atoi(name); err == nil {
		for _, num := range e.re.GetGroupNumbers() {
			if num == n {
				return true
			}
		}
		return false
	}
	return e.re.GroupNumberFromName(name) >= 0
}

// FindFirst returns the leftmost match or nil.
func (e *Expr) FindFirst(text string) (*Match, error) {
	input := []rune(text)
	m, err := e.re.FindRunesMatch(input)
	if err != nil {
		return nil, wrapRunError(err)
	}
	if m == nil {
		return nil, nil
	}
	return &Match{m: m, input: input}, nil
}

// Each calls fn for every non-overlapping match, left to right.
func (e *Expr) Each(text string, fn func(*Match) error) error {
	input := []rune(text)
	m, err := e.re.FindRunesMatch(input)
	for ; m != nil && err == nil; m, err = e.re.FindNextMatch(m) {
		if ferr := fn(&Match{m: m, input: input}); ferr != nil {
			return ferr
		}
	}
	return wrapRunError(err)
}

// FindAll collects every non-overlapping match.
func (e *Expr) FindAll(text string) ([]*Match, error) {
	var matches []*Match
	err := e.Each(text, func(m *Match) error {
		matches = append(matches, m)
		return nil
	})
	return matches, err
}

// Replace substitutes every match with the text returned by fn and reports
// the number of matches.
func (e *Expr) Replace(text string, fn func(*Match) (string, error)) (string, int, error) {
	input := []rune(text)
	var b strings.Builder
	last, n := 0, 0

	m, err := e.re.FindRunesMatch(input)
	for ; m != nil && err == nil; m, err = e.re.FindNextMatch(m) {
		rep, ferr := fn(&Match{m: m, input: input})
		if ferr != nil {
			return text, n, ferr
		}
		b.WriteString(string(input[last:m.Index]))
		b.WriteString(rep)
		last = m.Index + m.Length
		n++
	}
	if err != nil {
		return text, n, wrapRunError(err)
	}
	if n == 0 {
		return text, 0, nil
	}
	b.WriteString(string(input[last:]))
	return b.String(), n, nil
}

// Match is one match of an Expr. Offsets are in runes.
type Match struct {
	m     *regexp2.Match
	input []rune
}

// Text returns the whole matched text.
func (m *Match) Text() string { return m.m.String() }

// Start returns the rune offset of the match.
func (m *Match) Start() int { return m.m.Index }

// End returns the rune offset just past the match.
func (m *Match) End() int { return m.m.Index + m.m.Length }

// Input returns the text the match was found in.
func (m *Match) Input() string { return string(m.input) }

// Line returns the 1-based line number of the match start.
func (m *Match) Line() int {
	line := 1
	for _, r := range m.input[:m.m.Index] {
		if r == '\n' {
			line++
		}
	}
	return line
}

// Group returns the last capture of a named group, or "" when the group did
// not participate or is unknown.
func (m *Match) Group(name string) string {
	g := m.m.GroupByName(name)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return g.String()
}

// Has reports whether the named group participated in the match.
func (m *Match) Has(name string) bool {
	g := m.m.GroupByName(name)
	return g != nil && len(g.Captures) > 0
}

// Index returns the last capture of a numbered group.
func (m *Match) Index(n int) string {
	g := m.m.GroupByNumber(n)
	if g == nil || len(g.Captures) == 0 {
		return ""
	}
	return g.String()
}

// HasIndex reports whether the numbered group participated in the match.
func (m *Match) HasIndex(n int) bool {
	g := m.m.GroupByNumber(n)
	return g != nil && len(g.Captures) > 0
}
