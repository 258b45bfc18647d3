package backend

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		atomic   bool
		expected string
	}{
		{
			name:     "python named group",
			input:    `(?P<name>a)`,
			expected: `(?<name>a)`,
		},
		{
			name:     "python back-reference",
			input:    `(?P<q>")x(?P=q)`,
			expected: `(?<q>")x\k<q>`,
		},
		{
			name:     "absolute end anchor",
			input:    `a\Z`,
			expected: `a\z`,
		},
		{
			name:     "possessive on class with atomic support",
			input:    `[a-z]++`,
			atomic:   true,
			expected: `(?>[a-z]+)`,
		},
		{
			name:     "possessive on group with atomic support",
			input:    `(?:ab|c)*+d`,
			atomic:   true,
			expected: `(?>(?:ab|c)*)d`,
		},
		{
			name:     "possessive on escape with atomic support",
			input:    `\+?+`,
			atomic:   true,
			expected: `(?>\+?)`,
		},
		{
			name:     "possessive counted repetition",
			input:    `a{2,3}+`,
			atomic:   true,
			expected: `(?>a{2,3})`,
		},
		{
			name:     "possessive degrades to greedy",
			input:    `[a-z]++x*+`,
			expected: `[a-z]+x*`,
		},
		{
			name:     "atomic group degrades",
			input:    `(?>a|b)`,
			expected: `(?:a|b)`,
		},
		{
			name:     "lazy quantifier untouched",
			input:    `.*?\n`,
			atomic:   true,
			expected: `.*?\n`,
		},
		{
			name:     "plus inside class is literal",
			input:    `[+*?]+x`,
			atomic:   true,
			expected: `[+*?]+x`,
		},
		{
			name:     "verbose comment is copied untouched",
			input:    "a++ # (?P<x> b++\nc",
			atomic:   true,
			expected: "(?>a+) # (?P<x> b++\nc",
		},
		{
			name:     "possessive after comment and newline",
			input:    "(?:a) # group\n?+",
			atomic:   true,
			expected: "(?>(?:a) # group\n?)",
		},
		{
			name:     "literal brace",
			input:    `\\{d`,
			atomic:   true,
			expected: `\\{d`,
		},
		{
			name:     "conditional keeps its test group",
			input:    `(?(ob)\})`,
			atomic:   true,
			expected: `(?(ob)\})`,
		},
		{
			name:     "balancing group name",
			input:    `(?<-depth>)`,
			atomic:   true,
			expected: `(?<-depth>)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(tt.input, tt.atomic)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTranslateRejectsRecursion(t *testing.T) {
	_, err := Translate(`(?R)`, true)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		backend   string
		expected  string
		expectErr bool
	}{
		{name: "baseline", backend: "baseline", expected: NameBaseline},
		{name: "re alias", backend: "re", expected: NameBaseline},
		{name: "full", backend: "full", expected: NameFull},
		{name: "regex alias", backend: "regex", expected: NameFull},
		{name: "unknown", backend: "pcre", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.backend, time.Second)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, b.Name())
		})
	}
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, Capabilities{}, NewBaseline().Capabilities())
	assert.Equal(t, Capabilities{Atomic: true, Recursion: true, Timeout: true},
		NewFull(time.Second).Capabilities())
	assert.False(t, NewFull(0).Capabilities().Timeout)
}

func TestExprReplace(t *testing.T) {
	for _, b := range []Backend{NewBaseline(), NewFull(time.Second)} {
		t.Run(b.Name(), func(t *testing.T) {
			expr, err := b.Compile(`(?P<word>[a-z]++)\ (?P=word)`)
			require.NoError(t, err)

			out, n, err := expr.Replace("aa aa bb cc cc", func(m *Match) (string, error) {
				return strings.ToUpper(m.Group("word")), nil
			})
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			assert.Equal(t, "AA bb CC", out)
		})
	}
}

func TestExprEmptyMatches(t *testing.T) {
	expr, err := NewFull(time.Second).Compile(`x*`)
	require.NoError(t, err)

	out, n, err := expr.Replace("abc", func(*Match) (string, error) { return "-", nil })
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "-a-b-c-", out)
}

func TestExprMultilineAnchors(t *testing.T) {
	expr, err := NewBaseline().Compile(`^%(.*)`)
	require.NoError(t, err)

	matches, err := expr.FindAll("%one\ntext\n%two")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "one", matches[0].Index(1))
	assert.Equal(t, 1, matches[0].Line())
	assert.Equal(t, "two", matches[1].Index(1))
	assert.Equal(t, 3, matches[1].Line())
}

func TestMatchGroups(t *testing.T) {
	expr, err := NewFull(time.Second).Compile(`(?P<a>x)|(?P<b>y)`)
	require.NoError(t, err)

	m, err := expr.FindFirst("y")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.False(t, m.Has("a"))
	assert.True(t, m.Has("b"))
	assert.Equal(t, "", m.Group("a"))
	assert.Equal(t, "", m.Group("unknown"))
	assert.Equal(t, "y", m.Group("b"))
	assert.Equal(t, 0, m.Start())
	assert.Equal(t, 1, m.End())

	assert.True(t, expr.HasGroup("a"))
	assert.False(t, expr.HasGroup("c"))
	assert.True(t, expr.HasGroup("0"))
}

func TestBalancedGroupsAtArbitraryDepth(t *testing.T) {
	expr, err := NewFull(time.Second).Compile(
		`\{(?<c>(?:[^{}]++|\{(?<d>)|\}(?<-d>))*+(?(d)(?!)))\}`)
	require.NoError(t, err)

	m, err := expr.FindFirst("x{a{b{c}}d}y")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "a{b{c}}d", m.Group("c"))
}

func TestCompileError(t *testing.T) {
	_, err := NewBaseline().Compile(`(unclosed`)
	assert.Error(t, err)
}

func TestCompileIsCached(t *testing.T) {
	b := NewFull(time.Second)
	first, err := b.Compile(`a++`)
	require.NoError(t, err)
	second, err := b.Compile(`a++`)
	require.NoError(t, err)
	assert.Same(t, first.re, second.re)
	assert.Equal(t, `(?>a+)`, second.Translated())
	assert.Equal(t, `a++`, second.Source())
}

func TestTimeout(t *testing.T) {
	b := NewFull(20 * time.Millisecond)
	expr, err := b.Compile(`(a|aa)*c`)
	require.NoError(t, err)

	_, _, err = expr.Replace(strings.Repeat("a", 64), func(m *Match) (string, error) {
		return "", nil
	})
	assert.ErrorIs(t, err, ErrTimeout)
}
