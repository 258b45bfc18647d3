package macro

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/errers/internal/backend"
	"github.com/termfx/errers/internal/dsl"
	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/internal/logging"
)

func newEngines(t *testing.T) map[string]*engine.Engine {
	t.Helper()
	engines := map[string]*engine.Engine{}
	for name, b := range map[string]backend.Backend{
		"baseline": backend.NewBaseline(),
		"full":     backend.NewFull(5 * time.Second),
	} {
		eng, err := dsl.NewEngine(b, engine.Config{})
		require.NoError(t, err)
		engines[name] = eng
	}
	return engines
}

func apply(t *testing.T, s *Synthesizer, text string) string {
	t.Helper()
	out, err := engine.NewRuleList(s.Rules()...).Sub(text, engine.Args{})
	require.NoError(t, err)
	return out
}

func TestSynthesize(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "fixed arity",
			text:     `\newcommand{\foo}(1)(doc.tex)[1]{[#1]}\foo{X}`,
			expected: `[X]`,
		},
		{
			name:     "no parameters swallow the following space",
			text:     `\newcommand{\R}(1)(doc.tex){Real}\R is`,
			expected: `Realis`,
		},
		{
			name:     "backslashes in the body",
			text:     `\newcommand{\b}(1)(doc.tex)[1]{\emph{#1}}\b{x}`,
			expected: `\emph{x}`,
		},
		{
			name:     "optional argument with default",
			text:     `\newcommand{\foo}(1)(doc.tex)[2][def]{<#1|#2>}\foo[a]{b} \foo{c}`,
			expected: `<a|b> <def|c>`,
		},
		{
			name:     "optional argument without default",
			text:     `\newcommand{\foo}(1)(doc.tex)[2][]{<#1|#2>}\foo[a]{b} \foo{c}`,
			expected: `<a|b> <|c>`,
		},
		{
			name:     "delimited parameters stop before the delimiter",
			text:     "\\def{\\foo}(1)(doc.tex){#1,#2.}{<#1|#2>}\n\\foo a b,c. rest",
			expected: "\n<a b|c> rest",
		},
		{
			name:     "undelimited def parameter",
			text:     `\def{\twice}(1)(doc.tex){#1}{#1#1}\twice{ab}`,
			expected: `abab`,
		},
		{
			name:     "environment",
			text:     `\newenvironment{wrap}(1)(doc.tex)[1]{<#1>}{</>}\begin{wrap}{A}body\end{wrap}`,
			expected: `<A>body</>`,
		},
		{
			name:     "environment with optional default",
			text:     `\newenvironment{wrap}(1)(doc.tex)[1][d]{<#1>}{</>}\begin{wrap}x\end{wrap}`,
			expected: `<d>x</>`,
		},
		{
			name:     "counter",
			text:     `\newcounter{sec}(1)(doc.tex)\thesec.`,
			expected: `X.`,
		},
	}

	for name, eng := range newEngines(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				s, err := New(eng, true)
				require.NoError(t, err)
				assert.Equal(t, tt.expected, apply(t, s, tt.text))
			})
		}
	}
}

func TestCreatedRules(t *testing.T) {
	eng := newEngines(t)["full"]
	s, err := New(eng, true)
	require.NoError(t, err)

	apply(t, s, "\\newcommand{\\foo}(3)(chapter.tex)[1]{[#1]\n  }\n")
	require.Equal(t, 1, s.Commands().Len())

	rule := s.Commands().Items()[0].(*engine.Rule)
	assert.Equal(t, engine.Location{File: "chapter.tex", Line: 3}, rule.Location())
	assert.Equal(t, "Rule(`\\\\foo%C`, `[\\g<c1>] `)", rule.String())
	assert.False(t, rule.Iterative())
	assert.True(t, s.Commands().Iterative(), "brackets at any depth need a single pass of an iterative list")
}

func TestOptionalDefaultCreatesTwoRules(t *testing.T) {
	s, err := New(newEngines(t)["baseline"], true)
	require.NoError(t, err)

	apply(t, s, `\newcommand{\foo}(1)(doc.tex)[2][\dflt]{<#1|#2>}`)
	require.Equal(t, 2, s.Commands().Len())
	assert.False(t, s.Commands().Iterative())

	withDefault := s.Commands().Items()[1].(*engine.Rule)
	assert.Equal(t, "Rule(`\\\\foo%c`, `<\\\\dflt|\\g<c1>>`)", withDefault.String())
}

func TestDefinitionsErasedWithoutAuto(t *testing.T) {
	s, err := New(newEngines(t)["full"], false)
	require.NoError(t, err)

	out := apply(t, s, `\newcommand{\foo}(1)(doc.tex)[1]{[#1]}\def{\bar}(2)(doc.tex){}{B}\foo{X}\bar`)
	assert.Equal(t, `\foo{X}\bar`, out)
	assert.Zero(t, s.Commands().Len())
}

func TestInvalidArity(t *testing.T) {
	var buf bytes.Buffer
	logs := logging.New(logging.Config{Level: slog.LevelInfo, Output: &buf})
	eng, err := dsl.NewEngine(backend.NewFull(5*time.Second), engine.Config{Logs: logs})
	require.NoError(t, err)

	s, err := New(eng, true)
	require.NoError(t, err)

	out := apply(t, s, `\newcommand{\foo}(4)(doc.tex)[x]{[#1]}\foo{X}`)
	assert.Equal(t, `\foo{X}`, out)
	assert.Zero(t, s.Commands().Len())
	assert.Contains(t, buf.String(), "invalid number of parameters")
	assert.Contains(t, buf.String(), "doc.tex, line 4")
}

func TestTraceCreated(t *testing.T) {
	var buf bytes.Buffer
	logs := logging.New(logging.Config{Level: slog.LevelInfo, Output: &buf, Trace: true})
	eng, err := dsl.NewEngine(backend.NewFull(5*time.Second), engine.Config{Logs: logs})
	require.NoError(t, err)

	s, err := New(eng, true)
	require.NoError(t, err)
	apply(t, s, `\newcounter{sec}(7)(doc.tex)`)
	assert.Contains(t, buf.String(), "Created doc.tex, line 7")
}
