// Package dsl expands the LaTeX placeholders of the rule language into
// backend patterns.
//
// Placeholders:
//
//	%c %r %s  curly, round, square bracket pair (captured as cN, rN, sN)
//	%C        curly pair, command name or single character (cN)
//	%m        command name
//	%h        horizontal white space
//	%n        like %h plus at most one newline and comment-only lines
//	%w        any white space
//
// A bracket placeholder can be named explicitly with an empty group such as
// %c(?P<title>), in which case the index is not incremented. Patterns that
// start with a command get boundary guards so that they neither match inside
// longer names nor the name in a definition.
package dsl

import (
	"strconv"
	"strings"

	"github.com/termfx/errers/internal/backend"
	"github.com/termfx/errers/internal/engine"
)

// Compiler implements engine.Compiler.
type Compiler struct {
	rules   *engine.RuleList
	align   *engine.RuleList
	matcher BracketMatcher
}

// NewEngine returns an engine for b whose patterns are expanded by a
// Compiler matching the backend capabilities.
func NewEngine(b backend.Backend, cfg engine.Config) (*engine.Engine, error) {
	base := engine.New(b, cfg)
	c, err := New(base.Plain(), MatcherFor(b.Capabilities()))
	if err != nil {
		return nil, err
	}
	return base.WithCompiler(c), nil
}

// New builds the expansion rules on a plain engine.
func New(plain *engine.Engine, matcher BracketMatcher) (c *Compiler, err error) {
	defer engine.Recover(&err)

	c = &Compiler{matcher: matcher}
	c.align = newAligner(plain)
	c.rules = engine.NewRuleList(
		plain.MustRule(`\A\\\\(?=.)`, engine.Text(func(*engine.Match) string {
			return lookbehinds
		})),
		plain.MustRule(macroName+asterisk+`\z`, engine.Text(func(m *engine.Match) string {
			return m.Group("name") + m.Group("asterisk") + lookaheadNoArgument
		})),
		plain.MustRule(macroName+asterisk+argumentPrefix, engine.Text(func(m *engine.Match) string {
			return m.Group("name") + m.Group("asterisk") + m.Group("args") + lookaheadArgument
		})),
		plain.MustRule(`%([Ccrs])(?:\(\?P?<(\w++)>\))?`, engine.Generator(c.brackets)),
		plain.MustRule(`%m`, engine.Text(func(*engine.Match) string { return commandName })),
		plain.MustRule(`%n`, engine.Text(func(*engine.Match) string { return `%h\n?+%h(?:%.*+\n%h)*+` })),
		plain.MustRule(`%h`, engine.Text(func(*engine.Match) string { return `[\ \t]*+` })),
		plain.MustRule(`%w`, engine.Text(func(*engine.Match) string { return `[\ \t\n]*+` })),
		plain.MustRule(`(?<=(?<!\\)(?:\\\\)*)\{(?=[deis])`, engine.Text(func(*engine.Match) string { return `\{` })),
	)
	return c, nil
}

// Expand rewrites the placeholders of src.
func (c *Compiler) Expand(src string) (string, error) {
	return c.rules.Sub(src, engine.Args{})
}

// brackets returns the replacement for one round of placeholder expansion.
// Indices restart with every pattern.
func (c *Compiler) brackets() engine.ReplaceFunc {
	indices := map[string]int{}
	return func(m *engine.Match, _ engine.Vars) (string, error) {
		kind, group := m.Index(1), m.Index(2)
		lower := strings.ToLower(kind)
		if group == "" {
			indices[lower]++
			group = lower + strconv.Itoa(indices[lower])
		}

		var pattern string
		switch kind {
		case "C":
			pattern = c.matcher.Argument(group)
		case "c":
			pattern = c.matcher.Pair(Curly, group)
		case "r":
			pattern = c.matcher.Pair(Round, group)
		default:
			pattern = c.matcher.Pair(Square, group)
		}
		return c.align.Sub(pattern, engine.Args{})
	}
}

const lookbehinds = `
                          # NEGATIVE LOOK-BEHIND PATTERNS
(?<!(?<!\\)\\)            # Not after a lone backslash
(?<!\\newcommand\{)       # Not the name in a definition
(?<!\\def\{)              # made by newcommand or def
\\`

const macroName = `
(?<name>
    \\\\
    (?:
        (?=
            (?<element>
                (?:
                    [a-zA-Z]++
                    |
                    \[[a-zA-Z]++\]
                    |
                    \([a-zA-Z\|]++\)
                    |
                    \(\?:[a-zA-Z\|]++\)
                )
                (?:\?|\+?+)?+
            )
        )
        \k<element>
    )++
)
`

const asterisk = `(?<asterisk>\\\*\?\+?+)?+`

const argumentPrefix = `(?<args>(?:%[rs]\?)*+(?=%C))`

const lookaheadNoArgument = `
                          # NEGATIVE LOOK-AHEAD PATTERNS (NO ARGUMENT)
(?![a-zA-Z])              # Not followed by a letter
(?:%n(?!\n)|%h)           # Trailing white space dropped
`

const lookaheadArgument = `
                          # NEGATIVE LOOK-AHEAD PATTERN (WITH ARGUMENT)
(?![a-zA-Z])              # Not followed by a letter
`

const commandName = `
                          # COMMAND NAME
    \\                    # Initial backslash
    (?:
        [a-zA-Z]++        # Letters
        |                 # Or
        \s                # Single white space
        |                 # Or
        .                 # Any other character
    )
`
