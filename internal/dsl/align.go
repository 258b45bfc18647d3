package dsl

import (
	"strings"

	"github.com/termfx/errers/internal/engine"
)

// commentColumn is where comments of generated blocks start.
const commentColumn = 46

// newlineGrowth is how much longer a line gets once %n is expanded.
var newlineGrowth = len(`[\ \t]*+\n?+[\ \t]*+(?:%.*+\n[\ \t]*+)*+`) - len(`%n`)

// newAligner returns rules that line up the comments of generated blocks so
// that expanded patterns stay readable in error messages and dumps.
func newAligner(plain *engine.Engine) *engine.RuleList {
	return engine.NewRuleList(
		plain.MustRule(`^([^%#\n]+)(\#.*)`, engine.Text(func(m *engine.Match) string {
			code := strings.TrimRight(m.Index(1), " ")
			return code + padding(commentColumn-len(code)) + m.Index(2)
		})),
		plain.MustRule(`^(\ +%n)\ +(\#.*)`, engine.Text(func(m *engine.Match) string {
			return m.Index(1) + padding(commentColumn-len(m.Index(1))-newlineGrowth) + m.Index(2)
		})),
	)
}

func padding(n int) string {
	return strings.Repeat(" ", max(n, 1))
}
