package standard

import (
	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/providers"
)

// Text inside an mfpic environment that comes before its end or any label
// command.
const mfpicBody = `
(?:
    (?!\\end{mfpic})
    (?!\\tlabel[^a-zA-Z])
    (?!\\tlabels[^a-zA-Z])
    (?!\\axislabels[^a-zA-Z])
    (?!\\plottext[^a-zA-Z])
    (?!\\tcaption[^a-zA-Z])
    .
)*+
`

// packageMfpicMain keeps the labels of mfpic drawings. They are moved
// before the environment one at a time, then the emptied environment goes.
func packageMfpicMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\opengraphsfile%C`, ``),
		eng.Rule(`\\fdef%C%C%C`, ``),
		engine.NewRuleList(
			eng.Rule(`(?s)
(?P<env>\\begin{mfpic}`+mfpicBody+`)
(?:
    \\tlabel(?P<tlabel>%s?(?:%r|%c)%C)
    |
    (?P<tlabels>\\tlabels%n{)(?!})             # Keep the command for the
    %s?(?:%r|%C)%C                             # remaining labels
    |
    (?P<axislabels>\\axislabels%C%s?%n{)(?!})
    %C[^{}]+
    |
    \\plottext%s?%c%c
    |
    \\tcaption%s?%c
)
`, `\g<c2>\g<c4>\g<c6>\g<c7>\g<c9>\n\n\g<env>\g<tlabels>\g<axislabels>`, engine.Iterative()),
			// Label commands left without labels.
			eng.Rule(`(?s)
(?P<env>\\begin{mfpic}`+mfpicBody+`)
(?:
    \\tlabels%n{%n}
    |
    \\axislabels%C%s?%n{}
)
`, `\g<env>`),
			eng.Rule(`(?s)\\begin{mfpic}`+mfpicBody+`\\end{mfpic}`, ``),
		),
	), nil
}

// packageTikzSetup prepares node commands before the brace cleanup can
// remove the braces of their text: every node gets a backslash and loses
// its position. A label or pin option moves before the picture.
func packageTikzSetup(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	label := eng.Rule(`[^:]*+:`, ``)
	options := eng.KeyValue(`label|pin`)
	node := engine.NewRuleList(
		eng.MustRule(`(?s)
(?P<head>\A[^\[]*+)  # Text before the first option list
%s
`, engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			value, err := options.Sub(m.Group("s1"), engine.Args{})
			if err != nil {
				return "", err
			}
			text, err := label.Sub(value, engine.Args{})
			if err != nil {
				return "", err
			}
			return text + "\n\n" + m.Group("head") + " ", nil
		}), engine.Iterative()),
		eng.Rule(`[\ \\]node(?![a-zA-Z])`, `\\node`),
		engine.NewIterativeRuleList(
			eng.Rule(`\\node\+{0,2}%r`, `\\node`),
			eng.Rule(`\\node%n at %n\+{0,2}%r`, `\\node`),
			eng.Rule(`\\node%n foreach[^{]*+%c`, `\\node{`),
		),
	)
	return engine.NewRuleList(
		eng.MustRule(`(?s)
(?P<env>
    \\begin{tikzpicture}%s?
    .*?
    \\end{tikzpicture}
)
`, engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			return node.Sub(m.Group("env"), engine.Args{})
		})),
	), nil
}

// packageTikzMain moves the text of every node before its picture, then
// drops the picture.
func packageTikzMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\usetikzlibrary%C`, ``),
		eng.Rule(`\\tikzstyle.+?=%s`, ``),
		eng.Rule(`\\tikzset%C`, ``),
		eng.Rule(`(?s)
(?P<env>
    \\begin{tikzpicture}%s?
    (?:
        (?!\\end{tikzpicture})
        (?!\\node%c)
        .
    )*+
)
\\node%c
`, `\g<c2>\n\n\g<env>`, engine.Iterative()),
		eng.Rule(`(?s)
\\begin{tikzpicture}
(?:
    (?!\\end{tikzpicture})
    (?![\ \\]node[^a-zA-Z])  # Unprocessed node
    .
)*+
\\end{tikzpicture}
`, ``),
	), nil
}
