package standard

import (
	"unicode"
	"unicode/utf8"

	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/providers"
)

var classes = []entry{
	{"drdc", engine.PhaseMain, classDRDCMain},
	{"drdc_brief", engine.PhaseMain, classDRDCMain},
	{"drdc_report", engine.PhaseMain, classDRDCMain},
	{"interact", engine.PhaseMain, classInteractMain},
}

func classDRDCMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	authors := engine.NewRuleList(
		eng.Rule(`\\rank%C`, `\g<c1>`),
		eng.Rule(`\\equalauthormark`, ``),
		eng.Rule(`%w\\and`, `, `),
		eng.Rule(`%s`, ` (\g<s1>) `),
		eng.Rule(`\ ,`, `,`),
	)
	future := eng.Rule(`^(?:u|goc|goc&c|dnd|dnd&c|drdc)$`, ``)

	return engine.NewRuleList(
		eng.MustRule(`\\authors?%C`, engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			out, err := authors.Sub(m.Group("c1"), engine.Args{})
			return "\n" + out + "\n", err
		})),
		eng.Rule(`\\establishment%C`, `\n\g<c1>\n`),
		eng.Rule(`\\projectnumber%C`, `\n\g<c1>\n`),
		eng.Rule(`\\(?:|sub|subsub|par)annex\*?%s?%c`, `\n\g<s1>\n\n\g<c1>\n`),
		eng.Rule(`\\setdate%C%C%C`, ``),
		eng.MustRule(`\\addkeyword%C`, engine.Text(func(m *engine.Match) string {
			return capitalize(m.Group("c1")) + "\n"
		})),
		eng.Rule(`\\make(?:expanded|initialized)authors%C%C`, ``),
		eng.Rule(`\\makeexpandedkeywords%C%C`, ``),
		eng.Rule(`\\ControlledGoods%C`, ``),
		eng.Rule(`\\docnumber%C`, ``),
		eng.MustRule(`\\futuredistribution%C%C`, engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			code, err := future.Sub(m.Group("c1"), engine.Args{})
			return "\n" + code + "\n\n" + m.Group("c2") + "\n", err
		})),
		eng.Rule(`\\preparedfor%C%C`, `\n\g<c1>\n\n\g<c2>\n`),
	), nil
}

func classInteractMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\name%C`, `\n\g<c1>\n`),
		eng.Rule(`\\affil%C`, `\n\g<c1>\n`),
		eng.Rule(`\\tbl%C%C`, `\\caption{\g<c1>}\n\g<c2>`),
	), nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
