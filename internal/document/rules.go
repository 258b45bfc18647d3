package document

import (
	"fmt"
	"strings"

	"github.com/termfx/errers/internal/engine"
)

// ruleSpec matches a rule declared in the comments of a document, such as
//
//	% Rule(r'\\mytitle%C', r'\n\g<c1>\n', iterative=False, phase='main')
const ruleSpec = `
(?s)                              # Period matches \n too
^                                 # Beginning of line
%h                                # Optional white space
Rule\(                            # Keyword and opening parenthesis
%n
(?P<rpat>r)?+                     # Optional raw prefix
(?P<qpat>"{3}|'''|"|')            # Opening quote of pattern
(?P<pat>
    (?:(?!(?<!\\)(?P=qpat)).)*+   # Up to an unescaped closing quote
)
(?P=qpat),                        # Closing quote and comma
%n
(?P<rrep>r)?+                     # Optional raw prefix
(?P<qrep>"{3}|'''|"|')            # Opening quote of replacement
(?P<rep>
    (?:(?!(?<!\\)(?P=qrep)).)*+   # Up to an unescaped closing quote
)
(?P=qrep)                         # Closing quote
(?:
    (?:
        ,%n iterative %n=%n
        (?P<iterative>True|False)
    )
    |
    (?:
        ,%n phase %n=%n
        (?P<qphase>"{3}|'''|"|')
        (?P<phase>
            (?:(?!(?<!\\)(?P=qphase)).)*+
        )
        (?P=qphase)
    )
){0,2}                            # Both arguments are optional
%n
\)                                # Closing parenthesis
`

// EmbeddedRules parses the rules declared in comments and groups them by
// phase. Rules without a phase go to the main phase. Rules naming an unknown
// phase are logged and dropped.
func (d *Document) EmbeddedRules() (map[engine.Phase]*engine.RuleList, error) {
	lists := make(map[engine.Phase]*engine.RuleList, len(engine.Phases))
	for _, p := range engine.Phases {
		lists[p] = engine.NewRuleList()
	}

	log := d.eng.Logs().Log
	err := d.patterns.rules.Iterate(d.Comments, func(m *engine.Match) error {
		line := m.Line()
		name := "main"
		if m.Has("phase") {
			name = m.Group("phase")
		}
		phase, err := engine.ParsePhase(name)
		if _, ok := lists[phase]; err != nil || !ok {
			log.Error(fmt.Sprintf("Unknown extraction phase in document rule (line %d): %s; rule ignored", line, name))
			return nil
		}

		pat, rep := m.Group("pat"), m.Group("rep")
		rule, err := d.eng.NewRule(pat, engine.Literal(rep),
			engine.IterativeIf(m.Group("iterative") == "True"),
			engine.WithLocation(d.FileName(), line, ""))
		if err != nil {
			return err
		}
		lists[phase].Append(rule)

		shown := strings.TrimSuffix(rule.String(), ")")
		log.Info(fmt.Sprintf("Document rule (line %d): %s, phase=%s)", line, shown, phase))
		if strings.Contains(pat, `\`) && !m.Has("rpat") || strings.Contains(rep, `\`) && !m.Has("rrep") {
			log.Warn(fmt.Sprintf("'r' prefix missing in document rule at line %d: %s", line, rule))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lists, nil
}
