// Package macro turns the command, environment and counter definitions of a
// document into rules that expand their uses.
//
// Definitions are recognized in the form left by the core location rules,
// where the line number and file name follow the defined name:
//
//	\newcommand{\foo}(12)(chapter.tex)[1]{[#1]}
//	\def{\bar}(14)(chapter.tex){#1,#2.}{#2 #1}
package macro

import (
	"fmt"
	"strconv"

	"github.com/termfx/errers/internal/engine"
)

// Synthesizer owns the recognizer rules and the list of rules created from
// the definitions they match.
type Synthesizer struct {
	eng  *engine.Engine
	auto bool

	recognizers []engine.Appliable
	commands    *engine.RuleList

	translateNoOpt *engine.RuleList
	translateOpt   *engine.RuleList
	translateDef   *engine.RuleList
	translatePara  *engine.RuleList
	defaultArg     *engine.Rule
	unwrap         *engine.Rule
}

// definition is one command to synthesize.
type definition struct {
	name        string
	nMandatory  int
	optional    string
	hasOptional bool
	body        string
	file        string
	line        int
}

// New builds the recognizers on eng, which must carry the DSL compiler.
// With auto false, definitions are erased without creating rules. The
// commands list is iterative when the backend matches brackets at any
// depth, since one rule may then expand into uses of another.
func New(eng *engine.Engine, auto bool) (s *Synthesizer, err error) {
	defer engine.Recover(&err)

	s = &Synthesizer{
		eng:      eng,
		auto:     auto,
		commands: engine.NewRuleListIf(eng.SinglePass()),
	}
	s.buildTranslations(eng.Plain())

	s.recognizers = []engine.Appliable{
		eng.MustRule(`\\newcommand%C%r%r%s%s%c`, engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			return s.newCommand(m, definition{
				name:        m.Group("c1"),
				optional:    m.Group("s2"),
				hasOptional: true,
				body:        m.Group("c2"),
			}, -1)
		})),
		eng.MustRule(`\\newcommand%C%r%r%s?%c`, engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			return s.newCommand(m, definition{
				name: m.Group("c1"),
				body: m.Group("c2"),
			}, 0)
		})),
		eng.MustRule(`\\newenvironment%c%r%r%s%s%c%c`, engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			return s.newEnvironment(m, definition{
				name:        m.Group("c1"),
				optional:    m.Group("s2"),
				hasOptional: true,
				body:        m.Group("c2"),
			}, -1, m.Group("c3"))
		})),
		eng.MustRule(`\\newenvironment%c%r%r%s?%c%c`, engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			return s.newEnvironment(m, definition{
				name: m.Group("c1"),
				body: m.Group("c2"),
			}, 0, m.Group("c3"))
		})),
		eng.MustRule(`\\def
            %c  # Command name
            %r  # Line number
            %r  # File name
            %c  # Parameter text
            %c  # Definition
            `, engine.Func(s.defCommand)),
		eng.MustRule(`\\newcounter%c%r%r%s?`, engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			d := definition{name: `\the` + m.Group("c1"), body: "X"}
			located(&d, m)
			return "", s.synthesize(d)
		})),
	}
	return s, nil
}

func (s *Synthesizer) buildTranslations(plain *engine.Engine) {
	backslash := plain.Rule(`\\`, `\\\\`)
	s.defaultArg = plain.MustRule(`\#1`, engine.Func(func(_ *engine.Match, vars engine.Vars) (string, error) {
		return vars["default"], nil
	}))
	s.unwrap = plain.Rule(`\s+`, ` `)

	s.translateNoOpt = engine.NewRuleList(
		backslash,
		plain.Rule(`\#([1-9])`, `\\g<c\1>`),
	)
	s.translateOpt = engine.NewRuleList(
		backslash,
		plain.Rule(`\#1`, `\\g<s1>`),
		plain.MustRule(`\#([2-9])`, engine.Text(func(m *engine.Match) string {
			n, _ := strconv.Atoi(m.Index(1))
			return fmt.Sprintf(`\g<c%d>`, n-1)
		})),
	)
	s.translateDef = engine.NewRuleList(
		backslash,
		plain.Rule(`\#([1-9])`, `\\g<a\1>`),
	)
	s.translatePara = engine.NewRuleList(
		// Escape special characters except #.
		plain.Rule(`([\\\^\-\[\].$*+?(){|])`, `\\\1`),
		plain.Rule(`[\ \t]{2,}`, ` `),
		plain.Rule(`\ \n`, `\n`),
		plain.Rule(`\n\ `, `\n`),
		plain.Rule(`(?<!\n)\n(?!\n)`, ` `),
		// Delimited parameters match everything up to their delimiter.
		plain.Rule(`\#([0-9])([^\#]++)(?=\#)`, `(?P<a\1>(?:(?!\2)%C)*+)\2`),
		plain.Rule(`\#([0-9])([^\#]++)(?<![\ \n])\Z`, `(?P<a\1>(?:(?!\2)%C)*+)\2`),
		// A final space delimiter takes a newline unless a paragraph follows.
		plain.Rule(`\#([0-9])([^\#]*)\ \Z`, `(?P<a\1>(?:(?!\2 )%C)*+)\2(?:%n(?!\\n))?+`),
		plain.Rule(`\#([0-9])([^\#]*)\n\n\Z`, `(?P<a\1>(?:(?!\2\\n\\n)%C)*+)\2(?:%n%n(?!\\n))?+`),
		// Undelimited parameters take one argument.
		plain.Rule(`\#([0-9])`, `%C(?P<a\1>)`),
		plain.Rule(`\n\n`, `%h\\n%h\\n%h`),
		plain.Rule(`(?<!\\)\ `, `(?=[\\ \\t\\n])%n`),
	)
}

// Rules returns the recognizers followed by the commands list. They belong
// at the head of the main phase so that definitions are seen before uses.
func (s *Synthesizer) Rules() []engine.Appliable {
	rules := make([]engine.Appliable, 0, len(s.recognizers)+1)
	rules = append(rules, s.recognizers...)
	return append(rules, s.commands)
}

// Commands returns the rules created so far.
func (s *Synthesizer) Commands() *engine.RuleList { return s.commands }

// located fills the file and line recorded after the defined name.
func located(d *definition, m *engine.Match) {
	d.file = m.Group("r2")
	d.line, _ = strconv.Atoi(m.Group("r1"))
}

// arity reads the parameter count; offset is -1 when the first parameter is
// the optional one.
func (s *Synthesizer) arity(d *definition, m *engine.Match, offset int) bool {
	raw := m.Group("s1")
	if raw == "" && offset == 0 {
		return true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n+offset < 0 {
		s.eng.Logs().Log.Warn(fmt.Sprintf("%s, line %d: invalid number of parameters %q for %s; definition ignored",
			d.file, d.line, raw, d.name))
		return false
	}
	d.nMandatory = n + offset
	return true
}

func (s *Synthesizer) newCommand(m *engine.Match, d definition, offset int) (string, error) {
	located(&d, m)
	if !s.arity(&d, m, offset) {
		return "", nil
	}
	return "", s.synthesize(d)
}

func (s *Synthesizer) newEnvironment(m *engine.Match, begin definition, offset int, endBody string) (string, error) {
	located(&begin, m)
	if !s.arity(&begin, m, offset) {
		return "", nil
	}
	end := definition{name: `\end{` + begin.name + `}`, body: endBody, file: begin.file, line: begin.line}
	begin.name = `\begin{` + begin.name + `}`
	if err := s.synthesize(begin); err != nil {
		return "", err
	}
	return "", s.synthesize(end)
}

// synthesize appends the rules for a \newcommand style definition. A
// non-empty optional default yields two rules: one with the optional
// argument and one with the default substituted.
func (s *Synthesizer) synthesize(d definition) error {
	if !s.auto {
		return nil
	}

	type variant struct{ placeholder, body string }
	translate := s.translateNoOpt
	mandatory := "%C"
	variants := []variant{{"", d.body}}
	if d.hasOptional {
		translate = s.translateOpt
		// Mandatory arguments must be curly-bracketed when an optional
		// argument may precede them.
		mandatory = "%c"
		if d.optional != "" {
			withDefault, err := s.defaultArg.Sub(d.body, engine.Args{Vars: engine.Vars{"default": d.optional}})
			if err != nil {
				return err
			}
			variants = []variant{{"%s", d.body}, {"", withDefault}}
		} else {
			variants = []variant{{"%s?", d.body}}
		}
	}

	for _, v := range variants {
		template, err := translate.Sub(v.body, engine.Args{})
		if err != nil {
			return err
		}
		pattern := `\` + d.name + v.placeholder
		for range d.nMandatory {
			pattern += mandatory
		}
		if err := s.create(pattern, template, d); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synthesizer) defCommand(m *engine.Match, _ engine.Vars) (string, error) {
	d := definition{name: m.Group("c1"), body: m.Group("c3")}
	located(&d, m)
	if !s.auto {
		return "", nil
	}

	template, err := s.translateDef.Sub(d.body, engine.Args{})
	if err != nil {
		return "", err
	}
	params, err := s.translatePara.Sub(m.Group("c2"), engine.Args{})
	if err != nil {
		return "", err
	}
	return "", s.create(`\`+d.name+`%n`+params, template, d)
}

func (s *Synthesizer) create(pattern, template string, d definition) error {
	display, err := s.unwrap.Sub(template, engine.Args{})
	if err != nil {
		return err
	}
	rule, err := s.eng.NewRule(pattern, engine.Literal(template).WithDisplay(display),
		engine.WithLocation(d.file, d.line, ""),
		engine.Traced())
	if err != nil {
		return err
	}
	s.commands.Append(rule)
	return nil
}
