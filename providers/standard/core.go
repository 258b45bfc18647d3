package standard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/internal/macro"
	"github.com/termfx/errers/providers"
)

// coreLocation moves the line number and file name of every definition
// after the defined name, where the macro recognizers expect them. The
// variants of \newcommand, \newenvironment and \def are reduced to one name
// each. The newline before the name is moved after the line number so that
// later line counts stay right.
func coreLocation(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	located := func(format string) engine.Replacement {
		return engine.Func(func(m *engine.Match, vars engine.Vars) (string, error) {
			return fmt.Sprintf(format, m.Group("c1"), m.Line(), m.Group("space"), vars["file_name"]), nil
		})
	}
	return engine.NewRuleList(
		eng.MustRule(`
\\(?:new|renew|provide)command\*?
(?P<space>%n)  # White space (move after line number)
%C`, located(`\newcommand{%s}(%d)%s(%s)`)),
		eng.MustRule(`
\\(?:new|renew)environment\*?
(?P<space>%n)  # White space (move after line number)
%c`, located(`\newenvironment{%s}(%d)%s(%s)`)),
		eng.MustRule(`
\\[egx]?def       # Apply to \def variants also
(?P<space1>%n)    # White space (move after line number)
(?P<name>%m)      # Command name
(?P<space2>%n)    # White space (one \n max)
(?P<para>[^{]*+)  # Parameter text
`, engine.Func(func(m *engine.Match, vars engine.Vars) (string, error) {
			return fmt.Sprintf(`\def{%s}(%d)%s(%s)%s{%s}`,
				m.Group("name"), m.Line(), m.Group("space1"), vars["file_name"],
				m.Group("space2"), m.Group("para")), nil
		})),
		eng.MustRule(`
\\newcounter
(?P<space>%n)  # White space (move after line number)
%C`, located(`\newcounter{%s}(%d)%s(%s)`)),
	), nil
}

// coreInsertion merges inserted files into the document.
func coreInsertion(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	// The guard consumes the text before the command, which is put back.
	insert := func(command string, name func(*engine.Match) string, ext string) engine.Replacement {
		return engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			content, err := env.ReadFile(name(m), ext)
			return lineHead(m.Text(), command) + "\n" + content, err
		})
	}
	argument := func(m *engine.Match) string { return m.Group("c1") }
	stem := func(*engine.Match) string {
		if env.Document == nil {
			return ""
		}
		return env.Document.Stem()
	}
	return engine.NewRuleList(
		eng.MustRule(env.NotCommented+`\\input%C`, insert(`\input`, argument, ".tex"), engine.Iterative()),
		eng.MustRule(env.NotCommented+`\\include%C`, insert(`\include`, argument, ".tex")),
		eng.MustRule(env.NotCommented+`\\bibliography%C`, insert(`\bibliography`, stem, ".bbl")),
	), nil
}

// lineHead returns the text of a line before its last occurrence of command.
func lineHead(text, command string) string {
	if i := strings.LastIndex(text, command); i > 0 {
		return text[:i]
	}
	return ""
}

// coreRemoval removes text that later rules could corrupt: verbatim text,
// comments, internal definitions and mathematics.
func coreRemoval(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	notEscaped := env.NotEscaped

	return engine.NewRuleList(
		// The environment name saved in the optional argument lets similar
		// environments share the verbatim rule.
		eng.Rule(`\\begin{verbatim}`, `\\begin[verbatim]{verbatim}`),
		eng.MustRule(notEscaped+`
(?:
    (?P<comment>  # Also keep comment,
    %             # from character
    .*+           # to end of line.
    )
    |
    (?P<verb>                   # Replace verb command by ||:
         \\verb(?![a-zA-Z])     # command name,
         %h                     # optional horizontal space,
         (?P<delim>.)           # initial delimiter,
         (?:(?!(?P=delim)).)*+  # and everything up to
         (?P=delim)             # closing delimiter.
    )
    |
    (?P<verbatim>                       # Replace verbatim by ||:
        \\begin%s{verbatim}             # start of environment
        (?s:                            # and, including newlines,
            (?:(?!\\end{(?P=s1)}).)*+   # everything up to
        )
        \\end{(?P=s1)}                  # end of environment.
    )
)`, engine.Text(func(m *engine.Match) string {
			out := m.Group("comment")
			if m.Has("verb") {
				out += "||"
			}
			return out
		})),
		// Comment-only lines go; a blank line after an end-of-line comment
		// stays; other lines are joined.
		eng.Rule(`^%h`+notEscaped+`%.*\n`, ``),
		eng.Rule(notEscaped+`%.*\n%h\n`, `\n\n`),
		eng.Rule(notEscaped+`%.*%n`, ``),
		eng.Rule(`(?s)\\makeatletter.*?\\makeatother`, ``),
		// Mathematics becomes $$, after display forms are reduced to the
		// equation environment.
		eng.Rule(`\$\$`, `$`),
		eng.Rule(`\\[()]`, `$`),
		eng.Rule(`\\(?:begin|end){math}`, `$`),
		eng.Rule(`\\\[`, `\\begin{equation}`),
		eng.Rule(`\\]`, `\\end{equation}`),
		eng.Rule(`\\begin{eqnarray}`, `\\begin{equation}`),
		eng.Rule(`\\end{eqnarray}`, `\\end{equation}`),
		eng.Rule(`(?s)               # Period matches \n too.
`+notEscaped+`(?<!\$)\$  # Start of equation.
(?:\\\$|[^\$])++        # Anything but an unescaped $.
`+notEscaped+`\$         # End of equation.
`, `$$`),
		eng.MustRule(`(?s)                 # Period matches \n too.
\\begin{(equation\*?)}   # Start of equation.
    (?:
        (?!\\end{\1})    # Scanning until the end
        (?:              # and skipping over
            }            # closing brackets,
            |
            \\end%C      # end of environments,
            |
            \\label%C    # labels,
            |
            \\[,.:;!?]   # escaped punctuation,
            |
            %w           # and white space,
            |
            (?P<last>.)  # take note of last character.
        )
    )*
\\end{\1}                # End of equation.
`, engine.Text(func(m *engine.Match) string {
			if last := m.Group("last"); last != "" && strings.Contains(",.:;!?", last) {
				return "$$" + last
			}
			return "$$"
		})),
		eng.Rule(`\\ensuremath%C`, `$$`),
		eng.Rule(`\$\$(?=\\?[^\W\d])`, `124`),
	), nil
}

// coreSetup holds the rules that never need a second pass: tabbing,
// accents, symbols, spacing, sizes, counters and ligatures.
func coreSetup(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	tabbing := engine.NewRuleList(
		eng.Rule(`(?s)               # Period matches \n too.
(?:\A|(?<!\\\\))       # Start of line
    (?:(?!\\kill).)*+  # Anything but \kill
\\kill                 # \kill
`, ``),
		eng.Rule(`\\\\`, `\n\n`),
		eng.Rule(`\\=`, ``),
		eng.Rule(`\\>`, `\n\n`),
		eng.Rule(`\\<`, ``),
		eng.Rule(`\\\+`, ``),
		eng.Rule(`\\-`, ``),
		eng.Rule(`\\'`, `\n\n`),
		eng.Rule("\\\\`", `\n\n`),
		eng.Rule(`\\(?:push|pop)tabs`, ``),
	)

	accent := func(mark rune) engine.Replacement {
		return engine.Text(func(m *engine.Match) string { return addDiacritic(m.Group("c1"), mark) })
	}
	accentKeep := func(mark rune) engine.Replacement {
		return engine.Text(func(m *engine.Match) string { return addDiacriticKeep(m.Group("c1"), mark) })
	}

	return engine.NewRuleList(
		eng.MustRule(`(?s)                         # Period matches \n too.
\\begin{tabbing}                 # Start of environment.
    ((?:(?!\\end{tabbing}).)*+)  # Scan until end of environment.
\\end{tabbing}                   # End of environment.
`, engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			body, err := tabbing.Sub(m.Index(1), engine.Args{})
			return "\n" + body + "\n", err
		})),
		// Tilde and circumflex accents are handled with the reserved
		// characters during cleanup.
		eng.Rule(`\\a%C%C`, `\\\g<c1>{\g<c2>}`),
		// The regular i composes with accents, the dotless one does not.
		eng.Rule(`\\o`, `ø`),
		eng.Rule(`\\i`, `i`),
		eng.Rule(`\\l`, `ł`),
		eng.MustRule("\\\\`%C", accent('\u0300')),
		eng.MustRule(`\\'%C`, accent('\u0301')),
		eng.MustRule(`\\"%C`, accent('\u0308')),
		eng.MustRule(`\\H%C`, accent('\u030B')),
		eng.MustRule(`\\c%C`, accent('\u0327')),
		eng.MustRule(`\\k%C`, accent('\u0328')),
		eng.MustRule(`\\v%C`, accent('\u030C')),
		eng.MustRule(`\\r%C`, accent('\u030A')),
		eng.MustRule(`\\aa`, engine.Text(func(*engine.Match) string { return addDiacritic("a", '\u030A') })),
		eng.MustRule(`\\=%C`, accentKeep('\u0304')),
		eng.MustRule(`\\\.%C`, accentKeep('\u0307')),
		eng.MustRule(`\\u%C`, accentKeep('\u0306')),
		// LaTeX centres the dot below the whole argument.
		eng.MustRule(`\\d%C`, accentKeep('\u0323')),
		// \\ ends a paragraph only at the end of a line.
		eng.Rule(`\\\\`, `\n`),
		eng.Rule(`\\tabularnewline`, `\n`),
		eng.Rule(`\t`, ` `),
		eng.Rule(`\\newblock`, ` `),
		eng.Rule(`\\LaTeX`, `LaTeX`),
		eng.Rule(`\\ldots`, `…`),
		eng.Rule("``", `"`),
		eng.Rule(`''`, `"`),
		eng.Rule("`", `'`),
		eng.Rule(`---`, `—`),
		eng.Rule(`--`, `–`),
		eng.Rule(`\\textemdash`, `—`),
		eng.Rule(`\\textendash`, `–`),
		eng.Rule(`\\textcopyright`, `©`),
		eng.Rule(`\\textregistered`, `®`),
		eng.Rule(`\\texttrademark`, `™`),
		eng.Rule(`\\-`, ``),
		// Explicit spaces become "\ "; negative ones go.
		eng.Rule(`\\[,>:;]`, `\\ `),
		eng.Rule(`\\(?:thin|med|thick)space`, `\\ `),
		eng.Rule(`\\q?quad`, `\\ `),
		eng.Rule(`\\!`, ``),
		eng.Rule(`\\neg(?:thin|med|thick)space`, ``),
		eng.Rule(`\\(?:Huge|huge|LARGE|Large|large|normalsize)`, ``),
		eng.Rule(`\\(?:small|footnotesize|scriptsize|tiny)`, ``),
		eng.Rule(`\\centering`, ``),
		eng.Rule(`\\ragged(?:left|right)`, ``),
		eng.Rule(`\\(?:no)?indent`, ``),
		eng.Rule(`\\the(?:part|chapter|section|subsection|subsubsection)`, `X`),
		eng.Rule(`\\the(?:paragraph|subparagraph|figure|table)`, `X`),
		eng.Rule(`\\the(?:footnote|mpfootnote|enumi|enumii|enumiii|enumiv)`, `X`),
		eng.Rule(`\\the(?:page|equation)`, `X`),
		eng.Rule(`ﬀ`, `ff`),
		eng.Rule(`ﬁ`, `fi`),
		eng.Rule(`ﬂ`, `fl`),
		eng.Rule(`ﬃ`, `ffi`),
		eng.Rule(`ﬄ`, `ffl`),
	), nil
}

// coreMain is the main rule list for a document with no package. It starts
// with the rules synthesized from the definitions in the document.
func coreMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	synth, err := macro.New(eng, env.Auto)
	if err != nil {
		return nil, err
	}
	colon := eng.Rule(`([.,:;!?]):$`, `\1`)

	list = engine.NewRuleList(synth.Rules()...)
	list.Extend(
		// Preamble
		eng.Rule(`\\documentclass%s?%c`, ``),
		eng.Rule(`\\usepackage%s?%c%s?`, ``),
		eng.Rule(`\\RequirePackage%s?%c%s?`, ``),
		eng.Rule(`\\PassOptionsToPackage%C%C`, ``),
		eng.Rule(`\\title%C`, `\n\g<c1>\n`),
		eng.Rule(`\\author%C`, `\n\g<c1>\n`),
		eng.Rule(`\\hyphenation%C`, ``),
		// Sections
		eng.Rule(`\\(?:part|chapter|section|subsection|subsubsection
             |paragraph|subparagraph)\*?%s?%c`, `\n\g<s1>\n\n\g<c1>\n`),
		eng.Rule(`\\addtocontents%C%C`, `\n\g<c2>\n`),
		// Floats move to their own paragraphs, one at a time from the end of
		// the paragraph.
		eng.Rule(`(?s)                            # Period matches \n too.
\\begin{(figure|table)}%s?          # -capture float from start
   (?P<float>(?:(?!\\end{\1}).)*+)  #  to end,
\\end{\1}%h\n?                      #  incl. white space; and
(?P<para>(?:                        # -capture para until
    (?!(?<=\n)%h\n)                 #  a blank line
    (?!\\begin{(?:figure|table)})   #  or another float.
    .
)*+)
(?<=\n)%h\n                         # Match only if end of para.
`, `\g<para>\n\g<float>\n\n`, engine.Iterative()),
		eng.Rule(`\\caption%s?%c`, `\n\g<s1>\n\n\g<c1>\n`),
		// Footnotes, margin notes and thanks go in parentheses at the end of
		// the paragraph.
		eng.Rule(`(?s)\\marginpar%s%C`, `\\marginpar{\g<s1>}\\marginpar{\g<c1>}`),
		eng.Rule(`(?s)\\marginpar%C`, `\\footnote{\g<c1>}`),
		eng.Rule(`(?s)\\thanks%C`, `\\footnote{\g<c1>}`),
		eng.MustRule(`(?s)\\footnote(?:text)?%s?%c(?P<rest_of_para>.*?)\n%h\n`,
			engine.Text(func(m *engine.Match) string {
				return m.Group("rest_of_para") + " (" + strings.TrimSpace(m.Group("c1")) + ")\n\n"
			}), engine.Iterative()),
		eng.Rule(`\\footnotemark%s?`, ``),
		// Lists. An item label gets a colon unless it ends with punctuation.
		eng.Rule(`\\item\[\]%w`, `-`),
		eng.MustRule(`\\item%s`, engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			label, err := colon.Sub("-"+m.Group("s1")+":", engine.Args{})
			return label + " ", err
		})),
		eng.Rule(`\\item%w`, `-`),
		eng.Rule(`\\multicolumn%C%C%C`, `\g<c3>`),
		// References
		eng.Rule(`\\bibliographystyle%C`, ``),
		eng.Rule(`\\bibitem%s?%c`, `\n[X]: `),
		eng.Rule(`\\cite%s%C`, `[X, \g<s1>]`),
		eng.Rule(`\\cite%C`, `[X]`),
		eng.Rule(`\\label%C`, ``),
		eng.Rule(`\\ref%C`, `X`),
		eng.Rule(`\\pageref%C`, `X`),
		// Boxes
		eng.Rule(`\\newsavebox%C`, ``),
		eng.Rule(`\\usebox%C`, ``),
		eng.Rule(`\\rule%s?%c%c`, ``),
		eng.Rule(`\\mbox%C`, `\g<c1>`),
		eng.Rule(`\\makebox%s?%s?%c`, `\g<c1>`),
		eng.Rule(`\\parbox%s?%s?%s?%c%c`, `\g<c2>`),
		eng.Rule(`\\raisebox%C%s?%s?%c`, `\g<c2>`),
		// Lengths and spaces
		eng.Rule(`\\setlength%C%C`, ``),
		eng.Rule(`\\addtolength%C%C`, ``),
		eng.Rule(`\\settoheight%C%C`, ``),
		eng.Rule(`\\settodepth%C%C`, ``),
		eng.Rule(`\\settowidth%C%C`, ``),
		eng.Rule(`\\hspace\*?%C`, ``),
		eng.Rule(`\\vspace\*?%C`, ``),
		// Counters
		eng.Rule(`\\refstepcounter%C`, ``),
		eng.Rule(`\\stepcounter%C`, ``),
		eng.Rule(`\\value%C`, `X`),
		eng.Rule(`\\setcounter%C%C`, ``),
		eng.Rule(`\\addtocounter%C%C`, ``),
		eng.Rule(`\\alph%C`, `x`),
		eng.Rule(`\\arabic%C`, `X`),
		eng.Rule(`\\roman%C`, `X`),
		eng.Rule(`\\fnsymbol%C`, `X`),
		eng.Rule(`\\numberwithin%C%C`, ``),
		eng.Rule(`\\newtheorem%C%s?%c(?(s1)|%s?)`, `\n\g<c2>\n`),
		// Page breaks
		eng.Rule(`\\(?:clearpage|cleardoublepage|newpage)`, `\n\n`),
		eng.Rule(`\\enlargethispage\*?%C`, ``),
		eng.Rule(`\\(?:pagebreak|nopagebreak)%s?`, ``),
		// Fonts
		eng.Rule(`\\(?:textnormal|emph|lowercase|uppercase|underline)%C`, `\g<c1>`),
		eng.Rule(`\\(?:MakeLowercase|MakeUppercase)%C`, `\g<c1>`),
		eng.Rule(`\\text(?:up|it|sl|sc)%C`, `\g<c1>`),
		eng.Rule(`\\text(?:rm|sf|tt)%C`, `\g<c1>`),
		eng.Rule(`\\text(?:bf|md)%C`, `\g<c1>`),
		eng.Rule(`\\shortstack%s?%c`, `\g<c1>`),
		eng.Rule(`\\pagestyle%C`, ``),
		eng.Rule(`\\thispagestyle%C`, ``),
		// Plain TeX
		eng.Rule(`\\noalign%C`, ``),
	)
	return list, nil
}

// coreCleanupBraces replaces one-argument commands by their argument and
// drops braces that belong to no command. With brackets matched to a bounded
// depth it prepares the text for another round of main rules.
func coreCleanupBraces(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	list = engine.NewRuleList()
	if env.Default {
		// \begin and \end keep their argument.
		list.Append(eng.Rule(`\\(?!begin|end)[a-zA-Z]++\*?+%c(?!%n[{\[\(])`, `\g<c1>`,
			engine.IterativeIf(env.SinglePass)))
	}
	// Leading white space is kept.
	list.Append(eng.Rule(`(?s)                                # Period matches \n too.
(?P<command>
    \\(?:[a-zA-Z]++\*?+|\S)
    (?:%c|%r|%s)*+                      # Capture commands
)
|                                       # and
(?P<space>[\ \t\n]++)                   # white space as is,
|                                       # while capturing
%c                                      # content of braces.
|                                       # Everything else
(?P<other>.[^\\{]*+)                    # is captured as is.
`, `\g<command>\g<space>\g<c2>\g<other>`,
		engine.IterativeIf(env.SinglePass),
		engine.SubMatches("c2")))
	return list, nil
}

// coreCleanup removes the remaining commands and normalizes white space.
func coreCleanup(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	list = engine.NewRuleList()
	if env.Default {
		list.Extend(
			// Commands without arguments go with the space that follows,
			// up to the newline.
			eng.Rule(`\\[a-zA-Z]++(?![a-zA-Z])\*?+%h(?![{\[\(])%h`, ``),
			eng.Rule(`\\begin%C(?:%c|%r|%s)*+%n`, ``),
			eng.Rule(`\\end%C%n`, ``),
		)
	}
	list.Extend(
		// After argument-less commands, so that "\ " is not taken for one.
		eng.Rule(`(?<!\\)~`, ` `),
		eng.Rule(`\\[\ \n]`, ` `),
		// Reserved characters
		eng.Rule(`\\\#`, `#`),
		eng.Rule(`\\\$`, `$`),
		eng.Rule(`\\%`, `%`),
		eng.Rule(`\\&`, `&`),
		eng.Rule(`\\{`, `{`),
		eng.Rule(`\\}`, `}`),
		eng.Rule(`\\_`, `_`),
		eng.MustRule(`\\~%C`, engine.Text(func(m *engine.Match) string { return addDiacritic(m.Group("c1"), '\u0303') })),
		eng.MustRule(`\\\^%C`, engine.Text(func(m *engine.Match) string { return addDiacritic(m.Group("c1"), '\u0302') })),
		eng.Rule(`[\ ]{2,}`, ` `),
		// Spaces are escaped because patterns ignore white space.
		eng.Rule(`^\ `, ``),
		eng.Rule(`\ $`, ``),
		eng.Rule(`\A\n++`, ``),
		eng.Rule(`\n\n++\Z`, `\n`),
		eng.Rule(`\n{3,}`, `\n\n`),
		// Lines of a paragraph are joined.
		eng.Rule(`(?<=.)\n(?=.)`, ` `),
	)
	return list, nil
}

// month returns the name of month n counted from first, or false.
func month(raw string, first int, names []string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n-first < 0 || n-first >= len(names) {
		return "", false
	}
	return names[n-first], true
}
