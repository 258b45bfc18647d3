package standard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/providers"
)

var packages = []entry{
	{"acro", engine.PhaseMain, packageAcroMain},
	{"acronym", engine.PhaseMain, packageAcronymMain},
	{"amsmath", engine.PhaseRemoval, packageAmsmathRemoval},
	{"amsmath", engine.PhaseMain, packageAmsmathMain},
	{"amsthm", engine.PhaseMain, packageAmsthmMain},
	{"apacite", engine.PhaseMain, packageApaciteMain},
	{"array", engine.PhaseMain, packageArrayMain},
	{"babel", engine.PhaseMain, packageBabelMain},
	{"booktabs", engine.PhaseMain, packageBooktabsMain},
	{"caption", engine.PhaseMain, packageCaptionMain},
	{"cleveref", engine.PhaseMain, packageCleverefMain},
	{"dtk_logos", engine.PhaseMain, packageDTKLogosMain},
	{"endfloat", engine.PhaseMain, packageEndfloatMain},
	{"enumitem", engine.PhaseMain, packageEnumitemMain},
	{"etoolbox", engine.PhaseLocation, packageEtoolboxLocation},
	{"etoolbox", engine.PhaseMain, packageEtoolboxMain},
	{"fancyvrb", engine.PhaseRemoval, packageFancyvrbRemoval},
	{"fixme", engine.PhaseMain, packageFixmeMain},
	{"floatrow", engine.PhaseMain, packageFloatrowMain},
	{"graphics", engine.PhaseMain, packageGraphicsMain},
	{"graphicx", engine.PhaseMain, packageGraphicsMain},
	{"glossaries", engine.PhaseMain, packageGlossariesMain},
	{"harpoon", engine.PhaseMain, packageHarpoonMain},
	{"hyperref", engine.PhaseMain, packageHyperrefMain},
	{"ifthen", engine.PhaseMain, packageIfthenMain},
	{"listings", engine.PhaseRemoval, packageListingsRemoval},
	{"listings", engine.PhaseMain, packageListingsMain},
	{"makeidx", engine.PhaseSetup, packageMakeidxSetup},
	{"makeidx", engine.PhaseMain, packageMakeidxMain},
	{"mathtools", engine.PhaseMain, packageMathtoolsMain},
	{"mdframed", engine.PhaseMain, packageMdframedMain},
	{"mfpic", engine.PhaseMain, packageMfpicMain},
	{"multirow", engine.PhaseMain, packageMultirowMain},
	{"natbib", engine.PhaseMain, packageNatbibMain},
	{"pdfpages", engine.PhaseMain, packagePdfpagesMain},
	{"pgfplots", engine.PhaseMain, packagePgfplotsMain},
	{"scalerel", engine.PhaseMain, packageScalerelMain},
	{"siunitx", engine.PhaseMain, packageSiunitxMain},
	{"soul", engine.PhaseMain, packageSoulMain},
	{"subcaption", engine.PhaseMain, packageSubcaptionMain},
	{"subfig", engine.PhaseMain, packageSubfigMain},
	{"tikz", engine.PhaseSetup, packageTikzSetup},
	{"tikz", engine.PhaseMain, packageTikzMain},
	{"ulem", engine.PhaseMain, packageUlemMain},
	{"url", engine.PhaseRemoval, packageURLRemoval},
	{"url", engine.PhaseMain, packageURLMain},
	{"xcolor", engine.PhaseMain, packageXcolorMain},
}

func packageAcroMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	keys := map[string]*engine.Rule{
		"short":             eng.KeyValue("short"),
		"long":              eng.KeyValue("long"),
		"short-plural":      eng.KeyValue("short-plural"),
		"short-plural-form": eng.KeyValue("short-plural-form"),
		"long-plural":       eng.KeyValue("long-plural"),
		"long-plural-form":  eng.KeyValue("long-plural-form"),
	}

	// The plural form is given only when one of the plural keys is.
	declare := func(m *engine.Match, _ engine.Vars) (string, error) {
		v := make(map[string]string, len(keys))
		for name, rule := range keys {
			out, err := rule.Sub(m.Group("c2"), engine.Args{})
			if err != nil {
				return "", err
			}
			v[name] = out
		}
		short := v["short"]
		if short == "" {
			short = m.Group("c1")
		}
		text := "\n" + short + ": " + v["long"] + "\n"
		if v["short-plural"] == "" && v["short-plural-form"] == "" &&
			v["long-plural"] == "" && v["long-plural-form"] == "" {
			return text, nil
		}
		return text + "\n" + plural(short, v["short-plural"], v["short-plural-form"]) +
			": " + plural(v["long"], v["long-plural"], v["long-plural-form"]) + "\n", nil
	}

	return engine.NewRuleList(
		eng.Rule(`\\acroif(?:|boolean|all|any|tag|starred|used)TF%C%C%C`, ``),
		eng.Rule(`\\acroif(?:|boolean|all|any|tag|starred|used)[TF]%C%C`, ``),
		eng.Rule(`\\acroif(?:first|single|chapter|pages)TF%C%C%C`, ``),
		eng.Rule(`\\acroif(?:first|single|chapter|pages)[TF]%C%C`, ``),
		eng.Rule(`\\acronymsmap%C`, ``),
		eng.Rule(`\\acronymsmapTF%C%C%C`, ``),
		eng.Rule(`\\acronymsmap[TF]%C%C`, ``),
		eng.Rule(`\\(?:New|Renew|Setup|SetupNext)AcroTemplate%s?%c%c`, ``),
		eng.MustRule(`\\DeclareAcronym%C%C`, engine.Func(declare)),
		eng.Rule(`\\(?:ac|acs|aca|acl|acf|acsingle)\*?%C`, `\g<c1>`),
		eng.Rule(`\\(?:Ac|Acl|Acf|Acsingle)\*?%C`, `\g<c1>`),
		eng.Rule(`\\(?:acp|acsp|acap|aclp|acfp)\*?%C`, `\g<c1>s`),
		eng.Rule(`\\(?:Acp|Aclp|Acfp)\*?%C`, `\g<c1>s`),
		eng.Rule(`\\(?:iac|iacs|iacl)\*?%C`, `a \g<c1>`),
		eng.Rule(`\\Iac\*?%C`, `A \g<c1>`),
		eng.Rule(`\\acflike\*?%C%C`, `\g<c2> (\g<c1>)`),
		eng.Rule(`\\acfplike\*?%C%C`, `\g<c2> (\g<c1>s)`),
		eng.Rule(`\\acreset%C`, ``),
		eng.Rule(`\\acuse%C`, ``),
		eng.Rule(`\\printacronyms%s?`, ``),
	), nil
}

// plural is form when given, else singular with suffix or "s".
func plural(singular, suffix, form string) string {
	if form != "" {
		return form
	}
	if suffix == "" {
		suffix = "s"
	}
	return singular + suffix
}

func packageAcronymMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\(?:ac|acs|acl|acf|acfi|acsu|aclu)\*?%C`, `\g<c1>`),
		eng.Rule(`\\(?:acp|acsp|aclp|acfp)\*?%C`, `\g<c1>s`),
		eng.Rule(`\\iac\*?%C`, `a \g<c1>`),
		eng.Rule(`\\Iac\*?%C`, `A \g<c1>`),
		eng.Rule(`\\acused%C`, ``),
		eng.Rule(`\\(?:acro|newacro|acrodef)%C%s%C`, `\g<s1>: \g<c2>\n`),
		eng.Rule(`\\(?:acro|newacro|acrodef)%C%C`, `\g<c1>: \g<c2>\n`),
		eng.Rule(`\\acroplural%C%s%C`, `\g<s1>: \g<c2>\n`),
		eng.Rule(`\\acroplural%C%C`, `\g<c1>s: \g<c2>\n`),
	), nil
}

// packageAmsmathRemoval runs with the removal phase, when equations go.
func packageAmsmathRemoval(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\(begin|end){(?:align|alignat|flalign|gather|multline)\*?}`, `\\\1{equation}`),
	), nil
}

func packageAmsmathMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\eqref%C`, `(\\ref{\g<c1>})`),
		eng.Rule(`\\DeclareMathOperator\*?%C%C`, ``),
		eng.Rule(`\\allowdisplaybreaks%s?`, ``),
	), nil
}

func packageAmsthmMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\theoremstyle%C`, ``),
		eng.Rule(`\\newtheoremstyle%C%C%C%C%C%C%C%C%C`, ``),
	), nil
}

var apaciteMonths = []string{
	"", "January", "February", "March", "April", "May", "June", "July",
	"August", "September", "October", "November", "December",
	"Winter", "Spring", "Summer", "Fall",
}

// packageApaciteMain reduces the formatting commands apacite writes into
// the .bbl file, which is inserted with \bibliography.
func packageApaciteMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	joined := func(left, sep, right string) engine.Replacement {
		return engine.Text(func(m *engine.Match) string {
			a, b := m.Group("c1"), m.Group("c2")
			if a != "" && b != "" {
				return left + a + sep + b + right
			}
			return left + a + b + right
		})
	}
	return engine.NewRuleList(
		eng.Rule(`\\begin{APACrefauthors}`, ``),
		eng.MustRule(`\\APACaddress(?:Publisher|Institution)%C%C`, joined("", ": ", "")),
		eng.MustRule(`\\APACbVolEdTR%C%C`, joined("(", "; ", ")")),
		eng.Rule(`\\APACinsertmetastar%C`, ``),
		eng.Rule(`\\APACjournalVolNumPages%C%C%C%C`, `\g<c1>, \g<c2>(\g<c3>), \g<c4>`),
		eng.MustRule(`\\APACmonth%C`, engine.Text(func(m *engine.Match) string {
			n, err := strconv.Atoi(strings.TrimSpace(m.Group("c1")))
			if err != nil || n < 0 || n >= len(apaciteMonths) {
				return m.Text()
			}
			return apaciteMonths[n]
		})),
		eng.Rule(`\\APACrefatitle%C%C`, `\g<c2>`),
		eng.Rule(`\\APACrefbtitle%C%C`, `\g<c2>`),
		eng.Rule(`\\APACrefYear%C`, `(\g<c1>)`),
		eng.MustRule(`\\APACrefYearMonthDay%C%C%C`, engine.Text(func(m *engine.Match) string {
			year, month, day := m.Group("c1"), m.Group("c2"), m.Group("c3")
			out := "(" + year
			if month != "" || day != "" {
				out += ", "
			}
			out += month
			if day != "" {
				out += " " + day
			}
			return out + ")"
		})),
		eng.Rule(`\\BBA%C`, `&`),
		eng.Rule(`\\BBCQ`, ``),
		eng.Rule(`\\BBOQ`, ``),
		eng.Rule(`\\Bby`, `by`),
		eng.Rule(`\\BCBL%C`, `,`),
		eng.Rule(`\\BEd`, `ed.`),
		eng.Rule(`\\BED`, `Ed.`),
		eng.Rule(`\\BEDS`, `Eds.`),
		eng.Rule(`\\BIn`, `In`),
		eng.Rule(`\\BNUM`, `No.`),
		eng.Rule(`\\BNUMS`, `Nos.`),
		eng.Rule(`\\BOthers`, `et al`),
		eng.Rule(`\\BOthersPeriod`, `et al.`),
		eng.Rule(`\\BPBI`, `. `),
		eng.Rule(`\\BPG`, `p.`),
		eng.Rule(`\\BPGS`, `pp.`),
		eng.Rule(`\\BTR`, `Tech. Rep.`),
		eng.Rule(`\\BVOL`, `Vol.`),
		eng.Rule(`\\BVOLS`, `Vols.`),
		eng.MustRule(`\\PrintOrdinal%C`, engine.Text(func(m *engine.Match) string {
			return ordinal(m.Group("c1"))
		})),
	), nil
}

// ordinal appends the English ordinal suffix to a number.
func ordinal(n string) string {
	suffix := "th"
	if !strings.HasSuffix(n, "11") && !strings.HasSuffix(n, "12") && !strings.HasSuffix(n, "13") {
		switch {
		case strings.HasSuffix(n, "1"):
			suffix = "st"
		case strings.HasSuffix(n, "2"):
			suffix = "nd"
		case strings.HasSuffix(n, "3"):
			suffix = "rd"
		}
	}
	return n + suffix
}

func packageArrayMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\newcolumntype%C%s?%c`, ``),
	), nil
}

func packageBabelMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\shorthandon%C`, ``),
		eng.Rule(`\\shorthandoff%C`, ``),
		eng.Rule(`\\up%C`, `\g<c1>`),
	), nil
}

func packageBooktabsMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\cmidrule%s?%r?%C`, ``),
		eng.Rule(`\\(?:top|mid|bottom)rule%s?`, ``),
	), nil
}

func packageCaptionMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\captionof`, `\\caption`),
		eng.Rule(`\\caption\*`, `\\caption`),
		eng.Rule(`\\captionlistentry%s?%c`, ``),
		eng.Rule(`\\captionsetup%s?%c`, ``),
		eng.Rule(`\\clearcaptionsetup%s?%c`, ``),
		eng.Rule(`\\showcaptionsetup%C`, ``),
	), nil
}

// packageCleverefMain names references in words. A list of labels reads as
// two references.
func packageCleverefMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	refs := func(one, many, command string) engine.Replacement {
		return engine.Text(func(m *engine.Match) string {
			label := m.Group("c1")
			if strings.Contains(label, ",") {
				return fmt.Sprintf(`%s \%s{%s} and \%s{%s}`, many, command, label, command, label)
			}
			return fmt.Sprintf(`%s \%s{%s}`, one, command, label)
		})
	}
	return engine.NewRuleList(
		eng.MustRule(`\\cref\*?%C`, refs("reference", "references", "ref")),
		eng.MustRule(`\\Cref\*?%C`, refs("Reference", "References", "ref")),
		eng.Rule(`\\crefrange\*?%C%C`, `references \\ref{\g<c1>} to \\ref{\g<c2>}`),
		eng.Rule(`\\Crefrange\*?%C%C`, `References \\ref{\g<c1>} to \\ref{\g<c2>}`),
		eng.MustRule(`\\cpageref\*?%C`, refs("page", "pages", "pageref")),
		eng.MustRule(`\\Cpageref\*?%C`, refs("Page", "Pages", "pageref")),
		eng.Rule(`\\cpagerefrange\*?%C%C`, `pages \\pageref{\g<c1>} to \\pageref{\g<c2>}`),
		eng.Rule(`\\Cpagerefrange\*?%C%C`, `Pages \\pageref{\g<c1>} to \\pageref{\g<c2>}`),
		eng.Rule(`\\(?:lc)?namecref%C`, `reference`),
		eng.Rule(`\\nameCref%C`, `Reference`),
		eng.Rule(`\\(?:lc)?namecrefs%C`, `references`),
		eng.Rule(`\\nameCrefs%C`, `References`),
		eng.MustRule(`\\labelc(page|)ref\*?%C`, engine.Text(func(m *engine.Match) string {
			command := m.Index(1) + "ref"
			label := m.Group("c1")
			if strings.Contains(label, ",") {
				return fmt.Sprintf(`\%s{%s} and \%s{%s}`, command, label, command, label)
			}
			return fmt.Sprintf(`\%s{%s}`, command, label)
		})),
		eng.Rule(`\\crefalias%C%C`, ``),
		eng.Rule(`\\crefname%C%C%C`, ``),
		eng.Rule(`\\label%s%c`, `\\label{\g<c1>}`),
	), nil
}

func packageDTKLogosMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\BibTeX`, `BibTeX`),
		eng.Rule(`\\TikZ`, `TikZ`),
	), nil
}

func packageEndfloatMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\AtBegin(?:Figures|Tables|DelayedFloats)%C`, ``),
	), nil
}

func packageEnumitemMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\setlist%s?%c`, ``),
	), nil
}

// packageEtoolboxLocation turns robust commands into ordinary ones before
// their definitions are located.
func packageEtoolboxLocation(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\(new|renew|provide)robustcmd`, `\\\1command`),
	), nil
}

func packageEtoolboxMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\robustify%C`, ``),
		eng.Rule(`\\protecting%C`, ``),
		eng.Rule(`\\defcounter%C%C`, ``),
		eng.Rule(`\\deflength%C%C`, ``),
		eng.Rule(`\\(?:After|AtEnd|AfterEnd)Preamble%C`, ``),
		eng.Rule(`\\AfterEndDocument%C`, ``),
		eng.Rule(`\\(?:AtBegin|AtEnd|BeforeBegin|AfterEnd)Environment%C%C`, ``),
	), nil
}

// packageFancyvrbRemoval reduces the verbatim environments and commands of
// fancyvrb to the core verbatim forms. Environments and commands the
// document defines are recognized too when definitions are processed.
func packageFancyvrbRemoval(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	defined := engine.NewRuleList()
	define := func(pattern, template string) engine.Replacement {
		return engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			if !env.Auto {
				return "", nil
			}
			name := m.Group("c1")
			rule, err := eng.NewRule(strings.ReplaceAll(pattern, "NAME", name), engine.Literal(template), engine.Traced())
			if err != nil {
				return "", err
			}
			defined.Append(rule)
			return "", nil
		})
	}

	return engine.NewRuleList(
		eng.MustRule(`\\DefineVerbatimEnvironment%C%C%C`, define(`\\begin{(NAME\*?)}`, `\\begin[\1]{verbatim}`)),
		eng.MustRule(`\\CustomVerbatimCommand%C%C%C`, define(`\NAME%s?%c`, ``)),
		eng.Rule(`\\RecustomVerbatim(?:Environment|Command)%C%C%C`, ``),
		eng.Rule(`\\begin{([BL]?Verbatim\*?)}`, `\\begin[\1]{verbatim}`),
		eng.Rule(`\\begin{(SaveVerbatim\*?)}`, `\\begin[\1]{verbatim}`),
		eng.Rule(`\\SaveVerb%s?%c`, `\\verb`),
		eng.Rule(`\\UseVerb%C`, `||`),
		eng.Rule(`\\fvset%C`, ``),
		eng.Rule(`\\[BL]?UseVerbatim%s?%c`, `||`),
		eng.Rule(`\\[BL]?VerbatimInput%s?%c`, ``),
		defined,
	), nil
}

func packageFixmeMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\fx(?:note|warning|error|fatal)\*%s?%c%c`, `\g<c2>\\fixme{\g<c1>}`),
		eng.Rule(`\\fx(?:note|warning|error|fatal)%s?%c`, `\\fixme{\g<c1>}`),
		eng.Rule(`\\fixme%s?%c`, `\\footnote{Fix me: \g<c1>}`),
		eng.Rule(`\\fxsetup%C`, ``),
		eng.Rule(`\\FXRegisterAuthor%C%C%C`, ``),
		eng.Rule(`\\fxloadtargetlayouts%C`, ``),
		eng.Rule(`\\fxusetargetlayout%C`, ``),
	), nil
}

func packageFloatrowMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\floatsetup%s?%c`, ``),
		eng.Rule(`\\(?:re)?newfloatcommand%C%C%s?%s?`, ``),
		eng.Rule(`\\floatbox%s?%c%s?%s?%s?%c%c`, `\g<c2>\n\g<c3>`),
		eng.Rule(`\\(?:ffigbox|fcapside|ttabbox)%s?%s?%s?%c%c`, `\g<c1>\n\g<c2>`),
	), nil
}

// packageGraphicsMain serves both graphics and graphicx.
func packageGraphicsMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\DeclareGraphicsExtensions%C`, ``),
		eng.Rule(`\\DeclareGraphicsRule%C%C%C%C`, ``),
		eng.Rule(`\\graphicspath%C`, ``),
		eng.Rule(`\\includegraphics%s?%s?%c`, ``),
		eng.Rule(`\\rotatebox%s?%c%c`, `\g<c2>`),
		eng.Rule(`\\scalebox%c%s?%c`, `\g<c2>`),
		eng.Rule(`\\resizebox\*?%c%c%c`, `\g<c3>`),
	), nil
}

func packageHarpoonMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\(?:over|under)(?:left|right)harp(?:down)?%C`, `\g<c1>`),
	), nil
}

func packageHyperrefMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	values := []*engine.Rule{
		eng.KeyValue("pdftitle"),
		eng.KeyValue("pdfauthor"),
		eng.KeyValue("pdfsubject"),
		eng.KeyValue("pdfkeywords"),
		eng.KeyValue("pdfproducer"),
		eng.KeyValue("pdfcopyright"),
		eng.KeyValue("pdflicenseurl"),
	}
	// Document metadata set with \hypersetup is kept, one paragraph per
	// value.
	hypersetup := func(m *engine.Match, _ engine.Vars) (string, error) {
		var kept []string
		for _, rule := range values {
			v, err := rule.Sub(m.Group("c1"), engine.Args{})
			if err != nil {
				return "", err
			}
			if v != "" {
				kept = append(kept, v)
			}
		}
		return "\n" + strings.Join(kept, "\n\n") + "\n", nil
	}

	return engine.NewRuleList(
		eng.Rule(`\\pdfbookmark%s?%c%c`, `\g<c1>`),
		eng.MustRule(`\\hypersetup%C`, engine.Func(hypersetup)),
		eng.Rule(`\\texorpdfstring%C%C`, `\n\g<c1>\n\n\g<c2>\n`),
		eng.Rule(`\\ref\*%C`, `\\ref{\g<c1>}`),
		eng.Rule(`\\pageref\*%C`, `\\pageref{\g<c1>}`),
		eng.Rule(`\\href%s?%c%c`, `\g<c2>`),
		eng.Rule(`\\autoref\*?%C`, `X`),
		eng.Rule(`\\autopageref\*?%C`, `X`),
	), nil
}

func packageIfthenMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\newboolean%C`, ``),
		eng.Rule(`\\setboolean%C%C`, ``),
		eng.Rule(`\\equal%C%C`, ``),
		eng.Rule(`\\ifthenelse%C%C%C`, `\g<c2> \g<c3>`),
	), nil
}

// packageListingsRemoval maps listings onto the core verbatim forms.
func packageListingsRemoval(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\lstinline%s?{`, `\\verb}`),
		eng.Rule(`\\lstinline%s?(?P<delim>.)`, `\\verb\g<delim>`),
		eng.Rule(`\\begin{lstlisting}`, `\\begin[lstlisting]{verbatim}`),
	), nil
}

func packageListingsMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\lstloadlanguages%C`, ``),
		eng.Rule(`\\lstset%C`, ``),
		eng.Rule(`\\lstdefinestyle%C%C`, ``),
		eng.Rule(`\\lstinputlisting%s?%c`, ``),
	), nil
}

func packageMathtoolsMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\DeclarePairedDelimiter%C%C%C`, ``),
		eng.Rule(`\\DeclarePairedDelimiterX%C%s%C%C%C`, ``),
		eng.Rule(`\\DeclarePairedDelimiterXPP%C%s%C%C%C%C%C`, ``),
	), nil
}

func packageMdframedMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\mdfdefinestyle%C%C`, ``),
		eng.Rule(`\\newmdenv%s%C`, ``),
	), nil
}

func packageMultirowMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\multirow%s?%c%s?%c%s?%c`, `\g<c3>`),
	), nil
}

// refx stands for the text of a citation.
const refx = "Paper X"

func packageNatbibMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		// \citet and \Citet
		eng.Rule(`\\[Cc]itet\*?%s%C`, refx+` (\g<s1>)`),
		eng.Rule(`\\[Cc]itet\*?%C`, refx),
		// \citep and \Citep
		eng.Rule(`\\[Cc]itep\*?%s\[\]%C`, `(\g<s1> `+refx+`)`),
		eng.Rule(`\\[Cc]itep\*?%s%s%C`, `(\g<s1> `+refx+`, \g<s2>)`),
		eng.Rule(`\\[Cc]itep\*?%s%C`, `(`+refx+`, \g<s1>)`),
		eng.Rule(`\\[Cc]itep\*?%C`, `(`+refx+`)`),
		// \citealt, \citealp, \Citealt and \Citealp
		eng.Rule(`\\[Cc]iteal[tp]\*?%s\[\]%C`, `\g<s1> `+refx),
		eng.Rule(`\\[Cc]iteal[tp]\*?%s%s%C`, `\g<s1> `+refx+`, \g<s2>`),
		eng.Rule(`\\[Cc]iteal[tp]\*?%s%C`, refx+`, \g<s1>`),
		eng.Rule(`\\[Cc]iteal[tp]\*?%C`, refx),
		// Aliases
		eng.Rule(`\\defcitealias%C%C`, ``),
		eng.Rule(`\\citetalias%C`, refx),
		eng.Rule(`\\citepalias%C`, `(`+refx+`)`),
		eng.Rule(`\\citenum%C`, `X`),
		eng.Rule(`\\citetext%C`, `(\g<c1>)`),
		eng.Rule(`\\[Cc]iteauthor\*?%C`, `Authors`),
		eng.Rule(`\\[Cc]itefullauthor%C`, `Authors`),
		eng.Rule(`\\citeyearpar%C`, `(\\citeyear\g<c1>)`),
		eng.Rule(`\\citeyear%C`, `2020`),
	), nil
}

func packagePdfpagesMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\includepdf%s?%c`, ``),
		eng.Rule(`\\includepdfmerge%s?%c`, ``),
		eng.Rule(`\\includepdfset%C`, ``),
	), nil
}

func packagePgfplotsMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\usepgfplotslibrary%C`, ``),
		eng.Rule(`\\pgfplotsset%C`, ``),
	), nil
}

func packageScalerelMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\(?:scale|stretch)rel\*%s?%c%c`, `\g<c1>`),
		eng.Rule(`\\(?:scale|stretch)rel%s?%c%c`, `\g<c1>\g<c2>`),
		eng.Rule(`\\(?:scale|stretch)to%s?%c%c`, `\g<c1>`),
	), nil
}

func packageSiunitxMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	numbers := engine.Text(func(m *engine.Match) string { return formatList(m.Group("c1")) })
	return engine.NewRuleList(
		eng.Rule(`\\sisetup%C`, ``),
		eng.MustRule(`\\ang%s?%c`, engine.Text(func(m *engine.Match) string { return angle(m.Group("c1")) })),
		eng.Rule(`\\(?:complex)?num%s?%c`, `\g<c1>`),
		eng.MustRule(`\\numlist%s?%c`, numbers),
		eng.Rule(`\\numproduct%s?%c`, `\g<c1>`),
		eng.Rule(`\\numrange%s?%c%c`, `\g<c1> to \g<c2>`),
		eng.Rule(`\\(?:unit|si)%s?%c`, ``),
		eng.Rule(`\\(?:qty|complexqty|SI)%s?%c%c`, `\g<c1>`),
		eng.MustRule(`\\(?:qty|SI)list%s?%c%c`, numbers),
		eng.Rule(`\\(?:qty|SI)product%s?%c%c`, `\g<c1>`),
		eng.Rule(`\\(?:qty|SI)range%s?%c%c%c`, `\g<c1> to \g<c2>`),
		eng.Rule(`\\DeclareSIUnit%s?%C%c`, ``),
		eng.Rule(`\\DeclareSI(?:Prefix|Power)%C%c%c`, ``),
		eng.Rule(`\\DeclareSIQualifier%C%c`, ``),
		eng.Rule(`\\tablenum%s?%c`, `\g<c1>`),
	), nil
}

// formatList joins the elements of a semicolon-separated list with commas
// and a final "and".
func formatList(raw string) string {
	values := strings.Split(raw, ";")
	if len(values) == 1 {
		return values[0]
	}
	last := len(values) - 1
	return strings.Join(values[:last], ", ") + " and " + values[last]
}

// angle formats an angle given in decimal or degree;minute;second form.
func angle(raw string) string {
	if !strings.Contains(raw, ";") {
		return raw + "°"
	}
	parts := strings.SplitN(strings.ReplaceAll(raw, " ", ""), ";", 3)
	var b strings.Builder
	for i, unit := range []string{"°", "'", `"`} {
		if i < len(parts) && parts[i] != "" {
			b.WriteString(parts[i] + unit)
		}
	}
	return b.String()
}

func packageSoulMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\soulregister%C%C`, ``),
		eng.Rule(`\\soulfont%C%C`, ``),
		eng.Rule(`\\soulaccent%C`, ``),
	), nil
}

func packageSubcaptionMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\subcaption%s?%c`, `\\caption[\g<s1>]{\g<c1>}`),
	), nil
}

func packageSubfigMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\subfloat%s?%s?%c`, `\\caption[\g<s1>]{\g<s2>}\n\g<c1>\n`),
		eng.Rule(`\\subref\*?%C`, `\\ref{\g<c1>}`),
	), nil
}

func packageUlemMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		// A space keeps the following text apart from the \bgroup that
		// usually precedes \markoverwith.
		eng.Rule(`\\markoverwith%C`, ` `),
		eng.Rule(`\\uline%C`, `\g<c1>`),
		eng.Rule(`\\uuline%C`, `\g<c1>`),
		eng.Rule(`\\uwave%C`, `\g<c1>`),
		eng.Rule(`\\sout%C`, `\g<c1>`),
		eng.Rule(`\\xout%C`, `\g<c1>`),
		eng.Rule(`\\dashuline%C`, `\g<c1>`),
		eng.Rule(`\\dotuline%C`, `\g<c1>`),
	), nil
}

// packageURLRemoval runs with the removal phase because URLs may contain
// percent signs, which are escaped so they are not taken for comments.
func packageURLRemoval(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	escape := eng.Rule(env.NotEscaped+`%`, `\%`)
	escaped := func(group string) engine.Replacement {
		return engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			return escape.Sub(m.Group(group), engine.Args{})
		})
	}
	return engine.NewRuleList(
		eng.MustRule(`\\url%c`, escaped("c1")),
		eng.MustRule(`
\\url(?![a-zA-Z])  # Command name (not followed by letter)
\s*+               # Optional space
(?P<delim>.)       # Opening delimiter
(?P<url>(?s:.)*?)  # URL
(?P=delim)         # Closing delimiter
`, escaped("url")),
	), nil
}

func packageURLMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\urlstyle%C`, ``),
	), nil
}

func packageXcolorMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\(?:define|provide)color%s?%c%c%c`, ``),
		eng.Rule(`\\(?:define|provide)colors%c`, ``),
		eng.Rule(`\\(?:define|provide)colorset%s?%c%c%c%c`, ``),
		eng.Rule(`\\colorlet%s?%c%s?%c`, ``),
		eng.Rule(`\\(?:page)?color%s?%c`, ``),
		eng.Rule(`\\(?:text|math)color%s?%c%c`, `\g<c2>`),
		eng.Rule(`\\colorbox%s?%c%c`, `\g<c2>`),
		eng.Rule(`\\fcolorbox%s?%c%s?%c%c`, `\g<c3>`),
		eng.Rule(`\\boxframe%c%c%c`, ``),
	), nil
}
