package standard

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/errers/internal/backend"
	"github.com/termfx/errers/internal/dsl"
	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/providers"
)

func newEnvs(t *testing.T) map[string]*providers.Env {
	t.Helper()
	envs := map[string]*providers.Env{}
	for name, b := range map[string]backend.Backend{
		"baseline": backend.NewBaseline(),
		"full":     backend.NewFull(5 * time.Second),
	} {
		eng, err := dsl.NewEngine(b, engine.Config{})
		require.NoError(t, err)
		envs[name] = &providers.Env{
			Engine:       eng,
			Auto:         true,
			Default:      true,
			NotCommented: dsl.NotCommented,
			NotEscaped:   dsl.NotEscaped,
			SinglePass:   eng.SinglePass(),
			ReadFile: func(rel, ext string) (string, error) {
				return "", fmt.Errorf("no file %s%s", rel, ext)
			},
		}
	}
	return envs
}

func rules(t *testing.T, env *providers.Env, fns ...providers.Func) *engine.RuleList {
	t.Helper()
	list := engine.NewRuleList()
	for _, fn := range fns {
		l, err := fn(env)
		require.NoError(t, err)
		list.Extend(l.Items()...)
	}
	return list
}

func TestPackageFancyvrbRemoval(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`\DefineVerbatimEnvironment{MyVerbatim}{Verbatim}{frame=single}`, ``},
		{`\CustomVerbatimCommand{\MyVerbatim}{Verbatim}{frame=single}`, ``},
		{`\RecustomVerbatimCommand{\MyVerbatim}{Verbatim}{frame=single}`, ``},
		{`\RecustomVerbatimEnvironment{MyVerbatim}{Verbatim}{frame=single}`, ``},
		{`\begin{Verbatim} foo bar \end{Verbatim}`, ``},
		{`\begin{Verbatim*} foo bar \end{Verbatim*}`, ``},
		{`\begin{BVerbatim} foo bar \end{BVerbatim}`, ``},
		{`\begin{BVerbatim*} foo bar \end{BVerbatim*}`, ``},
		{`\begin{LVerbatim} foo bar \end{LVerbatim}`, ``},
		{`\begin{LVerbatim*} foo bar \end{LVerbatim*}`, ``},
		{`\begin{SaveVerbatim} foo bar \end{SaveVerbatim}`, ``},
		{`\begin{SaveVerbatim*} foo bar \end{SaveVerbatim*}`, ``},
		{`\DefineVerbatimEnvironment{MyVerbatim}{Verbatim}{frame=single}\begin{MyVerbatim} foo bar \end{MyVerbatim}`, ``},
		{`\DefineVerbatimEnvironment{MyVerbatim}{Verbatim}{frame=single}\begin{MyVerbatim*} foo bar \end{MyVerbatim*}`, ``},
		{`\CustomVerbatimCommand{\MyVerbatim}{Verbatim}{frame=single}\MyVerbatim[foo]{bar}`, ``},
		{`\SaveVerb[foo]{Bar}+asdf+`, `||`},
		{`\UseVerb{Bar}`, `||`},
		{`\fvset{Bar}`, ``},
		{`\UseVerbatim[asdf]{Bar}`, `||`},
		{`\VerbatimInput[asdf]{Bar}`, ``},
		{`\begin{MyVerbatim} foo bar \end{MyVerbatim}`, `\begin{MyVerbatim} foo bar \end{MyVerbatim}`},
		{`\begin{MyVerbatim*} foo bar \end{MyVerbatim*}`, `\begin{MyVerbatim*} foo bar \end{MyVerbatim*}`},
		{`\begin{AVerbatim} foo bar \end{AVerbatim}`, `\begin{AVerbatim} foo bar \end{AVerbatim}`},
		{`\begin{AVerbatim*} foo bar \end{AVerbatim*}`, `\begin{AVerbatim*} foo bar \end{AVerbatim*}`},
	}

	for name, env := range newEnvs(t) {
		for i, tt := range tests {
			t.Run(fmt.Sprintf("%s/%d", name, i), func(t *testing.T) {
				list := rules(t, env, packageFancyvrbRemoval, coreRemoval)
				got, err := list.Sub(tt.input, engine.Args{})
				require.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			})
		}
	}
}

func TestCoreRemoval(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"comment line", "a\n% note\nb", "a\nb"},
		{"end of line comment joins lines", "a % note\nb", "a b"},
		{"escaped percent", `50\% off`, `50\% off`},
		{"verb", `see \verb|x{y| here`, `see || here`},
		{"inline math", `area $x^2$ here`, `area $$ here`},
		{"display math keeps punctuation", "so \\[ x = 1. \\] and", "so $$. and"},
		{"math before a word", `$x$y`, `124y`},
		{"makeatletter", "a\\makeatletter\\def\\x{}\\makeatother b", "ab"},
	}

	for name, env := range newEnvs(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				got, err := rules(t, env, coreRemoval).Sub(tt.input, engine.Args{})
				require.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			})
		}
	}
}

func TestCoreSetupAccents(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`\'{e}`, "é"},
		{`\"{o}`, "ö"},
		{"\\`{a}", "à"},
		{`\c{c}`, "ç"},
		{`\v{s}`, "š"},
		{`\aa`, "å"},
		{`\={o}x`, "ōx"},
		{`\u{g}`, "ğ"},
		{`\d{ab}`, "ạb"},
		{`\'{\i}`, "í"},
		{"``quoted''", `"quoted"`},
		{"a---b--c", "a—b–c"},
	}

	for name, env := range newEnvs(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.input, func(t *testing.T) {
				got, err := rules(t, env, coreSetup).Sub(tt.input, engine.Args{})
				require.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			})
		}
	}
}

func TestCoreCleanup(t *testing.T) {
	for name, env := range newEnvs(t) {
		t.Run(name, func(t *testing.T) {
			list := rules(t, env, coreCleanup)

			got, err := list.Sub(`Hello\ \ world~x \& y`, engine.Args{})
			require.NoError(t, err)
			assert.Equal(t, "Hello world x & y", got)

			got, err = list.Sub("\n\n\nPara one\nline two\n\n\n\nPara two\n\n\n", engine.Args{})
			require.NoError(t, err)
			assert.Equal(t, "Para one line two\n\nPara two\n", got)
		})
	}
}

func TestCoreLocation(t *testing.T) {
	for name, env := range newEnvs(t) {
		t.Run(name, func(t *testing.T) {
			list := rules(t, env, coreLocation)
			got, err := list.Sub("x\n\\newcommand{\\foo}{bar}", engine.Args{Vars: engine.Vars{"file_name": "doc.tex"}})
			require.NoError(t, err)
			assert.Equal(t, "x\n\\newcommand{\\foo}(2)(doc.tex){bar}", got)
		})
	}
}

func TestCoreInsertion(t *testing.T) {
	files := map[string]string{
		"ch1.tex": `\input{ch2}`,
		"ch2.tex": "two",
	}
	for name, env := range newEnvs(t) {
		t.Run(name, func(t *testing.T) {
			env.ReadFile = func(rel, ext string) (string, error) {
				content, ok := files[rel+ext]
				if !ok {
					return "", fmt.Errorf("no file %s%s", rel, ext)
				}
				return content, nil
			}
			list := rules(t, env, coreInsertion)

			got, err := list.Sub("A \\input{ch1} B\n% \\input{ch9}", engine.Args{})
			require.NoError(t, err)
			assert.Equal(t, "A \n\ntwo B\n% \\input{ch9}", got)

			_, err = list.Sub(`\include{missing}`, engine.Args{})
			assert.ErrorContains(t, err, "no file missing.tex")
		})
	}
}

func TestCoreMainDefinitions(t *testing.T) {
	for name, env := range newEnvs(t) {
		t.Run(name, func(t *testing.T) {
			list := rules(t, env, coreMain)
			got, err := list.Sub(`\newcommand{\foo}(1)(doc.tex)[1]{<#1>}\foo{x} \emph{y}`, engine.Args{})
			require.NoError(t, err)
			assert.Equal(t, `<x> y`, got)
		})
	}
}

func TestPackages(t *testing.T) {
	tests := []struct {
		name     string
		fn       providers.Func
		input    string
		expected string
	}{
		{"acro", packageAcroMain, `\DeclareAcronym{ny}{short=NY, long=New York}`, "\nNY: New York\n"},
		{"acro plural", packageAcroMain, `\DeclareAcronym{ny}{short=NY, long=New York, long-plural-form=New Yorks}`, "\nNY: New York\n\nNYs: New Yorks\n"},
		{"acro id", packageAcroMain, `\DeclareAcronym{ny}{long=New York}`, "\nny: New York\n"},
		{"cleveref", packageCleverefMain, `\cref{a} \Cref{a,b}`, `reference \ref{a} References \ref{a,b} and \ref{a,b}`},
		{"hyperref", packageHyperrefMain, `\hypersetup{pdftitle={My Title}, pdfauthor=Me}`, "\nMy Title\n\nMe\n"},
		{"natbib", packageNatbibMain, `\citet{k} \citep[see][p. 3]{k}`, `Paper X (see Paper X, p. 3)`},
		{"siunitx", packageSiunitxMain, `\ang{1;2;3} \numlist{1;2;3} \SI{5}{\metre}`, `1°2'3" 1, 2 and 3 5`},
		{"url", packageURLRemoval, `\url{a%b} \url|c%d|`, `a\%b c\%d`},
		{"etoolbox", packageEtoolboxLocation, `\renewrobustcmd`, `\renewcommand`},
		{"amsmath", packageAmsmathRemoval, `\begin{align*}x\end{align*}`, `\begin{equation}x\end{equation}`},
		{"xcolor", packageXcolorMain, `\textcolor{red}{hot}`, `hot`},
		{"apacite", packageApaciteMain, `\APACrefYearMonthDay{2020}{May}{} \APACmonth{05} \PrintOrdinal{2} \APACjournalVolNumPages{J}{1}{2}{3-4} \BPGS`, `(2020, May) May 2nd J, 1(2), 3-4 pp.`},
		{"apacite month out of range", packageApaciteMain, `\APACmonth{17}`, `\APACmonth{17}`},
		{"makeidx heading", packageMakeidxSetup, `\printindex`, "\n\nIndex\n\n\\printindex"},
		{
			"makeidx entries",
			packageMakeidxMain,
			`\index{beta}\index{alpha@Alpha}\index{gamma!delta|see{x}}\index{beta}` + "\n\\printindex",
			"\nAlpha\n\nbeta\n\ngamma, delta; see x\n\\printindex\n",
		},
		{
			"glossaries",
			packageGlossariesMain,
			`\newglossaryentry{ex}{name=sample, description={an example}}\gls{ex} and \gls{ex}, \Glspl{ex}. \glsdesc{ex}` + "\n\\printglossary",
			"sample and sample, Samples. an example\n\nSample: an example\n\n\\printglossary\n",
		},
		{
			"glossaries parent",
			packageGlossariesMain,
			`\newglossaryentry{a}{name=Apple, description=fruit}\newglossaryentry{b}{parent=a, description=kind}\glsname{b} \gls{c}`,
			`Apple \gls{c}`,
		},
	}

	for name, env := range newEnvs(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				got, err := rules(t, env, tt.fn).Sub(tt.input, engine.Args{})
				require.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			})
		}
	}
}

func TestDrawingLabels(t *testing.T) {
	tests := []struct {
		name     string
		fns      []providers.Func
		input    string
		expected string
	}{
		{
			"tikz node",
			[]providers.Func{packageTikzSetup, packageTikzMain},
			"\\begin{tikzpicture}\n\\node at (0,0) {Hello};\n\\draw (0,0) -- (1,1);\n\\end{tikzpicture}",
			"Hello\n\n",
		},
		{
			"mfpic label",
			[]providers.Func{packageMfpicMain},
			"\\begin{mfpic}\n\\tlabel(0,0){Origin}\n\\end{mfpic}",
			"Origin\n\n",
		},
	}

	for name, env := range newEnvs(t) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				got, err := rules(t, env, tt.fns...).Sub(tt.input, engine.Args{})
				require.NoError(t, err)
				assert.Equal(t, tt.expected, got)
			})
		}
	}
}

func TestOrdinal(t *testing.T) {
	for n, want := range map[string]string{"1": "1st", "2": "2nd", "3": "3rd", "4": "4th", "11": "11th", "22": "22nd", "113": "113th"} {
		assert.Equal(t, want, ordinal(n))
	}
}

func TestClassesAndStyles(t *testing.T) {
	env := newEnvs(t)["full"]

	got, err := rules(t, env, classDRDCMain).Sub(`\addkeyword{radar}\futuredistribution{dnd}{Note}`, engine.Args{})
	require.NoError(t, err)
	assert.Equal(t, "Radar\n\n\n\nNote\n", got)

	got, err = rules(t, env, styleDRDCMain).Sub(`\numtomonth{3} \numtomonth{13}`, engine.Args{})
	require.NoError(t, err)
	assert.Equal(t, `March \numtomonth{13}`, got)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "1", formatList("1"))
	assert.Equal(t, "1 and 2", formatList("1;2"))
	assert.Equal(t, "45°", angle("45"))
	assert.Equal(t, "1°3\"", angle("1;;3"))
	assert.Equal(t, "Émile", capitalize("émile"))
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "é", addDiacritic("ex", '\u0301'))
	assert.Equal(t, "éx", addDiacriticKeep("ex", '\u0301'))
	assert.Equal(t, "", addDiacriticKeep("", '\u0301'))
	assert.Equal(t, "", addDiacritic("", '\u0301'))
}

func TestNamespace(t *testing.T) {
	ns := Namespace()
	assert.Equal(t, NamespaceName, ns.Name())

	for _, key := range []string{
		"core_location", "core_main", "core_cleanup_braces",
		"class_drdc_report_main", "package_dtk_logos_main",
		"package_fancyvrb_removal", "style_drdc_plain_main",
		"package_apacite_main", "package_glossaries_main", "package_makeidx_setup",
		"package_mfpic_main", "package_tikz_setup", "package_tikz_main",
	} {
		k, err := providers.ParseKey(key)
		require.NoError(t, err)
		_, ok := ns.Lookup(k)
		assert.True(t, ok, key)
	}
}
