package standard

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/providers"
)

// glossaryKeys maps the fields of a glossary entry to the keys that set
// them in \newglossaryentry.
var glossaryKeys = []struct{ field, key string }{
	{"name", "name"},
	{"parent", "parent"},
	{"desc", "description"},
	{"descplural", "descriptionplural"},
	{"text", "text"},
	{"first", "first"},
	{"plural", "plural"},
	{"firstplural", "firstplural"},
	{"symbol", "symbol"},
	{"useri", "user1"},
	{"userii", "user2"},
	{"useriii", "user3"},
	{"useriv", "user4"},
	{"userv", "user5"},
	{"uservi", "user6"},
}

type glossaryEntry struct {
	fields map[string]string
	used   bool
}

// glossary records the entries of one document in definition order.
type glossary struct {
	env     *providers.Env
	keys    map[string]*engine.Rule
	entries map[string]*glossaryEntry
	labels  []string
	printed int
}

// define records an entry unless label is already known. desc overrides
// the description key when not nil.
func (g *glossary) define(label, keys string, desc *string) (string, error) {
	if _, ok := g.entries[label]; ok {
		return "", nil
	}
	v := make(map[string]string, len(g.keys))
	for field, rule := range g.keys {
		out, err := rule.Sub(keys, engine.Args{})
		if err != nil {
			return "", err
		}
		v[field] = out
	}

	if v["name"] == "" {
		parent, ok := g.entries[v["parent"]]
		if !ok {
			if g.env.Logger != nil {
				g.env.Logger.Error(`Missing name/parent for glossary entry "` + label + `".`)
			}
			return "", nil
		}
		v["name"] = parent.fields["name"]
	}
	if desc != nil {
		v["desc"] = *desc
	}
	v["descplural"] = orElse(v["descplural"], v["desc"])
	v["text"] = orElse(v["text"], v["name"])
	v["plural"] = orElse(v["plural"], v["text"]+"s")
	if v["firstplural"] == "" {
		if v["first"] == "" {
			v["firstplural"] = v["plural"]
		} else {
			v["firstplural"] = v["first"] + "s"
		}
	}
	v["first"] = orElse(v["first"], v["text"])

	g.entries[label] = &glossaryEntry{fields: v}
	g.labels = append(g.labels, label)
	return "", nil
}

// lookup returns the value of field for label, or match when the label is
// unknown. With neither field nor first, it only marks the entry as used.
// first replaces field the first time the entry is used. start is the
// first three letters of the command and sets the case of the result.
func (g *glossary) lookup(match, label, field, first, suffix, start string, post func(string) string) string {
	e, ok := g.entries[label]
	if !ok {
		return match
	}
	var out string
	switch {
	case field == "" && first == "":
		e.used = true
	case e.used || first == "":
		out = e.fields[field]
	default:
		e.used = true
		out = e.fields[first]
	}
	out += suffix
	switch start {
	case "Gls":
		out = capitalizeLower(out)
	case "GLS":
		out = strings.ToUpper(out)
	}
	if post != nil {
		out = post(out)
	}
	return out
}

// print lists the entries defined since the last call, sorted without
// regard to case, before the command.
func (g *glossary) print() string {
	fold := cases.Fold()
	labels := append([]string(nil), g.labels[g.printed:]...)
	sort.SliceStable(labels, func(i, j int) bool {
		return fold.String(labels[i]) < fold.String(labels[j])
	})
	g.printed = len(g.labels)
	if len(labels) == 0 {
		return `\printglossary`
	}
	lines := make([]string, len(labels))
	for i, label := range labels {
		e := g.entries[label]
		lines[i] = capitalizeLower(e.fields["name"]) + ": " + e.fields["desc"]
	}
	return "\n" + strings.Join(lines, "\n\n") + "\n\n\\printglossary\n"
}

func packageGlossariesMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	g := &glossary{
		env:     env,
		keys:    make(map[string]*engine.Rule, len(glossaryKeys)),
		entries: map[string]*glossaryEntry{},
	}
	for _, k := range glossaryKeys {
		g.keys[k.field] = eng.KeyValue(k.key)
	}
	title := cases.Title(language.Und)

	return engine.NewRuleList(
		eng.Rule(`\\setacronymstyle%s?%c`, ``),
		eng.Rule(`\\loadglsentries%s?%c`, ``),
		eng.MustRule(`\\(?:new|provide)glossaryentry%c%c`, engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			return g.define(m.Group("c1"), m.Group("c2"), nil)
		})),
		eng.MustRule(`\\long(?:new|provide)glossaryentry%c%c%c`, engine.Func(func(m *engine.Match, _ engine.Vars) (string, error) {
			desc := m.Group("c3")
			return g.define(m.Group("c1"), m.Group("c2"), &desc)
		})),
		eng.Rule(`\\glspar`, `\n\n`),
		eng.MustRule(`\\glsentrytitlecase%c%c`, engine.Text(func(m *engine.Match) string {
			return g.lookup(m.Text(), m.Group("c1"), m.Group("c2"), "", "", "gls", title.String)
		})),
		eng.MustRule(`\\glshyperlink%s?%c`, engine.Text(func(m *engine.Match) string {
			if s := m.Group("s1"); s != "" {
				return s
			}
			return g.lookup(m.Text(), m.Group("c1"), "text", "", "", "gls", nil)
		})),
		eng.MustRule(`
\\(?P<start>gls|Gls)entry
(?P<field>name|text|plural|first|firstplural|desc|descplural
 |symbol|useri|userii|useriii|useriv|userv|uservi)%c`, engine.Text(func(m *engine.Match) string {
			return g.lookup(m.Text(), m.Group("c1"), m.Group("field"), "", "", m.Group("start"), nil)
		})),
		eng.MustRule(`\\(?P<start>gls|Gls|GLS)[+*]?%s?%c%s?`, engine.Text(func(m *engine.Match) string {
			return g.lookup(m.Text(), m.Group("c1"), "text", "first", m.Group("s2"), m.Group("start"), nil)
		})),
		eng.MustRule(`\\(?P<start>gls|Gls|GLS)pl[+*]?%s?%c%s?`, engine.Text(func(m *engine.Match) string {
			return g.lookup(m.Text(), m.Group("c1"), "plural", "firstplural", m.Group("s2"), m.Group("start"), nil)
		})),
		eng.MustRule(`\\(?P<start>gls|Gls)disp[*+]?%s?%c%c`, engine.Text(func(m *engine.Match) string {
			return g.lookup(m.Text(), m.Group("c1"), "", "", m.Group("c2"), m.Group("start"), nil)
		})),
		eng.Rule(`\\glslink[*+]?%s?%c%c`, `\g<c2>`),
		eng.MustRule(`\\Glslink[*+]?%s?%c%c`, engine.Text(func(m *engine.Match) string {
			return capitalizeLower(m.Group("c2"))
		})),
		eng.MustRule(`
\\(?P<start>gls|Gls|GLS)
(?P<field>name|text|plural|first|firstplural|desc
 |symbol|useri|userii|useriii|useriv|userv|uservi)[*+]?
%s?%c%s?`, engine.Text(func(m *engine.Match) string {
			return g.lookup(m.Text(), m.Group("c1"), m.Group("field"), "", m.Group("s2"), m.Group("start"), nil)
		})),
		eng.MustRule(`\\print(?:noidx|unsrt)?glossary%s?`, engine.Text(func(*engine.Match) string { return g.print() })),
		eng.MustRule(`\\print(?:noidx|unsrt)?glossaries`, engine.Text(func(*engine.Match) string { return g.print() })),
	), nil
}

// packageMakeidxSetup puts a heading before the index.
func packageMakeidxSetup(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine
	return engine.NewRuleList(
		eng.Rule(`\\printindex`, "\n\nIndex\n\n"+`\\printindex`),
	), nil
}

// Not after an unescaped quote, which makeindex uses to escape ! @ and |.
const indexNoQuote = `(?<!(?<!\\)")`

const indexText = `(?:(?!` + indexNoQuote + `[!@|]).)*+`

// packageMakeidxMain collects the \index entries of the document and lists
// them, sorted and without duplicates, where the index is printed.
func packageMakeidxMain(env *providers.Env) (list *engine.RuleList, err error) {
	defer engine.Recover(&err)
	eng := env.Engine

	entry := engine.NewRuleList(
		// Sort keys go, the formatted text stays.
		eng.Rule(`
(\A|`+indexNoQuote+`!)        # Sub-entry delimiter
`+indexText+`                 # Sort key
`+indexNoQuote+`@             # Format delimiter
(`+indexText+`)               # Formatted text
(?=\z|`+indexNoQuote+`[!|])   # Sub-entry delimiter
`, `\1\2`),
		eng.Rule(indexNoQuote+`\|see%c`, `; see \g<c1>`),
		// Page number formatting.
		eng.Rule(indexNoQuote+`\|.*`, ``),
		eng.Rule(indexNoQuote+`!`, `, `),
	)

	var entries []string
	printed := 0
	index := func(m *engine.Match, _ engine.Vars) (string, error) {
		out, err := entry.Sub(m.Group("c1"), engine.Args{})
		if err != nil {
			return "", err
		}
		entries = append(entries, out)
		return "", nil
	}
	printIndex := func(*engine.Match) string {
		seen := map[string]bool{}
		for _, e := range entries[:printed] {
			seen[e] = true
		}
		var fresh []string
		for _, e := range entries[printed:] {
			if !seen[e] {
				seen[e] = true
				fresh = append(fresh, e)
			}
		}
		printed = len(entries)
		if len(fresh) == 0 {
			return `\printindex`
		}
		fold := cases.Fold()
		sort.Slice(fresh, func(i, j int) bool {
			a, b := fold.String(fresh[i]), fold.String(fresh[j])
			if a != b {
				return a < b
			}
			return swapCase(fresh[i]) < swapCase(fresh[j])
		})
		return strings.Join(fresh, "\n\n") + "\n\\printindex\n"
	}

	return engine.NewRuleList(
		eng.MustRule(`\\index%C`, engine.Func(index)),
		eng.MustRule(`\\printindex`, engine.Text(printIndex)),
	), nil
}

func orElse(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// capitalizeLower upper-cases the first character of s and lower-cases the
// rest.
func capitalizeLower(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func swapCase(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsUpper(r):
			return unicode.ToLower(r)
		case unicode.IsLower(r):
			return unicode.ToUpper(r)
		}
		return r
	}, s)
}
