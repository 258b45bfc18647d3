// Package standard holds the rule tables shipped with errers: the core
// rules applied to every document and the rules for known document
// classes, packages and bibliography styles.
package standard

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/providers"
)

// NamespaceName names the standard namespace in logs and listings.
const NamespaceName = "standard"

// Namespace returns a namespace holding every standard provider.
func Namespace() *providers.Namespace {
	ns := providers.NewNamespace(NamespaceName)
	Register(ns)
	return ns
}

// Register adds the standard providers to ns.
func Register(ns *providers.Namespace) {
	core := map[engine.Phase]providers.Func{
		engine.PhaseLocation:      coreLocation,
		engine.PhaseInsertion:     coreInsertion,
		engine.PhaseRemoval:       coreRemoval,
		engine.PhaseSetup:         coreSetup,
		engine.PhaseMain:          coreMain,
		engine.PhaseCleanupBraces: coreCleanupBraces,
		engine.PhaseCleanup:       coreCleanup,
	}
	for phase, fn := range core {
		ns.Register(providers.CoreKey(phase), fn)
	}

	for _, p := range classes {
		ns.Register(providers.Key{Kind: providers.KindClass, Name: p.name, Phase: p.phase}, p.fn)
	}
	for _, p := range packages {
		ns.Register(providers.Key{Kind: providers.KindPackage, Name: p.name, Phase: p.phase}, p.fn)
	}
	for _, p := range styles {
		ns.Register(providers.Key{Kind: providers.KindStyle, Name: p.name, Phase: p.phase}, p.fn)
	}
}

type entry struct {
	name  string
	phase engine.Phase
	fn    providers.Func
}

// addDiacritic puts a combining mark on the first character of s and
// returns it in composed form. The rest of s is dropped.
func addDiacritic(s string, mark rune) string {
	if s == "" {
		return ""
	}
	first, _ := firstRune(s)
	return norm.NFKC.String(first + string(mark))
}

// addDiacriticKeep is addDiacritic keeping the rest of s.
func addDiacriticKeep(s string, mark rune) string {
	if s == "" {
		return ""
	}
	first, rest := firstRune(s)
	return norm.NFKC.String(first+string(mark)) + rest
}

func firstRune(s string) (string, string) {
	if s == "" {
		return "", ""
	}
	_, size := utf8.DecodeRuneInString(s)
	return s[:size], s[size:]
}
