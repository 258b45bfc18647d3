package pipeline

import (
	"github.com/termfx/errers/internal/document"
	"github.com/termfx/errers/internal/dsl"
	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/providers"
)

// selector gathers the rule lists of each phase for one document.
type selector struct {
	env        *providers.Env
	namespaces []*providers.Namespace
	embedded   map[engine.Phase]*engine.RuleList
	subjects   []providers.Key
}

// selectRules returns the location list and the list of every later phase.
// Within a phase, rules embedded in the document come first, then those of
// the document classes, packages and bibliography style, then the core
// rules. For each provider key the local namespace is searched before the
// standard one.
//
// The main phase is wrapped twice: the inner list repeats the main rules and
// the outer one alternates them with the brace cleanup. Both iterate only
// when brackets are matched to a bounded depth.
func selectRules(eng *engine.Engine, doc *document.Document, opts Options) (location, other *engine.RuleList, err error) {
	s := &selector{
		env: &providers.Env{
			Engine:       eng,
			Logger:       opts.Logs.Log,
			Auto:         opts.Auto,
			Default:      opts.Default,
			Local:        opts.Local,
			Document:     doc,
			NotCommented: dsl.NotCommented,
			NotEscaped:   dsl.NotEscaped,
			SinglePass:   eng.SinglePass(),
		},
	}
	if opts.Local && opts.LocalRules != nil {
		s.namespaces = append(s.namespaces, opts.LocalRules)
	}
	s.namespaces = append(s.namespaces, opts.Standard)

	if s.embedded, err = doc.EmbeddedRules(); err != nil {
		return nil, nil, err
	}
	if s.subjects, err = subjects(doc); err != nil {
		return nil, nil, err
	}

	if location, err = s.phase(engine.PhaseLocation); err != nil {
		return nil, nil, err
	}
	s.env.ReadFile = func(rel, ext string) (string, error) {
		return doc.ReadFile(rel, ext, location)
	}

	other = engine.NewRuleList()
	for _, p := range []engine.Phase{engine.PhaseInsertion, engine.PhaseRemoval, engine.PhaseSetup} {
		list, err := s.phase(p)
		if err != nil {
			return nil, nil, err
		}
		other.Extend(list.Items()...)
	}

	iterate := !s.env.SinglePass
	main, err := s.phase(engine.PhaseMain)
	if err != nil {
		return nil, nil, err
	}
	braces, err := s.seek(providers.CoreKey(engine.PhaseCleanupBraces))
	if err != nil {
		return nil, nil, err
	}
	inner := engine.NewRuleListIf(iterate, main.Items()...)
	other.Append(engine.NewRuleListIf(iterate, inner, braces))

	cleanup, err := s.phase(engine.PhaseCleanup)
	if err != nil {
		return nil, nil, err
	}
	other.Extend(cleanup.Items()...)
	return location, other, nil
}

// phase returns [embedded, subject lists..., core] for p.
func (s *selector) phase(p engine.Phase) (*engine.RuleList, error) {
	list := engine.NewRuleList()
	if embedded, ok := s.embedded[p]; ok {
		list.Append(embedded)
	}

	gathered := engine.NewRuleList()
	for _, subject := range s.subjects {
		subject.Phase = p
		rules, err := s.seek(subject)
		if err != nil {
			return nil, err
		}
		gathered.Append(rules)
	}
	list.Append(gathered)

	core, err := s.seek(providers.CoreKey(p))
	if err != nil {
		return nil, err
	}
	list.Append(core)
	return list, nil
}

func (s *selector) seek(key providers.Key) (*engine.RuleList, error) {
	return providers.Seek(s.env, key, s.namespaces...)
}

// subjects lists the classes, packages and bibliography style of doc as
// provider keys without a phase.
func subjects(doc *document.Document) ([]providers.Key, error) {
	var keys []providers.Key

	classes, err := doc.DocumentClasses()
	if err != nil {
		return nil, err
	}
	for _, name := range classes {
		keys = append(keys, providers.Key{Kind: providers.KindClass, Name: name})
	}

	packages, err := doc.Packages()
	if err != nil {
		return nil, err
	}
	for _, name := range packages {
		keys = append(keys, providers.Key{Kind: providers.KindPackage, Name: name})
	}

	style, ok, err := doc.BibliographyStyle()
	if err != nil {
		return nil, err
	}
	if ok {
		keys = append(keys, providers.Key{Kind: providers.KindStyle, Name: style})
	}
	return keys, nil
}
