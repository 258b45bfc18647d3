// Package providers defines how rule tables are found. A provider returns
// the rules of one document class, package, bibliography style or of the
// core set, for one extraction phase. Providers live in namespaces that are
// searched in order, local rules first.
package providers

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/termfx/errers/internal/document"
	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/providers/catalog"
)

// Kind is the family of a provider.
type Kind string

const (
	KindCore    Kind = "core"
	KindClass   Kind = "class"
	KindPackage Kind = "package"
	KindStyle   Kind = "style"
)

var kinds = []Kind{KindCore, KindClass, KindPackage, KindStyle}

// Key identifies a provider. Name is empty for core providers.
type Key struct {
	Kind  Kind
	Name  string
	Phase engine.Phase
}

// CoreKey returns the key of the core provider for phase.
func CoreKey(phase engine.Phase) Key {
	return Key{Kind: KindCore, Phase: phase}
}

// String renders the lookup name, such as package_dtk_logos_main or
// core_cleanup_braces.
func (k Key) String() string {
	if k.Kind == KindCore {
		return string(k.Kind) + "_" + k.Phase.String()
	}
	return string(k.Kind) + "_" + k.Name + "_" + k.Phase.String()
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	kind, rest, ok := strings.Cut(s, "_")
	if !ok || !slices.Contains(kinds, Kind(kind)) {
		return Key{}, fmt.Errorf("invalid provider key %q: unknown kind", s)
	}

	// Longest phase name first so that cleanup_braces wins over cleanup.
	phases := slices.Concat(engine.Phases, []engine.Phase{engine.PhaseCleanupBraces})
	sort.Slice(phases, func(i, j int) bool {
		return len(phases[i].String()) > len(phases[j].String())
	})

	for _, phase := range phases {
		name := phase.String()
		if Kind(kind) == KindCore {
			if rest == name {
				return Key{Kind: KindCore, Phase: phase}, nil
			}
			continue
		}
		if phase == engine.PhaseCleanupBraces {
			continue
		}
		if prefix, found := strings.CutSuffix(rest, "_"+name); found && prefix != "" {
			return Key{Kind: Kind(kind), Name: prefix, Phase: phase}, nil
		}
	}
	return Key{}, fmt.Errorf("invalid provider key %q: unknown phase", s)
}

// Env is what a provider gets to build its rules.
type Env struct {
	Engine   *engine.Engine
	Logger   *slog.Logger
	Auto     bool
	Default  bool
	Local    bool
	Document *document.Document

	// NotCommented and NotEscaped are pattern fragments, see package dsl.
	NotCommented string
	NotEscaped   string
	// SinglePass is true when brackets match at any depth.
	SinglePass bool
	// ReadFile reads a file inserted into the document, with the location
	// rules applied.
	ReadFile func(rel, defaultExt string) (string, error)
}

// Func builds the rules of one provider.
type Func func(env *Env) (*engine.RuleList, error)

// Namespace maps keys to providers.
type Namespace struct {
	name  string
	funcs map[Key]Func
}

// NewNamespace creates an empty namespace.
func NewNamespace(name string) *Namespace {
	return &Namespace{
		name:  name,
		funcs: make(map[Key]Func),
	}
}

func (n *Namespace) Name() string { return n.name }
func (n *Namespace) Len() int     { return len(n.funcs) }

// Register adds a provider. A later registration under the same key
// replaces the earlier one.
func (n *Namespace) Register(key Key, fn Func) {
	n.funcs[key] = fn
	catalog.Register(catalog.Entry{
		Namespace: n.name,
		Kind:      string(key.Kind),
		Name:      key.Name,
		Phase:     key.Phase.String(),
	})
}

// Lookup retrieves the provider for key.
func (n *Namespace) Lookup(key Key) (Func, bool) {
	fn, ok := n.funcs[key]
	return fn, ok
}

// Keys returns the registered keys sorted by name.
func (n *Namespace) Keys() []Key {
	keys := make([]Key, 0, len(n.funcs))
	for k := range n.funcs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Seek runs the provider registered under key in each namespace, in order,
// and concatenates their rules. Nil namespaces are skipped.
func Seek(env *Env, key Key, namespaces ...*Namespace) (*engine.RuleList, error) {
	list := engine.NewRuleList()
	for _, ns := range namespaces {
		if ns == nil {
			continue
		}
		fn, ok := ns.Lookup(key)
		if !ok {
			continue
		}
		if env.Logger != nil {
			env.Logger.Info(fmt.Sprintf("Getting rules from %s.%s", ns.Name(), key))
		}
		rules, err := fn(env)
		if err != nil {
			return nil, err
		}
		if rules != nil {
			list.Extend(rules.Items()...)
		}
	}
	return list, nil
}
