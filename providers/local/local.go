// Package local loads user rule lists from a YAML file into a namespace that
// is searched before the standard one.
//
// The file maps provider keys to rule lists:
//
//	package_mymacros_main:
//	  iterative: false
//	  rules:
//	    - pattern: '\\mymacro%C'
//	      replacement: '\g<c1>'
//	core_cleanup:
//	  - pattern: '\\todo%C'
//	    replacement: ''
//
// A key may map to the list itself when the list options are defaults.
// Patterns use the rule language; replacements are templates.
package local

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/providers"
)

// NamespaceName names the local namespace in logs and listings.
const NamespaceName = "local"

// RuleSpec is one rule of a local list.
type RuleSpec struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
	Iterative   bool   `yaml:"iterative"`
	line        int
}

func (r *RuleSpec) UnmarshalYAML(value *yaml.Node) error {
	type plain RuleSpec
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	if p.Pattern == "" {
		return fmt.Errorf("line %d: rule without pattern", value.Line)
	}
	*r = RuleSpec(p)
	r.line = value.Line
	return nil
}

// ListSpec is the rule list of one provider key.
type ListSpec struct {
	Iterative bool       `yaml:"iterative"`
	Rules     []RuleSpec `yaml:"rules"`
}

func (l *ListSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		*l = ListSpec{}
		return value.Decode(&l.Rules)
	}
	type plain ListSpec
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*l = ListSpec(p)
	return nil
}

// Load reads the local rule file at path.
func Load(path string) (*providers.Namespace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read local rules: %w", err)
	}
	return Parse(path, data)
}

// Parse builds the local namespace from YAML data. file is recorded as the
// location of every rule.
func Parse(file string, data []byte) (*providers.Namespace, error) {
	var specs map[string]ListSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("failed to parse local rules %s: %w", file, err)
	}

	ns := providers.NewNamespace(NamespaceName)
	for name, spec := range specs {
		key, err := providers.ParseKey(name)
		if err != nil {
			return nil, fmt.Errorf("local rules %s: %w", file, err)
		}
		ns.Register(key, provider(file, key, spec))
	}
	return ns, nil
}

func provider(file string, key providers.Key, spec ListSpec) providers.Func {
	return func(env *providers.Env) (*engine.RuleList, error) {
		list := engine.NewRuleListIf(spec.Iterative)
		for _, r := range spec.Rules {
			rule, err := env.Engine.NewRule(r.Pattern, engine.Literal(r.Replacement),
				engine.WithLocation(file, r.line, key.String()),
				engine.IterativeIf(r.Iterative))
			if err != nil {
				return nil, err
			}
			list.Append(rule)
		}
		return list, nil
	}
}
