package engine

import "strings"

const keyValueTemplate = `(?s)
\A
(?:(?!(?<![a-zA-Z])(?:KEY)%n=).)*+     # Skip to the key
(?:
    (?:KEY)%n=%n
    (?:
        %c                               # Curly-bracketed value
        |
        (?<unbracketed>(?!\{)(?:(?![\ \t\n]*+(?:,|\z)).)*+)
        |
        (?<bracketed>(?=\{).*+)          # Unbalanced fallback
    )
)?
.*+
`

// KeyValue returns a rule that reduces a key-value list such as
// "short=ABC, long={A B C}" to the value of key. key is a pattern and may
// list alternatives. The engine must carry a DSL compiler.
func (e *Engine) KeyValue(key string) *Rule {
	pattern := strings.ReplaceAll(keyValueTemplate, "KEY", key)
	r, err := e.newRule(pattern, Func(keyValue), &options{callerSkip: 2})
	if err != nil {
		panic(err)
	}
	return r
}

func keyValue(m *Match, _ Vars) (string, error) {
	if v := m.Group("c1"); v != "" {
		return v, nil
	}
	if v := m.Group("unbracketed"); v != "" {
		return v, nil
	}
	return balancedContent(m.Group("bracketed")), nil
}

// balancedContent returns the interior of the brace group raw starts with.
func balancedContent(raw string) string {
	if !strings.HasPrefix(raw, "{") {
		return ""
	}
	level := 0
	for i, c := range raw {
		switch c {
		case '{':
			level++
		case '}':
			level--
		}
		if level == 0 {
			return raw[1:i]
		}
	}
	return ""
}
