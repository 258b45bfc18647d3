package engine

import (
	"strconv"
	"strings"
	"unicode"
)

// Vars carries named parameters for replacement functions.
type Vars map[string]string

// ReplaceFunc computes the replacement text of one match.
type ReplaceFunc func(m *Match, vars Vars) (string, error)

type replacementKind int

const (
	kindLiteral replacementKind = iota
	kindFunc
	kindGenerator
)

// Replacement is the right-hand side of a rule: a template, a function or a
// generator that yields a fresh function for every substitution round.
type Replacement struct {
	kind     replacementKind
	template string
	fn       ReplaceFunc
	gen      func() ReplaceFunc
	display  string
}

// Literal is a template with group references: \g<name>, \g<N>, \N. The
// escapes \n, \t, \r, \f, \v, \a, \b and \\ are recognized; other escapes of
// non-letters are kept verbatim.
func Literal(template string) Replacement {
	return Replacement{kind: kindLiteral, template: template}
}

// Func replaces each match with the result of fn.
func Func(fn ReplaceFunc) Replacement {
	return Replacement{kind: kindFunc, fn: fn}
}

// Text replaces each match with the result of fn, which cannot fail.
func Text(fn func(*Match) string) Replacement {
	return Replacement{kind: kindFunc, fn: func(m *Match, _ Vars) (string, error) {
		return fn(m), nil
	}}
}

// Generator calls gen once per substitution round.
func Generator(gen func() ReplaceFunc) Replacement {
	return Replacement{kind: kindGenerator, gen: gen}
}

func (r Replacement) callable() bool { return r.kind != kindLiteral }

// WithDisplay returns r shown as text in rule descriptions.
func (r Replacement) WithDisplay(text string) Replacement {
	r.display = text
	return r
}

func (r Replacement) String() string {
	if r.display != "" {
		return quote(r.display)
	}
	if r.kind == kindLiteral {
		return quote(r.template)
	}
	return "<function>"
}

func (r Replacement) resolve(p *Pattern) (ReplaceFunc, error) {
	switch r.kind {
	case kindFunc:
		return r.fn, nil
	case kindGenerator:
		return r.gen(), nil
	}
	pieces, err := parseTemplate(r.template, p)
	if err != nil {
		return nil, err
	}
	return func(m *Match, _ Vars) (string, error) {
		var b strings.Builder
		for _, piece := range pieces {
			switch {
			case piece.name != "":
				b.WriteString(m.Group(piece.name))
			case piece.group >= 0:
				b.WriteString(m.Index(piece.group))
			default:
				b.WriteString(piece.text)
			}
		}
		return b.String(), nil
	}, nil
}

type templatePiece struct {
	text  string
	name  string
	group int
}

var templateEscapes = map[rune]string{
	'n': "\n", 't': "\t", 'r': "\r", 'f': "\f", 'v': "\v", 'a': "\a", 'b': "\b", '\\': `\`,
}

// parseTemplate splits a template into literal text and group references,
// validated against the groups of p.
func parseTemplate(template string, p *Pattern) ([]templatePiece, error) {
	src := []rune(template)
	var pieces []templatePiece
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			pieces = append(pieces, templatePiece{text: lit.String(), group: -1})
			lit.Reset()
		}
	}
	fail := func(pos int, msg string) ([]templatePiece, error) {
		return nil, &TemplateError{Template: template, Pos: pos, Msg: msg}
	}

	for i := 0; i < len(src); i++ {
		if src[i] != '\\' {
			lit.WriteRune(src[i])
			continue
		}
		if i+1 == len(src) {
			return fail(i, "bad escape (end of template)")
		}
		c := src[i+1]
		switch {
		case c == 'g':
			if i+2 >= len(src) || src[i+2] != '<' {
				return fail(i+2, "missing <")
			}
			end := i + 3
			for end < len(src) && src[end] != '>' {
				end++
			}
			if end == len(src) {
				return fail(i+3, "missing >, unterminated name")
			}
			ref := string(src[i+3 : end])
			if ref == "" {
				return fail(i+3, "missing group name")
			}
			if !p.expr.HasGroup(ref) {
				return fail(i+3, "unknown group name '"+ref+"'")
			}
			flush()
			if n, err := strconv.Atoi(ref); err == nil {
				pieces = append(pieces, templatePiece{group: n})
			} else {
				pieces = append(pieces, templatePiece{name: ref, group: -1})
			}
			i = end
		case c >= '1' && c <= '9':
			end := i + 2
			if end < len(src) && src[end] >= '0' && src[end] <= '9' {
				end++
			}
			ref := string(src[i+1 : end])
			if !p.expr.HasGroup(ref) {
				return fail(i+1, "invalid group reference "+ref)
			}
			n, _ := strconv.Atoi(ref)
			flush()
			pieces = append(pieces, templatePiece{group: n})
			i = end - 1
		case c == '0':
			lit.WriteRune(0)
			i++
		default:
			if esc, ok := templateEscapes[c]; ok {
				lit.WriteString(esc)
			} else if c < unicode.MaxASCII && unicode.IsLetter(c) {
				return fail(i, "bad escape \\"+string(c))
			} else {
				lit.WriteRune('\\')
				lit.WriteRune(c)
			}
			i++
		}
	}
	flush()
	return pieces, nil
}
