package backend

import (
	"fmt"
	"strings"
	"unicode"
)

// Translate rewrites the rule dialect into regexp2 syntax.
//
// Named groups written as (?P<name>...) become (?<name>...), (?P=name)
// becomes \k<name> and \Z becomes \z (absolute end of input). With atomic
// set, possessive quantifiers are rewritten as an atomic group around the
// quantified atom; without it they degrade to greedy quantifiers and atomic
// groups degrade to non-capturing groups.
func Translate(expr string, atomic bool) (string, error) {
	src := []rune(expr)
	out := make([]rune, 0, len(src)+len(src)/8)
	var groups []int // output offsets of open groups
	atom := -1       // output offset of the last complete atom

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\\':
			n := escapeLen(src, i)
			atom = len(out)
			if n == 2 && src[i+1] == 'Z' {
				out = append(out, '\\', 'z')
			} else {
				out = append(out, src[i:i+n]...)
			}
			i += n

		case c == '[':
			n := classLen(src, i)
			atom = len(out)
			out = append(out, src[i:i+n]...)
			i += n

		case c == '#':
			j := i
			for j < len(src) && src[j] != '\n' {
				j++
			}
			out = append(out, src[i:j]...)
			i = j

		case unicode.IsSpace(c):
			out = append(out, c)
			i++

		case c == '(':
			start := len(out)
			opener, n, kind, err := groupOpener(src, i, atomic)
			if err != nil {
				return "", err
			}
			out = append(out, []rune(opener)...)
			i += n
			switch kind {
			case groupOpen:
				groups = append(groups, start)
				atom = -1
			case groupAtom:
				atom = start
			case groupNone:
				atom = -1
			}

		case c == '|':
			out = append(out, c)
			i++
			atom = -1

		case c == ')':
			out = append(out, ')')
			i++
			if len(groups) > 0 {
				atom = groups[len(groups)-1]
				groups = groups[:len(groups)-1]
			} else {
				atom = -1
			}

		case c == '*' || c == '+' || c == '?' || (c == '{' && quantifierLen(src, i) > 0):
			n := 1
			if c == '{' {
				n = quantifierLen(src, i)
			}
			out = append(out, src[i:i+n]...)
			i += n
			if i < len(src) && src[i] == '?' {
				out = append(out, '?')
				i++
			} else if i < len(src) && src[i] == '+' {
				i++
				if atomic && atom >= 0 {
					wrapped := make([]rune, 0, len(out)+4)
					wrapped = append(wrapped, out[:atom]...)
					wrapped = append(wrapped, '(', '?', '>')
					wrapped = append(wrapped, out[atom:]...)
					wrapped = append(wrapped, ')')
					out = wrapped
				}
			}
			atom = -1

		default:
			atom = len(out)
			out = append(out, c)
			i++
		}
	}

	return string(out), nil
}

type groupKind int

const (
	groupOpen groupKind = iota // opens a group closed later by ')'
	groupAtom                  // complete atom such as a back-reference
	groupNone                  // complete non-atom such as inline flags
)

// groupOpener translates the construct starting at src[i] == '('.
func groupOpener(src []rune, i int, atomic bool) (string, int, groupKind, error) {
	rest := string(src[i:min(len(src), i+4)])
	switch {
	case strings.HasPrefix(rest, "(?P<"):
		return "(?<", 4, groupOpen, nil
	case strings.HasPrefix(rest, "(?P="):
		j := i + 4
		for j < len(src) && src[j] != ')' {
			j++
		}
		if j == len(src) {
			return "", 0, 0, fmt.Errorf("missing ) after group reference at position %d", i)
		}
		return `\k<` + string(src[i+4:j]) + ">", j + 1 - i, groupAtom, nil
	case strings.HasPrefix(rest, "(?P>"), strings.HasPrefix(rest, "(?&"),
		strings.HasPrefix(rest, "(?R)"):
		return "", 0, 0, fmt.Errorf("%w: recursion at position %d", ErrUnsupported, i)
	case strings.HasPrefix(rest, "(?>"):
		if atomic {
			return "(?>", 3, groupOpen, nil
		}
		return "(?:", 3, groupOpen, nil
	case strings.HasPrefix(rest, "(?#"):
		j := i
		for j < len(src) && src[j] != ')' {
			j++
		}
		return string(src[i:min(len(src), j+1)]), min(len(src), j+1) - i, groupNone, nil
	case strings.HasPrefix(rest, "(?<="), strings.HasPrefix(rest, "(?<!"):
		return rest, 4, groupOpen, nil
	case strings.HasPrefix(rest, "(?<"), strings.HasPrefix(rest, "(?'"):
		end := '>'
		if src[i+2] == '\'' {
			end = '\''
		}
		j := i + 3
		for j < len(src) && src[j] != end {
			j++
		}
		if j == len(src) {
			return "", 0, 0, fmt.Errorf("unterminated group name at position %d", i)
		}
		return string(src[i : j+1]), j + 1 - i, groupOpen, nil
	case strings.HasPrefix(rest, "(?:"), strings.HasPrefix(rest, "(?="), strings.HasPrefix(rest, "(?!"):
		return rest[:3], 3, groupOpen, nil
	case strings.HasPrefix(rest, "(?("):
		// Conditional: the test group that follows is scanned as a group.
		return "(?", 2, groupOpen, nil
	case strings.HasPrefix(rest, "(?"):
		j := i + 2
		for j < len(src) && strings.ContainsRune("imnsx-", src[j]) {
			j++
		}
		if j < len(src) && src[j] == ')' {
			return string(src[i : j+1]), j + 1 - i, groupNone, nil
		}
		if j < len(src) && src[j] == ':' {
			return string(src[i : j+1]), j + 1 - i, groupOpen, nil
		}
		return "(?", 2, groupOpen, nil
	default:
		return "(", 1, groupOpen, nil
	}
}

// escapeLen returns the length of the escape sequence at src[i] == '\\'.
func escapeLen(src []rune, i int) int {
	if i+1 >= len(src) {
		return 1
	}
	switch src[i+1] {
	case 'p', 'P':
		if i+2 < len(src) && src[i+2] == '{' {
			return runLen(src, i, '}')
		}
	case 'k':
		if i+2 < len(src) && src[i+2] == '<' {
			return runLen(src, i, '>')
		}
	case 'x':
		return min(len(src)-i, 4)
	case 'u':
		return min(len(src)-i, 6)
	case 'c':
		return min(len(src)-i, 3)
	}
	if src[i+1] >= '1' && src[i+1] <= '9' {
		j := i + 2
		for j < len(src) && src[j] >= '0' && src[j] <= '9' {
			j++
		}
		return j - i
	}
	return 2
}

// runLen returns the length from src[i] through the next end rune.
func runLen(src []rune, i int, end rune) int {
	j := i
	for j < len(src) && src[j] != end {
		j++
	}
	if j == len(src) {
		return j - i
	}
	return j + 1 - i
}

// classLen returns the length of the character class at src[i] == '['.
func classLen(src []rune, i int) int {
	j := i + 1
	if j < len(src) && src[j] == '^' {
		j++
	}
	if j < len(src) && src[j] == ']' {
		j++
	}
	for j < len(src) {
		switch src[j] {
		case '\\':
			j += 2
			continue
		case '[':
			if src[j-1] == '-' {
				j += classLen(src, j)
				continue
			}
		case ']':
			return j + 1 - i
		}
		j++
	}
	return len(src) - i
}

// quantifierLen returns the length of a {n}, {n,} or {n,m} quantifier at
// src[i], or 0 when the brace is a literal.
func quantifierLen(src []rune, i int) int {
	j := i + 1
	digits := func() int {
		k := j
		for j < len(src) && src[j] >= '0' && src[j] <= '9' {
			j++
		}
		return j - k
	}
	if digits() == 0 {
		return 0
	}
	if j < len(src) && src[j] == ',' {
		j++
		digits()
	}
	if j < len(src) && src[j] == '}' {
		return j + 1 - i
	}
	return 0
}
