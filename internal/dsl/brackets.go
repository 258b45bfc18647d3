package dsl

import (
	"strings"

	"github.com/termfx/errers/internal/backend"
)

// GroupScheme versions the capture groups emitted for bracket placeholders:
// cN for the content, cN_ob for the optional opening brace of %C and, with
// balanced matching, cN_depth for the nesting stack. Refer to them by name.
const GroupScheme = 2

// Bracket describes one bracket pair.
type Bracket struct {
	Name  string // label used in pattern comments
	Open  string // unescaped opening bracket
	Close string // unescaped closing bracket
}

const notEscaped = `(?<!\\)`

var (
	Curly  = Bracket{Name: "CURLY", Open: notEscaped + `\{`, Close: notEscaped + `\}`}
	Round  = Bracket{Name: "ROUND", Open: notEscaped + `\(`, Close: notEscaped + `\)`}
	Square = Bracket{Name: "SQUARE", Open: notEscaped + `\[`, Close: notEscaped + `\]`}
)

// Neither matches one character that is not a bracket of the pair.
func (b Bracket) Neither() string {
	return `(?>(?!` + b.Open + `)(?!` + b.Close + `)(?s:.))`
}

// BracketMatcher renders the patterns behind bracket placeholders.
type BracketMatcher interface {
	// Pair matches a bracket pair and captures its content in group.
	Pair(b Bracket, group string) string
	// Argument matches a curly pair, a command name or one character.
	Argument(group string) string
}

// MatcherFor picks the strategy supported by a backend.
func MatcherFor(caps backend.Capabilities) BracketMatcher {
	if caps.Recursion {
		return RecursiveMatcher{}
	}
	return BoundedDepthMatcher{}
}

func render(template string, b Bracket, group string) string {
	return strings.NewReplacer(
		"${B1}", group,
		"$B1", group,
		"$name", b.Name,
		"$ob", b.Open,
		"$cb", b.Close,
		"$nb", b.Neither(),
	).Replace(template)
}

// RecursiveMatcher matches brackets nested to any depth with a balancing
// group that pushes on every nested opening bracket and pops on every nested
// closing one.
type RecursiveMatcher struct{}

const recursivePair = `
                          # $name-BRACKET ARGUMENT
(?>                       # Atomic group for quantifiers
    %n                    # Drop white space (one newline max)
    $ob                   # Opening bracket
        (?<$B1>           # Capturing group
            (?:
                $nb++
                          # Non-brackets
                |         # Or
                $ob(?<${B1}_depth>)
                          # Nested opening bracket
                |         # Or
                $cb(?<-${B1}_depth>)
                          # Nested closing bracket
            )*+
            (?(${B1}_depth)(?!))
                          # Nesting must be balanced
        )
    $cb                   # Closing bracket
)
`

const recursiveArgument = `
                          # $name-BRACKET ARGUMENT
(?>                       # Atomic group for quantifiers
    %n                    # Drop white space (one newline max)
    (?<${B1}_ob>$ob)?+
                          # Opening bracket (optional)
        (?<$B1>           # Capturing group
            (?<=$ob)      # Case 1: bracketed content
            (?:
                $nb++
                          # Non-brackets
                |         # Or
                $ob(?<${B1}_depth>)
                          # Nested opening bracket
                |         # Or
                $cb(?<-${B1}_depth>)
                          # Nested closing bracket
            )*+
            (?(${B1}_depth)(?!))
                          # Nesting must be balanced
            |             # Or
            (?<!$ob)      # Case 2: command name
            %m
            |             # Or
            (?<!$ob)      # Case 3: single character
            (?![\ \t\n])$nb
        )
    (?(${B1}_ob)$cb)
                          # Closing bracket (case 1 only)
)
`

func (RecursiveMatcher) Pair(b Bracket, group string) string {
	return render(recursivePair, b, group)
}

func (RecursiveMatcher) Argument(group string) string {
	return render(recursiveArgument, Curly, group)
}

// BoundedDepthMatcher matches one extra nesting level. A lookahead captures
// the content and a back-reference consumes it, which keeps the match from
// backtracking into the content.
type BoundedDepthMatcher struct{}

const boundedPair = `
                          # $name-BRACKET ARGUMENT
(?:                       # Group for quantifiers
    %n                    # Drop white space (one newline max)
    $ob                   # Opening bracket
        (?=               # Lookahead for atomicity
            (?<$B1>       # Capturing group
                (?:
                    $nb++
                          # Non-brackets
                    |     # Or
                    $ob $nb*+ $cb
                          # One nested pair
                )*+
            )
        )
        \k<$B1>           # Consume the lookahead text
    $cb                   # Closing bracket
)
`

const boundedArgument = `
                          # $name-BRACKET ARGUMENT
(?:                       # Group for quantifiers
    %n                    # Drop white space (one newline max)
    (?<${B1}_ob>$ob)?+
                          # Opening bracket (optional)
        (?=               # Lookahead for atomicity
            (?<$B1>       # Capturing group
                (?<=$ob)  # Case 1: bracketed content
                (?:
                    $nb++
                          # Non-brackets
                    |     # Or
                    $ob $nb*+ $cb
                          # One nested pair
                )*+
                |         # Or
                (?<!$ob)  # Case 2: command name
                %m
                |         # Or
                (?<!$ob)  # Case 3: single character
                (?![\ \t\n])$nb
            )
        )
        \k<$B1>           # Consume the lookahead text
    (?(${B1}_ob)$cb)
                          # Closing bracket (case 1 only)
)
`

func (BoundedDepthMatcher) Pair(b Bracket, group string) string {
	return render(boundedPair, b, group)
}

func (BoundedDepthMatcher) Argument(group string) string {
	return render(boundedArgument, Curly, group)
}
