package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/termfx/errers/internal/engine"
)

// census counts the LaTeX commands left in text.
func census(eng *engine.Engine, text string) (map[string]int, error) {
	p, err := eng.Plain().NewPattern(`\\(?:[a-zA-Z]++|.)`, engine.WithScope("Extraction"))
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	err = p.Iterate(text, func(m *engine.Match) error {
		counts[m.Text()]++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, nil
	}
	return counts, nil
}

// leftoverMessage explains the remaining commands and how they might be
// eliminated.
func leftoverMessage(counts map[string]int, opts Options, noLog bool) string {
	var b strings.Builder
	b.WriteString("LaTeX commands left after extraction. ")

	var missing []string
	if !opts.Auto {
		missing = append(missing, "automatic")
	}
	if !opts.Default {
		missing = append(missing, "default")
	}
	if !opts.Local && opts.LocalRules != nil {
		missing = append(missing, "local")
	}

	played := "played"
	if noLog {
		b.WriteString("The LaTeX log file being unavailable may have contributed to this, " +
			"in which case the issue could be resolved by compiling the LaTeX document " +
			`before running the extraction or by adding \usepackage commands for ` +
			"packages that are loaded indirectly by other packages. ")
		played = "also played"
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "The fact that %s rules were not applied may have %s a role in this, "+
			"and you may want to re-run the extraction with those rules activated. ",
			joinAnd(missing), played)
	}

	verb, please := "would be", "Please"
	if len(missing) > 0 || noLog {
		verb, please = "could also be", "If so, please"
	}
	fmt.Fprintf(&b, "Additional substitution rules %s required to eliminate the remaining "+
		"commands. %s consider proposing new rules for inclusion in the next version. ", verb, please)

	commands := make([]string, 0, len(counts))
	for c := range counts {
		commands = append(commands, c)
	}
	sort.Strings(commands)
	parts := make([]string, len(commands))
	for i, c := range commands {
		parts[i] = fmt.Sprintf("%q (%d)", c, counts[c])
	}
	fmt.Fprintf(&b, "Remaining commands (count in parentheses): %s.", strings.Join(parts, ", "))
	return b.String()
}

func joinAnd(items []string) string {
	if len(items) == 1 {
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
