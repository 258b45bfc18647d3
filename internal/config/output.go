package config

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/termfx/errers/internal/model"
)

// PrintResult reports one extracted document on w.
func PrintResult(w io.Writer, res *model.Result, jsonOut bool) {
	if jsonOut {
		b, err := json.Marshal(res)
		if err != nil {
			fmt.Fprintf(w, "Error converting result to JSON: %v\n", err)
			return
		}
		fmt.Fprintln(w, string(b))
		return
	}

	if !res.Success {
		fmt.Fprintf(w, "✗ %s: %s (%s)\n", res.File, res.Error, res.ErrorCode)
		return
	}
	fmt.Fprintf(w, "✓ %s → %s (%d → %d bytes, %s)\n",
		res.File, res.Output, res.InputBytes, res.OutputBytes, res.Duration.Round(1e6))
	if len(res.Leftovers) > 0 {
		fmt.Fprintf(w, "  %d LaTeX commands left: %s\n", total(res.Leftovers), leftoverList(res.Leftovers))
	}
}

// PrintFatal reports an error that stopped the command.
func PrintFatal(w io.Writer, err error, jsonOut bool) {
	if jsonOut {
		fmt.Fprintln(w, model.Wrap("extraction failed", err).JSON())
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// PrintSummary prints totals over every document.
func PrintSummary(w io.Writer, results []model.Result) {
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	fmt.Fprintf(w, "\n%d documents extracted, %d failed\n", len(results)-failed, failed)
}

// UnifiedDiff renders the changes from a to b.
func UnifiedDiff(a, b, name string, context int) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: name,
		ToFile:   name + " (extracted)",
		Context:  context,
	})
	if err != nil {
		return ""
	}
	return diff
}

func total(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}

func leftoverList(counts map[string]int) string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s (%d)", name, counts[name])
	}
	return strings.Join(parts, ", ")
}
