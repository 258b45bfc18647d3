package config

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/termfx/errers/internal/model"
)

func TestPrintResult(t *testing.T) {
	tests := []struct {
		name     string
		res      model.Result
		jsonOut  bool
		contains []string
	}{
		{
			name: "success with leftovers",
			res: model.Result{
				File: "a.tex", Output: "a_errers.txt", Success: true,
				InputBytes: 10, OutputBytes: 5, Duration: 1500 * time.Millisecond,
				Leftovers: map[string]int{`\foo`: 2, `\bar`: 1},
			},
			contains: []string{"✓ a.tex → a_errers.txt (10 → 5 bytes, 1.5s)", `3 LaTeX commands left: \bar (1), \foo (2)`},
		},
		{
			name:     "failure",
			res:      model.Result{File: "b.tex", Error: "bad", ErrorCode: model.ECEncoding},
			contains: []string{"✗ b.tex: bad (ERR_ENCODING)"},
		},
		{
			name:     "json",
			res:      model.Result{File: "c.tex", Success: true},
			jsonOut:  true,
			contains: []string{`"file":"c.tex"`, `"success":true`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintResult(&buf, &tt.res, tt.jsonOut)
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestPrintFatal(t *testing.T) {
	var buf bytes.Buffer
	PrintFatal(&buf, errors.New("boom"), false)
	assert.Equal(t, "Error: boom\n", buf.String())

	buf.Reset()
	PrintFatal(&buf, model.ErrConfig, true)
	assert.Contains(t, buf.String(), `"code":"ERR_CONFIG"`)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, []model.Result{{Success: true}, {Success: false}, {Success: true}})
	assert.Equal(t, "\n2 documents extracted, 1 failed\n", buf.String())
}

func TestUnifiedDiff(t *testing.T) {
	diff := UnifiedDiff("\\emph{a}\nb\n", "a\nb\n", "doc.tex", 1)
	assert.Contains(t, diff, "--- doc.tex")
	assert.Contains(t, diff, "+++ doc.tex (extracted)")
	assert.Contains(t, diff, "-\\emph{a}")
	assert.Contains(t, diff, "+a")
	assert.Empty(t, UnifiedDiff("same\n", "same\n", "doc.tex", 3))
}
