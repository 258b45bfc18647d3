package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestExtractStdout(t *testing.T) {
	doc := writeDoc(t, t.TempDir(), "doc.tex", `\emph{bold} text`)

	code, stdout, _ := execute(t, "--no-history", "--stdout", doc)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "bold text")
	assert.NotContains(t, stdout, `\emph`)
}

func TestExtractWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "paper.tex", "Hello \\emph{world}\n")
	outDir := filepath.Join(dir, "out")

	code, stdout, _ := execute(t, "extract", "--no-history", "-o", outDir, doc)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "✓ "+doc)

	text, err := os.ReadFile(filepath.Join(outDir, "paper_errers.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "Hello world")

	report, err := os.ReadFile(filepath.Join(outDir, "paper_errers_times.csv"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(report, []byte("File,Line,Scope,")))
}

func TestExtractDiff(t *testing.T) {
	doc := writeDoc(t, t.TempDir(), "doc.tex", "\\emph{a}\n")

	code, stdout, _ := execute(t, "--no-history", "--diff", "--stdout", doc)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "-\\emph{a}")
	assert.Contains(t, stdout, "+a")
}

func TestExtractFailures(t *testing.T) {
	dir := t.TempDir()
	bad := writeDoc(t, dir, "bad.tex", "Caf\xe9\n")

	code, stdout, _ := execute(t, "--no-history", "--json", bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, `"error_code":"ERR_ENCODING"`)

	code, _, stderr := execute(t, "--no-history", filepath.Join(dir, "missing.tex"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "cannot access path")

	code, _, stderr = execute(t, "--no-history", "--backend", "pcre", bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown backend")
}

func TestRunsHistory(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "doc.tex", `\emph{x}`)
	dbPath := filepath.Join(dir, "history", "runs.db")

	code, _, _ := execute(t, "--db", dbPath, "--stdout", doc)
	require.Equal(t, 0, code)

	code, stdout, _ := execute(t, "runs", "--db", dbPath)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "succeeded")
	assert.Contains(t, stdout, doc)

	code, _, stderr := execute(t, "runs", "show", "--db", dbPath, "no-such-run")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "run not found")
}

func TestRulesCommand(t *testing.T) {
	code, stdout, _ := execute(t, "rules", "natbib")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "package natbib")
	assert.Contains(t, stdout, "standard")

	code, _, stderr := execute(t, "rules", "no-such-package")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `no rules for "no-such-package"`)
}
