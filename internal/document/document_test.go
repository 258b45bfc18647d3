package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/errers/internal/backend"
	"github.com/termfx/errers/internal/dsl"
	"github.com/termfx/errers/internal/engine"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := dsl.NewEngine(backend.NewFull(5*time.Second), engine.Config{})
	require.NoError(t, err)
	return eng
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

const sample = `\documentclass[12pt]{drdc-report}
\usepackage{amsmath, graphicx}
% \usepackage{hidden}
\usepackage[T1]{fontenc}
\bibliographystyle{drdc-plain}
% Rule(r'\\mytitle%C', r'\n\g<c1>\n')
% Rule(r'foo', r'bar', iterative=True,
%      phase='cleanup')
% Rule(r'x', r'y', phase='bogus')
\mytitle{Hello}
`

func TestFromString(t *testing.T) {
	d, err := FromString(newEngine(t), sample)
	require.NoError(t, err)

	assert.Equal(t, "", d.Path())
	assert.Equal(t, MemoryFile, d.FileName())
	assert.Equal(t, DefaultEncoding, d.Encoding())
	assert.False(t, d.HasLog)

	t.Run("comments view", func(t *testing.T) {
		assert.Equal(t, "\n\n \\usepackage{hidden}\n\n\n", d.Comments[:len("\n\n \\usepackage{hidden}\n\n\n")])
		assert.Contains(t, d.Comments, " Rule(r'foo', r'bar', iterative=True,\n      phase='cleanup')")
		assert.NotContains(t, d.Comments, `\documentclass`)
	})

	t.Run("classes", func(t *testing.T) {
		classes, err := d.DocumentClasses()
		require.NoError(t, err)
		assert.Equal(t, []string{"drdc_report"}, classes)
	})

	t.Run("packages", func(t *testing.T) {
		packages, err := d.Packages()
		require.NoError(t, err)
		assert.Equal(t, []string{"amsmath", "graphicx", "fontenc"}, packages)
	})

	t.Run("bibliography style", func(t *testing.T) {
		style, ok, err := d.BibliographyStyle()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "drdc_plain", style)
	})

	t.Run("file insertion unavailable", func(t *testing.T) {
		content, err := d.ReadFile("chapter", ".tex", nil)
		require.NoError(t, err)
		assert.Empty(t, content)
	})
}

func TestEmbeddedRules(t *testing.T) {
	d, err := FromString(newEngine(t), sample)
	require.NoError(t, err)

	lists, err := d.EmbeddedRules()
	require.NoError(t, err)
	require.Len(t, lists, len(engine.Phases))

	main := lists[engine.PhaseMain]
	require.Equal(t, 1, main.Len())
	rule := main.Items()[0].(*engine.Rule)
	assert.False(t, rule.Iterative())
	assert.Equal(t, engine.Location{File: MemoryFile, Line: 6}, rule.Location())

	out, err := main.Sub(`\mytitle{Hello} world`, engine.Args{})
	require.NoError(t, err)
	assert.Equal(t, "\nHello\n world", out)

	cleanup := lists[engine.PhaseCleanup]
	require.Equal(t, 1, cleanup.Len())
	assert.True(t, cleanup.Items()[0].Iterative())

	for _, p := range []engine.Phase{engine.PhaseLocation, engine.PhaseInsertion, engine.PhaseRemoval, engine.PhaseSetup} {
		assert.Zero(t, lists[p].Len(), p.String())
	}
}

func TestEmbeddedRulesQuotes(t *testing.T) {
	d, err := FromString(newEngine(t), "% Rule(\"a'b\", '''c\"d''')\n")
	require.NoError(t, err)

	lists, err := d.EmbeddedRules()
	require.NoError(t, err)
	out, err := lists[engine.PhaseMain].Sub(`a'b`, engine.Args{})
	require.NoError(t, err)
	assert.Equal(t, `c"d`, out)
}

func TestOpen(t *testing.T) {
	t.Run("declared encoding", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "doc.tex", []byte("\\usepackage[latin1]{inputenc}\r\nCaf\xe9\r\n"))

		d, err := Open(newEngine(t), path)
		require.NoError(t, err)
		assert.Equal(t, "latin1", d.Encoding())
		assert.Equal(t, "\\usepackage[latin1]{inputenc}\nCafé\n", d.Content)
		assert.Equal(t, "doc.tex", d.FileName())
		assert.Equal(t, "doc", d.Stem())
	})

	t.Run("encoding mismatch names the file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "doc.tex", []byte("Caf\xe9\n"))

		_, err := Open(newEngine(t), path)
		var encErr *EncodingError
		require.True(t, errors.As(err, &encErr))
		assert.Equal(t, "doc.tex", encErr.File)
		assert.Equal(t, 3, encErr.Offset)
		assert.Contains(t, err.Error(), "doc.tex")
	})

	t.Run("unknown encoding", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "doc.tex", []byte("\\usepackage[klingon]{inputenc}\n"))

		_, err := Open(newEngine(t), path)
		var encErr *EncodingError
		assert.True(t, errors.As(err, &encErr))
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := Open(newEngine(t), filepath.Join(t.TempDir(), "nope.tex"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLog(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.tex", []byte("\\documentclass{article}\n\\usepackage{url}\n"))
	writeFile(t, dir, "doc.log", []byte("Document Class: drdc-report 2020/01/01\n"+
		"Package: dtk-logos 2019/06/28\n(hyperref.sty\nPackage: hyperref 2021/02/27\n"))

	d, err := Open(newEngine(t), path)
	require.NoError(t, err)
	require.True(t, d.HasLog)

	classes, err := d.DocumentClasses()
	require.NoError(t, err)
	assert.Equal(t, []string{"drdc_report"}, classes)

	packages, err := d.Packages()
	require.NoError(t, err)
	assert.Equal(t, []string{"dtk_logos", "hyperref"}, packages)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.tex", []byte("main\n"))
	writeFile(t, dir, "chapter.tex", []byte("X marks\n"))
	writeFile(t, dir, "refs.bbl", []byte("bib\n"))
	writeFile(t, dir, "bad.tex", []byte("\xff\n"))

	eng := newEngine(t)
	d, err := Open(eng, path)
	require.NoError(t, err)
	assert.Equal(t, "main\n", d.Content)

	tests := []struct {
		name     string
		rel      string
		ext      string
		expected string
	}{
		{name: "default extension", rel: "chapter", ext: ".tex", expected: "X marks\n"},
		{name: "explicit extension", rel: "refs.bbl", ext: ".tex", expected: "bib\n"},
		{name: "missing file", rel: "appendix", ext: ".tex", expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := d.ReadFile(tt.rel, tt.ext, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, content)
		})
	}

	t.Run("location rules get the file name", func(t *testing.T) {
		location := engine.NewRuleList(eng.MustRule(`X`, engine.Func(func(_ *engine.Match, vars engine.Vars) (string, error) {
			return vars["file_name"], nil
		})))
		content, err := d.ReadFile("chapter", ".tex", location)
		require.NoError(t, err)
		assert.Equal(t, "chapter.tex marks\n", content)
	})

	t.Run("encoding error", func(t *testing.T) {
		_, err := d.ReadFile("bad", ".tex", nil)
		var encErr *EncodingError
		require.True(t, errors.As(err, &encErr))
		assert.Equal(t, "bad.tex", encErr.File)
	})
}

func TestSanitize(t *testing.T) {
	d, err := FromString(newEngine(t), "")
	require.NoError(t, err)
	for in, want := range map[string]string{"dtk-logos": "dtk_logos", "drdc.plain": "drdc_plain", "amsmath": "amsmath"} {
		got, err := d.Sanitize(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
