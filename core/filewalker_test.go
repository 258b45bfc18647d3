package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
}

func TestResolveInputs(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "main.tex", "notes.txt", "ch/one.tex", "ch/two.tex", "build/main.tex")
	join := func(name string) string { return filepath.Join(root, filepath.FromSlash(name)) }

	tests := []struct {
		name  string
		scope InputScope
		want  []string
	}{
		{
			name:  "directory",
			scope: InputScope{Targets: []string{root}},
			want:  []string{join("build/main.tex"), join("ch/one.tex"), join("ch/two.tex"), join("main.tex")},
		},
		{
			name:  "directory with exclude",
			scope: InputScope{Targets: []string{root}, Exclude: []string{"**/build/**"}},
			want:  []string{join("ch/one.tex"), join("ch/two.tex"), join("main.tex")},
		},
		{
			name:  "explicit file ignores include",
			scope: InputScope{Targets: []string{join("notes.txt"), join("notes.txt")}},
			want:  []string{join("notes.txt")},
		},
		{
			name:  "glob",
			scope: InputScope{Targets: []string{filepath.Join(root, "ch", "*.tex")}},
			want:  []string{join("ch/one.tex"), join("ch/two.tex")},
		},
		{
			name:  "custom include",
			scope: InputScope{Targets: []string{root}, Include: []string{"*.txt"}},
			want:  []string{join("notes.txt")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveInputs(context.Background(), tt.scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveInputsErrors(t *testing.T) {
	_, err := ResolveInputs(context.Background(), InputScope{Targets: []string{filepath.Join(t.TempDir(), "missing.tex")}})
	assert.ErrorContains(t, err, "cannot access path")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ResolveInputs(ctx, InputScope{Targets: []string{t.TempDir()}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOutputPaths(t *testing.T) {
	text, times := OutputPaths(filepath.Join("papers", "draft.tex"), "")
	assert.Equal(t, filepath.Join("papers", "draft_errers.txt"), text)
	assert.Equal(t, filepath.Join("papers", "draft_errers_times.csv"), times)

	text, _ = OutputPaths("draft.tex", "out")
	assert.Equal(t, filepath.Join("out", "draft_errers.txt"), text)
}
