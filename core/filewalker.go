package core

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude selects LaTeX sources when a directory is given.
const DefaultInclude = "**/*.tex"

// InputScope describes which documents to extract.
type InputScope struct {
	// Targets are files, directories or doublestar globs.
	Targets []string
	// Include filters files found under directories.
	Include []string
	Exclude []string
}

// ResolveInputs expands the targets into a sorted, duplicate-free list of
// files. Files named explicitly are kept even when they do not match
// Include; Exclude applies to everything.
func ResolveInputs(ctx context.Context, scope InputScope) ([]string, error) {
	include := scope.Include
	if len(include) == 0 {
		include = []string{DefaultInclude}
	}

	seen := make(map[string]struct{})
	add := func(path string) {
		path = filepath.Clean(path)
		if matchAny(path, scope.Exclude) {
			return
		}
		seen[path] = struct{}{}
	}

	for _, target := range scope.Targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(target)
		switch {
		case err == nil && info.IsDir():
			if err := walkDir(ctx, target, include, add); err != nil {
				return nil, err
			}
		case err == nil:
			add(target)
		case doublestar.ValidatePathPattern(target) && hasMeta(target):
			matches, err := doublestar.FilepathGlob(target, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %s: %w", target, err)
			}
			for _, m := range matches {
				add(m)
			}
		default:
			return nil, fmt.Errorf("cannot access path %s: %w", target, err)
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func walkDir(ctx context.Context, root string, include []string, add func(string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if matchAny(filepath.ToSlash(rel), include) {
			add(path)
		}
		return nil
	})
}

// matchAny tries each pattern against the path and, for patterns without a
// separator, against the base name.
func matchAny(path string, patterns []string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(pattern, filepath.Base(path)); ok {
				return true
			}
		}
	}
	return false
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// OutputPaths names the text and timing report written for input, in dir
// or next to the input when dir is empty.
func OutputPaths(input, dir string) (text, times string) {
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"_errers.txt"), filepath.Join(dir, stem+"_errers_times.csv")
}
