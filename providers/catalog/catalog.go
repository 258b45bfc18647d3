package catalog

import (
	"sort"
	"strings"
	"sync"
)

// Entry describes one registered provider.
type Entry struct {
	Namespace string
	Kind      string
	Name      string
	Phase     string
}

// Subject is the LaTeX-side name the entry applies to, such as
// "package dtk_logos" or "core".
func (e Entry) Subject() string {
	if e.Name == "" {
		return e.Kind
	}
	return e.Kind + " " + e.Name
}

var (
	mu     sync.RWMutex
	byName = make(map[string][]Entry)
)

// Register stores provider metadata for listings. Registering the same
// entry twice keeps a single copy.
func Register(e Entry) {
	if e.Kind == "" || e.Phase == "" {
		return
	}
	e.Name = strings.ToLower(strings.TrimSpace(e.Name))

	mu.Lock()
	defer mu.Unlock()

	for _, existing := range byName[e.Name] {
		if existing == e {
			return
		}
	}
	byName[e.Name] = append(byName[e.Name], e)
}

// Lookup returns the entries for a class, package or style name.
func Lookup(name string) []Entry {
	mu.RLock()
	defer mu.RUnlock()
	entries := append([]Entry(nil), byName[strings.ToLower(name)]...)
	sortEntries(entries)
	return entries
}

// Entries returns every registered entry sorted by namespace, kind, name
// and phase.
func Entries() []Entry {
	mu.RLock()
	defer mu.RUnlock()

	var entries []Entry
	for _, list := range byName {
		entries = append(entries, list...)
	}
	sortEntries(entries)
	return entries
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Phase < b.Phase
	})
}
