// Package backend adapts github.com/dlclark/regexp2 into the two matching
// configurations the rewriting engine runs on.
//
// The baseline backend understands the classic dialect only: no atomic
// groups, no possessive quantifiers and no time budget. The full backend adds
// atomic groups, possessive quantifiers (rewritten into atomic groups),
// balancing groups for arbitrary-depth bracket matching and a per-call
// matching deadline.
package backend

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/patrickmn/go-cache"
)

// Options are the compile flags shared by both backends.
const Options = regexp2.Multiline | regexp2.IgnorePatternWhitespace

const (
	NameBaseline = "baseline"
	NameFull     = "full"
)

// ErrTimeout reports that a single matching call exceeded the time budget.
var ErrTimeout = errors.New("matching time budget exceeded")

// ErrUnsupported reports a construct the backend cannot express.
var ErrUnsupported = errors.New("unsupported pattern construct")

// Capabilities describes what a backend can express.
type Capabilities struct {
	Atomic    bool // atomic groups and possessive quantifiers
	Recursion bool // balanced brackets at arbitrary depth
	Timeout   bool // bounded-time matching
}

// Backend compiles pattern sources into executable expressions.
type Backend interface {
	Name() string
	Capabilities() Capabilities
	Timeout() time.Duration
	Compile(expr string) (*Expr, error)
}

type regexpBackend struct {
	name    string
	caps    Capabilities
	timeout time.Duration
	cache   *cache.Cache
}

// NewBaseline returns the classic-dialect backend.
func NewBaseline() Backend {
	return &regexpBackend{
		name:  NameBaseline,
		cache: cache.New(30*time.Minute, 10*time.Minute),
	}
}

// NewFull returns the extended backend. A zero timeout disables the budget.
func NewFull(timeout time.Duration) Backend {
	return &regexpBackend{
		name:    NameFull,
		caps:    Capabilities{Atomic: true, Recursion: true, Timeout: timeout > 0},
		timeout: timeout,
		cache:   cache.New(30*time.Minute, 10*time.Minute),
	}
}

// New resolves a backend by name. "re" and "regex" are accepted as aliases.
func New(name string, timeout time.Duration) (Backend, error) {
	switch strings.ToLower(name) {
	case NameBaseline, "re":
		return NewBaseline(), nil
	case NameFull, "regex", "":
		return NewFull(timeout), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

func (b *regexpBackend) Name() string               { return b.name }
func (b *regexpBackend) Capabilities() Capabilities { return b.caps }
func (b *regexpBackend) Timeout() time.Duration     { return b.timeout }

func (b *regexpBackend) Compile(expr string) (*Expr, error) {
	translated, err := Translate(expr, b.caps.Atomic)
	if err != nil {
		return nil, err
	}

	if cached, ok := b.cache.Get(translated); ok {
		return &Expr{source: expr, translated: translated, re: cached.(*regexp2.Regexp)}, nil
	}

	re, err := regexp2.Compile(translated, Options)
	if err != nil {
		return nil, err
	}
	if b.timeout > 0 {
		re.MatchTimeout = b.timeout
	}
	b.cache.Set(translated, re, cache.DefaultExpiration)

	return &Expr{source: expr, translated: translated, re: re}, nil
}

// wrapRunError maps regexp2 deadline errors onto ErrTimeout.
func wrapRunError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "match timeout") {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
