// Package logging wires the four diagnostic channels of an extraction run.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Channel names, also used as the "channel" attribute of every record.
const (
	ChannelLog      = "log"
	ChannelPatterns = "patterns"
	ChannelSteps    = "steps"
	ChannelTrace    = "trace"
)

// Channels groups the independent diagnostic streams. Log carries warnings
// and errors for the user; Patterns dumps expanded patterns; Steps records
// every effective substitution round; Trace records pattern applications.
type Channels struct {
	Log      *slog.Logger
	Patterns *slog.Logger
	Steps    *slog.Logger
	Trace    *slog.Logger
}

// Config selects the enabled channels and their sink.
type Config struct {
	Level    slog.Level
	Output   io.Writer
	JSON     bool
	Patterns bool
	Steps    bool
	Trace    bool
}

// New builds the channels described by cfg.
func New(cfg Config) Channels {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	handler := func(level slog.Level) slog.Handler {
		opts := &slog.HandlerOptions{Level: level}
		if cfg.JSON {
			return slog.NewJSONHandler(out, opts)
		}
		return slog.NewTextHandler(out, opts)
	}
	channel := func(name string, enabled bool) *slog.Logger {
		if !enabled {
			return slog.New(slog.DiscardHandler)
		}
		return slog.New(handler(slog.LevelDebug)).With("channel", name)
	}

	return Channels{
		Log:      slog.New(handler(cfg.Level)).With("channel", ChannelLog),
		Patterns: channel(ChannelPatterns, cfg.Patterns),
		Steps:    channel(ChannelSteps, cfg.Steps),
		Trace:    channel(ChannelTrace, cfg.Trace),
	}
}

// Discard returns channels that drop every record.
func Discard() Channels {
	l := slog.New(slog.DiscardHandler)
	return Channels{Log: l, Patterns: l, Steps: l, Trace: l}
}

// Enabled reports whether l emits debug records.
func Enabled(l *slog.Logger) bool {
	return l != nil && l.Enabled(context.Background(), slog.LevelDebug)
}

// ParseLevel maps a level name onto slog. Unknown names yield info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Indent prefixes msg with four spaces per nesting level.
func Indent(level int, msg string) string {
	if level <= 0 {
		return msg
	}
	return strings.Repeat("    ", level) + msg
}
