package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewChannels(t *testing.T) {
	var buf bytes.Buffer
	ch := New(Config{Level: slog.LevelWarn, Output: &buf, Trace: true})

	ch.Log.Info("hidden")
	ch.Log.Warn("shown")
	ch.Patterns.Debug("dropped")
	ch.Trace.Debug("traced")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "channel=log")
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "channel=trace")

	assert.False(t, Enabled(ch.Patterns))
	assert.True(t, Enabled(ch.Trace))
	assert.False(t, Enabled(ch.Log))
}

func TestDiscard(t *testing.T) {
	ch := Discard()
	assert.False(t, Enabled(ch.Log))
	assert.False(t, Enabled(ch.Steps))
	assert.False(t, Enabled(nil))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"whatever", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.name))
		})
	}
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "x", Indent(0, "x"))
	assert.Equal(t, "        x", Indent(2, "x"))
}
