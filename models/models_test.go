package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "runs", Run{}.TableName())
	assert.Equal(t, "pattern_timings", PatternTiming{}.TableName())
}

func TestRunDuration(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)

	tests := []struct {
		name string
		run  Run
		want time.Duration
	}{
		{"running", Run{StartedAt: start}, 0},
		{"finished", Run{StartedAt: start, FinishedAt: &end}, 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.run.Duration())
		})
	}
}
