package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Connect(filepath.Join(t.TempDir(), "nested", "runs.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		dsn  string
		want bool
	}{
		{"libsql://db.example.com", true},
		{"https://db.example.com", true},
		{"http://127.0.0.1:8080", true},
		{"/tmp/runs.db", false},
		{":memory:", false},
		{"libsql.db", false},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			assert.Equal(t, tt.want, isURL(tt.dsn))
		})
	}
}

func TestRunLifecycle(t *testing.T) {
	db := setupTestDB(t)

	run, err := BeginRun(db, "paper.tex", "full", map[string]bool{"auto": true}, 0)
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)
	assert.Equal(t, models.StatusStarted, run.Status)
	assert.JSONEq(t, `{"auto": true}`, string(run.Options))

	err = FinishRun(db, run, Outcome{
		InputBytes:  120,
		OutputBytes: 80,
		Leftovers:   map[string]int{`\foo`: 2, `\bar`: 1},
		Timings: []engine.TimingRow{
			{File: "core.go", Line: 10, Scope: "coreMain", Run: time.Millisecond, RunCount: 3, Object: "Rule(a)"},
			{File: "core.go", Line: 20, Scope: "coreMain", Run: time.Second, RunCount: 1, Matches: 4, Object: "Rule(b)"},
		},
	})
	require.NoError(t, err)

	got, err := GetRun(db, run.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSucceeded, got.Status)
	assert.Equal(t, 3, got.LeftoverCount)
	assert.Equal(t, 2, got.PatternCount)
	assert.Equal(t, 80, got.OutputBytes)
	require.NotNil(t, got.FinishedAt)
	assert.GreaterOrEqual(t, got.Duration(), time.Duration(0))
	require.Len(t, got.Timings, 1)
	assert.Equal(t, 20, got.Timings[0].Line)
	assert.Equal(t, 4, got.Timings[0].Matches)

	all, err := GetRun(db, run.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all.Timings, 2)
}

func TestFinishRunFailure(t *testing.T) {
	db := setupTestDB(t)

	run, err := BeginRun(db, "paper.tex", "baseline", nil, 0)
	require.NoError(t, err)
	require.NoError(t, FinishRun(db, run, Outcome{Err: errors.New("boom"), ErrorCode: "ERR_REGEX"}))

	got, err := GetRun(db, run.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
	assert.Equal(t, "ERR_REGEX", got.ErrorCode)
	assert.Empty(t, got.Timings)
}

func TestGetRunNotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := GetRun(db, "missing", 0)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRunsAndRetention(t *testing.T) {
	db := setupTestDB(t)

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := range 4 {
		run, err := BeginRun(db, "doc.tex", "full", nil, 0)
		require.NoError(t, err)
		require.NoError(t, db.Model(run).Update("started_at", base.Add(time.Duration(i)*time.Minute)).Error)
		require.NoError(t, FinishRun(db, run, Outcome{Timings: []engine.TimingRow{{File: "x.go"}}}))
		ids = append(ids, run.ID)
	}

	runs, err := ListRuns(db, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[3], runs[0].ID)
	assert.Equal(t, ids[2], runs[1].ID)

	require.NoError(t, EnforceRetention(db, 2))
	runs, err = ListRuns(db, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[3], runs[0].ID)

	var timings int64
	require.NoError(t, db.Model(&models.PatternTiming{}).Count(&timings).Error)
	assert.Equal(t, int64(2), timings)

	require.NoError(t, EnforceRetention(db, -1))
	runs, err = ListRuns(db, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
