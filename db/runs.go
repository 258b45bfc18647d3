package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/termfx/errers/internal/engine"
	"github.com/termfx/errers/models"
)

// ErrRunNotFound is returned when no run has the requested identifier.
var ErrRunNotFound = errors.New("run not found")

// Outcome is what a finished extraction reports to the store.
type Outcome struct {
	Err         error
	ErrorCode   string
	InputBytes  int
	OutputBytes int
	Leftovers   map[string]int
	Timings     []engine.TimingRow
}

// BeginRun records the start of an extraction of document. Runs beyond the
// retention limit are pruned first; retention <= 0 keeps every run.
func BeginRun(db *gorm.DB, document, backend string, options any, retention int) (*models.Run, error) {
	if err := EnforceRetention(db, retention-1); err != nil {
		return nil, fmt.Errorf("BeginRun: failed to enforce retention policy: %w", err)
	}

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		optionsJSON = []byte("{}")
	}

	run := &models.Run{
		ID:       uuid.NewString(),
		Document: document,
		Backend:  backend,
		Options:  datatypes.JSON(optionsJSON),
		Status:   models.StatusStarted,
	}
	if err := db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("BeginRun insert: %w", err)
	}
	return run, nil
}

// FinishRun stores the outcome and the timing report of run.
func FinishRun(db *gorm.DB, run *models.Run, out Outcome) error {
	now := time.Now()
	run.FinishedAt = &now
	run.InputBytes = out.InputBytes
	run.OutputBytes = out.OutputBytes
	run.PatternCount = len(out.Timings)
	run.LeftoverCount = 0
	for _, n := range out.Leftovers {
		run.LeftoverCount += n
	}
	if out.Leftovers != nil {
		leftovers, err := json.Marshal(out.Leftovers)
		if err != nil {
			return fmt.Errorf("FinishRun: %w", err)
		}
		run.Leftovers = datatypes.JSON(leftovers)
	}

	run.Status = models.StatusSucceeded
	if out.Err != nil {
		run.Status = models.StatusFailed
		run.Error = out.Err.Error()
		run.ErrorCode = out.ErrorCode
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(run).Error; err != nil {
			return fmt.Errorf("FinishRun update: %w", err)
		}
		if len(out.Timings) == 0 {
			return nil
		}
		rows := make([]models.PatternTiming, len(out.Timings))
		for i, t := range out.Timings {
			rows[i] = models.PatternTiming{
				RunID:              run.ID,
				File:               t.File,
				Line:               t.Line,
				Scope:              t.Scope,
				CompilationSeconds: t.Compilation.Seconds(),
				RunSeconds:         t.Run.Seconds(),
				RunCount:           t.RunCount,
				Matches:            t.Matches,
				Object:             t.Object,
			}
		}
		if err := tx.CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("FinishRun timings: %w", err)
		}
		return nil
	})
}

// ListRuns returns the most recent runs first. limit <= 0 lists all.
func ListRuns(db *gorm.DB, limit int) ([]models.Run, error) {
	var runs []models.Run
	q := db.Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("ListRuns: %w", err)
	}
	return runs, nil
}

// GetRun loads a run with its slowest patterns first. top <= 0 loads every
// timing row.
func GetRun(db *gorm.DB, id string, top int) (*models.Run, error) {
	var run models.Run
	err := db.Preload("Timings", func(tx *gorm.DB) *gorm.DB {
		tx = tx.Order("run_seconds DESC")
		if top > 0 {
			tx = tx.Limit(top)
		}
		return tx
	}).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("GetRun: %w", err)
	}
	return &run, nil
}

// EnforceRetention deletes all but the keep most recent runs. A negative
// keep disables pruning.
func EnforceRetention(db *gorm.DB, keep int) error {
	if keep < 0 {
		return nil
	}
	var ids []string
	if err := db.Model(&models.Run{}).Order("started_at DESC").Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) <= keep {
		return nil
	}
	stale := ids[keep:]
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id IN ?", stale).Delete(&models.PatternTiming{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", stale).Delete(&models.Run{}).Error
	})
}
