package models

import (
	"time"

	"gorm.io/datatypes"
)

// Run records one extraction of a document
type Run struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	Document string `gorm:"type:varchar(1024);index"`
	Backend  string `gorm:"type:varchar(20)"`

	// Options holds the switches the run was started with
	Options datatypes.JSON `gorm:"type:json"`

	// Outcome
	Status    string `gorm:"type:varchar(20);default:'started';index"`
	ErrorCode string `gorm:"type:varchar(32)"`
	Error     string `gorm:"type:text"`

	// Statistics
	InputBytes    int            `gorm:"default:0"`
	OutputBytes   int            `gorm:"default:0"`
	PatternCount  int            `gorm:"default:0"`
	LeftoverCount int            `gorm:"default:0"`
	Leftovers     datatypes.JSON `gorm:"type:json"` // command -> count

	StartedAt  time.Time `gorm:"autoCreateTime;index"`
	FinishedAt *time.Time

	Timings []PatternTiming `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// PatternTiming is one row of the timing report of a run
type PatternTiming struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"`
	RunID string `gorm:"type:varchar(36);index;not null"`

	// Where the pattern was created
	File  string `gorm:"type:varchar(255)"`
	Line  int
	Scope string `gorm:"type:varchar(255)"`

	CompilationSeconds float64
	RunSeconds         float64
	RunCount           int
	Matches            int
	Object             string `gorm:"type:text"`
}

// Run statuses
const (
	StatusStarted   = "started"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Duration is the wall time of a finished run, zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// TableName customizations for cleaner names
func (Run) TableName() string           { return "runs" }
func (PatternTiming) TableName() string { return "pattern_timings" }
