package engine

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// Registry records every pattern created during one run, in creation order.
type Registry struct {
	patterns []*Pattern
}

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) add(p *Pattern) { r.patterns = append(r.patterns, p) }

// Patterns returns the registered patterns.
func (r *Registry) Patterns() []*Pattern { return r.patterns }

func (r *Registry) Len() int { return len(r.patterns) }

// TimingRow is one line of the timing report.
type TimingRow struct {
	File        string
	Line        int
	Scope       string
	Compilation time.Duration
	Run         time.Duration
	RunCount    int
	Matches     int
	Object      string
}

// ReportHeader names the timing report columns.
var ReportHeader = []string{
	"File", "Line", "Scope", "Compilation Time", "Run Time", "Run Count", "Matches", "Object",
}

// Rows returns one timing row per registered pattern.
func (r *Registry) Rows() []TimingRow {
	rows := make([]TimingRow, 0, len(r.patterns))
	for _, p := range r.patterns {
		rows = append(rows, TimingRow{
			File:        p.loc.File,
			Line:        p.loc.Line,
			Scope:       p.loc.Scope,
			Compilation: p.Compilation.Elapsed,
			Run:         p.Run.Elapsed,
			RunCount:    p.Run.Count,
			Matches:     p.Matches,
			Object:      p.owner.String(),
		})
	}
	return rows
}

// WriteCSV writes the timing report, durations in seconds.
func (r *Registry) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeader); err != nil {
		return err
	}
	for _, row := range r.Rows() {
		record := []string{
			row.File,
			strconv.Itoa(row.Line),
			row.Scope,
			seconds(row.Compilation),
			seconds(row.Run),
			strconv.Itoa(row.RunCount),
			strconv.Itoa(row.Matches),
			row.Object,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
