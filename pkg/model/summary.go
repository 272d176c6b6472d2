// pkg/model/summary.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// RunSummary accumulates counters for one load run. It is created at run
// start, updated by the pipeline stages, and finalized exactly once.
type RunSummary struct {
	RunID         string // Unique run identifier for log correlation
	InputFile     string // Source file path
	Table         string // Destination schema.table
	SheetName     string // Selected sheet, spreadsheet sources only
	TotalRows     int    // Data rows read from the source (header excluded)
	ProcessedRows int    // Rows confirmed inserted into staging
	EmptyRows     int    // All-null rows discarded before loading
	SkippedRows   int    // Source rows that could not be parsed
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}

// NewRunSummary initializes a summary for a run against the given destination
func NewRunSummary(inputFile, table string) *RunSummary {
	return &RunSummary{
		RunID:     uuid.New().String(),
		InputFile: inputFile,
		Table:     table,
		StartTime: time.Now(),
	}
}

// Complete finalizes the summary; the summary is read-only afterwards
func (s *RunSummary) Complete() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// Outcome returns the terminal object handed to the notification sink
func (s *RunSummary) Outcome() RunOutcome {
	return RunOutcome{
		InputFile:   s.InputFile,
		TableName:   s.Table,
		SheetName:   s.SheetName,
		TotalRows:   s.TotalRows,
		ValidRows:   s.ProcessedRows,
		EmptyRows:   s.EmptyRows,
		SkippedRows: s.SkippedRows,
		Duration:    s.Duration,
	}
}

// RunOutcome is the read-only terminal summary passed to the notification
// sink once a run finishes.
type RunOutcome struct {
	InputFile   string
	TableName   string
	SheetName   string
	TotalRows   int
	ValidRows   int
	EmptyRows   int
	SkippedRows int
	Duration    time.Duration
}
