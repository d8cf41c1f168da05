package pipeline

import (
	"time"

	"catalogetl/internal/normalize"
	"catalogetl/internal/schema"
	"catalogetl/internal/storage"
)

// SourceReport describes what was read from the input.
type SourceReport struct {
	Location string `json:"location"`
	Rows     int    `json:"rows"`
	// Skipped rows could not be tokenized; Ragged rows had a field count
	// different from the header but were kept.
	Skipped     int      `json:"skipped"`
	Ragged      int      `json:"ragged"`
	SkipReasons []string `json:"skip_reasons,omitempty"`
}

// Report is the observable outcome of a run. It is returned even when Run
// fails; stages that did not run keep their zero values.
type Report struct {
	RunID string `json:"run_id"`
	Job   string `json:"job"`

	Source    SourceReport               `json:"source"`
	Setup     schema.SetupReport         `json:"setup"`
	Load      storage.LoadReport         `json:"load"`
	Relations []normalize.RelationReport `json:"relations"`

	// FinalCount is the games row count after the run, or -1 when the
	// count query failed (CountErr).
	FinalCount int64  `json:"final_count"`
	CountErr   string `json:"count_error,omitempty"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// HasWarnings reports whether the run completed with degraded results
// that a caller should surface: row errors, skipped source rows, schema
// statement failures, aborted relations or a failed final count.
func (r *Report) HasWarnings() bool {
	if r.Load.Errors > 0 || r.Source.Skipped > 0 || len(r.Setup.Warnings) > 0 || r.CountErr != "" {
		return true
	}
	for _, rel := range r.Relations {
		if rel.Err != "" {
			return true
		}
	}
	return false
}
