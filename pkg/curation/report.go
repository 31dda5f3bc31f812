package curation

import (
	"log/slog"
	"time"

	"github.com/gnames/gnbold/pkg/specimen"
	"github.com/gnames/gnbold/pkg/verdict"
	"github.com/google/uuid"
)

// Report summarises a run. For Build and Update the outcome counts cover
// the ingested records, for Review they cover the whole corpus.
type Report struct {
	// RunID identifies the run in logs.
	RunID string

	// Command is "build", "update" or "review".
	Command string

	// Processed is the number of records that went through the stages.
	Processed int

	Included   int
	Excluded   int
	Unresolved int

	// Duplicates counts processed records flagged as duplicates.
	Duplicates int

	// Conflicts counts incoming records rejected because a stored record
	// with the same id is not older.
	Conflicts int

	// Unchanged counts incoming records identical to stored ones.
	Unchanged int

	// UnresolvedBefore and UnresolvedAfter are set by Review.
	UnresolvedBefore int
	UnresolvedAfter  int

	Start    time.Time
	Duration time.Duration
}

func newReport(command string, now time.Time) Report {
	return Report{
		RunID:   uuid.NewString(),
		Command: command,
		Start:   now,
	}
}

// tally counts the outcome of a record.
func (r *Report) tally(rec *specimen.Record) {
	switch {
	case rec.Include:
		r.Included++
	case verdict.Assess(rec).Unresolved():
		r.Unresolved++
	default:
		r.Excluded++
	}
}

func (r *Report) finish(now time.Time) {
	r.Duration = now.Sub(r.Start)
	slog.Info("Curation run finished",
		"run", r.RunID,
		"command", r.Command,
		"processed", r.Processed,
		"included", r.Included,
		"excluded", r.Excluded,
		"unresolved", r.Unresolved,
		"duplicates", r.Duplicates,
		"conflicts", r.Conflicts,
		"unchanged", r.Unchanged,
		"unresolved_before", r.UnresolvedBefore,
		"unresolved_after", r.UnresolvedAfter,
		"duration", r.Duration.String(),
	)
}
