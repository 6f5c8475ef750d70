package ingestion

import (
	"time"

	"github.com/google/uuid"

	"github.com/patthub/impact-measurement-tool/internal/radon"
)

type (
	// RunStatus is the lifecycle state of one ingestion run.
	RunStatus string

	// Result is the outcome of one ingestion run over a single scope.
	Result struct {
		RunID    uuid.UUID
		Scope    radon.Scope
		PageSize int
		Status   RunStatus

		// Saved counts records the sink accepted; Inserted + Updated == Saved.
		Saved    int
		Inserted int
		Updated  int

		// Failed counts records that could not be saved. They are logged and skipped.
		Failed int

		StartedAt  time.Time
		FinishedAt time.Time

		// Err is set when the run itself was aborted (context cancelled), not for
		// per-record failures.
		Err error
	}

	// Summary aggregates the results of a multi-scope run.
	Summary struct {
		Results []Result
	}
)

const (
	// RunStatusRunning is the state of a run that has started and not yet finished.
	RunStatusRunning RunStatus = "running"

	// RunStatusCompleted means every fetched record was saved.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusCompletedWithErrors means the run finished but some records failed.
	RunStatusCompletedWithErrors RunStatus = "completed_with_errors"

	// RunStatusAborted means the run stopped early because its context was cancelled.
	RunStatusAborted RunStatus = "aborted"
)

// Processed returns the number of records the run attempted to save.
func (r *Result) Processed() int {
	return r.Saved + r.Failed
}

// Duration returns the wall-clock duration of the run, or zero if unfinished.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}

	return r.FinishedAt.Sub(r.StartedAt)
}

// Add appends a run result.
func (s *Summary) Add(r Result) {
	s.Results = append(s.Results, r)
}

// Saved returns the number of records saved across all runs.
func (s *Summary) Saved() int {
	n := 0
	for i := range s.Results {
		n += s.Results[i].Saved
	}

	return n
}

// Failed returns the number of records that failed across all runs.
func (s *Summary) Failed() int {
	n := 0
	for i := range s.Results {
		n += s.Results[i].Failed
	}

	return n
}

// Aborted reports whether any run was aborted.
func (s *Summary) Aborted() bool {
	for i := range s.Results {
		if s.Results[i].Status == RunStatusAborted {
			return true
		}
	}

	return false
}
