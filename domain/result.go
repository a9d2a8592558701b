package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionResult is the outcome of one deployment run. Deploy always returns
// a well-formed result; it never panics or propagates an error directly.
type ExecutionResult struct {
	RunID   uuid.UUID
	Service string
	Success bool
	// CompletedPhases lists, in completion order, the phases whose action and
	// health gate both succeeded. It only grows during a run.
	CompletedPhases []string
	// AttemptedPhases lists every phase whose action ran, including
	// non-critical phases that failed and were tolerated.
	AttemptedPhases []string
	// FailedPhase names the phase that halted the run, if any.
	FailedPhase string
	// Warnings collects tolerated failures and compensation errors.
	Warnings      []string
	TotalDuration time.Duration
	// Downtime is the measured wall-clock span of the cutover phase.
	Downtime time.Duration
	// SnapshotRef references the pre-deployment snapshot, if one was taken.
	SnapshotRef string
	Err         error
}

// RollbackResult is the outcome of one disaster-recovery rollback run.
type RollbackResult struct {
	RunID   uuid.UUID
	Success bool
	// CompletedSteps lists, in completion order, the steps that succeeded.
	CompletedSteps []string
	// FailedStep names the step that halted the pipeline, if any.
	FailedStep    string
	Warnings      []string
	TotalDuration time.Duration
	Err           error
}
