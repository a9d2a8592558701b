package domain

import "time"

// DeploymentOptions control a single deployment run. The options are immutable
// for the lifetime of the run.
type DeploymentOptions struct {
	// SkipPreflight skips the preflight check before any phase runs.
	SkipPreflight bool
	// SkipBackup skips the pre-deployment snapshot.
	SkipBackup bool
	// SkipEnvironment drops the environment update phase from the plan.
	SkipEnvironment bool
	// DryRun simulates every phase without invoking any collaborator.
	DryRun bool
	// CompensateOnFailure runs the reverse-order compensation pass over
	// completed phases after a critical phase failure.
	CompensateOnFailure bool
	// ProgressiveRollout enables feature flags one at a time with a health
	// probe between each, instead of all at once.
	ProgressiveRollout bool
	// MaxDowntime is the budget for the cutover phase's wall-clock span.
	// Exceeding it fails the phase even if the action returned normally.
	MaxDowntime time.Duration
}

// DefaultDeploymentOptions returns the options used when no flags override them.
func DefaultDeploymentOptions() DeploymentOptions {
	return DeploymentOptions{
		CompensateOnFailure: true,
		ProgressiveRollout:  true,
		MaxDowntime:         30 * time.Second,
	}
}

// RollbackOptions control a single disaster-recovery rollback run.
type RollbackOptions struct {
	// SnapshotRef selects the snapshot to restore from. Empty means the most
	// recent snapshot.
	SnapshotRef string
	// RestoreData restores the database from the snapshot's backing store.
	RestoreData bool
	// RestoreCode reverts the working tree to the snapshot's revision.
	RestoreCode bool
	// RestoreConfig restores the snapshot's captured configuration files.
	RestoreConfig bool
	// SkipConfirmation bypasses the interactive confirmation gate.
	SkipConfirmation bool
	// DryRun simulates every step without invoking any collaborator.
	DryRun bool
}

// DefaultRollbackOptions returns the options used when no flags override them.
func DefaultRollbackOptions() RollbackOptions {
	return RollbackOptions{
		RestoreData:   true,
		RestoreCode:   true,
		RestoreConfig: true,
	}
}
