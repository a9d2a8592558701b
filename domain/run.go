package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeploymentRun is the persisted record of one deployment invocation.
type DeploymentRun struct {
	ID              uuid.UUID
	Service         string
	Status          RunStatus
	Options         DeploymentOptions
	CompletedPhases []string
	AttemptedPhases []string
	FailedPhase     string
	Warnings        []string
	Duration        time.Duration
	Downtime        time.Duration
	SnapshotRef     string
	Error           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewDeploymentRun creates the started record for a deployment run.
func NewDeploymentRun(service string, options DeploymentOptions) DeploymentRun {
	return DeploymentRun{
		ID:      uuid.New(),
		Service: service,
		Status:  RunStatusStarted,
		Options: options,
	}
}

// RollbackRun is the persisted record of one rollback invocation.
type RollbackRun struct {
	ID             uuid.UUID
	Service        string
	Status         RunStatus
	Options        RollbackOptions
	CompletedSteps []string
	FailedStep     string
	Warnings       []string
	Duration       time.Duration
	SnapshotRef    string
	Error          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewRollbackRun creates the started record for a rollback run.
func NewRollbackRun(service string, options RollbackOptions) RollbackRun {
	return RollbackRun{
		ID:      uuid.New(),
		Service: service,
		Status:  RunStatusStarted,
		Options: options,
	}
}

// SnapshotRecord is the indexed metadata of an on-disk snapshot bundle.
type SnapshotRecord struct {
	ID         uuid.UUID
	Service    string
	Path       string
	RevisionID string
	CreatedAt  time.Time
}
