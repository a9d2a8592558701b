// Package db provides database models and utilities for livedash-deploy.
package db

import (
	"time"

	"github.com/google/uuid"
)

type BaseModel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type DeploymentRunModel struct {
	BaseModel
	Service         string `gorm:"not null;check:service <> ''"`
	Status          string `gorm:"not null;check:status <> ''"` // started, completed, failed
	Options         string `gorm:"not null"`                    // serialized DeploymentOptions
	CompletedPhases string `gorm:"not null"`                    // phase names separated by null character (\0)
	AttemptedPhases string `gorm:"not null"`
	FailedPhase     *string
	Warnings        string `gorm:"type:text"`
	DurationMs      int64  `gorm:"not null"`
	DowntimeMs      int64  `gorm:"not null"`
	SnapshotRef     *string
	Error           *string `gorm:"type:text"`
}

func (DeploymentRunModel) TableName() string {
	return "deployment_runs"
}

type RollbackRunModel struct {
	BaseModel
	Service        string `gorm:"not null;check:service <> ''"`
	Status         string `gorm:"not null;check:status <> ''"`
	Options        string `gorm:"not null"`
	CompletedSteps string `gorm:"not null"`
	FailedStep     *string
	Warnings       string  `gorm:"type:text"`
	DurationMs     int64   `gorm:"not null"`
	SnapshotRef    *string // snapshot the rollback restored from
	Error          *string `gorm:"type:text"`
}

func (RollbackRunModel) TableName() string {
	return "rollback_runs"
}

// SnapshotModel indexes on-disk snapshots so list/resolve work without
// scanning the filesystem. The snapshot bundle itself stays on disk; this row
// only carries the metadata needed to find and describe it.
type SnapshotModel struct {
	BaseModel
	Service    string `gorm:"not null;check:service <> ''"`
	Path       string `gorm:"not null;check:path <> ''"` // snapshot directory on disk
	RevisionID string `gorm:"not null"`
}

func (SnapshotModel) TableName() string {
	return "snapshots"
}
