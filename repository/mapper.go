package repository

import (
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/kjanat/livedash-deploy/db"
	"github.com/kjanat/livedash-deploy/domain"
)

// Phase and step name lists are stored null-separated; warnings newline-separated.

func serializeNames(names []string) string {
	return strings.Join(names, "\x00")
}

func parseNames(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\x00")
}

func serializeWarnings(warnings []string) string {
	return strings.Join(warnings, "\n")
}

func parseWarnings(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type DeploymentRunMapper struct{}

func (m *DeploymentRunMapper) ToModel(run *domain.DeploymentRun) *db.DeploymentRunModel {
	options, err := json.Marshal(run.Options)
	if err != nil {
		// Options are plain booleans and a duration; this cannot fail in
		// practice, but log it rather than silently storing nothing.
		slog.Error("Failed to serialize deployment options", "run_id", run.ID, "error", err)
	}

	return &db.DeploymentRunModel{
		BaseModel: db.BaseModel{
			ID:        run.ID,
			CreatedAt: run.CreatedAt,
			UpdatedAt: run.UpdatedAt,
		},
		Service:         run.Service,
		Status:          run.Status.String(),
		Options:         string(options),
		CompletedPhases: serializeNames(run.CompletedPhases),
		AttemptedPhases: serializeNames(run.AttemptedPhases),
		FailedPhase:     optionalString(run.FailedPhase),
		Warnings:        serializeWarnings(run.Warnings),
		DurationMs:      run.Duration.Milliseconds(),
		DowntimeMs:      run.Downtime.Milliseconds(),
		SnapshotRef:     optionalString(run.SnapshotRef),
		Error:           optionalString(run.Error),
	}
}

func (m *DeploymentRunMapper) ToDomain(model *db.DeploymentRunModel) *domain.DeploymentRun {
	status, err := domain.ParseRunStatus(model.Status)
	if err != nil {
		slog.Error("Invalid run status in database", "run_id", model.ID, "status", model.Status)
	}

	var options domain.DeploymentOptions
	if model.Options != "" {
		if err := json.Unmarshal([]byte(model.Options), &options); err != nil {
			slog.Error("Failed to parse deployment options", "run_id", model.ID, "error", err)
		}
	}

	return &domain.DeploymentRun{
		ID:              model.ID,
		Service:         model.Service,
		Status:          status,
		Options:         options,
		CompletedPhases: parseNames(model.CompletedPhases),
		AttemptedPhases: parseNames(model.AttemptedPhases),
		FailedPhase:     stringValue(model.FailedPhase),
		Warnings:        parseWarnings(model.Warnings),
		Duration:        millisecondsToDuration(model.DurationMs),
		Downtime:        millisecondsToDuration(model.DowntimeMs),
		SnapshotRef:     stringValue(model.SnapshotRef),
		Error:           stringValue(model.Error),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

type RollbackRunMapper struct{}

func (m *RollbackRunMapper) ToModel(run *domain.RollbackRun) *db.RollbackRunModel {
	options, err := json.Marshal(run.Options)
	if err != nil {
		slog.Error("Failed to serialize rollback options", "run_id", run.ID, "error", err)
	}

	return &db.RollbackRunModel{
		BaseModel: db.BaseModel{
			ID:        run.ID,
			CreatedAt: run.CreatedAt,
			UpdatedAt: run.UpdatedAt,
		},
		Service:        run.Service,
		Status:         run.Status.String(),
		Options:        string(options),
		CompletedSteps: serializeNames(run.CompletedSteps),
		FailedStep:     optionalString(run.FailedStep),
		Warnings:       serializeWarnings(run.Warnings),
		DurationMs:     run.Duration.Milliseconds(),
		SnapshotRef:    optionalString(run.SnapshotRef),
		Error:          optionalString(run.Error),
	}
}

func (m *RollbackRunMapper) ToDomain(model *db.RollbackRunModel) *domain.RollbackRun {
	status, err := domain.ParseRunStatus(model.Status)
	if err != nil {
		slog.Error("Invalid run status in database", "run_id", model.ID, "status", model.Status)
	}

	var options domain.RollbackOptions
	if model.Options != "" {
		if err := json.Unmarshal([]byte(model.Options), &options); err != nil {
			slog.Error("Failed to parse rollback options", "run_id", model.ID, "error", err)
		}
	}

	return &domain.RollbackRun{
		ID:             model.ID,
		Service:        model.Service,
		Status:         status,
		Options:        options,
		CompletedSteps: parseNames(model.CompletedSteps),
		FailedStep:     stringValue(model.FailedStep),
		Warnings:       parseWarnings(model.Warnings),
		Duration:       millisecondsToDuration(model.DurationMs),
		SnapshotRef:    stringValue(model.SnapshotRef),
		Error:          stringValue(model.Error),
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

type SnapshotMapper struct{}

func (m *SnapshotMapper) ToModel(record *domain.SnapshotRecord) *db.SnapshotModel {
	return &db.SnapshotModel{
		BaseModel: db.BaseModel{
			ID:        record.ID,
			CreatedAt: record.CreatedAt,
		},
		Service:    record.Service,
		Path:       record.Path,
		RevisionID: record.RevisionID,
	}
}

func (m *SnapshotMapper) ToDomain(model *db.SnapshotModel) *domain.SnapshotRecord {
	return &domain.SnapshotRecord{
		ID:         model.ID,
		Service:    model.Service,
		Path:       model.Path,
		RevisionID: model.RevisionID,
		CreatedAt:  model.CreatedAt,
	}
}

func millisecondsToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
