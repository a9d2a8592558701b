// Package repository persists deployment runs, rollback runs and the snapshot
// index.
package repository

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/kjanat/livedash-deploy/db"
	"github.com/kjanat/livedash-deploy/domain"
	"gorm.io/gorm"
)

type DeploymentRunRepository interface {
	FindByID(id uuid.UUID) (*domain.DeploymentRun, error)
	Create(run *domain.DeploymentRun) error
	Update(run *domain.DeploymentRun) error
	List() ([]*domain.DeploymentRun, error)
}

type deploymentRunRepository struct {
	db     *gorm.DB
	mapper *DeploymentRunMapper
}

func (r *deploymentRunRepository) FindByID(id uuid.UUID) (*domain.DeploymentRun, error) {
	var m db.DeploymentRunModel
	if err := r.db.First(&m, id).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "find_deployment_run",
			"run_id", id,
			"error", err)
		return nil, err // Pass through as-is
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *deploymentRunRepository) Create(run *domain.DeploymentRun) error {
	m := r.mapper.ToModel(run)
	if err := r.db.Create(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "create_deployment_run",
			"run_id", run.ID,
			"error", err)
		return err
	}
	// Update the domain object with the timestamps that GORM populated
	*run = *r.mapper.ToDomain(m)
	return nil
}

func (r *deploymentRunRepository) Update(run *domain.DeploymentRun) error {
	m := r.mapper.ToModel(run)
	if err := r.db.Save(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "update_deployment_run",
			"run_id", run.ID,
			"error", err)
		return err
	}
	*run = *r.mapper.ToDomain(m)
	return nil
}

func (r *deploymentRunRepository) List() ([]*domain.DeploymentRun, error) {
	var models []db.DeploymentRunModel
	if err := r.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	runs := make([]*domain.DeploymentRun, len(models))
	for i, m := range models {
		runs[i] = r.mapper.ToDomain(&m)
	}
	return runs, nil
}

func NewDeploymentRunRepository(db *gorm.DB) DeploymentRunRepository {
	return &deploymentRunRepository{
		db:     db,
		mapper: &DeploymentRunMapper{},
	}
}

type RollbackRunRepository interface {
	FindByID(id uuid.UUID) (*domain.RollbackRun, error)
	Create(run *domain.RollbackRun) error
	Update(run *domain.RollbackRun) error
	List() ([]*domain.RollbackRun, error)
}

type rollbackRunRepository struct {
	db     *gorm.DB
	mapper *RollbackRunMapper
}

func (r *rollbackRunRepository) FindByID(id uuid.UUID) (*domain.RollbackRun, error) {
	var m db.RollbackRunModel
	if err := r.db.First(&m, id).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *rollbackRunRepository) Create(run *domain.RollbackRun) error {
	m := r.mapper.ToModel(run)
	if err := r.db.Create(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "create_rollback_run",
			"run_id", run.ID,
			"error", err)
		return err
	}
	*run = *r.mapper.ToDomain(m)
	return nil
}

func (r *rollbackRunRepository) Update(run *domain.RollbackRun) error {
	m := r.mapper.ToModel(run)
	if err := r.db.Save(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "update_rollback_run",
			"run_id", run.ID,
			"error", err)
		return err
	}
	*run = *r.mapper.ToDomain(m)
	return nil
}

func (r *rollbackRunRepository) List() ([]*domain.RollbackRun, error) {
	var models []db.RollbackRunModel
	if err := r.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	runs := make([]*domain.RollbackRun, len(models))
	for i, m := range models {
		runs[i] = r.mapper.ToDomain(&m)
	}
	return runs, nil
}

func NewRollbackRunRepository(db *gorm.DB) RollbackRunRepository {
	return &rollbackRunRepository{
		db:     db,
		mapper: &RollbackRunMapper{},
	}
}

type SnapshotRepository interface {
	FindByID(id uuid.UUID) (*domain.SnapshotRecord, error)
	Create(record *domain.SnapshotRecord) error
	List() ([]*domain.SnapshotRecord, error)
	Latest() (*domain.SnapshotRecord, error)
}

type snapshotRepository struct {
	db     *gorm.DB
	mapper *SnapshotMapper
}

func (r *snapshotRepository) FindByID(id uuid.UUID) (*domain.SnapshotRecord, error) {
	var m db.SnapshotModel
	if err := r.db.First(&m, id).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "find_snapshot",
			"snapshot_id", id,
			"error", err)
		return nil, err
	}
	return r.mapper.ToDomain(&m), nil
}

func (r *snapshotRepository) Create(record *domain.SnapshotRecord) error {
	m := r.mapper.ToModel(record)
	if err := r.db.Create(m).Error; err != nil {
		slog.Error("Database operation failed",
			"layer", "repository",
			"operation", "create_snapshot",
			"snapshot_id", record.ID,
			"error", err)
		return err
	}
	*record = *r.mapper.ToDomain(m)
	return nil
}

func (r *snapshotRepository) List() ([]*domain.SnapshotRecord, error) {
	var models []db.SnapshotModel
	if err := r.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	records := make([]*domain.SnapshotRecord, len(models))
	for i, m := range models {
		records[i] = r.mapper.ToDomain(&m)
	}
	return records, nil
}

func (r *snapshotRepository) Latest() (*domain.SnapshotRecord, error) {
	var m db.SnapshotModel
	if err := r.db.Order("created_at DESC").First(&m).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToDomain(&m), nil
}

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository {
	return &snapshotRepository{
		db:     db,
		mapper: &SnapshotMapper{},
	}
}
