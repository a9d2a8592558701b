// Package app provides the application context for livedash-deploy, wiring
// the database, collaborators and services together.
package app

import (
	"fmt"
	"os"

	"github.com/kjanat/livedash-deploy/compose"
	"github.com/kjanat/livedash-deploy/config"
	"github.com/kjanat/livedash-deploy/db"
	"github.com/kjanat/livedash-deploy/deploy"
	"github.com/kjanat/livedash-deploy/encryption"
	"github.com/kjanat/livedash-deploy/flags"
	"github.com/kjanat/livedash-deploy/git"
	"github.com/kjanat/livedash-deploy/health"
	"github.com/kjanat/livedash-deploy/preflight"
	"github.com/kjanat/livedash-deploy/repository"
	"github.com/kjanat/livedash-deploy/rollback"
	"github.com/kjanat/livedash-deploy/snapshot"
	"github.com/kjanat/livedash-deploy/toolchain"
	"gorm.io/gorm"
)

var (
	database *gorm.DB
	cfg      *config.Config

	deployer        *deploy.Deployer
	planDeps        deploy.PlanDeps
	pipeline        *rollback.Pipeline
	snapshotService *snapshot.Service

	deploymentRuns repository.DeploymentRunRepository
	rollbackRuns   repository.RollbackRunRepository
)

// InitializeWithConfig wires the full application with dependency injection.
func InitializeWithConfig(c *config.Config) error {
	cfg = c

	var err error
	database, err = db.InitDB(c.DatabasePath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrateAll(database); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	encryptionService, err := encryption.NewService(c.EncryptionKey)
	if err != nil {
		return err
	}

	// Repositories
	deploymentRuns = repository.NewDeploymentRunRepository(database)
	rollbackRuns = repository.NewRollbackRunRepository(database)
	snapshotRepo := repository.NewSnapshotRepository(database)

	// Collaborators
	gitService := git.NewService(c)
	composeService := compose.NewService(c)
	healthProbe := health.NewProbe(c.HealthURL, c.HealthTimeout, c.HealthInterval)
	preflightChecker := preflight.NewChecker(c, gitService)
	dataRestorer := toolchain.NewDataRestorer(c)
	installer := toolchain.NewDependencyInstaller(c)

	snapshotService = snapshot.NewService(c, snapshotRepo, gitService, encryptionService)

	planDeps = deploy.PlanDeps{
		Migrator:   toolchain.NewSchemaMigrator(c),
		Builder:    composeService,
		Controller: composeService,
		Installer:  installer,
		Flags:      flags.NewFileStore(c.FlagsPath()),
		Health:     healthProbe,
	}

	deployer = deploy.NewDeployer(preflightChecker, snapshotService, deploymentRuns)

	pipeline = rollback.NewPipeline(c, rollback.Deps{
		Snapshots:  snapshotService,
		Confirmer:  &rollback.TerminalConfirmer{In: os.Stdin, Out: os.Stderr},
		Prereqs:    preflightChecker,
		Controller: composeService,
		Data:       dataRestorer,
		VCS:        gitService,
		Installer:  installer,
		Health:     healthProbe,
		Runs:       rollbackRuns,
	})

	return nil
}

func GetConfig() *config.Config {
	return cfg
}

func GetDeployer() *deploy.Deployer {
	return deployer
}

func GetPlanDeps() deploy.PlanDeps {
	return planDeps
}

func GetRollbackPipeline() *rollback.Pipeline {
	return pipeline
}

func GetSnapshotService() *snapshot.Service {
	return snapshotService
}

func GetDeploymentRunRepository() repository.DeploymentRunRepository {
	return deploymentRuns
}

func GetRollbackRunRepository() repository.RollbackRunRepository {
	return rollbackRuns
}
