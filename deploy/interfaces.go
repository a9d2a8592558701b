package deploy

import (
	"github.com/kjanat/livedash-deploy/domain"
	"github.com/kjanat/livedash-deploy/preflight"
)

// The orchestrator and the production plan depend on collaborators through
// these narrow interfaces so tests can substitute fakes. The real
// implementations live in the preflight, snapshot, toolchain, compose and
// health packages.

// PreflightChecker gates a deployment before any phase runs.
type PreflightChecker interface {
	Run() preflight.Result
}

// SnapshotCreator captures the pre-deployment backup.
type SnapshotCreator interface {
	Capture(options domain.DeploymentOptions) (string, error)
}

// SchemaMigrator applies pending database schema migrations.
type SchemaMigrator interface {
	Apply() error
}

// ArtifactBuilder builds the deployable artifact from the current checkout.
type ArtifactBuilder interface {
	Build() error
}

// ServiceController controls the running application stack. Up is the cutover
// operation; Stop and Start are used by compensation and recovery.
type ServiceController interface {
	Up() error
	Stop() error
	Start() error
}

// DependencyInstaller installs application dependencies.
type DependencyInstaller interface {
	Restore(manifest string) error
}

// HealthProbe reports whether the deployed application is healthy. The probe
// retries internally with its own deadline.
type HealthProbe interface {
	Check() bool
}
