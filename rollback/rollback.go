// Package rollback implements the disaster-recovery pipeline. Unlike a
// deployment, a rollback is a fixed sequence of steps that does not depend on
// any particular deployment's bookkeeping: it must work even when the failed
// run's plan and phase history are unavailable or untrusted. Everything it
// needs comes from a snapshot bundle.
package rollback

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kjanat/livedash-deploy/config"
	"github.com/kjanat/livedash-deploy/domain"
	"github.com/kjanat/livedash-deploy/logging"
	"github.com/kjanat/livedash-deploy/preflight"
	"github.com/kjanat/livedash-deploy/repository"
)

const dryRunStepDelay = 50 * time.Millisecond

// Confirmer obtains the explicit operator confirmation the pipeline requires
// before mutating anything.
type Confirmer interface {
	Confirm(prompt string) bool
}

// SnapshotResolver loads the snapshot the pipeline restores from. An empty
// reference resolves to the most recent snapshot.
type SnapshotResolver interface {
	Resolve(ref string) (*domain.Snapshot, error)
}

// PrerequisiteChecker verifies required tools and directories are reachable.
type PrerequisiteChecker interface {
	Run() preflight.Result
}

// ServiceController halts and resumes the application stack.
type ServiceController interface {
	Stop() error
	Start() error
}

// DataRestorer restores the database for a snapshot and verifies the restore
// with an independent read probe.
type DataRestorer interface {
	Restore(snapshotRef string) error
	Verify() bool
}

// VersionControl reverts a checkout to a recorded revision.
type VersionControl interface {
	RevertTo(workingDir, revision string) error
}

// DependencyInstaller reinstalls dependencies from a captured manifest.
type DependencyInstaller interface {
	Restore(manifest string) error
}

// HealthProbe is the final smoke check after the service resumes.
type HealthProbe interface {
	Check() bool
}

// Pipeline executes the fixed disaster-recovery sequence. Callers must
// guarantee at most one rollback is in flight against a given target.
type Pipeline struct {
	config    *config.Config
	snapshots SnapshotResolver
	confirmer Confirmer
	prereqs   PrerequisiteChecker

	controller ServiceController
	data       DataRestorer
	vcs        VersionControl
	installer  DependencyInstaller
	health     HealthProbe

	// runs is the optional run history. A nil repository disables persistence.
	runs repository.RollbackRunRepository
}

// Deps are the collaborators the pipeline's steps invoke.
type Deps struct {
	Snapshots  SnapshotResolver
	Confirmer  Confirmer
	Prereqs    PrerequisiteChecker
	Controller ServiceController
	Data       DataRestorer
	VCS        VersionControl
	Installer  DependencyInstaller
	Health     HealthProbe
	Runs       repository.RollbackRunRepository
}

func NewPipeline(cfg *config.Config, deps Deps) *Pipeline {
	return &Pipeline{
		config:     cfg,
		snapshots:  deps.Snapshots,
		confirmer:  deps.Confirmer,
		prereqs:    deps.Prereqs,
		controller: deps.Controller,
		data:       deps.Data,
		vcs:        deps.VCS,
		installer:  deps.Installer,
		health:     deps.Health,
		runs:       deps.Runs,
	}
}

// step is one fixed pipeline step. The sequence is data-independent; which
// steps run is decided up front from the options, never from runtime
// bookkeeping.
type step struct {
	name        string
	description string
	critical    bool
	run         func(*state) error
}

// state carries the snapshot across steps once prerequisite validation has
// resolved it.
type state struct {
	options  domain.RollbackOptions
	snapshot *domain.Snapshot
}

// Run executes the pipeline and always returns a well-formed result.
// Unexpected internal errors are caught at this boundary and folded into the
// result; nothing propagates to the caller.
func (p *Pipeline) Run(options domain.RollbackOptions) (result domain.RollbackResult) {
	started := time.Now()
	run := domain.NewRollbackRun(p.config.ServiceName, options)
	result = domain.RollbackResult{RunID: run.ID}
	recorded := p.startRun(&run)
	st := &state{options: options}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Err = fmt.Errorf("internal error: %v", r)
		}
		result.TotalDuration = time.Since(started)
		if recorded {
			p.finishRun(&run, &result, st)
		}
	}()

	steps := p.steps(options)
	progress := logging.NewProgressLogger("rollback", len(steps))

	for _, s := range steps {
		progress.PhaseStart(s.name, s.description)

		err := p.runStep(s, st, options)
		if err != nil {
			if s.critical {
				progress.PhaseFailed(s.name, err, false)
				result.FailedStep = s.name
				result.Err = err
				progress.Close(false)
				// There is no rollback of a rollback. The partial result is
				// surfaced as-is for human intervention.
				return result
			}
			progress.PhaseFailed(s.name, err, true)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("step %s failed (tolerated): %v", s.name, err))
			continue
		}

		result.CompletedSteps = append(result.CompletedSteps, s.name)
		progress.PhaseComplete(s.name)
	}

	result.Success = true
	progress.Close(true)
	return result
}

func (p *Pipeline) runStep(s step, st *state, options domain.RollbackOptions) error {
	// The confirmation gate and prerequisite validation run for real even
	// under dry run; only mutating steps are simulated.
	if options.DryRun && s.name != stepConfirmation && s.name != stepPrerequisites {
		time.Sleep(dryRunStepDelay)
		return nil
	}
	return s.run(st)
}

const (
	stepConfirmation  = "confirmation"
	stepPrerequisites = "prerequisite-validation"
)

// steps assembles the fixed sequence for this invocation. Restore steps
// excluded by the options are omitted entirely rather than recorded as
// skipped.
func (p *Pipeline) steps(options domain.RollbackOptions) []step {
	steps := []step{
		{
			name:        stepConfirmation,
			description: "Require explicit operator confirmation",
			critical:    true,
			run:         p.confirm,
		},
		{
			name:        stepPrerequisites,
			description: "Validate tools and resolve the snapshot",
			critical:    true,
			run:         p.validatePrerequisites,
		},
		{
			name:        "halt-service",
			description: "Stop the running stack",
			critical:    false,
			run: func(*state) error {
				return p.controller.Stop()
			},
		},
	}

	if options.RestoreData {
		steps = append(steps, step{
			name:        "restore-data",
			description: "Restore the database from the snapshot's backing store",
			critical:    true,
			run:         p.restoreData,
		})
	}
	if options.RestoreCode {
		steps = append(steps, step{
			name:        "restore-code",
			description: "Revert the checkout to the snapshot's revision",
			critical:    true,
			run:         p.restoreCode,
		})
	}
	if options.RestoreConfig {
		steps = append(steps, step{
			name:        "restore-config",
			description: "Restore captured configuration files",
			critical:    false,
			run:         p.restoreConfig,
		})
	}

	steps = append(steps,
		step{
			name:        "restore-dependencies",
			description: "Reinstall dependencies from the captured manifest",
			critical:    true,
			run:         p.restoreDependencies,
		},
		step{
			name:        "resume-service",
			description: "Start the stack",
			critical:    false,
			run: func(*state) error {
				return p.controller.Start()
			},
		},
		step{
			name:        "final-verification",
			description: "Verify the restored application is healthy",
			critical:    true,
			run:         p.verify,
		},
	)

	return steps
}

// confirm is the hard gate before any mutation. Absence of confirmation is a
// critical failure with zero steps performed.
func (p *Pipeline) confirm(st *state) error {
	if st.options.SkipConfirmation || st.options.DryRun {
		return nil
	}
	prompt := fmt.Sprintf("Roll back %s to snapshot %s? This will overwrite current state",
		p.config.ServiceName, refLabel(st.options.SnapshotRef))
	if !p.confirmer.Confirm(prompt) {
		return domain.NewActionError(domain.ErrorKindDenied, stepConfirmation,
			fmt.Errorf("rollback not confirmed by operator"))
	}
	return nil
}

// validatePrerequisites checks the required tools are reachable and resolves
// the snapshot to real content before anything is mutated.
func (p *Pipeline) validatePrerequisites(st *state) error {
	check := p.prereqs.Run()
	if !check.Success {
		return domain.NewActionError(domain.ErrorKindValidation, stepPrerequisites,
			fmt.Errorf("prerequisite check failed: %s",
				strings.Join(check.CriticalFailures, "; ")))
	}

	snap, err := p.snapshots.Resolve(st.options.SnapshotRef)
	if err != nil {
		return domain.NewActionError(domain.ErrorKindValidation, stepPrerequisites,
			fmt.Errorf("snapshot not usable: %w", err))
	}
	st.snapshot = snap

	slog.Info("Rollback prerequisites validated",
		"snapshot_id", snap.ID,
		"revision", snap.RevisionID)
	return nil
}

func (p *Pipeline) restoreData(st *state) error {
	if err := p.data.Restore(st.snapshot.Ref()); err != nil {
		return domain.NewActionError(domain.ErrorKindInfrastructure, "restore-data", err)
	}
	// Verification failure after a restore attempt is critical: the database
	// is now in an unknown state.
	if !p.data.Verify() {
		return domain.NewActionError(domain.ErrorKindInfrastructure, "restore-data",
			fmt.Errorf("restored database failed verification"))
	}
	return nil
}

func (p *Pipeline) restoreCode(st *state) error {
	if err := p.vcs.RevertTo(p.config.AppDir, st.snapshot.RevisionID); err != nil {
		return domain.NewActionError(domain.ErrorKindInfrastructure, "restore-code", err)
	}
	return nil
}

func (p *Pipeline) restoreConfig(st *state) error {
	for path, content := range st.snapshot.ConfigFiles {
		target := filepath.Join(p.config.AppDir, path)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		if err := os.WriteFile(target, []byte(content), 0o600); err != nil {
			return fmt.Errorf("failed to restore config file %s: %w", path, err)
		}
		slog.Debug("Config file restored", "path", path)
	}
	return nil
}

func (p *Pipeline) restoreDependencies(st *state) error {
	if err := p.installer.Restore(st.snapshot.DependencyManifest); err != nil {
		return domain.NewActionError(domain.ErrorKindInfrastructure, "restore-dependencies", err)
	}
	return nil
}

func (p *Pipeline) verify(*state) error {
	if !p.health.Check() {
		return domain.NewActionError(domain.ErrorKindInfrastructure, "final-verification",
			fmt.Errorf("restored application did not become healthy"))
	}
	return nil
}

func (p *Pipeline) startRun(run *domain.RollbackRun) bool {
	if p.runs == nil {
		return false
	}
	if err := p.runs.Create(run); err != nil {
		slog.Error("Failed to record rollback run",
			"layer", "rollback",
			"operation", "start_run",
			"run_id", run.ID,
			"error", err)
		return false
	}
	return true
}

func (p *Pipeline) finishRun(run *domain.RollbackRun, result *domain.RollbackResult, st *state) {
	run.Status = domain.RunStatusCompleted
	if !result.Success {
		run.Status = domain.RunStatusFailed
	}
	run.CompletedSteps = result.CompletedSteps
	run.FailedStep = result.FailedStep
	run.Warnings = result.Warnings
	run.Duration = result.TotalDuration
	run.SnapshotRef = st.options.SnapshotRef
	if st.snapshot != nil {
		run.SnapshotRef = st.snapshot.Ref()
	}
	if result.Err != nil {
		run.Error = result.Err.Error()
	}

	if err := p.runs.Update(run); err != nil {
		slog.Error("Failed to record rollback run",
			"layer", "rollback",
			"operation", "finish_run",
			"run_id", run.ID,
			"error", err)
	}
}

func refLabel(ref string) string {
	if ref == "" {
		return "latest"
	}
	return ref
}
