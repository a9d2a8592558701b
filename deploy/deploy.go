// Package deploy implements the phased deployment orchestrator. A deployment
// is an ordered plan of phases executed strictly sequentially; each phase
// declares its criticality, an optional health gate and an optional
// compensating action. The orchestrator enforces the downtime budget on the
// single cutover phase and, when a critical phase fails, runs a best-effort
// reverse-order compensation pass over the phases that completed.
package deploy

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kjanat/livedash-deploy/domain"
	"github.com/kjanat/livedash-deploy/logging"
	"github.com/kjanat/livedash-deploy/repository"
)

// dryRunPhaseDelay is the simulated duration of a phase under dry run.
const dryRunPhaseDelay = 50 * time.Millisecond

// Deployer executes deployment plans. Callers must guarantee at most one
// Deploy is in flight against a given target; concurrent invocations are
// unsupported.
type Deployer struct {
	preflight PreflightChecker
	snapshots SnapshotCreator
	// runs is the optional run history. A nil repository disables persistence;
	// history failures never fail a deployment.
	runs repository.DeploymentRunRepository
}

func NewDeployer(
	preflightChecker PreflightChecker,
	snapshots SnapshotCreator,
	runs repository.DeploymentRunRepository,
) *Deployer {
	return &Deployer{
		preflight: preflightChecker,
		snapshots: snapshots,
		runs:      runs,
	}
}

// Deploy executes the plan and always returns a well-formed result. It never
// panics and never returns an error directly; unexpected internal errors are
// caught at this boundary and folded into the result.
func (d *Deployer) Deploy(plan domain.Plan, options domain.DeploymentOptions) (result domain.ExecutionResult) {
	started := time.Now()
	run := domain.NewDeploymentRun(plan.Service, options)
	result = domain.ExecutionResult{RunID: run.ID, Service: plan.Service}
	recorded := false

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Err = fmt.Errorf("internal error: %v", r)
		}
		result.TotalDuration = time.Since(started)
		if recorded {
			d.finishRun(&run, &result)
		}
	}()

	if err := plan.Validate(); err != nil {
		result.Err = fmt.Errorf("invalid plan: %w", err)
		return result
	}

	recorded = d.startRun(&run)
	progress := logging.NewProgressLogger("deployment", len(plan.Phases))

	// Preflight gate. A critical preflight failure aborts before any phase
	// runs; it is a pre-phase abort, not a phase failure.
	if !options.SkipPreflight && !options.DryRun {
		check := d.preflight.Run()
		result.Warnings = append(result.Warnings, check.Warnings...)
		if !check.Success {
			result.Err = fmt.Errorf("preflight failed: %s",
				strings.Join(check.CriticalFailures, "; "))
			progress.Close(false)
			return result
		}
	}

	// Pre-deployment backup. A restorable prior state must exist before any
	// new state is risked, so a backup failure is fatal.
	if !options.SkipBackup && !options.DryRun {
		ref, err := d.snapshots.Capture(options)
		if err != nil {
			result.Err = fmt.Errorf("pre-deployment backup failed: %w", err)
			progress.Close(false)
			return result
		}
		result.SnapshotRef = ref
	}

	for _, phase := range plan.Phases {
		progress.PhaseStart(phase.Name, phase.Description)
		result.AttemptedPhases = append(result.AttemptedPhases, phase.Name)

		elapsed, err := d.runPhase(phase, options)
		if phase.Cutover {
			result.Downtime = elapsed
			if err == nil && options.MaxDowntime > 0 && elapsed > options.MaxDowntime {
				// The action returned normally but the downtime budget was
				// blown. That is a correctness failure, not a warning.
				err = domain.NewActionError(domain.ErrorKindTimeout, phase.Name,
					fmt.Errorf("downtime %s exceeded budget %s", elapsed, options.MaxDowntime))
			}
		}

		if err != nil {
			if phase.Critical {
				progress.PhaseFailed(phase.Name, err, false)
				result.FailedPhase = phase.Name
				result.Err = err
				if options.CompensateOnFailure {
					d.compensate(plan, result.CompletedPhases, &result)
				}
				progress.Close(false)
				return result
			}
			progress.PhaseFailed(phase.Name, err, true)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("phase %s failed (tolerated): %v", phase.Name, err))
			continue
		}

		result.CompletedPhases = append(result.CompletedPhases, phase.Name)
		progress.PhaseComplete(phase.Name)
	}

	result.Success = true
	progress.Close(true)
	return result
}

// runPhase executes one phase and returns the wall-clock span of its action.
// Under dry run the phase is simulated with a fixed short delay and no
// collaborator is invoked, including the health gate.
func (d *Deployer) runPhase(phase domain.Phase, options domain.DeploymentOptions) (time.Duration, error) {
	if options.DryRun {
		time.Sleep(dryRunPhaseDelay)
		return dryRunPhaseDelay, nil
	}

	start := time.Now()
	err := phase.Action()
	elapsed := time.Since(start)
	if err != nil {
		return elapsed, err
	}

	// The health gate runs only after a successful action and fails the phase
	// exactly like an action error. Its span is not part of the downtime
	// window.
	if phase.HealthCheck != nil && !phase.HealthCheck() {
		return elapsed, domain.NewActionError(domain.ErrorKindInfrastructure, phase.Name,
			fmt.Errorf("health gate reported unhealthy"))
	}

	return elapsed, nil
}

// compensate reverses the completed phases in strict reverse completion
// order, invoking compensation only for phases that declare one. Each
// reversal is attempted independently; a compensation failure is recorded as
// a warning and never escalates the overall result. This is best-effort
// cleanup, not a guaranteed return to the prior state.
func (d *Deployer) compensate(plan domain.Plan, completed []string, result *domain.ExecutionResult) {
	byName := make(map[string]domain.Phase, len(plan.Phases))
	for _, phase := range plan.Phases {
		byName[phase.Name] = phase
	}

	for i := len(completed) - 1; i >= 0; i-- {
		name := completed[i]
		phase, ok := byName[name]
		if !ok || phase.Compensation == nil {
			continue
		}

		slog.Info("Compensating phase", "phase", name)
		if err := phase.Compensation(); err != nil {
			slog.Error("Compensation failed",
				"layer", "deploy",
				"operation", "compensate",
				"phase", name,
				"error", err)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("compensation for %s failed: %v", name, err))
		}
	}
}

func (d *Deployer) startRun(run *domain.DeploymentRun) bool {
	if d.runs == nil {
		return false
	}
	if err := d.runs.Create(run); err != nil {
		slog.Error("Failed to record deployment run",
			"layer", "deploy",
			"operation", "start_run",
			"run_id", run.ID,
			"error", err)
		return false
	}
	return true
}

func (d *Deployer) finishRun(run *domain.DeploymentRun, result *domain.ExecutionResult) {
	run.Status = domain.RunStatusCompleted
	if !result.Success {
		run.Status = domain.RunStatusFailed
	}
	run.CompletedPhases = result.CompletedPhases
	run.AttemptedPhases = result.AttemptedPhases
	run.FailedPhase = result.FailedPhase
	run.Warnings = result.Warnings
	run.Duration = result.TotalDuration
	run.Downtime = result.Downtime
	run.SnapshotRef = result.SnapshotRef
	if result.Err != nil {
		run.Error = result.Err.Error()
	}

	if err := d.runs.Update(run); err != nil {
		slog.Error("Failed to record deployment run",
			"layer", "deploy",
			"operation", "finish_run",
			"run_id", run.ID,
			"error", err)
	}
}
