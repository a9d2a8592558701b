package deploy

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kjanat/livedash-deploy/domain"
	"github.com/kjanat/livedash-deploy/preflight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// phaseOptions isolates the phase loop: no preflight, no backup.
func phaseOptions() domain.DeploymentOptions {
	return domain.DeploymentOptions{
		SkipPreflight:       true,
		SkipBackup:          true,
		CompensateOnFailure: true,
		MaxDowntime:         time.Minute,
	}
}

func newTestDeployer() (*Deployer, *MockPreflightChecker, *MockSnapshotCreator) {
	preflightMock := &MockPreflightChecker{}
	snapshotMock := &MockSnapshotCreator{}
	return NewDeployer(preflightMock, snapshotMock, nil), preflightMock, snapshotMock
}

func succeedingPhase(name string, calls *[]string) domain.Phase {
	return domain.Phase{
		Name:     name,
		Critical: true,
		Action: func() error {
			*calls = append(*calls, name)
			return nil
		},
	}
}

func TestDeploy_AllPhasesSucceed(t *testing.T) {
	deployer, _, _ := newTestDeployer()

	var calls []string
	plan := domain.Plan{
		Service: "livedash",
		Phases: []domain.Phase{
			succeedingPhase("first", &calls),
			succeedingPhase("second", &calls),
			succeedingPhase("third", &calls),
		},
	}

	result := deployer.Deploy(plan, phaseOptions())

	assert.True(t, result.Success)
	assert.NoError(t, result.Err)
	assert.Equal(t, []string{"first", "second", "third"}, result.CompletedPhases)
	assert.Equal(t, []string{"first", "second", "third"}, result.AttemptedPhases)
	assert.Equal(t, []string{"first", "second", "third"}, calls)
	assert.Empty(t, result.FailedPhase)
	assert.Greater(t, result.TotalDuration, time.Duration(0))
}

func TestDeploy_CriticalPhaseFailureHalts(t *testing.T) {
	deployer, _, _ := newTestDeployer()

	var calls []string
	failure := errors.New("migration exploded")
	plan := domain.Plan{
		Service: "livedash",
		Phases: []domain.Phase{
			succeedingPhase("first", &calls),
			{
				Name:     "second",
				Critical: true,
				Action: func() error {
					calls = append(calls, "second")
					return failure
				},
			},
			succeedingPhase("third", &calls),
		},
	}

	options := phaseOptions()
	options.CompensateOnFailure = false
	result := deployer.Deploy(plan, options)

	assert.False(t, result.Success)
	assert.Equal(t, "second", result.FailedPhase)
	assert.ErrorIs(t, result.Err, failure)
	assert.Equal(t, []string{"first"}, result.CompletedPhases)
	assert.Equal(t, []string{"first", "second"}, result.AttemptedPhases)
	// The phase after the failure never ran
	assert.NotContains(t, calls, "third")
}

func TestDeploy_NonCriticalFailureContinues(t *testing.T) {
	deployer, _, _ := newTestDeployer()

	var calls []string
	plan := domain.Plan{
		Service: "livedash",
		Phases: []domain.Phase{
			succeedingPhase("first", &calls),
			{
				Name:     "second",
				Critical: false,
				Action: func() error {
					calls = append(calls, "second")
					return errors.New("flag service flaked")
				},
			},
			succeedingPhase("third", &calls),
		},
	}

	result := deployer.Deploy(plan, phaseOptions())

	// A tolerated failure never flips the overall result by itself
	assert.True(t, result.Success)
	assert.Empty(t, result.FailedPhase)
	assert.Equal(t, []string{"first", "second", "third"}, calls)
	// The failed phase was attempted but did not complete
	assert.Equal(t, []string{"first", "third"}, result.CompletedPhases)
	assert.Equal(t, []string{"first", "second", "third"}, result.AttemptedPhases)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "second")
}

func TestDeploy_DryRunInvokesNoCollaborators(t *testing.T) {
	deployer, preflightMock, snapshotMock := newTestDeployer()

	actionCalls := 0
	healthCalls := 0
	plan := domain.Plan{
		Service: "livedash",
		Phases: []domain.Phase{
			{
				Name:     "first",
				Critical: true,
				Action: func() error {
					actionCalls++
					return nil
				},
				HealthCheck: func() bool {
					healthCalls++
					return true
				},
			},
			{
				Name:     "second",
				Critical: true,
				Cutover:  true,
				Action: func() error {
					actionCalls++
					return nil
				},
			},
		},
	}

	options := domain.DeploymentOptions{DryRun: true, MaxDowntime: time.Minute}
	result := deployer.Deploy(plan, options)

	assert.True(t, result.Success)
	assert.Len(t, result.CompletedPhases, 2)
	assert.Zero(t, actionCalls)
	assert.Zero(t, healthCalls)
	assert.Zero(t, preflightMock.RunCalls)
	assert.Zero(t, snapshotMock.CaptureCalls)
}

func TestDeploy_HealthGateFailsPhase(t *testing.T) {
	deployer, _, _ := newTestDeployer()

	plan := domain.Plan{
		Service: "livedash",
		Phases: []domain.Phase{
			{
				Name:        "gated",
				Critical:    true,
				Action:      func() error { return nil },
				HealthCheck: func() bool { return false },
			},
		},
	}

	result := deployer.Deploy(plan, phaseOptions())

	assert.False(t, result.Success)
	assert.Equal(t, "gated", result.FailedPhase)
	assert.Empty(t, result.CompletedPhases)
	assert.Equal(t, domain.ErrorKindInfrastructure, domain.KindOf(result.Err))
}

func TestDeploy_DowntimeBudget(t *testing.T) {
	t.Run("within budget", func(t *testing.T) {
		deployer, _, _ := newTestDeployer()

		plan := domain.Plan{
			Service: "livedash",
			Phases: []domain.Phase{
				{
					Name:     "cutover",
					Critical: true,
					Cutover:  true,
					Action: func() error {
						time.Sleep(10 * time.Millisecond)
						return nil
					},
				},
			},
		}

		options := phaseOptions()
		options.MaxDowntime = time.Minute
		result := deployer.Deploy(plan, options)

		assert.True(t, result.Success)
		assert.GreaterOrEqual(t, result.Downtime, 10*time.Millisecond)
		assert.Less(t, result.Downtime, time.Second)
	})

	t.Run("budget exceeded fails the phase", func(t *testing.T) {
		deployer, _, _ := newTestDeployer()

		var calls []string
		plan := domain.Plan{
			Service: "livedash",
			Phases: []domain.Phase{
				succeedingPhase("before", &calls),
				{
					Name:     "cutover",
					Critical: true,
					Cutover:  true,
					// The action returns normally; only the budget is blown.
					Action: func() error {
						time.Sleep(30 * time.Millisecond)
						return nil
					},
				},
				succeedingPhase("after", &calls),
			},
		}

		options := phaseOptions()
		options.CompensateOnFailure = false
		options.MaxDowntime = 5 * time.Millisecond
		result := deployer.Deploy(plan, options)

		assert.False(t, result.Success)
		assert.Equal(t, "cutover", result.FailedPhase)
		assert.Equal(t, []string{"before"}, result.CompletedPhases)
		assert.Equal(t, domain.ErrorKindTimeout, domain.KindOf(result.Err))
		assert.NotContains(t, calls, "after")
	})
}

func TestDeploy_CompensationPass(t *testing.T) {
	t.Run("reverse order, only completed phases with compensation", func(t *testing.T) {
		deployer, _, _ := newTestDeployer()

		var calls []string
		var compensated []string
		compensation := func(name string) domain.Action {
			return func() error {
				compensated = append(compensated, name)
				return nil
			}
		}

		plan := domain.Plan{
			Service: "livedash",
			Phases: []domain.Phase{
				{
					Name:         "first",
					Critical:     true,
					Action:       func() error { calls = append(calls, "first"); return nil },
					Compensation: compensation("first"),
				},
				// No compensation declared; must be skipped by the pass
				succeedingPhase("second", &calls),
				{
					Name:         "third",
					Critical:     true,
					Action:       func() error { calls = append(calls, "third"); return nil },
					Compensation: compensation("third"),
				},
				{
					Name:     "fourth",
					Critical: true,
					Action:   func() error { return errors.New("boom") },
					// The failed phase's own compensation must not run
					Compensation: compensation("fourth"),
				},
			},
		}

		result := deployer.Deploy(plan, phaseOptions())

		assert.False(t, result.Success)
		assert.Equal(t, []string{"first", "second", "third"}, result.CompletedPhases)
		assert.Equal(t, []string{"third", "first"}, compensated)
	})

	t.Run("disabled by options", func(t *testing.T) {
		deployer, _, _ := newTestDeployer()

		compensations := 0
		plan := domain.Plan{
			Service: "livedash",
			Phases: []domain.Phase{
				{
					Name:         "first",
					Critical:     true,
					Action:       func() error { return nil },
					Compensation: func() error { compensations++; return nil },
				},
				{
					Name:     "second",
					Critical: true,
					Action:   func() error { return errors.New("boom") },
				},
			},
		}

		options := phaseOptions()
		options.CompensateOnFailure = false
		result := deployer.Deploy(plan, options)

		assert.False(t, result.Success)
		assert.Zero(t, compensations)
	})

	t.Run("compensation failure is a warning", func(t *testing.T) {
		deployer, _, _ := newTestDeployer()

		var compensated []string
		plan := domain.Plan{
			Service: "livedash",
			Phases: []domain.Phase{
				{
					Name:     "first",
					Critical: true,
					Action:   func() error { return nil },
					Compensation: func() error {
						compensated = append(compensated, "first")
						return nil
					},
				},
				{
					Name:     "second",
					Critical: true,
					Action:   func() error { return nil },
					Compensation: func() error {
						compensated = append(compensated, "second")
						return errors.New("cannot undo")
					},
				},
				{
					Name:     "third",
					Critical: true,
					Action:   func() error { return errors.New("boom") },
				},
			},
		}

		result := deployer.Deploy(plan, phaseOptions())

		assert.False(t, result.Success)
		// The failing compensation did not stop the remaining reversals
		assert.Equal(t, []string{"second", "first"}, compensated)
		found := false
		for _, warning := range result.Warnings {
			if warning == fmt.Sprintf("compensation for %s failed: %v", "second", "cannot undo") {
				found = true
			}
		}
		assert.True(t, found, "expected a compensation warning, got %v", result.Warnings)
	})
}

func TestDeploy_PreflightAbortsBeforeAnyPhase(t *testing.T) {
	deployer, preflightMock, _ := newTestDeployer()
	preflightMock.RunFunc = func() preflight.Result {
		return preflight.Result{
			Success:          false,
			CriticalFailures: []string{"required tool not found: docker"},
			Warnings:         []string{"application directory is not a git checkout"},
		}
	}

	actionCalls := 0
	plan := domain.Plan{
		Service: "livedash",
		Phases: []domain.Phase{
			{
				Name:     "first",
				Critical: true,
				Action:   func() error { actionCalls++; return nil },
			},
		},
	}

	options := phaseOptions()
	options.SkipPreflight = false
	result := deployer.Deploy(plan, options)

	assert.False(t, result.Success)
	// A pre-phase abort, not a phase failure
	assert.Empty(t, result.FailedPhase)
	assert.Empty(t, result.AttemptedPhases)
	assert.Zero(t, actionCalls)
	assert.Contains(t, result.Err.Error(), "docker")
	// Preflight warnings are still surfaced
	assert.Len(t, result.Warnings, 1)
}

func TestDeploy_BackupFailureIsFatal(t *testing.T) {
	deployer, _, snapshotMock := newTestDeployer()
	snapshotMock.CaptureFunc = func(domain.DeploymentOptions) (string, error) {
		return "", errors.New("disk full")
	}

	actionCalls := 0
	plan := domain.Plan{
		Service: "livedash",
		Phases: []domain.Phase{
			{
				Name:     "first",
				Critical: true,
				Action:   func() error { actionCalls++; return nil },
			},
		},
	}

	options := phaseOptions()
	options.SkipBackup = false
	result := deployer.Deploy(plan, options)

	assert.False(t, result.Success)
	assert.Zero(t, actionCalls)
	assert.Contains(t, result.Err.Error(), "backup")
	assert.Empty(t, result.SnapshotRef)
}

func TestDeploy_RecordsSnapshotRef(t *testing.T) {
	deployer, _, snapshotMock := newTestDeployer()

	plan := domain.Plan{
		Service: "livedash",
		Phases: []domain.Phase{
			{Name: "first", Critical: true, Action: func() error { return nil }},
		},
	}

	options := phaseOptions()
	options.SkipBackup = false
	result := deployer.Deploy(plan, options)

	assert.True(t, result.Success)
	assert.Equal(t, 1, snapshotMock.CaptureCalls)
	assert.Equal(t, "mock-snapshot-ref", result.SnapshotRef)
}

func TestDeploy_InvalidPlan(t *testing.T) {
	deployer, _, _ := newTestDeployer()

	plan := domain.Plan{
		Service: "livedash",
		Phases: []domain.Phase{
			{Name: "dup", Action: func() error { return nil }},
			{Name: "dup", Action: func() error { return nil }},
		},
	}

	result := deployer.Deploy(plan, phaseOptions())

	assert.False(t, result.Success)
	assert.Contains(t, result.Err.Error(), "invalid plan")
}

func TestDeploy_PanicFoldedIntoResult(t *testing.T) {
	deployer, _, _ := newTestDeployer()

	plan := domain.Plan{
		Service: "livedash",
		Phases: []domain.Phase{
			{
				Name:     "first",
				Critical: true,
				Action:   func() error { panic("programmer error") },
			},
		},
	}

	var result domain.ExecutionResult
	assert.NotPanics(t, func() {
		result = deployer.Deploy(plan, phaseOptions())
	})
	assert.False(t, result.Success)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "programmer error")
}
