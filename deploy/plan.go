package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/kjanat/livedash-deploy/config"
	"github.com/kjanat/livedash-deploy/domain"
	"github.com/kjanat/livedash-deploy/flags"
)

// PlanDeps are the collaborators the production plan's phase actions invoke.
type PlanDeps struct {
	Migrator   SchemaMigrator
	Builder    ArtifactBuilder
	Controller ServiceController
	Installer  DependencyInstaller
	Flags      flags.Store
	Health     HealthProbe
}

// NewProductionPlan assembles the standard rollout plan: environment
// preparation, schema migration, artifact build, service cutover, feature
// activation and final validation. Phases execute in this order, never
// reordered. The cutover phase is the single downtime-bracketed phase.
func NewProductionPlan(cfg *config.Config, deps PlanDeps, options domain.DeploymentOptions) domain.Plan {
	var phases []domain.Phase

	if !options.SkipEnvironment {
		phases = append(phases, domain.Phase{
			Name:        "environment",
			Description: "Install application dependencies",
			Critical:    true,
			Action: func() error {
				return classify("environment", deps.Installer.Restore(""))
			},
		})
	}

	phases = append(phases, domain.Phase{
		Name:        "schema-migration",
		Description: "Apply pending database schema migrations",
		Critical:    true,
		// Migrations roll forward only; there is no compensation.
		Action: func() error {
			return classify("schema_migrate", deps.Migrator.Apply())
		},
	})

	phases = append(phases, domain.Phase{
		Name:        "build",
		Description: "Build the application artifact",
		Critical:    true,
		Action: func() error {
			return classify("build", deps.Builder.Build())
		},
	})

	phases = append(phases, domain.Phase{
		Name:        "cutover",
		Description: "Recreate the running stack on the new artifact",
		Critical:    true,
		Cutover:     true,
		Action: func() error {
			return classify("cutover", deps.Controller.Up())
		},
		// A failed cutover leaves the stack in an unknown state. Stopping it
		// is the only safe reversal; restarting the prior artifact is the
		// rollback pipeline's job.
		Compensation: func() error {
			return classify("cutover_compensation", deps.Controller.Stop())
		},
		HealthCheck: deps.Health.Check,
	})

	var enabled []string
	phases = append(phases, domain.Phase{
		Name:        "feature-activation",
		Description: "Enable release feature flags",
		Critical:    false,
		Action: func() error {
			return activateFlags(deps, cfg.FeatureFlags, options.ProgressiveRollout, &enabled)
		},
		Compensation: func() error {
			return deactivateFlags(deps.Flags, enabled)
		},
	})

	phases = append(phases, domain.Phase{
		Name:        "validation",
		Description: "Verify the deployed application is healthy",
		Critical:    true,
		Action: func() error {
			if !deps.Health.Check() {
				return domain.NewActionError(domain.ErrorKindInfrastructure, "validation",
					fmt.Errorf("application did not become healthy"))
			}
			return nil
		},
	})

	return domain.Plan{Service: cfg.ServiceName, Phases: phases}
}

// activateFlags enables the configured release flags. Under progressive
// rollout each flag is gated on a health probe before the next one is
// enabled, so a flag that destabilizes the service stops the rollout there.
// Flags that were enabled are recorded so compensation can disable them.
func activateFlags(deps PlanDeps, names []string, progressive bool, enabled *[]string) error {
	for _, name := range names {
		if err := deps.Flags.Enable(name); err != nil {
			return domain.NewActionError(domain.ErrorKindInfrastructure, "feature_activation",
				fmt.Errorf("failed to enable flag %s: %w", name, err))
		}
		*enabled = append(*enabled, name)

		if progressive && !deps.Health.Check() {
			return domain.NewActionError(domain.ErrorKindInfrastructure, "feature_activation",
				fmt.Errorf("service unhealthy after enabling flag %s", name))
		}
	}
	return nil
}

func deactivateFlags(store flags.Store, enabled []string) error {
	var firstErr error
	for i := len(enabled) - 1; i >= 0; i-- {
		if err := store.Set(enabled[i], false); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to disable flag %s: %w", enabled[i], err)
		}
	}
	return firstErr
}

// classify wraps a collaborator error with an operation name and a failure
// kind so the result records why the phase failed.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := domain.ErrorKindInfrastructure
	if errors.Is(err, context.DeadlineExceeded) {
		kind = domain.ErrorKindTimeout
	}
	return domain.NewActionError(kind, op, err)
}
