// Package domain contains the core types for deployment and rollback runs.
package domain

import "fmt"

// Action performs one unit of deployment work. It returns nil on success or an
// error (typically an *ActionError) describing why the work failed.
type Action func() error

// Predicate reports whether the system is healthy after a phase has run.
type Predicate func() bool

// Phase is a single named unit of work in a deployment plan.
type Phase struct {
	// Name identifies the phase in results, logs and compensation bookkeeping.
	Name string
	// Description is a human-readable summary shown in progress output.
	Description string
	// Critical marks a phase whose failure halts the plan.
	Critical bool
	// Cutover marks the single phase whose wall-clock span is measured as the
	// downtime window and checked against the downtime budget.
	Cutover bool
	// Action performs the phase's work.
	Action Action
	// Compensation, if set, reverses the phase's work during the
	// compensation pass. Optional.
	Compensation Action
	// HealthCheck, if set, gates the phase after its action succeeds. A false
	// result fails the phase exactly like an action error. Optional.
	HealthCheck Predicate
}

// Plan is an ordered sequence of phases. Phases execute in declared order,
// never reordered and never in parallel.
type Plan struct {
	// Service names the application the plan deploys.
	Service string
	Phases  []Phase
}

// Validate checks the structural invariants of a plan: non-empty phase names,
// no duplicate names, and at most one cutover phase.
func (p Plan) Validate() error {
	if len(p.Phases) == 0 {
		return fmt.Errorf("plan has no phases")
	}

	seen := make(map[string]bool, len(p.Phases))
	cutovers := 0
	for i, phase := range p.Phases {
		if phase.Name == "" {
			return fmt.Errorf("phase %d has no name", i)
		}
		if seen[phase.Name] {
			return fmt.Errorf("duplicate phase name: %q", phase.Name)
		}
		seen[phase.Name] = true

		if phase.Action == nil {
			return fmt.Errorf("phase %q has no action", phase.Name)
		}
		if phase.Cutover {
			cutovers++
		}
	}
	if cutovers > 1 {
		return fmt.Errorf("plan declares %d cutover phases, at most one is allowed", cutovers)
	}
	return nil
}

// PhaseNames returns the names of all phases in declared order.
func (p Plan) PhaseNames() []string {
	names := make([]string, len(p.Phases))
	for i, phase := range p.Phases {
		names[i] = phase.Name
	}
	return names
}
