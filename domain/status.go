package domain

import "fmt"

// RunStatus represents the recorded status of a deployment or rollback run.
type RunStatus int

const (
	RunStatusUnknown RunStatus = iota
	RunStatusStarted
	RunStatusCompleted
	RunStatusFailed
)

func (s RunStatus) String() string {
	switch s {
	case RunStatusStarted:
		return "started"
	case RunStatusCompleted:
		return "completed"
	case RunStatusFailed:
		return "failed"
	case RunStatusUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

func ParseRunStatus(s string) (RunStatus, error) {
	switch s {
	case "started":
		return RunStatusStarted, nil
	case "completed":
		return RunStatusCompleted, nil
	case "failed":
		return RunStatusFailed, nil
	case "unknown":
		return RunStatusUnknown, nil
	default:
		return RunStatusUnknown, fmt.Errorf("invalid run status: %q", s)
	}
}

// RunKind distinguishes deployment runs from rollback runs in the history.
type RunKind int

const (
	RunKindUnknown RunKind = iota
	RunKindDeployment
	RunKindRollback
)

func (k RunKind) String() string {
	switch k {
	case RunKindDeployment:
		return "deployment"
	case RunKindRollback:
		return "rollback"
	case RunKindUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

func ParseRunKind(s string) (RunKind, error) {
	switch s {
	case "deployment":
		return RunKindDeployment, nil
	case "rollback":
		return RunKindRollback, nil
	case "unknown":
		return RunKindUnknown, nil
	default:
		return RunKindUnknown, fmt.Errorf("invalid run kind: %q", s)
	}
}
