package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an action failed. The orchestrator's
// critical/non-critical branching is driven by the phase declaration, but the
// kind is recorded so operators can tell an expected operational failure from
// a timeout or a denied confirmation.
type ErrorKind int

const (
	ErrorKindUnknown ErrorKind = iota
	ErrorKindValidation
	ErrorKindInfrastructure
	ErrorKindTimeout
	ErrorKindDenied
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindValidation:
		return "validation"
	case ErrorKindInfrastructure:
		return "infrastructure"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindDenied:
		return "denied"
	case ErrorKindUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// ActionError is the typed failure returned by actions and steps.
type ActionError struct {
	Kind ErrorKind
	// Op names the operation that failed, e.g. "schema_migrate".
	Op  string
	Err error
}

func (e *ActionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// NewActionError wraps err with an operation name and a failure kind.
func NewActionError(kind ErrorKind, op string, err error) *ActionError {
	return &ActionError{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the failure kind from an error chain. Errors that are not
// ActionErrors report ErrorKindUnknown.
func KindOf(err error) ErrorKind {
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		return actionErr.Kind
	}
	return ErrorKindUnknown
}
