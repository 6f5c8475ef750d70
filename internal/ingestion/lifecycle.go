package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition indicates an invalid run status transition.
	ErrInvalidTransition = errors.New("invalid run status transition")

	// ErrTerminalStatusImmutable indicates an attempt to leave a terminal status.
	ErrTerminalStatusImmutable = errors.New("terminal run status is immutable")
)

// IsTerminal reports whether no further transition is allowed from s.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusCompletedWithErrors, RunStatusAborted:
		return true
	default:
		return false
	}
}

// IsValid reports whether s is a known status.
func (s RunStatus) IsValid() bool {
	return s == RunStatusRunning || s.IsTerminal()
}

// ValidateStatusTransition checks a run status change.
//
// Valid transitions:
//   - "" → running
//   - running → any terminal status
//   - terminal → same status (idempotent)
func ValidateStatusTransition(from, to RunStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}

	switch {
	case from == "":
		if to != RunStatusRunning {
			return fmt.Errorf("%w: a run must start as %s, got %s", ErrInvalidTransition, RunStatusRunning, to)
		}

		return nil
	case from.IsTerminal():
		if from != to {
			return fmt.Errorf("%w: %s → %s", ErrTerminalStatusImmutable, from, to)
		}

		return nil
	case from == RunStatusRunning:
		if !to.IsTerminal() {
			return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}
}

// finalStatus derives the terminal status of a finished run.
func finalStatus(r *Result) RunStatus {
	switch {
	case r.Err != nil:
		return RunStatusAborted
	case r.Failed > 0:
		return RunStatusCompletedWithErrors
	default:
		return RunStatusCompleted
	}
}

// transition moves r to status, rejecting invalid changes.
func (r *Result) transition(status RunStatus) error {
	if err := ValidateStatusTransition(r.Status, status); err != nil {
		return err
	}

	r.Status = status

	return nil
}
