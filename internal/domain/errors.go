package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPhaseNotFound indicates a phase value outside the ten known phases.
	ErrPhaseNotFound = errors.New("phase not found")

	// ErrTaskNotFound indicates a task id that does not exist in the given phase.
	ErrTaskNotFound = errors.New("task not found")

	// ErrStudyNotFound indicates no progress is tracked for the study.
	ErrStudyNotFound = errors.New("study not found")

	// ErrStudyExists indicates an attempt to create a study that is already stored.
	ErrStudyExists = errors.New("study already exists")

	// ErrMalformedSnapshot indicates a progress snapshot that could not be
	// parsed or is missing required top-level fields.
	ErrMalformedSnapshot = errors.New("malformed progress snapshot")
)

type PhaseNotFoundError struct {
	Phase string
}

func (e *PhaseNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrPhaseNotFound, e.Phase)
}

func (e *PhaseNotFoundError) Unwrap() error { return ErrPhaseNotFound }

type TaskNotFoundError struct {
	Phase  ResearchPhase
	TaskID string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q in phase %s", ErrTaskNotFound, e.TaskID, e.Phase)
}

func (e *TaskNotFoundError) Unwrap() error { return ErrTaskNotFound }

// MalformedSnapshotError reports a snapshot rejected as a whole. Err holds
// the underlying decode error, if any.
type MalformedSnapshotError struct {
	Reason string
	Err    error
}

func (e *MalformedSnapshotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrMalformedSnapshot, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedSnapshot, e.Reason)
}

func (e *MalformedSnapshotError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedSnapshot, e.Err}
	}
	return []error{ErrMalformedSnapshot}
}
