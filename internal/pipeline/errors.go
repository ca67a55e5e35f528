package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/interactive"
)

// StepFailedError wraps a stage failure with the stage's declared name
// and zero-based position. Unwrap preserves the cause so error class
// and code resolution see through it.
type StepFailedError struct {
	Stage contracts.StageName
	Index int
	Err   error
}

func (err *StepFailedError) Error() string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("pipeline stage %q (index %d) failed: %v", err.Stage, err.Index, err.Err)
}

func (err *StepFailedError) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.Err
}

func AsStepFailed(err error) *StepFailedError {
	var typed *StepFailedError
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

type InterruptReason string

const (
	InterruptReasonUserCancelled InterruptReason = "user-cancelled"
	InterruptReasonTimeout       InterruptReason = "timeout"
	InterruptReasonUnknown       InterruptReason = "unknown"
)

// InterruptedError reports that a run stopped at a stage without that
// stage completing. The abandoned operation's result is unknown, not
// rolled back.
type InterruptedError struct {
	Stage  contracts.StageName
	Reason InterruptReason
	Err    error
}

func (err *InterruptedError) Error() string {
	if err == nil {
		return ""
	}
	if err.Err == nil {
		return fmt.Sprintf("pipeline interrupted at stage %q (%s)", err.Stage, err.Reason)
	}
	return fmt.Sprintf("pipeline interrupted at stage %q (%s): %v", err.Stage, err.Reason, err.Err)
}

func (err *InterruptedError) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.Err
}

func AsInterrupted(err error) *InterruptedError {
	var typed *InterruptedError
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

func interruptReason(err error) (InterruptReason, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, interactive.ErrCancelled), errors.Is(err, context.Canceled):
		return InterruptReasonUserCancelled, true
	case errors.Is(err, context.DeadlineExceeded):
		return InterruptReasonTimeout, true
	default:
		return InterruptReasonUnknown, false
	}
}
