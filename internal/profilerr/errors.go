package profilerr

import (
	"errors"
	"fmt"

	"github.com/pweiskircher/profile-sync/internal/contracts"
)

// Class separates who has to act on a failure: the caller (user), the
// environment (system), or the maintainers (fatal).
type Class string

const (
	ClassUser   Class = "user"
	ClassSystem Class = "system"
	ClassFatal  Class = "fatal"
)

type Code string

const (
	CodeInvalidMergeStrategy     Code = "invalid_merge_strategy"
	CodeProfileNotFound          Code = "profile_not_found"
	CodeMergeConflict            Code = "merge_conflict"
	CodeNoChangesToMerge         Code = "no_changes_to_merge"
	CodeBackupFailed             Code = "backup_failed"
	CodeMergeValidationFailed    Code = "merge_validation_failed"
	CodeAttendedTerminalRequired Code = "attended_terminal_required"
	CodeComputationFailed        Code = "computation_failed"
	CodeFlatMapFailed            Code = "flat_map_failed"
	CodeRecoveryFailed           Code = "recovery_failed"
	CodeUnwrapFailed             Code = "unwrap_failed"
	CodePipelineStepFailed       Code = "pipeline_step_failed"
	CodePipelineInterrupted      Code = "pipeline_interrupted"
	CodeAllEnvironmentsFailed    Code = "all_environments_failed"
	CodePartialRetrieval         Code = "partial_retrieval"
	CodeMatrixBuildFailed        Code = "matrix_build_failed"
	CodeParallelExecutionFailed  Code = "parallel_execution_failed"
)

// Error is the shared failure envelope. Every fallible subsystem wraps its
// failures in one so downstream tooling can read class, code, remediation
// actions and the recoverable flag without knowing the producing package.
type Error struct {
	Class       Class
	Code        Code
	Message     string
	Actions     []string
	Recoverable bool
	Err         error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	base := e.Message
	if base == "" {
		base = string(e.Code)
	}
	if e.Err == nil {
		return base
	}
	return fmt.Sprintf("%s: %v", base, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) ExitCode() contracts.ExitCode {
	if e == nil {
		return contracts.ExitCodeSuccess
	}
	if e.Class == ClassFatal {
		return contracts.ExitCodeFatal
	}
	return contracts.ExitCodeError
}

// NonRecoverable returns a copy with the recoverable flag cleared, for system
// failures where a retry cannot help.
func (e *Error) NonRecoverable() *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Recoverable = false
	return &clone
}

// WithCause returns a copy carrying err as the wrapped cause.
func (e *Error) WithCause(err error) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Err = err
	return &clone
}

// NewUser builds a non-recoverable failure the caller fixes by changing input.
func NewUser(code Code, message string, actions ...string) *Error {
	return &Error{Class: ClassUser, Code: code, Message: message, Actions: actions}
}

// NewSystem builds a failure caused by an external dependency. Recoverable by
// default so downstream tooling may suggest a retry.
func NewSystem(code Code, message string, actions ...string) *Error {
	return &Error{Class: ClassSystem, Code: code, Message: message, Actions: actions, Recoverable: true}
}

// NewFatal builds an internal invariant violation.
func NewFatal(code Code, message string, actions ...string) *Error {
	actions = append(actions, "file a defect report with the full command output")
	return &Error{Class: ClassFatal, Code: code, Message: message, Actions: actions}
}

func As(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

// ClassOf walks the wrap chain for the nearest typed error. Untyped errors are
// treated as system failures.
func ClassOf(err error) Class {
	if typed := As(err); typed != nil {
		return typed.Class
	}
	return ClassSystem
}

func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code
	}
	return ""
}

func IsCode(err error, code Code) bool {
	for candidate := err; candidate != nil; candidate = errors.Unwrap(candidate) {
		var typed *Error
		if errors.As(candidate, &typed) && typed.Code == code {
			return true
		}
	}
	return false
}

func IsRecoverable(err error) bool {
	if typed := As(err); typed != nil {
		return typed.Recoverable
	}
	return false
}

func ActionsOf(err error) []string {
	if typed := As(err); typed != nil {
		return append([]string(nil), typed.Actions...)
	}
	return nil
}

// ExitCodeFor maps any error to the CLI exit-code matrix.
func ExitCodeFor(err error) contracts.ExitCode {
	if err == nil {
		return contracts.ExitCodeSuccess
	}
	if typed := As(err); typed != nil {
		return typed.ExitCode()
	}
	return contracts.ExitCodeError
}
