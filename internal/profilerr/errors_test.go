package profilerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pweiskircher/profile-sync/internal/contracts"
)

func TestClassesCarryExitCodesAndRecoverability(t *testing.T) {
	testCases := []struct {
		name        string
		err         *Error
		class       Class
		exitCode    contracts.ExitCode
		recoverable bool
	}{
		{
			name:     "user error",
			err:      NewUser(CodeInvalidMergeStrategy, "unknown strategy"),
			class:    ClassUser,
			exitCode: contracts.ExitCodeError,
		},
		{
			name:        "system error",
			err:         NewSystem(CodePartialRetrieval, "2 of 3 sources failed"),
			class:       ClassSystem,
			exitCode:    contracts.ExitCodeError,
			recoverable: true,
		},
		{
			name:     "fatal error",
			err:      NewFatal(CodeUnwrapFailed, "unwrapped a failed outcome"),
			class:    ClassFatal,
			exitCode: contracts.ExitCodeFatal,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := ClassOf(testCase.err); got != testCase.class {
				t.Fatalf("unexpected class: got=%s want=%s", got, testCase.class)
			}
			if got := ExitCodeFor(testCase.err); got != testCase.exitCode {
				t.Fatalf("unexpected exit code: got=%d want=%d", got, testCase.exitCode)
			}
			if got := IsRecoverable(testCase.err); got != testCase.recoverable {
				t.Fatalf("unexpected recoverable flag: got=%v want=%v", got, testCase.recoverable)
			}
		})
	}
}

func TestFatalSuggestsDefectReport(t *testing.T) {
	err := NewFatal(CodeUnwrapFailed, "boom")
	actions := ActionsOf(err)
	if len(actions) == 0 {
		t.Fatal("fatal error must carry remediation actions")
	}
	last := actions[len(actions)-1]
	if last != "file a defect report with the full command output" {
		t.Fatalf("fatal error must end with defect-report action, got %q", last)
	}
}

func TestIsCodeWalksWrapChain(t *testing.T) {
	inner := NewSystem(CodeBackupFailed, "disk full")
	wrapped := fmt.Errorf("merge aborted: %w", inner)
	outer := NewUser(CodeMergeConflict, "conflicts require attention").WithCause(wrapped)

	if !IsCode(outer, CodeMergeConflict) {
		t.Fatal("expected outer code to match")
	}
	if !IsCode(outer, CodeBackupFailed) {
		t.Fatal("expected nested code to match through the wrap chain")
	}
	if IsCode(outer, CodeMatrixBuildFailed) {
		t.Fatal("unexpected code match")
	}
}

func TestUntypedErrorsDefaultToSystem(t *testing.T) {
	err := errors.New("socket closed")
	if got := ClassOf(err); got != ClassSystem {
		t.Fatalf("unexpected class for untyped error: %s", got)
	}
	if got := ExitCodeFor(err); got != contracts.ExitCodeError {
		t.Fatalf("unexpected exit code for untyped error: %d", got)
	}
	if IsRecoverable(err) {
		t.Fatal("untyped errors must not claim recoverability")
	}
}

func TestExitCodeForNil(t *testing.T) {
	if got := ExitCodeFor(nil); got != contracts.ExitCodeSuccess {
		t.Fatalf("nil error must map to success, got %d", got)
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewSystem(CodeAllEnvironmentsFailed, "every source failed").WithCause(cause)
	if got := err.Error(); got != "every source failed: connection refused" {
		t.Fatalf("unexpected error string %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause must be reachable via Unwrap")
	}
}
