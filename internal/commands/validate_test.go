package commands

import (
	"context"
	"testing"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/output"
)

func TestValidateCommandCleanWorkspace(t *testing.T) {
	t.Parallel()

	dir, _ := newWorkspace(t)

	report, err := RunValidate(context.Background(), dir, ValidateOptions{RunID: "run-test"})
	if err != nil {
		t.Fatalf("RunValidate failed: %v", err)
	}

	if report.Counts.Compared != 1 || report.Counts.Errors != 0 {
		t.Fatalf("unexpected counts %+v", report.Counts)
	}
	if got := output.ResolveExitCode(report, nil); got != contracts.ExitCodeSuccess {
		t.Fatalf("expected exit 0, got %d", got)
	}
}

func TestValidateCommandCountsIssues(t *testing.T) {
	t.Parallel()

	dir, projectStore := newWorkspace(t)
	broken := docFromFlat(t, "Broken", map[string]string{
		"objectPermissions.Case.allowEdit": "true",
		"objectPermissions.Case.allowRead": "false",
	})
	if _, err := projectStore.WriteProfile(broken); err != nil {
		t.Fatalf("WriteProfile failed: %v", err)
	}

	report, err := RunValidate(context.Background(), dir, ValidateOptions{
		Profiles: []string{"Broken"},
	})
	if err != nil {
		t.Fatalf("RunValidate failed: %v", err)
	}

	if report.Counts.Errors == 0 {
		t.Fatalf("expected validation issues, got %+v", report.Counts)
	}
	if len(report.Profiles) != 1 || report.Profiles[0].Status != contracts.ProfileStatusError {
		t.Fatalf("unexpected profile results %+v", report.Profiles)
	}
	if got := output.ResolveExitCode(report, nil); got != contracts.ExitCodeError {
		t.Fatalf("expected exit 1, got %d", got)
	}
}
