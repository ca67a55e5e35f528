package commands

import (
	"context"
	"testing"

	"github.com/pweiskircher/profile-sync/internal/contracts"
)

func TestCompareCommandReportsConflicts(t *testing.T) {
	t.Parallel()

	dir, projectStore := newWorkspace(t)
	fetcher := &fakeFetcher{docs: remoteDocs(t)}

	report, err := RunCompare(context.Background(), dir, CompareOptions{
		Runtime: testRuntime(fetcher),
	})
	if err != nil {
		t.Fatalf("RunCompare failed: %v", err)
	}

	if report.RunID != "run-test" {
		t.Fatalf("unexpected run id %q", report.RunID)
	}
	if report.Counts.Compared != 1 || report.Counts.Conflicts != 1 {
		t.Fatalf("unexpected counts %+v", report.Counts)
	}

	if len(report.Conflicts) != 1 {
		t.Fatalf("expected one conflict, got %+v", report.Conflicts)
	}
	conflict := report.Conflicts[0]
	if conflict.Path != "objectPermissions.Account.allowEdit" {
		t.Fatalf("unexpected conflict path %q", conflict.Path)
	}
	if conflict.Kind != contracts.ConflictKindChanged || conflict.Decision != "" {
		t.Fatalf("unexpected conflict %+v", conflict)
	}
	if conflict.Local != "false" || conflict.Remote != "true" {
		t.Fatalf("unexpected conflict values %+v", conflict)
	}

	local, err := projectStore.ReadProfile("Admin")
	if err != nil {
		t.Fatalf("ReadProfile failed: %v", err)
	}
	if got := local.Flatten()["objectPermissions.Account.allowEdit"]; got != "false" {
		t.Fatalf("compare must not write, got allowEdit=%q", got)
	}
}

func TestCompareCommandSurfacesPartialRetrieval(t *testing.T) {
	t.Parallel()

	dir, _ := newWorkspace(t)
	fetcher := &fakeFetcher{
		docs: remoteDocs(t),
		errs: map[string]error{"staging": errStagingDown},
	}

	report, err := RunCompare(context.Background(), dir, CompareOptions{
		Sources: []string{"prod", "staging"},
		Runtime: testRuntime(fetcher),
	})
	if err != nil {
		t.Fatalf("RunCompare failed: %v", err)
	}

	if report.Counts.Warnings != 1 {
		t.Fatalf("expected one warning, got %+v", report.Counts)
	}

	found := false
	for _, profileResult := range report.Profiles {
		if profileResult.Name == "staging" && profileResult.Status == contracts.ProfileStatusWarning {
			found = true
			if len(profileResult.Messages) != 1 || profileResult.Messages[0].ReasonCode != contracts.ReasonCodePartialRetrieval {
				t.Fatalf("unexpected warning messages %+v", profileResult.Messages)
			}
		}
	}
	if !found {
		t.Fatalf("expected a warning entry for staging, got %+v", report.Profiles)
	}
}
