package commands

import (
	"context"
	"testing"

	"github.com/pweiskircher/profile-sync/internal/merge"
	"github.com/pweiskircher/profile-sync/internal/profilerr"
)

type unavailableChooser struct{}

func (unavailableChooser) Available() bool { return false }

func (unavailableChooser) Choose(merge.Conflict) (merge.Choice, error) {
	return merge.ChoiceLocal, nil
}

func TestMergeCommandWritesAndCaches(t *testing.T) {
	t.Parallel()

	dir, projectStore := newWorkspace(t)
	fetcher := &fakeFetcher{docs: remoteDocs(t)}

	report, err := RunMerge(context.Background(), dir, MergeOptions{
		Strategy: string(merge.StrategyOrgWins),
		Runtime:  testRuntime(fetcher),
	})
	if err != nil {
		t.Fatalf("RunMerge failed: %v", err)
	}

	if report.Counts.Conflicts != 1 || report.Counts.Resolved != 1 || report.Counts.Unresolved != 0 {
		t.Fatalf("unexpected counts %+v", report.Counts)
	}
	if report.Strategy != string(merge.StrategyOrgWins) {
		t.Fatalf("unexpected strategy %q", report.Strategy)
	}
	if len(report.Profiles) != 1 || report.Profiles[0].Backup == "" {
		t.Fatalf("expected one merged profile with a backup, got %+v", report.Profiles)
	}

	merged, err := projectStore.ReadProfile("Admin")
	if err != nil {
		t.Fatalf("ReadProfile failed: %v", err)
	}
	if got := merged.Flatten()["objectPermissions.Account.allowEdit"]; got != "true" {
		t.Fatalf("expected remote value applied, got allowEdit=%q", got)
	}

	cache, err := projectStore.LoadCache()
	if err != nil {
		t.Fatalf("LoadCache failed: %v", err)
	}
	entry, ok := cache.Profiles["Admin"]
	if !ok {
		t.Fatal("expected cache entry for Admin")
	}
	if entry.RemoteRevision != "rev-1" || entry.LastRunID != "run-test" {
		t.Fatalf("unexpected cache entry %+v", entry)
	}
}

func TestMergeCommandDryRunLeavesStoreAlone(t *testing.T) {
	t.Parallel()

	dir, projectStore := newWorkspace(t)
	fetcher := &fakeFetcher{docs: remoteDocs(t)}

	report, err := RunMerge(context.Background(), dir, MergeOptions{
		Strategy: string(merge.StrategyOrgWins),
		DryRun:   true,
		Runtime:  testRuntime(fetcher),
	})
	if err != nil {
		t.Fatalf("RunMerge failed: %v", err)
	}
	if !report.DryRun {
		t.Fatal("expected dry-run report")
	}

	local, err := projectStore.ReadProfile("Admin")
	if err != nil {
		t.Fatalf("ReadProfile failed: %v", err)
	}
	if got := local.Flatten()["objectPermissions.Account.allowEdit"]; got != "false" {
		t.Fatalf("dry run must not write, got allowEdit=%q", got)
	}

	cache, err := projectStore.LoadCache()
	if err != nil {
		t.Fatalf("LoadCache failed: %v", err)
	}
	if len(cache.Profiles) != 0 {
		t.Fatalf("dry run must not touch the cache, got %+v", cache.Profiles)
	}
}

func TestMergeCommandRecordsNoChanges(t *testing.T) {
	t.Parallel()

	dir, _ := newWorkspace(t)
	local := docFromFlat(t, "Admin", map[string]string{
		"objectPermissions.Account.allowRead": "true",
		"objectPermissions.Account.allowEdit": "false",
	})
	fetcher := &fakeFetcher{docs: wrapDocs("prod", "Admin", local)}

	report, err := RunMerge(context.Background(), dir, MergeOptions{
		Strategy: string(merge.StrategyLocalWins),
		Runtime:  testRuntime(fetcher),
	})
	if err != nil {
		t.Fatalf("RunMerge failed: %v", err)
	}

	if report.Counts.Conflicts != 0 {
		t.Fatalf("unexpected counts %+v", report.Counts)
	}
	if len(report.Profiles) != 1 || report.Profiles[0].Action != "skipped" {
		t.Fatalf("expected a skipped profile, got %+v", report.Profiles)
	}
}

func TestMergeCommandRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	dir, _ := newWorkspace(t)
	fetcher := &fakeFetcher{docs: remoteDocs(t)}

	_, err := RunMerge(context.Background(), dir, MergeOptions{
		Strategy: "shuffle",
		Runtime:  testRuntime(fetcher),
	})
	if !profilerr.IsCode(err, profilerr.CodeInvalidMergeStrategy) {
		t.Fatalf("expected invalid strategy error, got %v", err)
	}
}

func TestMergeCommandInteractiveNeedsTerminal(t *testing.T) {
	t.Parallel()

	dir, _ := newWorkspace(t)
	fetcher := &fakeFetcher{docs: remoteDocs(t)}

	_, err := RunMerge(context.Background(), dir, MergeOptions{
		Strategy: string(merge.StrategyInteractive),
		Chooser:  unavailableChooser{},
		Runtime:  testRuntime(fetcher),
	})
	if !profilerr.IsCode(err, profilerr.CodeAttendedTerminalRequired) {
		t.Fatalf("expected attended terminal error, got %v", err)
	}
}

func TestMergeCommandAbortOnConflictFails(t *testing.T) {
	t.Parallel()

	dir, projectStore := newWorkspace(t)
	fetcher := &fakeFetcher{docs: remoteDocs(t)}

	_, err := RunMerge(context.Background(), dir, MergeOptions{
		Strategy: string(merge.StrategyAbortOnConflict),
		Runtime:  testRuntime(fetcher),
	})
	if !profilerr.IsCode(err, profilerr.CodeMergeConflict) {
		t.Fatalf("expected merge conflict error, got %v", err)
	}

	local, readErr := projectStore.ReadProfile("Admin")
	if readErr != nil {
		t.Fatalf("ReadProfile failed: %v", readErr)
	}
	if got := local.Flatten()["objectPermissions.Account.allowEdit"]; got != "false" {
		t.Fatalf("abort-on-conflict must not write, got allowEdit=%q", got)
	}
}
