package commands

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pweiskircher/profile-sync/internal/config"
	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/profile"
	"github.com/pweiskircher/profile-sync/internal/remote"
	"github.com/pweiskircher/profile-sync/internal/store"
)

var errStagingDown = &remote.Error{
	Code:    remote.ErrorCodeTransport,
	Source:  "staging",
	Message: "connection refused",
}

type fakeFetcher struct {
	docs  map[string]map[string]profile.Document
	lists map[string][]remote.ProfileInfo
	errs  map[string]error
}

func (f *fakeFetcher) FetchProfile(ctx context.Context, source, name string) (remote.RemoteProfile, error) {
	if err := f.errs[source]; err != nil {
		return remote.RemoteProfile{}, err
	}
	if err := f.errs[source+"/"+name]; err != nil {
		return remote.RemoteProfile{}, err
	}
	doc, ok := f.docs[source][name]
	if !ok {
		return remote.RemoteProfile{}, &remote.Error{
			Code:    remote.ErrorCodeProfileNotFound,
			Source:  source,
			Message: "profile " + name + " does not exist",
		}
	}
	return remote.RemoteProfile{Name: name, Source: source, Revision: "rev-1", Document: doc}, nil
}

func (f *fakeFetcher) ListProfiles(ctx context.Context, source string) ([]remote.ProfileInfo, error) {
	if err := f.errs[source]; err != nil {
		return nil, err
	}
	return f.lists[source], nil
}

func docFromFlat(t *testing.T, name string, flat map[string]string) profile.Document {
	t.Helper()

	doc, err := profile.FromFlat(name, flat)
	if err != nil {
		t.Fatalf("FromFlat failed: %v", err)
	}
	return doc
}

// newWorkspace lays out a project dir with one stored Admin profile and a
// config naming a single prod org.
func newWorkspace(t *testing.T) (string, *store.Store) {
	t.Helper()

	dir := t.TempDir()
	projectStore, err := store.New(dir)
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	if err := projectStore.EnsureLayout(); err != nil {
		t.Fatalf("EnsureLayout failed: %v", err)
	}

	local := docFromFlat(t, "Admin", map[string]string{
		"objectPermissions.Account.allowRead": "true",
		"objectPermissions.Account.allowEdit": "false",
	})
	if _, err := projectStore.WriteProfile(local); err != nil {
		t.Fatalf("WriteProfile failed: %v", err)
	}

	cfg := config.Default()
	cfg.DefaultOrg = "prod"
	cfg.Orgs["prod"] = config.OrgProfile{BaseURL: "https://prod.example.com"}
	if err := config.Write(filepath.Join(dir, contracts.DefaultConfigFilePath), cfg); err != nil {
		t.Fatalf("config.Write failed: %v", err)
	}

	return dir, projectStore
}

func testRuntime(fetcher remote.Fetcher) RuntimeOptions {
	return RuntimeOptions{
		Environment: config.EnvironmentFromLookup(func(key string) (string, bool) {
			if key == config.EnvToken {
				return "test-token", true
			}
			return "", false
		}),
		Fetcher: fetcher,
		Now:     func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
		RunID:   "run-test",
	}
}

func wrapDocs(source, name string, doc profile.Document) map[string]map[string]profile.Document {
	return map[string]map[string]profile.Document{source: {name: doc}}
}

func remoteDocs(t *testing.T) map[string]map[string]profile.Document {
	t.Helper()

	return map[string]map[string]profile.Document{
		"prod": {
			"Admin": docFromFlat(t, "Admin", map[string]string{
				"objectPermissions.Account.allowRead": "true",
				"objectPermissions.Account.allowEdit": "true",
			}),
		},
	}
}
