// pattern: Imperative Shell
package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pweiskircher/profile-sync/internal/config"
	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/merge"
	"github.com/pweiskircher/profile-sync/internal/pipeline"
	"github.com/pweiskircher/profile-sync/internal/remote"
	"github.com/pweiskircher/profile-sync/internal/store"
)

// RuntimeOptions carries the cross-command knobs: org selection, transport
// overrides, and injectable collaborators for tests.
type RuntimeOptions struct {
	Org              string
	BaseURL          string
	APIVersion       string
	Environment      config.Environment
	Fetcher          remote.Fetcher
	Logger           *zap.Logger
	Now              func() time.Time
	RunID            string
	FetchConcurrency int64
}

// session is the assembled per-run wiring shared by every network-facing
// command: the project store, resolved settings, and a fetcher routing to
// the selected org aliases.
type session struct {
	store    *store.Store
	cfg      config.Config
	settings config.RuntimeSettings
	fetcher  remote.Fetcher
	sources  []string
	logger   *zap.Logger
	now      func() time.Time
	runID    string
}

func newSession(workDir string, sources []string, runtime RuntimeOptions, requireToken bool) (*session, error) {
	projectStore, err := store.New(workDir)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Read(filepath.Join(workDir, contracts.DefaultConfigFilePath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	environment := runtime.Environment
	if environment.IsZero() {
		environment = config.EnvironmentFromOS()
	}

	flags := config.RuntimeFlags{
		Org:        runtime.Org,
		BaseURL:    runtime.BaseURL,
		APIVersion: runtime.APIVersion,
	}
	settings, err := config.Resolve(cfg, flags, environment, config.ResolveOptions{RequireToken: requireToken})
	if err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		sources = []string{settings.OrgAlias}
	}

	fetcher := runtime.Fetcher
	if fetcher == nil {
		fetcher, err = buildRegistry(cfg, environment, flags, sources, requireToken)
		if err != nil {
			return nil, err
		}
	}

	logger := runtime.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := runtime.Now
	if now == nil {
		now = time.Now
	}
	runID := runtime.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	return &session{
		store:    projectStore,
		cfg:      cfg,
		settings: settings,
		fetcher:  fetcher,
		sources:  sources,
		logger:   logger,
		now:      now,
		runID:    runID,
	}, nil
}

// buildRegistry resolves each requested alias against the config so per-org
// base URLs and token_env indirections apply, then wires one HTTP adapter
// per alias.
func buildRegistry(cfg config.Config, environment config.Environment, flags config.RuntimeFlags, sources []string, requireToken bool) (*remote.Registry, error) {
	adapters := make([]*remote.Adapter, 0, len(sources))
	for _, alias := range sources {
		aliasFlags := flags
		aliasFlags.Org = alias
		settings, err := config.Resolve(cfg, aliasFlags, environment, config.ResolveOptions{RequireToken: requireToken})
		if err != nil {
			return nil, err
		}

		adapter, err := remote.NewAdapter(remote.AdapterOptions{
			Source:     alias,
			BaseURL:    settings.BaseURL,
			Token:      settings.Token,
			APIVersion: settings.APIVersion,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize adapter for org %q: %w", alias, err)
		}
		adapters = append(adapters, adapter)
	}
	return remote.NewRegistry(adapters...), nil
}

func (s *session) pipelineContext(profiles []string, chooser merge.Chooser, concurrency int64) pipeline.Context {
	return pipeline.Context{
		Remote:           s.fetcher,
		Store:            s.store,
		ProfileNames:     profiles,
		Sources:          s.sources,
		APIVersion:       s.settings.APIVersion,
		Chooser:          chooser,
		Logger:           s.logger,
		RunID:            s.runID,
		FetchConcurrency: concurrency,
		Now:              s.now,
	}
}

// resolveProfileNames falls back to every stored profile when the caller
// names none.
func (s *session) resolveProfileNames(requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	names, err := s.store.ListProfiles()
	if err != nil {
		return nil, err
	}
	return names, nil
}

func conflictReason(kind merge.Kind) contracts.ReasonCode {
	switch kind {
	case merge.KindAdded:
		return contracts.ReasonCodeConflictRemoteOnly
	case merge.KindRemoved:
		return contracts.ReasonCodeConflictLocalOnly
	default:
		return contracts.ReasonCodeConflictChangedBoth
	}
}

func conflictKindLabel(kind merge.Kind) contracts.ConflictKindLabel {
	switch kind {
	case merge.KindAdded:
		return contracts.ConflictKindAdded
	case merge.KindRemoved:
		return contracts.ConflictKindRemoved
	default:
		return contracts.ConflictKindChanged
	}
}

func conflictResult(conflict merge.Conflict, decision string) contracts.ConflictResult {
	result := contracts.ConflictResult{
		Path:       conflict.ElementPath,
		Kind:       conflictKindLabel(conflict.Kind()),
		Local:      conflict.Local(),
		Remote:     conflict.Remote(),
		Decision:   decision,
		ReasonCode: conflictReason(conflict.Kind()),
	}
	if decision == string(merge.ChoiceSkip) {
		result.ReasonCode = contracts.ReasonCodeConflictSkipped
	}
	return result
}

// updateCache records the written path, remote revision, and run id for
// every profile a merge actually wrote.
func (s *session) updateCache(results []merge.Result, revisions map[string]string) error {
	if len(results) == 0 {
		return nil
	}

	cache, err := s.store.LoadCache()
	if err != nil {
		return err
	}
	if cache.Profiles == nil {
		cache.Profiles = make(map[string]store.CacheEntry)
	}

	syncedAt := s.now().UTC().Format(time.RFC3339)
	for _, result := range results {
		if result.WrittenPath == "" {
			continue
		}
		cache.Profiles[result.ProfileName] = store.CacheEntry{
			Path:           result.WrittenPath,
			RemoteRevision: revisions[result.ProfileName],
			SyncedAt:       syncedAt,
			LastRunID:      s.runID,
		}
	}

	return s.store.SaveCache(cache)
}

func revisionsFromComparisons(comparisons []pipeline.Comparison) map[string]string {
	revisions := make(map[string]string, len(comparisons))
	for _, comparison := range comparisons {
		revisions[comparison.ProfileName] = comparison.RemoteRevision
	}
	return revisions
}
