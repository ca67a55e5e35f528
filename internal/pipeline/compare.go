// pattern: Functional Core
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/merge"
	"github.com/pweiskircher/profile-sync/internal/profile"
	"github.com/pweiskircher/profile-sync/internal/profilerr"
	"github.com/pweiskircher/profile-sync/internal/remote"
)

type CompareOptions struct {
	// Sources overrides the run context's source list for this stage.
	Sources []string
}

type fetchJob struct {
	profileName string
	source      string
}

type fetchResult struct {
	job     fetchJob
	fetched remote.RemoteProfile
	err     error
}

func runCompare(ctx context.Context, pctx Context, opts CompareOptions, state State) (State, error) {
	if pctx.Remote == nil || pctx.Store == nil {
		return State{}, profilerr.NewFatal(profilerr.CodePipelineStepFailed,
			"compare stage is missing its remote or store collaborator")
	}

	sources := sortedUnique(opts.Sources)
	if len(sources) == 0 {
		sources = sortedUnique(pctx.Sources)
	}
	if len(sources) == 0 {
		return State{}, profilerr.NewUser(profilerr.CodePipelineStepFailed,
			"compare requires at least one source alias",
			"pass --source or configure a default org")
	}
	if len(pctx.ProfileNames) == 0 {
		return State{}, profilerr.NewUser(profilerr.CodePipelineStepFailed,
			"compare requires at least one profile name",
			"pass one or more profile names")
	}

	logger := stageLogger(pctx)
	profileNames := sortedUnique(pctx.ProfileNames)

	locals := make(map[string]profile.Document, len(profileNames))
	for _, name := range profileNames {
		local, err := pctx.Store.ReadProfile(name)
		if err != nil {
			return State{}, err
		}
		locals[name] = local
	}

	jobs := make([]fetchJob, 0, len(profileNames)*len(sources))
	for _, name := range profileNames {
		for _, source := range sources {
			jobs = append(jobs, fetchJob{profileName: name, source: source})
		}
	}

	results, err := fetchAll(ctx, pctx, jobs)
	if err != nil {
		return State{}, err
	}

	next := state.clone()

	failedBySource := make(map[string][]string, len(sources))
	succeededBySource := make(map[string]int, len(sources))
	for _, result := range results {
		if result.err != nil {
			failedBySource[result.job.source] = append(failedBySource[result.job.source], result.err.Error())
			continue
		}
		succeededBySource[result.job.source]++
	}

	if len(succeededBySource) == 0 {
		details := make([]string, 0, len(sources))
		for _, source := range sources {
			if messages := failedBySource[source]; len(messages) > 0 {
				details = append(details, messages[0])
			}
		}
		return State{}, profilerr.NewSystem(profilerr.CodeAllEnvironmentsFailed,
			fmt.Sprintf("every source failed during retrieval (%s): %s",
				strings.Join(sources, ", "), strings.Join(details, "; ")),
			"check connectivity and credentials for each org",
			"retry once the orgs are reachable").NonRecoverable()
	}

	for _, source := range sources {
		messages, failed := failedBySource[source]
		if !failed {
			continue
		}
		next.FailedSources = append(next.FailedSources, source)
		next.Warnings = append(next.Warnings, Warning{
			Code:    contracts.ReasonCodePartialRetrieval,
			Source:  source,
			Message: fmt.Sprintf("retrieval from %q failed, proceeding without it: %s", source, messages[0]),
		})
	}
	next.FailedSources = sortedUnique(next.FailedSources)

	for _, result := range results {
		if result.err != nil {
			continue
		}
		local := locals[result.job.profileName]
		conflicts := merge.Diff(local, result.fetched.Document)
		next.Comparisons = append(next.Comparisons, Comparison{
			ProfileName:    result.job.profileName,
			Source:         result.job.source,
			Local:          local,
			Remote:         result.fetched.Document,
			RemoteRevision: result.fetched.Revision,
			Conflicts:      conflicts,
		})
	}
	sort.Slice(next.Comparisons, func(i, j int) bool {
		if next.Comparisons[i].ProfileName != next.Comparisons[j].ProfileName {
			return next.Comparisons[i].ProfileName < next.Comparisons[j].ProfileName
		}
		return next.Comparisons[i].Source < next.Comparisons[j].Source
	})

	if len(sources) > 1 {
		matrix, matrixErr := buildMatrix(profileNames, sources, next.Comparisons)
		if matrixErr != nil {
			return State{}, matrixErr
		}
		next.Matrix = matrix
	}

	logger.Debug("compare stage finished",
		zap.Int("profiles", len(profileNames)),
		zap.Int("sources", len(sources)),
		zap.Int("conflicts", next.TotalConflicts()),
		zap.Strings("failed_sources", next.FailedSources))

	return next, nil
}

// fetchAll dispatches every job concurrently, bounded by the context's
// fetch concurrency, and waits for all dispatched fetches to settle
// before returning.
func fetchAll(ctx context.Context, pctx Context, jobs []fetchJob) ([]fetchResult, error) {
	concurrency := pctx.FetchConcurrency
	if concurrency <= 0 {
		concurrency = contracts.DefaultFetchConcurrency
	}

	sem := semaphore.NewWeighted(concurrency)
	results := make([]fetchResult, len(jobs))
	var wg sync.WaitGroup

	var dispatchErr error
	for index, job := range jobs {
		if err := sem.Acquire(ctx, 1); err != nil {
			dispatchErr = err
			break
		}

		wg.Add(1)
		go func(index int, job fetchJob) {
			defer wg.Done()
			defer sem.Release(1)
			defer func() {
				if recovered := recover(); recovered != nil {
					results[index] = fetchResult{job: job, err: profilerr.NewSystem(
						profilerr.CodeParallelExecutionFailed,
						fmt.Sprintf("fetch dispatch for %q from %q panicked: %v", job.profileName, job.source, recovered),
						"retry the same batch sequentially with --fetch-concurrency 1")}
				}
			}()

			fetched, err := pctx.Remote.FetchProfile(ctx, job.source, job.profileName)
			results[index] = fetchResult{job: job, fetched: fetched, err: err}
		}(index, job)
	}

	wg.Wait()

	if dispatchErr != nil {
		if reason, interrupted := interruptReason(dispatchErr); interrupted {
			return nil, &InterruptedError{Stage: contracts.StageCompare, Reason: reason, Err: dispatchErr}
		}
		return nil, profilerr.NewSystem(profilerr.CodeParallelExecutionFailed,
			"concurrent fetch dispatch failed",
			"retry the same batch sequentially with --fetch-concurrency 1").WithCause(dispatchErr)
	}

	return results, nil
}

func buildMatrix(profileNames []string, sources []string, comparisons []Comparison) (matrix *Matrix, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			matrix = nil
			err = profilerr.NewSystem(profilerr.CodeMatrixBuildFailed,
				fmt.Sprintf("failed to assemble the cross-source comparison matrix: %v", recovered),
				"retry with fewer sources")
		}
	}()

	cells := make([]MatrixCell, 0, len(comparisons))
	for _, comparison := range comparisons {
		cells = append(cells, MatrixCell{
			ProfileName: comparison.ProfileName,
			Source:      comparison.Source,
			Conflicts:   append([]merge.Conflict(nil), comparison.Conflicts...),
		})
	}

	return &Matrix{
		Profiles: append([]string(nil), profileNames...),
		Sources:  append([]string(nil), sources...),
		Cells:    cells,
	}, nil
}

func stageLogger(pctx Context) *zap.Logger {
	if pctx.Logger == nil {
		return zap.NewNop()
	}
	return pctx.Logger
}
