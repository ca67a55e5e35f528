package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/pweiskircher/profile-sync/internal/merge"
	"github.com/pweiskircher/profile-sync/internal/profilerr"
)

type MergeOptions struct {
	Strategy   merge.Strategy
	SkipBackup bool
	DryRun     bool
}

func runMerge(ctx context.Context, pctx Context, opts MergeOptions, state State) (State, error) {
	if pctx.Store == nil {
		return State{}, profilerr.NewFatal(profilerr.CodePipelineStepFailed,
			"merge stage is missing its store collaborator")
	}
	if state.Matrix != nil {
		return State{}, profilerr.NewUser(profilerr.CodePipelineStepFailed,
			"merge requires a single source; the compare stage produced a multi-source matrix",
			"rerun with exactly one --source")
	}
	if len(state.Comparisons) == 0 {
		return State{}, profilerr.NewUser(profilerr.CodePipelineStepFailed,
			"merge requires compare results; declare a compare stage before merge")
	}

	logger := stageLogger(pctx)
	merger := merge.Merger{
		Store:      pctx.Store,
		Chooser:    pctx.Chooser,
		SkipBackup: opts.SkipBackup,
		DryRun:     opts.DryRun,
		Logger:     pctx.Logger,
		Now:        pctx.Now,
	}

	next := state.clone()
	for _, comparison := range next.Comparisons {
		result, err := merger.Merge(ctx, comparison.Local, comparison.Remote, opts.Strategy)
		if profilerr.IsCode(err, profilerr.CodeNoChangesToMerge) {
			next.NoChanges = append(next.NoChanges, comparison.ProfileName)
			continue
		}
		if err != nil {
			return State{}, err
		}
		next.MergeResults = append(next.MergeResults, result)
	}

	logger.Debug("merge stage finished",
		zap.String("strategy", string(opts.Strategy)),
		zap.Int("merged", len(next.MergeResults)),
		zap.Int("unchanged", len(next.NoChanges)))

	return next, nil
}
