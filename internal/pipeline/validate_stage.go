package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pweiskircher/profile-sync/internal/profile"
	"github.com/pweiskircher/profile-sync/internal/profilerr"
)

type ValidateOptions struct {
	// ReportOnly collects validation reports without failing the stage,
	// for commands whose exit code is derived from the report counts.
	ReportOnly bool
}

func runValidate(ctx context.Context, pctx Context, opts ValidateOptions, state State) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	documents, err := documentsToValidate(pctx, state)
	if err != nil {
		return State{}, err
	}

	logger := stageLogger(pctx)
	next := state.clone()

	issueTotal := 0
	for _, document := range documents {
		report := profile.Validate(document)
		next.ValidationReports = append(next.ValidationReports, report)
		issueTotal += len(report.Issues)
	}

	logger.Debug("validate stage finished",
		zap.Int("documents", len(documents)),
		zap.Int("issues", issueTotal))

	if issueTotal > 0 && !opts.ReportOnly {
		return State{}, profilerr.NewUser(profilerr.CodeMergeValidationFailed,
			fmt.Sprintf("validation found %d issue(s) across %d document(s)", issueTotal, len(documents)),
			"inspect the per-document validation report",
			"fix the offending entries and rerun")
	}

	return next, nil
}

// documentsToValidate picks the freshest view of each profile: merged
// output when a merge ran, otherwise the compared local documents,
// otherwise the store copies named in the run context.
func documentsToValidate(pctx Context, state State) ([]profile.Document, error) {
	if len(state.MergeResults) > 0 {
		documents := make([]profile.Document, 0, len(state.MergeResults))
		for _, result := range state.MergeResults {
			documents = append(documents, result.Merged)
		}
		return documents, nil
	}

	if len(state.Comparisons) > 0 {
		seen := make(map[string]struct{}, len(state.Comparisons))
		documents := make([]profile.Document, 0, len(state.Comparisons))
		for _, comparison := range state.Comparisons {
			if _, ok := seen[comparison.ProfileName]; ok {
				continue
			}
			seen[comparison.ProfileName] = struct{}{}
			documents = append(documents, comparison.Local)
		}
		return documents, nil
	}

	if pctx.Store == nil {
		return nil, profilerr.NewFatal(profilerr.CodePipelineStepFailed,
			"validate stage is missing its store collaborator")
	}
	if len(pctx.ProfileNames) == 0 {
		return nil, profilerr.NewUser(profilerr.CodePipelineStepFailed,
			"validate requires at least one profile name",
			"pass one or more profile names")
	}

	documents := make([]profile.Document, 0, len(pctx.ProfileNames))
	for _, name := range sortedUnique(pctx.ProfileNames) {
		document, err := pctx.Store.ReadProfile(name)
		if err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}
	return documents, nil
}
