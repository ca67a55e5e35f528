package commands

import (
	"context"
	"fmt"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/interactive"
	"github.com/pweiskircher/profile-sync/internal/merge"
	"github.com/pweiskircher/profile-sync/internal/output"
	"github.com/pweiskircher/profile-sync/internal/pipeline"
)

type MergeOptions struct {
	Profiles   []string
	Source     string
	Strategy   string
	SkipBackup bool
	DryRun     bool
	Chooser    merge.Chooser
	Runtime    RuntimeOptions
}

// RunMerge runs the full compare, merge, validate pipeline against one org
// and records the written profiles in the sync cache.
func RunMerge(ctx context.Context, workDir string, options MergeOptions) (output.Report, error) {
	report := output.Report{
		CommandName: string(contracts.CommandMerge),
		DryRun:      options.DryRun,
	}

	var sources []string
	if options.Source != "" {
		sources = []string{options.Source}
	}
	session, err := newSession(workDir, sources, options.Runtime, true)
	if err != nil {
		return report, err
	}
	report.RunID = session.runID

	strategy, err := merge.ParseStrategy(firstNonEmptyValue(options.Strategy, session.settings.Strategy))
	if err != nil {
		return report, err
	}
	report.Strategy = string(strategy)

	chooser := options.Chooser
	if chooser == nil {
		chooser = interactive.NewTerminalChooser()
	}
	if err := merge.RequireAttendedChooser(strategy, chooser); err != nil {
		return report, err
	}

	profiles, err := session.resolveProfileNames(options.Profiles)
	if err != nil {
		return report, err
	}

	pctx := session.pipelineContext(profiles, chooser, options.Runtime.FetchConcurrency)
	state, err := pipeline.New(pctx).
		Compare(pipeline.CompareOptions{}).
		Merge(pipeline.MergeOptions{Strategy: strategy, SkipBackup: options.SkipBackup, DryRun: options.DryRun}).
		Validate(pipeline.ValidateOptions{}).
		Run(ctx)
	if err != nil {
		return report, err
	}

	fillMergeReport(&report, state, options.SkipBackup, options.DryRun)

	if !options.DryRun {
		if err := session.updateCache(state.MergeResults, revisionsFromComparisons(state.Comparisons)); err != nil {
			return report, fmt.Errorf("failed to update sync cache: %w", err)
		}
	}

	return report, nil
}

func fillMergeReport(report *output.Report, state pipeline.State, skipBackup, dryRun bool) {
	report.Counts.Compared = len(state.Comparisons)
	report.Counts.Conflicts = state.TotalConflicts()
	report.Counts.Warnings = len(state.Warnings)

	for _, result := range state.MergeResults {
		decisions := make(map[string]merge.Decision, len(result.Decisions))
		for _, decision := range result.Decisions {
			decisions[decision.Path] = decision
		}
		unresolved := make(map[string]struct{}, len(result.Unresolved))
		for _, conflict := range result.Unresolved {
			unresolved[conflict.ElementPath] = struct{}{}
		}

		for _, conflict := range result.Conflicts {
			decision := ""
			if resolved, ok := decisions[conflict.ElementPath]; ok {
				decision = resolved.Choice
			}
			report.Conflicts = append(report.Conflicts, conflictResult(conflict, decision))

			if _, open := unresolved[conflict.ElementPath]; open {
				report.Counts.Unresolved++
			} else {
				report.Counts.Resolved++
			}
		}

		report.Profiles = append(report.Profiles, mergeProfileResult(result, skipBackup, dryRun))
	}

	for _, name := range state.NoChanges {
		report.Profiles = append(report.Profiles, contracts.ProfileResult{
			Name:   name,
			Action: "skipped",
			Status: contracts.ProfileStatusSkipped,
			Messages: []contracts.ProfileMessage{{
				Level:      "info",
				ReasonCode: contracts.ReasonCodeNoChangesToMerge,
				Text:       "local and remote copies are identical",
			}},
		})
	}
}

func mergeProfileResult(result merge.Result, skipBackup, dryRun bool) contracts.ProfileResult {
	profileResult := contracts.ProfileResult{
		Name:   result.ProfileName,
		Action: "merged",
		Status: contracts.ProfileStatusSuccess,
		Backup: result.BackupPath,
	}
	if len(result.Unresolved) > 0 {
		profileResult.Status = contracts.ProfileStatusConflict
		profileResult.Messages = append(profileResult.Messages, contracts.ProfileMessage{
			Level:      "warning",
			ReasonCode: contracts.ReasonCodeConflictSkipped,
			Text:       fmt.Sprintf("%d conflict(s) left unresolved", len(result.Unresolved)),
		})
	}

	switch {
	case dryRun:
		profileResult.Action = "previewed"
		profileResult.Messages = append(profileResult.Messages, contracts.ProfileMessage{
			Level:      "info",
			ReasonCode: contracts.ReasonCodeDryRunNoWrite,
			Text:       "dry run, nothing written",
		})
	case result.BackupPath != "":
		profileResult.Messages = append(profileResult.Messages, contracts.ProfileMessage{
			Level:      "info",
			ReasonCode: contracts.ReasonCodeBackupWritten,
			Text:       "backup=" + result.BackupPath,
		})
	case skipBackup:
		profileResult.Messages = append(profileResult.Messages, contracts.ProfileMessage{
			Level:      "warning",
			ReasonCode: contracts.ReasonCodeBackupSkipped,
			Text:       "merged without a recovery point",
		})
	}

	return profileResult
}

func firstNonEmptyValue(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
