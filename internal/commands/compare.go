package commands

import (
	"context"
	"fmt"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/output"
	"github.com/pweiskircher/profile-sync/internal/pipeline"
)

type CompareOptions struct {
	Profiles []string
	Sources  []string
	Runtime  RuntimeOptions
}

// RunCompare fetches the selected profiles from every requested org and
// reports the conflict set without touching local files.
func RunCompare(ctx context.Context, workDir string, options CompareOptions) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandCompare)}

	session, err := newSession(workDir, options.Sources, options.Runtime, true)
	if err != nil {
		return report, err
	}
	report.RunID = session.runID

	profiles, err := session.resolveProfileNames(options.Profiles)
	if err != nil {
		return report, err
	}

	pctx := session.pipelineContext(profiles, nil, options.Runtime.FetchConcurrency)
	state, err := pipeline.New(pctx).
		Compare(pipeline.CompareOptions{}).
		Run(ctx)
	if err != nil {
		return report, err
	}

	fillCompareReport(&report, state)
	return report, nil
}

func fillCompareReport(report *output.Report, state pipeline.State) {
	report.Counts.Compared = len(state.Comparisons)
	report.Counts.Conflicts = state.TotalConflicts()
	report.Counts.Warnings = len(state.Warnings)

	for _, comparison := range state.Comparisons {
		for _, conflict := range comparison.Conflicts {
			report.Conflicts = append(report.Conflicts, conflictResult(conflict, ""))
		}

		status := contracts.ProfileStatusSuccess
		if len(comparison.Conflicts) > 0 {
			status = contracts.ProfileStatusConflict
		}
		report.Profiles = append(report.Profiles, contracts.ProfileResult{
			Name:   comparison.ProfileName,
			Action: "compared",
			Status: status,
			Messages: []contracts.ProfileMessage{{
				Level: "info",
				Text:  fmt.Sprintf("source=%s conflicts=%d", comparison.Source, len(comparison.Conflicts)),
			}},
		})
	}

	for _, warning := range state.Warnings {
		report.Profiles = append(report.Profiles, contracts.ProfileResult{
			Name:   warning.Source,
			Action: "fetch",
			Status: contracts.ProfileStatusWarning,
			Messages: []contracts.ProfileMessage{{
				Level:      "warning",
				ReasonCode: warning.Code,
				Text:       warning.Message,
			}},
		})
	}
}
