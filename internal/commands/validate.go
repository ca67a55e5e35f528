package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/output"
	"github.com/pweiskircher/profile-sync/internal/pipeline"
	"github.com/pweiskircher/profile-sync/internal/store"
)

type ValidateOptions struct {
	Profiles []string
	Logger   *zap.Logger
	Now      func() time.Time
	RunID    string
}

// RunValidate checks the stored profile documents without any remote
// traffic. Issues land in the counts so the exit code reflects them.
func RunValidate(ctx context.Context, workDir string, options ValidateOptions) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandValidate)}

	projectStore, err := store.New(workDir)
	if err != nil {
		return report, err
	}

	runID := options.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	report.RunID = runID

	profiles := options.Profiles
	if len(profiles) == 0 {
		profiles, err = projectStore.ListProfiles()
		if err != nil {
			return report, err
		}
	}

	pctx := pipeline.Context{
		Store:        projectStore,
		ProfileNames: profiles,
		Logger:       options.Logger,
		RunID:        runID,
		Now:          options.Now,
	}
	state, err := pipeline.New(pctx).
		Validate(pipeline.ValidateOptions{ReportOnly: true}).
		Run(ctx)
	if err != nil {
		return report, err
	}

	for _, validation := range state.ValidationReports {
		report.Counts.Compared++

		profileResult := contracts.ProfileResult{
			Name:   validation.Document,
			Action: "validated",
			Status: contracts.ProfileStatusSuccess,
		}
		for _, issue := range validation.Issues {
			report.Counts.Errors++
			profileResult.Status = contracts.ProfileStatusError
			profileResult.Messages = append(profileResult.Messages, contracts.ProfileMessage{
				Level:      "error",
				ReasonCode: issue.Code,
				Text:       fmt.Sprintf("%s: %s", issue.Path, issue.Message),
			})
		}
		report.Profiles = append(report.Profiles, profileResult)
	}

	return report, nil
}
