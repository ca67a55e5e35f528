package commands

import (
	"context"
	"fmt"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/output"
)

type ListOptions struct {
	Source  string
	Runtime RuntimeOptions
}

// RunList reports the remote profile listing for one org alias.
func RunList(ctx context.Context, workDir string, options ListOptions) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandList)}

	var sources []string
	if options.Source != "" {
		sources = []string{options.Source}
	}
	session, err := newSession(workDir, sources, options.Runtime, true)
	if err != nil {
		return report, err
	}
	report.RunID = session.runID
	source := session.sources[0]

	listing, err := session.fetcher.ListProfiles(ctx, source)
	if err != nil {
		return report, fmt.Errorf("failed to list remote profiles: %w", err)
	}

	for _, info := range listing {
		report.Counts.Compared++
		text := "source=" + source
		if info.Revision != "" {
			text += " revision=" + info.Revision
		}
		if info.LastModified != "" {
			text += " last_modified=" + info.LastModified
		}
		report.Profiles = append(report.Profiles, contracts.ProfileResult{
			Name:   info.Name,
			Action: "listed",
			Status: contracts.ProfileStatusSuccess,
			Messages: []contracts.ProfileMessage{{
				Level: "info",
				Text:  text,
			}},
		})
	}

	return report, nil
}
