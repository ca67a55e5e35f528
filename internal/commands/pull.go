package commands

import (
	"context"
	"fmt"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/merge"
	"github.com/pweiskircher/profile-sync/internal/output"
	"github.com/pweiskircher/profile-sync/internal/profilerr"
)

type PullOptions struct {
	Profiles   []string
	Source     string
	SkipBackup bool
	Runtime    RuntimeOptions
}

// RunPull overwrites local profiles with the org copies. Existing local
// documents are backed up first; profiles the store has never seen are
// created. With no profile names the full remote listing is pulled.
func RunPull(ctx context.Context, workDir string, options PullOptions) (output.Report, error) {
	report := output.Report{CommandName: string(contracts.CommandPull)}

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

	profiles := options.Profiles
	if len(profiles) == 0 {
		listing, err := session.fetcher.ListProfiles(ctx, source)
		if err != nil {
			return report, fmt.Errorf("failed to list remote profiles: %w", err)
		}
		for _, info := range listing {
			profiles = append(profiles, info.Name)
		}
	}
	if len(profiles) == 0 {
		return report, profilerr.NewUser(
			profilerr.CodeProfileNotFound,
			fmt.Sprintf("org %q has no profiles to pull", source),
			"check the org alias, or pass profile names explicitly",
		)
	}

	var written []merge.Result
	revisions := make(map[string]string, len(profiles))

	for _, name := range profiles {
		report.Counts.Compared++

		result, pullErr := pullOne(ctx, session, source, name, options.SkipBackup)
		if pullErr != nil {
			report.Counts.Errors++
			report.Profiles = append(report.Profiles, contracts.ProfileResult{
				Name:   name,
				Action: "pull",
				Status: contracts.ProfileStatusError,
				Messages: []contracts.ProfileMessage{{
					Level: "error",
					Text:  pullErr.Error(),
				}},
			})
			continue
		}

		report.Profiles = append(report.Profiles, result.profileResult)
		if result.mergeResult.WrittenPath != "" {
			written = append(written, result.mergeResult)
			revisions[name] = result.revision
		}
	}

	if err := session.updateCache(written, revisions); err != nil {
		return report, fmt.Errorf("failed to update sync cache: %w", err)
	}

	return report, nil
}

type pullOutcome struct {
	profileResult contracts.ProfileResult
	mergeResult   merge.Result
	revision      string
}

func pullOne(ctx context.Context, session *session, source, name string, skipBackup bool) (pullOutcome, error) {
	remoteProfile, err := session.fetcher.FetchProfile(ctx, source, name)
	if err != nil {
		return pullOutcome{}, err
	}

	outcome := pullOutcome{
		mergeResult: merge.Result{ProfileName: name, Strategy: merge.StrategyOrg},
		revision:    remoteProfile.Revision,
	}

	local, readErr := session.store.ReadProfile(name)
	switch {
	case readErr == nil:
		if len(merge.Diff(local, remoteProfile.Document)) == 0 {
			outcome.profileResult = contracts.ProfileResult{
				Name:   name,
				Action: "skipped",
				Status: contracts.ProfileStatusSkipped,
				Messages: []contracts.ProfileMessage{{
					Level:      "info",
					ReasonCode: contracts.ReasonCodeNoChangesToMerge,
					Text:       "already up to date",
				}},
			}
			return outcome, nil
		}

		if !skipBackup {
			backupPath, backupErr := session.store.BackupProfile(name, session.now())
			if backupErr != nil {
				return pullOutcome{}, profilerr.NewSystem(
					profilerr.CodeBackupFailed,
					fmt.Sprintf("could not back up %q before overwriting", name),
					"free disk space or fix permissions under .sync/backups",
				).NonRecoverable().WithCause(backupErr)
			}
			outcome.mergeResult.BackupPath = backupPath
		}
		outcome.profileResult = contracts.ProfileResult{
			Name:   name,
			Action: "updated",
			Status: contracts.ProfileStatusSuccess,
			Backup: outcome.mergeResult.BackupPath,
		}
	case profilerr.IsCode(readErr, profilerr.CodeProfileNotFound):
		outcome.profileResult = contracts.ProfileResult{
			Name:   name,
			Action: "created",
			Status: contracts.ProfileStatusSuccess,
		}
	default:
		return pullOutcome{}, readErr
	}

	document := remoteProfile.Document
	document.Name = name
	writtenPath, err := session.store.WriteProfile(document)
	if err != nil {
		return pullOutcome{}, err
	}
	outcome.mergeResult.Merged = document
	outcome.mergeResult.WrittenPath = writtenPath

	if outcome.mergeResult.BackupPath != "" {
		outcome.profileResult.Messages = append(outcome.profileResult.Messages, contracts.ProfileMessage{
			Level:      "info",
			ReasonCode: contracts.ReasonCodeBackupWritten,
			Text:       "backup=" + outcome.mergeResult.BackupPath,
		})
	}

	return outcome, nil
}
