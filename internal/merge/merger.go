// pattern: Imperative Shell
package merge

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pweiskircher/profile-sync/internal/profile"
	"github.com/pweiskircher/profile-sync/internal/profilerr"
	"github.com/pweiskircher/profile-sync/internal/store"
)

// ValidateFunc is the validation collaborator gating merged documents.
type ValidateFunc func(doc profile.Document) (profile.ValidationReport, error)

// DefaultValidate wraps the built-in document validator.
func DefaultValidate(doc profile.Document) (profile.ValidationReport, error) {
	return profile.Validate(doc), nil
}

// Merger runs a full merge for one profile: diff, resolve, backup, validate,
// write. The local document is never written without a successful backup
// unless SkipBackup is explicitly set.
type Merger struct {
	Store      *store.Store
	Validate   ValidateFunc
	Chooser    Chooser
	SkipBackup bool
	DryRun     bool
	Logger     *zap.Logger
	Now        func() time.Time
}

// Result is the outcome of one profile merge.
type Result struct {
	ProfileName string
	Strategy    Strategy
	Conflicts   []Conflict
	Decisions   []Decision
	Unresolved  []Conflict
	Merged      profile.Document
	BackupPath  string
	WrittenPath string
}

func (m Merger) Merge(ctx context.Context, local, remote profile.Document, strategy Strategy) (Result, error) {
	result := Result{ProfileName: local.Name, Strategy: strategy}

	if m.Store == nil {
		return result, profilerr.NewFatal(profilerr.CodeComputationFailed, "merger store is not configured")
	}
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := m.Validate
	if validate == nil {
		validate = DefaultValidate
	}
	now := m.Now
	if now == nil {
		now = time.Now
	}

	result.Conflicts = Diff(local, remote)
	logger.Debug("computed conflict set",
		zap.String("profile", local.Name),
		zap.String("strategy", string(strategy)),
		zap.Int("conflicts", len(result.Conflicts)),
	)

	if len(result.Conflicts) == 0 {
		return result, profilerr.NewUser(
			profilerr.CodeNoChangesToMerge,
			fmt.Sprintf("local and remote copies of %q are identical", local.Name),
			"nothing to do",
		)
	}

	if strategy == StrategyAbortOnConflict {
		// Fail before any backup or write: abort-on-conflict produces nothing.
		return result, ConflictAbortError(result.Conflicts)
	}

	if !m.SkipBackup && !m.DryRun {
		backupPath, err := m.Store.BackupProfile(local.Name, now())
		if err != nil {
			return result, profilerr.NewSystem(
				profilerr.CodeBackupFailed,
				fmt.Sprintf("could not back up %q before merging", local.Name),
				"free disk space or fix permissions under .sync/backups",
				"or pass --skip-backup to merge without a recovery point",
			).NonRecoverable().WithCause(err)
		}
		result.BackupPath = backupPath
		logger.Debug("wrote pre-merge backup", zap.String("path", backupPath))
	}

	resolution, err := Resolve(strategy, local, remote, result.Conflicts, m.Chooser)
	if err != nil {
		return result, err
	}
	result.Merged = resolution.Merged
	result.Decisions = resolution.Decisions
	result.Unresolved = resolution.Unresolved

	report, err := validate(resolution.Merged)
	if err != nil {
		return result, profilerr.NewSystem(
			profilerr.CodeMergeValidationFailed,
			fmt.Sprintf("validation collaborator failed for merged %q; %s", local.Name, backupNote(result.BackupPath)),
		).WithCause(err)
	}
	if !report.Ok() {
		return result, profilerr.NewUser(
			profilerr.CodeMergeValidationFailed,
			fmt.Sprintf("merged %q failed validation with %d issue(s); %s", local.Name, len(report.Issues), backupNote(result.BackupPath)),
			"inspect the reported issues and resolve them in the source documents",
		)
	}

	if m.DryRun {
		logger.Debug("dry run, skipping write", zap.String("profile", local.Name))
		return result, nil
	}

	writtenPath, err := m.Store.WriteProfile(resolution.Merged)
	if err != nil {
		return result, profilerr.NewSystem(
			profilerr.CodeMergeValidationFailed,
			fmt.Sprintf("could not write merged %q; %s", local.Name, backupNote(result.BackupPath)),
		).WithCause(err)
	}
	result.WrittenPath = writtenPath

	logger.Debug("merge complete",
		zap.String("profile", local.Name),
		zap.Int("resolved", len(result.Decisions)-len(result.Unresolved)),
		zap.Int("unresolved", len(result.Unresolved)),
	)
	return result, nil
}

func backupNote(backupPath string) string {
	if backupPath == "" {
		return "no backup was taken"
	}
	return "the pre-merge backup at " + backupPath + " is intact"
}
