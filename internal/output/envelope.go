package output

import (
	"fmt"
	"time"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/profilerr"
)

// pattern: Functional Core

// Report is command-level output data that can be rendered in human or JSON mode.
type Report struct {
	CommandName string
	RunID       string
	DryRun      bool
	Strategy    string
	Counts      contracts.AggregateCounts
	Conflicts   []contracts.ConflictResult
	Profiles    []contracts.ProfileResult
}

func BuildEnvelope(report Report, duration time.Duration) (contracts.CommandEnvelope, error) {
	env := contracts.CommandEnvelope{
		EnvelopeVersion: contracts.JSONEnvelopeVersionV1,
		RunID:           report.RunID,
		Command: contracts.CommandMeta{
			Name:       report.CommandName,
			DurationMS: duration.Milliseconds(),
			DryRun:     report.DryRun,
			Strategy:   report.Strategy,
		},
		Counts:    report.Counts,
		Conflicts: report.Conflicts,
		Profiles:  report.Profiles,
	}

	if err := contracts.ValidateEnvelopeBasics(env); err != nil {
		return contracts.CommandEnvelope{}, fmt.Errorf("failed to build command envelope: %w", err)
	}

	return env, nil
}

// ResolveExitCode derives the process exit code from the run error's
// class and the aggregate counts. Unresolved conflicts and recorded
// errors keep a "successful" run at exit 1.
func ResolveExitCode(report Report, runErr error) contracts.ExitCode {
	if runErr != nil {
		return profilerr.ExitCodeFor(runErr)
	}
	if report.Counts.Errors > 0 || report.Counts.Unresolved > 0 {
		return contracts.ExitCodeError
	}
	return contracts.ExitCodeSuccess
}
