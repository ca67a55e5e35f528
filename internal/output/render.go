package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/profilerr"
)

// pattern: Imperative Shell

func Write(mode contracts.OutputMode, stdout io.Writer, stderr io.Writer, report Report, duration time.Duration, runErr error) error {
	normalized := report
	if runErr != nil && normalized.Counts.Errors == 0 {
		normalized.Counts.Errors = 1
	}

	switch mode {
	case contracts.OutputModeJSON:
		env, err := BuildEnvelope(normalized, duration)
		if err != nil {
			return err
		}

		if err := json.NewEncoder(stdout).Encode(env); err != nil {
			return fmt.Errorf("failed to write JSON envelope: %w", err)
		}
		if runErr != nil {
			if err := writeDiagnostic(stderr, runErr); err != nil {
				return err
			}
		}
		return nil
	case contracts.OutputModeHuman:
		if runErr != nil {
			return writeDiagnostic(stderr, runErr)
		}

		_, err := fmt.Fprintf(
			stdout,
			"%s: compared=%d conflicts=%d resolved=%d unresolved=%d warnings=%d errors=%d\n",
			normalized.CommandName,
			normalized.Counts.Compared,
			normalized.Counts.Conflicts,
			normalized.Counts.Resolved,
			normalized.Counts.Unresolved,
			normalized.Counts.Warnings,
			normalized.Counts.Errors,
		)
		if err != nil {
			return fmt.Errorf("failed to write human output: %w", err)
		}

		for _, conflict := range normalized.Conflicts {
			line := fmt.Sprintf("- %s [%s]", conflict.Path, conflict.Kind)
			if conflict.Decision != "" {
				line += " -> " + conflict.Decision
			}
			if _, err := fmt.Fprintln(stdout, line); err != nil {
				return fmt.Errorf("failed to write human output: %w", err)
			}
		}

		for _, result := range normalized.Profiles {
			if _, err := fmt.Fprintf(stdout, "- %s [%s] %s\n", result.Name, result.Status, result.Action); err != nil {
				return fmt.Errorf("failed to write human output: %w", err)
			}
			for _, message := range result.Messages {
				reason := ""
				if message.ReasonCode != "" {
					reason = " (" + string(message.ReasonCode) + ")"
				}
				if _, err := fmt.Fprintf(stdout, "  - %s%s: %s\n", message.Level, reason, message.Text); err != nil {
					return fmt.Errorf("failed to write human output: %w", err)
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output mode %q", mode)
	}
}

func writeDiagnostic(stderr io.Writer, runErr error) error {
	if _, err := fmt.Fprintln(stderr, FormatDiagnostic(runErr)); err != nil {
		return fmt.Errorf("failed to write diagnostics: %w", err)
	}
	for _, action := range profilerr.ActionsOf(runErr) {
		if _, err := fmt.Fprintln(stderr, "  -> "+action); err != nil {
			return fmt.Errorf("failed to write diagnostics: %w", err)
		}
	}
	return nil
}

func FormatDiagnostic(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "failed to execute command"
	}
	if strings.HasPrefix(msg, "failed to ") {
		return msg
	}
	return "failed to execute command: " + msg
}
