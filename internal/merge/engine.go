// pattern: Functional Core
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pweiskircher/profile-sync/internal/profile"
	"github.com/pweiskircher/profile-sync/internal/profilerr"
)

// maxReportedConflictPaths bounds the paths cited by an abort-on-conflict
// failure; the total count is always reported.
const maxReportedConflictPaths = 5

// Diff computes the conflict set between two documents. Output is sorted by
// element path so resolution outcomes are totally ordered.
func Diff(local, remote profile.Document) []Conflict {
	localFlat := local.Flatten()
	remoteFlat := remote.Flatten()

	paths := make(map[string]struct{}, len(localFlat)+len(remoteFlat))
	for path := range localFlat {
		paths[path] = struct{}{}
	}
	for path := range remoteFlat {
		paths[path] = struct{}{}
	}

	conflicts := make([]Conflict, 0)
	for path := range paths {
		localValue, inLocal := localFlat[path]
		remoteValue, inRemote := remoteFlat[path]

		switch {
		case inLocal && inRemote && localValue == remoteValue:
			continue
		case !inLocal:
			conflicts = append(conflicts, Conflict{ElementPath: path, RemoteValue: &remoteValue})
		case !inRemote:
			conflicts = append(conflicts, Conflict{ElementPath: path, LocalValue: &localValue})
		default:
			conflicts = append(conflicts, Conflict{ElementPath: path, LocalValue: &localValue, RemoteValue: &remoteValue})
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].ElementPath < conflicts[j].ElementPath
	})
	return conflicts
}

// Resolution is the outcome of resolving a conflict set under one strategy.
type Resolution struct {
	Merged     profile.Document
	Decisions  []Decision
	Unresolved []Conflict
}

// Resolve applies the strategy to every conflict and produces the merged
// document. Every conflict is either resolved deterministically, surfaced as
// unresolved, or the whole resolution fails; none are silently dropped.
func Resolve(strategy Strategy, local, remote profile.Document, conflicts []Conflict, chooser Chooser) (Resolution, error) {
	switch strategy {
	case StrategyLocal:
		return wholesale(local, conflicts, "local", "strategy discards all remote changes"), nil
	case StrategyOrg:
		return wholesale(remote, conflicts, "remote", "strategy adopts the remote document unchanged"), nil
	case StrategyAbortOnConflict:
		if len(conflicts) > 0 {
			return Resolution{}, ConflictAbortError(conflicts)
		}
		return Resolution{Merged: local.Clone()}, nil
	case StrategyUnion, StrategyLocalWins, StrategyOrgWins:
		return resolveElementwise(strategy, local, conflicts, nil)
	case StrategyInteractive:
		if err := RequireAttendedChooser(strategy, chooser); err != nil {
			return Resolution{}, err
		}
		return resolveElementwise(strategy, local, conflicts, chooser)
	default:
		parsed, err := ParseStrategy(string(strategy))
		if err != nil {
			return Resolution{}, err
		}
		return Resolve(parsed, local, remote, conflicts, chooser)
	}
}

// RequireAttendedChooser guards the interactive strategy. Callers that know
// the strategy up front can use it to fail before any remote work starts.
func RequireAttendedChooser(strategy Strategy, chooser Chooser) error {
	if strategy != StrategyInteractive {
		return nil
	}
	if chooser == nil || !chooser.Available() {
		return profilerr.NewUser(
			profilerr.CodeAttendedTerminalRequired,
			"interactive strategy requires an attended terminal",
			"rerun from an interactive shell, or pick a non-interactive strategy",
		)
	}
	return nil
}

func wholesale(source profile.Document, conflicts []Conflict, choice, reason string) Resolution {
	resolution := Resolution{Merged: source.Clone()}
	for _, conflict := range conflicts {
		resolution.Decisions = append(resolution.Decisions, Decision{
			Path:   conflict.ElementPath,
			Kind:   conflict.Kind(),
			Choice: choice,
			Reason: reason,
		})
	}
	return resolution
}

func resolveElementwise(strategy Strategy, local profile.Document, conflicts []Conflict, chooser Chooser) (Resolution, error) {
	merged := local.Flatten()
	resolution := Resolution{}

	for _, conflict := range conflicts {
		decision, unresolved, err := resolveOne(strategy, conflict, chooser)
		if err != nil {
			return Resolution{}, err
		}

		if unresolved {
			resolution.Unresolved = append(resolution.Unresolved, conflict)
			resolution.Decisions = append(resolution.Decisions, decision)
			continue
		}

		switch decision.Choice {
		case "remote":
			if conflict.RemoteValue == nil {
				delete(merged, conflict.ElementPath)
			} else {
				merged[conflict.ElementPath] = *conflict.RemoteValue
			}
		case "local":
			// merged already holds the local view.
		}
		resolution.Decisions = append(resolution.Decisions, decision)
	}

	doc, err := profile.FromFlat(local.Name, merged)
	if err != nil {
		return Resolution{}, profilerr.NewFatal(
			profilerr.CodeComputationFailed,
			"merged element paths could not be reassembled",
		).WithCause(err)
	}
	resolution.Merged = doc
	return resolution, nil
}

func resolveOne(strategy Strategy, conflict Conflict, chooser Chooser) (Decision, bool, error) {
	kind := conflict.Kind()
	decision := Decision{Path: conflict.ElementPath, Kind: kind}

	switch strategy {
	case StrategyUnion:
		switch kind {
		case KindAdded:
			decision.Choice, decision.Reason = "remote", "union adopts remote-only elements"
		case KindRemoved:
			decision.Choice, decision.Reason = "local", "union never removes a permission"
		default:
			wider, ordered := broader(conflict.Local(), conflict.Remote())
			if !ordered {
				// No dominance ordering defined for this value pair; keep the
				// local value and surface the conflict instead of guessing.
				decision.Choice, decision.Reason = "skip", "no dominance ordering for values; kept local, flagged unresolved"
				return decision, true, nil
			}
			if wider == conflict.Local() {
				decision.Choice = "local"
			} else {
				decision.Choice = "remote"
			}
			decision.Reason = "union keeps the broader grant"
		}
	case StrategyLocalWins:
		switch kind {
		case KindAdded:
			decision.Choice, decision.Reason = "remote", "new remote elements are still added"
		default:
			decision.Choice, decision.Reason = "local", "local takes precedence"
		}
	case StrategyOrgWins:
		switch kind {
		case KindRemoved:
			decision.Choice, decision.Reason = "local", "local-only elements are preserved"
		default:
			decision.Choice, decision.Reason = "remote", "remote takes precedence"
		}
	case StrategyInteractive:
		choice, err := chooser.Choose(conflict)
		if err != nil {
			return Decision{}, false, profilerr.NewSystem(
				profilerr.CodeComputationFailed,
				fmt.Sprintf("conflict prompt failed for %s", conflict.ElementPath),
			).WithCause(err)
		}
		switch choice {
		case ChoiceLocal:
			decision.Choice, decision.Reason = "local", "chosen at prompt"
		case ChoiceRemote:
			decision.Choice, decision.Reason = "remote", "chosen at prompt"
		case ChoiceSkip:
			decision.Choice, decision.Reason = "skip", "skipped at prompt"
			return decision, true, nil
		default:
			return Decision{}, false, profilerr.NewFatal(
				profilerr.CodeComputationFailed,
				fmt.Sprintf("chooser returned unknown choice %q", choice),
			)
		}
	default:
		return Decision{}, false, profilerr.NewFatal(
			profilerr.CodeComputationFailed,
			fmt.Sprintf("strategy %q has no elementwise resolution", strategy),
		)
	}

	return decision, false, nil
}

// ConflictAbortError builds the abort-on-conflict failure citing up to five
// representative paths plus the total count.
func ConflictAbortError(conflicts []Conflict) error {
	paths := make([]string, 0, maxReportedConflictPaths)
	for _, conflict := range conflicts {
		if len(paths) == maxReportedConflictPaths {
			break
		}
		paths = append(paths, conflict.ElementPath)
	}

	return profilerr.NewSystem(
		profilerr.CodeMergeConflict,
		fmt.Sprintf("%d conflict(s) require attention: %s", len(conflicts), strings.Join(paths, ", ")),
		"rerun with --strategy union, local-wins, org-wins or interactive",
		"or resolve the listed elements manually and merge again",
	)
}
