// pattern: Functional Core
package merge

import (
	"fmt"
	"strings"

	"github.com/pweiskircher/profile-sync/internal/profilerr"
)

// Strategy selects the conflict resolution policy.
type Strategy string

const (
	StrategyLocal           Strategy = "local"
	StrategyOrg             Strategy = "org"
	StrategyUnion           Strategy = "union"
	StrategyLocalWins       Strategy = "local-wins"
	StrategyOrgWins         Strategy = "org-wins"
	StrategyInteractive     Strategy = "interactive"
	StrategyAbortOnConflict Strategy = "abort-on-conflict"
)

// ValidStrategies is ordered for deterministic error messaging.
var ValidStrategies = []Strategy{
	StrategyLocal,
	StrategyOrg,
	StrategyUnion,
	StrategyLocalWins,
	StrategyOrgWins,
	StrategyInteractive,
	StrategyAbortOnConflict,
}

// ParseStrategy validates a strategy name before any diff work begins.
func ParseStrategy(raw string) (Strategy, error) {
	candidate := Strategy(strings.TrimSpace(raw))
	for _, valid := range ValidStrategies {
		if candidate == valid {
			return candidate, nil
		}
	}

	names := make([]string, 0, len(ValidStrategies))
	for _, valid := range ValidStrategies {
		names = append(names, string(valid))
	}
	return "", profilerr.NewUser(
		profilerr.CodeInvalidMergeStrategy,
		fmt.Sprintf("unknown merge strategy %q", raw),
		"choose one of: "+strings.Join(names, ", "),
	)
}

// accessRank is the permission dominance table used by the union strategy.
// Higher rank grants broader access. Boolean grants and leveled grants share
// one table so union never narrows access regardless of attribute shape.
var accessRank = map[string]int{
	"none":       0,
	"false":      0,
	"hidden":     0,
	"read":       1,
	"true":       1,
	"visible":    1,
	"defaultoff": 1,
	"edit":       2,
	"all":        2,
	"defaulton":  2,
}

// broader returns the value granting wider access. The second return is false
// when either value is outside the policy table and no ordering is defined.
func broader(left, right string) (string, bool) {
	leftRank, leftKnown := accessRank[strings.ToLower(left)]
	rightRank, rightKnown := accessRank[strings.ToLower(right)]
	if !leftKnown || !rightKnown {
		return "", false
	}
	if rightRank > leftRank {
		return right, true
	}
	return left, true
}
