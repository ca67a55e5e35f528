package pipeline

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	"github.com/pweiskircher/profile-sync/internal/merge"
	"github.com/pweiskircher/profile-sync/internal/profile"
	"github.com/pweiskircher/profile-sync/internal/remote"
	"github.com/pweiskircher/profile-sync/internal/store"
)

// Context holds the collaborators and configuration one pipeline run
// reads from. It is never mutated by stages; derived data travels in
// the State value returned from Run.
type Context struct {
	Remote       remote.Fetcher
	Store        *store.Store
	ProfileNames []string
	Sources      []string
	APIVersion   string
	Chooser      merge.Chooser
	Logger       *zap.Logger
	RunID        string

	FetchConcurrency int64
	StageTimeout     time.Duration
	Now              func() time.Time
}

// Comparison is the compare stage's result for one profile against
// one source.
type Comparison struct {
	ProfileName    string
	Source         string
	Local          profile.Document
	Remote         profile.Document
	RemoteRevision string
	Conflicts      []merge.Conflict
}

// MatrixCell is one profile/source intersection of a multi-source
// comparison.
type MatrixCell struct {
	ProfileName string
	Source      string
	Conflicts   []merge.Conflict
}

// Matrix is the cross-source comparison assembled when the compare
// stage runs against more than one alias.
type Matrix struct {
	Profiles []string
	Sources  []string
	Cells    []MatrixCell
}

func (m *Matrix) Cell(profileName string, source string) ([]merge.Conflict, bool) {
	if m == nil {
		return nil, false
	}
	for _, cell := range m.Cells {
		if cell.ProfileName == profileName && cell.Source == source {
			return cell.Conflicts, true
		}
	}
	return nil, false
}

// Warning is a non-fatal condition a stage recorded while proceeding.
type Warning struct {
	Code    contracts.ReasonCode
	Source  string
	Message string
}

// State is the derived data threaded through stage effects. Each stage
// receives the previous stage's State and returns an extended copy.
type State struct {
	Comparisons []Comparison
	Matrix      *Matrix

	MergeResults []merge.Result
	NoChanges    []string

	ValidationReports []profile.ValidationReport

	FailedSources []string
	Warnings      []Warning
}

func (s State) clone() State {
	cloned := s
	cloned.Comparisons = append([]Comparison(nil), s.Comparisons...)
	cloned.MergeResults = append([]merge.Result(nil), s.MergeResults...)
	cloned.NoChanges = append([]string(nil), s.NoChanges...)
	cloned.ValidationReports = append([]profile.ValidationReport(nil), s.ValidationReports...)
	cloned.FailedSources = append([]string(nil), s.FailedSources...)
	cloned.Warnings = append([]Warning(nil), s.Warnings...)
	return cloned
}

// TotalConflicts counts conflicts across all comparisons.
func (s State) TotalConflicts() int {
	total := 0
	for _, comparison := range s.Comparisons {
		total += len(comparison.Conflicts)
	}
	return total
}

func sortedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	unique := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		unique = append(unique, value)
	}
	sort.Strings(unique)
	return unique
}
