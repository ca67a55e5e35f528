// pattern: Functional Core
package profile

import (
	"fmt"
	"sort"

	"github.com/pweiskircher/profile-sync/internal/contracts"
)

// ValidationIssue is one problem found in a document.
type ValidationIssue struct {
	Code    contracts.ReasonCode
	Path    string
	Message string
}

// ValidationReport lists every issue found. An empty report means the
// document is valid.
type ValidationReport struct {
	Document string
	Issues   []ValidationIssue
}

func (report ValidationReport) Ok() bool {
	return len(report.Issues) == 0
}

// grantImplications lists attribute pairs where granting the first requires
// the second. Edit-style grants never stand without their read counterpart.
var grantImplications = [][2]string{
	{"editable", "readable"},
	{"allowEdit", "allowRead"},
	{"modifyAllRecords", "viewAllRecords"},
}

// Validate checks a document for duplicate entries and invalid permission
// combinations. Order of reported issues is deterministic.
func Validate(doc Document) ValidationReport {
	report := ValidationReport{Document: doc.Name}

	seen := make(map[string]int)
	for _, entry := range doc.Entries {
		identity := entry.Section + "." + entry.Key
		seen[identity]++
	}

	duplicates := make([]string, 0)
	for identity, count := range seen {
		if count > 1 {
			duplicates = append(duplicates, identity)
		}
	}
	sort.Strings(duplicates)
	for _, identity := range duplicates {
		report.Issues = append(report.Issues, ValidationIssue{
			Code:    contracts.ReasonCodeDuplicateEntry,
			Path:    identity,
			Message: fmt.Sprintf("element %q appears %d times", identity, seen[identity]),
		})
	}

	for _, entry := range doc.Entries {
		for _, implication := range grantImplications {
			granted, implied := implication[0], implication[1]
			if entry.Grants[granted] != "true" {
				continue
			}
			if impliedValue, present := entry.Grants[implied]; present && impliedValue != "true" {
				report.Issues = append(report.Issues, ValidationIssue{
					Code:    contracts.ReasonCodeInvalidPermissionCombo,
					Path:    ElementPath(entry.Section, entry.Key, granted),
					Message: fmt.Sprintf("%s is granted but %s is not", granted, implied),
				})
			}
		}
	}

	return report
}
