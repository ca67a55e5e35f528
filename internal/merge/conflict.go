// pattern: Functional Core
package merge

// Kind classifies how local and remote diverge at one element path.
type Kind string

const (
	KindAdded   Kind = "added"   // present only in remote
	KindRemoved Kind = "removed" // present only in local
	KindChanged Kind = "changed" // present in both with differing values
)

// Conflict is one divergent element path between the local and remote
// documents. A nil value means the path is absent on that side. Conflicts are
// produced fresh per merge and never mutated.
type Conflict struct {
	ElementPath string
	LocalValue  *string
	RemoteValue *string
}

func (c Conflict) Kind() Kind {
	switch {
	case c.LocalValue == nil:
		return KindAdded
	case c.RemoteValue == nil:
		return KindRemoved
	default:
		return KindChanged
	}
}

func (c Conflict) Local() string {
	if c.LocalValue == nil {
		return ""
	}
	return *c.LocalValue
}

func (c Conflict) Remote() string {
	if c.RemoteValue == nil {
		return ""
	}
	return *c.RemoteValue
}

// Choice is one answer from an attended conflict prompt.
type Choice string

const (
	ChoiceLocal  Choice = "local"
	ChoiceRemote Choice = "remote"
	ChoiceSkip   Choice = "skip"
)

// Chooser resolves conflicts one at a time during an interactive merge. It is
// injected so the engine stays testable without a real terminal.
type Chooser interface {
	// Available reports whether an attended session exists.
	Available() bool
	Choose(conflict Conflict) (Choice, error)
}

// Decision records how one conflict was resolved, for audit output.
type Decision struct {
	Path   string
	Kind   Kind
	Choice string
	Reason string
}
