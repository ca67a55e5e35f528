package contracts

import "errors"

const JSONEnvelopeVersionV1 = "1"

type OutputMode string

const (
	OutputModeHuman OutputMode = "human"
	OutputModeJSON  OutputMode = "json"
)

type StreamContract struct {
	StdoutRule string
	StderrRule string
}

var OutputStreamContracts = map[OutputMode]StreamContract{
	OutputModeJSON: {
		StdoutRule: "stdout MUST contain exactly one JSON envelope object and no extra prose",
		StderrRule: "stderr MAY contain diagnostics/logs and MUST NOT contain envelope fragments",
	},
	OutputModeHuman: {
		StdoutRule: "stdout SHOULD contain human-readable primary output",
		StderrRule: "stderr SHOULD contain warnings/errors/diagnostics",
	},
}

type ExitCode int

const (
	ExitCodeSuccess ExitCode = 0
	ExitCodeError   ExitCode = 1
	ExitCodeFatal   ExitCode = 2
)

// ExitCodeMeaning freezes the CLI matrix semantics.
var ExitCodeMeaning = map[ExitCode]string{
	ExitCodeSuccess: "success with no unresolved conflicts or errors",
	ExitCodeError:   "user or system failure (bad input, transport, conflicts requiring attention)",
	ExitCodeFatal:   "internal invariant violation; file a defect report",
}

type CommandEnvelope struct {
	EnvelopeVersion string           `json:"envelope_version"`
	RunID           string           `json:"run_id,omitempty"`
	Command         CommandMeta      `json:"command"`
	Counts          AggregateCounts  `json:"counts"`
	Conflicts       []ConflictResult `json:"conflicts,omitempty"`
	Profiles        []ProfileResult  `json:"profiles,omitempty"`
}

type CommandMeta struct {
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
	DryRun     bool   `json:"dry_run"`
	Strategy   string `json:"strategy,omitempty"`
}

type AggregateCounts struct {
	Compared   int `json:"compared"`
	Conflicts  int `json:"conflicts"`
	Resolved   int `json:"resolved"`
	Unresolved int `json:"unresolved"`
	Warnings   int `json:"warnings"`
	Errors     int `json:"errors"`
}

type ConflictKindLabel string

const (
	ConflictKindAdded   ConflictKindLabel = "added"
	ConflictKindRemoved ConflictKindLabel = "removed"
	ConflictKindChanged ConflictKindLabel = "changed"
)

type ConflictResult struct {
	Path       string            `json:"path"`
	Kind       ConflictKindLabel `json:"kind"`
	Local      string            `json:"local,omitempty"`
	Remote     string            `json:"remote,omitempty"`
	Decision   string            `json:"decision,omitempty"`
	ReasonCode ReasonCode        `json:"reason_code,omitempty"`
}

type ProfileStatus string

const (
	ProfileStatusSuccess  ProfileStatus = "success"
	ProfileStatusWarning  ProfileStatus = "warning"
	ProfileStatusConflict ProfileStatus = "conflict"
	ProfileStatusError    ProfileStatus = "error"
	ProfileStatusSkipped  ProfileStatus = "skipped"
)

type ProfileResult struct {
	Name     string           `json:"name"`
	Action   string           `json:"action"`
	Status   ProfileStatus    `json:"status"`
	Backup   string           `json:"backup,omitempty"`
	Messages []ProfileMessage `json:"messages,omitempty"`
}

type ProfileMessage struct {
	Level      string     `json:"level"`
	ReasonCode ReasonCode `json:"reason_code,omitempty"`
	Text       string     `json:"text"`
}

func ValidateEnvelopeBasics(env CommandEnvelope) error {
	if env.EnvelopeVersion != JSONEnvelopeVersionV1 {
		return errors.New("unsupported envelope_version")
	}
	if env.Command.Name == "" {
		return errors.New("command name is required")
	}
	return nil
}
