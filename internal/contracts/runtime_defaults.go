package contracts

import "time"

const (
	DefaultProfilesDir    = "profiles"
	DefaultSyncDir        = ".sync"
	DefaultBackupsDir     = ".sync/backups"
	DefaultCacheFilePath  = ".sync/cache.json"
	DefaultConfigFilePath = ".sync/config.yaml"
	DefaultLockFilePath   = ".sync/lock"

	ProfileFileExtension = ".profile.xml"
)

const (
	DefaultFetchConcurrency = 4
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultRetryMaxAttempts = 3
	DefaultRetryBaseBackoff = 500 * time.Millisecond
	DefaultStageTimeout     = 5 * time.Minute
)

const (
	DefaultLockStaleAfter     = 15 * time.Minute
	DefaultLockAcquireTimeout = 30 * time.Second
	DefaultLockPollInterval   = 200 * time.Millisecond
)

// DefaultAPIVersion is the remote metadata protocol version requested when the
// config does not pin one.
const DefaultAPIVersion = "61.0"

type CommandName string

const (
	CommandInit     CommandName = "init"
	CommandCompare  CommandName = "compare"
	CommandMerge    CommandName = "merge"
	CommandValidate CommandName = "validate"
	CommandPull     CommandName = "pull"
	CommandList     CommandName = "list"
)

type LockRequirement string

const (
	LockRequirementNone      LockRequirement = "none"
	LockRequirementExclusive LockRequirement = "exclusive"
)

// CommandLockPolicy freezes lock requirements for each command. Only commands
// that write under the project root take the exclusive lock.
var CommandLockPolicy = map[CommandName]LockRequirement{
	CommandInit:     LockRequirementExclusive,
	CommandMerge:    LockRequirementExclusive,
	CommandPull:     LockRequirementExclusive,
	CommandCompare:  LockRequirementNone,
	CommandValidate: LockRequirementNone,
	CommandList:     LockRequirementNone,
}

func RequiresLock(command CommandName) bool {
	return CommandLockPolicy[command] == LockRequirementExclusive
}

// StageName identifies one pipeline stage.
type StageName string

const (
	StageCompare  StageName = "compare"
	StageMerge    StageName = "merge"
	StageValidate StageName = "validate"
)
