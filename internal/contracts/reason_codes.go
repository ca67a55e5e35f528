package contracts

// ReasonCode is a stable machine-readable code attached to per-conflict and
// per-profile results.
type ReasonCode string

const (
	ReasonCodeConflictChangedBoth      ReasonCode = "conflict_changed_both"
	ReasonCodeConflictRemoteOnly       ReasonCode = "conflict_remote_only"
	ReasonCodeConflictLocalOnly        ReasonCode = "conflict_local_only"
	ReasonCodeConflictSkipped          ReasonCode = "conflict_skipped"
	ReasonCodeNoChangesToMerge         ReasonCode = "no_changes_to_merge"
	ReasonCodeBackupWritten            ReasonCode = "backup_written"
	ReasonCodeBackupSkipped            ReasonCode = "backup_skipped"
	ReasonCodeValidationFailed         ReasonCode = "validation_failed"
	ReasonCodeDuplicateEntry           ReasonCode = "duplicate_entry"
	ReasonCodeInvalidPermissionCombo   ReasonCode = "invalid_permission_combination"
	ReasonCodeAuthFailed               ReasonCode = "auth_failed"
	ReasonCodeTransportError           ReasonCode = "transport_error"
	ReasonCodeProfileNotFoundRemote    ReasonCode = "profile_not_found_remote"
	ReasonCodeProfileNotFoundLocal     ReasonCode = "profile_not_found_local"
	ReasonCodeLockAcquireFailed        ReasonCode = "lock_acquire_failed"
	ReasonCodeLockStaleRecovered       ReasonCode = "lock_stale_recovered"
	ReasonCodeDryRunNoWrite            ReasonCode = "dry_run_no_write"
	ReasonCodePartialRetrieval         ReasonCode = "partial_retrieval"
	ReasonCodeSequentialRetrySuggested ReasonCode = "sequential_retry_suggested"
)

// StableReasonCodes is the frozen set emitted in JSON envelopes.
var StableReasonCodes = []ReasonCode{
	ReasonCodeConflictChangedBoth,
	ReasonCodeConflictRemoteOnly,
	ReasonCodeConflictLocalOnly,
	ReasonCodeConflictSkipped,
	ReasonCodeNoChangesToMerge,
	ReasonCodeBackupWritten,
	ReasonCodeBackupSkipped,
	ReasonCodeValidationFailed,
	ReasonCodeDuplicateEntry,
	ReasonCodeInvalidPermissionCombo,
	ReasonCodeAuthFailed,
	ReasonCodeTransportError,
	ReasonCodeProfileNotFoundRemote,
	ReasonCodeProfileNotFoundLocal,
	ReasonCodeLockAcquireFailed,
	ReasonCodeLockStaleRecovered,
	ReasonCodeDryRunNoWrite,
	ReasonCodePartialRetrieval,
	ReasonCodeSequentialRetrySuggested,
}

func IsStableReasonCode(code ReasonCode) bool {
	for _, candidate := range StableReasonCodes {
		if candidate == code {
			return true
		}
	}
	return false
}
