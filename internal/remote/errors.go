package remote

import (
	"errors"
	"fmt"

	httpclient "github.com/pweiskircher/profile-sync/internal/http"
)

type ErrorCode string

const (
	ErrorCodeInvalidInput     ErrorCode = "invalid_input"
	ErrorCodeRequestBuild     ErrorCode = "request_build_failed"
	ErrorCodeTransport        ErrorCode = "transport_error"
	ErrorCodeAuthFailed       ErrorCode = "auth_failed"
	ErrorCodeProfileNotFound  ErrorCode = "profile_not_found"
	ErrorCodeUnexpectedStatus ErrorCode = "unexpected_status"
	ErrorCodeResponseDecode   ErrorCode = "response_decode_failed"
	ErrorCodeUnknownSource    ErrorCode = "unknown_source"
)

type Error struct {
	Code       ErrorCode
	Source     string
	StatusCode int
	Message    string
	Err        error
	redactor   httpclient.Redactor
}

func (err *Error) Error() string {
	if err == nil {
		return ""
	}

	base := err.Message
	if base == "" {
		base = "remote operation failed"
	}
	if err.Source != "" {
		base = fmt.Sprintf("[%s] %s", err.Source, base)
	}
	if err.Err == nil {
		return err.redactor.Redact(base)
	}
	return err.redactor.Redact(fmt.Sprintf("%s: %v", base, err.Err))
}

func (err *Error) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.Err
}

func IsErrorCode(err error, code ErrorCode) bool {
	var remoteErr *Error
	if !errors.As(err, &remoteErr) {
		return false
	}
	return remoteErr.Code == code
}

// IsRecoverable reports whether retrying the same call later could
// succeed. Transient transport failures qualify; a missing profile or
// rejected credentials will not heal on their own.
func IsRecoverable(err error) bool {
	var remoteErr *Error
	if !errors.As(err, &remoteErr) {
		return false
	}
	return remoteErr.Code == ErrorCodeTransport || remoteErr.Code == ErrorCodeUnexpectedStatus
}
