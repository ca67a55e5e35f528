package httpclient

import "strings"

const RedactedPlaceholder = "[REDACTED]"

// Redactor removes sensitive values from error messages before they reach
// logs or the CLI envelope.
type Redactor struct {
	secrets []string
}

func NewRedactor(secrets ...string) Redactor {
	if len(secrets) == 0 {
		return Redactor{}
	}

	unique := make([]string, 0, len(secrets))
	seen := make(map[string]struct{}, len(secrets))
	for _, secret := range secrets {
		trimmed := strings.TrimSpace(secret)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		unique = append(unique, trimmed)
	}

	return Redactor{secrets: unique}
}

// NewTokenRedactor builds a Redactor for org API tokens. Each token is
// registered in the Authorization header form the adapter sends and in its
// raw form, so a dumped request header redacts the same as a bare token
// inside a transport error. The header form goes first so the raw token
// replacement cannot split it.
func NewTokenRedactor(tokens ...string) Redactor {
	secrets := make([]string, 0, len(tokens)*2)
	for _, token := range tokens {
		trimmed := strings.TrimSpace(token)
		if trimmed == "" {
			continue
		}
		secrets = append(secrets, "Bearer "+trimmed, trimmed)
	}
	return NewRedactor(secrets...)
}

func (r Redactor) Redact(value string) string {
	if value == "" || len(r.secrets) == 0 {
		return value
	}

	redacted := value
	for _, secret := range r.secrets {
		redacted = strings.ReplaceAll(redacted, secret, RedactedPlaceholder)
	}
	return redacted
}
