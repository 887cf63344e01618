package session

import "errors"

// Domain-specific errors for session and credential lifecycle operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrSessionNotFound is returned when no session exists for a user.
	// The caller must treat this as "re-authentication required".
	ErrSessionNotFound = errors.New("session: not found")

	// ErrCredentialUnrenewable is returned when a credential is expired and
	// no refresh path exists for it. Re-authentication is the only way out.
	ErrCredentialUnrenewable = errors.New("session: credential expired and not renewable")

	// ErrRefreshFailed is returned when the upstream refresh call fails.
	// The caller must treat this as "re-authentication required".
	ErrRefreshFailed = errors.New("session: credential refresh failed")

	// ErrUnknownFamily is returned for a credential family the store does
	// not hold. Indicates a programming error, not a runtime condition.
	ErrUnknownFamily = errors.New("session: unknown credential family")
)
