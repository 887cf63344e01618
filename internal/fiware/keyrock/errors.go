package keyrock

import "errors"

// Domain-specific errors for Keyrock operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidCredentials is returned when Keyrock rejects the user's
	// primary credentials (or the gateway's OAuth2 client credentials).
	ErrInvalidCredentials = errors.New("keyrock: invalid credentials")

	// ErrMalformedResponse is returned when Keyrock answered with a success
	// status but the expected token or payload was missing.
	ErrMalformedResponse = errors.New("keyrock: malformed response")
)
