package auth

import "errors"

// Domain-specific errors for authentication.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrTokenInvalid is returned when a gateway JWT fails signature or
	// claim validation.
	ErrTokenInvalid = errors.New("auth: token invalid")

	// ErrTokenExpired is returned when a gateway JWT is past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")
)
