package fiware

import (
	"errors"
	"fmt"
	"net/http"
)

// Trust headers sent on downstream calls.
const (
	// HeaderService and HeaderServicePath scope every downstream call to a
	// tenant and sub-path. Their values are fixed per gateway deployment.
	HeaderService     = "Fiware-Service"
	HeaderServicePath = "Fiware-ServicePath"

	// HeaderAuthToken carries the caller's upstream credential: the live
	// OAuth2 access token towards the PEP proxy and IoT Agent south port,
	// or the Keyrock management token towards the Keyrock admin API.
	HeaderAuthToken = "X-Auth-Token"

	// HeaderSubjectToken is where Keyrock returns a freshly issued
	// management token.
	HeaderSubjectToken = "X-Subject-Token"
)

// Sentinel errors shared by the downstream clients.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnavailable is returned when a downstream service produced no
	// response at all (connection refused, DNS failure, timeout). Never
	// retried automatically.
	ErrUnavailable = errors.New("fiware: upstream unavailable")

	// ErrMethodNotSupported is returned for verbs outside
	// GET/POST/PUT/PATCH/DELETE. This indicates gateway-internal misuse,
	// not a client error.
	ErrMethodNotSupported = errors.New("fiware: method not supported")
)

// Error is a downstream rejection: the upstream responded with an error
// status. Status and body are preserved verbatim so the caller sees the
// original downstream diagnostic.
type Error struct {
	Status int
	Body   []byte
}

func (e *Error) Error() string {
	return fmt.Sprintf("fiware: upstream rejected request with status %d", e.Status)
}

// AsError extracts an *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var ue *Error
	ok := errors.As(err, &ue)
	return ue, ok
}

// SupportedMethod reports whether the verb is one the forwarders dispatch.
func SupportedMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// BodyVerb reports whether the verb carries a request body and therefore a
// Content-Type header. GET and DELETE omit it.
func BodyVerb(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
