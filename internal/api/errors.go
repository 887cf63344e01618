package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ssio-project/fiware-gateway/internal/fiware"
	"github.com/ssio-project/fiware-gateway/internal/fiware/keyrock"
	"github.com/ssio-project/fiware-gateway/internal/session"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeInternal     = "internal_error"
	ErrCodeUpstream     = "upstream_unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeForbidden writes a 403 error response.
func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeUpstreamError maps a failure from the FIWARE clients onto the
// response.
//
// Upstream rejections pass through with their original status and body so
// clients see exactly what Keyrock, the IoT Agent or Orion said. Session
// and credential failures become 401: the client's recourse is always to
// sign in again. Transport failures become 503.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	var ue *fiware.Error
	switch {
	case errors.As(err, &ue):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(ue.Status)
		//nolint:errcheck // Best-effort write to response
		w.Write(ue.Body)

	case errors.Is(err, keyrock.ErrInvalidCredentials):
		writeUnauthorized(w, "invalid credentials")

	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrCredentialUnrenewable),
		errors.Is(err, session.ErrRefreshFailed):
		writeUnauthorized(w, "session expired, sign in again")

	case errors.Is(err, fiware.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUpstream, "upstream service unavailable")

	case errors.Is(err, fiware.ErrMethodNotSupported):
		writeBadRequest(w, "method not supported")

	default:
		s.logger.Error("unexpected upstream failure", "error", err)
		writeInternalError(w, "internal server error")
	}
}
