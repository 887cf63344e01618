package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/ssio-project/fiware-gateway/internal/fiware"
	"github.com/ssio-project/fiware-gateway/internal/session"
)

// forwardKeyrock relays one administration request to Keyrock using the
// caller's management credential.
//
// The management family has no refresh grant, so a lapsed credential
// answers 401 straight away and the caller signs in again.
func (s *Server) forwardKeyrock(w http.ResponseWriter, r *http.Request, upstreamPath string) {
	claims := claimsFrom(r)

	cred, err := s.sessions.EnsureLive(r.Context(), claims.UserID, session.FamilyManagement)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	var body []byte
	if fiware.BodyVerb(r.Method) {
		body, err = io.ReadAll(r.Body)
		if err != nil {
			writeBadRequest(w, "reading request body")
			return
		}
	}

	respBody, status, err := s.keyrock.Forward(r.Context(), cred.Token, r.Method, upstreamPath, body, r.URL.Query())
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	s.writeProxied(w, status, respBody)
}

// writeProxied relays an upstream success response verbatim.
func (s *Server) writeProxied(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if len(body) > 0 {
		//nolint:errcheck // Best-effort write to response
		w.Write(body)
	}
}

// decodeJSON decodes a request body into v.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// User management passthrough.

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, "/v1/users")
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, "/v1/users")
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, "/v1/users/"+url.PathEscape(chi.URLParam(r, "id")))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, "/v1/users/"+url.PathEscape(chi.URLParam(r, "id")))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, "/v1/users/"+url.PathEscape(chi.URLParam(r, "id")))
}

// Role assignment subroutes live under the application scope in Keyrock.

func (s *Server) userRolesPath(userID string) string {
	return fmt.Sprintf("/v1/applications/%s/users/%s/roles",
		url.PathEscape(s.keyrock.AppID()), url.PathEscape(userID))
}

func (s *Server) handleGetUserRoles(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, s.userRolesPath(chi.URLParam(r, "id")))
}

// handleAssignUserRole grants a role to a user. The role comes in the body
// as {"roleId": "..."}; Keyrock wants it in the path.
func (s *Server) handleAssignUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoleID string `json:"roleId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.RoleID == "" {
		writeBadRequest(w, "roleId is required")
		return
	}

	r.Body = http.NoBody
	s.forwardKeyrock(w, r, s.userRolesPath(chi.URLParam(r, "id"))+"/"+url.PathEscape(req.RoleID))
}

func (s *Server) handleRemoveUserRole(w http.ResponseWriter, r *http.Request) {
	path := s.userRolesPath(chi.URLParam(r, "id")) + "/" + url.PathEscape(chi.URLParam(r, "roleId"))
	s.forwardKeyrock(w, r, path)
}
