package api

import (
	"encoding/json"
	"net/http"

	"github.com/ssio-project/fiware-gateway/internal/session"
)

// loginRequest is the sign-in payload.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is what a successful sign-in returns.
type loginResponse struct {
	AccessToken string           `json:"accessToken"`
	TokenType   string           `json:"tokenType"`
	ExpiresIn   int              `json:"expiresIn"`
	User        identityResponse `json:"user"`
}

type identityResponse struct {
	UserID   string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

func toIdentityResponse(id session.Identity) identityResponse {
	return identityResponse{
		UserID:   id.UserID,
		Username: id.Username,
		Email:    id.Email,
		Roles:    id.Roles,
	}
}

// handleLogin signs a user in against Keyrock and returns a gateway JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	// Attribute the sign-in even though the JWT gate never saw this request.
	if actor, ok := r.Context().Value(ctxKeyActor).(*actorInfo); ok {
		actor.userID = res.Identity.UserID
		actor.username = res.Identity.Username
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.Token,
		TokenType:   "Bearer",
		ExpiresIn:   res.ExpiresIn,
		User:        toIdentityResponse(res.Identity),
	})
}

// handleMe returns the live profile of the signed-in user.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	identity, err := s.auth.Me(r.Context(), claims.UserID)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toIdentityResponse(identity))
}

// handleLogout drops the user's session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	s.auth.Logout(claims.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}
