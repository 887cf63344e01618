package api

import (
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/ssio-project/fiware-gateway/internal/fiware"
	"github.com/ssio-project/fiware-gateway/internal/session"
)

// forwardOrion relays one context-broker request through the PEP proxy
// using the caller's access credential, refreshing it first if it lapsed.
//
// forceStatus overrides the success status; Orion's write endpoints
// answer 204 and the gateway mirrors that even when the proxy's response
// is shaped differently. Zero keeps the upstream status.
func (s *Server) forwardOrion(w http.ResponseWriter, r *http.Request, upstreamPath string, forceStatus int) {
	claims := claimsFrom(r)

	cred, err := s.sessions.EnsureLive(r.Context(), claims.UserID, session.FamilyAccess)
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

	res, err := s.pep.Forward(r.Context(), cred.Token, r.Method, upstreamPath, body, r.URL.Query())
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}

	if forceStatus != 0 {
		w.WriteHeader(forceStatus)
		return
	}
	s.writeProxied(w, res.Status, res.Body)
}

func entityPath(r *http.Request) string {
	return "/v2/entities/" + url.PathEscape(chi.URLParam(r, "id"))
}

// Entities.

func (s *Server) handleQueryEntities(w http.ResponseWriter, r *http.Request) {
	s.forwardOrion(w, r, "/v2/entities", 0)
}

func (s *Server) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	s.forwardOrion(w, r, "/v2/entities", 0)
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	s.forwardOrion(w, r, entityPath(r), 0)
}

func (s *Server) handleUpdateEntityAttrs(w http.ResponseWriter, r *http.Request) {
	s.forwardOrion(w, r, entityPath(r)+"/attrs", http.StatusNoContent)
}

func (s *Server) handleReplaceEntityAttrs(w http.ResponseWriter, r *http.Request) {
	s.forwardOrion(w, r, entityPath(r)+"/attrs", http.StatusNoContent)
}

func (s *Server) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	s.forwardOrion(w, r, entityPath(r), http.StatusNoContent)
}

// handleBatchUpdate relays POST /v2/op/update, Orion's bulk append/delete
// endpoint. Success is always 204.
func (s *Server) handleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	s.forwardOrion(w, r, "/v2/op/update", http.StatusNoContent)
}

func (s *Server) handleEntityTypes(w http.ResponseWriter, r *http.Request) {
	s.forwardOrion(w, r, "/v2/types", 0)
}

// Subscriptions.

func subscriptionPath(r *http.Request) string {
	return "/v2/subscriptions/" + url.PathEscape(chi.URLParam(r, "id"))
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	s.forwardOrion(w, r, "/v2/subscriptions", 0)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	s.forwardOrion(w, r, "/v2/subscriptions", 0)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	s.forwardOrion(w, r, subscriptionPath(r), 0)
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	s.forwardOrion(w, r, subscriptionPath(r), http.StatusNoContent)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	s.forwardOrion(w, r, subscriptionPath(r), http.StatusNoContent)
}
