package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

// Roles and permissions are scoped to the gateway's Keyrock application;
// the handlers splice the configured application ID into every upstream
// path so clients never deal with it.

func (s *Server) appPath(format string, args ...any) string {
	parts := []any{url.PathEscape(s.keyrock.AppID())}
	parts = append(parts, args...)
	return fmt.Sprintf("/v1/applications/%s"+format, parts...)
}

// Role CRUD.

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, s.appPath("/roles"))
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, s.appPath("/roles"))
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, s.appPath("/roles/%s", url.PathEscape(chi.URLParam(r, "id"))))
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, s.appPath("/roles/%s", url.PathEscape(chi.URLParam(r, "id"))))
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, s.appPath("/roles/%s", url.PathEscape(chi.URLParam(r, "id"))))
}

// Role-permission assignment.

func (s *Server) handleGetRolePermissions(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, s.appPath("/roles/%s/permissions", url.PathEscape(chi.URLParam(r, "id"))))
}

// handleAssignRolePermission grants a permission to a role. The permission
// comes in the body as {"permissionId": "..."}; Keyrock wants it in the path.
func (s *Server) handleAssignRolePermission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PermissionID string `json:"permissionId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.PermissionID == "" {
		writeBadRequest(w, "permissionId is required")
		return
	}

	r.Body = http.NoBody
	s.forwardKeyrock(w, r, s.appPath("/roles/%s/permissions/%s",
		url.PathEscape(chi.URLParam(r, "id")), url.PathEscape(req.PermissionID)))
}

func (s *Server) handleRemoveRolePermission(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, s.appPath("/roles/%s/permissions/%s",
		url.PathEscape(chi.URLParam(r, "id")), url.PathEscape(chi.URLParam(r, "permissionId"))))
}

// Permission CRUD.

func (s *Server) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, s.appPath("/permissions"))
}

func (s *Server) handleCreatePermission(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, s.appPath("/permissions"))
}

func (s *Server) handleGetPermission(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, s.appPath("/permissions/%s", url.PathEscape(chi.URLParam(r, "id"))))
}

func (s *Server) handleUpdatePermission(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, s.appPath("/permissions/%s", url.PathEscape(chi.URLParam(r, "id"))))
}

func (s *Server) handleDeletePermission(w http.ResponseWriter, r *http.Request) {
	s.forwardKeyrock(w, r, s.appPath("/permissions/%s", url.PathEscape(chi.URLParam(r, "id"))))
}
