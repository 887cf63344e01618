package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.activityMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check (no auth required)
	r.Get("/health", s.handleHealth)

	// Sign-in and device data are the only unauthenticated surfaces:
	// devices on the local network carry no gateway JWT.
	r.Post("/auth/login", s.handleLogin)
	r.Post("/iot/data/ultralight", s.handleDeviceDataUltralight)
	r.Post("/iot/data/json", s.handleDeviceDataJSON)
	r.Get("/iot/data/config", s.handleDeviceDataConfig)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/auth/me", s.handleMe)
		r.Post("/auth/logout", s.handleLogout)

		// Keyrock user management
		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleCreateUser)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetUser)
				r.Put("/", s.handleUpdateUser)
				r.Delete("/", s.handleDeleteUser)
				r.Get("/roles", s.handleGetUserRoles)
				r.Post("/roles", s.handleAssignUserRole)
				r.Delete("/roles/{roleId}", s.handleRemoveUserRole)
			})
		})

		// Keyrock access control
		r.Route("/roles", func(r chi.Router) {
			r.Get("/", s.handleListRoles)
			r.Post("/", s.handleCreateRole)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRole)
				r.Put("/", s.handleUpdateRole)
				r.Delete("/", s.handleDeleteRole)
				r.Get("/permissions", s.handleGetRolePermissions)
				r.Post("/permissions", s.handleAssignRolePermission)
				r.Delete("/permissions/{permissionId}", s.handleRemoveRolePermission)
			})
		})

		r.Route("/permissions", func(r chi.Router) {
			r.Get("/", s.handleListPermissions)
			r.Post("/", s.handleCreatePermission)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPermission)
				r.Put("/", s.handleUpdatePermission)
				r.Delete("/", s.handleDeletePermission)
			})
		})

		// IoT Agent provisioning (north port)
		r.Route("/iot", func(r chi.Router) {
			r.Post("/services", s.handleCreateServiceGroup)
			r.Get("/services", s.handleListServiceGroups)
			r.Delete("/services", s.handleDeleteServiceGroup)

			r.Route("/devices", func(r chi.Router) {
				r.Post("/", s.handleRegisterDevices)
				r.Get("/", s.handleListDevices)
				r.Get("/{deviceId}", s.handleGetDevice)
				r.Put("/{deviceId}", s.handleUpdateDevice)
				r.Delete("/{deviceId}", s.handleDeleteDevice)
			})
		})

		// Orion context broker (via PEP proxy)
		r.Route("/orion", func(r chi.Router) {
			r.Get("/entities", s.handleQueryEntities)
			r.Post("/entities", s.handleCreateEntity)
			r.Get("/entities/{id}", s.handleGetEntity)
			r.Patch("/entities/{id}/attrs", s.handleUpdateEntityAttrs)
			r.Put("/entities/{id}/attrs", s.handleReplaceEntityAttrs)
			r.Delete("/entities/{id}", s.handleDeleteEntity)
			r.Post("/op/update", s.handleBatchUpdate)
			r.Get("/types", s.handleEntityTypes)

			r.Get("/subscriptions", s.handleListSubscriptions)
			r.Post("/subscriptions", s.handleCreateSubscription)
			r.Get("/subscriptions/{id}", s.handleGetSubscription)
			r.Patch("/subscriptions/{id}", s.handleUpdateSubscription)
			r.Delete("/subscriptions/{id}", s.handleDeleteSubscription)
		})

		// Activity log (operators only)
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole("provider"))
			r.Get("/logs", s.handleGetLogs)
			r.Get("/logs/stream", s.handleStreamLogs)
			r.Get("/logs/ws", s.handleLogsWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
