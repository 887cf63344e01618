package activity

import (
	"net/http"
	"testing"
)

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		status int
		want   Severity
	}{
		{200, SeverityInfo},
		{204, SeverityInfo},
		{299, SeverityInfo},
		{301, SeverityWarning},
		{399, SeverityWarning},
		{400, SeverityError},
		{401, SeverityError},
		{500, SeverityError},
	}

	for _, tt := range tests {
		if got := SeverityFor(tt.status); got != tt.want {
			t.Errorf("SeverityFor(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		path         string
		actor        string
		status       int
		wantMessage  string
		wantCategory Category
	}{
		{
			name:   "successful login",
			method: http.MethodPost, path: "/auth/login", actor: "alice", status: 200,
			wantMessage: "alice signed in", wantCategory: CategoryAuthentication,
		},
		{
			name:   "failed login hides actor",
			method: http.MethodPost, path: "/auth/login", actor: "Anonymous", status: 401,
			wantMessage: "Failed sign-in attempt", wantCategory: CategoryAuthentication,
		},
		{
			name:   "logout",
			method: http.MethodPost, path: "/auth/logout", actor: "alice", status: 200,
			wantMessage: "alice signed out", wantCategory: CategoryAuthentication,
		},
		{
			name:   "user created",
			method: http.MethodPost, path: "/users", actor: "alice", status: 201,
			wantMessage: "alice created a new user account", wantCategory: CategoryUsers,
		},
		{
			name:   "role assigned to user",
			method: http.MethodPost, path: "/users/u1/roles/r1", actor: "alice", status: 201,
			wantMessage: "alice assigned a role to a user", wantCategory: CategoryUsers,
		},
		{
			name:   "user lookup",
			method: http.MethodGet, path: "/users/u1", actor: "alice", status: 200,
			wantMessage: "alice looked up user details", wantCategory: CategoryUsers,
		},
		{
			name:   "permission assigned to role",
			method: http.MethodPost, path: "/roles/r1/permissions/p1", actor: "alice", status: 201,
			wantMessage: "alice assigned a permission to a role", wantCategory: CategoryRoles,
		},
		{
			name:   "permissions listed",
			method: http.MethodGet, path: "/permissions", actor: "alice", status: 200,
			wantMessage: "alice viewed all permissions", wantCategory: CategoryPermissions,
		},
		{
			name:   "device measurement",
			method: http.MethodPost, path: "/iot/data/ultralight", actor: "Anonymous", status: 200,
			wantMessage: "Anonymous delivered a device measurement", wantCategory: CategoryIoT,
		},
		{
			name:   "service group created",
			method: http.MethodPost, path: "/iot/services", actor: "alice", status: 201,
			wantMessage: "alice created an IoT service group", wantCategory: CategoryIoT,
		},
		{
			name:   "device listed vs lookup",
			method: http.MethodGet, path: "/iot/devices", actor: "alice", status: 200,
			wantMessage: "alice viewed IoT devices", wantCategory: CategoryIoT,
		},
		{
			name:   "device lookup",
			method: http.MethodGet, path: "/iot/devices/sensor-01", actor: "alice", status: 200,
			wantMessage: "alice looked up an IoT device", wantCategory: CategoryIoT,
		},
		{
			name:   "entity query",
			method: http.MethodGet, path: "/orion/entities", actor: "alice", status: 200,
			wantMessage: "alice queried context entities", wantCategory: CategoryOrion,
		},
		{
			name:   "entity attribute update",
			method: http.MethodPatch, path: "/orion/entities/Sensor1/attrs", actor: "alice", status: 204,
			wantMessage: "alice updated context entity attributes", wantCategory: CategoryOrion,
		},
		{
			name:   "batch update",
			method: http.MethodPost, path: "/orion/op/update", actor: "alice", status: 204,
			wantMessage: "alice performed a batch entity update", wantCategory: CategoryOrion,
		},
		{
			name:   "subscription modified",
			method: http.MethodPatch, path: "/orion/subscriptions/sub1", actor: "alice", status: 204,
			wantMessage: "alice modified an Orion subscription", wantCategory: CategoryOrion,
		},
		{
			name:   "log access",
			method: http.MethodGet, path: "/logs", actor: "alice", status: 200,
			wantMessage: "alice accessed the activity log", wantCategory: CategorySystem,
		},
		{
			name:   "unknown route falls back",
			method: http.MethodGet, path: "/health", actor: "Anonymous", status: 200,
			wantMessage: "Anonymous performed an action on the system", wantCategory: CategorySystem,
		},
		{
			name:   "case-insensitive path",
			method: http.MethodPost, path: "/Auth/Login", actor: "alice", status: 200,
			wantMessage: "alice signed in", wantCategory: CategoryAuthentication,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, cat := Classify(tt.method, tt.path, tt.actor, tt.status)
			if msg != tt.wantMessage {
				t.Errorf("message = %q, want %q", msg, tt.wantMessage)
			}
			if cat != tt.wantCategory {
				t.Errorf("category = %s, want %s", cat, tt.wantCategory)
			}
		})
	}
}
