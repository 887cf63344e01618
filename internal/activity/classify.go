package activity

import (
	"net/http"
	"strings"
)

// SeverityFor maps an HTTP status to an entry severity.
func SeverityFor(status int) Severity {
	switch {
	case status >= 400:
		return SeverityError
	case status >= 300:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Classify produces the dashboard message and category for one request.
//
// It is a pure function of the request shape and outcome: actor is the
// username, or "Anonymous" for unauthenticated requests. Every input maps
// to some message; unknown routes fall back to the System category.
func Classify(method, path, actor string, status int) (string, Category) {
	p := strings.ToLower(path)

	// Authentication
	if method == http.MethodPost && p == "/auth/login" {
		if status >= 400 {
			return "Failed sign-in attempt", CategoryAuthentication
		}
		return actor + " signed in", CategoryAuthentication
	}
	if method == http.MethodPost && p == "/auth/logout" {
		return actor + " signed out", CategoryAuthentication
	}
	if method == http.MethodGet && p == "/auth/me" {
		return actor + " checked their profile", CategoryAuthentication
	}

	// Users
	if strings.HasPrefix(p, "/users") {
		if strings.Contains(p, "/roles") {
			switch method {
			case http.MethodPost:
				return actor + " assigned a role to a user", CategoryUsers
			case http.MethodDelete:
				return actor + " removed a role from a user", CategoryUsers
			}
		}
		switch {
		case method == http.MethodPost && p == "/users":
			return actor + " created a new user account", CategoryUsers
		case method == http.MethodGet && p == "/users":
			return actor + " viewed the user list", CategoryUsers
		case method == http.MethodGet:
			return actor + " looked up user details", CategoryUsers
		case method == http.MethodPut:
			return actor + " updated a user account", CategoryUsers
		case method == http.MethodDelete:
			return actor + " removed a user account", CategoryUsers
		}
	}

	// Roles
	if strings.HasPrefix(p, "/roles") {
		if strings.Contains(p, "/permissions") {
			switch method {
			case http.MethodPost:
				return actor + " assigned a permission to a role", CategoryRoles
			case http.MethodDelete:
				return actor + " removed a permission from a role", CategoryRoles
			}
		}
		switch {
		case method == http.MethodPost:
			return actor + " created a new role", CategoryRoles
		case method == http.MethodGet && p == "/roles":
			return actor + " viewed all roles", CategoryRoles
		case method == http.MethodGet:
			return actor + " looked up a role", CategoryRoles
		case method == http.MethodPut:
			return actor + " updated a role", CategoryRoles
		case method == http.MethodDelete:
			return actor + " deleted a role", CategoryRoles
		}
	}

	// Permissions
	if strings.HasPrefix(p, "/permissions") {
		switch {
		case method == http.MethodPost:
			return actor + " created a new permission", CategoryPermissions
		case method == http.MethodGet && p == "/permissions":
			return actor + " viewed all permissions", CategoryPermissions
		case method == http.MethodGet:
			return actor + " looked up a permission", CategoryPermissions
		case method == http.MethodPut:
			return actor + " updated a permission", CategoryPermissions
		case method == http.MethodDelete:
			return actor + " deleted a permission", CategoryPermissions
		}
	}

	// IoT
	if strings.HasPrefix(p, "/iot") {
		if strings.Contains(p, "/data") {
			return actor + " delivered a device measurement", CategoryIoT
		}

		if strings.Contains(p, "/services") {
			switch method {
			case http.MethodPost:
				return actor + " created an IoT service group", CategoryIoT
			case http.MethodGet:
				return actor + " viewed IoT service groups", CategoryIoT
			case http.MethodPut:
				return actor + " updated an IoT service group", CategoryIoT
			case http.MethodDelete:
				return actor + " removed an IoT service group", CategoryIoT
			}
		}

		if strings.Contains(p, "/devices") {
			switch {
			case method == http.MethodPost:
				return actor + " registered a new IoT device", CategoryIoT
			case method == http.MethodGet && strings.HasSuffix(p, "/iot/devices"):
				return actor + " viewed IoT devices", CategoryIoT
			case method == http.MethodGet:
				return actor + " looked up an IoT device", CategoryIoT
			case method == http.MethodPut:
				return actor + " updated an IoT device", CategoryIoT
			case method == http.MethodDelete:
				return actor + " removed an IoT device", CategoryIoT
			}
		}
	}

	// Orion Context Broker
	if strings.HasPrefix(p, "/orion") {
		if strings.Contains(p, "/subscriptions") {
			switch {
			case method == http.MethodPost:
				return actor + " created an Orion subscription", CategoryOrion
			case method == http.MethodGet && strings.HasSuffix(p, "subscriptions"):
				return actor + " viewed Orion subscriptions", CategoryOrion
			case method == http.MethodGet:
				return actor + " looked up an Orion subscription", CategoryOrion
			case method == http.MethodPatch:
				return actor + " modified an Orion subscription", CategoryOrion
			case method == http.MethodDelete:
				return actor + " removed an Orion subscription", CategoryOrion
			}
		}

		if strings.Contains(p, "/entities") {
			switch {
			case method == http.MethodPost && strings.HasSuffix(p, "entities"):
				return actor + " created a context entity", CategoryOrion
			case method == http.MethodGet && strings.HasSuffix(p, "entities"):
				return actor + " queried context entities", CategoryOrion
			case method == http.MethodGet:
				return actor + " looked up a context entity", CategoryOrion
			case method == http.MethodPatch:
				return actor + " updated context entity attributes", CategoryOrion
			case method == http.MethodPut:
				return actor + " replaced context entity attributes", CategoryOrion
			case method == http.MethodDelete:
				return actor + " removed a context entity", CategoryOrion
			}
		}

		if strings.Contains(p, "/op/update") {
			return actor + " performed a batch entity update", CategoryOrion
		}
		if strings.Contains(p, "/types") {
			return actor + " viewed context entity types", CategoryOrion
		}
	}

	// The log endpoints themselves
	if strings.HasPrefix(p, "/logs") {
		return actor + " accessed the activity log", CategorySystem
	}

	return actor + " performed an action on the system", CategorySystem
}
