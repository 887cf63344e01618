package activity

import "time"

// Category groups entries for dashboard filtering.
type Category string

// Entry categories.
const (
	CategoryAuthentication Category = "Authentication"
	CategoryUsers          Category = "Users"
	CategoryRoles          Category = "Roles"
	CategoryPermissions    Category = "Permissions"
	CategoryIoT            Category = "IoT"
	CategoryOrion          Category = "Orion"
	CategorySystem         Category = "System"
)

// Severity classifies an entry by its HTTP outcome.
type Severity string

// Entry severities.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Entry is one recorded gateway action.
//
// ID and Timestamp are assigned by Log.Record; callers fill the rest.
// UserID and Username are empty for unauthenticated requests.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`

	StatusCode int   `json:"statusCode"`
	DurationMs int64 `json:"durationMs"`

	// Client-facing fields shown in the dashboard.
	Message  string   `json:"message"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`

	// Raw technical fields.
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Page is one slice of the log history, newest first.
type Page struct {
	Total   int     `json:"total"`
	Entries []Entry `json:"logs"`
}
