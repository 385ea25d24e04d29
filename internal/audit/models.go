package audit

import "time"

// Kind classifies an operational event.
type Kind string

const (
	EventLoginAuthorized Kind = "login_authorized"
	EventLoginDenied     Kind = "login_denied"
	EventLogout          Kind = "logout"
	EventRecordUpdated   Kind = "record_updated"
	EventRecordDeleted   Kind = "record_deleted"
	// EventCleanupWarning marks an evidence blob that survived a
	// best-effort cascade deletion and needs operational follow-up.
	EventCleanupWarning Kind = "cleanup_warning"
	EventAdminCreated   Kind = "admin_created"
)

// Event is emitted from domain logic to capture key admin actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
	Actor     string    `json:"actor,omitempty"`
	OwnerID   string    `json:"ownerId,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
