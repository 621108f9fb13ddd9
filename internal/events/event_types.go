package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventLogout         EventType = "logout"
	EventSessionExpired EventType = "session_expired"
	EventAdminDenied    EventType = "admin_denied"
)

// Event represents an authentication event emitted by the session layer.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Email     string      `json:"email,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// SessionExpiredPayload payload.
type SessionExpiredPayload struct {
	// Source distinguishes the local expiry check from an upstream 401.
	Source string `json:"source"`
}

// AdminDeniedPayload payload.
type AdminDeniedPayload struct {
	Path string `json:"path"`
}
