package domain

import "time"

// AuditAction enumerates recorded authentication actions.
type AuditAction string

const (
	AuditLoginSucceeded AuditAction = "LOGIN_SUCCEEDED"
	AuditLoginFailed    AuditAction = "LOGIN_FAILED"
	AuditLogout         AuditAction = "LOGOUT"
	AuditSessionExpired AuditAction = "SESSION_EXPIRED"
	AuditAdminDenied    AuditAction = "ADMIN_DENIED"
)

// AuditEntry is one row of the authentication audit trail.
type AuditEntry struct {
	ID        string
	SessionID string
	Email     string
	Action    AuditAction
	Success   bool
	Detail    string
	CreatedAt time.Time
}
