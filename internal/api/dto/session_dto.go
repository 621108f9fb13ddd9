package dto

import "github.com/spec-kit/medmarket-admin/internal/domain"

// LoginRequest payload for staff login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse mirrors the session manager's structured result.
type LoginResponse struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error,omitempty"`
	User    *domain.UserIdentity `json:"user,omitempty"`
}

// SessionResponse describes the current session for UI chrome.
type SessionResponse struct {
	IsAuthenticated bool                 `json:"is_authenticated"`
	IsAdmin         bool                 `json:"is_admin"`
	Loading         bool                 `json:"loading"`
	User            *domain.UserIdentity `json:"user,omitempty"`
	Admin           *domain.AdminProfile `json:"admin,omitempty"`
}
