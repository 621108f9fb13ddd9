package domain

// UserIdentity is the minimal identity snapshot cached for UI chrome.
type UserIdentity struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SessionProfile is the locally cached snapshot of the logged-in staff
// member. It is UI-convenience state only; the upstream API remains
// authoritative for every server-side operation.
type SessionProfile struct {
	User      UserIdentity `json:"user"`
	Timestamp int64        `json:"timestamp"`
}

// AuthState is the derived, never-persisted view of a browser session.
// Loading is true until the initial credential check resolves.
type AuthState struct {
	IsAuthenticated bool `json:"is_authenticated"`
	IsAdmin         bool `json:"is_admin"`
	Loading         bool `json:"loading"`
}
