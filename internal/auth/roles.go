package auth

import (
	"context"
	"encoding/json"

	"github.com/spec-kit/medmarket-admin/internal/domain"
	"github.com/spec-kit/medmarket-admin/internal/session"
)

// RoleResolver derives the admin tier from the separately persisted,
// encrypted admin profile. The result only drives which UI subtrees are
// reachable; the upstream API stays authoritative for every operation.
//
// Unlike the token validator, every failure here resolves to "not an
// admin". Unparseable storage must never widen access.
type RoleResolver struct {
	store  session.Store
	cipher *ProfileCipher
}

// NewRoleResolver builds a resolver over the session store.
func NewRoleResolver(store session.Store, cipher *ProfileCipher) *RoleResolver {
	return &RoleResolver{store: store, cipher: cipher}
}

// IsAdminUser reports whether the session belongs to a full admin.
// NOTE: the tier check is inverted on purpose — a decrypted profile whose
// subadmin field is absent or false counts as a full admin. Changing the
// polarity would flip access control for existing profiles.
func (r *RoleResolver) IsAdminUser(ctx context.Context) bool {
	profile := r.decode(ctx)
	if profile == nil {
		return false
	}
	return !profile.Subadmin
}

// UserData returns the full decrypted payload for display purposes, nil on
// any failure.
func (r *RoleResolver) UserData(ctx context.Context) *domain.AdminProfile {
	return r.decode(ctx)
}

func (r *RoleResolver) decode(ctx context.Context) *domain.AdminProfile {
	blob, err := r.store.AdminProfile(ctx)
	if err != nil || blob == "" {
		return nil
	}

	// The blob may have been stored JSON-string-encoded or raw; tolerate
	// both.
	var unquoted string
	if err := json.Unmarshal([]byte(blob), &unquoted); err == nil {
		blob = unquoted
	}

	plaintext, err := r.cipher.Open(blob)
	if err != nil || len(plaintext) == 0 {
		return nil
	}

	var profile domain.AdminProfile
	if err := json.Unmarshal(plaintext, &profile); err != nil {
		return nil
	}
	return &profile
}
