package session

import (
	"context"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Validator performs the local, non-authoritative usability check on a
// stored credential. It never verifies the signature: the upstream API is
// the enforcement point, this check only avoids presenting a session that
// is already known to be dead.
type Validator struct {
	store Store
	now   func() time.Time
}

// NewValidator builds a validator over the given store.
func NewValidator(store Store) *Validator {
	return &Validator{store: store, now: time.Now}
}

// IsTokenValid reports whether the stored credential is still usable.
//
// A token that carries a past-dated exp claim is cleared from the store and
// reported invalid. A token that does not decode as a JWT at all is
// reported valid: local parse failure does not imply invalidity, and the
// upstream 401 handling catches truly dead credentials. Role resolution
// takes the opposite default; the asymmetry is intentional.
func (v *Validator) IsTokenValid(ctx context.Context) bool {
	token, err := v.store.Token(ctx)
	if err != nil || token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	if exp.Before(v.now()) {
		_ = v.store.ClearToken(ctx)
		return false
	}
	return true
}
