package session

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return token
}

func TestIsTokenValidNoToken(t *testing.T) {
	store := NewMemoryStore()
	v := NewValidator(store)

	require.False(t, v.IsTokenValid(context.Background()))
}

func TestIsTokenValidExpiredClearsCredential(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.SetToken(ctx, signedToken(t, jwt.MapClaims{
		"sub": "staff-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})))

	v := NewValidator(store)
	require.False(t, v.IsTokenValid(ctx))

	token, err := store.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, token, "expired credential must be removed from storage")
}

func TestIsTokenValidFutureExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	original := signedToken(t, jwt.MapClaims{
		"sub": "staff-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, store.SetToken(ctx, original))

	v := NewValidator(store)
	require.True(t, v.IsTokenValid(ctx))

	token, err := store.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, original, token, "storage must be untouched")
}

func TestIsTokenValidNoExpClaim(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.SetToken(ctx, signedToken(t, jwt.MapClaims{"sub": "staff-1"})))

	v := NewValidator(store)
	require.True(t, v.IsTokenValid(ctx))
}

func TestIsTokenValidUnparseableFailsOpen(t *testing.T) {
	ctx := context.Background()

	for _, token := range []string{
		"opaque-server-token",
		"two.segments",
		"a.!!!not-base64!!!.c",
	} {
		store := NewMemoryStore()
		require.NoError(t, store.SetToken(ctx, token))

		v := NewValidator(store)
		require.True(t, v.IsTokenValid(ctx), "token %q must fail open", token)

		stored, err := store.Token(ctx)
		require.NoError(t, err)
		require.Equal(t, token, stored, "fail-open check must not touch storage")
	}
}
