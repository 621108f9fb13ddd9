package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/medmarket-admin/internal/config"
	"github.com/spec-kit/medmarket-admin/internal/session"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.UpstreamConfig{BaseURL: server.URL, TimeoutSeconds: 5}, nil)
}

func TestLoginDecodesSuccessResponse(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/admin/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "a@b.com", body["email"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"token":    "t1",
			"user":     map[string]string{"email": "a@b.com", "name": "Staff"},
			"subadmin": true,
		})
	}))

	reply, err := client.Login(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	require.True(t, reply.Success)
	require.Equal(t, "t1", reply.Token)
	require.Equal(t, "a@b.com", reply.User.Email)
	require.True(t, reply.Subadmin)
}

func TestLoginDecodesRejection(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "invalid credentials",
		})
	}))

	reply, err := client.Login(context.Background(), "a@b.com", "wrong")
	require.NoError(t, err)
	require.False(t, reply.Success)
	require.Equal(t, "invalid credentials", reply.Error)
}

func TestDoAttachesBearerHeader(t *testing.T) {
	var seenAuth string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))

	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.SetToken(ctx, "t1"))

	resp, err := client.Do(ctx, store, http.MethodGet, "/admin/doctors", "page=2", nil, "")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "Bearer t1", seenAuth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDoWithoutTokenSendsNoHeader(t *testing.T) {
	var seenAuth string
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))

	resp, err := client.Do(context.Background(), session.NewMemoryStore(), http.MethodGet, "/admin/doctors", "", nil, "")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Empty(t, seenAuth)
}

func TestDoClearsCredentialOnUpstream401(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	ctx := context.Background()
	store := session.NewMemoryStore()
	require.NoError(t, store.SetToken(ctx, "dead-token"))

	_, err := client.Do(ctx, store, http.MethodGet, "/admin/patients", "", nil, "")
	require.ErrorIs(t, err, ErrSessionExpired)

	token, err := store.Token(ctx)
	require.NoError(t, err)
	require.Empty(t, token, "401 must clear the local credential")
}

func TestLogoutReportsUpstreamFailure(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer t1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := client.Logout(context.Background(), "t1")
	require.Error(t, err)
}
