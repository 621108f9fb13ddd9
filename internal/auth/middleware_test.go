package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/medmarket-admin/internal/domain"
	"github.com/spec-kit/medmarket-admin/internal/events"
	"github.com/spec-kit/medmarket-admin/internal/observability"
	"github.com/spec-kit/medmarket-admin/internal/session"
)

func injectSession(manager *session.Manager, resolver *RoleResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(managerKey, manager)
		if resolver != nil {
			c.Locals(resolverKey, resolver)
		}
		return c.Next()
	}
}

func authenticatedManager(t *testing.T, store session.Store) *session.Manager {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SetToken(ctx, "opaque-token"))
	require.NoError(t, store.SetProfile(ctx, &domain.SessionProfile{
		User:      domain.UserIdentity{Email: "a@b.com"},
		Timestamp: time.Now().UnixMilli(),
	}))

	manager := session.NewManager("s1", store, nil, nil, nil, nil)
	manager.Init(ctx)
	require.True(t, manager.State(ctx).IsAuthenticated)
	return manager
}

func TestRequireSessionWhileLoadingRendersPlaceholder(t *testing.T) {
	manager := session.NewManager("s1", session.NewMemoryStore(), nil, nil, nil, nil)

	app := fiber.New()
	app.Get("/protected", injectSession(manager, nil),
		RequireSession("/login", observability.NewMetrics()),
		func(c *fiber.Ctx) error { return c.SendString("content") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, resp.Header.Get(fiber.HeaderLocation), "no redirect while loading")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NotContains(t, string(body), "content")
}

func TestRequireSessionRedirectsUnauthenticatedWithNext(t *testing.T) {
	manager := session.NewManager("s1", session.NewMemoryStore(), nil, nil, nil, nil)
	manager.Init(context.Background())

	app := fiber.New()
	app.Get("/protected", injectSession(manager, nil),
		RequireSession("/login", observability.NewMetrics()),
		func(c *fiber.Ctx) error { return c.SendString("content") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected?tab=2", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/login?next=%2Fprotected%3Ftab%3D2", resp.Header.Get(fiber.HeaderLocation))
}

func TestRequireSessionPassesAuthenticated(t *testing.T) {
	manager := authenticatedManager(t, session.NewMemoryStore())

	app := fiber.New()
	app.Get("/protected", injectSession(manager, nil),
		RequireSession("/login", observability.NewMetrics()),
		func(c *fiber.Ctx) error { return c.SendString("content") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "content", string(body))
}

func TestAdminOnlyDeniesInPlace(t *testing.T) {
	store := session.NewMemoryStore()
	manager := authenticatedManager(t, store)
	resolver := NewRoleResolver(store, testCipher(t))

	app := fiber.New()
	app.Get("/subadmins", injectSession(manager, resolver),
		RequireSession("/login", observability.NewMetrics()),
		AdminOnly(observability.NewMetrics(), nil),
		func(c *fiber.Ctx) error { return c.SendString("sub-admin list") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/subadmins", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Empty(t, resp.Header.Get(fiber.HeaderLocation), "in-place denial, not a redirect")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "Access Denied")
	require.NotContains(t, string(body), "sub-admin list")
}

func TestAdminOnlyPassesAdmin(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	manager := authenticatedManager(t, store)

	cipher := testCipher(t)
	require.NoError(t, store.SetAdminProfile(ctx, sealProfile(t, cipher, domain.AdminProfile{Subadmin: false})))
	resolver := NewRoleResolver(store, cipher)

	app := fiber.New()
	app.Get("/subadmins", injectSession(manager, resolver),
		RequireSession("/login", observability.NewMetrics()),
		AdminOnly(observability.NewMetrics(), nil),
		func(c *fiber.Ctx) error { return c.SendString("sub-admin list") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/subadmins", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireAdminRedirectsToLanding(t *testing.T) {
	store := session.NewMemoryStore()
	manager := authenticatedManager(t, store)
	resolver := NewRoleResolver(store, testCipher(t))

	app := fiber.New()
	app.Get("/admin/history", injectSession(manager, resolver),
		RequireSession("/login", observability.NewMetrics()),
		RequireAdmin("/dashboard", observability.NewMetrics(), nil),
		func(c *fiber.Ctx) error { return c.SendString("history") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin/history", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/dashboard", resp.Header.Get(fiber.HeaderLocation))
}

func TestAdminDenialPublishesAuditEvent(t *testing.T) {
	store := session.NewMemoryStore()
	manager := authenticatedManager(t, store)
	resolver := NewRoleResolver(store, testCipher(t))

	dispatcher := events.NewInMemoryDispatcher()
	var seen []events.Event
	dispatcher.Subscribe(events.EventAdminDenied, func(_ context.Context, event events.Event) error {
		seen = append(seen, event)
		return nil
	})

	app := fiber.New()
	app.Get("/subadmins", injectSession(manager, resolver),
		AdminOnly(observability.NewMetrics(), dispatcher),
		func(c *fiber.Ctx) error { return c.SendString("sub-admin list") })
	app.Get("/admin/history", injectSession(manager, resolver),
		RequireAdmin("/dashboard", observability.NewMetrics(), dispatcher),
		func(c *fiber.Ctx) error { return c.SendString("history") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/subadmins", nil))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/admin/history", nil))
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, seen, 2)
	require.Equal(t, events.EventAdminDenied, seen[0].Type)
	require.Equal(t, "s1", seen[0].SessionID)
	require.Equal(t, "a@b.com", seen[0].Email)
	require.Equal(t, events.AdminDeniedPayload{Path: "/subadmins"}, seen[0].Payload)
	require.Equal(t, events.AdminDeniedPayload{Path: "/admin/history"}, seen[1].Payload)
}

func TestSessionMiddlewareAssignsCookieAndInitializes(t *testing.T) {
	stores := map[string]session.Store{}
	factory := func(sessionID string) session.Store {
		if store, ok := stores[sessionID]; ok {
			return store
		}
		store := session.NewMemoryStore()
		stores[sessionID] = store
		return store
	}

	registry := session.NewRegistry(func(sessionID string) *session.Manager {
		return session.NewManager(sessionID, factory(sessionID), nil, nil, nil, nil)
	}, time.Hour)

	mw := NewSessionMiddleware("admin_session", time.Hour, registry, factory, testCipher(t))

	app := fiber.New()
	app.Get("/auth/session", mw.Handle, func(c *fiber.Ctx) error {
		manager, ok := ManagerFromContext(c)
		require.True(t, ok)
		return c.JSON(manager.State(c.Context()))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/session", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sawCookie bool
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "admin_session" && cookie.Value != "" {
			sawCookie = true
		}
	}
	require.True(t, sawCookie, "a session cookie must be issued")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `"loading":false`)
}
