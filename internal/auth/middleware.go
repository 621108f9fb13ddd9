package auth

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/medmarket-admin/internal/events"
	"github.com/spec-kit/medmarket-admin/internal/observability"
	"github.com/spec-kit/medmarket-admin/internal/session"
)

const (
	managerKey  = "auth_session_manager"
	resolverKey = "auth_role_resolver"
	storeKey    = "auth_session_store"
)

// StoreFactory builds the per-session store for a session ID.
type StoreFactory func(sessionID string) session.Store

// SessionMiddleware binds each request to its browser session: the cookie
// carries only an opaque session ID, all state lives server-side. The
// manager is initialized here, so guards downstream normally see a
// resolved state; the loading branch in RequireSession covers managers
// that have not been through this middleware yet.
type SessionMiddleware struct {
	cookieName string
	ttl        time.Duration
	registry   *session.Registry
	stores     StoreFactory
	cipher     *ProfileCipher
}

// NewSessionMiddleware constructs the middleware.
func NewSessionMiddleware(cookieName string, ttl time.Duration, registry *session.Registry, stores StoreFactory, cipher *ProfileCipher) *SessionMiddleware {
	return &SessionMiddleware{
		cookieName: cookieName,
		ttl:        ttl,
		registry:   registry,
		stores:     stores,
		cipher:     cipher,
	}
}

// Handle attaches the session manager, store and role resolver to the
// request context.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	sid := c.Cookies(m.cookieName)
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     m.cookieName,
			Value:    sid,
			Expires:  time.Now().Add(m.ttl),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	store := m.stores(sid)
	manager := m.registry.Get(sid)
	if manager.State(c.Context()).Loading {
		manager.Init(c.Context())
	}

	c.Locals(managerKey, manager)
	c.Locals(storeKey, store)
	c.Locals(resolverKey, NewRoleResolver(store, m.cipher))
	return c.Next()
}

// ManagerFromContext retrieves the session manager.
func ManagerFromContext(c *fiber.Ctx) (*session.Manager, bool) {
	manager, ok := c.Locals(managerKey).(*session.Manager)
	return manager, ok
}

// ResolverFromContext retrieves the role resolver.
func ResolverFromContext(c *fiber.Ctx) (*RoleResolver, bool) {
	resolver, ok := c.Locals(resolverKey).(*RoleResolver)
	return resolver, ok
}

// StoreFromContext retrieves the per-session store.
func StoreFromContext(c *fiber.Ctx) (session.Store, bool) {
	store, ok := c.Locals(storeKey).(session.Store)
	return store, ok
}

// RequireSession gates a subtree on authentication. While the session
// state is still loading it renders a neutral placeholder, neither the
// protected content nor a redirect, so an undetermined session is never
// flashed to the login page. Unauthenticated requests are redirected to
// the login route carrying the originally requested location; acting on
// that carried location is up to the login flow and may be a no-op.
func RequireSession(loginRoute string, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		manager, ok := ManagerFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}

		state := manager.State(c.Context())
		if state.Loading {
			return c.SendStatus(http.StatusNoContent)
		}
		if !state.IsAuthenticated {
			metrics.RecordDenial(c.Path(), "unauthenticated")
			target := loginRoute + "?next=" + url.QueryEscape(c.OriginalURL())
			return c.Redirect(target, http.StatusFound)
		}
		return c.Next()
	}
}

// RequireAdmin gates a whole route tree on the admin tier, redirecting
// non-admins to the default authenticated landing route. Assumes an outer
// RequireSession already holds.
func RequireAdmin(landingRoute string, metrics *observability.Metrics, dispatcher events.Dispatcher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resolver, ok := ResolverFromContext(c)
		if !ok || !resolver.IsAdminUser(c.Context()) {
			metrics.RecordDenial(c.Path(), "admin_required")
			publishAdminDenied(c, dispatcher)
			return c.Redirect(landingRoute, http.StatusFound)
		}
		return c.Next()
	}
}

// AdminOnly is the in-place variant for subtrees inside an authenticated
// shell: non-admins get an Access Denied notice where the content would
// render, not a redirect loop.
func AdminOnly(metrics *observability.Metrics, dispatcher events.Dispatcher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		resolver, ok := ResolverFromContext(c)
		if !ok || !resolver.IsAdminUser(c.Context()) {
			metrics.RecordDenial(c.Path(), "admin_required")
			publishAdminDenied(c, dispatcher)
			return c.Status(http.StatusForbidden).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "ACCESS_DENIED",
					"message": "Access Denied",
				},
			})
		}
		return c.Next()
	}
}

func publishAdminDenied(c *fiber.Ctx, dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}

	email := ""
	sessionID := ""
	if manager, ok := ManagerFromContext(c); ok {
		if user := manager.User(); user != nil {
			email = user.Email
		}
		sessionID = manager.SessionID()
	}

	_ = dispatcher.Publish(c.Context(), events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAdminDenied,
		SessionID: sessionID,
		Email:     email,
		Timestamp: time.Now(),
		Payload:   events.AdminDeniedPayload{Path: c.Path()},
	})
}
