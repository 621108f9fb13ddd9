package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/medmarket-admin/internal/auth"
	"github.com/spec-kit/medmarket-admin/internal/events"
	"github.com/spec-kit/medmarket-admin/internal/observability"
	"github.com/spec-kit/medmarket-admin/internal/upstream"
	apperrors "github.com/spec-kit/medmarket-admin/pkg/util"
)

// ProxyHandler forwards dashboard resource requests (doctors, ambulances,
// patients, specialties, banners, policies, charges, sub-admins) to the
// marketplace API with the session's bearer credential attached. The
// gateway never interprets these payloads.
type ProxyHandler struct {
	client     *upstream.Client
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	loginRoute string
}

// NewProxyHandler constructs handler.
func NewProxyHandler(client *upstream.Client, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger, loginRoute string) *ProxyHandler {
	return &ProxyHandler{
		client:     client,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		loginRoute: loginRoute,
	}
}

// Forward handles any method under /api/*.
func (h *ProxyHandler) Forward(c *fiber.Ctx) error {
	store, ok := auth.StoreFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusInternalServerError, "session not initialized")
	}

	// /api/doctors?page=2 maps to <upstream>/admin/doctors?page=2.
	upstreamPath := "/admin" + strings.TrimPrefix(c.Path(), "/api")

	var body io.Reader
	if len(c.Body()) > 0 {
		body = bytes.NewReader(c.Body())
	}

	resp, err := h.client.Do(
		c.Context(),
		store,
		c.Method(),
		upstreamPath,
		string(c.Request().URI().QueryString()),
		body,
		c.Get(fiber.HeaderContentType),
	)
	if err != nil {
		if errors.Is(err, upstream.ErrSessionExpired) {
			return h.sessionExpired(c)
		}
		h.logger.Warn("upstream request failed", zap.String("path", upstreamPath), zap.Error(err))
		return apperrors.NewBadGateway("marketplace API unavailable")
	}
	defer resp.Body.Close()

	h.metrics.RecordUpstream(upstreamPath, resp.StatusCode)

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewBadGateway("marketplace API returned an unreadable response")
	}

	if contentType := resp.Header.Get(fiber.HeaderContentType); contentType != "" {
		c.Set(fiber.HeaderContentType, contentType)
	}
	return c.Status(resp.StatusCode).Send(payload)
}

// sessionExpired reports the upstream 401: the credential is already
// cleared, the cached session state is forced to match, and the UI is
// pointed back at login. Expiry is silent, no error dialog payload.
func (h *ProxyHandler) sessionExpired(c *fiber.Ctx) error {
	h.metrics.RecordDenial(c.Path(), "session_expired")

	email := ""
	sessionID := ""
	if manager, ok := auth.ManagerFromContext(c); ok {
		if user := manager.User(); user != nil {
			email = user.Email
		}
		sessionID = manager.SessionID()
		// Without this the registry-cached manager keeps reporting the
		// session authenticated after the store lost the credential.
		manager.Expire(c.Context())
	}
	if h.dispatcher != nil {
		_ = h.dispatcher.Publish(c.Context(), events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSessionExpired,
			SessionID: sessionID,
			Email:     email,
			Timestamp: time.Now(),
			Payload:   events.SessionExpiredPayload{Source: "upstream_401"},
		})
	}

	return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{
			"code":  "SESSION_EXPIRED",
			"login": h.loginRoute,
		},
	})
}
