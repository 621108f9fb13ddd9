package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/medmarket-admin/internal/api/dto"
	"github.com/spec-kit/medmarket-admin/internal/auth"
	"github.com/spec-kit/medmarket-admin/internal/observability"
)

// SessionHandler exposes the login/logout/session endpoints.
type SessionHandler struct {
	metrics *observability.Metrics
}

// NewSessionHandler constructs handler.
func NewSessionHandler(metrics *observability.Metrics) *SessionHandler {
	return &SessionHandler{metrics: metrics}
}

// Login handles POST /auth/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	manager, ok := auth.ManagerFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusInternalServerError, "session not initialized")
	}

	result := manager.Login(c.Context(), req.Email, req.Password)
	h.metrics.RecordLogin(result.Success)

	if !result.Success {
		return c.Status(http.StatusUnauthorized).JSON(dto.LoginResponse{
			Success: false,
			Error:   result.Error,
		})
	}

	return c.JSON(dto.LoginResponse{
		Success: true,
		User:    manager.User(),
	})
}

// Logout handles POST /auth/logout. Logout never fails from the caller's
// perspective; remote errors are swallowed inside the manager.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	manager, ok := auth.ManagerFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusInternalServerError, "session not initialized")
	}

	manager.Logout(c.Context())
	return c.JSON(fiber.Map{"success": true})
}

// Session handles GET /auth/session, the state snapshot for UI chrome.
func (h *SessionHandler) Session(c *fiber.Ctx) error {
	manager, ok := auth.ManagerFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusInternalServerError, "session not initialized")
	}

	state := manager.State(c.Context())
	resp := dto.SessionResponse{
		IsAuthenticated: state.IsAuthenticated,
		IsAdmin:         state.IsAdmin,
		Loading:         state.Loading,
	}

	if state.IsAuthenticated {
		resp.User = manager.User()
		if resolver, ok := auth.ResolverFromContext(c); ok {
			resp.Admin = resolver.UserData(c.Context())
		}
	}
	return c.JSON(resp)
}

// LoginPage handles GET /login, the redirect target for unauthenticated
// requests. The carried next location is echoed back, nothing more.
func (h *SessionHandler) LoginPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "authentication required",
		"next":    c.Query("next"),
	})
}

// Landing handles GET /dashboard, the default authenticated landing route.
func (h *SessionHandler) Landing(c *fiber.Ctx) error {
	manager, ok := auth.ManagerFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusInternalServerError, "session not initialized")
	}
	return c.JSON(fiber.Map{
		"message": "welcome",
		"user":    manager.User(),
	})
}
