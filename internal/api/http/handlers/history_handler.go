package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/medmarket-admin/internal/service"
)

// HistoryHandler serves the admin-only auth history view.
type HistoryHandler struct {
	audit *service.AuditService
}

// NewHistoryHandler constructs handler.
func NewHistoryHandler(audit *service.AuditService) *HistoryHandler {
	return &HistoryHandler{audit: audit}
}

// List handles GET /admin/history.
func (h *HistoryHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	entries, err := h.audit.ListRecent(c.Context(), limit)
	if err != nil {
		return err
	}

	items := make([]fiber.Map, 0, len(entries))
	for _, entry := range entries {
		items = append(items, fiber.Map{
			"id":         entry.ID,
			"session_id": entry.SessionID,
			"email":      entry.Email,
			"action":     entry.Action,
			"success":    entry.Success,
			"detail":     entry.Detail,
			"created_at": entry.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{"data": items})
}
