// Package notifications exposes the user's notification feed.
package notifications

import (
	notifsvc "vestoria-backend/internal/application/notifications"
	"vestoria-backend/internal/middleware"
	"vestoria-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles notification handlers.
type Handlers struct {
	Service *notifsvc.Service
}

// List GET /api/v1/notifications
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	out, err := h.Service.List(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.Success(c, "Notifications", out, nil)
}

// UnreadCount GET /api/v1/notifications/unread-count
func (h *Handlers) UnreadCount(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	count, err := h.Service.UnreadCount(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.Success(c, "Unread count", fiber.Map{"count": count}, nil)
}

// MarkAllRead POST /api/v1/notifications/mark-all-read
func (h *Handlers) MarkAllRead(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	if err := h.Service.MarkAllRead(c.Context(), userID); err != nil {
		return err
	}
	return response.Success(c, "All notifications marked read", nil, nil)
}
