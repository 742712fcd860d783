// Package accounts exposes the player's own account.
package accounts

import (
	acctsvc "vestoria-backend/internal/application/accounts"
	"vestoria-backend/internal/middleware"
	"vestoria-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles account handlers.
type Handlers struct {
	Service *acctsvc.Service
}

// Me GET /api/v1/accounts/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	acct, err := h.Service.GetAccount(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.Success(c, "Account", acct, nil)
}
