// Package inventory exposes the player's holdings.
package inventory

import (
	invsvc "vestoria-backend/internal/application/inventory"
	"vestoria-backend/internal/middleware"
	"vestoria-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles inventory handlers.
type Handlers struct {
	Service *invsvc.Service
}

// Central GET /api/v1/inventory
func (h *Handlers) Central(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	items, err := h.Service.CentralInventory(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.Success(c, "Central holding", items, nil)
}

// All GET /api/v1/inventory/all
func (h *Handlers) All(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	items, err := h.Service.AllInventory(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.Success(c, "All holdings", items, nil)
}

type setPriceRequest struct {
	ItemID string  `json:"item_id"`
	Price  float64 `json:"price"`
}

// SetPrice PATCH /api/v1/inventory/set-price
func (h *Handlers) SetPrice(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req setPriceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item_id")
	}

	item, err := h.Service.SetItemPrice(c.Context(), itemID, userID, req.Price)
	if err != nil {
		return err
	}
	return response.Success(c, "Price updated", item, nil)
}
