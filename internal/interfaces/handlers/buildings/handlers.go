// Package buildings exposes shop and production operations.
package buildings

import (
	botsvc "vestoria-backend/internal/application/botsales"
	bldsvc "vestoria-backend/internal/application/buildings"
	"vestoria-backend/internal/middleware"
	"vestoria-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles building handlers.
type Handlers struct {
	Service *bldsvc.Service
	Bots    *botsvc.Service
}

// List GET /api/v1/buildings
func (h *Handlers) List(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	out, err := h.Service.ListBuildings(c.Context(), userID)
	if err != nil {
		return err
	}
	return response.Success(c, "Buildings", out, nil)
}

// Items GET /api/v1/buildings/:id/items
func (h *Handlers) Items(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	buildingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid building id")
	}
	items, err := h.Service.BuildingItems(c.Context(), buildingID, userID)
	if err != nil {
		return err
	}
	return response.Success(c, "Building stock", items, nil)
}

type buildingRequest struct {
	BuildingID string `json:"building_id"`
	ItemName   string `json:"item_name"`
	ItemID     string `json:"item_id"`
	Quantity   int    `json:"quantity"`
}

func (r *buildingRequest) buildingID() (uuid.UUID, error) {
	id, err := uuid.Parse(r.BuildingID)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid building_id")
	}
	return id, nil
}

func (r *buildingRequest) itemID() (uuid.UUID, error) {
	id, err := uuid.Parse(r.ItemID)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid item_id")
	}
	return id, nil
}

func parseBody(c *fiber.Ctx) (*buildingRequest, uuid.UUID, error) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return nil, uuid.Nil, err
	}
	var req buildingRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return &req, userID, nil
}

// StartSales POST /api/v1/buildings/start-sales
func (h *Handlers) StartSales(c *fiber.Ctx) error {
	req, userID, err := parseBody(c)
	if err != nil {
		return err
	}
	buildingID, err := req.buildingID()
	if err != nil {
		return err
	}
	shop, err := h.Service.StartSales(c.Context(), buildingID, userID)
	if err != nil {
		return err
	}
	return response.Success(c, "Sales window opened", shop, nil)
}

// StartProduction POST /api/v1/buildings/start-production
func (h *Handlers) StartProduction(c *fiber.Ctx) error {
	req, userID, err := parseBody(c)
	if err != nil {
		return err
	}
	buildingID, err := req.buildingID()
	if err != nil {
		return err
	}
	b, err := h.Service.StartProduction(c.Context(), buildingID, userID, req.ItemName)
	if err != nil {
		return err
	}
	return response.Success(c, "Production started", b, nil)
}

// CollectProduction POST /api/v1/buildings/collect-production
func (h *Handlers) CollectProduction(c *fiber.Ctx) error {
	req, userID, err := parseBody(c)
	if err != nil {
		return err
	}
	buildingID, err := req.buildingID()
	if err != nil {
		return err
	}
	item, err := h.Service.CollectProduction(c.Context(), buildingID, userID)
	if err != nil {
		return err
	}
	return response.Success(c, "Production collected", item, nil)
}

// Withdraw POST /api/v1/buildings/withdraw
func (h *Handlers) Withdraw(c *fiber.Ctx) error {
	req, userID, err := parseBody(c)
	if err != nil {
		return err
	}
	buildingID, err := req.buildingID()
	if err != nil {
		return err
	}
	itemID, err := req.itemID()
	if err != nil {
		return err
	}
	if err := h.Service.WithdrawItem(c.Context(), buildingID, userID, itemID, req.Quantity); err != nil {
		return err
	}
	return response.Success(c, "Item withdrawn", nil, nil)
}

// Transfer POST /api/v1/buildings/transfer
func (h *Handlers) Transfer(c *fiber.Ctx) error {
	req, userID, err := parseBody(c)
	if err != nil {
		return err
	}
	buildingID, err := req.buildingID()
	if err != nil {
		return err
	}
	itemID, err := req.itemID()
	if err != nil {
		return err
	}
	if err := h.Service.TransferToBuilding(c.Context(), buildingID, userID, itemID, req.Quantity); err != nil {
		return err
	}
	return response.Success(c, "Item transferred", nil, nil)
}

// ProcessSales POST /api/v1/buildings/process-sales
//
// Manual settlement of an open window, ahead of the scheduler.
func (h *Handlers) ProcessSales(c *fiber.Ctx) error {
	req, _, err := parseBody(c)
	if err != nil {
		return err
	}
	buildingID, err := req.buildingID()
	if err != nil {
		return err
	}
	if err := h.Bots.ProcessShopSales(c.Context(), buildingID); err != nil {
		return err
	}
	return response.Success(c, "Sales processed", nil, nil)
}
