// Package market exposes the marketplace surface: dynamic prices, listing
// browsing, selling, buying and cancelling.
package market

import (
	listsvc "vestoria-backend/internal/application/listings"
	pricesvc "vestoria-backend/internal/application/pricing"
	tradesvc "vestoria-backend/internal/application/trading"
	"vestoria-backend/internal/middleware"
	"vestoria-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handlers bundles marketplace handlers.
type Handlers struct {
	Pricing  *pricesvc.Service
	Listings *listsvc.Service
	Trading  *tradesvc.Service
}

// GetPrice GET /api/v1/market/price/:itemName
func (h *Handlers) GetPrice(c *fiber.Ctx) error {
	itemName := c.Params("itemName")
	price, err := h.Pricing.GetMarketPrice(c.Context(), itemName)
	if err != nil {
		return err
	}
	return response.Success(c, "Market price", fiber.Map{
		"item_name": itemName,
		"price":     price,
	}, nil)
}

// GetStats GET /api/v1/market/stats/:itemName
func (h *Handlers) GetStats(c *fiber.Ctx) error {
	itemName := c.Params("itemName")
	supply, err := h.Pricing.ActiveSupply(c.Context(), itemName)
	if err != nil {
		return err
	}
	demand, err := h.Pricing.GlobalDemand(c.Context(), itemName)
	if err != nil {
		return err
	}
	return response.Success(c, "Market stats", fiber.Map{
		"item_name":     itemName,
		"active_supply": supply,
		"demand_24h":    demand,
	}, nil)
}

// GetListings GET /api/v1/market/listings?search=&page=&size=
func (h *Handlers) GetListings(c *fiber.Ctx) error {
	page := c.QueryInt("page", 0)
	size := c.QueryInt("size", 20)
	listings, total, err := h.Listings.GetActiveListings(c.Context(), c.Query("search"), page, size)
	if err != nil {
		return err
	}
	return response.Success(c, "Active listings", listings, fiber.Map{
		"total": total,
		"page":  page,
		"size":  size,
	})
}

type listItemRequest struct {
	ItemID   string  `json:"item_id"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// ListItem POST /api/v1/market/list-item
func (h *Handlers) ListItem(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req listItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item_id")
	}

	listing, err := h.Listings.ListItem(c.Context(), userID, itemID, req.Quantity, req.Price)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Item listed", listing, nil)
}

type buyItemRequest struct {
	ListingID string `json:"listing_id"`
	Quantity  int    `json:"quantity"`
}

// BuyItem POST /api/v1/market/buy-item
func (h *Handlers) BuyItem(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req buyItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid listing_id")
	}

	if err := h.Trading.BuyItem(c.Context(), userID, listingID, req.Quantity); err != nil {
		return err
	}
	return response.Success(c, "Purchase complete", nil, nil)
}

type cancelListingRequest struct {
	ListingID string `json:"listing_id"`
}

// CancelListing POST /api/v1/market/cancel-listing
func (h *Handlers) CancelListing(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req cancelListingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid listing_id")
	}

	if err := h.Listings.CancelListing(c.Context(), listingID, userID); err != nil {
		return err
	}
	return response.Success(c, "Listing cancelled", nil, nil)
}
