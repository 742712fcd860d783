// Package trading implements the concurrency-safe buy flow. Two buyers
// racing on one listing are serialized by the listing's version token:
// the losing writer's transaction rolls back completely and is retried
// from a fresh read, so committed purchases can never exceed the stock.
package trading

import (
	"context"
	"errors"
	"fmt"
	"math"

	"vestoria-backend/internal/application/inventory"
	"vestoria-backend/internal/application/notifications"
	"vestoria-backend/internal/application/pricing"
	"vestoria-backend/internal/domain"
	"vestoria-backend/internal/events"
	"vestoria-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultAttempts = 3

var errVersionConflict = errors.New("listing version conflict")

type Service struct {
	DB        *gorm.DB
	Inventory *inventory.Service
	Pricing   *pricing.Service
	Events    *events.Publisher
	Notifier  *notifications.Service
	Attempts  int

	// fired between the listing read and its guarded write; lets tests
	// provoke version conflicts deterministically
	beforeListingWrite func(tx *gorm.DB, listing *domain.MarketListing)
}

type receipt struct {
	sellerID  uuid.UUID
	buyerName string
	itemName  string
	totalCost float64
	unitPrice float64
	quantity  int
}

// BuyItem purchases quantity units from a listing. Each attempt runs as
// one transaction; a version conflict on the listing write aborts the
// attempt (rolling back the funds transfer) and triggers a re-read, up to
// the retry bound.
func (s *Service) BuyItem(ctx context.Context, buyerID, listingID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return apperr.BusinessRule("quantity must be positive")
	}

	attempts := s.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}

	var rcpt receipt
	for attempt := 0; attempt < attempts; attempt++ {
		err := s.attemptBuy(ctx, buyerID, listingID, quantity, &rcpt)
		if err == nil {
			s.afterPurchase(ctx, listingID, rcpt)
			return nil
		}
		if errors.Is(err, errVersionConflict) {
			continue
		}
		return err
	}
	return apperr.BusinessRule("the market is busy, the purchase could not be completed, please try again")
}

func (s *Service) attemptBuy(ctx context.Context, buyerID, listingID uuid.UUID, quantity int, rcpt *receipt) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing domain.MarketListing
		if err := tx.Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("listing not found")
			}
			return err
		}

		if listing.SellerID == buyerID {
			return apperr.BusinessRule("you cannot buy your own listing")
		}
		if !listing.Active {
			return apperr.BusinessRule("this listing is no longer for sale")
		}
		if listing.Quantity < quantity {
			return apperr.BusinessRule("not enough quantity on the market: %d available", listing.Quantity)
		}

		totalCost := round2(listing.Price * float64(quantity))

		var buyer domain.Account
		if err := tx.Where("account_id = ?", buyerID).First(&buyer).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("buyer account not found")
			}
			return err
		}
		if buyer.Balance < totalCost {
			return apperr.InsufficientBalance("insufficient balance: this purchase requires %.2f", totalCost)
		}

		var seller domain.Account
		if err := tx.Where("account_id = ?", listing.SellerID).First(&seller).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("seller account not found")
			}
			return err
		}

		// Funds move first, but they only become visible if the guarded
		// listing write below succeeds in the same transaction.
		if err := tx.Model(&domain.Account{}).
			Where("account_id = ?", buyer.AccountID).
			Update("balance", round2(buyer.Balance-totalCost)).Error; err != nil {
			return err
		}
		if err := tx.Model(&domain.Account{}).
			Where("account_id = ?", seller.AccountID).
			Update("balance", round2(seller.Balance+totalCost)).Error; err != nil {
			return err
		}

		if s.beforeListingWrite != nil {
			s.beforeListingWrite(tx, &listing)
		}

		newQty := listing.Quantity - quantity
		res := tx.Model(&domain.MarketListing{}).
			Where("listing_id = ? AND version = ?", listing.ListingID, listing.Version).
			Updates(map[string]interface{}{
				"quantity": newQty,
				"active":   newQty > 0,
				"version":  listing.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another writer advanced the version; abort so the whole
			// attempt rolls back and is retried from a fresh read.
			return errVersionConflict
		}

		var item domain.Item
		if err := tx.Where("item_id = ?", listing.ItemID).First(&item).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("listed item no longer exists")
			}
			return err
		}
		batch := item
		batch.QualityScore = listing.QualityScore
		if err := s.Inventory.CreditHolding(tx, buyerID, &batch, quantity, listing.Price); err != nil {
			return err
		}

		lid := listing.ListingID
		bid := buyer.AccountID
		entry := domain.Transaction{
			Type:      domain.TxMarketBuy,
			BuyerID:   &bid,
			SellerID:  seller.AccountID,
			ListingID: &lid,
			Price:     totalCost,
			Amount:    quantity,
			ItemName:  listing.ItemName,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		*rcpt = receipt{
			sellerID:  seller.AccountID,
			buyerName: buyer.Username,
			itemName:  listing.ItemName,
			totalCost: totalCost,
			unitPrice: listing.Price,
			quantity:  quantity,
		}
		return nil
	})
}

// afterPurchase runs the best-effort side effects of a committed trade:
// seller notification, market event, cache invalidation. None of these
// can fail the trade.
func (s *Service) afterPurchase(ctx context.Context, listingID uuid.UUID, rcpt receipt) {
	s.Notifier.Notify(ctx, rcpt.sellerID, fmt.Sprintf(
		"%s bought %d x %s. Earnings: %.2f",
		rcpt.buyerName, rcpt.quantity, rcpt.itemName, rcpt.totalCost,
	))
	s.Events.Publish(ctx, events.MarketUpdate{
		Type:      events.TypeBuy,
		ListingID: &listingID,
		ItemName:  rcpt.itemName,
		Quantity:  rcpt.quantity,
		Price:     rcpt.unitPrice,
	})
	s.Pricing.Invalidate(ctx, rcpt.itemName)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
