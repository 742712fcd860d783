// Package listings implements the listing store: putting stock on the
// market (with escrow), cancelling, and browsing active listings.
package listings

import (
	"context"
	"strings"

	"vestoria-backend/internal/application/pricing"
	"vestoria-backend/internal/domain"
	"vestoria-backend/internal/events"
	"vestoria-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB      *gorm.DB
	Pricing *pricing.Service
	Events  *events.Publisher
}

// ListItem places quantity units of the seller's item on the market at the
// given unit price. The stock is deducted from the item immediately
// (escrow; restored on cancel). When the seller already has an active
// listing for the same item name at the same price with the exact same
// quality score, the quantities merge instead of creating a duplicate row.
func (s *Service) ListItem(ctx context.Context, sellerID, itemID uuid.UUID, quantity int, price float64) (*domain.MarketListing, error) {
	if quantity <= 0 {
		return nil, apperr.BusinessRule("quantity must be positive")
	}
	if price <= 0 {
		return nil, apperr.BusinessRule("price must be positive")
	}

	var listing *domain.MarketListing
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item domain.Item
		if err := tx.Where("item_id = ?", itemID).First(&item).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("item not found")
			}
			return err
		}
		if item.OwnerID != sellerID {
			return apperr.Unauthorized("this item does not belong to you")
		}
		if item.Quantity < quantity {
			return apperr.BusinessRule("not enough stock: have %d, want %d", item.Quantity, quantity)
		}

		// Escrow: deduct from the source item up front; cancel restores.
		item.Quantity -= quantity
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		var existing domain.MarketListing
		err := tx.Where(
			"seller_id = ? AND item_name = ? AND price = ? AND quality_score = ? AND active = ?",
			sellerID, item.Name, price, item.QualityScore, true,
		).First(&existing).Error
		if err == nil {
			// Merge guarded by the version token so a racing buyer
			// cannot be overwritten; on conflict fall through to a
			// fresh row rather than retrying.
			res := tx.Model(&domain.MarketListing{}).
				Where("listing_id = ? AND version = ?", existing.ListingID, existing.Version).
				Updates(map[string]interface{}{
					"quantity": existing.Quantity + quantity,
					"version":  existing.Version + 1,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				existing.Quantity += quantity
				existing.Version++
				listing = &existing
				return nil
			}
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		fresh := domain.MarketListing{
			SellerID:     sellerID,
			ItemID:       item.ItemID,
			ItemName:     item.Name,
			QualityScore: item.QualityScore,
			Price:        price,
			Quantity:     quantity,
			Active:       true,
			Version:      0,
		}
		if err := tx.Create(&fresh).Error; err != nil {
			return err
		}
		listing = &fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Events.Publish(ctx, events.MarketUpdate{
		Type:      events.TypeList,
		ListingID: &listing.ListingID,
		ItemName:  listing.ItemName,
		Quantity:  listing.Quantity,
		Price:     listing.Price,
	})
	s.Pricing.Invalidate(ctx, listing.ItemName)
	return listing, nil
}

// CancelListing deactivates a listing and restores its remaining quantity
// onto the underlying item. Only the seller may cancel.
func (s *Service) CancelListing(ctx context.Context, listingID, sellerID uuid.UUID) error {
	var itemName string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing domain.MarketListing
		if err := tx.Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("listing not found")
			}
			return err
		}
		if listing.SellerID != sellerID {
			return apperr.Unauthorized("you are not allowed to cancel this listing")
		}
		if !listing.Active {
			return apperr.BusinessRule("listing is already inactive")
		}

		var item domain.Item
		if err := tx.Where("item_id = ?", listing.ItemID).First(&item).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("listed item no longer exists")
			}
			return err
		}
		item.Quantity += listing.Quantity
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		res := tx.Model(&domain.MarketListing{}).
			Where("listing_id = ? AND version = ?", listing.ListingID, listing.Version).
			Updates(map[string]interface{}{
				"active":  false,
				"version": listing.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.BusinessRule("listing changed while cancelling, please try again")
		}
		itemName = listing.ItemName
		return nil
	})
	if err != nil {
		return err
	}

	s.Events.Publish(ctx, events.MarketUpdate{Type: events.TypeCancel, ListingID: &listingID, ItemName: itemName})
	s.Pricing.Invalidate(ctx, itemName)
	return nil
}

// GetActiveListings returns a page of active listings, newest first,
// optionally filtered by a case-insensitive item-name search.
func (s *Service) GetActiveListings(ctx context.Context, search string, page, size int) ([]domain.MarketListing, int64, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	q := s.DB.WithContext(ctx).Model(&domain.MarketListing{}).Where("active = ?", true)
	if search != "" {
		q = q.Where("LOWER(item_name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.MarketListing
	err := q.Order("created_at DESC").Offset(page * size).Limit(size).Find(&out).Error
	return out, total, err
}
