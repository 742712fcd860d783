// Package inventory manages item holdings: the weighted-quality merge used
// whenever identical goods stack, and the central (unassigned) holding
// that purchases and withdrawals credit into.
package inventory

import (
	"context"
	"math"

	"vestoria-backend/internal/domain"
	"vestoria-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MergeQuality combines two batches of the same good. Quality is the
// quantity-weighted average rounded half-up to 2dp, which keeps repeated
// incremental merges within rounding tolerance of a single bulk merge.
func MergeQuality(existingQty int, existingQuality float64, addQty int, addQuality float64) (int, float64) {
	newQty := existingQty + addQty
	if newQty == 0 {
		return 0, 0
	}
	weighted := (float64(existingQty)*existingQuality + float64(addQty)*addQuality) / float64(newQty)
	return newQty, math.Round(weighted*100) / 100
}

type Service struct {
	DB *gorm.DB
}

// CreditHolding adds purchased or withdrawn stock to the owner's central
// holding of the same item name, merging quality, or creates the holding
// when none exists. Runs on the caller's transaction handle so it commits
// or rolls back with the rest of the trade.
func (s *Service) CreditHolding(tx *gorm.DB, ownerID uuid.UUID, src *domain.Item, quantity int, unitCost float64) error {
	var holding domain.Item
	err := tx.Where("owner_id = ? AND name = ? AND building_id IS NULL", ownerID, src.Name).
		First(&holding).Error
	if err == nil {
		newQty, newQuality := MergeQuality(holding.Quantity, holding.QualityScore, quantity, src.QualityScore)
		holding.Quantity = newQty
		holding.QualityScore = newQuality
		return tx.Save(&holding).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	cost := unitCost
	fresh := domain.Item{
		Name:         src.Name,
		Unit:         src.Unit,
		Quantity:     quantity,
		QualityScore: src.QualityScore,
		Tier:         src.Tier,
		Category:     src.Category,
		Cost:         &cost,
		OwnerID:      ownerID,
		BuildingID:   nil,
	}
	return tx.Create(&fresh).Error
}

// CentralInventory lists the owner's unassigned holdings.
func (s *Service) CentralInventory(ctx context.Context, ownerID uuid.UUID) ([]domain.Item, error) {
	var items []domain.Item
	err := s.DB.WithContext(ctx).
		Where("owner_id = ? AND building_id IS NULL", ownerID).
		Order("name").
		Find(&items).Error
	return items, err
}

// AllInventory lists every item the owner holds, central and in buildings.
func (s *Service) AllInventory(ctx context.Context, ownerID uuid.UUID) ([]domain.Item, error) {
	var items []domain.Item
	err := s.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name").
		Find(&items).Error
	return items, err
}

// SetItemPrice sets the owner's asking price on an item. The price is what
// the bot simulator compares against the dynamic reference price.
func (s *Service) SetItemPrice(ctx context.Context, itemID, ownerID uuid.UUID, price float64) (*domain.Item, error) {
	if price < 0 {
		return nil, apperr.BusinessRule("price cannot be negative")
	}
	var item domain.Item
	if err := s.DB.WithContext(ctx).Where("item_id = ?", itemID).First(&item).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("item not found")
		}
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, apperr.Unauthorized("this item does not belong to you")
	}
	item.Price = &price
	if err := s.DB.WithContext(ctx).Save(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
