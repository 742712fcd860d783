// Package buildings manages player buildings: opening shop sales windows,
// running production batches in gardens, farms, factories and mines, and
// moving stock between buildings and the central holding.
package buildings

import (
	"context"
	"fmt"
	"math"
	"time"

	"vestoria-backend/internal/application/inventory"
	"vestoria-backend/internal/application/notifications"
	"vestoria-backend/internal/constants"
	"vestoria-backend/internal/domain"
	"vestoria-backend/internal/pkg/apperr"
	"vestoria-backend/internal/pkg/entropy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service struct {
	DB        *gorm.DB
	Inventory *inventory.Service
	Notifier  *notifications.Service
	Rand      entropy.Source
}

// Sales window and production durations scale with the building tier.
func salesWindow(tier domain.BuildingTier) time.Duration {
	switch tier {
	case domain.TierMid:
		return 2 * time.Hour
	case domain.TierLarge:
		return 3 * time.Hour
	default:
		return time.Hour
	}
}

func productionTime(tier domain.BuildingTier) time.Duration {
	switch tier {
	case domain.TierMid:
		return 3 * time.Hour
	case domain.TierLarge:
		return 2 * time.Hour
	default:
		return 4 * time.Hour
	}
}

// qualityBase is the production quality midpoint per building tier.
func qualityBase(tier domain.BuildingTier) float64 {
	switch tier {
	case domain.TierMid:
		return 75
	case domain.TierLarge:
		return 100
	default:
		return 50
	}
}

// tierFor classifies an item by its reference price.
func tierFor(itemName string) domain.ItemTier {
	switch p := constants.BasePrice(itemName); {
	case p >= 500:
		return domain.TierScarce
	case p >= 100:
		return domain.TierHigh
	case p >= 20:
		return domain.TierMedium
	default:
		return domain.TierLow
	}
}

func (s *Service) loadOwned(tx *gorm.DB, buildingID, ownerID uuid.UUID) (*domain.Building, error) {
	var b domain.Building
	if err := tx.Where("building_id = ?", buildingID).First(&b).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("building not found")
		}
		return nil, err
	}
	if b.OwnerID != ownerID {
		return nil, apperr.Unauthorized("this building does not belong to you")
	}
	return &b, nil
}

// StartSales opens a shop's sales window. The window length scales with
// the shop tier; the bot simulator settles it when it elapses.
func (s *Service) StartSales(ctx context.Context, buildingID, ownerID uuid.UUID) (*domain.Building, error) {
	var shop *domain.Building
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.loadOwned(tx, buildingID, ownerID)
		if err != nil {
			return err
		}
		if b.Type != domain.BuildingShop {
			return apperr.BusinessRule("only shops can start sales")
		}
		if b.Selling {
			return apperr.BusinessRule("a sales window is already open")
		}

		var stocked int64
		if err := tx.Model(&domain.Item{}).
			Where("building_id = ? AND quantity > 0", buildingID).
			Count(&stocked).Error; err != nil {
			return err
		}
		if stocked == 0 {
			return apperr.BusinessRule("the shop has nothing on its shelves")
		}

		endsAt := time.Now().Add(salesWindow(b.Tier))
		if err := tx.Model(&domain.Building{}).
			Where("building_id = ?", b.BuildingID).
			Updates(map[string]interface{}{"selling": true, "sales_ends_at": endsAt}).Error; err != nil {
			return err
		}
		b.Selling = true
		b.SalesEndsAt = &endsAt
		shop = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shop, nil
}

// StartProduction begins a production batch of itemName. A placeholder
// item row marks what is being produced; CollectProduction fills it in.
func (s *Service) StartProduction(ctx context.Context, buildingID, ownerID uuid.UUID, itemName string) (*domain.Building, error) {
	if itemName == "" {
		return nil, apperr.BusinessRule("item name is required")
	}

	var out *domain.Building
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.loadOwned(tx, buildingID, ownerID)
		if err != nil {
			return err
		}
		if b.Type == domain.BuildingShop {
			return apperr.BusinessRule("shops do not produce goods")
		}
		if b.Producing {
			return apperr.BusinessRule("this building is already producing")
		}

		var slots int64
		if err := tx.Model(&domain.Item{}).
			Where("building_id = ?", buildingID).
			Count(&slots).Error; err != nil {
			return err
		}
		if int(slots) >= b.MaxSlots {
			return apperr.BusinessRule("no free storage slot in this building")
		}

		placeholder := domain.Item{
			Name:       itemName,
			Quantity:   0,
			Tier:       tierFor(itemName),
			Category:   string(b.Type),
			OwnerID:    ownerID,
			BuildingID: &b.BuildingID,
			Producing:  true,
		}
		if err := tx.Create(&placeholder).Error; err != nil {
			return err
		}

		endsAt := time.Now().Add(productionTime(b.Tier))
		if err := tx.Model(&domain.Building{}).
			Where("building_id = ?", b.BuildingID).
			Updates(map[string]interface{}{"producing": true, "production_ends_at": endsAt}).Error; err != nil {
			return err
		}
		b.Producing = true
		b.ProductionEndsAt = &endsAt
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CollectProduction settles a finished batch: quality comes from the
// building tier plus luck and owner level, quantity from the production
// rate. The batch merges into an equal-quality stack when one exists.
func (s *Service) CollectProduction(ctx context.Context, buildingID, ownerID uuid.UUID) (*domain.Item, error) {
	var produced *domain.Item
	var notice string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.loadOwned(tx, buildingID, ownerID)
		if err != nil {
			return err
		}
		if !b.Producing {
			return apperr.BusinessRule("this building is not producing")
		}
		if b.ProductionEndsAt != nil && b.ProductionEndsAt.After(time.Now()) {
			return apperr.BusinessRule("production is still in progress")
		}

		var batch domain.Item
		if err := tx.Where("building_id = ? AND producing = ?", buildingID, true).
			First(&batch).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.BusinessRule("no batch in production")
			}
			return err
		}

		var owner domain.Account
		if err := tx.Where("account_id = ?", ownerID).First(&owner).Error; err != nil {
			return err
		}

		quality := qualityBase(b.Tier) + entropy.Between(s.Rand, -10, 10) + 0.2*float64(owner.Level)
		quality = math.Round(math.Max(10, math.Min(100, quality))*100) / 100

		rate := b.ProductionRate
		if rate < 1 {
			rate = 1
		}
		qty := int(rate * entropy.Between(s.Rand, 0.90, 1.15) * (1 + float64(owner.Level)*0.01))
		if qty < 1 {
			qty = 1
		}

		// Cap against the building's storage capacity.
		var stored int64
		if err := tx.Model(&domain.Item{}).
			Where("building_id = ?", buildingID).
			Select("COALESCE(SUM(quantity), 0)").
			Scan(&stored).Error; err != nil {
			return err
		}
		if b.MaxStock > 0 && int(stored)+qty > b.MaxStock {
			qty = b.MaxStock - int(stored)
			if qty < 1 {
				return apperr.BusinessRule("building storage is full")
			}
		}

		var existing domain.Item
		err = tx.Where(
			"building_id = ? AND name = ? AND quality_score = ? AND producing = ? AND item_id <> ?",
			buildingID, batch.Name, quality, false, batch.ItemID,
		).First(&existing).Error
		if err == nil {
			existing.Quantity += qty
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			if err := tx.Delete(&batch).Error; err != nil {
				return err
			}
			produced = &existing
		} else if err == gorm.ErrRecordNotFound {
			batch.Quantity = qty
			batch.QualityScore = quality
			batch.Producing = false
			if err := tx.Save(&batch).Error; err != nil {
				return err
			}
			produced = &batch
		} else {
			return err
		}

		if err := tx.Model(&domain.Building{}).
			Where("building_id = ?", b.BuildingID).
			Updates(map[string]interface{}{"producing": false, "production_ends_at": nil}).Error; err != nil {
			return err
		}

		notice = fmt.Sprintf("%s produced %d x %s (quality %.2f).", b.Name, qty, batch.Name, quality)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, ownerID, notice)
	return produced, nil
}

// WithdrawItem moves stock from a building into the owner's central
// holding, merging quality there. Emptied building rows are deleted to
// free the slot.
func (s *Service) WithdrawItem(ctx context.Context, buildingID, ownerID, itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return apperr.BusinessRule("quantity must be positive")
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.loadOwned(tx, buildingID, ownerID); err != nil {
			return err
		}

		var item domain.Item
		if err := tx.Where("item_id = ? AND building_id = ?", itemID, buildingID).
			First(&item).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("item not found in this building")
			}
			return err
		}
		if item.Producing {
			return apperr.BusinessRule("this batch is still in production")
		}
		if item.Quantity < quantity {
			return apperr.BusinessRule("not enough stock: have %d, want %d", item.Quantity, quantity)
		}

		unitCost := 0.0
		if item.Cost != nil {
			unitCost = *item.Cost
		}
		if err := s.Inventory.CreditHolding(tx, ownerID, &item, quantity, unitCost); err != nil {
			return err
		}

		item.Quantity -= quantity
		if item.Quantity == 0 {
			return tx.Delete(&item).Error
		}
		return tx.Save(&item).Error
	})
}

// TransferToBuilding moves stock from the central holding onto a
// building's shelves. Shops only accept the goods their sub-type stocks;
// capacity and slot limits apply.
func (s *Service) TransferToBuilding(ctx context.Context, buildingID, ownerID, itemID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return apperr.BusinessRule("quantity must be positive")
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.loadOwned(tx, buildingID, ownerID)
		if err != nil {
			return err
		}

		var item domain.Item
		if err := tx.Where("item_id = ? AND owner_id = ? AND building_id IS NULL", itemID, ownerID).
			First(&item).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("item not found in your holding")
			}
			return err
		}
		if item.Quantity < quantity {
			return apperr.BusinessRule("not enough stock: have %d, want %d", item.Quantity, quantity)
		}
		if b.Type == domain.BuildingShop && !constants.ShopAccepts(b.SubType, item.Name) {
			return apperr.BusinessRule("this shop does not stock %s", item.Name)
		}

		var stored int64
		if err := tx.Model(&domain.Item{}).
			Where("building_id = ?", buildingID).
			Select("COALESCE(SUM(quantity), 0)").
			Scan(&stored).Error; err != nil {
			return err
		}
		if b.MaxStock > 0 && int(stored)+quantity > b.MaxStock {
			return apperr.BusinessRule("building storage is full")
		}

		var target domain.Item
		err = tx.Where(
			"building_id = ? AND name = ? AND producing = ?",
			buildingID, item.Name, false,
		).First(&target).Error
		if err == nil {
			newQty, newQuality := inventory.MergeQuality(
				target.Quantity, target.QualityScore, quantity, item.QualityScore)
			target.Quantity = newQty
			target.QualityScore = newQuality
			if err := tx.Save(&target).Error; err != nil {
				return err
			}
		} else if err == gorm.ErrRecordNotFound {
			var slots int64
			if err := tx.Model(&domain.Item{}).
				Where("building_id = ?", buildingID).
				Count(&slots).Error; err != nil {
				return err
			}
			if int(slots) >= b.MaxSlots {
				return apperr.BusinessRule("no free storage slot in this building")
			}
			shelf := domain.Item{
				Name:         item.Name,
				Unit:         item.Unit,
				Quantity:     quantity,
				QualityScore: item.QualityScore,
				Tier:         item.Tier,
				Category:     item.Category,
				Price:        item.Price,
				Cost:         item.Cost,
				OwnerID:      ownerID,
				BuildingID:   &b.BuildingID,
			}
			if err := tx.Create(&shelf).Error; err != nil {
				return err
			}
		} else {
			return err
		}

		item.Quantity -= quantity
		if item.Quantity == 0 {
			return tx.Delete(&item).Error
		}
		return tx.Save(&item).Error
	})
}

// ListBuildings returns the owner's buildings.
func (s *Service) ListBuildings(ctx context.Context, ownerID uuid.UUID) ([]domain.Building, error) {
	var out []domain.Building
	err := s.DB.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at").
		Find(&out).Error
	return out, err
}

// BuildingItems returns a building's stock, owner-checked.
func (s *Service) BuildingItems(ctx context.Context, buildingID, ownerID uuid.UUID) ([]domain.Item, error) {
	var items []domain.Item
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.loadOwned(tx, buildingID, ownerID); err != nil {
			return err
		}
		return tx.Where("building_id = ?", buildingID).Order("name").Find(&items).Error
	})
	return items, err
}
