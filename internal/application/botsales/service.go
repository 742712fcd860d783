// Package botsales runs the NPC demand simulation that absorbs shop stock
// when a sales window closes. Scoring blends 24h market demand vs supply,
// item tier, owner level, random volatility and how the owner's asking
// price compares to the dynamic reference price.
package botsales

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"vestoria-backend/internal/application/accounts"
	"vestoria-backend/internal/application/notifications"
	"vestoria-backend/internal/application/pricing"
	"vestoria-backend/internal/config"
	"vestoria-backend/internal/domain"
	"vestoria-backend/internal/events"
	"vestoria-backend/internal/pkg/apperr"
	"vestoria-backend/internal/pkg/entropy"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const maxBaseScore = 100.0

type Service struct {
	DB       *gorm.DB
	Pricing  *pricing.Service
	Accounts *accounts.Service
	Notifier *notifications.Service
	Events   *events.Publisher
	Rand     entropy.Source
	Economy  config.Economy
}

// marketSnapshot carries the advisory aggregates for one item name,
// read before the settlement transaction opens.
type marketSnapshot struct {
	demand   int64
	supply   int64
	refPrice float64
}

// saleLine is one item's outcome within a processed window.
type saleLine struct {
	itemName string
	quantity int
	revenue  float64
}

type saleSummary struct {
	ownerID      uuid.UUID
	shopName     string
	lines        []saleLine
	totalUnits   int
	totalRevenue float64
	leveledUp    bool
	newLevel     int
}

// ProcessShopSales closes a shop's sales window: the bot buys a scored
// share of every priced item, the owner is credited and granted XP, and
// the window resets. Market aggregates are read up front (they are
// advisory); the settlement itself is one transaction.
func (s *Service) ProcessShopSales(ctx context.Context, shopID uuid.UUID) error {
	snapshots, err := s.snapshotMarket(ctx, shopID)
	if err != nil {
		return err
	}

	var summary saleSummary
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var shop domain.Building
		if err := tx.Where("building_id = ?", shopID).First(&shop).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("building not found")
			}
			return err
		}
		if shop.Type != domain.BuildingShop {
			return apperr.BusinessRule("only shops can run sales")
		}
		if !shop.Selling {
			return apperr.BusinessRule("this shop has no open sales window")
		}

		var owner domain.Account
		if err := tx.Where("account_id = ?", shop.OwnerID).First(&owner).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFound("shop owner account not found")
			}
			return err
		}

		var items []domain.Item
		if err := tx.Where("building_id = ? AND quantity > 0", shopID).
			Order("name").Find(&items).Error; err != nil {
			return err
		}

		summary = saleSummary{ownerID: owner.AccountID, shopName: shop.Name}
		for i := range items {
			item := &items[i]
			if item.Price == nil || *item.Price <= 0 {
				// Unpriced goods stay on the shelf.
				continue
			}
			snap, ok := snapshots[item.Name]
			if !ok {
				continue
			}

			qty, revenue := s.scoreItem(item, owner.Level, snap)
			if qty == 0 {
				continue
			}

			item.Quantity -= qty
			if err := tx.Model(&domain.Item{}).
				Where("item_id = ?", item.ItemID).
				Update("quantity", item.Quantity).Error; err != nil {
				return err
			}

			entry := domain.Transaction{
				Type:     domain.TxSystemSell,
				SellerID: owner.AccountID,
				Price:    revenue,
				Amount:   qty,
				ItemName: item.Name,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}

			summary.lines = append(summary.lines, saleLine{item.Name, qty, revenue})
			summary.totalUnits += qty
			summary.totalRevenue = round2(summary.totalRevenue + revenue)
		}

		if summary.totalUnits > 0 {
			if err := tx.Model(&domain.Account{}).
				Where("account_id = ?", owner.AccountID).
				Update("balance", round2(owner.Balance+summary.totalRevenue)).Error; err != nil {
				return err
			}
			leveledUp, err := s.Accounts.AddXP(tx, &owner, int64(summary.totalUnits)*s.Economy.XPPerItemSold)
			if err != nil {
				return err
			}
			summary.leveledUp = leveledUp
			summary.newLevel = owner.Level
		}

		return tx.Model(&domain.Building{}).
			Where("building_id = ?", shop.BuildingID).
			Updates(map[string]interface{}{
				"selling":       false,
				"sales_ends_at": nil,
				"last_revenue":  summary.totalRevenue,
			}).Error
	})
	if err != nil {
		return err
	}

	s.afterSales(ctx, summary)
	return nil
}

// snapshotMarket reads demand, supply and reference price for every
// priced item on the shop's shelves.
func (s *Service) snapshotMarket(ctx context.Context, shopID uuid.UUID) (map[string]marketSnapshot, error) {
	var names []string
	err := s.DB.WithContext(ctx).Model(&domain.Item{}).
		Where("building_id = ? AND quantity > 0 AND price IS NOT NULL", shopID).
		Distinct("name").
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}

	snapshots := make(map[string]marketSnapshot, len(names))
	for _, name := range names {
		demand, err := s.Pricing.GlobalDemand(ctx, name)
		if err != nil {
			return nil, err
		}
		supply, err := s.Pricing.GlobalSupply(ctx, name)
		if err != nil {
			return nil, err
		}
		refPrice, err := s.Pricing.GetMarketPrice(ctx, name)
		if err != nil {
			return nil, err
		}
		snapshots[name] = marketSnapshot{demand: demand, supply: supply, refPrice: refPrice}
	}
	return snapshots, nil
}

// scoreItem decides how many units the bot takes and at what total
// revenue. Pure arithmetic plus entropy draws.
func (s *Service) scoreItem(item *domain.Item, ownerLevel int, snap marketSnapshot) (int, float64) {
	supply := snap.supply
	if supply < 1 {
		supply = 1
	}
	baseScore := math.Min(float64(snap.demand)/float64(supply)*item.Tier.Weight(), maxBaseScore)

	// Asking under the reference price boosts sales linearly; asking over
	// it collapses them quadratically.
	r := *item.Price / snap.refPrice
	var priceFactor float64
	if r <= 1 {
		priceFactor = 1 + (1-r)*s.Economy.CheapBoost
	} else {
		priceFactor = 1 / (r * r)
	}

	volatility := entropy.Between(s.Rand, s.Economy.VolatilityMin, s.Economy.VolatilityMax)
	fraction := baseScore / maxBaseScore * volatility * (1 + float64(ownerLevel)*s.Economy.LevelBonus) * priceFactor

	qty := int(math.Ceil(float64(item.Quantity) * fraction))
	if qty < 1 {
		switch {
		case fraction > 0.01:
			qty = 1
		case priceFactor > 0.1 && s.Rand.Float64() < 0.5:
			qty = 1
		default:
			return 0, 0
		}
	}
	if qty > item.Quantity {
		qty = item.Quantity
	}

	return qty, round2(*item.Price * float64(qty))
}

func (s *Service) afterSales(ctx context.Context, summary saleSummary) {
	if summary.totalUnits > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "Sales ended at %s. Sold:", summary.shopName)
		for _, line := range summary.lines {
			fmt.Fprintf(&b, " %d x %s (%.2f),", line.quantity, line.itemName, line.revenue)
		}
		msg := strings.TrimSuffix(b.String(), ",")
		s.Notifier.Notify(ctx, summary.ownerID, fmt.Sprintf("%s. Total revenue: %.2f", msg, summary.totalRevenue))
	} else {
		s.Notifier.Notify(ctx, summary.ownerID, fmt.Sprintf("Sales ended at %s. Nothing sold this time.", summary.shopName))
	}
	if summary.leveledUp {
		s.Notifier.Notify(ctx, summary.ownerID, fmt.Sprintf("Congratulations! You reached level %d.", summary.newLevel))
	}

	for _, line := range summary.lines {
		s.Events.Publish(ctx, events.MarketUpdate{
			Type:     events.TypeBotSale,
			ItemName: line.itemName,
			Quantity: line.quantity,
			Price:    line.revenue,
		})
		s.Pricing.Invalidate(ctx, line.itemName)
	}
}

// SweepExpiredSales settles every shop whose sales window has elapsed.
// Called by the scheduler; per-shop failures are logged and skipped so one
// broken shop cannot stall the sweep.
func (s *Service) SweepExpiredSales(ctx context.Context) {
	var shops []domain.Building
	err := s.DB.WithContext(ctx).
		Where("type = ? AND selling = ? AND sales_ends_at <= ?", domain.BuildingShop, true, time.Now()).
		Find(&shops).Error
	if err != nil {
		log.Error().Err(err).Msg("sales sweep query failed")
		return
	}
	for _, shop := range shops {
		if err := s.ProcessShopSales(ctx, shop.BuildingID); err != nil {
			log.Warn().Err(err).Str("building_id", shop.BuildingID.String()).Msg("sales settlement failed")
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
