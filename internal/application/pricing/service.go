// Package pricing computes the bounded dynamic reference price per item
// from supply and demand. The price is advisory: it informs the bot
// simulator's competitiveness factor and UI displays, it never gates a
// player trade.
package pricing

import (
	"context"
	"math"
	"time"

	"vestoria-backend/internal/config"
	"vestoria-backend/internal/constants"
	"vestoria-backend/internal/domain"
	"vestoria-backend/internal/infrastructure/pricecache"

	"gorm.io/gorm"
)

const demandWindow = 24 * time.Hour

type Service struct {
	DB      *gorm.DB
	Cache   *pricecache.Cache
	Economy config.Economy
}

// GetMarketPrice returns the dynamic reference price for an item:
// base price scaled by a clamped demand/supply ratio, rounded to 2dp.
func (s *Service) GetMarketPrice(ctx context.Context, itemName string) (float64, error) {
	if price, ok := s.Cache.GetPrice(ctx, itemName); ok {
		return price, nil
	}

	basePrice := constants.BasePrice(itemName)

	activeSupply, err := s.ActiveSupply(ctx, itemName)
	if err != nil {
		return 0, err
	}
	demand, err := s.GlobalDemand(ctx, itemName)
	if err != nil {
		return 0, err
	}

	// Demand buffer: assume a baseline need so cold items neither divide
	// by zero nor collapse to the floor instantly.
	effectiveDemand := float64(demand) + s.Economy.DemandBuffer
	effectiveSupply := float64(activeSupply)
	if effectiveSupply <= 0 {
		effectiveSupply = 1
	}

	ratio := effectiveDemand / effectiveSupply
	multiplier := math.Max(s.Economy.PriceMultiplierMin, math.Min(s.Economy.PriceMultiplierMax, ratio))

	price := round2(basePrice * multiplier)
	s.Cache.SetPrice(ctx, itemName, price)
	return price, nil
}

// ActiveSupply sums the quantities of all currently active listings for
// the item. Feeds the price multiplier.
func (s *Service) ActiveSupply(ctx context.Context, itemName string) (int64, error) {
	var total int64
	err := s.DB.WithContext(ctx).Model(&domain.MarketListing{}).
		Where("item_name = ? AND active = ?", itemName, true).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

// GlobalSupply sums quantities listed over the trailing 24h window,
// regardless of whether the listings are still active. Feeds bot scoring.
func (s *Service) GlobalSupply(ctx context.Context, itemName string) (int64, error) {
	if supply, ok := s.Cache.GetSupply(ctx, itemName); ok {
		return supply, nil
	}
	var total int64
	cutoff := time.Now().Add(-demandWindow)
	err := s.DB.WithContext(ctx).Model(&domain.MarketListing{}).
		Where("item_name = ? AND created_at > ?", itemName, cutoff).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	s.Cache.SetSupply(ctx, itemName, total)
	return total, nil
}

// GlobalDemand sums transacted amounts for the item over the trailing
// 24h window.
func (s *Service) GlobalDemand(ctx context.Context, itemName string) (int64, error) {
	if demand, ok := s.Cache.GetDemand(ctx, itemName); ok {
		return demand, nil
	}
	var total int64
	cutoff := time.Now().Add(-demandWindow)
	err := s.DB.WithContext(ctx).Model(&domain.Transaction{}).
		Where("item_name = ? AND created_at > ?", itemName, cutoff).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	s.Cache.SetDemand(ctx, itemName, total)
	return total, nil
}

// Invalidate drops the cached aggregates for an item. Called by every
// write that changes the item's listings or ledger entries.
func (s *Service) Invalidate(ctx context.Context, itemName string) {
	s.Cache.InvalidateItem(ctx, itemName)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
