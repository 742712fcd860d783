// Package pricecache memoizes the pricing engine's per-item aggregates in
// Redis. Entries are advisory: briefly stale reads are acceptable because
// the reference price never gates a trade, so writers only need to call
// InvalidateItem after mutating listings or the ledger.
package pricecache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	priceKeyPrefix  = "market:price:"
	supplyKeyPrefix = "market:supply:"
	demandKeyPrefix = "market:demand:"
)

// Cache wraps a Redis client. A nil client degrades to a pass-through
// (every lookup misses), which keeps the engine usable without Redis.
type Cache struct {
	Rdb *redis.Client
	TTL time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Rdb: rdb, TTL: ttl}
}

// GetPrice returns the memoized price for an item, if present.
func (c *Cache) GetPrice(ctx context.Context, itemName string) (float64, bool) {
	return c.getFloat(ctx, priceKeyPrefix+itemName)
}

func (c *Cache) SetPrice(ctx context.Context, itemName string, price float64) {
	c.set(ctx, priceKeyPrefix+itemName, strconv.FormatFloat(price, 'f', -1, 64))
}

func (c *Cache) GetSupply(ctx context.Context, itemName string) (int64, bool) {
	return c.getInt(ctx, supplyKeyPrefix+itemName)
}

func (c *Cache) SetSupply(ctx context.Context, itemName string, supply int64) {
	c.set(ctx, supplyKeyPrefix+itemName, strconv.FormatInt(supply, 10))
}

func (c *Cache) GetDemand(ctx context.Context, itemName string) (int64, bool) {
	return c.getInt(ctx, demandKeyPrefix+itemName)
}

func (c *Cache) SetDemand(ctx context.Context, itemName string, demand int64) {
	c.set(ctx, demandKeyPrefix+itemName, strconv.FormatInt(demand, 10))
}

// InvalidateItem drops all cached aggregates for an item name. Called by
// any write that touches the item's listings or transactions.
func (c *Cache) InvalidateItem(ctx context.Context, itemName string) {
	if c == nil || c.Rdb == nil {
		return
	}
	keys := []string{
		priceKeyPrefix + itemName,
		supplyKeyPrefix + itemName,
		demandKeyPrefix + itemName,
	}
	if err := c.Rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Str("item", itemName).Msg("price cache invalidation failed")
	}
}

func (c *Cache) getFloat(ctx context.Context, key string) (float64, bool) {
	if c == nil || c.Rdb == nil {
		return 0, false
	}
	s, err := c.Rdb.Get(ctx, key).Result()
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (c *Cache) getInt(ctx context.Context, key string) (int64, bool) {
	if c == nil || c.Rdb == nil {
		return 0, false
	}
	s, err := c.Rdb.Get(ctx, key).Result()
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (c *Cache) set(ctx context.Context, key, val string) {
	if c == nil || c.Rdb == nil {
		return
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if err := c.Rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("price cache set failed")
	}
}
