// Package events broadcasts market updates for UI consumers. Each update
// goes to the Redis pub/sub topic and is mirrored as a MarketEvent audit
// row. Both writes are best-effort: failures are logged and swallowed so
// they can never roll back the trade that produced them.
package events

import (
	"context"
	"encoding/json"

	"vestoria-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Topic is the pub/sub channel UI clients subscribe to.
const Topic = "market.updates"

const (
	TypeList    = "LIST"
	TypeBuy     = "BUY"
	TypeCancel  = "CANCEL"
	TypeBotSale = "BOT_SALE"
)

// MarketUpdate is the wire payload published on Topic.
type MarketUpdate struct {
	Type       string     `json:"type"`
	ListingID  *uuid.UUID `json:"listing_id,omitempty"`
	ItemName   string     `json:"item_name,omitempty"`
	Quantity   int        `json:"quantity,omitempty"`
	Price      float64    `json:"price,omitempty"`
	SellerName string     `json:"seller_name,omitempty"`
}

// Publisher fans a market update out to Redis and the audit table.
// Either sink may be nil.
type Publisher struct {
	Rdb *redis.Client
	DB  *gorm.DB
}

func (p *Publisher) Publish(ctx context.Context, update MarketUpdate) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(update)
	if err != nil {
		log.Warn().Err(err).Str("type", update.Type).Msg("market update marshal failed")
		return
	}
	if p.Rdb != nil {
		if err := p.Rdb.Publish(ctx, Topic, payload).Err(); err != nil {
			log.Warn().Err(err).Str("type", update.Type).Msg("market update publish failed")
		}
	}
	if p.DB != nil {
		row := domain.MarketEvent{
			EventType: update.Type,
			ListingID: update.ListingID,
			Payload:   datatypes.JSON(payload),
		}
		if err := p.DB.WithContext(ctx).Create(&row).Error; err != nil {
			log.Warn().Err(err).Str("type", update.Type).Msg("market event insert failed")
		}
	}
}
