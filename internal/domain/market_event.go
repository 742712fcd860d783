package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MarketEvent is the audit row written alongside every published market
// update (LIST, BUY, CANCEL, BOT_SALE). Best-effort: a failed insert never
// rolls back the trade that produced it.
type MarketEvent struct {
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	EventType string         `gorm:"column:event_type;type:varchar(20);not null" json:"event_type"`
	ListingID *uuid.UUID     `gorm:"column:listing_id;type:uuid" json:"listing_id"`
	Payload   datatypes.JSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

func (MarketEvent) TableName() string {
	return "MarketEvents"
}

func (e *MarketEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
