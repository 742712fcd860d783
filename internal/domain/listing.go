package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MarketListing is a fixed-price, quantity-bounded offer on the shared
// market. Version is the optimistic-concurrency token: every quantity
// mutation is written with a compare-and-swap against the version read,
// and a stale write is rejected rather than applied.
//
// Invariant: Quantity > 0 implies Active. A listing that reaches zero is
// deactivated, never deleted, so the ledger keeps its reference.
type MarketListing struct {
	ListingID    uuid.UUID `gorm:"column:listing_id;type:uuid;primaryKey" json:"listing_id"`
	SellerID     uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index" json:"seller_id"`
	ItemID       uuid.UUID `gorm:"column:item_id;type:uuid;not null" json:"item_id"`
	ItemName     string    `gorm:"column:item_name;not null;index" json:"item_name"`
	QualityScore float64   `gorm:"column:quality_score;type:decimal(5,2);not null" json:"quality_score"`
	Price        float64   `gorm:"column:price;type:decimal(18,2);not null" json:"price"`
	Quantity     int       `gorm:"column:quantity;not null" json:"quantity"`
	Active       bool      `gorm:"column:active;not null;default:true;index" json:"active"`
	Version      int       `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (MarketListing) TableName() string {
	return "MarketListings"
}

func (l *MarketListing) BeforeCreate(tx *gorm.DB) error {
	if l.ListingID == uuid.Nil {
		l.ListingID = uuid.New()
	}
	return nil
}
