package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemTier is a coarse value classification that scales demand sensitivity
// in the bot sales scoring model.
type ItemTier string

const (
	TierLow    ItemTier = "LOW"
	TierMedium ItemTier = "MEDIUM"
	TierHigh   ItemTier = "HIGH"
	TierScarce ItemTier = "SCARCE"
)

// Weight returns the scoring weight for the tier.
func (t ItemTier) Weight() float64 {
	switch t {
	case TierMedium:
		return 1.0
	case TierHigh:
		return 1.5
	case TierScarce:
		return 2.0
	default:
		return 0.5
	}
}

type ItemUnit string

const (
	UnitPiece ItemUnit = "PIECE"
	UnitKg    ItemUnit = "KG"
)

// Item is a batch of goods. QualityScore is fixed at production time and
// recombined via weighted average when batches merge. A nil BuildingID
// means the batch sits in the owner's central (unassigned) holding.
type Item struct {
	ItemID       uuid.UUID  `gorm:"column:item_id;type:uuid;primaryKey" json:"item_id"`
	Name         string     `gorm:"column:name;not null;index" json:"name"`
	Unit         ItemUnit   `gorm:"column:unit;type:varchar(10);not null;default:'PIECE'" json:"unit"`
	Quantity     int        `gorm:"column:quantity;not null;default:0" json:"quantity"`
	QualityScore float64    `gorm:"column:quality_score;type:decimal(5,2);not null;default:0" json:"quality_score"`
	Tier         ItemTier   `gorm:"column:tier;type:varchar(10);not null;default:'LOW'" json:"tier"`
	Category     string     `gorm:"column:category" json:"category"`
	Price        *float64   `gorm:"column:price;type:decimal(18,2)" json:"price"`
	Cost         *float64   `gorm:"column:cost;type:decimal(18,2)" json:"cost"`
	OwnerID      uuid.UUID  `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	BuildingID   *uuid.UUID `gorm:"column:building_id;type:uuid;index" json:"building_id"`
	Producing    bool       `gorm:"column:producing;not null;default:false" json:"producing"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Item) TableName() string {
	return "Items"
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ItemID == uuid.Nil {
		i.ItemID = uuid.New()
	}
	return nil
}
