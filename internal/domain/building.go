package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BuildingType string

const (
	BuildingShop    BuildingType = "SHOP"
	BuildingGarden  BuildingType = "GARDEN"
	BuildingFarm    BuildingType = "FARM"
	BuildingFactory BuildingType = "FACTORY"
	BuildingMine    BuildingType = "MINE"
)

type BuildingTier string

const (
	TierSmall BuildingTier = "SMALL"
	TierMid   BuildingTier = "MEDIUM"
	TierLarge BuildingTier = "LARGE"
)

// Building is a player-owned production site or shop. Shops run timed
// sales windows: Selling is true until SalesEndsAt, after which the bot
// simulator absorbs stock and resets the window.
type Building struct {
	BuildingID       uuid.UUID    `gorm:"column:building_id;type:uuid;primaryKey" json:"building_id"`
	OwnerID          uuid.UUID    `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	Name             string       `gorm:"column:name;not null" json:"name"`
	Type             BuildingType `gorm:"column:type;type:varchar(10);not null" json:"type"`
	SubType          string       `gorm:"column:sub_type;type:varchar(20)" json:"sub_type"`
	Tier             BuildingTier `gorm:"column:tier;type:varchar(10);not null;default:'SMALL'" json:"tier"`
	Selling          bool         `gorm:"column:selling;not null;default:false" json:"selling"`
	SalesEndsAt      *time.Time   `gorm:"column:sales_ends_at" json:"sales_ends_at"`
	Producing        bool         `gorm:"column:producing;not null;default:false" json:"producing"`
	ProductionEndsAt *time.Time   `gorm:"column:production_ends_at" json:"production_ends_at"`
	ProductionRate   float64      `gorm:"column:production_rate;type:decimal(10,2);not null;default:0" json:"production_rate"`
	MaxStock         int          `gorm:"column:max_stock;not null;default:0" json:"max_stock"`
	MaxSlots         int          `gorm:"column:max_slots;not null;default:1" json:"max_slots"`
	LastRevenue      float64      `gorm:"column:last_revenue;type:decimal(18,2);not null;default:0" json:"last_revenue"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (Building) TableName() string {
	return "Buildings"
}

func (b *Building) BeforeCreate(tx *gorm.DB) error {
	if b.BuildingID == uuid.Nil {
		b.BuildingID = uuid.New()
	}
	return nil
}
