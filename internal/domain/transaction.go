package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TxType string

const (
	TxMarketBuy  TxType = "MARKET_BUY"
	TxSystemSell TxType = "SYSTEM_SELL"
)

// Transaction is an append-only ledger entry. BuyerID is nil for
// SYSTEM_SELL rows (the NPC market is the buyer). Price is the total paid,
// Amount the number of units.
type Transaction struct {
	TxID      uuid.UUID  `gorm:"column:tx_id;type:uuid;primaryKey" json:"tx_id"`
	Type      TxType     `gorm:"column:type;type:varchar(20);not null" json:"type"`
	BuyerID   *uuid.UUID `gorm:"column:buyer_id;type:uuid" json:"buyer_id"`
	SellerID  uuid.UUID  `gorm:"column:seller_id;type:uuid;not null;index" json:"seller_id"`
	ListingID *uuid.UUID `gorm:"column:listing_id;type:uuid" json:"listing_id"`
	Price     float64    `gorm:"column:price;type:decimal(18,2);not null" json:"price"`
	Amount    int        `gorm:"column:amount;not null" json:"amount"`
	ItemName  string     `gorm:"column:item_name;not null;index" json:"item_name"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (Transaction) TableName() string {
	return "Transactions"
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.TxID == uuid.Nil {
		t.TxID = uuid.New()
	}
	return nil
}
