package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is a player (or the system bot) with a spendable balance and
// progression state. Balance is only ever mutated inside the transaction
// that performs the paired debit/credit.
type Account struct {
	AccountID uuid.UUID `gorm:"column:account_id;type:uuid;primaryKey" json:"account_id"`
	Username  string    `gorm:"column:username;uniqueIndex;not null" json:"username"`
	Balance   float64   `gorm:"column:balance;type:decimal(18,2);not null;default:0" json:"balance"`
	Level     int       `gorm:"column:level;not null;default:1" json:"level"`
	XP        int64     `gorm:"column:xp;not null;default:0" json:"xp"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "Accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == uuid.Nil {
		a.AccountID = uuid.New()
	}
	return nil
}
