// Package accounts is the account ledger: balance lookups and XP
// progression. Balance mutations themselves happen inside the callers'
// transactions so debit and credit always commit together.
package accounts

import (
	"context"

	"vestoria-backend/internal/domain"
	"vestoria-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// XP required to advance from a level is level * 1000.
const xpPerLevel = 1000

type Service struct {
	DB *gorm.DB
}

func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var acct domain.Account
	if err := s.DB.WithContext(ctx).Where("account_id = ?", id).First(&acct).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("account not found")
		}
		return nil, err
	}
	return &acct, nil
}

// AddXP grants XP on the caller's transaction handle and applies a
// level-up when the threshold is crossed. Returns whether the account
// leveled so the caller can notify after commit.
func (s *Service) AddXP(tx *gorm.DB, acct *domain.Account, amount int64) (leveledUp bool, err error) {
	acct.XP += amount

	level := acct.Level
	if level < 1 {
		level = 1
	}
	if acct.XP >= int64(level)*xpPerLevel {
		acct.Level = level + 1
		leveledUp = true
	}

	err = tx.Model(&domain.Account{}).
		Where("account_id = ?", acct.AccountID).
		Updates(map[string]interface{}{"xp": acct.XP, "level": acct.Level}).Error
	return leveledUp, err
}
