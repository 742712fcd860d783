package accounts

import (
	"context"
	"testing"

	"vestoria-backend/internal/domain"
	"vestoria-backend/internal/pkg/apperr"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Account{}))
	return db
}

func TestGetAccount(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}

	acct := domain.Account{Username: "ayse", Balance: 10, Level: 1}
	require.NoError(t, db.Create(&acct).Error)

	got, err := svc.GetAccount(context.Background(), acct.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "ayse", got.Username)

	_, err = svc.GetAccount(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAddXP_BelowThreshold(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}

	acct := domain.Account{Username: "ayse", Level: 1, XP: 0}
	require.NoError(t, db.Create(&acct).Error)

	leveled, err := svc.AddXP(db, &acct, 999)
	require.NoError(t, err)
	assert.False(t, leveled)
	assert.Equal(t, 1, acct.Level)

	var after domain.Account
	require.NoError(t, db.First(&after, "account_id = ?", acct.AccountID).Error)
	assert.Equal(t, int64(999), after.XP)
	assert.Equal(t, 1, after.Level)
}

func TestAddXP_LevelUpAtThreshold(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}

	acct := domain.Account{Username: "ayse", Level: 1, XP: 990}
	require.NoError(t, db.Create(&acct).Error)

	leveled, err := svc.AddXP(db, &acct, 10)
	require.NoError(t, err)
	assert.True(t, leveled)
	assert.Equal(t, 2, acct.Level)
	assert.Equal(t, int64(1000), acct.XP)
}

func TestAddXP_HigherLevelsNeedMore(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}

	// Level 2 requires 2000 XP.
	acct := domain.Account{Username: "ayse", Level: 2, XP: 1500}
	require.NoError(t, db.Create(&acct).Error)

	leveled, err := svc.AddXP(db, &acct, 400)
	require.NoError(t, err)
	assert.False(t, leveled)

	leveled, err = svc.AddXP(db, &acct, 100)
	require.NoError(t, err)
	assert.True(t, leveled)
	assert.Equal(t, 3, acct.Level)
}
