package inventory

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
	require.NoError(t, db.AutoMigrate(&domain.Item{}))
	return db
}

func TestMergeQuality_WeightedAverage(t *testing.T) {
	qty, quality := MergeQuality(10, 50, 5, 95)
	assert.Equal(t, 15, qty)
	assert.Equal(t, 65.00, quality)
}

func TestMergeQuality_EmptyExisting(t *testing.T) {
	qty, quality := MergeQuality(0, 0, 7, 80.5)
	assert.Equal(t, 7, qty)
	assert.Equal(t, 80.5, quality)
}

func TestMergeQuality_Rounding(t *testing.T) {
	// (3*33.33 + 1*50) / 4 = 37.4975 -> 37.50
	_, quality := MergeQuality(3, 33.33, 1, 50)
	assert.Equal(t, 37.50, quality)
}

func TestMergeQuality_AssociativeWithinTolerance(t *testing.T) {
	batches := []struct {
		qty     int
		quality float64
	}{{10, 50}, {5, 95}, {20, 72.25}, {1, 12.5}}

	// Incremental left fold.
	qty, quality := 0, 0.0
	for _, b := range batches {
		qty, quality = MergeQuality(qty, quality, b.qty, b.quality)
	}

	// Single bulk merge.
	totalQty := 0
	weighted := 0.0
	for _, b := range batches {
		totalQty += b.qty
		weighted += float64(b.qty) * b.quality
	}
	bulk := weighted / float64(totalQty)

	assert.Equal(t, totalQty, qty)
	assert.InDelta(t, bulk, quality, 0.05)
}

func TestCreditHolding_CreatesWhenAbsent(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ownerID := uuid.New()

	src := domain.Item{Name: "Cheese", Unit: domain.UnitKg, QualityScore: 80, Tier: domain.TierMedium}
	require.NoError(t, svc.CreditHolding(db, ownerID, &src, 4, 22.5))

	var holding domain.Item
	require.NoError(t, db.Where("owner_id = ? AND name = ?", ownerID, "Cheese").First(&holding).Error)
	assert.Equal(t, 4, holding.Quantity)
	assert.Equal(t, 80.0, holding.QualityScore)
	assert.Nil(t, holding.BuildingID)
	require.NotNil(t, holding.Cost)
	assert.Equal(t, 22.5, *holding.Cost)
}

func TestCreditHolding_MergesIntoExisting(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ownerID := uuid.New()

	require.NoError(t, db.Create(&domain.Item{
		Name: "Cheese", Quantity: 10, QualityScore: 50, OwnerID: ownerID,
	}).Error)

	src := domain.Item{Name: "Cheese", QualityScore: 95}
	require.NoError(t, svc.CreditHolding(db, ownerID, &src, 5, 30))

	var holdings []domain.Item
	require.NoError(t, db.Where("owner_id = ?", ownerID).Find(&holdings).Error)
	require.Len(t, holdings, 1)
	assert.Equal(t, 15, holdings[0].Quantity)
	assert.Equal(t, 65.00, holdings[0].QualityScore)
}

func TestCreditHolding_IgnoresBuildingStock(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ownerID := uuid.New()
	buildingID := uuid.New()

	require.NoError(t, db.Create(&domain.Item{
		Name: "Cheese", Quantity: 3, QualityScore: 40, OwnerID: ownerID, BuildingID: &buildingID,
	}).Error)

	src := domain.Item{Name: "Cheese", QualityScore: 90}
	require.NoError(t, svc.CreditHolding(db, ownerID, &src, 2, 10))

	var central []domain.Item
	require.NoError(t, db.Where("owner_id = ? AND building_id IS NULL", ownerID).Find(&central).Error)
	require.Len(t, central, 1)
	assert.Equal(t, 2, central[0].Quantity)
	assert.Equal(t, 90.0, central[0].QualityScore)
}

func TestSetItemPrice(t *testing.T) {
	db := setupDB(t)
	svc := &Service{DB: db}
	ownerID := uuid.New()

	item := domain.Item{Name: "Ring", Quantity: 1, OwnerID: ownerID}
	require.NoError(t, db.Create(&item).Error)

	updated, err := svc.SetItemPrice(context.Background(), item.ItemID, ownerID, 950)
	require.NoError(t, err)
	require.NotNil(t, updated.Price)
	assert.Equal(t, 950.0, *updated.Price)

	_, err = svc.SetItemPrice(context.Background(), item.ItemID, uuid.New(), 10)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = svc.SetItemPrice(context.Background(), item.ItemID, ownerID, -1)
	assert.True(t, apperr.Is(err, apperr.KindBusinessRule))

	_, err = svc.SetItemPrice(context.Background(), uuid.New(), ownerID, 10)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
