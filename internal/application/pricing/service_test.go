package pricing

import (
	"context"
	"testing"
	"time"

	"vestoria-backend/internal/config"
	"vestoria-backend/internal/domain"
	"vestoria-backend/internal/infrastructure/pricecache"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
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
	require.NoError(t, db.AutoMigrate(&domain.MarketListing{}, &domain.Transaction{}))
	return db
}

func newService(t *testing.T, db *gorm.DB) *Service {
	return &Service{DB: db, Cache: pricecache.New(nil, 0), Economy: config.DefaultEconomy()}
}

func seedListing(t *testing.T, db *gorm.DB, itemName string, qty int, active bool) {
	t.Helper()
	listing := domain.MarketListing{
		SellerID: uuid.New(), ItemID: uuid.New(), ItemName: itemName,
		Price: 1, Quantity: qty, Active: active,
	}
	require.NoError(t, db.Create(&listing).Error)
	if !active {
		// GORM substitutes the column's default:true for a zero-value
		// bool on create, so deactivate with an explicit update.
		require.NoError(t, db.Model(&domain.MarketListing{}).
			Where("listing_id = ?", listing.ListingID).
			Update("active", false).Error)
	}
}

func seedDemand(t *testing.T, db *gorm.DB, itemName string, amount int) {
	t.Helper()
	require.NoError(t, db.Create(&domain.Transaction{
		Type: domain.TxMarketBuy, SellerID: uuid.New(), Price: 1,
		Amount: amount, ItemName: itemName,
	}).Error)
}

func TestGetMarketPrice_DemandOverSupply(t *testing.T) {
	db := setupDB(t)
	svc := newService(t, db)

	// Flour base price 10, supply 5, demand 95: (95+10)/5 = 21, clamped to
	// 3.0, so the price lands on 30.00.
	seedListing(t, db, "Flour", 5, true)
	seedDemand(t, db, "Flour", 95)

	price, err := svc.GetMarketPrice(context.Background(), "Flour")
	require.NoError(t, err)
	assert.Equal(t, 30.00, price)
}

func TestGetMarketPrice_FloorClamp(t *testing.T) {
	db := setupDB(t)
	svc := newService(t, db)

	// No demand against a big supply: (0+10)/1000 = 0.01, clamped to 0.5.
	seedListing(t, db, "Bread", 1000, true)

	price, err := svc.GetMarketPrice(context.Background(), "Bread")
	require.NoError(t, err)
	assert.Equal(t, 2.50, price)
}

func TestGetMarketPrice_UnknownItemUsesDefaultBase(t *testing.T) {
	db := setupDB(t)
	svc := newService(t, db)

	// Zero supply counts as 1; (0+10)/1 = 10 clamps to 3.0 over the
	// default base of 10.
	price, err := svc.GetMarketPrice(context.Background(), "Moon Rock")
	require.NoError(t, err)
	assert.Equal(t, 30.00, price)
}

func TestGetMarketPrice_WithinBounds(t *testing.T) {
	db := setupDB(t)
	svc := newService(t, db)

	seedListing(t, db, "Cheese", 7, true)
	seedDemand(t, db, "Cheese", 3)

	price, err := svc.GetMarketPrice(context.Background(), "Cheese")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, price, 20.0*0.5)
	assert.LessOrEqual(t, price, 20.0*3.0)
}

func TestActiveSupply_IgnoresInactiveListings(t *testing.T) {
	db := setupDB(t)
	svc := newService(t, db)

	seedListing(t, db, "Iron", 10, true)
	seedListing(t, db, "Iron", 99, false)

	supply, err := svc.ActiveSupply(context.Background(), "Iron")
	require.NoError(t, err)
	assert.Equal(t, int64(10), supply)
}

func TestGlobalSupply_CountsInactiveWithinWindow(t *testing.T) {
	db := setupDB(t)
	svc := newService(t, db)

	seedListing(t, db, "Iron", 10, true)
	seedListing(t, db, "Iron", 5, false)

	supply, err := svc.GlobalSupply(context.Background(), "Iron")
	require.NoError(t, err)
	assert.Equal(t, int64(15), supply)
}

func TestGlobalDemand_ExcludesOldTransactions(t *testing.T) {
	db := setupDB(t)
	svc := newService(t, db)

	seedDemand(t, db, "Wool", 12)
	old := domain.Transaction{
		Type: domain.TxMarketBuy, SellerID: uuid.New(), Price: 1,
		Amount: 40, ItemName: "Wool",
	}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Model(&domain.Transaction{}).
		Where("tx_id = ?", old.TxID).
		Update("created_at", time.Now().Add(-25*time.Hour)).Error)

	demand, err := svc.GlobalDemand(context.Background(), "Wool")
	require.NoError(t, err)
	assert.Equal(t, int64(12), demand)
}

func TestGetMarketPrice_CachedUntilInvalidated(t *testing.T) {
	db := setupDB(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := &Service{DB: db, Cache: pricecache.New(rdb, time.Minute), Economy: config.DefaultEconomy()}
	ctx := context.Background()

	seedListing(t, db, "Flour", 5, true)
	seedDemand(t, db, "Flour", 95)

	price, err := svc.GetMarketPrice(ctx, "Flour")
	require.NoError(t, err)
	require.Equal(t, 30.00, price)

	// More supply would drop the price, but the memo still answers.
	seedListing(t, db, "Flour", 1000, true)
	price, err = svc.GetMarketPrice(ctx, "Flour")
	require.NoError(t, err)
	assert.Equal(t, 30.00, price)

	svc.Invalidate(ctx, "Flour")
	price, err = svc.GetMarketPrice(ctx, "Flour")
	require.NoError(t, err)
	assert.Less(t, price, 30.00)
}
