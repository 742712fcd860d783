package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vestoria-backend/internal/config"
	"vestoria-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixedSource struct{ v float64 }

func (f fixedSource) Float64() float64 { return f.v }

func setupApp(t *testing.T) (*fiber.App, *gorm.DB, *redis.Client) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.Account{}, &domain.Item{}, &domain.MarketListing{},
		&domain.Transaction{}, &domain.Building{}, &domain.Notification{},
		&domain.MarketEvent{},
	))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{Env: "test", Economy: config.DefaultEconomy()}
	app, _ := BuildApp(cfg, db, rdb, fixedSource{0.5})
	return app, db, rdb
}

func login(t *testing.T, rdb *redis.Client, acct domain.Account) *http.Cookie {
	t.Helper()
	sid := uuid.New().String()
	payload, err := json.Marshal(map[string]string{
		"user_id":  acct.AccountID.String(),
		"username": acct.Username,
	})
	require.NoError(t, err)
	require.NoError(t, rdb.Set(context.Background(), "session:"+sid, payload, time.Hour).Err())
	return &http.Cookie{Name: "vestoria.sid", Value: sid}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, cookie *http.Cookie) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var parsed map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp, parsed
}

func TestHealth(t *testing.T) {
	app, _, _ := setupApp(t)
	resp, body := doJSON(t, app, "GET", "/health", nil, nil)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestMarketRoutes_RequireSession(t *testing.T) {
	app, _, _ := setupApp(t)
	resp, _ := doJSON(t, app, "GET", "/api/v1/market/listings", nil, nil)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestGetPrice(t *testing.T) {
	app, db, rdb := setupApp(t)

	acct := domain.Account{Username: "mehmet", Balance: 100, Level: 1}
	require.NoError(t, db.Create(&acct).Error)
	cookie := login(t, rdb, acct)

	resp, body := doJSON(t, app, "GET", "/api/v1/market/price/Flour", nil, cookie)
	require.Equal(t, 200, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Flour", data["item_name"])
	// Cold market: zero demand with the buffer against zero supply clamps
	// to the 3.0 ceiling over the base price of 10.
	assert.Equal(t, 30.0, data["price"])
}

func TestListAndBuyFlow(t *testing.T) {
	app, db, rdb := setupApp(t)

	seller := domain.Account{Username: "ayse", Balance: 0, Level: 1}
	buyer := domain.Account{Username: "mehmet", Balance: 100, Level: 1}
	require.NoError(t, db.Create(&seller).Error)
	require.NoError(t, db.Create(&buyer).Error)

	item := domain.Item{Name: "Cheese", Quantity: 10, QualityScore: 75, OwnerID: seller.AccountID}
	require.NoError(t, db.Create(&item).Error)

	sellerCookie := login(t, rdb, seller)
	buyerCookie := login(t, rdb, buyer)

	resp, body := doJSON(t, app, "POST", "/api/v1/market/list-item", map[string]interface{}{
		"item_id": item.ItemID.String(), "quantity": 10, "price": 8,
	}, sellerCookie)
	require.Equal(t, 201, resp.StatusCode)
	listingID := body["data"].(map[string]interface{})["listing_id"].(string)

	resp, _ = doJSON(t, app, "GET", "/api/v1/market/listings?search=chee", nil, buyerCookie)
	require.Equal(t, 200, resp.StatusCode)

	resp, _ = doJSON(t, app, "POST", "/api/v1/market/buy-item", map[string]interface{}{
		"listing_id": listingID, "quantity": 4,
	}, buyerCookie)
	require.Equal(t, 200, resp.StatusCode)

	var buyerAfter domain.Account
	require.NoError(t, db.First(&buyerAfter, "account_id = ?", buyer.AccountID).Error)
	assert.Equal(t, 68.0, buyerAfter.Balance)

	// Seller cannot buy their own remaining stock.
	resp, body = doJSON(t, app, "POST", "/api/v1/market/buy-item", map[string]interface{}{
		"listing_id": listingID, "quantity": 1,
	}, sellerCookie)
	assert.Equal(t, 422, resp.StatusCode)
	assert.Equal(t, "error", body["status"])
}

func TestBuyItem_InsufficientBalanceMapsTo402(t *testing.T) {
	app, db, rdb := setupApp(t)

	seller := domain.Account{Username: "ayse", Balance: 0, Level: 1}
	buyer := domain.Account{Username: "mehmet", Balance: 1, Level: 1}
	require.NoError(t, db.Create(&seller).Error)
	require.NoError(t, db.Create(&buyer).Error)

	item := domain.Item{Name: "Cheese", Quantity: 5, QualityScore: 75, OwnerID: seller.AccountID}
	require.NoError(t, db.Create(&item).Error)

	sellerCookie := login(t, rdb, seller)
	resp, body := doJSON(t, app, "POST", "/api/v1/market/list-item", map[string]interface{}{
		"item_id": item.ItemID.String(), "quantity": 5, "price": 8,
	}, sellerCookie)
	require.Equal(t, 201, resp.StatusCode)
	listingID := body["data"].(map[string]interface{})["listing_id"].(string)

	buyerCookie := login(t, rdb, buyer)
	resp, _ = doJSON(t, app, "POST", "/api/v1/market/buy-item", map[string]interface{}{
		"listing_id": listingID, "quantity": 1,
	}, buyerCookie)
	assert.Equal(t, 402, resp.StatusCode)
}

func TestCancelListing_EndToEnd(t *testing.T) {
	app, db, rdb := setupApp(t)

	seller := domain.Account{Username: "ayse", Balance: 0, Level: 1}
	require.NoError(t, db.Create(&seller).Error)
	item := domain.Item{Name: "Cheese", Quantity: 10, QualityScore: 75, OwnerID: seller.AccountID}
	require.NoError(t, db.Create(&item).Error)

	cookie := login(t, rdb, seller)
	resp, body := doJSON(t, app, "POST", "/api/v1/market/list-item", map[string]interface{}{
		"item_id": item.ItemID.String(), "quantity": 10, "price": 8,
	}, cookie)
	require.Equal(t, 201, resp.StatusCode)
	listingID := body["data"].(map[string]interface{})["listing_id"].(string)

	resp, _ = doJSON(t, app, "POST", "/api/v1/market/cancel-listing", map[string]interface{}{
		"listing_id": listingID,
	}, cookie)
	require.Equal(t, 200, resp.StatusCode)

	var after domain.Item
	require.NoError(t, db.First(&after, "item_id = ?", item.ItemID).Error)
	assert.Equal(t, 10, after.Quantity)
}

func TestInventoryAndAccountRoutes(t *testing.T) {
	app, db, rdb := setupApp(t)

	acct := domain.Account{Username: "mehmet", Balance: 100, Level: 1}
	require.NoError(t, db.Create(&acct).Error)
	require.NoError(t, db.Create(&domain.Item{
		Name: "Cheese", Quantity: 3, QualityScore: 80, OwnerID: acct.AccountID,
	}).Error)
	cookie := login(t, rdb, acct)

	resp, body := doJSON(t, app, "GET", "/api/v1/inventory/", nil, cookie)
	require.Equal(t, 200, resp.StatusCode)
	items := body["data"].([]interface{})
	assert.Len(t, items, 1)

	resp, body = doJSON(t, app, "GET", "/api/v1/accounts/me", nil, cookie)
	require.Equal(t, 200, resp.StatusCode)
	me := body["data"].(map[string]interface{})
	assert.Equal(t, "mehmet", me["username"])
	assert.Equal(t, 100.0, me["balance"])
}

func TestNotificationsRoutes(t *testing.T) {
	app, db, rdb := setupApp(t)

	acct := domain.Account{Username: "mehmet", Balance: 0, Level: 1}
	require.NoError(t, db.Create(&acct).Error)
	require.NoError(t, db.Create(&domain.Notification{
		UserID: acct.AccountID, Message: "hello",
	}).Error)
	cookie := login(t, rdb, acct)

	resp, body := doJSON(t, app, "GET", "/api/v1/notifications/unread-count", nil, cookie)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1.0, body["data"].(map[string]interface{})["count"])

	resp, _ = doJSON(t, app, "POST", "/api/v1/notifications/mark-all-read", nil, cookie)
	require.Equal(t, 200, resp.StatusCode)

	resp, body = doJSON(t, app, "GET", "/api/v1/notifications/unread-count", nil, cookie)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 0.0, body["data"].(map[string]interface{})["count"])
}

func TestUnknownListingMapsTo404(t *testing.T) {
	app, db, rdb := setupApp(t)

	acct := domain.Account{Username: "mehmet", Balance: 100, Level: 1}
	require.NoError(t, db.Create(&acct).Error)
	cookie := login(t, rdb, acct)

	resp, _ := doJSON(t, app, "POST", "/api/v1/market/buy-item", map[string]interface{}{
		"listing_id": uuid.New().String(), "quantity": 1,
	}, cookie)
	assert.Equal(t, 404, resp.StatusCode)
}
