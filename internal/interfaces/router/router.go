package router

import (
	"net/http"

	acctsvc "vestoria-backend/internal/application/accounts"
	botsvc "vestoria-backend/internal/application/botsales"
	bldsvc "vestoria-backend/internal/application/buildings"
	invsvc "vestoria-backend/internal/application/inventory"
	listsvc "vestoria-backend/internal/application/listings"
	notifsvc "vestoria-backend/internal/application/notifications"
	pricesvc "vestoria-backend/internal/application/pricing"
	tradesvc "vestoria-backend/internal/application/trading"
	"vestoria-backend/internal/config"
	"vestoria-backend/internal/events"
	"vestoria-backend/internal/infrastructure/database"
	"vestoria-backend/internal/infrastructure/pricecache"
	accthandler "vestoria-backend/internal/interfaces/handlers/accounts"
	bldhandler "vestoria-backend/internal/interfaces/handlers/buildings"
	invhandler "vestoria-backend/internal/interfaces/handlers/inventory"
	mkthandler "vestoria-backend/internal/interfaces/handlers/market"
	notifhandler "vestoria-backend/internal/interfaces/handlers/notifications"
	"vestoria-backend/internal/middleware"
	"vestoria-backend/internal/pkg/entropy"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp opens the infrastructure and builds the wired fiber app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, *botsvc.Service, error) {
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		rdb = redis.NewClient(opt)
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, nil, err
	}

	app, bots := BuildApp(cfg, db, rdb, entropy.Crypto())
	return app, db, rdb, bots, nil
}

// BuildApp wires the services and routes onto a fiber app. Tests call it
// directly with sqlite, miniredis and a seeded entropy source.
func BuildApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client, rand entropy.Source) (*fiber.App, *botsvc.Service) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
	})

	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.Session(rdb))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	cache := pricecache.New(rdb, cfg.Economy.PriceCacheTTL)
	publisher := &events.Publisher{Rdb: rdb, DB: db}

	priceSvc := &pricesvc.Service{DB: db, Cache: cache, Economy: cfg.Economy}
	inventorySvc := &invsvc.Service{DB: db}
	notifySvc := &notifsvc.Service{DB: db}
	accountSvc := &acctsvc.Service{DB: db}
	listingSvc := &listsvc.Service{DB: db, Pricing: priceSvc, Events: publisher}
	tradeSvc := &tradesvc.Service{
		DB:        db,
		Inventory: inventorySvc,
		Pricing:   priceSvc,
		Events:    publisher,
		Notifier:  notifySvc,
		Attempts:  cfg.Economy.BuyRetryAttempts,
	}
	botSvc := &botsvc.Service{
		DB:       db,
		Pricing:  priceSvc,
		Accounts: accountSvc,
		Notifier: notifySvc,
		Events:   publisher,
		Rand:     rand,
		Economy:  cfg.Economy,
	}
	buildingSvc := &bldsvc.Service{DB: db, Inventory: inventorySvc, Notifier: notifySvc, Rand: rand}

	mh := &mkthandler.Handlers{Pricing: priceSvc, Listings: listingSvc, Trading: tradeSvc}
	mg := app.Group("/api/v1/market", middleware.RequireAuth())
	mg.Get("/price/:itemName", mh.GetPrice)
	mg.Get("/stats/:itemName", mh.GetStats)
	mg.Get("/listings", mh.GetListings)
	mg.Post("/list-item", mh.ListItem)
	mg.Post("/buy-item", mh.BuyItem)
	mg.Post("/cancel-listing", mh.CancelListing)

	ih := &invhandler.Handlers{Service: inventorySvc}
	ig := app.Group("/api/v1/inventory", middleware.RequireAuth())
	ig.Get("/", ih.Central)
	ig.Get("/all", ih.All)
	ig.Patch("/set-price", ih.SetPrice)

	bh := &bldhandler.Handlers{Service: buildingSvc, Bots: botSvc}
	bg := app.Group("/api/v1/buildings", middleware.RequireAuth())
	bg.Get("/", bh.List)
	bg.Get("/:id/items", bh.Items)
	bg.Post("/start-sales", bh.StartSales)
	bg.Post("/start-production", bh.StartProduction)
	bg.Post("/collect-production", bh.CollectProduction)
	bg.Post("/withdraw", bh.Withdraw)
	bg.Post("/transfer", bh.Transfer)
	bg.Post("/process-sales", bh.ProcessSales)

	nh := &notifhandler.Handlers{Service: notifySvc}
	ng := app.Group("/api/v1/notifications", middleware.RequireAuth())
	ng.Get("/", nh.List)
	ng.Get("/unread-count", nh.UnreadCount)
	ng.Post("/mark-all-read", nh.MarkAllRead)

	ah := &accthandler.Handlers{Service: accountSvc}
	app.Get("/api/v1/accounts/me", middleware.RequireAuth(), ah.Me)

	return app, botSvc
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
