package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Economy holds the tunable constants of the pricing and bot sales
// formulas. The scoring model never converged on fixed values, so every
// knob is configuration with the defaults below.
type Economy struct {
	DemandBuffer       float64       // baseline demand added to the 24h volume
	PriceMultiplierMin float64       // lower clamp for the dynamic price multiplier
	PriceMultiplierMax float64       // upper clamp
	VolatilityMin      float64       // bot sales luck range
	VolatilityMax      float64
	CheapBoost         float64       // boost slope when priced under reference
	LevelBonus         float64       // sales bonus per owner level
	XPPerItemSold      int64         // XP granted per unit the bot buys
	BuyRetryAttempts   int           // optimistic-lock retries in buyItem
	PriceCacheTTL      time.Duration // redis memo TTL for price/supply/demand
}

// Config holds application configuration (env + Viper).
type Config struct {
	Env           string
	Port          string
	DatabaseURL   string
	RedisURL      string
	SessionSecret string
	SweepInterval time.Duration // how often the sales-window sweep runs
	Economy       Economy
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("SWEEP_INTERVAL", time.Minute)

	viper.SetDefault("ECONOMY_DEMAND_BUFFER", 10.0)
	viper.SetDefault("ECONOMY_PRICE_MULTIPLIER_MIN", 0.5)
	viper.SetDefault("ECONOMY_PRICE_MULTIPLIER_MAX", 3.0)
	viper.SetDefault("ECONOMY_VOLATILITY_MIN", 0.8)
	viper.SetDefault("ECONOMY_VOLATILITY_MAX", 1.2)
	viper.SetDefault("ECONOMY_CHEAP_BOOST", 3.0)
	viper.SetDefault("ECONOMY_LEVEL_BONUS", 0.01)
	viper.SetDefault("ECONOMY_XP_PER_ITEM_SOLD", 10)
	viper.SetDefault("ECONOMY_BUY_RETRY_ATTEMPTS", 3)
	viper.SetDefault("ECONOMY_PRICE_CACHE_TTL", 30*time.Second)

	env := viper.GetString("APP_ENV")
	dbURL := viper.GetString("DATABASE_URL")
	if env == "test" && viper.GetString("DATABASE_URL_TEST") != "" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}

	return &Config{
		Env:           env,
		Port:          viper.GetString("PORT"),
		DatabaseURL:   dbURL,
		RedisURL:      viper.GetString("REDIS_URL"),
		SessionSecret: viper.GetString("SESSION_SECRET"),
		SweepInterval: viper.GetDuration("SWEEP_INTERVAL"),
		Economy: Economy{
			DemandBuffer:       viper.GetFloat64("ECONOMY_DEMAND_BUFFER"),
			PriceMultiplierMin: viper.GetFloat64("ECONOMY_PRICE_MULTIPLIER_MIN"),
			PriceMultiplierMax: viper.GetFloat64("ECONOMY_PRICE_MULTIPLIER_MAX"),
			VolatilityMin:      viper.GetFloat64("ECONOMY_VOLATILITY_MIN"),
			VolatilityMax:      viper.GetFloat64("ECONOMY_VOLATILITY_MAX"),
			CheapBoost:         viper.GetFloat64("ECONOMY_CHEAP_BOOST"),
			LevelBonus:         viper.GetFloat64("ECONOMY_LEVEL_BONUS"),
			XPPerItemSold:      viper.GetInt64("ECONOMY_XP_PER_ITEM_SOLD"),
			BuyRetryAttempts:   viper.GetInt("ECONOMY_BUY_RETRY_ATTEMPTS"),
			PriceCacheTTL:      viper.GetDuration("ECONOMY_PRICE_CACHE_TTL"),
		},
	}, nil
}

// DefaultEconomy returns the economy knobs with their default values,
// used by tests and by callers that do not go through Load.
func DefaultEconomy() Economy {
	return Economy{
		DemandBuffer:       10.0,
		PriceMultiplierMin: 0.5,
		PriceMultiplierMax: 3.0,
		VolatilityMin:      0.8,
		VolatilityMax:      1.2,
		CheapBoost:         3.0,
		LevelBonus:         0.01,
		XPPerItemSold:      10,
		BuyRetryAttempts:   3,
		PriceCacheTTL:      30 * time.Second,
	}
}
