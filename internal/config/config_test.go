package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EconomyDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10.0, cfg.Economy.DemandBuffer)
	assert.Equal(t, 0.5, cfg.Economy.PriceMultiplierMin)
	assert.Equal(t, 3.0, cfg.Economy.PriceMultiplierMax)
	assert.Equal(t, 0.8, cfg.Economy.VolatilityMin)
	assert.Equal(t, 1.2, cfg.Economy.VolatilityMax)
	assert.Equal(t, 3.0, cfg.Economy.CheapBoost)
	assert.Equal(t, 0.01, cfg.Economy.LevelBonus)
	assert.Equal(t, int64(10), cfg.Economy.XPPerItemSold)
	assert.Equal(t, 3, cfg.Economy.BuyRetryAttempts)
	assert.Equal(t, 30*time.Second, cfg.Economy.PriceCacheTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, "8080", cfg.Port)
}

func TestDefaultEconomy_MatchesLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultEconomy(), cfg.Economy)
}
