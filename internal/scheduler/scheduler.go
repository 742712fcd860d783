// Package scheduler drives the periodic settlement of expired shop sales
// windows.
package scheduler

import (
	"context"
	"time"

	"vestoria-backend/internal/application/botsales"

	"github.com/rs/zerolog/log"
)

// Run sweeps expired sales windows every interval until ctx is cancelled.
// Blocks; run it on its own goroutine.
func Run(ctx context.Context, sim *botsales.Service, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("sales sweep scheduler started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sales sweep scheduler stopped")
			return
		case <-ticker.C:
			sim.SweepExpiredSales(ctx)
		}
	}
}
