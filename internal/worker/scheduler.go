package worker

// scheduler.go
// Background goroutines for the periodic inventory sweeps: the alert
// sweep re-evaluates thresholds for every alertable product, and the
// restock sweep drafts purchase orders for auto-restock products at or
// below their reorder point.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// AlertSweeper is implemented by the alert service.
type AlertSweeper interface {
	SweepActiveProducts(ctx context.Context) (int, error)
}

// RestockPlanner is implemented by the purchase order service.
type RestockPlanner interface {
	RunRestockSweep(ctx context.Context) (int, error)
}

// SchedulerConfig holds the sweep dependencies and cadence.
type SchedulerConfig struct {
	Alerts          AlertSweeper
	Restock         RestockPlanner
	AlertInterval   time.Duration
	RestockInterval time.Duration
}

// StartScheduler launches the sweep goroutines. Each sweep runs on its own
// ticker and respects the context for graceful shutdown.
func StartScheduler(ctx context.Context, cfg SchedulerConfig) {
	if cfg.AlertInterval <= 0 {
		cfg.AlertInterval = time.Hour
	}
	if cfg.RestockInterval <= 0 {
		cfg.RestockInterval = 24 * time.Hour
	}

	if cfg.Alerts != nil {
		go runSweep(ctx, "alert_sweep", cfg.AlertInterval, func(ctx context.Context) (int, error) {
			return cfg.Alerts.SweepActiveProducts(ctx)
		})
	}
	if cfg.Restock != nil {
		go runSweep(ctx, "restock_sweep", cfg.RestockInterval, func(ctx context.Context) (int, error) {
			return cfg.Restock.RunRestockSweep(ctx)
		})
	}
}

func runSweep(ctx context.Context, name string, interval time.Duration, fn func(context.Context) (int, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Str("sweep", name).Dur("interval", interval).Msg("scheduler: sweep started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("sweep", name).Msg("scheduler: sweep shutting down")
			return
		case <-ticker.C:
			start := time.Now()
			count, err := fn(ctx)
			if err != nil {
				log.Error().Err(err).Str("sweep", name).Msg("scheduler: sweep failed")
				continue
			}
			log.Info().Str("sweep", name).Int("processed", count).
				Dur("took", time.Since(start)).Msg("scheduler: sweep completed")
		}
	}
}
