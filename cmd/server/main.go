package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopcore/internal/config"
	"shopcore/internal/infra"
	"shopcore/internal/router"
	"shopcore/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Env == "production" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Alert webhook delivery goes through a circuit breaker so a dead
	// receiver cannot stall the notify queue.
	notifyCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	notifier := infra.NewWebhookNotifier(cfg.NotifyWebhookURL)
	mailer := infra.NewMailer(cfg)

	r, deps := router.New(cfg, db, rdb, notifyCB)

	// Goroutine worker pool for async jobs (emails, alert webhooks).
	workerHandlers := &worker.WorkerHandlers{
		Email:  worker.NewEmailWorker(mailer),
		Notify: worker.NewNotifyWorker(notifier, notifyCB),
	}
	worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)

	// Periodic sweeps: alert re-evaluation and restock PO drafting.
	worker.StartScheduler(ctx, worker.SchedulerConfig{
		Alerts:          deps.Alerts,
		Restock:         deps.PurchaseOrders,
		AlertInterval:   time.Duration(cfg.AlertSweepMinutes) * time.Minute,
		RestockInterval: time.Duration(cfg.RestockSweepMinutes) * time.Minute,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("shopcore backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
