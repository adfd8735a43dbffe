package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/config"
	"github.com/sushmag0wda/Aims-Inventory/internal/infra"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"
	"github.com/sushmag0wda/Aims-Inventory/internal/router"
	"github.com/sushmag0wda/Aims-Inventory/internal/service"
	"github.com/sushmag0wda/Aims-Inventory/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && level != zerolog.NoLevel {
		zerolog.SetGlobalLevel(level)
	}

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Catalog rows the issue screens rely on.
	if _, _, err := service.EnsureLegacyItems(ctx, repository.NewItemRepository(db)); err != nil {
		log.Fatal().Err(err).Msg("failed to seed catalog")
	}

	// Notification e-mails go through a Redis-backed worker pool guarded by
	// the SMTP circuit breaker; parked jobs are redriven once it closes.
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))
	mailer := infra.NewMailer(cfg)
	pool := worker.NewPool(rdb, worker.NewEmailWorker(mailer, smtpCB))
	pool.Start(ctx, cfg.WorkerPoolSize)
	worker.StartRedriveCron(ctx, worker.RedriveCronConfig{RDB: rdb, CB: smtpCB, Queue: worker.QueueEmail})

	r := router.New(cfg, db, rdb, smtpCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("stationery backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
