package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JonyGudino21/pharma-back/internal/config"
	"github.com/JonyGudino21/pharma-back/internal/infra"
	"github.com/JonyGudino21/pharma-back/internal/repository"
	"github.com/JonyGudino21/pharma-back/internal/router"
	"github.com/JonyGudino21/pharma-back/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	if *migrateOnly {
		cfg.DBAutoMigrate = true
	}
	db, err := infra.NewDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if *migrateOnly {
		log.Info().Msg("migrations applied")
		return
	}

	// Redis is optional in development: without it the API still works but
	// document locks, idempotency keys and async jobs are disabled.
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		if cfg.IsProduction() {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		log.Warn().Err(err).Msg("redis unavailable, running without locks, idempotency or workers")
		rdb = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	poolDone := make(chan struct{})
	if rdb != nil {
		pool := worker.NewPool(rdb, cfg.WorkerPoolSize)
		pool.Handle(worker.QueueComprobantes,
			worker.NewComprobanteWorker(repository.NewVentaRepository(db), mailer, cfg.NegocioNombre, cfg.PDFStoragePath))
		pool.Handle(worker.QueueNotificaciones, worker.NewNotificacionWorker(mailer, cfg.AlertEmail))
		go func() {
			defer close(poolDone)
			if err := pool.Run(ctx); err != nil {
				log.Error().Err(err).Msg("worker pool stopped")
			}
		}()

		worker.StartStockAlertCron(ctx, worker.StockCronConfig{
			Productos: repository.NewProductoRepository(db),
			Notifier:  worker.NewDispatcher(rdb),
			Interval:  cfg.StockAlertInterval,
		})
	} else {
		close(poolDone)
	}

	r := router.New(cfg, db, rdb, mailer)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("pharma backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		log.Error().Err(err).Msg("forced shutdown")
	}

	// Stop workers after HTTP so in-flight requests can still enqueue
	cancel()
	select {
	case <-poolDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("worker pool did not drain in time")
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}

// setupLogger: dev pretty console, prod JSON.
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
