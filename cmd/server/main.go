// Package main is the entry point for the folio rebalance planning server.
//
// Startup sequence:
//  1. Load configuration from the environment (.env supported)
//  2. Wire databases, repositories, services and jobs
//  3. Start the scheduler and the HTTP server
//  4. Wait for SIGINT/SIGTERM and shut down gracefully
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/di"
	"github.com/aristath/folio/internal/server"
	"github.com/aristath/folio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting folio")

	container, jobs, err := di.Wire(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer func() {
		if err := container.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close databases")
		}
	}()

	// Fill the price cache before the first request
	if err := jobs.PriceCacheWarmup.Run(); err != nil {
		log.Warn().Err(err).Msg("Initial price cache warm-up failed")
	}

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Jobs:      jobs,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	container.Scheduler.Stop()

	log.Info().Msg("Server stopped")
}
