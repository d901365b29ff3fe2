// Package main is the entry point for the Bourse market simulator.
// Bourse runs a closed artificial market: autonomous investors trade
// simulated companies, corporate boards make decisions, macro events
// move prices, and every participant learns from the deferred outcomes
// of its own choices. The daemon exposes the market over HTTP and keeps
// it alive across restarts through state snapshots.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/bourse/internal/config"
	"github.com/aristath/bourse/internal/di"
	"github.com/aristath/bourse/internal/scheduler"
	"github.com/aristath/bourse/internal/server"
	"github.com/aristath/bourse/pkg/logger"
)

func main() {
	// Load configuration first to get log level
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
		Pretty: true,
	})

	log.Info().Msg("Starting Bourse")

	// Wire databases, repositories, the engine and services.
	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// Resume from the latest snapshot when configured, otherwise seed a
	// fresh world from the universe file.
	if err := container.Sim.Bootstrap(container.Universe, cfg.Resume); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap simulation")
	}

	// Background jobs: periodic advance, snapshots, database
	// maintenance, and the optional cloud backup.
	sched := scheduler.New(log)

	if cfg.AutoAdvance {
		advanceStep := time.Duration(cfg.AdvanceSeconds) * time.Second
		if err := sched.AddJob(cfg.AdvanceCron, scheduler.NewAdvanceJob(container.Sim, advanceStep, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register advance job")
		}
	}
	if err := sched.AddJob(cfg.SnapshotCron, scheduler.NewSnapshotJob(container.Sim, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot job")
	}
	if err := sched.AddJob("0 30 4 * * *", scheduler.NewMaintenanceJob(log, container.MarketDB, container.SnapshotDB)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}
	if container.Backup != nil {
		if err := sched.AddJob(cfg.BackupCron, scheduler.NewBackupJob(container.Backup, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
	}

	sched.Start()

	srv := server.New(server.Config{
		Log:        log,
		Cfg:        cfg,
		Sim:        container.Sim,
		Candles:    container.Candles,
		Snapshots:  container.Snapshots,
		Bus:        container.Bus,
		MarketDB:   container.MarketDB,
		SnapshotDB: container.SnapshotDB,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	log.Info().
		Int("port", cfg.Port).
		Int("day", container.Sim.Day()).
		Msg("Bourse is running")

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop producing new work before draining the HTTP server.
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// A final snapshot so a restart resumes exactly where we stopped.
	if id, err := container.Sim.Snapshot(); err != nil {
		log.Error().Err(err).Msg("Failed to store shutdown snapshot")
	} else {
		log.Info().Str("snapshot_id", id).Msg("Shutdown snapshot stored")
	}

	log.Info().Msg("Bourse stopped")
}
