package di

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/bourse/internal/config"
	"github.com/aristath/bourse/internal/database"
	"github.com/aristath/bourse/internal/events"
	"github.com/aristath/bourse/internal/reliability"
	"github.com/aristath/bourse/internal/services"
	"github.com/aristath/bourse/internal/sim"
	"github.com/aristath/bourse/internal/store"
	"github.com/aristath/bourse/internal/universe"
)

// Wire initializes all dependencies and returns a fully configured
// container. Order of operations:
//  1. Databases
//  2. Repositories
//  3. Simulation engine
//  4. Services
//
// On error the already opened databases are closed before returning.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{Cfg: cfg, Log: log}

	if err := initializeDatabases(container); err != nil {
		return nil, err
	}
	if err := initializeRepositories(container); err != nil {
		container.Close()
		return nil, err
	}
	if err := initializeSimulation(container); err != nil {
		container.Close()
		return nil, err
	}
	if err := initializeServices(container); err != nil {
		container.Close()
		return nil, err
	}

	log.Info().Msg("Dependency injection wiring completed successfully")
	return container, nil
}

// initializeDatabases opens both SQLite databases.
func initializeDatabases(c *Container) error {
	// market.db holds candles, which are rebuildable from snapshots,
	// so it runs the fast cache profile.
	marketDB, err := database.New(database.Config{
		Path:    filepath.Join(c.Cfg.DataDir, "market.db"),
		Profile: database.ProfileCache,
		Name:    "market",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize market database: %w", err)
	}
	c.MarketDB = marketDB

	// snapshots.db is the only way back after a crash, so it runs the
	// maximum-durability ledger profile.
	snapshotDB, err := database.New(database.Config{
		Path:    filepath.Join(c.Cfg.DataDir, "snapshots.db"),
		Profile: database.ProfileLedger,
		Name:    "snapshots",
	})
	if err != nil {
		marketDB.Close()
		c.MarketDB = nil
		return fmt.Errorf("failed to initialize snapshot database: %w", err)
	}
	c.SnapshotDB = snapshotDB

	return nil
}

// initializeRepositories creates the repositories and their schemas.
func initializeRepositories(c *Container) error {
	candles, err := store.NewCandleRepository(c.MarketDB.Conn(), c.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize candle repository: %w", err)
	}
	c.Candles = candles

	snapshots, err := store.NewSnapshotRepository(c.SnapshotDB.Conn(), c.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize snapshot repository: %w", err)
	}
	c.Snapshots = snapshots

	return nil
}

// initializeSimulation loads the universe and builds the engine.
func initializeSimulation(c *Container) error {
	u, err := universe.Load(c.Cfg.UniversePath)
	if err != nil {
		return fmt.Errorf("failed to load universe: %w", err)
	}
	c.Universe = u

	seed := c.Cfg.SimSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	c.Rng = rand.New(rand.NewSource(seed))
	c.Log.Info().Int64("seed", seed).Msg("Simulation rng seeded")

	simCfg := sim.DefaultConfig().WithUniverse(u)
	if c.Cfg.SpilloverDamping > 0 {
		simCfg.SpilloverDamping = c.Cfg.SpilloverDamping
	}

	c.Bus = events.NewBus(c.Log)
	c.Engine = sim.NewEngine(simCfg, c.Generator, c.Log)
	return nil
}

// initializeServices builds the orchestration services.
func initializeServices(c *Container) error {
	c.Sim = services.NewSimulationService(
		c.Engine,
		c.Rng,
		c.Bus,
		c.Candles,
		c.Snapshots,
		c.Cfg.SnapshotKeep,
		c.Log,
	)

	if c.Cfg.BackupEnabled() {
		s3Client, err := reliability.NewS3Client(
			context.Background(),
			c.Cfg.BackupEndpoint,
			c.Cfg.BackupAccessKey,
			c.Cfg.BackupSecretKey,
			c.Cfg.BackupBucket,
			c.Log,
		)
		if err != nil {
			return fmt.Errorf("failed to initialize s3 client: %w", err)
		}
		c.Backup = reliability.NewBackupService(
			s3Client,
			c.Cfg.DataDir,
			c.Cfg.BackupRetentionDays,
			c.Log,
			c.MarketDB,
			c.SnapshotDB,
		)
	}

	return nil
}
