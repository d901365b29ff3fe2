// Package di provides dependency injection wiring and initialization.
package di

import (
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/aristath/bourse/internal/config"
	"github.com/aristath/bourse/internal/database"
	"github.com/aristath/bourse/internal/events"
	"github.com/aristath/bourse/internal/news"
	"github.com/aristath/bourse/internal/reliability"
	"github.com/aristath/bourse/internal/services"
	"github.com/aristath/bourse/internal/sim"
	"github.com/aristath/bourse/internal/store"
	"github.com/aristath/bourse/internal/universe"
)

// Container holds every wired dependency in initialization order.
type Container struct {
	Cfg *config.Config
	Log zerolog.Logger

	// Databases
	MarketDB   *database.DB
	SnapshotDB *database.DB

	// Repositories
	Candles   *store.CandleRepository
	Snapshots *store.SnapshotRepository

	// Core
	Bus       *events.Bus
	Rng       *rand.Rand
	Universe  *universe.Universe
	Generator news.ArticleGenerator
	Engine    *sim.Engine

	// Services
	Sim    *services.SimulationService
	Backup *reliability.BackupService
}

// Close releases the container's databases. Safe to call with a
// partially wired container.
func (c *Container) Close() {
	if c.MarketDB != nil {
		_ = c.MarketDB.Close()
	}
	if c.SnapshotDB != nil {
		_ = c.SnapshotDB.Close()
	}
}
