package sim

import (
	"time"

	"github.com/aristath/bourse/internal/corporate"
	"github.com/aristath/bourse/internal/domain"
	"github.com/aristath/bourse/internal/news"
	"github.com/aristath/bourse/internal/universe"
)

// Config tunes the simulation engine. World economics (event pools,
// sector drags, inflation) come from the loaded universe; everything
// else is engine behavior that stays stable across universes.
type Config struct {
	// Bounded windows. Histories beyond these are trimmed at day close.
	HistoryWindow   int
	ValuationWindow int
	EventWindow     int
	ArticleWindow   int

	// Price mechanics.
	PriceFloor       float64
	SpilloverDamping float64
	Inflation        float64

	// Scheduling. An event fires when the day counter reaches its
	// counter; the next trigger is drawn uniformly from [1, Every].
	MacroEventEvery     int
	CorporateEventEvery int

	// Deferred evaluation.
	TradeHorizon   int
	NewsHorizon    int
	ArticleHorizon int
	LedgerGain     float64

	InvestorLearningRate float64
	PickerLearningRate   float64
	ToneLearningRate     float64

	// Annual taxation of realized long-term gains.
	TaxEveryDays int
	LongTermDays int
	TaxRate      float64
	TaxExemption float64

	// StartClock anchors simulated wall time for a fresh world.
	StartClock time.Time

	Corporate corporate.Config

	// World data resolved from the universe file.
	Pools     news.Pool
	SectorTax map[domain.Sector]float64
	IndexBase float64
}

// DefaultConfig returns the engine tuning used by the server.
func DefaultConfig() Config {
	return Config{
		HistoryWindow:   380,
		ValuationWindow: 380,
		EventWindow:     120,
		ArticleWindow:   50,

		PriceFloor:       0.01,
		SpilloverDamping: 0.25,
		Inflation:        0.0001,

		MacroEventEvery:     1,
		CorporateEventEvery: 1,

		TradeHorizon:   5,
		NewsHorizon:    5,
		ArticleHorizon: 5,
		LedgerGain:     10,

		InvestorLearningRate: 0.05,
		PickerLearningRate:   0.05,
		ToneLearningRate:     0.05,

		TaxEveryDays: 365,
		LongTermDays: 365,
		TaxRate:      0.25,
		TaxExemption: 1000,

		StartClock: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),

		Corporate: corporate.DefaultConfig(),
	}
}

// WithUniverse copies the world data a universe defines into the config.
func (c Config) WithUniverse(u *universe.Universe) Config {
	c.Pools = u.EventPools
	c.IndexBase = u.IndexBase
	c.SectorTax = make(map[domain.Sector]float64, len(u.Sectors))
	for _, s := range u.Sectors {
		c.SectorTax[domain.Sector(s.Name)] = s.TaxDrag
	}
	return c
}
