package testing

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aristath/bourse/internal/news"
	"github.com/aristath/bourse/internal/sim"
	"github.com/aristath/bourse/internal/universe"
)

// NewTestUniverse returns a small two-company world for host-layer
// tests: enough population to exercise every strategy tier without
// slowing a test run down.
func NewTestUniverse() *universe.Universe {
	return &universe.Universe{
		Sectors:   []universe.SectorSeed{{Name: "tech", TaxDrag: 0.0002}, {Name: "energy", TaxDrag: 0.0004}},
		Regions:   []string{"europe", "asia"},
		IndexBase: 1000,
		SeedDays:  30,
		Companies: []universe.CompanySeed{
			{Symbol: "ALFA", Name: "Alfa Systems", Sector: "tech", Region: "europe", BasePrice: 120, Volatility: 0.02, SharesOutstanding: 40000, EPS: 5},
			{Symbol: "BETA", Name: "Beta Energy", Sector: "energy", Region: "asia", BasePrice: 80, Volatility: 0.025, SharesOutstanding: 60000, EPS: 3},
		},
		Investors: universe.InvestorSeeds{
			HyperComplex: universe.TierSeed{Count: 2, CashMin: 20000, CashMax: 30000},
			Complex:      universe.TierSeed{Count: 1, CashMin: 10000, CashMax: 15000},
			Simple:       universe.TierSeed{Count: 1, CashMin: 10000, CashMax: 15000},
			Random:       universe.TierSeed{Count: 1, CashMin: 5000, CashMax: 8000},
			HumanCash:    50000,
		},
		EventPools: news.Pool{
			news.KindPositive: {{Headline: "Markets rally on upbeat growth outlook", MinImpact: 1.02, MaxImpact: 1.05}},
			news.KindNegative: {{Headline: "Markets slide after weak factory data", MinImpact: 0.95, MaxImpact: 0.98}},
			news.KindNeutral:  {{Headline: "Markets drift through a quiet session", MinImpact: 1, MaxImpact: 1}},
		},
	}
}

// NewTestEngine builds an engine with the default tuning, the test
// universe's world data and a silent logger.
func NewTestEngine() *sim.Engine {
	cfg := sim.DefaultConfig().WithUniverse(NewTestUniverse())
	return sim.NewEngine(cfg, nil, zerolog.Nop())
}

// NewTestState initializes a deterministic world from the test
// universe. The seed is fixed so host-layer tests are reproducible.
func NewTestState(t *testing.T, engine *sim.Engine) (*sim.State, *rand.Rand) {
	t.Helper()

	rng := rand.New(rand.NewSource(7))
	state, err := engine.Initialize(rng, NewTestUniverse())
	if err != nil {
		t.Fatalf("Failed to initialize test state: %v", err)
	}
	return state, rng
}
