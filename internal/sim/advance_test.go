package sim

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/bourse/internal/domain"
)

func TestAdvance_ClosesDaysAtMidnight(t *testing.T) {
	u := testUniverse()
	e := testEngine(deterministicConfig())
	rng := rand.New(rand.NewSource(42))
	s, err := e.Initialize(rng, u)
	require.NoError(t, err)
	quietCorporate(s)

	// 09:00 plus 15 hours lands exactly on midnight.
	reports := e.Advance(rng, s, 15*time.Hour)
	require.Len(t, reports, 1)
	assert.Equal(t, 29, reports[0].Day)
	assert.Equal(t, 30, s.Day)
	assert.True(t, s.Clock.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)), s.Clock)

	// One hour into the new day crosses nothing.
	reports = e.Advance(rng, s, time.Hour)
	assert.Empty(t, reports)
	assert.Equal(t, 30, s.Day)

	// 47 hours from 01:00 crosses two midnights, the second exactly at
	// the end of the jump.
	reports = e.Advance(rng, s, 47*time.Hour)
	require.Len(t, reports, 2)
	assert.Equal(t, 30, reports[0].Day)
	assert.Equal(t, 31, reports[1].Day)
	assert.Equal(t, 32, s.Day)
	assert.True(t, s.Clock.Equal(time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)), s.Clock)
}

func TestAdvance_NonPositiveDurationIsNoOp(t *testing.T) {
	u := testUniverse()
	e := testEngine(deterministicConfig())
	rng := rand.New(rand.NewSource(42))
	s, err := e.Initialize(rng, u)
	require.NoError(t, err)

	clock := s.Clock
	price := s.Company("ALFA").Price()

	assert.Nil(t, e.Advance(rng, s, 0))
	assert.Nil(t, e.Advance(rng, s, -time.Hour))
	assert.True(t, s.Clock.Equal(clock))
	assert.Equal(t, 29, s.Day)
	assert.InDelta(t, price, s.Company("ALFA").Price(), 1e-12)
}

func TestAdvance_IntradayDiffusionKeepsCandlesValid(t *testing.T) {
	u := testUniverse()
	e := testEngine(deterministicConfig())
	rng := rand.New(rand.NewSource(42))
	s, err := e.Initialize(rng, u)
	require.NoError(t, err)

	before := make(map[string]float64)
	for _, c := range s.Companies {
		before[c.Symbol] = c.Price()
	}

	reports := e.Advance(rng, s, 3*time.Hour)
	assert.Empty(t, reports)
	assert.Equal(t, 29, s.Day)

	moved := false
	for _, c := range s.Companies {
		assert.Len(t, c.History, u.SeedDays, "No candle closes without a midnight")
		p := c.Last()
		assert.GreaterOrEqual(t, p.High, p.Open, c.Symbol)
		assert.GreaterOrEqual(t, p.High, p.Close, c.Symbol)
		assert.LessOrEqual(t, p.Low, p.Open, c.Symbol)
		assert.LessOrEqual(t, p.Low, p.Close, c.Symbol)
		assert.GreaterOrEqual(t, p.Low, e.Config().PriceFloor, c.Symbol)
		if p.Close != before[c.Symbol] {
			moved = true
		}
	}
	assert.True(t, moved, "Three hours of diffusion moves something")
}

func TestAdvance_ZeroVolatilityHoldsStill(t *testing.T) {
	still := flatCompany("STILL", "tech", "europe", 100, 30)
	s := bareState(t, []*domain.Company{still}, nil)
	s.Clock = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	e := testEngine(deterministicConfig())
	reports := e.Advance(rand.New(rand.NewSource(1)), s, 3*time.Hour)

	assert.Empty(t, reports)
	assert.InDelta(t, 100, still.Price(), 1e-12)
}

func TestAdvance_ChunkingDoesNotChangeDayStructure(t *testing.T) {
	u := testUniverse()
	cfg := deterministicConfig()

	eA := testEngine(cfg)
	sA, err := eA.Initialize(rand.New(rand.NewSource(42)), u)
	require.NoError(t, err)
	eB := testEngine(cfg)
	sB, err := eB.Initialize(rand.New(rand.NewSource(42)), u)
	require.NoError(t, err)

	rngA := rand.New(rand.NewSource(7))
	rngB := rand.New(rand.NewSource(7))

	reportsA := eA.Advance(rngA, sA, 72*time.Hour)
	var reportsB []*DayReport
	for i := 0; i < 12; i++ {
		reportsB = append(reportsB, eB.Advance(rngB, sB, 6*time.Hour)...)
	}

	assert.Len(t, reportsA, 3)
	assert.Len(t, reportsB, 3)
	assert.Equal(t, sA.Day, sB.Day)
	assert.True(t, sA.Clock.Equal(sB.Clock))
	for i, c := range sA.Companies {
		assert.Equal(t, len(c.History), len(sB.Companies[i].History), c.Symbol)
	}
}

func TestNextMidnight(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "mid afternoon",
			in:   time.Date(2025, 1, 1, 15, 30, 0, 0, time.UTC),
			want: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly midnight rolls a full day",
			in:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "one nanosecond before midnight",
			in:   time.Date(2025, 1, 1, 23, 59, 59, 999999999, time.UTC),
			want: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, nextMidnight(tc.in).Equal(tc.want))
		})
	}
}
