// Package services provides the stateful orchestration layer between
// the simulation engine and the host surfaces (HTTP, scheduler, bus).
package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/bourse/internal/domain"
	"github.com/aristath/bourse/internal/events"
	"github.com/aristath/bourse/internal/news"
	"github.com/aristath/bourse/internal/sim"
	"github.com/aristath/bourse/internal/store"
	"github.com/aristath/bourse/internal/universe"
)

// ErrNotBootstrapped is returned when an operation runs before
// Bootstrap has produced a state.
var ErrNotBootstrapped = errors.New("simulation not bootstrapped")

// advanceChunk bounds how much simulated time one engine call covers so
// a cancelled context stops a large advance between days rather than
// after it.
const advanceChunk = 24 * time.Hour

// SimulationService owns the single mutable simulation state. All
// access goes through its mutex; the engine itself is stateless and
// never locks.
type SimulationService struct {
	mu     sync.Mutex
	engine *sim.Engine
	state  *sim.State
	rng    *rand.Rand

	bus          *events.Bus
	candles      *store.CandleRepository
	snapshots    *store.SnapshotRepository
	snapshotKeep int

	log zerolog.Logger
}

// NewSimulationService wires the engine to its persistence and event
// surfaces. The rng is the single source of randomness for the whole
// simulation; callers seed it once at startup.
func NewSimulationService(
	engine *sim.Engine,
	rng *rand.Rand,
	bus *events.Bus,
	candles *store.CandleRepository,
	snapshots *store.SnapshotRepository,
	snapshotKeep int,
	log zerolog.Logger,
) *SimulationService {
	return &SimulationService{
		engine:       engine,
		rng:          rng,
		bus:          bus,
		candles:      candles,
		snapshots:    snapshots,
		snapshotKeep: snapshotKeep,
		log:          log.With().Str("service", "simulation").Logger(),
	}
}

// Bootstrap produces the working state: the latest stored snapshot when
// resume is set and one exists, a fresh universe seeding otherwise.
func (s *SimulationService) Bootstrap(u *universe.Universe, resume bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if resume {
		snap, err := s.snapshots.LoadLatest()
		switch {
		case err == nil:
			state, derr := sim.DecodeState(snap.Blob)
			if derr != nil {
				return fmt.Errorf("failed to decode snapshot %s: %w", snap.ID, derr)
			}
			s.state = state
			s.log.Info().
				Str("snapshot_id", snap.ID).
				Int("day", state.Day).
				Msg("Resumed simulation from snapshot")
			return nil
		case errors.Is(err, store.ErrNoSnapshots):
			s.log.Info().Msg("No snapshot to resume from, seeding fresh simulation")
		default:
			return fmt.Errorf("failed to load latest snapshot: %w", err)
		}
	}

	state, err := s.engine.Initialize(s.rng, u)
	if err != nil {
		return fmt.Errorf("failed to initialize simulation: %w", err)
	}
	s.state = state
	s.log.Info().
		Int("companies", len(state.Companies)).
		Int("investors", len(state.Investors)).
		Msg("Seeded fresh simulation")
	return nil
}

// Advance moves simulated time forward by d, persisting every closed
// day's candles and publishing its events. Cancellation takes effect
// between day-sized chunks; days already closed stay closed.
func (s *SimulationService) Advance(ctx context.Context, d time.Duration) ([]*sim.DayReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil, ErrNotBootstrapped
	}
	if d <= 0 {
		return nil, nil
	}

	var reports []*sim.DayReport
	remaining := d
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			s.log.Warn().
				Dur("remaining", remaining).
				Msg("Advance cancelled mid-way")
			return reports, err
		}

		chunk := remaining
		if chunk > advanceChunk {
			chunk = advanceChunk
		}
		remaining -= chunk

		for _, report := range s.engine.Advance(s.rng, s.state, chunk) {
			if err := s.persistDay(report); err != nil {
				s.log.Error().Err(err).Int("day", report.Day).Msg("Failed to persist closed day")
			}
			s.publishDay(report)
			reports = append(reports, report)
		}
	}
	return reports, nil
}

// persistDay writes the closed day's per-company candles plus the index
// candle to the candle store.
func (s *SimulationService) persistDay(report *sim.DayReport) error {
	day := report.Day
	candles := make(map[string]domain.PricePoint)

	for _, c := range s.state.Companies {
		if p, ok := candleForDay(c.History, day); ok {
			candles[c.Symbol] = p
		}
	}
	if p, ok := candleForDay(s.state.Index, day); ok {
		candles[store.IndexSymbol] = p
	}

	return s.candles.SaveDay(day, candles)
}

func candleForDay(history []domain.PricePoint, day int) (domain.PricePoint, bool) {
	// Closed candles sit near the end; the live candle for day+1 is last.
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Day == day {
			return history[i], true
		}
		if history[i].Day < day {
			break
		}
	}
	return domain.PricePoint{}, false
}

func (s *SimulationService) publishDay(report *sim.DayReport) {
	for _, ev := range report.Events {
		s.bus.Publish(events.EventFired, "simulation", &events.EventFiredData{
			Day:      ev.Day,
			Kind:     string(ev.Kind),
			Symbol:   ev.Symbol,
			Region:   string(ev.Region),
			Headline: ev.Headline,
			Impact:   ev.Impact,
		})
	}
	for _, article := range report.Articles {
		s.bus.Publish(events.ArticlePublished, "simulation", &events.ArticlePublishedData{
			Day:      article.Day,
			Headline: article.Headline,
			Image:    article.ImageURL,
		})
	}
	if len(report.Delistings) > 0 {
		s.bus.Publish(events.CorporateAction, "simulation", &events.CorporateActionData{
			Day:        report.Day,
			Delistings: report.Delistings,
		})
	}
	s.bus.Publish(events.DayClosed, "simulation", &events.DayClosedData{
		Day:        report.Day,
		IndexValue: report.IndexValue,
		Trades:     report.Trades,
		Settled:    report.Settled,
		TaxTaken:   report.TaxTaken,
	})
}

// Snapshot encodes the full state, stores it, and prunes old copies
// down to the configured retention.
func (s *SimulationService) Snapshot() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return "", ErrNotBootstrapped
	}

	blob, err := s.state.Encode()
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}

	id, err := s.snapshots.Save(s.state.Day, blob)
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}

	if _, err := s.snapshots.Prune(s.snapshotKeep); err != nil {
		s.log.Warn().Err(err).Msg("Snapshot pruning failed")
	}

	s.bus.Publish(events.SnapshotSaved, "simulation", &events.SnapshotSavedData{
		SnapshotID: id,
		Day:        s.state.Day,
		SizeBytes:  len(blob),
	})
	return id, nil
}

// PlayerBuy executes a market buy for the human player at the current
// price. Rejections (unknown symbol, delisted, insufficient cash) come
// back as errors so the HTTP layer can surface them.
func (s *SimulationService) PlayerBuy(symbol string, shares int) error {
	return s.playerTrade(symbol, shares, "buy")
}

// PlayerSell executes a market sell for the human player.
func (s *SimulationService) PlayerSell(symbol string, shares int) error {
	return s.playerTrade(symbol, shares, "sell")
}

func (s *SimulationService) playerTrade(symbol string, shares int, side string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return ErrNotBootstrapped
	}
	player := s.state.Player()
	if player == nil {
		return errors.New("no human player in this universe")
	}

	var ok bool
	if side == "buy" {
		ok = s.engine.PlayerBuy(s.state, player.ID, symbol, shares)
	} else {
		ok = s.engine.PlayerSell(s.state, player.ID, symbol, shares)
	}
	if !ok {
		return fmt.Errorf("%s of %d %s rejected", side, shares, symbol)
	}

	s.bus.Publish(events.TradeExecuted, "simulation", &events.TradeExecutedData{
		Day:    s.state.Day,
		Symbol: symbol,
		Side:   side,
		Shares: shares,
		Player: true,
	})
	return nil
}

// MarketStatus is the read-model for the market overview endpoint.
type MarketStatus struct {
	Day         int         `json:"day"`
	Clock       time.Time   `json:"clock"`
	IndexValue  float64     `json:"index_value"`
	Companies   int         `json:"companies"`
	Delisted    int         `json:"delisted"`
	Investors   int         `json:"investors"`
	ActiveEvent *news.Event `json:"active_event,omitempty"`
}

// CompanyView is a company as the API exposes it: current price and
// headline fundamentals, no internal corporate state.
type CompanyView struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Sector            string  `json:"sector"`
	Region            string  `json:"region"`
	Price             float64 `json:"price"`
	SharesOutstanding int64   `json:"shares_outstanding"`
	EPS               float64 `json:"eps"`
	Volatility        float64 `json:"volatility"`
	Delisted          bool    `json:"delisted"`
}

// InvestorView is an investor as the API exposes it, with the derived
// portfolio value at current prices.
type InvestorView struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Human          bool           `json:"human"`
	Cash           float64        `json:"cash"`
	PortfolioValue float64        `json:"portfolio_value"`
	TaxPaid        float64        `json:"tax_paid"`
	Holdings       map[string]int `json:"holdings,omitempty"`
	Strategy       string         `json:"strategy,omitempty"`
}

// Status reports the market overview.
func (s *SimulationService) Status() (MarketStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return MarketStatus{}, ErrNotBootstrapped
	}

	delisted := 0
	for _, c := range s.state.Companies {
		if c.Delisted {
			delisted++
		}
	}

	status := MarketStatus{
		Day:        s.state.Day,
		Clock:      s.state.Clock,
		IndexValue: s.state.IndexValue(),
		Companies:  len(s.state.Companies),
		Delisted:   delisted,
		Investors:  len(s.state.Investors),
	}
	if s.state.ActiveEvent != nil {
		ev := *s.state.ActiveEvent
		status.ActiveEvent = &ev
	}
	return status, nil
}

// Companies returns all listings, delisted included.
func (s *SimulationService) Companies() ([]CompanyView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil, ErrNotBootstrapped
	}

	views := make([]CompanyView, 0, len(s.state.Companies))
	for _, c := range s.state.Companies {
		views = append(views, companyView(c))
	}
	return views, nil
}

// Company returns one listing by symbol.
func (s *SimulationService) Company(symbol string) (CompanyView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return CompanyView{}, ErrNotBootstrapped
	}
	c := s.state.Company(symbol)
	if c == nil {
		return CompanyView{}, fmt.Errorf("unknown symbol %q", symbol)
	}
	return companyView(c), nil
}

func companyView(c *domain.Company) CompanyView {
	return CompanyView{
		Symbol:            c.Symbol,
		Name:              c.Name,
		Sector:            string(c.Sector),
		Region:            string(c.Region),
		Price:             c.Price(),
		SharesOutstanding: c.SharesOutstanding,
		EPS:               c.EPS,
		Volatility:        c.Volatility,
		Delisted:          c.Delisted,
	}
}

// Investors returns all investors, sorted as stored (player first is
// not guaranteed; callers filter by Human when they need the player).
func (s *SimulationService) Investors() ([]InvestorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil, ErrNotBootstrapped
	}

	views := make([]InvestorView, 0, len(s.state.Investors))
	for _, inv := range s.state.Investors {
		views = append(views, s.investorView(inv, false))
	}
	return views, nil
}

// Investor returns one investor with full holdings detail.
func (s *SimulationService) Investor(id string) (InvestorView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return InvestorView{}, ErrNotBootstrapped
	}
	inv := s.state.Investor(id)
	if inv == nil {
		return InvestorView{}, fmt.Errorf("unknown investor %q", id)
	}
	return s.investorView(inv, true), nil
}

func (s *SimulationService) investorView(inv *domain.Investor, detail bool) InvestorView {
	view := InvestorView{
		ID:      inv.ID,
		Name:    inv.Name,
		Human:   inv.Human,
		Cash:    inv.Cash,
		TaxPaid: inv.TaxPaid,
	}
	view.PortfolioValue = inv.Cash + inv.PortfolioValue(func(symbol string) (float64, bool) {
		c := s.state.Company(symbol)
		if c == nil || c.Delisted {
			return 0, false
		}
		return c.Price(), true
	})
	if detail {
		holdings := make(map[string]int)
		for symbol := range inv.Lots {
			if n := inv.SharesOf(symbol); n > 0 {
				holdings[symbol] = n
			}
		}
		view.Holdings = holdings
		if inv.Strategy != nil {
			view.Strategy = string(inv.Strategy.Kind())
		}
	}
	return view
}

// Articles returns the most recent published articles, newest first.
func (s *SimulationService) Articles(limit int) ([]news.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil, ErrNotBootstrapped
	}
	if limit <= 0 || limit > len(s.state.Articles) {
		limit = len(s.state.Articles)
	}

	articles := make([]news.Article, limit)
	for i := 0; i < limit; i++ {
		articles[i] = s.state.Articles[len(s.state.Articles)-1-i]
	}
	return articles, nil
}

// Day returns the current simulated day.
func (s *SimulationService) Day() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return 0
	}
	return s.state.Day
}
