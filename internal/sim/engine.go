package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/bourse/internal/corporate"
	"github.com/aristath/bourse/internal/domain"
	"github.com/aristath/bourse/internal/indicators"
	"github.com/aristath/bourse/internal/ledger"
	"github.com/aristath/bourse/internal/neural"
	"github.com/aristath/bourse/internal/news"
	"github.com/aristath/bourse/internal/strategy"
	"github.com/aristath/bourse/internal/universe"
)

// Engine drives a State through time. It holds tuning and world data
// but no simulation entities, so one engine can serve any number of
// states (live, snapshots under test, replays).
type Engine struct {
	cfg    Config
	desk   *corporate.Desk
	images news.ImageLookup
	gen    news.ArticleGenerator
	log    zerolog.Logger
}

// NewEngine builds an engine. generator may be nil, in which case the
// template generator bound to the state's tone network is used.
func NewEngine(cfg Config, generator news.ArticleGenerator, log zerolog.Logger) *Engine {
	if cfg.Corporate.PriceFloor == 0 {
		cfg.Corporate.PriceFloor = cfg.PriceFloor
	}
	return &Engine{
		cfg:    cfg,
		desk:   corporate.NewDesk(cfg.Corporate, log),
		images: news.PlaceholderImages{},
		gen:    generator,
		log:    log.With().Str("component", "sim").Logger(),
	}
}

// Config exposes the engine tuning to collaborators.
func (e *Engine) Config() Config {
	return e.cfg
}

// generator resolves the article generator for a state. The default
// template generator trains the state-owned tone network so its
// learning rides along in snapshots.
func (e *Engine) generator(s *State) news.ArticleGenerator {
	if e.gen != nil {
		return e.gen
	}
	return news.NewTemplateGenerator(s.ArticleTone, e.cfg.ToneLearningRate, e.images, e.log)
}

// Initialize builds a fresh world from the universe seeds: companies
// with a diffused seed history, the investor population, the picker and
// tone networks, and empty ledgers.
func (e *Engine) Initialize(rng *rand.Rand, u *universe.Universe) (*State, error) {
	seedDays := u.SeedDays

	companies := make([]*domain.Company, 0, len(u.Companies))
	for _, seed := range u.Companies {
		corpState, err := corporate.NewDecisionState(rng, e.cfg.Corporate.LearningRate)
		if err != nil {
			return nil, fmt.Errorf("failed to build corporate networks for %s: %w", seed.Symbol, err)
		}
		c := &domain.Company{
			Symbol:            seed.Symbol,
			Name:              seed.Name,
			Sector:            domain.Sector(seed.Sector),
			Region:            domain.Region(seed.Region),
			SharesOutstanding: seed.SharesOutstanding,
			EPS:               seed.EPS,
			Volatility:        seed.Volatility,
			History:           seedHistory(rng, seed, seedDays, e.cfg.PriceFloor),
			Corporate:         corpState,
		}
		companies = append(companies, c)
	}

	investors, playerID, err := e.seedInvestors(rng, u)
	if err != nil {
		return nil, err
	}

	picker, err := neural.New(rng, []int{len(indicators.MarketFeatureNames), 8, len(news.MacroCategories)}, indicators.MarketFeatureNames)
	if err != nil {
		return nil, fmt.Errorf("failed to build news picker: %w", err)
	}
	tone, err := news.NewToneNetwork(rng)
	if err != nil {
		return nil, fmt.Errorf("failed to build tone network: %w", err)
	}

	// The index carries closed days only; the current day's index value
	// is always derived live from company candles.
	index := seedIndex(companies, seedDays-1)
	scale := 1.0
	if e.cfg.IndexBase > 0 && len(index) > 0 && index[0].Close > 0 {
		scale = e.cfg.IndexBase / index[0].Close
		for i := range index {
			index[i].Open *= scale
			index[i].High *= scale
			index[i].Low *= scale
			index[i].Close *= scale
		}
	}

	s := &State{
		Day:   seedDays - 1,
		Clock: e.cfg.StartClock,

		Companies: companies,
		Investors: investors,
		PlayerID:  playerID,

		Index:      index,
		IndexScale: scale,

		Picker:      picker,
		ArticleTone: tone,

		TradeLedger:     ledger.New(e.cfg.LedgerGain),
		CorporateLedger: ledger.New(e.cfg.LedgerGain),
		NewsLedger:      ledger.New(e.cfg.LedgerGain),
		ArticleLedger:   ledger.New(e.cfg.LedgerGain),

		NextMacroDay:     seedDays,
		NextCorporateDay: seedDays,

		DailyVolume: make(map[string]int64),
	}

	e.log.Info().
		Int("companies", len(companies)).
		Int("investors", len(investors)).
		Int("seed_days", seedDays).
		Msg("Simulation initialized")
	return s, nil
}

// seedHistory diffuses a company's price over the seed window so every
// indicator has something to chew on from day one.
func seedHistory(rng *rand.Rand, seed universe.CompanySeed, days int, floor float64) []domain.PricePoint {
	history := make([]domain.PricePoint, days)
	price := seed.BasePrice
	baseVolume := seed.SharesOutstanding / 200
	if baseVolume < 100 {
		baseVolume = 100
	}

	for i := 0; i < days; i++ {
		open := price
		price *= 1 + rng.NormFloat64()*seed.Volatility
		high := math.Max(open, price) * (1 + rng.Float64()*seed.Volatility/2)
		low := math.Min(open, price) * (1 - rng.Float64()*seed.Volatility/2)

		p := domain.PricePoint{
			Day:    i,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  price,
			Volume: baseVolume + rng.Int63n(baseVolume+1),
		}
		p.Clamp(floor)
		history[i] = p
		price = p.Close
	}
	return history
}

// seedIndex derives index candles for the first days of the seed
// window from the companies' histories.
func seedIndex(companies []*domain.Company, days int) []domain.PricePoint {
	index := make([]domain.PricePoint, 0, days)
	for day := 0; day < days; day++ {
		var point domain.PricePoint
		count := 0
		for _, c := range companies {
			if day >= len(c.History) {
				continue
			}
			p := c.History[day]
			point.Open += p.Open
			point.High += p.High
			point.Low += p.Low
			point.Close += p.Close
			point.Volume += p.Volume
			count++
		}
		if count == 0 {
			continue
		}
		n := float64(count)
		index = append(index, domain.PricePoint{
			Day:    day,
			Open:   point.Open / n,
			High:   point.High / n,
			Low:    point.Low / n,
			Close:  point.Close / n,
			Volume: point.Volume,
		})
	}
	return index
}

// seedInvestors builds the AI population plus the human player.
func (e *Engine) seedInvestors(rng *rand.Rand, u *universe.Universe) ([]*domain.Investor, string, error) {
	investors := make([]*domain.Investor, 0, u.TotalInvestors())

	add := func(name string, cash float64, st strategy.Strategy) {
		investors = append(investors, &domain.Investor{
			ID:       uuid.New().String(),
			Name:     name,
			Cash:     cash,
			Lots:     make(map[string][]domain.Lot),
			Strategy: st,
		})
	}
	drawCash := func(tier universe.TierSeed) float64 {
		if tier.CashMax <= tier.CashMin {
			return tier.CashMin
		}
		return tier.CashMin + rng.Float64()*(tier.CashMax-tier.CashMin)
	}

	for i := 0; i < u.Investors.HyperComplex.Count; i++ {
		net, err := neural.New(rng, []int{len(indicators.InvestorFeatures), 16, 1}, indicators.InvestorFeatures)
		if err != nil {
			return nil, "", fmt.Errorf("failed to build investor network: %w", err)
		}
		add(investorName(rng), drawCash(u.Investors.HyperComplex), strategy.HyperComplex{
			Network:        net,
			RiskAversion:   0.25 + rng.Float64()*0.4,
			TradeFrequency: 0.4 + rng.Float64()*0.5,
			LearningRate:   e.cfg.InvestorLearningRate,
		})
	}
	for i := 0; i < u.Investors.Complex.Count; i++ {
		add(investorName(rng), drawCash(u.Investors.Complex), strategy.Complex{
			RiskAversion: 0.3 + rng.Float64()*0.4,
		})
	}
	for i := 0; i < u.Investors.Simple.Count; i++ {
		add(investorName(rng), drawCash(u.Investors.Simple), strategy.Simple{
			RiskAversion: 0.3 + rng.Float64()*0.4,
		})
	}
	for i := 0; i < u.Investors.Random.Count; i++ {
		add(investorName(rng), drawCash(u.Investors.Random), strategy.Random{
			TradeChance: 0.03 + rng.Float64()*0.09,
		})
	}

	player := &domain.Investor{
		ID:       uuid.New().String(),
		Name:     "You",
		Human:    true,
		Cash:     u.Investors.HumanCash,
		Lots:     make(map[string][]domain.Lot),
		Strategy: strategy.Human{},
	}
	investors = append(investors, player)

	return investors, player.ID, nil
}

var (
	investorFirst = []string{
		"Ada", "Bruno", "Clara", "Dmitri", "Elena", "Farid", "Greta", "Hiro",
		"Ines", "Jonas", "Kofi", "Lena", "Marco", "Nadia", "Omar", "Priya",
		"Quentin", "Rosa", "Sven", "Tara",
	}
	investorLast = []string{
		"Abara", "Bergstrom", "Castellanos", "Duarte", "Eriksen", "Fontaine",
		"Giordano", "Huang", "Ivanova", "Jensen", "Katz", "Lindqvist",
		"Moreau", "Nakamura", "Okafor", "Petrov", "Querol", "Rahman",
		"Sorensen", "Takahashi",
	}
)

func investorName(rng *rand.Rand) string {
	return investorFirst[rng.Intn(len(investorFirst))] + " " + investorLast[rng.Intn(len(investorLast))]
}
