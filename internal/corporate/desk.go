package corporate

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/aristath/bourse/internal/domain"
	"github.com/aristath/bourse/internal/indicators"
	"github.com/aristath/bourse/internal/ledger"
	"github.com/aristath/bourse/internal/neural"
	"github.com/aristath/bourse/internal/news"
)

// Split reports a share split executed today, so pending ledger entries
// on the symbol can be rebased to the new price basis.
type Split struct {
	Symbol string
	Ratio  float64
}

// Delisting reports a company taken off the board today. FinalPrice is
// the premium close its remaining shareholders are paid out at.
type Delisting struct {
	Symbol     string
	FinalPrice float64
}

// Outcome is everything one decision pass hands back to the daily
// transition: the news it generated, same-day price multipliers to
// apply in the price pass, and the structural changes the rest of the
// day must account for.
type Outcome struct {
	Events      []news.Event
	Multipliers map[string]float64
	Splits      []Split
	Delistings  []Delisting
}

// Desk runs the corporate decision pass.
type Desk struct {
	cfg Config
	log zerolog.Logger
}

// NewDesk builds a decision pass with the given tuning.
func NewDesk(cfg Config, log zerolog.Logger) *Desk {
	return &Desk{
		cfg: cfg,
		log: log.With().Str("component", "corporate").Logger(),
	}
}

// RunDay scores every active company's three decision networks and
// executes at most one action per company. Executed actions are recorded
// in the corporate ledger against the company's close so the acting
// network trains on the realized move a few days later.
func (d *Desk) RunDay(rng *rand.Rand, day int, companies []*domain.Company, indexCloses []float64, events []news.Event, book *ledger.Ledger) Outcome {
	out := Outcome{Multipliers: make(map[string]float64)}

	for _, c := range companies {
		if c.Delisted || len(c.History) < 2 {
			continue
		}
		if day < c.Corporate.CooldownUntil {
			continue
		}

		ctx := indicators.BuildContext(c, companies, events)
		features := Features(c, indexCloses, ctx)
		action, score, fired := d.decide(c, features)
		if !fired {
			if rng.Float64() < d.cfg.CosmeticChance {
				out.Events = append(out.Events, news.Cosmetic(rng, c, day))
			}
			continue
		}

		executed := false
		switch action {
		case ActionSplit:
			executed = d.executeSplit(rng, day, c, &out)
		case ActionAlliance:
			executed = d.executeAlliance(rng, day, c, companies, &out)
		case ActionAcquisition:
			executed = d.executeAcquisition(rng, day, c, companies, &out)
		}
		if !executed {
			continue
		}

		c.Corporate.CooldownUntil = day + d.cfg.CooldownDays
		book.Record(ledger.Entry{
			CreatedDay:     day,
			EvaluationDay:  day + d.cfg.Horizon,
			ReferenceValue: c.Price(),
			Features:       features,
			Side:           ledger.SideLong,
			OwnerID:        c.Symbol,
			Subject:        c.Symbol,
			Slot:           int(action),
		})

		d.log.Info().
			Str("symbol", c.Symbol).
			Str("action", action.String()).
			Float64("score", score).
			Int("day", day).
			Msg("Corporate action executed")
	}

	return out
}

// decide scores the three networks in priority order and returns the
// first conviction past its threshold.
func (d *Desk) decide(c *domain.Company, features []float64) (Action, float64, bool) {
	candidates := []struct {
		action    Action
		threshold float64
	}{
		{ActionSplit, d.cfg.SplitThreshold},
		{ActionAlliance, d.cfg.AllianceThreshold},
		{ActionAcquisition, d.cfg.AcquisitionThreshold},
	}

	for _, cand := range candidates {
		net := NetworkFor(c, cand.action)
		if net == nil {
			continue
		}
		out, err := neuralScore(net, features)
		if err != nil {
			d.log.Warn().Err(err).
				Str("symbol", c.Symbol).
				Str("action", cand.action.String()).
				Msg("Decision network rejected its input")
			continue
		}
		if out > cand.threshold {
			return cand.action, out, true
		}
	}
	return 0, 0, false
}

// executeSplit rescales the company in place. The split itself is price
// neutral: market cap is conserved, so the event carries no impact.
func (d *Desk) executeSplit(_ *rand.Rand, day int, c *domain.Company, out *Outcome) bool {
	ratio := splitRatio(c.Price())
	c.ApplySplit(ratio)

	out.Splits = append(out.Splits, Split{Symbol: c.Symbol, Ratio: ratio})
	out.Events = append(out.Events, corporateEvent(day, news.KindSplit, c, 1,
		fmt.Sprintf("%s announces %.0f-for-1 stock split", c.Name, ratio)))
	return true
}

// executeAlliance bumps both participants through the price pass. Needs
// a living peer; with nobody to ally with, the decision lapses.
func (d *Desk) executeAlliance(rng *rand.Rand, day int, c *domain.Company, companies []*domain.Company, out *Outcome) bool {
	partner := pickPartner(rng, c, companies)
	if partner == nil {
		return false
	}

	factor := 1.01 + rng.Float64()*0.05
	applyMultiplier(out.Multipliers, c.Symbol, factor)
	applyMultiplier(out.Multipliers, partner.Symbol, factor)
	partner.Corporate.CooldownUntil = day + d.cfg.CooldownDays

	out.Events = append(out.Events, corporateEvent(day, news.KindAlliance, c, factor,
		fmt.Sprintf("%s and %s announce strategic alliance", c.Name, partner.Name)))
	return true
}

// executeAcquisition pays the target a takeover premium on its final
// close, delists it, and bumps the acquirer. The target's shareholders
// are cashed out by the daily transition at the reported final price.
func (d *Desk) executeAcquisition(rng *rand.Rand, day int, c *domain.Company, companies []*domain.Company, out *Outcome) bool {
	target := pickTarget(rng, c, companies)
	if target == nil {
		return false
	}

	premium := 1.15 + rng.Float64()*0.20
	last := target.Last()
	last.Close *= premium
	last.Clamp(d.cfg.PriceFloor)
	target.Delisted = true

	factor := 1.02 + rng.Float64()*0.06
	applyMultiplier(out.Multipliers, c.Symbol, factor)

	out.Delistings = append(out.Delistings, Delisting{
		Symbol:     target.Symbol,
		FinalPrice: target.Price(),
	})
	out.Events = append(out.Events, corporateEvent(day, news.KindMerger, c, factor,
		fmt.Sprintf("%s to acquire %s at a premium", c.Name, target.Name)))
	return true
}

// splitRatio scales with how far the price has run.
func splitRatio(price float64) float64 {
	switch {
	case price >= 1000:
		return 4
	case price >= 500:
		return 3
	default:
		return 2
	}
}

// pickPartner chooses a random active peer, preferring the same sector.
func pickPartner(rng *rand.Rand, c *domain.Company, companies []*domain.Company) *domain.Company {
	var sameSector, others []*domain.Company
	for _, peer := range companies {
		if peer.Delisted || peer.Symbol == c.Symbol || len(peer.History) == 0 {
			continue
		}
		if peer.Sector == c.Sector {
			sameSector = append(sameSector, peer)
		} else {
			others = append(others, peer)
		}
	}
	if len(sameSector) > 0 {
		return sameSector[rng.Intn(len(sameSector))]
	}
	if len(others) > 0 {
		return others[rng.Intn(len(others))]
	}
	return nil
}

// pickTarget chooses a random active company with a strictly smaller
// market cap, preferring the same sector. A company never swallows a
// bigger one.
func pickTarget(rng *rand.Rand, c *domain.Company, companies []*domain.Company) *domain.Company {
	ownCap := c.MarketCap()
	var sameSector, others []*domain.Company
	for _, peer := range companies {
		if peer.Delisted || peer.Symbol == c.Symbol || len(peer.History) == 0 {
			continue
		}
		if peer.MarketCap() >= ownCap {
			continue
		}
		if peer.Sector == c.Sector {
			sameSector = append(sameSector, peer)
		} else {
			others = append(others, peer)
		}
	}
	if len(sameSector) > 0 {
		return sameSector[rng.Intn(len(sameSector))]
	}
	if len(others) > 0 {
		return others[rng.Intn(len(others))]
	}
	return nil
}

func corporateEvent(day int, kind news.Kind, c *domain.Company, impact float64, headline string) news.Event {
	return news.Event{
		Day:      day,
		Kind:     kind,
		Origin:   news.OriginCorporate,
		Symbol:   c.Symbol,
		Sector:   c.Sector,
		Region:   c.Region,
		Impact:   impact,
		Headline: headline,
		Featured: impact >= 1.05 || impact <= 0.95,
	}
}

func applyMultiplier(multipliers map[string]float64, symbol string, factor float64) {
	current, ok := multipliers[symbol]
	if !ok {
		current = 1
	}
	multipliers[symbol] = current * factor
}

// neuralScore runs a single-output decision network.
func neuralScore(net *neural.Network, features []float64) (float64, error) {
	out, err := neural.FeedForward(net, features)
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("decision network produced no output")
	}
	return out[0], nil
}
