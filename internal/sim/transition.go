package sim

import (
	"fmt"
	"math/rand"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/bourse/internal/corporate"
	"github.com/aristath/bourse/internal/domain"
	"github.com/aristath/bourse/internal/indicators"
	"github.com/aristath/bourse/internal/ledger"
	"github.com/aristath/bourse/internal/neural"
	"github.com/aristath/bourse/internal/news"
	"github.com/aristath/bourse/internal/strategy"
)

// DayReport summarizes one closed trading day for hosts, streams and
// tests. Everything in it is a copy or an append-only value; holding a
// report never pins live state.
type DayReport struct {
	Day         int            `json:"day"`
	IndexValue  float64        `json:"index_value"`
	ActiveEvent *news.Event    `json:"active_event,omitempty"`
	Events      []news.Event   `json:"events,omitempty"`
	Articles    []news.Article `json:"articles,omitempty"`
	Trades      int            `json:"trades"`
	Settled     int            `json:"settled"`
	Delistings  []string       `json:"delistings,omitempty"`
	TaxTaken    float64        `json:"tax_taken"`
}

// DailyTransition closes the current simulated day: settle matured
// decisions, fire the macro event, run corporate boards, move prices,
// let investors trade, then roll the books and seed tomorrow's candle.
// Step order is part of the contract; each step sees the previous one's
// mutations. Anomalies inside a step degrade to neutral behavior and a
// log line rather than failing the day.
func (e *Engine) DailyTransition(rng *rand.Rand, s *State) *DayReport {
	day := s.Day
	report := &DayReport{Day: day}

	report.Settled = e.settleLedgers(s)

	s.ActiveEvent = nil
	if day >= s.NextMacroDay {
		e.fireMacroEvent(rng, s, day, report)
		s.NextMacroDay = day + 1 + scheduleJitter(rng, e.cfg.MacroEventEvery)
	}
	report.ActiveEvent = s.ActiveEvent

	var multipliers map[string]float64
	if day >= s.NextCorporateDay {
		out := e.desk.RunDay(rng, day, s.Companies, s.IndexCloses(), s.Events, s.CorporateLedger)
		e.applyCorporateOutcome(s, day, out, report)
		multipliers = out.Multipliers
		s.NextCorporateDay = day + 1 + scheduleJitter(rng, e.cfg.CorporateEventEvery)
	}

	e.updatePrices(s, multipliers)
	report.Trades = e.tradingPass(rng, s, day)
	e.closeDay(s, day, report)

	s.Day = day + 1
	return report
}

func scheduleJitter(rng *rand.Rand, every int) int {
	if every <= 1 {
		return 0
	}
	return rng.Intn(every)
}

// settleLedgers evaluates every matured decision against today's values
// and feeds the realized outcome back into the network that decided.
// Entries are consumed exactly once whether or not training succeeds.
func (e *Engine) settleLedgers(s *State) int {
	day := s.Day

	lookup := func(entry ledger.Entry) (float64, bool) {
		if entry.Subject == "" {
			v := s.IndexValue()
			return v, v > 0
		}
		c := s.Company(entry.Subject)
		if c == nil || c.Delisted || len(c.History) == 0 {
			return 0, false
		}
		return c.Price(), true
	}

	trades, err := s.TradeLedger.Settle(day, lookup, func(entry ledger.Entry, target float64) error {
		inv := s.Investor(entry.OwnerID)
		if inv == nil {
			return nil
		}
		hyper, ok := inv.Strategy.(strategy.HyperComplex)
		if !ok || hyper.Network == nil {
			return nil
		}
		return neural.Backpropagate(hyper.Network, entry.Features, []float64{target}, hyper.LearningRate)
	})
	e.warnSettle("trades", err)

	corp, err := s.CorporateLedger.Settle(day, lookup, func(entry ledger.Entry, target float64) error {
		c := s.Company(entry.OwnerID)
		if c == nil {
			return nil
		}
		net := corporate.NetworkFor(c, corporate.Action(entry.Slot))
		if net == nil {
			return nil
		}
		return neural.Backpropagate(net, entry.Features, []float64{target}, c.Corporate.LearningRate)
	})
	e.warnSettle("corporate", err)

	picks, err := s.NewsLedger.Settle(day, lookup, func(entry ledger.Entry, target float64) error {
		if s.Picker == nil {
			return nil
		}
		return neural.TrainOutput(s.Picker, entry.Features, entry.Slot, target, e.cfg.PickerLearningRate)
	})
	e.warnSettle("news", err)

	gen := e.generator(s)
	articles, err := s.ArticleLedger.Settle(day, lookup, func(entry ledger.Entry, target float64) error {
		if len(entry.Trace) == 0 {
			return nil
		}
		var trace news.Trace
		if err := msgpack.Unmarshal(entry.Trace, &trace); err != nil {
			return fmt.Errorf("failed to decode article trace: %w", err)
		}
		return gen.ReinforceArticle(&trace, target)
	})
	e.warnSettle("articles", err)

	return trades + corp + picks + articles
}

func (e *Engine) warnSettle(ledgerName string, err error) {
	if err != nil {
		e.log.Warn().Err(err).Str("ledger", ledgerName).Msg("Settlement training reported errors")
	}
}

// fireMacroEvent lets the picker choose today's category, samples a
// concrete event, and records the choice for deferred scoring against
// the index.
func (e *Engine) fireMacroEvent(rng *rand.Rand, s *State, day int, report *DayReport) {
	features := indicators.MarketFeatures(s.IndexCloses(), s.Companies, s.Events, day)

	slot := 0
	if s.Picker != nil {
		out, err := neural.FeedForward(s.Picker, features)
		if err != nil {
			e.log.Warn().Err(err).Msg("News picker rejected its input")
		} else {
			slot = argmax(out)
		}
	}

	ev := news.SampleMacro(rng, e.cfg.Pools, news.MacroCategories[slot], day)
	ev.Featured = true
	s.ActiveEvent = &ev
	s.Events = append(s.Events, ev)
	report.Events = append(report.Events, ev)

	s.NewsLedger.Record(ledger.Entry{
		CreatedDay:     day,
		EvaluationDay:  day + e.cfg.NewsHorizon,
		ReferenceValue: indexRef(s),
		Features:       features,
		Side:           ledger.SideLong,
		Slot:           slot,
	})

	e.publishArticle(s, day, ev, report)
}

// applyCorporateOutcome folds the decision pass back into the world:
// rebase anything priced in a pre-split basis, cash out shareholders of
// delisted targets at their final price, and publish the day's
// corporate news.
func (e *Engine) applyCorporateOutcome(s *State, day int, out corporate.Outcome, report *DayReport) {
	for _, split := range out.Splits {
		rebaseEntries(s.TradeLedger, split.Symbol, split.Ratio, day)
		rebaseEntries(s.CorporateLedger, split.Symbol, split.Ratio, day)
		for _, inv := range s.Investors {
			lots := inv.Lots[split.Symbol]
			for i := range lots {
				lots[i].Shares = int(float64(lots[i].Shares) * split.Ratio)
				lots[i].PurchasePrice /= split.Ratio
			}
		}
	}

	for _, d := range out.Delistings {
		for _, inv := range s.Investors {
			if shares := inv.SharesOf(d.Symbol); shares > 0 {
				inv.Sell(d.Symbol, shares, d.FinalPrice, day, e.cfg.LongTermDays)
			}
		}
		report.Delistings = append(report.Delistings, d.Symbol)
	}

	for _, ev := range out.Events {
		s.Events = append(s.Events, ev)
		report.Events = append(report.Events, ev)
		e.publishArticle(s, day, ev, report)
	}
}

// rebaseEntries rescales pending references on a symbol after a split so
// matured returns compare like with like. Entries recorded today already
// carry the post-split basis.
func rebaseEntries(l *ledger.Ledger, symbol string, ratio float64, day int) {
	for i := range l.Entries {
		entry := &l.Entries[i]
		if entry.Subject == symbol && entry.CreatedDay < day {
			entry.ReferenceValue /= ratio
		}
	}
}

// publishArticle renders one event into a story and records its trace
// for deferred tone reinforcement.
func (e *Engine) publishArticle(s *State, day int, ev news.Event, report *DayReport) {
	name := ""
	if c := s.Company(ev.Symbol); c != nil {
		name = c.Name
	}

	article, trace, err := e.generator(s).Generate(ev, news.MarketView{
		Day:         day,
		IndexValue:  s.IndexValue(),
		CompanyName: name,
	})
	if err != nil {
		e.log.Warn().Err(err).Str("headline", ev.Headline).Msg("Article generation failed")
		return
	}

	s.Articles = append(s.Articles, article)
	report.Articles = append(report.Articles, article)

	if trace == nil {
		return
	}
	raw, err := msgpack.Marshal(trace)
	if err != nil {
		e.log.Warn().Err(err).Msg("Failed to encode article trace")
		return
	}
	s.ArticleLedger.Record(ledger.Entry{
		CreatedDay:     day,
		EvaluationDay:  day + e.cfg.ArticleHorizon,
		ReferenceValue: indexRef(s),
		Side:           ledger.SideLong,
		Trace:          raw,
	})
}

// updatePrices applies the day's multiplicative forces to every active
// company: sector tax drag, inflation, the active event, and same-day
// corporate bumps, in that order, clamped to the price floor.
func (e *Engine) updatePrices(s *State, multipliers map[string]float64) {
	for _, c := range s.Companies {
		if c.Delisted || len(c.History) < 2 {
			continue
		}

		factor := (1 - e.cfg.SectorTax[c.Sector]) * (1 + e.cfg.Inflation)
		if s.ActiveEvent != nil {
			factor *= s.ActiveEvent.PriceFactor(c, e.cfg.SpilloverDamping)
		}
		if m, ok := multipliers[c.Symbol]; ok {
			factor *= m
		}

		p := c.Last()
		p.Close *= factor
		if p.Close > p.High {
			p.High = p.Close
		}
		if p.Close < p.Low {
			p.Low = p.Close
		}
		p.Clamp(e.cfg.PriceFloor)
	}
}

// tradingPass runs every AI investor against every active company.
// Features are computed once per company and shared across the whole
// population; executed trades accumulate volume and, for learning
// strategies, a deferred ledger entry.
func (e *Engine) tradingPass(rng *rand.Rand, s *State, day int) int {
	type readout struct {
		named  map[string]float64
		vector []float64
		price  float64
	}

	active := make([]*domain.Company, 0, len(s.Companies))
	readouts := make(map[string]readout, len(s.Companies))
	for _, c := range s.Companies {
		if c.Delisted || len(c.History) < 2 {
			continue
		}
		ctx := indicators.BuildContext(c, s.Companies, s.Events)
		named := indicators.Compute(c, ctx)
		readouts[c.Symbol] = readout{
			named:  named,
			vector: indicators.Vector(named, indicators.InvestorFeatures),
			price:  c.Price(),
		}
		active = append(active, c)
	}

	trades := 0
	for _, inv := range s.Investors {
		if inv.Human {
			continue
		}
		random := inv.Strategy.Kind() == strategy.KindRandom
		_, learns := inv.Strategy.(strategy.HyperComplex)

		for _, c := range active {
			r := readouts[c.Symbol]
			held := inv.SharesOf(c.Symbol)

			sig, err := strategy.Evaluate(inv.Strategy, r.named, r.vector, held, rng)
			if err != nil {
				e.log.Debug().Err(err).Str("investor", inv.Name).Msg("Strategy evaluation failed")
				continue
			}

			switch sig.Action {
			case strategy.Buy:
				qty := strategy.BuyQuantity(inv.Cash, r.price)
				if random {
					qty = strategy.RandomBuyQuantity(inv.Cash, r.price, rng)
				}
				if qty <= 0 || !inv.Buy(c.Symbol, qty, r.price, day, r.vector) {
					continue
				}
				s.addVolume(c.Symbol, qty)
				trades++
				if learns {
					s.TradeLedger.Record(ledger.Entry{
						CreatedDay:     day,
						EvaluationDay:  day + e.cfg.TradeHorizon,
						ReferenceValue: r.price,
						Features:       r.vector,
						Side:           ledger.SideBuy,
						OwnerID:        inv.ID,
						Subject:        c.Symbol,
					})
				}

			case strategy.Sell:
				qty := strategy.SellQuantity(held)
				if random {
					qty = strategy.RandomSellQuantity(held, rng)
				}
				if qty <= 0 || !inv.Sell(c.Symbol, qty, r.price, day, e.cfg.LongTermDays) {
					continue
				}
				s.addVolume(c.Symbol, qty)
				trades++
				if learns {
					s.TradeLedger.Record(ledger.Entry{
						CreatedDay:     day,
						EvaluationDay:  day + e.cfg.TradeHorizon,
						ReferenceValue: r.price,
						Features:       r.vector,
						Side:           ledger.SideSell,
						OwnerID:        inv.ID,
						Subject:        c.Symbol,
					})
				}
			}
		}
	}
	return trades
}

// closeDay finalizes the books: roll traded volume into the candles,
// snapshot portfolio valuations, append the index candle, settle annual
// tax on schedule, seed tomorrow's candle from today's close, and trim
// every bounded history.
func (e *Engine) closeDay(s *State, day int, report *DayReport) {
	for _, c := range s.Companies {
		if c.Delisted || len(c.History) == 0 {
			continue
		}
		c.Last().Volume += s.DailyVolume[c.Symbol]
	}
	s.DailyVolume = make(map[string]int64)

	if candle, ok := indexCandle(s, day); ok {
		s.Index = append(s.Index, candle)
		report.IndexValue = candle.Close
	} else {
		report.IndexValue = s.IndexValue()
	}

	for _, inv := range s.Investors {
		value := inv.Cash + inv.PortfolioValue(s.priceOf)
		inv.Valuations = append(inv.Valuations, domain.ValuationPoint{Day: day, Value: value})
		inv.Valuations = domain.TrimValuations(inv.Valuations, e.cfg.ValuationWindow)
	}

	if e.cfg.TaxEveryDays > 0 && day > 0 && day%e.cfg.TaxEveryDays == 0 {
		for _, inv := range s.Investors {
			report.TaxTaken += inv.SettleAnnualTax(e.cfg.TaxRate, e.cfg.TaxExemption)
		}
	}

	for _, c := range s.Companies {
		if c.Delisted || len(c.History) == 0 {
			continue
		}
		last := c.Last().Close
		c.History = append(c.History, domain.PricePoint{
			Day: day + 1, Open: last, High: last, Low: last, Close: last,
		})
		c.History = domain.TrimHistory(c.History, e.cfg.HistoryWindow)
	}
	s.Index = domain.TrimHistory(s.Index, e.cfg.HistoryWindow)
	s.Events = news.TrimEvents(s.Events, e.cfg.EventWindow)
	if n := len(s.Articles) - e.cfg.ArticleWindow; n > 0 && e.cfg.ArticleWindow > 0 {
		trimmed := make([]news.Article, e.cfg.ArticleWindow)
		copy(trimmed, s.Articles[n:])
		s.Articles = trimmed
	}
}

// indexCandle averages today's OHLCV across active companies, rebased
// to the index base.
func indexCandle(s *State, day int) (domain.PricePoint, bool) {
	var sum domain.PricePoint
	count := 0
	for _, c := range s.Companies {
		if c.Delisted || len(c.History) == 0 {
			continue
		}
		p := *c.Last()
		sum.Open += p.Open
		sum.High += p.High
		sum.Low += p.Low
		sum.Close += p.Close
		sum.Volume += p.Volume
		count++
	}
	if count == 0 {
		return domain.PricePoint{}, false
	}

	n := float64(count)
	scale := s.indexScale()
	return domain.PricePoint{
		Day:    day,
		Open:   sum.Open / n * scale,
		High:   sum.High / n * scale,
		Low:    sum.Low / n * scale,
		Close:  sum.Close / n * scale,
		Volume: sum.Volume,
	}, true
}

// indexRef is the stable pre-update reference the news and article
// ledgers record against: the last closed index candle.
func indexRef(s *State) float64 {
	if len(s.Index) > 0 {
		return s.Index[len(s.Index)-1].Close
	}
	return s.IndexValue()
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
