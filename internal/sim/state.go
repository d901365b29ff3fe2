// Package sim owns the simulation aggregate: the world state, the daily
// transition that moves it forward one trading day, and the time
// advancer that diffuses prices between day boundaries. The engine is
// single-threaded by contract; hosts serialize every call that touches
// a State.
package sim

import (
	"time"

	"github.com/aristath/bourse/internal/domain"
	"github.com/aristath/bourse/internal/ledger"
	"github.com/aristath/bourse/internal/neural"
	"github.com/aristath/bourse/internal/news"
)

// State is the aggregate root: everything that evolves day to day and
// everything a snapshot must carry to resume exactly where it stopped,
// including every network's weights. Plain serializable data; the
// random stream is injected per call and never stored here.
type State struct {
	Day   int       `msgpack:"day"`
	Clock time.Time `msgpack:"clock"`

	Companies []*domain.Company  `msgpack:"companies"`
	Investors []*domain.Investor `msgpack:"investors"`
	PlayerID  string             `msgpack:"player_id"`

	Index []domain.PricePoint `msgpack:"index"`
	// IndexScale rebases the raw equal-weighted mean close onto the
	// universe's index base, fixed at initialization.
	IndexScale float64        `msgpack:"index_scale"`
	Events     []news.Event   `msgpack:"events"`
	Articles   []news.Article `msgpack:"articles"`

	// ActiveEvent is today's featured macro event, the one moving
	// prices in the price pass. Nil on quiet days.
	ActiveEvent *news.Event `msgpack:"active_event"`

	Picker      *neural.Network `msgpack:"picker"`
	ArticleTone *neural.Network `msgpack:"article_tone"`

	TradeLedger     *ledger.Ledger `msgpack:"trade_ledger"`
	CorporateLedger *ledger.Ledger `msgpack:"corporate_ledger"`
	NewsLedger      *ledger.Ledger `msgpack:"news_ledger"`
	ArticleLedger   *ledger.Ledger `msgpack:"article_ledger"`

	NextMacroDay     int `msgpack:"next_macro_day"`
	NextCorporateDay int `msgpack:"next_corporate_day"`

	// DailyVolume accumulates executed trade shares per symbol until
	// the day close rolls them into the candle.
	DailyVolume map[string]int64 `msgpack:"daily_volume"`
}

// Company finds a listing by symbol, delisted ones included.
func (s *State) Company(symbol string) *domain.Company {
	for _, c := range s.Companies {
		if c.Symbol == symbol {
			return c
		}
	}
	return nil
}

// Investor finds a portfolio by id.
func (s *State) Investor(id string) *domain.Investor {
	for _, inv := range s.Investors {
		if inv.ID == id {
			return inv
		}
	}
	return nil
}

// Player returns the human investor.
func (s *State) Player() *domain.Investor {
	return s.Investor(s.PlayerID)
}

// ActiveCompanies returns the listed companies still trading.
func (s *State) ActiveCompanies() []*domain.Company {
	active := make([]*domain.Company, 0, len(s.Companies))
	for _, c := range s.Companies {
		if !c.Delisted {
			active = append(active, c)
		}
	}
	return active
}

// IndexValue is the live equal-weighted mean close of active companies,
// rebased to the index base, falling back to the last closed index
// point when nothing trades.
func (s *State) IndexValue() float64 {
	sum, count := 0.0, 0
	for _, c := range s.Companies {
		if c.Delisted || len(c.History) == 0 {
			continue
		}
		sum += c.Price()
		count++
	}
	if count == 0 {
		if len(s.Index) > 0 {
			return s.Index[len(s.Index)-1].Close
		}
		return 0
	}
	return sum / float64(count) * s.indexScale()
}

func (s *State) indexScale() float64 {
	if s.IndexScale <= 0 {
		return 1
	}
	return s.IndexScale
}

// IndexCloses extracts the closed index series, oldest first.
func (s *State) IndexCloses() []float64 {
	return domain.Closes(s.Index)
}

// priceOf is the lookup portfolio valuation uses: active companies only.
func (s *State) priceOf(symbol string) (float64, bool) {
	c := s.Company(symbol)
	if c == nil || c.Delisted || len(c.History) == 0 {
		return 0, false
	}
	return c.Price(), true
}

// addVolume accumulates executed shares for the day close.
func (s *State) addVolume(symbol string, shares int) {
	if s.DailyVolume == nil {
		s.DailyVolume = make(map[string]int64)
	}
	s.DailyVolume[symbol] += int64(shares)
}
