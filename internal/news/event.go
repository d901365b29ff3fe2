// Package news owns the simulation's market events: the macro and
// corporate happenings that move prices, the category pools they are
// sampled from, and the articles written about them.
package news

import (
	"github.com/aristath/bourse/internal/domain"
)

// Origin distinguishes market-wide events from company-driven ones.
type Origin string

const (
	OriginMacro     Origin = "macro"
	OriginCorporate Origin = "corporate"
)

// Kind classifies an event. Macro categories are the kinds the news
// picker chooses between; the corporate kinds are produced by company
// boards.
type Kind string

const (
	KindPositive  Kind = "positive"
	KindNegative  Kind = "negative"
	KindNeutral   Kind = "neutral"
	KindPolitical Kind = "political"
	KindDisaster  Kind = "disaster"
	KindSplit     Kind = "split"
	KindAlliance  Kind = "alliance"
	KindMerger    Kind = "merger"
)

// MacroCategories is the ordered category set the news picker scores.
// The order is part of the picker network's output contract.
var MacroCategories = []Kind{KindPositive, KindNegative, KindNeutral, KindPolitical, KindDisaster}

// CategoryIndex returns the picker output slot for a macro kind,
// or -1 when the kind is not a macro category.
func CategoryIndex(k Kind) int {
	for i, c := range MacroCategories {
		if c == k {
			return i
		}
	}
	return -1
}

// Event is one market happening. Impact is a price multiplier (1.0 means
// no effect); Impacts optionally overrides it per region. Symbol, Sector
// and Region scope which companies take the impact directly; everyone
// else gets a damped spillover.
type Event struct {
	Day      int                       `json:"day" msgpack:"day"`
	Kind     Kind                      `json:"kind" msgpack:"kind"`
	Origin   Origin                    `json:"origin" msgpack:"origin"`
	Symbol   string                    `json:"symbol,omitempty" msgpack:"symbol"`
	Sector   domain.Sector             `json:"sector,omitempty" msgpack:"sector"`
	Region   domain.Region             `json:"region,omitempty" msgpack:"region"`
	Impact   float64                   `json:"impact" msgpack:"impact"`
	Impacts  map[domain.Region]float64 `json:"impacts,omitempty" msgpack:"impacts"`
	Headline string                    `json:"headline" msgpack:"headline"`
	Featured bool                      `json:"featured" msgpack:"featured"`
}

// Sentiment maps the event kind onto the scale the indicator features
// use: +1 good, -1 bad, +0.5 structural corporate news, 0 otherwise.
func (e *Event) Sentiment() float64 {
	switch e.Kind {
	case KindPositive:
		return 1
	case KindNegative, KindDisaster:
		return -1
	case KindSplit, KindAlliance, KindMerger:
		return 0.5
	default:
		return 0
	}
}

// MeanImpact averages the per-region factors, falling back to the scalar
// impact. 1.0 means the event does not move prices.
func (e *Event) MeanImpact() float64 {
	if len(e.Impacts) == 0 {
		if e.Impact == 0 {
			return 1
		}
		return e.Impact
	}
	sum := 0.0
	for _, f := range e.Impacts {
		sum += f
	}
	return sum / float64(len(e.Impacts))
}

// ImpactFor resolves the impact factor for one region. Regions without
// an explicit factor read the scalar impact; a zero scalar reads 1.0.
func (e *Event) ImpactFor(region domain.Region) float64 {
	if f, ok := e.Impacts[region]; ok {
		return f
	}
	if e.Impact == 0 {
		return 1
	}
	return e.Impact
}

// Touches reports whether the event names this company, its sector or
// its region directly.
func (e *Event) Touches(c *domain.Company) bool {
	if e.Symbol != "" && e.Symbol == c.Symbol {
		return true
	}
	if e.Sector != "" && e.Sector == c.Sector {
		return true
	}
	if e.Region != "" && e.Region == c.Region {
		return true
	}
	if _, ok := e.Impacts[c.Region]; ok {
		return true
	}
	return false
}

// IsMacro reports whether the event came from the macro generator.
func (e *Event) IsMacro() bool {
	return e.Origin == OriginMacro
}

// scoped reports whether the event singles anything out. An unscoped
// event is market-wide news that hits every company directly.
func (e *Event) scoped() bool {
	return e.Symbol != "" || e.Sector != "" || e.Region != "" || len(e.Impacts) > 0
}

// PriceFactor resolves the multiplicative price effect on one company:
// the direct factor when the event is market-wide or names the company's
// scope, a damped spillover fraction of it otherwise.
func (e *Event) PriceFactor(c *domain.Company, damping float64) float64 {
	f := e.ImpactFor(c.Region)
	if !e.scoped() || e.Touches(c) {
		return f
	}
	return 1 + (f-1)*damping
}

// TrimEvents drops the oldest events beyond the window.
func TrimEvents(events []Event, window int) []Event {
	if window <= 0 || len(events) <= window {
		return events
	}
	trimmed := make([]Event, window)
	copy(trimmed, events[len(events)-window:])
	return trimmed
}
