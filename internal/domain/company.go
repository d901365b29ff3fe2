package domain

import (
	"github.com/aristath/bourse/internal/neural"
)

// CorporateState holds the decision networks a company uses to choose
// corporate actions. Each action type gets its own independent network so
// a learned appetite for splits never bleeds into acquisition behavior.
type CorporateState struct {
	SplitNet       *neural.Network `msgpack:"split_net"`
	AllianceNet    *neural.Network `msgpack:"alliance_net"`
	AcquisitionNet *neural.Network `msgpack:"acquisition_net"`
	LearningRate   float64         `msgpack:"learning_rate"`
	CooldownUntil  int             `msgpack:"cooldown_until"`
}

// Company is a listed entity with a bounded daily price history.
// Mutated only by the daily transition; delisting is terminal.
type Company struct {
	Symbol            string         `json:"symbol" msgpack:"symbol"`
	Name              string         `json:"name" msgpack:"name"`
	Sector            Sector         `json:"sector" msgpack:"sector"`
	Region            Region         `json:"region" msgpack:"region"`
	SharesOutstanding int64          `json:"shares_outstanding" msgpack:"shares_outstanding"`
	EPS               float64        `json:"eps" msgpack:"eps"`
	Volatility        float64        `json:"volatility" msgpack:"volatility"`
	Delisted          bool           `json:"delisted" msgpack:"delisted"`
	History           []PricePoint   `json:"-" msgpack:"history"`
	Corporate         CorporateState `json:"-" msgpack:"corporate"`
}

// Price returns the current close, or 0 when there is no history yet.
func (c *Company) Price() float64 {
	if len(c.History) == 0 {
		return 0
	}
	return c.History[len(c.History)-1].Close
}

// Last returns a pointer to the newest price point, or nil when empty.
func (c *Company) Last() *PricePoint {
	if len(c.History) == 0 {
		return nil
	}
	return &c.History[len(c.History)-1]
}

// AllTimeHigh returns the highest close in the retained history.
func (c *Company) AllTimeHigh() float64 {
	high := 0.0
	for _, p := range c.History {
		if p.Close > high {
			high = p.Close
		}
	}
	return high
}

// RangePosition returns where the current price sits inside the
// lookback high/low range: 0 at the low, 1 at the high, 0.5 when the
// range is degenerate.
func (c *Company) RangePosition(lookback int) float64 {
	if len(c.History) == 0 {
		return 0.5
	}
	start := len(c.History) - lookback
	if start < 0 {
		start = 0
	}
	low, high := c.History[start].Close, c.History[start].Close
	for _, p := range c.History[start:] {
		if p.Close < low {
			low = p.Close
		}
		if p.Close > high {
			high = p.Close
		}
	}
	if high <= low {
		return 0.5
	}
	return (c.Price() - low) / (high - low)
}

// PERatio returns price over EPS, or 0 when EPS is not positive.
func (c *Company) PERatio() float64 {
	if c.EPS <= 0 {
		return 0
	}
	return c.Price() / c.EPS
}

// ApplySplit multiplies shares outstanding by the ratio and divides the
// entire price history and EPS by it, preserving market cap exactly.
func (c *Company) ApplySplit(ratio float64) {
	if ratio <= 1 {
		return
	}
	c.SharesOutstanding = int64(float64(c.SharesOutstanding) * ratio)
	c.EPS /= ratio
	for i := range c.History {
		c.History[i].Open /= ratio
		c.History[i].High /= ratio
		c.History[i].Low /= ratio
		c.History[i].Close /= ratio
	}
}

// MarketCap returns price times shares outstanding.
func (c *Company) MarketCap() float64 {
	return c.Price() * float64(c.SharesOutstanding)
}
