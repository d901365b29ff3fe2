package sim

import (
	"math"
	"math/rand"
	"time"
)

// maxDiffusionStep bounds how much simulated time one diffusion chunk
// covers. Smaller chunks keep the random walk smooth when a host asks
// for a large jump at once.
const maxDiffusionStep = 6 * time.Hour

// Advance moves simulated time forward by d, diffusing intraday prices
// as it goes and closing a trading day at every UTC midnight the clock
// crosses. Returns one report per closed day, oldest first. A
// non-positive duration is a no-op.
func (e *Engine) Advance(rng *rand.Rand, s *State, d time.Duration) []*DayReport {
	if d <= 0 {
		return nil
	}

	var reports []*DayReport
	remaining := d
	for remaining > 0 {
		chunk := remaining
		if chunk > maxDiffusionStep {
			chunk = maxDiffusionStep
		}

		boundary := nextMidnight(s.Clock)
		untilBoundary := boundary.Sub(s.Clock)
		crossing := chunk >= untilBoundary
		if crossing {
			chunk = untilBoundary
		}

		e.diffuse(rng, s, chunk)
		s.Clock = s.Clock.Add(chunk)
		remaining -= chunk

		if crossing {
			reports = append(reports, e.DailyTransition(rng, s))
		}
	}
	return reports
}

// diffuse applies one random-walk step to every active company's live
// candle. Step size scales with each company's volatility and the
// square root of the covered fraction of a day, so two half-day steps
// wander as far as one full-day step in expectation.
func (e *Engine) diffuse(rng *rand.Rand, s *State, d time.Duration) {
	frac := math.Sqrt(d.Seconds() / (24 * time.Hour).Seconds())
	for _, c := range s.Companies {
		if c.Delisted || len(c.History) == 0 {
			continue
		}
		p := c.Last()
		p.Close *= 1 + rng.NormFloat64()*c.Volatility*frac
		if p.Close > p.High {
			p.High = p.Close
		}
		if p.Close < p.Low {
			p.Low = p.Close
		}
		p.Clamp(e.cfg.PriceFloor)
	}
}

// nextMidnight returns the first UTC midnight strictly after t.
func nextMidnight(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}
