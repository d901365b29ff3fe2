package indicators

import (
	"github.com/aristath/bourse/internal/domain"
	"github.com/aristath/bourse/internal/news"
)

// MarketFeatureNames is the ordered input contract of the news picker
// network.
var MarketFeatureNames = []string{
	"index_momentum_50d",
	"index_momentum_200d",
	"market_mean_atr",
	"market_mean_pe",
	"positive_event_ratio_30d",
}

// MarketFeatures computes the market-level vector the news picker reads:
// index momentum over 50 and 200 days, mean ATR and mean P/E across
// active companies, and the share of positive events over the last 30
// days. Missing pieces read neutral.
func MarketFeatures(indexCloses []float64, companies []*domain.Company, events []news.Event, day int) []float64 {
	m50 := Momentum(indexCloses, 50)
	m200 := Momentum(indexCloses, 200)

	var atrSum, peSum float64
	var atrCount, peCount int
	for _, c := range companies {
		if c.Delisted {
			continue
		}
		closes := domain.Closes(c.History)
		if atr, ok := normalizedATR(closes, 14); ok {
			atrSum += atr
			atrCount++
		}
		if pe := c.PERatio(); pe > 0 {
			peSum += pe
			peCount++
		}
	}

	meanATR := 0.0
	if atrCount > 0 {
		meanATR = atrSum / float64(atrCount)
	}
	meanPE := 0.0
	if peCount > 0 {
		// P/E sits in the tens; scale it into the same range as the
		// other features.
		meanPE = peSum / float64(peCount) / 100
	}

	return []float64{m50, m200, meanATR, meanPE, positiveEventRatio(events, day, 30)}
}

// positiveEventRatio is the share of positive events in the window.
// No events reads neutral 0.5.
func positiveEventRatio(events []news.Event, day, window int) float64 {
	total, positive := 0, 0
	for _, ev := range events {
		if ev.Day < day-window || ev.Day > day {
			continue
		}
		total++
		if ev.Kind == news.KindPositive {
			positive++
		}
	}
	if total == 0 {
		return 0.5
	}
	return float64(positive) / float64(total)
}

// PeerAverageCloses equal-weights the close series of peers, aligned on
// the most recent day. Shorter series contribute only on the days they
// cover, so a freshly listed peer never zeroes out the aggregate.
func PeerAverageCloses(peers [][]float64) []float64 {
	maxLen := 0
	for _, p := range peers {
		if len(p) > maxLen {
			maxLen = len(p)
		}
	}
	if maxLen == 0 {
		return nil
	}

	out := make([]float64, maxLen)
	for back := 0; back < maxLen; back++ {
		var sum float64
		var count int
		for _, p := range peers {
			if len(p) > back {
				sum += p[len(p)-1-back]
				count++
			}
		}
		if count > 0 {
			out[maxLen-1-back] = sum / float64(count)
		}
	}
	return out
}

// BuildContext assembles the sibling aggregates for one company: sector
// and region peer averages over active companies (excluding the company
// itself) and the shared event history.
func BuildContext(self *domain.Company, companies []*domain.Company, events []news.Event) Context {
	var sectorPeers, regionPeers [][]float64
	for _, c := range companies {
		if c.Delisted || c.Symbol == self.Symbol {
			continue
		}
		closes := domain.Closes(c.History)
		if len(closes) == 0 {
			continue
		}
		if c.Sector == self.Sector {
			sectorPeers = append(sectorPeers, closes)
		}
		if c.Region == self.Region {
			regionPeers = append(regionPeers, closes)
		}
	}

	return Context{
		SectorCloses: PeerAverageCloses(sectorPeers),
		RegionCloses: PeerAverageCloses(regionPeers),
		Events:       events,
	}
}
