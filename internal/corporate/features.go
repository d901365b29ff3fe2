package corporate

import (
	"math"

	"github.com/aristath/bourse/internal/domain"
	"github.com/aristath/bourse/internal/indicators"
)

// FeatureNames is the ordered input contract of every corporate decision
// network.
var FeatureNames = []string{
	"momentum_20d",
	"atr_14",
	"price_vs_high",
	"market_momentum_50d",
	"sector_momentum_50d",
	"region_momentum_50d",
	"opportunity",
	"event_sentiment",
	"event_impact",
	"event_macro",
	"event_corporate",
}

// Features builds the decision vector for one company: its own trend and
// volatility, where it sits against its all-time high, how the market
// and its peers are moving, a deal-opportunity score, and the latest
// event. Missing pieces read zero.
func Features(c *domain.Company, indexCloses []float64, ctx indicators.Context) []float64 {
	closes := domain.Closes(c.History)
	atr := indicators.NormalizedATR(closes, 14)

	priceVsHigh := 0.0
	if ath := c.AllTimeHigh(); ath > 0 {
		priceVsHigh = c.Price()/ath - 1
	}

	vector := []float64{
		indicators.Momentum(closes, 20),
		atr,
		priceVsHigh,
		indicators.Momentum(indexCloses, 50),
		indicators.Momentum(ctx.SectorCloses, 50),
		indicators.Momentum(ctx.RegionCloses, 50),
		opportunity(c, atr),
	}

	event := [4]float64{}
	if len(ctx.Events) > 0 {
		latest := ctx.Events[len(ctx.Events)-1]
		event[0] = latest.Sentiment()
		event[1] = math.Abs(latest.MeanImpact()-1) * 10
		if latest.IsMacro() {
			event[2] = 1
		} else {
			event[3] = 1
		}
	}
	return append(vector, event[:]...)
}

// opportunity blends how cheap the stock sits in its 52-week range with
// how much it moves day to day. A beaten-down volatile name scores high;
// a stable name at its high scores near zero.
func opportunity(c *domain.Company, atr float64) float64 {
	cheapness := 1 - c.RangePosition(252)
	volatility := math.Min(atr*20, 1)
	return 0.6*cheapness + 0.4*volatility
}
