package indicators

import (
	"math"

	"github.com/aristath/bourse/internal/domain"
	"github.com/aristath/bourse/internal/news"
	"github.com/aristath/bourse/pkg/formulas"
)

// Context carries the sibling aggregates a company's features draw on:
// equal-weighted peer close series and the recent event history
// (newest last). Any of it may be empty.
type Context struct {
	SectorCloses []float64
	RegionCloses []float64
	Events       []news.Event
}

// Compute returns the full named feature map for one company. Families
// whose history is too short are simply absent from the map; nothing
// here ever produces NaN or Inf.
func Compute(c *domain.Company, ctx Context) map[string]float64 {
	features := make(map[string]float64, len(InvestorFeatures))

	closes := domain.Closes(c.History)
	if len(closes) == 0 {
		addEventFeatures(features, ctx.Events)
		return features
	}
	current := closes[len(closes)-1]

	addMomentum(features, closes, current)
	addMovingAverages(features, closes, current)
	addOscillators(features, c.History, closes, current)
	addBollinger(features, closes, current)
	addMACD(features, closes, current)
	addVolume(features, c.History, closes)
	if atr, ok := normalizedATR(closes, 14); ok {
		features[ATR14] = atr
	}

	if m, ok := momentum(ctx.SectorCloses, 50); ok {
		features[SectorMomentum50D] = m
	}
	if m, ok := momentum(ctx.RegionCloses, 50); ok {
		features[RegionMomentum50D] = m
	}

	addEventFeatures(features, ctx.Events)
	return features
}

// momentum is price[t]/price[t-n] - 1, requiring n+1 points.
func momentum(closes []float64, n int) (float64, bool) {
	if len(closes) < n+1 {
		return 0, false
	}
	past := closes[len(closes)-1-n]
	if past == 0 {
		return 0, false
	}
	return closes[len(closes)-1]/past - 1, true
}

func addMomentum(features map[string]float64, closes []float64, current float64) {
	for _, span := range []struct {
		key string
		n   int
	}{
		{Momentum5D, 5},
		{Momentum10D, 10},
		{Momentum20D, 20},
		{Momentum50D, 50},
	} {
		if m, ok := momentum(closes, span.n); ok {
			features[span.key] = m
		}
	}

	// 1-day close against the trailing 5-day average.
	if len(closes) >= 5 {
		avg := formulas.Mean(closes[len(closes)-5:])
		if avg != 0 {
			features[Momentum1DVs5D] = current/avg - 1
		}
	}
}

func addMovingAverages(features map[string]float64, closes []float64, current float64) {
	periods := []int{5, 10, 20, 50}
	smaKeys := []string{SMARatio5, SMARatio10, SMARatio20, SMARatio50}
	emaKeys := []string{EMARatio5, EMARatio10, EMARatio20, EMARatio50}

	smas := make(map[int]float64, len(periods))
	for i, period := range periods {
		if sma := formulas.CalculateSMA(closes, period); sma != nil {
			smas[period] = *sma
			features[smaKeys[i]] = current / *sma - 1
		}
		if ema := formulas.CalculateEMA(closes, period); ema != nil {
			features[emaKeys[i]] = current / *ema - 1
		}
	}

	// Crossover ratios between adjacent SMA periods.
	crosses := []struct {
		key        string
		fast, slow int
	}{
		{SMACross5x10, 5, 10},
		{SMACross10x20, 10, 20},
		{SMACross20x50, 20, 50},
	}
	for _, cr := range crosses {
		fast, okFast := smas[cr.fast]
		slow, okSlow := smas[cr.slow]
		if okFast && okSlow && slow != 0 {
			features[cr.key] = fast/slow - 1
		}
	}
}

func addOscillators(features map[string]float64, history []domain.PricePoint, closes []float64, current float64) {
	for _, span := range []struct {
		key string
		n   int
	}{
		{RSIContra7, 7},
		{RSIContra14, 14},
		{RSIContra21, 21},
	} {
		if rsi := formulas.CalculateRSI(closes, span.n); rsi != nil {
			features[span.key] = (50 - *rsi) / 50
		}
	}

	// Stochastic %K over 14 days from the candle highs and lows.
	if len(history) >= 14 {
		window := history[len(history)-14:]
		low, high := window[0].Low, window[0].High
		for _, p := range window {
			if p.Low < low {
				low = p.Low
			}
			if p.High > high {
				high = p.High
			}
		}
		if high > low {
			k := (current - low) / (high - low) * 100
			features[StochContra14] = (50 - k) / 50
		}
	}
}

func addBollinger(features map[string]float64, closes []float64, current float64) {
	const period = 20
	if len(closes) < period {
		return
	}

	window := closes[len(closes)-period:]
	mid := formulas.Mean(window)
	sigma := formulas.PopStdDev(window)
	if mid == 0 || sigma == 0 {
		return
	}

	upper := mid + 2*sigma
	lower := mid - 2*sigma
	features[BollBandwidth20] = (upper - lower) / mid
	features[BollPctB20] = (current - lower) / (upper - lower)
}

func addMACD(features map[string]float64, closes []float64, current float64) {
	ema12 := formulas.CalculateEMA(closes, 12)
	ema26 := formulas.CalculateEMA(closes, 26)
	if ema12 == nil || ema26 == nil || current == 0 {
		return
	}
	features[MACDHist] = (*ema12 - *ema26) / current
}

func addVolume(features map[string]float64, history []domain.PricePoint, closes []float64) {
	const period = 20
	volumes := domain.Volumes(history)
	if len(volumes) < period {
		return
	}

	window := volumes[len(volumes)-period:]
	avg := formulas.Mean(window)
	if avg > 0 {
		features[VolumeSpike20] = volumes[len(volumes)-1] / avg
	}

	if obv := formulas.CalculateOBV(closes, volumes); len(obv) >= period {
		obvWindow := obv[len(obv)-period:]
		obvMean := formulas.Mean(obvWindow)
		scale := 0.0
		for _, v := range obvWindow {
			scale += math.Abs(v)
		}
		scale /= float64(len(obvWindow))
		if scale > 0 {
			features[OBVTrend20] = (obv[len(obv)-1] - obvMean) / scale
		}
	}

	addCMF(features, history, period)
}

// addCMF computes a simplified Chaikin Money Flow: volume-weighted close
// position within each day's range, summed over the window.
func addCMF(features map[string]float64, history []domain.PricePoint, period int) {
	if len(history) < period {
		return
	}

	var flowSum, volumeSum float64
	for _, p := range history[len(history)-period:] {
		if p.High <= p.Low {
			continue
		}
		multiplier := ((p.Close - p.Low) - (p.High - p.Close)) / (p.High - p.Low)
		flowSum += multiplier * float64(p.Volume)
		volumeSum += float64(p.Volume)
	}
	if volumeSum > 0 {
		features[CMF20] = flowSum / volumeSum
	}
}

// normalizedATR approximates ATR as the mean absolute day-over-day close
// change, normalized by the current close.
func normalizedATR(closes []float64, n int) (float64, bool) {
	if len(closes) < n+1 || closes[len(closes)-1] == 0 {
		return 0, false
	}

	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		sum += math.Abs(closes[i] - closes[i-1])
	}
	return (sum / float64(n)) / closes[len(closes)-1], true
}

// NormalizedATR exposes the ATR approximation for market-level and
// corporate feature building.
func NormalizedATR(closes []float64, n int) float64 {
	atr, _ := normalizedATR(closes, n)
	return atr
}

// Momentum exposes the momentum primitive; short series read 0.
func Momentum(closes []float64, n int) float64 {
	m, _ := momentum(closes, n)
	return m
}

func addEventFeatures(features map[string]float64, events []news.Event) {
	if len(events) == 0 {
		return
	}

	latest := events[len(events)-1]
	features[EventSentiment] = latest.Sentiment()
	features[EventImpact] = math.Abs(latest.MeanImpact()-1) * 10
	if latest.IsMacro() {
		features[EventMacro] = 1
		features[EventCorporate] = 0
	} else {
		features[EventMacro] = 0
		features[EventCorporate] = 1
	}
}
