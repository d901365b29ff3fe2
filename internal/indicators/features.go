// Package indicators turns bounded OHLCV history into the named feature
// map every decision network in the simulation reads. Everything here is
// a pure function of the inputs: short histories yield missing keys, and
// callers default missing names to zero when assembling vectors.
package indicators

// Feature keys published by Compute. Contrarian keys are oriented so a
// positive value means "oversold, lean bullish".
const (
	Momentum5D     = "momentum_5d"
	Momentum10D    = "momentum_10d"
	Momentum20D    = "momentum_20d"
	Momentum50D    = "momentum_50d"
	Momentum1DVs5D = "momentum_1d_vs_5d"

	SMARatio5  = "sma_ratio_5"
	SMARatio10 = "sma_ratio_10"
	SMARatio20 = "sma_ratio_20"
	SMARatio50 = "sma_ratio_50"

	EMARatio5  = "ema_ratio_5"
	EMARatio10 = "ema_ratio_10"
	EMARatio20 = "ema_ratio_20"
	EMARatio50 = "ema_ratio_50"

	SMACross5x10  = "sma_cross_5_10"
	SMACross10x20 = "sma_cross_10_20"
	SMACross20x50 = "sma_cross_20_50"

	RSIContra7  = "rsi_contra_7"
	RSIContra14 = "rsi_contra_14"
	RSIContra21 = "rsi_contra_21"

	StochContra14 = "stoch_contra_14"

	BollBandwidth20 = "boll_bandwidth_20"
	BollPctB20      = "boll_pctb_20"

	MACDHist = "macd_hist"

	VolumeSpike20 = "volume_spike_20"
	OBVTrend20    = "obv_trend_20"
	CMF20         = "cmf_20"

	ATR14 = "atr_14"

	SectorMomentum50D = "sector_momentum_50d"
	RegionMomentum50D = "region_momentum_50d"

	EventSentiment = "event_sentiment"
	EventImpact    = "event_impact"
	EventMacro     = "event_macro"
	EventCorporate = "event_corporate"
)

// InvestorFeatures is the canonical ordered subset investor networks
// consume. Every investor network is built with this exact width and
// order, so one company's vector serves the whole population.
var InvestorFeatures = []string{
	Momentum5D, Momentum10D, Momentum20D, Momentum50D, Momentum1DVs5D,
	SMARatio5, SMARatio10, SMARatio20, SMARatio50,
	EMARatio5, EMARatio10, EMARatio20, EMARatio50,
	SMACross5x10, SMACross10x20, SMACross20x50,
	RSIContra7, RSIContra14, RSIContra21,
	StochContra14,
	BollBandwidth20, BollPctB20,
	MACDHist,
	VolumeSpike20, OBVTrend20, CMF20,
	ATR14,
	SectorMomentum50D, RegionMomentum50D,
	EventSentiment, EventImpact, EventMacro, EventCorporate,
}

// Vector assembles the ordered feature vector for the given names.
// Missing names default to 0 so short histories still produce a
// full-width input.
func Vector(features map[string]float64, names []string) []float64 {
	vector := make([]float64, len(names))
	for i, name := range names {
		vector[i] = features[name]
	}
	return vector
}
