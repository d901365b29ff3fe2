package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateSMA calculates the simple moving average over the last `period` closes.
// Returns nil if there is not enough data.
func CalculateSMA(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}

	sma := talib.Sma(closes, period)
	if len(sma) == 0 {
		return nil
	}

	last := sma[len(sma)-1]
	if isNaN(last) || last == 0 {
		return nil
	}
	return &last
}

// CalculateEMA calculates the exponential moving average over the last `period` closes.
// Returns nil if there is not enough data.
func CalculateEMA(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period {
		return nil
	}

	ema := talib.Ema(closes, period)
	if len(ema) == 0 {
		return nil
	}

	last := ema[len(ema)-1]
	if isNaN(last) || last == 0 {
		return nil
	}
	return &last
}
