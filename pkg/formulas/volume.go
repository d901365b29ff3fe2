package formulas

import (
	"github.com/markcheno/go-talib"
)

// CalculateOBV calculates the On-Balance Volume series for the given closes
// and volumes. OBV adds the day's volume when the close rises and subtracts
// it when the close falls. Returns nil if the inputs are too short or
// mismatched.
func CalculateOBV(closes, volumes []float64) []float64 {
	if len(closes) < 2 || len(closes) != len(volumes) {
		return nil
	}
	return talib.Obv(closes, volumes)
}
