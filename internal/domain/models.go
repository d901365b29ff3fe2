// Package domain provides the core simulation models shared by every
// engine component: price history, companies, investors and their lots.
package domain

// Sector identifies the industry a company belongs to. The set of
// sectors is defined by the loaded universe, not hardcoded here.
type Sector string

// Region identifies the geographic market a company trades in.
type Region string

// PricePoint is one simulated day of OHLCV data.
type PricePoint struct {
	Day    int     `json:"day" msgpack:"day"`
	Open   float64 `json:"open" msgpack:"open"`
	High   float64 `json:"high" msgpack:"high"`
	Low    float64 `json:"low" msgpack:"low"`
	Close  float64 `json:"close" msgpack:"close"`
	Volume int64   `json:"volume" msgpack:"volume"`
}

// Clamp enforces the candle invariants: all prices strictly positive,
// high at least max(open, close), low at most min(open, close).
func (p *PricePoint) Clamp(floor float64) {
	if p.Open < floor {
		p.Open = floor
	}
	if p.Close < floor {
		p.Close = floor
	}
	if p.High < p.Open {
		p.High = p.Open
	}
	if p.High < p.Close {
		p.High = p.Close
	}
	if p.Low <= 0 || p.Low > p.Open {
		p.Low = p.Open
	}
	if p.Low > p.Close {
		p.Low = p.Close
	}
	if p.Low < floor {
		p.Low = floor
	}
}

// ValuationPoint is one day's portfolio valuation snapshot for an investor.
type ValuationPoint struct {
	Day   int     `json:"day" msgpack:"day"`
	Value float64 `json:"value" msgpack:"value"`
}

// TrimHistory drops the oldest points until the history fits the window.
// Returns the (possibly reallocated) slice.
func TrimHistory(history []PricePoint, window int) []PricePoint {
	if window <= 0 || len(history) <= window {
		return history
	}
	trimmed := make([]PricePoint, window)
	copy(trimmed, history[len(history)-window:])
	return trimmed
}

// TrimValuations drops the oldest valuation points beyond the window.
func TrimValuations(points []ValuationPoint, window int) []ValuationPoint {
	if window <= 0 || len(points) <= window {
		return points
	}
	trimmed := make([]ValuationPoint, window)
	copy(trimmed, points[len(points)-window:])
	return trimmed
}

// Closes extracts the close series from a price history, oldest first.
func Closes(history []PricePoint) []float64 {
	closes := make([]float64, len(history))
	for i, p := range history {
		closes[i] = p.Close
	}
	return closes
}

// Volumes extracts the volume series from a price history, oldest first.
func Volumes(history []PricePoint) []float64 {
	volumes := make([]float64, len(history))
	for i, p := range history {
		volumes[i] = float64(p.Volume)
	}
	return volumes
}
