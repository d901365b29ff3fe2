package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPricePointClamp(t *testing.T) {
	tests := []struct {
		name  string
		point PricePoint
		check func(t *testing.T, p PricePoint)
	}{
		{
			name:  "negative close floors",
			point: PricePoint{Open: 5, High: 6, Low: 4, Close: -3},
			check: func(t *testing.T, p PricePoint) {
				assert.Equal(t, 0.01, p.Close)
			},
		},
		{
			name:  "high raised to cover close",
			point: PricePoint{Open: 5, High: 5.5, Low: 4, Close: 9},
			check: func(t *testing.T, p PricePoint) {
				assert.Equal(t, 9.0, p.High)
			},
		},
		{
			name:  "low dropped to cover close",
			point: PricePoint{Open: 5, High: 6, Low: 4.5, Close: 2},
			check: func(t *testing.T, p PricePoint) {
				assert.LessOrEqual(t, p.Low, p.Close)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.point
			p.Clamp(0.01)

			assert.Greater(t, p.Open, 0.0)
			assert.Greater(t, p.Close, 0.0)
			assert.GreaterOrEqual(t, p.High, p.Open)
			assert.GreaterOrEqual(t, p.High, p.Close)
			assert.LessOrEqual(t, p.Low, p.Open)
			assert.LessOrEqual(t, p.Low, p.Close)
			tt.check(t, p)
		})
	}
}

func TestTrimHistory(t *testing.T) {
	history := make([]PricePoint, 10)
	for i := range history {
		history[i] = PricePoint{Day: i, Close: float64(i)}
	}

	trimmed := TrimHistory(history, 4)

	assert.Len(t, trimmed, 4)
	assert.Equal(t, 6, trimmed[0].Day, "Oldest points should be dropped first")
	assert.Equal(t, 9, trimmed[3].Day)

	untouched := TrimHistory(history, 20)
	assert.Len(t, untouched, 10, "Histories inside the window stay as they are")
}

func TestCloses(t *testing.T) {
	history := []PricePoint{{Close: 100}, {Close: 102}, {Close: 99}}
	assert.Equal(t, []float64{100, 102, 99}, Closes(history))
}
