package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/bourse/internal/neural"
	"github.com/aristath/bourse/internal/strategy"
)

func newTestInvestor(cash float64) *Investor {
	return &Investor{
		ID:       "inv-1",
		Name:     "Test Investor",
		Cash:     cash,
		Lots:     make(map[string][]Lot),
		Strategy: strategy.Simple{RiskAversion: 0.5},
	}
}

func TestInvestorBuy(t *testing.T) {
	inv := newTestInvestor(1000)

	ok := inv.Buy("ACME", 5, 100, 1, nil)

	require.True(t, ok)
	assert.InDelta(t, 500.0, inv.Cash, 0.0001)
	assert.Equal(t, 5, inv.SharesOf("ACME"))
}

func TestInvestorBuy_Rejections(t *testing.T) {
	inv := newTestInvestor(100)

	assert.False(t, inv.Buy("ACME", 0, 10, 1, nil), "Zero shares")
	assert.False(t, inv.Buy("ACME", -3, 10, 1, nil), "Negative shares")
	assert.False(t, inv.Buy("ACME", 20, 10, 1, nil), "Cost above cash")
	assert.False(t, inv.Buy("ACME", 1, 0, 1, nil), "Free shares do not exist")

	assert.InDelta(t, 100.0, inv.Cash, 0.0001, "Rejected buys leave cash untouched")
	assert.Equal(t, 0, inv.SharesOf("ACME"))
}

func TestInvestorSell_FIFOOrder(t *testing.T) {
	inv := newTestInvestor(10000)
	require.True(t, inv.Buy("ACME", 10, 50, 1, nil))
	require.True(t, inv.Buy("ACME", 10, 60, 2, nil))

	ok := inv.Sell("ACME", 15, 70, 3, 365)

	require.True(t, ok)
	assert.Equal(t, 5, inv.SharesOf("ACME"))

	lots := inv.Lots["ACME"]
	require.Len(t, lots, 1)
	assert.Equal(t, 60.0, lots[0].PurchasePrice, "The oldest lot must be consumed first")
	assert.Equal(t, 5, lots[0].Shares)
}

func TestInvestorSell_SharesConservation(t *testing.T) {
	inv := newTestInvestor(100000)
	rng := rand.New(rand.NewSource(5))

	bought, sold := 0, 0
	for i := 0; i < 50; i++ {
		if rng.Intn(2) == 0 {
			qty := 1 + rng.Intn(5)
			if inv.Buy("ACME", qty, 10, i, nil) {
				bought += qty
			}
		} else {
			held := inv.SharesOf("ACME")
			if held == 0 {
				continue
			}
			qty := 1 + rng.Intn(held)
			if inv.Sell("ACME", qty, 12, i, 365) {
				sold += qty
			}
		}
	}

	assert.Equal(t, bought-sold, inv.SharesOf("ACME"),
		"Lot shares must equal total bought minus total sold")
}

func TestInvestorSell_Rejections(t *testing.T) {
	inv := newTestInvestor(1000)
	require.True(t, inv.Buy("ACME", 5, 100, 1, nil))
	cashBefore := inv.Cash

	assert.False(t, inv.Sell("ACME", 10, 100, 2, 365), "Cannot sell more than held")
	assert.False(t, inv.Sell("ACME", 0, 100, 2, 365))
	assert.False(t, inv.Sell("OTHER", 1, 100, 2, 365), "Unknown symbol")

	assert.Equal(t, cashBefore, inv.Cash)
	assert.Equal(t, 5, inv.SharesOf("ACME"))
}

func TestInvestorSell_LongTermGainAccumulation(t *testing.T) {
	inv := newTestInvestor(10000)
	require.True(t, inv.Buy("ACME", 10, 100, 0, nil))

	// Held 400 days: long-term. Gain = (150-100)*10 = 500.
	require.True(t, inv.Sell("ACME", 10, 150, 400, 365))
	assert.InDelta(t, 500.0, inv.LongTermGains, 0.0001)

	// Short hold: gains do not accumulate.
	require.True(t, inv.Buy("ACME", 10, 100, 400, nil))
	require.True(t, inv.Sell("ACME", 10, 150, 410, 365))
	assert.InDelta(t, 500.0, inv.LongTermGains, 0.0001)
}

func TestInvestorSettleAnnualTax(t *testing.T) {
	inv := newTestInvestor(1000)
	inv.LongTermGains = 600

	tax := inv.SettleAnnualTax(0.25, 100)

	assert.InDelta(t, 125.0, tax, 0.0001, "25% of gains above the 100 exemption")
	assert.InDelta(t, 875.0, inv.Cash, 0.0001)
	assert.Equal(t, 0.0, inv.LongTermGains, "Accumulator resets after settlement")
	assert.InDelta(t, 125.0, inv.TaxPaid, 0.0001)
}

func TestInvestorSettleAnnualTax_UnderExemption(t *testing.T) {
	inv := newTestInvestor(1000)
	inv.LongTermGains = 50

	tax := inv.SettleAnnualTax(0.25, 100)

	assert.Equal(t, 0.0, tax)
	assert.Equal(t, 0.0, inv.LongTermGains, "Accumulator still resets")
	assert.InDelta(t, 1000.0, inv.Cash, 0.0001)
}

func TestInvestorSettleAnnualTax_CappedAtCash(t *testing.T) {
	inv := newTestInvestor(10)
	inv.LongTermGains = 10000

	tax := inv.SettleAnnualTax(0.5, 0)

	assert.InDelta(t, 10.0, tax, 0.0001, "The bill never drives cash negative")
	assert.Equal(t, 0.0, inv.Cash)
}

func TestInvestorPortfolioValue(t *testing.T) {
	inv := newTestInvestor(10000)
	require.True(t, inv.Buy("ACME", 10, 100, 1, nil))
	require.True(t, inv.Buy("GONE", 5, 50, 1, nil))

	prices := map[string]float64{"ACME": 120}
	value := inv.PortfolioValue(func(symbol string) (float64, bool) {
		p, ok := prices[symbol]
		return p, ok
	})

	assert.InDelta(t, 1200.0, value, 0.0001, "Unpriceable holdings contribute nothing")
}

func TestInvestorMsgpackRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	net, err := neural.New(rng, []int{6, 4, 1}, nil)
	require.NoError(t, err)

	inv := &Investor{
		ID:   "inv-42",
		Name: "Round Tripper",
		Cash: 1234.56,
		Lots: map[string][]Lot{"ACME": {{PurchaseDay: 3, PurchasePrice: 99.5, Shares: 7, Indicators: []float64{0.1, 0.2}}}},
		Strategy: strategy.HyperComplex{
			Network:        net,
			RiskAversion:   0.45,
			TradeFrequency: 0.3,
			LearningRate:   0.02,
		},
		LongTermGains: 88.5,
		TaxPaid:       12.25,
		Valuations:    []ValuationPoint{{Day: 1, Value: 1500}},
	}

	blob, err := msgpack.Marshal(inv)
	require.NoError(t, err)

	var restored Investor
	require.NoError(t, msgpack.Unmarshal(blob, &restored))

	assert.Equal(t, inv.ID, restored.ID)
	assert.Equal(t, inv.Cash, restored.Cash)
	assert.Equal(t, inv.Lots, restored.Lots)
	assert.Equal(t, inv.LongTermGains, restored.LongTermGains)
	assert.Equal(t, inv.Valuations, restored.Valuations)

	hc, ok := restored.Strategy.(strategy.HyperComplex)
	require.True(t, ok, "Strategy variant must survive the round trip")
	assert.Equal(t, net.Weights, hc.Network.Weights, "Network weights must survive bit-exactly")
}
