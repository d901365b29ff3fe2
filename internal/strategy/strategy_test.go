package strategy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/bourse/internal/neural"
)

func TestEvaluate_HumanAlwaysHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	named := map[string]float64{featMomentum10: 0.5}

	sig, err := Evaluate(Human{}, named, nil, 100, rng)

	require.NoError(t, err)
	assert.Equal(t, Hold, sig.Action)
}

func TestEvaluate_SimpleBuysOnMomentum(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	named := map[string]float64{featMomentum10: 0.08}

	sig, err := Evaluate(Simple{RiskAversion: 0.5}, named, nil, 0, rng)

	require.NoError(t, err)
	assert.Equal(t, Buy, sig.Action)
	assert.InDelta(t, 0.8, sig.Score, 0.0001)
}

func TestEvaluate_SimpleSellsOnNegativeMomentum(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	named := map[string]float64{featMomentum10: -0.08}

	held, err := Evaluate(Simple{RiskAversion: 0.5}, named, nil, 10, rng)
	require.NoError(t, err)
	assert.Equal(t, Sell, held.Action)

	// Nothing held: the sell leg is unreachable.
	flat, err := Evaluate(Simple{RiskAversion: 0.5}, named, nil, 0, rng)
	require.NoError(t, err)
	assert.Equal(t, Hold, flat.Action)
}

func TestEvaluate_ComplexBlendsSignals(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	named := map[string]float64{
		featMomentum10:  0.05, // momentum leg: 0.4 * 0.5 = 0.20
		featRSIContra14: 0.6,  // oversold leg: 0.4 * 0.6 = 0.24
		featSMARatio20:  -0.1, // value leg: 0.2 * 1.0 = 0.20
	}

	sig, err := Evaluate(Complex{RiskAversion: 0.5}, named, nil, 0, rng)

	require.NoError(t, err)
	assert.InDelta(t, 0.64, sig.Score, 0.0001)
	assert.Equal(t, Buy, sig.Action)
}

func TestEvaluate_HyperComplexUsesNetwork(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	net := &neural.Network{
		Sizes:   []int{1, 1},
		Weights: [][][]float64{{{2.0}}},
		Biases:  [][]float64{{0}},
	}
	s := HyperComplex{Network: net, RiskAversion: 0.5, TradeFrequency: 1.0}

	sig, err := Evaluate(s, nil, []float64{1}, 0, rng)

	require.NoError(t, err)
	assert.Equal(t, Buy, sig.Action, "tanh(2) clears a 0.5 aversion")
}

func TestEvaluate_HyperComplexSellSide(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	net := &neural.Network{
		Sizes:   []int{1, 1},
		Weights: [][][]float64{{{-2.0}}},
		Biases:  [][]float64{{0}},
	}
	s := HyperComplex{Network: net, RiskAversion: 0.5, TradeFrequency: 1.0}

	sig, err := Evaluate(s, nil, []float64{1}, 5, rng)

	require.NoError(t, err)
	assert.Equal(t, Sell, sig.Action)
}

func TestEvaluate_HyperComplexVectorWidthMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	net := &neural.Network{
		Sizes:   []int{2, 1},
		Weights: [][][]float64{{{1, 1}}},
		Biases:  [][]float64{{0}},
	}
	s := HyperComplex{Network: net, RiskAversion: 0.5, TradeFrequency: 1.0}

	_, err := Evaluate(s, nil, []float64{1}, 0, rng)

	assert.Error(t, err)
}

func TestEvaluate_RandomNeverSellsWhenFlat(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	s := Random{TradeChance: 1.0}

	buys := 0
	for i := 0; i < 100; i++ {
		sig, err := Evaluate(s, nil, nil, 0, rng)
		require.NoError(t, err)
		assert.NotEqual(t, Sell, sig.Action)
		if sig.Action == Buy {
			buys++
		}
	}
	assert.Greater(t, buys, 0, "A certain-chance noise trader should buy sometimes")
}

func TestEvaluate_RandomZeroChanceHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := Random{TradeChance: 0}

	for i := 0; i < 20; i++ {
		sig, err := Evaluate(s, nil, nil, 10, rng)
		require.NoError(t, err)
		assert.Equal(t, Hold, sig.Action)
	}
}

func TestBuyQuantity(t *testing.T) {
	assert.Equal(t, 20, BuyQuantity(1000, 10), "Spend 20% of 1000 at price 10")
	assert.Equal(t, 0, BuyQuantity(1000, 0), "Non-positive price buys nothing")
	assert.Equal(t, 0, BuyQuantity(40, 10), "Fraction below one share buys nothing")
}

func TestSellQuantity(t *testing.T) {
	assert.Equal(t, 2, SellQuantity(10))
	assert.Equal(t, 1, SellQuantity(3), "Small positions still sell at least one share")
	assert.Equal(t, 0, SellQuantity(0))
}

func TestRandomQuantities_StayInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(13))

	for i := 0; i < 50; i++ {
		buy := RandomBuyQuantity(1000, 10, rng)
		assert.GreaterOrEqual(t, buy, 1)
		assert.LessOrEqual(t, buy, 20)

		sell := RandomSellQuantity(7, rng)
		assert.GreaterOrEqual(t, sell, 1)
		assert.LessOrEqual(t, sell, 7)
	}
	assert.Equal(t, 0, RandomBuyQuantity(1, 10, rng))
	assert.Equal(t, 0, RandomSellQuantity(0, rng))
}

func TestEnvelope_RoundTripAllVariants(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	net, err := neural.New(rng, []int{4, 3, 1}, nil)
	require.NoError(t, err)

	variants := []Strategy{
		Simple{RiskAversion: 0.4},
		Complex{RiskAversion: 0.6},
		HyperComplex{Network: net, RiskAversion: 0.5, TradeFrequency: 0.3, LearningRate: 0.05},
		Random{TradeChance: 0.1},
		Human{},
	}

	for _, original := range variants {
		t.Run(string(original.Kind()), func(t *testing.T) {
			blob, err := msgpack.Marshal(Pack(original))
			require.NoError(t, err)

			var env Envelope
			require.NoError(t, msgpack.Unmarshal(blob, &env))

			restored := env.Unpack()
			assert.Equal(t, original.Kind(), restored.Kind())
			assert.Equal(t, original, restored)
		})
	}
}

func TestEnvelope_UnknownKindFallsBackToHuman(t *testing.T) {
	env := Envelope{Kind: Kind("martian")}
	assert.Equal(t, KindHuman, env.Unpack().Kind())
}
