package strategy

import (
	"fmt"
	"math/rand"

	"github.com/aristath/bourse/internal/neural"
)

// Action is what a strategy wants to do with one company today.
type Action int

const (
	Hold Action = iota
	Buy
	Sell
)

// Signal carries the decision and the raw score that produced it.
// Score is meaningless for Random and Human.
type Signal struct {
	Action Action
	Score  float64
}

// Sizing fractions shared by every autonomous variant: a buy spends at
// most this fraction of cash, a sell releases this fraction of the held
// shares. Sizing from the current balance is what keeps cash from ever
// going negative without an explicit pre-trade check.
const (
	SpendFraction = 0.2
	SellFraction  = 0.2
)

// ============================================================================
// FIXED-WEIGHT SCORING
// ============================================================================
// Momentum-style ratios live around ±0.05, network scores around ±1.
// The scale constants lift the fixed-weight variants into the same range
// so one risk-aversion threshold means the same thing for every variant.

const (
	momentumScale = 10.0

	complexMomentumWeight = 0.4
	complexOversoldWeight = 0.4
	complexValueWeight    = 0.2
)

// Feature names consumed by the fixed-weight variants. The indicator
// engine publishes these exact keys.
const (
	featMomentum10  = "momentum_10d"
	featRSIContra14 = "rsi_contra_14"
	featSMARatio20  = "sma_ratio_20"
)

// Evaluate runs one strategy against one company's daily features.
// named is the full indicator map, vector the ordered feature subset for
// network variants. sharesHeld gates sell decisions; rng drives the
// stochastic variants. Human always holds.
func Evaluate(s Strategy, named map[string]float64, vector []float64, sharesHeld int, rng *rand.Rand) (Signal, error) {
	switch v := s.(type) {
	case Human:
		return Signal{Action: Hold}, nil

	case Random:
		if rng.Float64() >= v.TradeChance {
			return Signal{Action: Hold}, nil
		}
		if rng.Intn(2) == 0 {
			return Signal{Action: Buy}, nil
		}
		if sharesHeld <= 0 {
			return Signal{Action: Hold}, nil
		}
		return Signal{Action: Sell}, nil

	case Simple:
		score := named[featMomentum10] * momentumScale
		return threshold(score, v.RiskAversion, sharesHeld), nil

	case Complex:
		score := complexMomentumWeight*named[featMomentum10]*momentumScale +
			complexOversoldWeight*named[featRSIContra14] +
			complexValueWeight*-named[featSMARatio20]*momentumScale
		return threshold(score, v.RiskAversion, sharesHeld), nil

	case HyperComplex:
		if rng.Float64() >= v.TradeFrequency {
			return Signal{Action: Hold}, nil
		}
		out, err := neural.FeedForward(v.Network, vector)
		if err != nil {
			return Signal{}, fmt.Errorf("strategy network: %w", err)
		}
		return threshold(out[0], v.RiskAversion, sharesHeld), nil

	default:
		return Signal{Action: Hold}, nil
	}
}

// threshold turns a score into a signal: buy above the aversion, sell
// below its negative when there is anything to sell.
func threshold(score, aversion float64, sharesHeld int) Signal {
	sig := Signal{Action: Hold, Score: score}
	if score > aversion {
		sig.Action = Buy
	} else if score < -aversion && sharesHeld > 0 {
		sig.Action = Sell
	}
	return sig
}

// BuyQuantity sizes a buy from available cash: spend at most
// SpendFraction of cash, whole shares only. Zero means no trade.
func BuyQuantity(cash, price float64) int {
	if price <= 0 || cash <= 0 {
		return 0
	}
	return int(cash * SpendFraction / price)
}

// SellQuantity sizes a sell from the held shares: SellFraction of the
// position, minimum one share so small holders can still exit.
func SellQuantity(sharesHeld int) int {
	if sharesHeld <= 0 {
		return 0
	}
	qty := int(float64(sharesHeld) * SellFraction)
	if qty < 1 {
		qty = 1
	}
	return qty
}

// RandomBuyQuantity picks a uniform size in [1, affordable] for noise
// traders, still capped by the spend fraction.
func RandomBuyQuantity(cash, price float64, rng *rand.Rand) int {
	max := BuyQuantity(cash, price)
	if max <= 0 {
		return 0
	}
	return 1 + rng.Intn(max)
}

// RandomSellQuantity picks a uniform size in [1, held].
func RandomSellQuantity(sharesHeld int, rng *rand.Rand) int {
	if sharesHeld <= 0 {
		return 0
	}
	return 1 + rng.Intn(sharesHeld)
}
