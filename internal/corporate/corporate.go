// Package corporate runs the per-company decision pass of the daily
// transition. Each company carries three small networks that score a
// stock split, an alliance and an acquisition against its current
// situation; the first score past its threshold is executed, recorded in
// the deferred ledger, and trained days later on the realized price move.
package corporate

import (
	"fmt"
	"math/rand"

	"github.com/aristath/bourse/internal/domain"
	"github.com/aristath/bourse/internal/neural"
)

// Action identifies one of the three corporate moves. The numeric value
// doubles as the ledger slot so a settled entry can find the network
// that made the call.
type Action int

const (
	ActionSplit Action = iota
	ActionAlliance
	ActionAcquisition
)

func (a Action) String() string {
	switch a {
	case ActionSplit:
		return "split"
	case ActionAlliance:
		return "alliance"
	case ActionAcquisition:
		return "acquisition"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Config tunes the decision pass. Thresholds are compared against raw
// network scores in (-1, 1); an action needs strong conviction to fire.
type Config struct {
	SplitThreshold       float64
	AllianceThreshold    float64
	AcquisitionThreshold float64

	// CooldownDays keeps a company quiet after any executed action.
	CooldownDays int
	// Horizon is how many days later an executed action is scored.
	Horizon int
	// CosmeticChance injects a no-consequence flavor event on days a
	// company does nothing.
	CosmeticChance float64
	// LearningRate is used when a settled ledger entry trains the
	// acting network.
	LearningRate float64
	// PriceFloor bounds the payout price when an acquisition marks up
	// the target's final close.
	PriceFloor float64
}

// DefaultConfig returns the tuning used by the stock simulation.
func DefaultConfig() Config {
	return Config{
		SplitThreshold:       0.75,
		AllianceThreshold:    0.70,
		AcquisitionThreshold: 0.80,
		CooldownDays:         60,
		Horizon:              5,
		CosmeticChance:       0.05,
		LearningRate:         0.05,
		PriceFloor:           0.01,
	}
}

// decisionLayout is the shape of every corporate decision network:
// the feature vector in, one conviction score out.
func decisionLayout() []int {
	return []int{len(FeatureNames), 6, 1}
}

// NewDecisionState builds a fresh trio of decision networks for one
// company.
func NewDecisionState(rng *rand.Rand, learningRate float64) (domain.CorporateState, error) {
	split, err := neural.New(rng, decisionLayout(), FeatureNames)
	if err != nil {
		return domain.CorporateState{}, err
	}
	alliance, err := neural.New(rng, decisionLayout(), FeatureNames)
	if err != nil {
		return domain.CorporateState{}, err
	}
	acquisition, err := neural.New(rng, decisionLayout(), FeatureNames)
	if err != nil {
		return domain.CorporateState{}, err
	}

	return domain.CorporateState{
		SplitNet:       split,
		AllianceNet:    alliance,
		AcquisitionNet: acquisition,
		LearningRate:   learningRate,
	}, nil
}

// NetworkFor resolves the company network behind an action. Settlement
// uses this to route a matured outcome back to the network that fired.
func NetworkFor(c *domain.Company, a Action) *neural.Network {
	switch a {
	case ActionSplit:
		return c.Corporate.SplitNet
	case ActionAlliance:
		return c.Corporate.AllianceNet
	case ActionAcquisition:
		return c.Corporate.AcquisitionNet
	default:
		return nil
	}
}
