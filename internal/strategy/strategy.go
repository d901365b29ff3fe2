// Package strategy models the closed set of investor decision strategies.
// A strategy turns one company's daily feature readout into a trade
// signal; variants differ only in how that signal is produced (network
// inference, fixed weights, or pure randomness). The package stays free
// of simulation state so anything owning features and holdings can use it.
package strategy

import (
	"github.com/aristath/bourse/internal/neural"
)

// Kind discriminates the strategy variants.
type Kind string

const (
	KindSimple       Kind = "simple"
	KindComplex      Kind = "complex"
	KindHyperComplex Kind = "hyper_complex"
	KindRandom       Kind = "random"
	KindHuman        Kind = "human"
)

// Strategy is the closed decision contract. Only the variants in this
// package implement it; dispatch is by type switch.
type Strategy interface {
	Kind() Kind
}

// Simple trades on raw momentum with fixed weights. No learning.
type Simple struct {
	RiskAversion float64 `msgpack:"risk_aversion"`
}

// Kind implements Strategy.
func (Simple) Kind() Kind { return KindSimple }

// Complex blends momentum with contrarian oversold signals, still with
// fixed weights. No learning.
type Complex struct {
	RiskAversion float64 `msgpack:"risk_aversion"`
}

// Kind implements Strategy.
func (Complex) Kind() Kind { return KindComplex }

// HyperComplex owns a trainable network scoring the full feature vector.
// The only variant that participates in deferred-outcome learning.
type HyperComplex struct {
	Network        *neural.Network `msgpack:"network"`
	RiskAversion   float64         `msgpack:"risk_aversion"`
	TradeFrequency float64         `msgpack:"trade_frequency"`
	LearningRate   float64         `msgpack:"learning_rate"`
}

// Kind implements Strategy.
func (HyperComplex) Kind() Kind { return KindHyperComplex }

// Random is the noise trader: an unconditional coin-flip trade with
// probability TradeChance. Never learns.
type Random struct {
	TradeChance float64 `msgpack:"trade_chance"`
}

// Kind implements Strategy.
func (Random) Kind() Kind { return KindRandom }

// Human is inert. The player's investor carries it so the entity shape
// matches the autonomous population; all its trades arrive out of band.
type Human struct{}

// Kind implements Strategy.
func (Human) Kind() Kind { return KindHuman }

// Envelope is the serialized form of a Strategy. Exactly one variant
// field is set, selected by Kind; unknown kinds unpack to Human so a
// stale snapshot never produces a trading ghost.
type Envelope struct {
	Kind         Kind          `msgpack:"kind"`
	Simple       *Simple       `msgpack:"simple,omitempty"`
	Complex      *Complex      `msgpack:"complex,omitempty"`
	HyperComplex *HyperComplex `msgpack:"hyper_complex,omitempty"`
	Random       *Random       `msgpack:"random,omitempty"`
}

// Pack wraps a Strategy for serialization.
func Pack(s Strategy) Envelope {
	switch v := s.(type) {
	case Simple:
		return Envelope{Kind: KindSimple, Simple: &v}
	case Complex:
		return Envelope{Kind: KindComplex, Complex: &v}
	case HyperComplex:
		return Envelope{Kind: KindHyperComplex, HyperComplex: &v}
	case Random:
		return Envelope{Kind: KindRandom, Random: &v}
	default:
		return Envelope{Kind: KindHuman}
	}
}

// Unpack restores the concrete Strategy from its envelope.
func (e Envelope) Unpack() Strategy {
	switch e.Kind {
	case KindSimple:
		if e.Simple != nil {
			return *e.Simple
		}
	case KindComplex:
		if e.Complex != nil {
			return *e.Complex
		}
	case KindHyperComplex:
		if e.HyperComplex != nil {
			return *e.HyperComplex
		}
	case KindRandom:
		if e.Random != nil {
			return *e.Random
		}
	}
	return Human{}
}
