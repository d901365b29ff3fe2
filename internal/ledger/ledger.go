// Package ledger implements deferred-outcome bookkeeping: a decision is
// recorded with the reference value it acted on, then scored against the
// realized value once the simulation reaches its evaluation day. The
// squashed result becomes the training target for whichever network made
// the decision. This two-phase loop is the only way any network in the
// simulation learns.
package ledger

import (
	"errors"
	"math"
)

// Side determines how a realized return converts into a reward. A good
// sell means the price fell afterward, so sell-side returns flip sign.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
	SideLong Side = "long" // direction-less decisions scored on the raw move
)

// Entry is one pending decision awaiting its outcome.
type Entry struct {
	CreatedDay     int       `msgpack:"created_day"`
	EvaluationDay  int       `msgpack:"evaluation_day"`
	ReferenceValue float64   `msgpack:"reference_value"`
	Features       []float64 `msgpack:"features"`
	Side           Side      `msgpack:"side"`
	OwnerID        string    `msgpack:"owner_id"` // investor id, company symbol or picker slot owner
	Subject        string    `msgpack:"subject"`  // symbol the outcome is measured on; empty means the market index
	Slot           int       `msgpack:"slot"`     // output slot for picker-style training
	Trace          []byte    `msgpack:"trace"`    // opaque payload handed back verbatim on settlement
}

// Ledger is an append-only queue of pending entries. Gain scales the
// realized return before the tanh squash, so everyday moves of a few
// percent still produce usable training signal.
type Ledger struct {
	Entries []Entry `msgpack:"entries"`
	Gain    float64 `msgpack:"gain"`
}

// New creates an empty ledger with the given squash gain.
func New(gain float64) *Ledger {
	return &Ledger{Gain: gain}
}

// Record appends one pending decision. O(1); nothing is evaluated here.
func (l *Ledger) Record(e Entry) {
	l.Entries = append(l.Entries, e)
}

// Pending returns the number of entries awaiting evaluation.
func (l *Ledger) Pending() int {
	return len(l.Entries)
}

// RefLookup resolves the current reference value for a due entry.
// Returning ok=false drops the entry without training (the subject was
// delisted, so there is no honest outcome to learn from).
type RefLookup func(e Entry) (float64, bool)

// SettleFunc consumes one due entry together with its squashed target
// in [-1, 1].
type SettleFunc func(e Entry, target float64) error

// Settle partitions the ledger: entries with EvaluationDay > currentDay
// stay pending, the rest are removed and fed to fn exactly once. Each
// due entry trains at most once even if its callback fails; callback
// errors are joined and returned after the whole pass.
func (l *Ledger) Settle(currentDay int, lookup RefLookup, fn SettleFunc) (int, error) {
	if len(l.Entries) == 0 {
		return 0, nil
	}

	kept := l.Entries[:0]
	settled := 0
	var errs []error

	for _, e := range l.Entries {
		if e.EvaluationDay > currentDay {
			kept = append(kept, e)
			continue
		}

		current, ok := lookup(e)
		if !ok || e.ReferenceValue <= 0 {
			continue
		}

		target := l.squash(e, current)
		settled++
		if err := fn(e, target); err != nil {
			errs = append(errs, err)
		}
	}

	l.Entries = kept
	return settled, errors.Join(errs...)
}

// squash converts the realized return into a bounded training target.
func (l *Ledger) squash(e Entry, current float64) float64 {
	realized := current/e.ReferenceValue - 1
	if e.Side == SideSell {
		realized = -realized
	}
	return math.Tanh(realized * l.Gain)
}
