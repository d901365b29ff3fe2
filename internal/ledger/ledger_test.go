package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marketRef(value float64) RefLookup {
	return func(Entry) (float64, bool) { return value, true }
}

func TestSettle_EvaluatesExactlyOnceAtMaturity(t *testing.T) {
	l := New(10)
	l.Record(Entry{CreatedDay: 0, EvaluationDay: 5, ReferenceValue: 100, Side: SideBuy})

	calls := 0
	count := func(Entry, float64) error { calls++; return nil }

	for day := 0; day < 5; day++ {
		settled, err := l.Settle(day, marketRef(110), count)
		require.NoError(t, err)
		assert.Zero(t, settled, "Nothing settles before the evaluation day")
	}
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, l.Pending())

	settled, err := l.Settle(5, marketRef(110), count)
	require.NoError(t, err)
	assert.Equal(t, 1, settled)
	assert.Equal(t, 1, calls, "The training step fires exactly once")
	assert.Zero(t, l.Pending(), "Settled entries are removed")

	settled, err = l.Settle(6, marketRef(110), count)
	require.NoError(t, err)
	assert.Zero(t, settled)
	assert.Equal(t, 1, calls)
}

func TestSettle_PartitionsDueAndPending(t *testing.T) {
	l := New(10)
	l.Record(Entry{EvaluationDay: 3, ReferenceValue: 100, OwnerID: "due-1"})
	l.Record(Entry{EvaluationDay: 8, ReferenceValue: 100, OwnerID: "pending"})
	l.Record(Entry{EvaluationDay: 2, ReferenceValue: 100, OwnerID: "due-2"})

	var settledOwners []string
	settled, err := l.Settle(3, marketRef(105), func(e Entry, _ float64) error {
		settledOwners = append(settledOwners, e.OwnerID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, settled)
	assert.ElementsMatch(t, []string{"due-1", "due-2"}, settledOwners)
	require.Equal(t, 1, l.Pending())
	assert.Equal(t, "pending", l.Entries[0].OwnerID)
}

func TestSettle_BuySideTarget(t *testing.T) {
	l := New(10)
	l.Record(Entry{EvaluationDay: 1, ReferenceValue: 100, Side: SideBuy})

	var target float64
	_, err := l.Settle(1, marketRef(105), func(_ Entry, tgt float64) error {
		target = tgt
		return nil
	})

	require.NoError(t, err)
	// +5% move, gain 10: tanh(0.5)
	assert.InDelta(t, math.Tanh(0.5), target, 1e-9)
}

func TestSettle_SellSideFlipsSign(t *testing.T) {
	l := New(10)
	l.Record(Entry{EvaluationDay: 1, ReferenceValue: 100, Side: SideSell})

	var target float64
	_, err := l.Settle(1, marketRef(95), func(_ Entry, tgt float64) error {
		target = tgt
		return nil
	})

	require.NoError(t, err)
	// Price fell 5% after a sell: that was a good call, positive target.
	assert.InDelta(t, math.Tanh(0.5), target, 1e-9)
	assert.Greater(t, target, 0.0)
}

func TestSettle_TargetStaysBounded(t *testing.T) {
	l := New(10)
	l.Record(Entry{EvaluationDay: 1, ReferenceValue: 100, Side: SideBuy})

	var target float64
	_, err := l.Settle(1, marketRef(500), func(_ Entry, tgt float64) error {
		target = tgt
		return nil
	})

	require.NoError(t, err)
	assert.LessOrEqual(t, target, 1.0)
	assert.Greater(t, target, 0.99, "A massive move saturates the squash")
}

func TestSettle_MissingSubjectDropsWithoutTraining(t *testing.T) {
	l := New(10)
	l.Record(Entry{EvaluationDay: 1, ReferenceValue: 100, Subject: "DELISTED"})

	calls := 0
	settled, err := l.Settle(1,
		func(Entry) (float64, bool) { return 0, false },
		func(Entry, float64) error { calls++; return nil })

	require.NoError(t, err)
	assert.Zero(t, settled)
	assert.Zero(t, calls, "No honest outcome, no training")
	assert.Zero(t, l.Pending(), "The entry is still removed")
}

func TestSettle_ZeroReferenceDropped(t *testing.T) {
	l := New(10)
	l.Record(Entry{EvaluationDay: 1, ReferenceValue: 0})

	settled, err := l.Settle(1, marketRef(100), func(Entry, float64) error { return nil })

	require.NoError(t, err)
	assert.Zero(t, settled)
	assert.Zero(t, l.Pending())
}

func TestSettle_CallbackErrorsJoinButPassContinues(t *testing.T) {
	l := New(10)
	l.Record(Entry{EvaluationDay: 1, ReferenceValue: 100, OwnerID: "bad"})
	l.Record(Entry{EvaluationDay: 1, ReferenceValue: 100, OwnerID: "good"})

	boom := errors.New("boom")
	var settledOwners []string
	settled, err := l.Settle(1, marketRef(101), func(e Entry, _ float64) error {
		settledOwners = append(settledOwners, e.OwnerID)
		if e.OwnerID == "bad" {
			return boom
		}
		return nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, settled, "One failure does not stop the pass")
	assert.Len(t, settledOwners, 2)
	assert.Zero(t, l.Pending())
}

func TestRecord_IsOrderPreservingAppend(t *testing.T) {
	l := New(5)
	for i := 0; i < 4; i++ {
		l.Record(Entry{CreatedDay: i, EvaluationDay: i + 5})
	}

	require.Equal(t, 4, l.Pending())
	for i, e := range l.Entries {
		assert.Equal(t, i, e.CreatedDay)
	}
}
