package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/bourse/internal/events"
	"github.com/aristath/bourse/internal/services"
	"github.com/aristath/bourse/internal/store"
	testhelpers "github.com/aristath/bourse/internal/testing"
)

func newJobFixture(t *testing.T) (*services.SimulationService, *store.SnapshotRepository) {
	t.Helper()

	log := zerolog.Nop()
	db, cleanup := testhelpers.NewTestDB(t, "jobs")
	t.Cleanup(cleanup)

	candles, err := store.NewCandleRepository(db.Conn(), log)
	require.NoError(t, err)
	snapshots, err := store.NewSnapshotRepository(db.Conn(), log)
	require.NoError(t, err)

	sim := services.NewSimulationService(
		testhelpers.NewTestEngine(),
		rand.New(rand.NewSource(3)),
		events.NewBus(log), candles, snapshots, 5, log,
	)
	require.NoError(t, sim.Bootstrap(testhelpers.NewTestUniverse(), false))
	return sim, snapshots
}

func TestAdvanceJob(t *testing.T) {
	sim, _ := newJobFixture(t)
	job := NewAdvanceJob(sim, 30*time.Hour, zerolog.Nop())

	assert.Equal(t, "advance", job.Name())

	start := sim.Day()
	require.NoError(t, job.Run())
	assert.Greater(t, sim.Day(), start)
}

func TestSnapshotJob(t *testing.T) {
	sim, snapshots := newJobFixture(t)
	job := NewSnapshotJob(sim, zerolog.Nop())

	assert.Equal(t, "snapshot", job.Name())
	require.NoError(t, job.Run())

	count, err := snapshots.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMaintenanceJob(t *testing.T) {
	db, cleanup := testhelpers.NewTestDB(t, "maintenance")
	t.Cleanup(cleanup)

	job := NewMaintenanceJob(zerolog.Nop(), db)
	assert.Equal(t, "maintenance", job.Name())
	assert.NoError(t, job.Run())
}

type fakeBackup struct {
	calls int
	err   error
}

func (f *fakeBackup) RunBackup(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestBackupJob(t *testing.T) {
	backup := &fakeBackup{}
	job := NewBackupJob(backup, zerolog.Nop())

	assert.Equal(t, "backup", job.Name())
	require.NoError(t, job.Run())
	assert.Equal(t, 1, backup.calls)

	backup.err = errors.New("bucket unreachable")
	assert.Error(t, job.Run())
}

func TestSchedulerRegistersAndRuns(t *testing.T) {
	s := New(zerolog.Nop())

	backup := &fakeBackup{}
	job := NewBackupJob(backup, zerolog.Nop())

	require.NoError(t, s.AddJob("0 0 3 * * *", job))
	assert.Error(t, s.AddJob("not a schedule", job))

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, backup.calls)
}
