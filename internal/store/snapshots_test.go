package store

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "github.com/aristath/bourse/internal/testing"
)

func newSnapshotRepo(t *testing.T) *SnapshotRepository {
	t.Helper()
	db, cleanup := testhelpers.NewTestDB(t, "snapshots")
	t.Cleanup(cleanup)

	repo, err := NewSnapshotRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, err)
	return repo
}

func TestSnapshotRepository_SaveAndLoadLatest(t *testing.T) {
	repo := newSnapshotRepo(t)

	_, err := repo.Save(10, []byte("old state"))
	require.NoError(t, err)

	id, err := repo.Save(25, []byte("new state"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	latest, err := repo.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, id, latest.ID)
	assert.Equal(t, 25, latest.Day)
	assert.Equal(t, []byte("new state"), latest.Blob)
	assert.Equal(t, len("new state"), latest.SizeBytes)
	assert.WithinDuration(t, time.Now(), latest.CreatedAt, 5*time.Second)
}

func TestSnapshotRepository_LoadLatestEmpty(t *testing.T) {
	repo := newSnapshotRepo(t)

	_, err := repo.LoadLatest()
	assert.ErrorIs(t, err, ErrNoSnapshots)
}

func TestSnapshotRepository_SaveRejectsEmptyBlob(t *testing.T) {
	repo := newSnapshotRepo(t)

	_, err := repo.Save(1, nil)
	assert.Error(t, err)
}

func TestSnapshotRepository_Prune(t *testing.T) {
	repo := newSnapshotRepo(t)

	for day := 1; day <= 7; day++ {
		_, err := repo.Save(day, []byte{byte(day)})
		require.NoError(t, err)
	}

	removed, err := repo.Prune(3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// The newest (highest day) survives pruning.
	latest, err := repo.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, 7, latest.Day)
}

func TestSnapshotRepository_List(t *testing.T) {
	repo := newSnapshotRepo(t)

	for day := 1; day <= 3; day++ {
		_, err := repo.Save(day, []byte("blob"))
		require.NoError(t, err)
	}

	snapshots, err := repo.List()
	require.NoError(t, err)
	require.Len(t, snapshots, 3)

	// Newest first, metadata only.
	assert.Equal(t, 3, snapshots[0].Day)
	assert.Nil(t, snapshots[0].Blob)
	assert.Equal(t, len("blob"), snapshots[0].SizeBytes)
}
