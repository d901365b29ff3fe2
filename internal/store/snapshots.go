package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoSnapshots is returned by LoadLatest when the table is empty.
var ErrNoSnapshots = errors.New("no snapshots stored")

// Snapshot is one persisted simulation state blob.
type Snapshot struct {
	ID        string    `json:"id"`
	Day       int       `json:"day"`
	Blob      []byte    `json:"-"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotRepository stores msgpack-encoded simulation states. The
// newest snapshot is the resume point; older ones are retention only.
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates the repository and its schema.
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) (*SnapshotRepository, error) {
	r := &SnapshotRepository{
		db:  db,
		log: log.With().Str("repository", "snapshots").Logger(),
	}
	if err := r.ensureSchema(); err != nil {
		return nil, fmt.Errorf("failed to create snapshots schema: %w", err)
	}
	return r, nil
}

func (r *SnapshotRepository) ensureSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			day INTEGER NOT NULL,
			blob BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
	`)
	return err
}

// Save stores an encoded state and returns the generated snapshot id.
func (r *SnapshotRepository) Save(day int, blob []byte) (string, error) {
	if len(blob) == 0 {
		return "", errors.New("refusing to save empty snapshot")
	}

	id := uuid.New().String()
	_, err := r.db.Exec(`
		INSERT INTO snapshots (id, day, blob, created_at)
		VALUES (?, ?, ?, ?)
	`, id, day, blob, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	r.log.Debug().
		Str("snapshot_id", id).
		Int("day", day).
		Int("size_bytes", len(blob)).
		Msg("Snapshot saved")
	return id, nil
}

// LoadLatest returns the most recently created snapshot.
func (r *SnapshotRepository) LoadLatest() (*Snapshot, error) {
	var (
		s       Snapshot
		created int64
	)
	err := r.db.QueryRow(`
		SELECT id, day, blob, created_at
		FROM snapshots
		ORDER BY created_at DESC, day DESC
		LIMIT 1
	`).Scan(&s.ID, &s.Day, &s.Blob, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshots
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	s.SizeBytes = len(s.Blob)
	s.CreatedAt = time.Unix(created, 0)
	return &s, nil
}

// List returns snapshot metadata (no blobs), newest first.
func (r *SnapshotRepository) List() ([]Snapshot, error) {
	rows, err := r.db.Query(`
		SELECT id, day, LENGTH(blob), created_at
		FROM snapshots
		ORDER BY created_at DESC, day DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var (
			s       Snapshot
			created int64
		)
		if err := rows.Scan(&s.ID, &s.Day, &s.SizeBytes, &created); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		s.CreatedAt = time.Unix(created, 0)
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return snapshots, nil
}

// Prune deletes all but the newest keep snapshots and returns how many
// were removed.
func (r *SnapshotRepository) Prune(keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}

	result, err := r.db.Exec(`
		DELETE FROM snapshots
		WHERE id NOT IN (
			SELECT id FROM snapshots
			ORDER BY created_at DESC, day DESC
			LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	n, _ := result.RowsAffected()
	if n > 0 {
		r.log.Info().Int64("removed", n).Int("kept", keep).Msg("Pruned old snapshots")
	}
	return n, nil
}

// Count returns the number of stored snapshots.
func (r *SnapshotRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}
