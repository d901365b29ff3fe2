package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/bourse/internal/database"
	"github.com/aristath/bourse/internal/services"
)

// AdvanceJob moves simulated time forward by a fixed step on every
// tick. This is what makes the market run by itself.
type AdvanceJob struct {
	sim     *services.SimulationService
	step    time.Duration
	timeout time.Duration
	log     zerolog.Logger
}

// NewAdvanceJob creates the periodic advance job.
func NewAdvanceJob(sim *services.SimulationService, step time.Duration, log zerolog.Logger) *AdvanceJob {
	return &AdvanceJob{
		sim:     sim,
		step:    step,
		timeout: 5 * time.Minute,
		log:     log.With().Str("job", "advance").Logger(),
	}
}

// Name returns the job name
func (j *AdvanceJob) Name() string {
	return "advance"
}

// Run advances the simulation by one step.
func (j *AdvanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	reports, err := j.sim.Advance(ctx, j.step)
	if err != nil {
		return err
	}
	if len(reports) > 0 {
		j.log.Info().
			Int("days_closed", len(reports)).
			Int("day", j.sim.Day()).
			Msg("Simulation advanced")
	}
	return nil
}

// SnapshotJob periodically persists the full simulation state.
type SnapshotJob struct {
	sim *services.SimulationService
	log zerolog.Logger
}

// NewSnapshotJob creates the periodic snapshot job.
func NewSnapshotJob(sim *services.SimulationService, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		sim: sim,
		log: log.With().Str("job", "snapshot").Logger(),
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "snapshot"
}

// Run stores one snapshot; retention pruning happens inside the
// service.
func (j *SnapshotJob) Run() error {
	id, err := j.sim.Snapshot()
	if err != nil {
		return err
	}
	j.log.Info().Str("snapshot_id", id).Msg("Periodic snapshot stored")
	return nil
}

// MaintenanceJob keeps the SQLite files healthy: WAL checkpoints on
// both databases and a quick integrity check.
type MaintenanceJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewMaintenanceJob creates the database maintenance job.
func NewMaintenanceJob(log zerolog.Logger, databases ...*database.DB) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run checkpoints every database. Failures are logged per database and
// the first one is returned after all databases were attempted.
func (j *MaintenanceJob) Run() error {
	var firstErr error
	for _, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.QuickCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Integrity check failed")
			if firstErr == nil {
				firstErr = err
			}
		}
		cancel()
	}
	return firstErr
}

// BackupRunner is the slice of the backup service the scheduler needs.
type BackupRunner interface {
	RunBackup(ctx context.Context) error
}

// BackupJob pushes an archive of the data directory to remote storage.
type BackupJob struct {
	backup  BackupRunner
	timeout time.Duration
	log     zerolog.Logger
}

// NewBackupJob creates the periodic backup job.
func NewBackupJob(backup BackupRunner, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backup:  backup,
		timeout: 15 * time.Minute,
		log:     log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run performs one backup cycle.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	return j.backup.RunBackup(ctx)
}
