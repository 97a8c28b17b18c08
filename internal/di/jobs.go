package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/quantpick/internal/config"
	"github.com/aristath/quantpick/internal/reliability"
	"github.com/aristath/quantpick/internal/scheduler"
)

const (
	walCheckpointSchedule  = "0 */15 * * * *"
	integrityCheckSchedule = "0 30 3 * * *"
)

// RegisterJobs creates the scheduler and registers maintenance jobs. The
// scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)
	container.Scheduler = sched

	jobs := &JobInstances{
		CacheCleanup: scheduler.NewCacheCleanupJob(container.CacheRepo, log),
	}
	if err := sched.AddJob(cfg.Cache.CleanupSchedule, jobs.CacheCleanup); err != nil {
		return nil, fmt.Errorf("failed to register cache cleanup job: %w", err)
	}

	dbs := container.Databases()
	checkpointers := make([]scheduler.Checkpointer, 0, len(dbs))
	checkers := make([]scheduler.IntegrityChecker, 0, len(dbs))
	for _, db := range dbs {
		checkpointers = append(checkpointers, db)
		checkers = append(checkers, db)
	}

	jobs.WALCheckpoint = scheduler.NewWALCheckpointJob(log, checkpointers...)
	if err := sched.AddJob(walCheckpointSchedule, jobs.WALCheckpoint); err != nil {
		return nil, fmt.Errorf("failed to register WAL checkpoint job: %w", err)
	}

	jobs.IntegrityCheck = scheduler.NewIntegrityCheckJob(log, checkers...)
	if err := sched.AddJob(integrityCheckSchedule, jobs.IntegrityCheck); err != nil {
		return nil, fmt.Errorf("failed to register integrity check job: %w", err)
	}

	if container.Backup != nil {
		jobs.Backup = reliability.NewBackupJob(container.Backup, cfg.Backup.RetentionDays, log)
		if err := sched.AddJob(cfg.Backup.Schedule, jobs.Backup); err != nil {
			return nil, fmt.Errorf("failed to register backup job: %w", err)
		}
	}

	log.Info().Strs("jobs", sched.Jobs()).Msg("Jobs registered")
	return jobs, nil
}
