package scheduler

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Checkpointer is a database that can truncate its write-ahead log
type Checkpointer interface {
	Name() string
	WALCheckpoint(mode string) error
}

// WALCheckpointJob truncates the WAL of every registered database
type WALCheckpointJob struct {
	databases []Checkpointer
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a checkpoint job; nil databases are skipped
func NewWALCheckpointJob(log zerolog.Logger, databases ...Checkpointer) *WALCheckpointJob {
	j := &WALCheckpointJob{log: log.With().Str("job", "wal_checkpoint").Logger()}
	for _, db := range databases {
		if db != nil {
			j.databases = append(j.databases, db)
		}
	}
	return j
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run checkpoints each database, continuing past failures
func (j *WALCheckpointJob) Run() error {
	var errs []error
	for _, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			errs = append(errs, fmt.Errorf("%s: %w", db.Name(), err))
		}
	}
	return errors.Join(errs...)
}
