package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// IntegrityChecker is a database that can verify its own pages
type IntegrityChecker interface {
	Name() string
	IntegrityCheck(ctx context.Context) error
}

// IntegrityCheckJob verifies the SQLite databases. It stops at the first
// corrupted database since there is no automatic recovery.
type IntegrityCheckJob struct {
	databases []IntegrityChecker
	timeout   time.Duration
	log       zerolog.Logger
}

// NewIntegrityCheckJob creates an integrity check job; nil databases are skipped
func NewIntegrityCheckJob(log zerolog.Logger, databases ...IntegrityChecker) *IntegrityCheckJob {
	j := &IntegrityCheckJob{
		timeout: 5 * time.Minute,
		log:     log.With().Str("job", "integrity_check").Logger(),
	}
	for _, db := range databases {
		if db != nil {
			j.databases = append(j.databases, db)
		}
	}
	return j
}

// Name returns the job name
func (j *IntegrityCheckJob) Name() string {
	return "integrity_check"
}

// Run executes the integrity check
func (j *IntegrityCheckJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	for _, db := range j.databases {
		if err := db.IntegrityCheck(ctx); err != nil {
			j.log.Error().
				Err(err).
				Str("database", db.Name()).
				Msg("Database integrity check failed")
			return fmt.Errorf("database %s is corrupted: %w", db.Name(), err)
		}
		j.log.Debug().Str("database", db.Name()).Msg("Database integrity OK")
	}

	j.log.Info().Int("databases", len(j.databases)).Msg("Database integrity check passed")
	return nil
}
