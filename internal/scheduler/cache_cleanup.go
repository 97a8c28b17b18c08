package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ExpiredDeleter removes expired cache rows
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CacheCleanupJob removes expired statistics from the cache database
type CacheCleanupJob struct {
	cache   ExpiredDeleter
	timeout time.Duration
	log     zerolog.Logger
}

// NewCacheCleanupJob creates a cache cleanup job
func NewCacheCleanupJob(cache ExpiredDeleter, log zerolog.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:   cache,
		timeout: time.Minute,
		log:     log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Run deletes expired entries
func (j *CacheCleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	deleted, err := j.cache.DeleteExpired(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired statistics")
		return err
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Cleaned up expired statistics")
	}
	return nil
}
