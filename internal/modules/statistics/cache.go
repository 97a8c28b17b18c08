package statistics

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// DefaultCacheTTL is how long computed statistics stay fresh
const DefaultCacheTTL = 24 * time.Hour

// CacheKey identifies statistics by the content of their source file
func CacheKey(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// CacheRepository stores msgpack-encoded statistics in cache.db
type CacheRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewCacheRepository creates a cache repository
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db, now: time.Now}
}

// Store saves stats under key with expiration = now + ttl
func (r *CacheRepository) Store(ctx context.Context, key string, stats *Statistics, ttl time.Duration) error {
	payload, err := msgpack.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}

	now := r.now()
	_, err = r.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO stats_cache (cache_key, payload, created_at, expires_at) VALUES (?, ?, ?, ?)",
		key, payload, now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store statistics %s: %w", key, err)
	}
	return nil
}

// GetIfFresh returns the cached statistics, or nil if the key is missing or expired
func (r *CacheRepository) GetIfFresh(ctx context.Context, key string) (*Statistics, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT payload FROM stats_cache WHERE cache_key = ? AND expires_at > ?",
		key, r.now().Unix(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read statistics %s: %w", key, err)
	}

	var stats Statistics
	if err := msgpack.Unmarshal(payload, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode statistics %s: %w", key, err)
	}
	return &stats, nil
}

// DeleteExpired removes every row whose expiration has passed and returns how many were removed
func (r *CacheRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM stats_cache WHERE expires_at <= ?", r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired statistics: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}
