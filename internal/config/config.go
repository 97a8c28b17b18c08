// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Degenerate-asset policies for the fallback selector
const (
	DegeneratePolicyFail = "fail"
	DegeneratePolicyRank = "rank"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for history.db and cache.db (always absolute)
	LogLevel       string
	Port           int
	DevMode        bool
	MaxUploadMB    int
	RequestTimeout time.Duration
	AllowedOrigins []string // websocket origin patterns besides same-origin
	Search         SearchConfig
	RateLimit      RateLimitConfig
	Cache          CacheConfig
	ObjectStore    ObjectStoreConfig
	Backup         BackupConfig
}

// SearchConfig controls the grid search and the statevector sampler
type SearchConfig struct {
	Workers          int
	MaxEvaluations   int // 0 disables the ceiling
	MaxDepth         int // 0 disables the ceiling
	SamplerSeed      uint64
	MaxQubits        int
	DegeneratePolicy string // fail | rank
}

// RateLimitConfig throttles the optimize endpoints
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// CacheConfig controls the statistics cache
type CacheConfig struct {
	StatsTTL        time.Duration
	CleanupSchedule string // cron expression with seconds field
}

// ObjectStoreConfig points at an S3-compatible bucket holding price files.
// The object store is disabled when Bucket is empty.
type ObjectStoreConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// BackupConfig schedules database backups to the object store. Backups only run
// when the object store is enabled.
type BackupConfig struct {
	Schedule      string // cron expression with seconds field
	RetentionDays int    // 0 keeps every backup
}

// Enabled reports whether an object store bucket is configured
func (c ObjectStoreConfig) Enabled() bool {
	return c.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("QUANTPICK_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Port:           getEnvAsInt("GO_PORT", 9000),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		MaxUploadMB:    getEnvAsInt("MAX_UPLOAD_MB", 16),
		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 300)) * time.Second,
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS"),
		Search: SearchConfig{
			Workers:          getEnvAsInt("SEARCH_WORKERS", runtime.NumCPU()),
			MaxEvaluations:   getEnvAsInt("SEARCH_MAX_EVALUATIONS", 4096),
			MaxDepth:         getEnvAsInt("SEARCH_MAX_DEPTH", 32),
			SamplerSeed:      getEnvAsUint64("SAMPLER_SEED", 42),
			MaxQubits:        getEnvAsInt("SAMPLER_MAX_QUBITS", 16),
			DegeneratePolicy: getEnv("FALLBACK_DEGENERATE_POLICY", DegeneratePolicyFail),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 2),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 4),
		},
		Cache: CacheConfig{
			StatsTTL:        time.Duration(getEnvAsInt("STATS_CACHE_TTL_HOURS", 24)) * time.Hour,
			CleanupSchedule: getEnv("CACHE_CLEANUP_SCHEDULE", "0 0 * * * *"),
		},
		ObjectStore: ObjectStoreConfig{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "auto"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},
		Backup: BackupConfig{
			Schedule:      getEnv("BACKUP_SCHEDULE", "0 0 2 * * *"),
			RetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configured values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.Search.Workers <= 0 {
		return fmt.Errorf("SEARCH_WORKERS must be positive, got %d", c.Search.Workers)
	}
	if c.Search.MaxEvaluations < 0 {
		return fmt.Errorf("SEARCH_MAX_EVALUATIONS must not be negative, got %d", c.Search.MaxEvaluations)
	}
	if c.Search.MaxDepth < 0 {
		return fmt.Errorf("SEARCH_MAX_DEPTH must not be negative, got %d", c.Search.MaxDepth)
	}
	if c.Search.MaxQubits <= 0 || c.Search.MaxQubits > 30 {
		return fmt.Errorf("SAMPLER_MAX_QUBITS must be in [1, 30], got %d", c.Search.MaxQubits)
	}
	switch c.Search.DegeneratePolicy {
	case DegeneratePolicyFail, DegeneratePolicyRank:
	default:
		return fmt.Errorf("unknown FALLBACK_DEGENERATE_POLICY: %q", c.Search.DegeneratePolicy)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive (rps=%v burst=%d)", c.RateLimit.RPS, c.RateLimit.Burst)
	}
	if c.Cache.StatsTTL <= 0 {
		return fmt.Errorf("STATS_CACHE_TTL_HOURS must be positive")
	}
	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative, got %d", c.Backup.RetentionDays)
	}
	return nil
}

// HistoryDBPath returns the location of the price history database
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// BackupStagingDir is where backup archives are assembled before upload
func (c *Config) BackupStagingDir() string {
	return filepath.Join(c.DataDir, "backup-staging")
}

// CacheDBPath returns the location of the statistics cache database
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty entries
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
