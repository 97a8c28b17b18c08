package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("QUANTPICK_DATA_DIR", t.TempDir())
	t.Setenv("SEARCH_WORKERS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 16, cfg.MaxUploadMB)
	assert.Equal(t, 3, cfg.Search.Workers)
	assert.Equal(t, 4096, cfg.Search.MaxEvaluations)
	assert.Equal(t, 32, cfg.Search.MaxDepth)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, uint64(42), cfg.Search.SamplerSeed)
	assert.Equal(t, DegeneratePolicyFail, cfg.Search.DegeneratePolicy)
	assert.Equal(t, 24*time.Hour, cfg.Cache.StatsTTL)
	assert.False(t, cfg.ObjectStore.Enabled())
	assert.Contains(t, cfg.HistoryDBPath(), "history.db")
	assert.Contains(t, cfg.CacheDBPath(), "cache.db")
	assert.Equal(t, "0 0 2 * * *", cfg.Backup.Schedule)
	assert.Equal(t, 30, cfg.Backup.RetentionDays)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("QUANTPICK_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "8123")
	t.Setenv("SEARCH_MAX_EVALUATIONS", "0")
	t.Setenv("SAMPLER_SEED", "7")
	t.Setenv("FALLBACK_DEGENERATE_POLICY", "rank")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("S3_BUCKET", "prices")
	t.Setenv("SEARCH_MAX_DEPTH", "8")
	t.Setenv("ALLOWED_ORIGINS", "app.example.com, *.internal.example ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Port)
	assert.Equal(t, 0, cfg.Search.MaxEvaluations)
	assert.Equal(t, uint64(7), cfg.Search.SamplerSeed)
	assert.Equal(t, DegeneratePolicyRank, cfg.Search.DegeneratePolicy)
	assert.Equal(t, 0.5, cfg.RateLimit.RPS)
	assert.True(t, cfg.ObjectStore.Enabled())
	assert.Equal(t, 8, cfg.Search.MaxDepth)
	assert.Equal(t, []string{"app.example.com", "*.internal.example"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("QUANTPICK_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:           9000,
			MaxUploadMB:    16,
			RequestTimeout: time.Minute,
			Search: SearchConfig{
				Workers:          2,
				MaxEvaluations:   10,
				MaxQubits:        16,
				DegeneratePolicy: DegeneratePolicyFail,
			},
			RateLimit: RateLimitConfig{RPS: 1, Burst: 1},
			Cache:     CacheConfig{StatsTTL: time.Hour},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Port = 0 }},
		{"no workers", func(c *Config) { c.Search.Workers = 0 }},
		{"negative ceiling", func(c *Config) { c.Search.MaxEvaluations = -1 }},
		{"negative depth", func(c *Config) { c.Search.MaxDepth = -1 }},
		{"too many qubits", func(c *Config) { c.Search.MaxQubits = 31 }},
		{"unknown policy", func(c *Config) { c.Search.DegeneratePolicy = "ignore" }},
		{"zero rate", func(c *Config) { c.RateLimit.RPS = 0 }},
		{"zero ttl", func(c *Config) { c.Cache.StatsTTL = 0 }},
		{"zero upload", func(c *Config) { c.MaxUploadMB = 0 }},
		{"negative retention", func(c *Config) { c.Backup.RetentionDays = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
