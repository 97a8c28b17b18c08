package di

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantpick/internal/config"
	"github.com/aristath/quantpick/internal/modules/selection"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir:        t.TempDir(),
		LogLevel:       "info",
		Port:           9000,
		MaxUploadMB:    16,
		RequestTimeout: time.Minute,
		Search: config.SearchConfig{
			Workers:          2,
			MaxEvaluations:   4096,
			SamplerSeed:      42,
			MaxQubits:        16,
			DegeneratePolicy: config.DegeneratePolicyFail,
		},
		RateLimit: config.RateLimitConfig{RPS: 2, Burst: 4},
		Cache: config.CacheConfig{
			StatsTTL:        24 * time.Hour,
			CleanupSchedule: "0 0 * * * *",
		},
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NotNil(t, container)
	require.NotNil(t, jobs)
	t.Cleanup(container.Close)

	assert.NotNil(t, container.HistoryDB)
	assert.NotNil(t, container.CacheDB)
	assert.NotNil(t, container.HistoryRepo)
	assert.NotNil(t, container.CacheRepo)
	assert.NotNil(t, container.EventBus)
	assert.NotNil(t, container.Statistics)
	assert.NotNil(t, container.Simulator)
	assert.NotNil(t, container.Selector)
	assert.Nil(t, container.ObjectStore)

	assert.NotNil(t, jobs.CacheCleanup)
	assert.NotNil(t, jobs.WALCheckpoint)
	assert.NotNil(t, jobs.IntegrityCheck)
	assert.ElementsMatch(t,
		[]string{jobs.CacheCleanup.Name(), jobs.WALCheckpoint.Name(), jobs.IntegrityCheck.Name()},
		container.Scheduler.Jobs())
	assert.NoError(t, jobs.IntegrityCheck.Run())
	assert.NoError(t, jobs.WALCheckpoint.Run())
	assert.NoError(t, jobs.CacheCleanup.Run())
	assert.Len(t, container.Databases(), 2)
}

func TestWire_SelectorUsesSimulator(t *testing.T) {
	cfg := testConfig(t)

	container, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	p := selection.Problem{
		Tickers: []string{"A", "B", "C"},
		Mu:      []float64{0.1, 0.05, -0.02},
		Cov: [][]float64{
			{0.04, 0, 0},
			{0, 0.01, 0},
			{0, 0, 0.02},
		},
	}
	result, err := container.Selector.Select(context.Background(), p, selection.Params{Budget: 1, Depth: 1, Grid: 2, Shots: 64})
	require.NoError(t, err)
	assert.Len(t, result.Picks, 1)
}

func TestWire_WithObjectStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.ObjectStore = config.ObjectStoreConfig{
		Bucket:          "prices",
		Region:          "us-east-1",
		Endpoint:        "http://127.0.0.1:9",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	}
	cfg.Backup = config.BackupConfig{Schedule: "0 0 2 * * *", RetentionDays: 30}

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.NotNil(t, container.ObjectStore)
	assert.NotNil(t, container.Backup)
	require.NotNil(t, jobs.Backup)
	assert.Contains(t, container.Scheduler.Jobs(), jobs.Backup.Name())
}

func TestWire_InvalidDegeneratePolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Search.DegeneratePolicy = "shrug"

	_, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestWire_InvalidCleanupSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.CleanupSchedule = "not a schedule"

	_, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestContainer_CloseNil(t *testing.T) {
	var c *Container
	assert.NotPanics(t, c.Close)
	assert.NotPanics(t, (&Container{}).Close)
}
