package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/quantpick/internal/clients/objectstore"
	"github.com/aristath/quantpick/internal/config"
	"github.com/aristath/quantpick/internal/events"
	"github.com/aristath/quantpick/internal/modules/quantum"
	"github.com/aristath/quantpick/internal/modules/selection"
	"github.com/aristath/quantpick/internal/modules/statistics"
	"github.com/aristath/quantpick/internal/reliability"
)

// InitializeServices builds repositories and services on top of open databases
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.HistoryRepo = statistics.NewHistoryRepository(container.HistoryDB.Conn())
	container.CacheRepo = statistics.NewCacheRepository(container.CacheDB.Conn())

	container.EventBus = events.NewBus(log)
	container.Statistics = statistics.NewProvider(container.CacheRepo, container.HistoryRepo, cfg.Cache.StatsTTL, log)

	container.Simulator = quantum.NewSimulator(quantum.SimulatorConfig{
		Seed:      cfg.Search.SamplerSeed,
		MaxQubits: cfg.Search.MaxQubits,
	})

	policy, err := selection.ParseDegeneratePolicy(cfg.Search.DegeneratePolicy)
	if err != nil {
		return fmt.Errorf("invalid degenerate policy: %w", err)
	}
	container.Selector = selection.NewSelector(container.Simulator, selection.Options{
		Workers:        cfg.Search.Workers,
		MaxEvaluations: cfg.Search.MaxEvaluations,
		MaxDepth:       cfg.Search.MaxDepth,
		Degenerate:     policy,
	}, container.EventBus, log)

	if cfg.ObjectStore.Enabled() {
		client, err := objectstore.NewClient(ctx, objectstore.Config{
			Bucket:          cfg.ObjectStore.Bucket,
			Region:          cfg.ObjectStore.Region,
			Endpoint:        cfg.ObjectStore.Endpoint,
			AccessKeyID:     cfg.ObjectStore.AccessKeyID,
			SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize object store: %w", err)
		}
		container.ObjectStore = client

		snapshotters := make([]reliability.Snapshotter, 0, 2)
		for _, db := range container.Databases() {
			snapshotters = append(snapshotters, db)
		}
		container.Backup = reliability.NewBackupService(client, cfg.BackupStagingDir(), log, snapshotters...)
	} else {
		log.Info().Msg("Object store disabled (S3_BUCKET not set)")
	}

	return nil
}
