/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every long-lived component of the service. It is built
 * once by Wire and handed to the HTTP server.
 */
package di

import (
	"github.com/aristath/quantpick/internal/clients/objectstore"
	"github.com/aristath/quantpick/internal/database"
	"github.com/aristath/quantpick/internal/events"
	"github.com/aristath/quantpick/internal/modules/quantum"
	"github.com/aristath/quantpick/internal/modules/selection"
	"github.com/aristath/quantpick/internal/modules/statistics"
	"github.com/aristath/quantpick/internal/reliability"
	"github.com/aristath/quantpick/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	HistoryDB *database.DB
	CacheDB   *database.DB

	// Repositories
	HistoryRepo *statistics.HistoryRepository
	CacheRepo   *statistics.CacheRepository

	// Services
	EventBus   *events.Bus
	Statistics *statistics.Provider
	Simulator  *quantum.Simulator
	Selector   *selection.Selector

	// ObjectStore and Backup are nil when no bucket is configured
	ObjectStore *objectstore.Client
	Backup      *reliability.BackupService

	Scheduler *scheduler.Scheduler
}

// JobInstances holds references to the registered maintenance jobs
type JobInstances struct {
	CacheCleanup   *scheduler.CacheCleanupJob
	WALCheckpoint  *scheduler.WALCheckpointJob
	IntegrityCheck *scheduler.IntegrityCheckJob
	Backup         *reliability.BackupJob // nil without an object store
}

// Databases returns the open databases in a stable order
func (c *Container) Databases() []*database.DB {
	var dbs []*database.DB
	for _, db := range []*database.DB{c.HistoryDB, c.CacheDB} {
		if db != nil {
			dbs = append(dbs, db)
		}
	}
	return dbs
}

// Close releases the databases. Safe to call on a partially built container.
func (c *Container) Close() {
	if c == nil {
		return
	}
	for _, db := range c.Databases() {
		db.Close()
	}
}
