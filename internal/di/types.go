// Package di provides dependency injection type definitions.
package di

import (
	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/policy"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/modules/rebalancing"
	"github.com/aristath/folio/internal/modules/signals"
	"github.com/aristath/folio/internal/reliability"
	"github.com/aristath/folio/internal/scheduler"
)

// Container holds all dependencies for the application.
// It is created by Wire() and passed to the server and the CLI.
type Container struct {
	// Databases
	LedgerDB  *database.DB // ledger.db - trades and cash movements
	ConfigDB  *database.DB // config.db - policy, classifications, signals, strategies
	HistoryDB *database.DB // history.db - daily price bars

	// Repositories
	LedgerRepo  *ledger.Repository
	PolicyRepo  *policy.Repository
	SignalsRepo *signals.Repository
	PriceRepo   *prices.Repository

	// Services
	PriceSource        *prices.CachedSource
	RebalancingService *rebalancing.Service
	BackupService      *reliability.BackupService // nil when backups are disabled

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering
type JobInstances struct {
	PriceCacheWarmup  scheduler.Job
	DailyMaintenance  scheduler.Job
	WeeklyMaintenance scheduler.Job
	Backup            scheduler.Job // nil when backups are disabled
}

// All returns the non-nil jobs keyed by name
func (j *JobInstances) All() map[string]scheduler.Job {
	jobs := make(map[string]scheduler.Job)
	for _, job := range []scheduler.Job{j.PriceCacheWarmup, j.DailyMaintenance, j.WeeklyMaintenance, j.Backup} {
		if job != nil {
			jobs[job.Name()] = job
		}
	}
	return jobs
}

// Databases returns the open databases keyed by name
func (c *Container) Databases() map[string]*database.DB {
	dbs := make(map[string]*database.DB, 3)
	for _, db := range []*database.DB{c.LedgerDB, c.ConfigDB, c.HistoryDB} {
		if db != nil {
			dbs[db.Name()] = db
		}
	}
	return dbs
}

// Close closes all databases, returning the first error
func (c *Container) Close() error {
	var firstErr error
	for _, db := range []*database.DB{c.LedgerDB, c.ConfigDB, c.HistoryDB} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
