// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/reliability"
	"github.com/aristath/folio/internal/scheduler"
)

type scheduledJob struct {
	schedule string
	job      scheduler.Job
}

// RegisterJobs creates the background jobs and registers them with a new scheduler
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)
	jobs := &JobInstances{
		PriceCacheWarmup:  scheduler.NewPriceCacheWarmupJob(container.LedgerRepo, container.PriceSource, log),
		DailyMaintenance:  reliability.NewDailyMaintenanceJob(container.Databases(), cfg.DataDir, log),
		WeeklyMaintenance: reliability.NewWeeklyMaintenanceJob(container.HistoryDB, log),
	}

	schedules := []scheduledJob{
		{cfg.PriceWarmupSchedule, jobs.PriceCacheWarmup},
		{cfg.DailyMaintenanceSchedule, jobs.DailyMaintenance},
		{cfg.WeeklyMaintenanceSchedule, jobs.WeeklyMaintenance},
	}

	if container.BackupService != nil {
		jobs.Backup = scheduler.NewBackupJob(container.BackupService, log)
		schedules = append(schedules, scheduledJob{cfg.Backup.Schedule, jobs.Backup})
	}

	for _, s := range schedules {
		if err := sched.AddJob(s.schedule, s.job); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", s.job.Name(), err)
		}
	}

	container.Scheduler = sched
	return jobs, nil
}
