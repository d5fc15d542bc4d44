package reliability

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/folio/internal/database"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// Free space thresholds for the data directory, in GB
const (
	criticalFreeGB = 0.5
	lowFreeGB      = 5.0
)

// DailyMaintenanceJob checks integrity, truncates WAL files and watches disk space
type DailyMaintenanceJob struct {
	databases map[string]*database.DB
	dataDir   string
	usage     func(path string) (*disk.UsageStat, error)
	log       zerolog.Logger
}

// NewDailyMaintenanceJob creates a new daily maintenance job
func NewDailyMaintenanceJob(databases map[string]*database.DB, dataDir string, log zerolog.Logger) *DailyMaintenanceJob {
	return &DailyMaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		usage:     disk.Usage,
		log:       log.With().Str("job", "daily_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *DailyMaintenanceJob) Name() string {
	return "daily_maintenance"
}

// Run executes the daily maintenance job
func (j *DailyMaintenanceJob) Run() error {
	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, name := range sortedNames(j.databases) {
		db := j.databases[name]
		if db == nil {
			continue
		}

		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("Integrity check failed")
			return fmt.Errorf("integrity check failed for %s: %w", name, err)
		}

		// Not fatal: a busy reader can block TRUNCATE
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", name).Msg("WAL checkpoint failed")
		}
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Daily maintenance completed")
	return nil
}

func (j *DailyMaintenanceJob) checkDiskSpace() error {
	stat, err := j.usage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(stat.Free) / 1e9
	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if availableGB < criticalFreeGB {
		j.log.Error().Float64("available_gb", availableGB).Msg("CRITICAL: Insufficient disk space")
		return fmt.Errorf("only %.2f GB free in %s", availableGB, j.dataDir)
	}
	if availableGB < lowFreeGB {
		j.log.Warn().Float64("available_gb", availableGB).Msg("Disk space running low")
	}
	return nil
}

// WeeklyMaintenanceJob compacts the price history database
type WeeklyMaintenanceJob struct {
	historyDB *database.DB
	log       zerolog.Logger
}

// NewWeeklyMaintenanceJob creates a new weekly maintenance job
func NewWeeklyMaintenanceJob(historyDB *database.DB, log zerolog.Logger) *WeeklyMaintenanceJob {
	return &WeeklyMaintenanceJob{
		historyDB: historyDB,
		log:       log.With().Str("job", "weekly_maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *WeeklyMaintenanceJob) Name() string {
	return "weekly_maintenance"
}

// Run executes VACUUM on the history database
func (j *WeeklyMaintenanceJob) Run() error {
	if j.historyDB == nil {
		return nil
	}

	conn := j.historyDB.Conn()
	sizeBefore := databaseSizeMB(conn)

	if _, err := conn.Exec("VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed: %w", err)
	}

	sizeAfter := databaseSizeMB(conn)
	j.log.Info().
		Float64("size_before_mb", sizeBefore).
		Float64("size_after_mb", sizeAfter).
		Float64("space_reclaimed_mb", sizeBefore-sizeAfter).
		Msg("VACUUM completed")
	return nil
}

func databaseSizeMB(conn *sql.DB) float64 {
	var pageCount, pageSize int
	_ = conn.QueryRow("PRAGMA page_count").Scan(&pageCount)
	_ = conn.QueryRow("PRAGMA page_size").Scan(&pageSize)
	return float64(pageCount*pageSize) / 1024 / 1024
}

func sortedNames(databases map[string]*database.DB) []string {
	names := make([]string, 0, len(databases))
	for name := range databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
