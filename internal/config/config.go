// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases, always absolute
	LogLevel string
	Port     int
	DevMode  bool

	PriceCacheSize        int
	PriceCacheTTL         time.Duration
	PriceWarmupSchedule   string
	PriceHistoryCacheSize int

	DailyMaintenanceSchedule  string
	WeeklyMaintenanceSchedule string

	Backup *BackupConfig
}

// BackupConfig holds S3-compatible backup settings
type BackupConfig struct {
	Enabled         bool
	Schedule        string
	Bucket          string
	Prefix          string
	Endpoint        string // Empty for AWS, set for R2/MinIO
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	RetentionDays   int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FOLIO_DATA_DIR", "./data")

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:               absDataDir,
		Port:                  getEnvAsInt("FOLIO_PORT", 8001),
		DevMode:               getEnvAsBool("DEV_MODE", false),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		PriceCacheSize:        getEnvAsInt("PRICE_CACHE_SIZE", 256),
		PriceCacheTTL:         getEnvAsDuration("PRICE_CACHE_TTL", 15*time.Minute),
		PriceWarmupSchedule:   getEnv("PRICE_WARMUP_SCHEDULE", "0 */15 * * * *"),
		PriceHistoryCacheSize: getEnvAsInt("PRICE_HISTORY_CACHE_SIZE", 64),
		Backup:                loadBackupConfig(),

		DailyMaintenanceSchedule:  getEnv("DAILY_MAINTENANCE_SCHEDULE", "0 0 2 * * *"),
		WeeklyMaintenanceSchedule: getEnv("WEEKLY_MAINTENANCE_SCHEDULE", "0 0 4 * * 0"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
		Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
		Bucket:          getEnv("BACKUP_BUCKET", ""),
		Prefix:          getEnv("BACKUP_PREFIX", "folio-backups"),
		Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
		Region:          getEnv("BACKUP_REGION", "auto"),
		AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
		RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}
}

// Validate checks ranges and cron expressions
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.PriceCacheSize <= 0 || c.PriceHistoryCacheSize <= 0 {
		return fmt.Errorf("price cache sizes must be positive")
	}
	if c.PriceCacheTTL <= 0 {
		return fmt.Errorf("price cache TTL must be positive")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedules := map[string]string{
		"PRICE_WARMUP_SCHEDULE":       c.PriceWarmupSchedule,
		"DAILY_MAINTENANCE_SCHEDULE":  c.DailyMaintenanceSchedule,
		"WEEKLY_MAINTENANCE_SCHEDULE": c.WeeklyMaintenanceSchedule,
	}
	for name, expr := range schedules {
		if _, err := parser.Parse(expr); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.Backup != nil && c.Backup.Enabled {
		if c.Backup.Bucket == "" {
			return fmt.Errorf("BACKUP_BUCKET is required when backups are enabled")
		}
		if c.Backup.RetentionDays < 0 {
			return fmt.Errorf("backup retention cannot be negative")
		}
		if _, err := parser.Parse(c.Backup.Schedule); err != nil {
			return fmt.Errorf("invalid BACKUP_SCHEDULE: %w", err)
		}
	}

	return nil
}

// DatabasePath returns the path of a named database inside the data directory
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name+".db")
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
