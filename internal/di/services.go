// Package di provides dependency injection for services.
package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/modules/prices"
	"github.com/aristath/folio/internal/modules/rebalancing"
	"github.com/aristath/folio/internal/reliability"
)

// InitializeServices creates the price cache, the planner and the backup service
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.PriceSource = prices.NewCachedSource(
		container.PriceRepo,
		prices.NewCache(cfg.PriceCacheSize, cfg.PriceCacheTTL),
		prices.NewCache(cfg.PriceHistoryCacheSize, cfg.PriceCacheTTL),
		log,
	)

	container.RebalancingService = rebalancing.NewService(
		container.LedgerRepo,
		container.PolicyRepo,
		container.SignalsRepo,
		container.PriceSource,
		container.PolicyRepo,
		log,
	)

	if cfg.Backup == nil || !cfg.Backup.Enabled {
		log.Info().Msg("Backups disabled")
		return nil
	}

	store, err := reliability.NewS3Store(ctx, reliability.S3Options{
		Bucket:          cfg.Backup.Bucket,
		Endpoint:        cfg.Backup.Endpoint,
		Region:          cfg.Backup.Region,
		AccessKeyID:     cfg.Backup.AccessKeyID,
		SecretAccessKey: cfg.Backup.SecretAccessKey,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create backup store: %w", err)
	}

	snapshotters := make(map[string]reliability.Snapshotter)
	for name, db := range container.Databases() {
		snapshotters[name] = db
	}

	container.BackupService = reliability.NewBackupService(
		snapshotters,
		store,
		filepath.Join(cfg.DataDir, "backup-staging"),
		cfg.Backup.Prefix,
		cfg.Backup.RetentionDays,
		log,
	)
	return nil
}
