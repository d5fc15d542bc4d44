package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// HeldTickerLister lists tickers currently held in any portfolio
type HeldTickerLister interface {
	HeldTickers(ctx context.Context) ([]string, error)
}

// PriceWarmer loads latest closes into the price cache
type PriceWarmer interface {
	Warm(ctx context.Context, tickers []string) (int, error)
}

// Backupper creates and ships a database backup
type Backupper interface {
	Run(ctx context.Context) (string, error)
}

// PriceCacheWarmupJob keeps the latest closes of held tickers in the cache
// so plan requests do not hit the history database
type PriceCacheWarmupJob struct {
	tickers HeldTickerLister
	warmer  PriceWarmer
	timeout time.Duration
	log     zerolog.Logger
}

// NewPriceCacheWarmupJob creates a new PriceCacheWarmupJob
func NewPriceCacheWarmupJob(tickers HeldTickerLister, warmer PriceWarmer, log zerolog.Logger) *PriceCacheWarmupJob {
	return &PriceCacheWarmupJob{
		tickers: tickers,
		warmer:  warmer,
		timeout: time.Minute,
		log:     log.With().Str("job", "price_cache_warmup").Logger(),
	}
}

// Name returns the job name
func (j *PriceCacheWarmupJob) Name() string {
	return "price_cache_warmup"
}

// Run executes the warm-up
func (j *PriceCacheWarmupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	tickers, err := j.tickers.HeldTickers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list held tickers: %w", err)
	}
	if len(tickers) == 0 {
		j.log.Debug().Msg("No held tickers to warm")
		return nil
	}

	loaded, err := j.warmer.Warm(ctx, tickers)
	if err != nil {
		return fmt.Errorf("failed to warm price cache: %w", err)
	}

	j.log.Info().
		Int("tickers", len(tickers)).
		Int("loaded", loaded).
		Msg("Price cache warmed")
	return nil
}

// BackupJob runs the database backup
type BackupJob struct {
	backup  Backupper
	timeout time.Duration
	log     zerolog.Logger
}

// NewBackupJob creates a new BackupJob
func NewBackupJob(backup Backupper, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backup:  backup,
		timeout: 30 * time.Minute,
		log:     log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run executes the backup
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	key, err := j.backup.Run(ctx)
	if err != nil {
		return err
	}
	j.log.Info().Str("key", key).Msg("Backup stored")
	return nil
}
