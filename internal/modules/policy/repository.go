package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/domain"
)

// Repository persists policies, allocation targets and ticker
// classification in config.db
type Repository struct {
	configDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new policy repository
func NewRepository(configDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		configDB: configDB,
		log:      log.With().Str("repo", "policy").Logger(),
	}
}

// Load returns the snapshot of a portfolio. A portfolio without a stored
// policy gets the defaults; targets are ordered by bucket name.
func (r *Repository) Load(ctx context.Context, portfolioID int64) (*Snapshot, error) {
	snap := DefaultSnapshot()
	p := &snap.Policy

	var mode, stopSource, orderType string
	err := r.configDB.QueryRowContext(ctx, `
		SELECT cash_min_pct, cash_target_pct, cash_max_pct, max_position_pct, max_sector_pct,
		       signal_sizing_mode, signal_step_pct, signal_strong_step_pct, signal_exit_threshold_pct,
		       signal_min_trade_eur, signal_risk_per_trade_pct, signal_atr_period, signal_atr_mult,
		       signal_stop_source, signal_stop_order_type, signal_stop_limit_buffer_bps
		FROM portfolio_policy
		WHERE portfolio_id = ?
	`, portfolioID).Scan(
		&p.CashMinPct, &p.CashTargetPct, &p.CashMaxPct, &p.MaxPositionPct, &p.MaxSectorPct,
		&mode, &p.SignalStepPct, &p.SignalStrongStepPct, &p.SignalExitThresholdPct,
		&p.SignalMinTradeEUR, &p.SignalRiskPerTradePct, &p.SignalATRPeriod, &p.SignalATRMult,
		&stopSource, &orderType, &p.SignalStopLimitBufferBps,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		r.log.Debug().Int64("portfolio_id", portfolioID).Msg("No stored policy, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to load policy: %w", err)
	default:
		p.SignalSizingMode = SizingMode(mode)
		p.SignalStopSource = StopSource(stopSource)
		p.SignalStopOrderType = StopOrderType(orderType)
		p.Normalize()
	}

	snap.SectorTargets, err = r.loadTargets(ctx, "portfolio_sector_targets", "sector_name", portfolioID)
	if err != nil {
		return nil, err
	}
	snap.RegionTargets, err = r.loadTargets(ctx, "portfolio_region_targets", "region_name", portfolioID)
	if err != nil {
		return nil, err
	}

	return &snap, nil
}

func (r *Repository) loadTargets(ctx context.Context, table, column string, portfolioID int64) ([]Target, error) {
	rows, err := r.configDB.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s, target_pct, min_pct, max_pct
		FROM %s
		WHERE portfolio_id = ?
		ORDER BY %s COLLATE NOCASE
	`, column, table, column), portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	targets := []Target{}
	for rows.Next() {
		var t Target
		var min, max sql.NullFloat64
		if err := rows.Scan(&t.Bucket, &t.TargetPct, &min, &max); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		if min.Valid {
			t.MinPct = &min.Float64
		}
		if max.Valid {
			t.MaxPct = &max.Float64
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// Save replaces the policy and all targets of a portfolio in one transaction
func (r *Repository) Save(ctx context.Context, portfolioID int64, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	p := snap.Policy

	err := database.WithTransaction(r.configDB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO portfolio_policy (
				portfolio_id, cash_min_pct, cash_target_pct, cash_max_pct, max_position_pct, max_sector_pct,
				signal_sizing_mode, signal_step_pct, signal_strong_step_pct, signal_exit_threshold_pct,
				signal_min_trade_eur, signal_risk_per_trade_pct, signal_atr_period, signal_atr_mult,
				signal_stop_source, signal_stop_order_type, signal_stop_limit_buffer_bps, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, portfolioID, p.CashMinPct, p.CashTargetPct, p.CashMaxPct, p.MaxPositionPct, p.MaxSectorPct,
			string(p.SignalSizingMode), p.SignalStepPct, p.SignalStrongStepPct, p.SignalExitThresholdPct,
			p.SignalMinTradeEUR, p.SignalRiskPerTradePct, p.SignalATRPeriod, p.SignalATRMult,
			string(p.SignalStopSource), string(p.SignalStopOrderType), p.SignalStopLimitBufferBps,
			time.Now().Unix())
		if err != nil {
			return fmt.Errorf("failed to save policy: %w", err)
		}

		if err := replaceTargets(ctx, tx, "portfolio_sector_targets", "sector_name", portfolioID, snap.SectorTargets); err != nil {
			return err
		}
		return replaceTargets(ctx, tx, "portfolio_region_targets", "region_name", portfolioID, snap.RegionTargets)
	})
	if err != nil {
		return err
	}

	if sum, off := snap.TargetSum(); off {
		r.log.Warn().
			Int64("portfolio_id", portfolioID).
			Float64("target_sum", sum).
			Msg("Sector targets plus cash target do not add up to 100%")
	}
	r.log.Info().Int64("portfolio_id", portfolioID).Msg("Policy saved")
	return nil
}

func replaceTargets(ctx context.Context, tx *sql.Tx, table, column string, portfolioID int64, targets []Target) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE portfolio_id = ?", portfolioID); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}

	query := fmt.Sprintf("INSERT INTO %s (portfolio_id, %s, target_pct, min_pct, max_pct) VALUES (?, ?, ?, ?, ?)", table, column)
	for _, t := range targets {
		if _, err := tx.ExecContext(ctx, query, portfolioID, t.Bucket, t.TargetPct, t.MinPct, t.MaxPct); err != nil {
			return fmt.Errorf("failed to insert %s %s: %w", table, t.Bucket, err)
		}
	}
	return nil
}

// SetTickerMeta stores the sector and region of a ticker. Empty values remove the mapping.
func (r *Repository) SetTickerMeta(ctx context.Context, ticker string, meta domain.TickerMeta) error {
	ticker = domain.NormalizeTicker(ticker)

	return database.WithTransaction(r.configDB, func(tx *sql.Tx) error {
		if err := upsertOrDelete(ctx, tx, "ticker_sectors", "sector", ticker, meta.Sector); err != nil {
			return err
		}
		return upsertOrDelete(ctx, tx, "ticker_regions", "region", ticker, meta.Region)
	})
}

func upsertOrDelete(ctx context.Context, tx *sql.Tx, table, column, ticker, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE ticker = ?", ticker); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
		return nil
	}

	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (ticker, %s) VALUES (?, ?)", table, column)
	if _, err := tx.ExecContext(ctx, query, ticker, value); err != nil {
		return fmt.Errorf("failed to upsert %s: %w", table, err)
	}
	return nil
}

// TickerMetadata returns sector and region for each requested ticker that has any classification
func (r *Repository) TickerMetadata(ctx context.Context, tickers []string) (map[string]domain.TickerMeta, error) {
	sectors, err := r.lookup(ctx, "ticker_sectors", "sector", tickers)
	if err != nil {
		return nil, err
	}
	regions, err := r.lookup(ctx, "ticker_regions", "region", tickers)
	if err != nil {
		return nil, err
	}

	meta := make(map[string]domain.TickerMeta)
	for ticker, sector := range sectors {
		m := meta[ticker]
		m.Sector = sector
		meta[ticker] = m
	}
	for ticker, region := range regions {
		m := meta[ticker]
		m.Region = region
		meta[ticker] = m
	}
	return meta, nil
}

// TickerSectors returns the sector of each requested ticker, "" when unmapped
func (r *Repository) TickerSectors(ctx context.Context, tickers []string) (map[string]string, error) {
	sectors, err := r.lookup(ctx, "ticker_sectors", "sector", tickers)
	if err != nil {
		return nil, err
	}
	result := make(map[string]string, len(tickers))
	for _, t := range tickers {
		result[t] = sectors[t]
	}
	return result, nil
}

func (r *Repository) lookup(ctx context.Context, table, column string, tickers []string) (map[string]string, error) {
	result := make(map[string]string)
	if len(tickers) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tickers)), ",")
	args := make([]interface{}, len(tickers))
	for i, t := range tickers {
		args[i] = t
	}

	rows, err := r.configDB.QueryContext(ctx,
		fmt.Sprintf("SELECT ticker, %s FROM %s WHERE ticker IN (%s)", column, table, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ticker, value string
		if err := rows.Scan(&ticker, &value); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		result[ticker] = value
	}
	return result, rows.Err()
}

// Import saves a parsed YAML document: policy, targets and ticker classification
func (r *Repository) Import(ctx context.Context, portfolioID int64, doc *Document) error {
	if err := r.Save(ctx, portfolioID, doc.Snapshot); err != nil {
		return err
	}
	for ticker, meta := range doc.Tickers {
		if err := r.SetTickerMeta(ctx, ticker, meta); err != nil {
			return fmt.Errorf("failed to store classification for %s: %w", ticker, err)
		}
	}
	return nil
}
