package signals

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/domain"
)

// Repository reads and writes the signals backlog and saved strategies in config.db
type Repository struct {
	configDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new signals repository
func NewRepository(configDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		configDB: configDB,
		log:      log.With().Str("repo", "signals").Logger(),
	}
}

// Record appends a signal to the backlog. An empty timestamp is set to now.
func (r *Repository) Record(ctx context.Context, portfolioID int64, s Signal) (Signal, error) {
	s.Ticker = domain.NormalizeTicker(s.Ticker)
	s.Direction = ParseDirection(string(s.Direction))
	if s.Timestamp == "" {
		s.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	result, err := r.configDB.ExecContext(ctx, `
		INSERT INTO signals_backlog (portfolio_id, ts, ticker, strategy_key, signal, reason, meta_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, portfolioID, s.Timestamp, s.Ticker, s.StrategyKey, string(s.Direction), s.Reason, s.MetaJSON)
	if err != nil {
		return s, fmt.Errorf("failed to insert signal: %w", err)
	}

	if s.ID, err = result.LastInsertId(); err != nil {
		return s, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return s, nil
}

// LatestSignals returns the most recent signal per ticker, ordered by ticker
func (r *Repository) LatestSignals(ctx context.Context, portfolioID int64) ([]Signal, error) {
	rows, err := r.configDB.QueryContext(ctx, `
		SELECT s.id, s.ts, s.ticker, s.strategy_key, s.signal, s.reason, s.meta_json
		FROM signals_backlog s
		WHERE s.portfolio_id = ?
		  AND s.id = (
			SELECT s2.id FROM signals_backlog s2
			WHERE s2.portfolio_id = s.portfolio_id AND s2.ticker = s.ticker
			ORDER BY s2.ts DESC, s2.id DESC
			LIMIT 1
		  )
		ORDER BY s.ticker
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	list := []Signal{}
	for rows.Next() {
		var s Signal
		var direction string
		if err := rows.Scan(&s.ID, &s.Timestamp, &s.Ticker, &s.StrategyKey, &direction, &s.Reason, &s.MetaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		s.Direction = ParseDirection(direction)
		list = append(list, s)
	}
	return list, rows.Err()
}

// SaveStrategy inserts or replaces a saved strategy identified by (portfolio, ticker, name)
func (r *Repository) SaveStrategy(ctx context.Context, portfolioID int64, st SavedStrategy) (SavedStrategy, error) {
	st.Ticker = domain.NormalizeTicker(st.Ticker)
	params, err := json.Marshal(st.Params)
	if err != nil {
		return st, fmt.Errorf("failed to encode strategy params: %w", err)
	}

	err = r.configDB.QueryRowContext(ctx, `
		INSERT INTO saved_strategies (portfolio_id, ticker, name, base_strategy_key, params_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(portfolio_id, ticker, name) DO UPDATE SET
			base_strategy_key = excluded.base_strategy_key,
			params_json = excluded.params_json
		RETURNING id
	`, portfolioID, st.Ticker, st.Name, st.BaseStrategyKey, string(params)).Scan(&st.ID)
	if err != nil {
		return st, fmt.Errorf("failed to save strategy: %w", err)
	}
	return st, nil
}

// AssignStrategy makes a saved strategy the active one for its ticker
func (r *Repository) AssignStrategy(ctx context.Context, portfolioID int64, ticker string, strategyID int64) error {
	return database.WithTransaction(r.configDB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO ticker_strategy_assignment (portfolio_id, ticker, saved_strategy_id)
			VALUES (?, ?, ?)
		`, portfolioID, domain.NormalizeTicker(ticker), strategyID)
		if err != nil {
			return fmt.Errorf("failed to assign strategy: %w", err)
		}
		return nil
	})
}

// AssignedParams returns the parameters of the strategy assigned to each ticker.
// Tickers with unparseable params are logged and skipped.
func (r *Repository) AssignedParams(ctx context.Context, portfolioID int64) (map[string]StrategyParams, error) {
	rows, err := r.configDB.QueryContext(ctx, `
		SELECT a.ticker, s.params_json
		FROM ticker_strategy_assignment a
		JOIN saved_strategies s ON s.id = a.saved_strategy_id
		WHERE a.portfolio_id = ?
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategy assignments: %w", err)
	}
	defer rows.Close()

	result := make(map[string]StrategyParams)
	for rows.Next() {
		var ticker, raw string
		if err := rows.Scan(&ticker, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan strategy assignment: %w", err)
		}

		params := StrategyParams{}
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			r.log.Warn().Err(err).Str("ticker", ticker).Msg("Ignoring malformed strategy params")
			continue
		}
		result[ticker] = params
	}
	return result, rows.Err()
}
