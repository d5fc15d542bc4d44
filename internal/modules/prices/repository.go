// Package prices stores daily OHLCV bars in the history database and serves
// latest closes through a bounded TTL cache.
package prices

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/domain"
)

// Repository reads and writes price bars in history.db
type Repository struct {
	historyDB *sql.DB
	log       zerolog.Logger
}

// NewRepository creates a new price repository
func NewRepository(historyDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		historyDB: historyDB,
		log:       log.With().Str("repo", "prices").Logger(),
	}
}

// LatestCloses returns the most recent close per ticker. Tickers without bars
// are omitted.
func (r *Repository) LatestCloses(ctx context.Context, tickers []string) (map[string]float64, error) {
	closes := make(map[string]float64, len(tickers))
	if len(tickers) == 0 {
		return closes, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tickers)), ",")
	args := make([]interface{}, len(tickers))
	for i, t := range tickers {
		args[i] = domain.NormalizeTicker(t)
	}

	query := fmt.Sprintf(`
		SELECT p.symbol, p.close
		FROM price_bars p
		JOIN (
			SELECT symbol, MAX(date) AS date
			FROM price_bars
			WHERE symbol IN (%s)
			GROUP BY symbol
		) latest ON latest.symbol = p.symbol AND latest.date = p.date
	`, placeholders)

	rows, err := r.historyDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest closes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var symbol string
		var price float64
		if err := rows.Scan(&symbol, &price); err != nil {
			return nil, fmt.Errorf("failed to scan latest close: %w", err)
		}
		closes[symbol] = price
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating latest closes: %w", err)
	}
	return closes, nil
}

// History returns up to limit of the most recent bars, ascending by date
func (r *Repository) History(ctx context.Context, ticker string, limit int) ([]domain.OHLCVBar, error) {
	rows, err := r.historyDB.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume
		FROM price_bars
		WHERE symbol = ?
		ORDER BY date DESC
		LIMIT ?
	`, domain.NormalizeTicker(ticker), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var bars []domain.OHLCVBar
	for rows.Next() {
		var b domain.OHLCVBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}

	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// UpsertBars inserts or replaces bars for a ticker in one transaction
func (r *Repository) UpsertBars(ctx context.Context, ticker string, bars []domain.OHLCVBar) error {
	symbol := domain.NormalizeTicker(ticker)
	err := database.WithTransaction(r.historyDB, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO price_bars (symbol, date, open, high, low, close, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, b := range bars {
			if b.Date == "" || b.Close <= 0 {
				return fmt.Errorf("invalid bar for %s on %q: close must be positive and date set", symbol, b.Date)
			}
			if _, err := stmt.ExecContext(ctx, symbol, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
				return fmt.Errorf("failed to insert price bar for %s: %w", b.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().Str("ticker", symbol).Int("count", len(bars)).Msg("Stored price bars")
	return nil
}
