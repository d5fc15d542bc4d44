package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
)

// Repository persists trades and cash movements in ledger.db.
// Rows are never updated; corrections are made by deleting and re-inserting.
type Repository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new ledger repository
func NewRepository(ledgerDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "ledger").Logger(),
	}
}

// ListTrades returns all trades of a portfolio in replay order
func (r *Repository) ListTrades(ctx context.Context, portfolioID int64) ([]domain.LedgerTrade, error) {
	rows, err := r.ledgerDB.QueryContext(ctx, `
		SELECT id, ticker, transaction_type, shares, price_eur, commission, transaction_date, notes
		FROM transactions
		WHERE portfolio_id = ?
		ORDER BY transaction_date ASC, id ASC
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []domain.LedgerTrade{}
	for rows.Next() {
		var t domain.LedgerTrade
		var side string
		if err := rows.Scan(&t.ID, &t.Ticker, &side, &t.Shares, &t.PriceEUR, &t.Commission, &t.Date, &t.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.Side = domain.TradeSide(side)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}

	return trades, nil
}

// ListCashMovements returns all cash movements of a portfolio in replay order
func (r *Repository) ListCashMovements(ctx context.Context, portfolioID int64) ([]domain.CashMovement, error) {
	rows, err := r.ledgerDB.QueryContext(ctx, `
		SELECT id, cash_type, amount_eur, transaction_date, notes
		FROM cash_transactions
		WHERE portfolio_id = ?
		ORDER BY transaction_date ASC, id ASC
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash movements: %w", err)
	}
	defer rows.Close()

	movements := []domain.CashMovement{}
	for rows.Next() {
		var m domain.CashMovement
		var cashType string
		if err := rows.Scan(&m.ID, &cashType, &m.AmountEUR, &m.Date, &m.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan cash movement: %w", err)
		}
		m.Type = domain.CashType(cashType)
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cash movements: %w", err)
	}

	return movements, nil
}

// InsertTrade appends a trade and returns it with its id set
func (r *Repository) InsertTrade(ctx context.Context, portfolioID int64, trade domain.LedgerTrade) (domain.LedgerTrade, error) {
	trade.Ticker = domain.NormalizeTicker(trade.Ticker)

	result, err := r.ledgerDB.ExecContext(ctx, `
		INSERT INTO transactions (
			portfolio_id, ticker, transaction_type, shares, price_eur, commission,
			transaction_date, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, portfolioID, trade.Ticker, string(trade.Side), trade.Shares, trade.PriceEUR,
		trade.Commission, trade.Date, trade.Notes, time.Now().Unix())
	if err != nil {
		return trade, fmt.Errorf("failed to insert trade: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return trade, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	trade.ID = id

	r.log.Info().
		Int64("portfolio_id", portfolioID).
		Str("ticker", trade.Ticker).
		Str("side", string(trade.Side)).
		Float64("shares", trade.Shares).
		Msg("Trade recorded")

	return trade, nil
}

// InsertCashMovement appends a cash movement and returns it with its id set
func (r *Repository) InsertCashMovement(ctx context.Context, portfolioID int64, movement domain.CashMovement) (domain.CashMovement, error) {
	result, err := r.ledgerDB.ExecContext(ctx, `
		INSERT INTO cash_transactions (
			portfolio_id, cash_type, amount_eur, transaction_date, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`, portfolioID, string(movement.Type), movement.AmountEUR, movement.Date, movement.Notes, time.Now().Unix())
	if err != nil {
		return movement, fmt.Errorf("failed to insert cash movement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return movement, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	movement.ID = id

	r.log.Info().
		Int64("portfolio_id", portfolioID).
		Str("cash_type", string(movement.Type)).
		Float64("amount_eur", movement.AmountEUR).
		Msg("Cash movement recorded")

	return movement, nil
}

// DeleteTrade removes a trade. Returns sql.ErrNoRows if it does not exist.
func (r *Repository) DeleteTrade(ctx context.Context, portfolioID, tradeID int64) error {
	return r.deleteRow(ctx, "transactions", portfolioID, tradeID)
}

// DeleteCashMovement removes a cash movement. Returns sql.ErrNoRows if it does not exist.
func (r *Repository) DeleteCashMovement(ctx context.Context, portfolioID, movementID int64) error {
	return r.deleteRow(ctx, "cash_transactions", portfolioID, movementID)
}

func (r *Repository) deleteRow(ctx context.Context, table string, portfolioID, id int64) error {
	result, err := r.ledgerDB.ExecContext(ctx,
		"DELETE FROM "+table+" WHERE portfolio_id = ? AND id = ?", portfolioID, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	r.log.Warn().Str("table", table).Int64("id", id).Msg("Ledger row deleted")
	return nil
}

// TradedTickers returns the distinct tickers that appear in a portfolio's trades
func (r *Repository) TradedTickers(ctx context.Context, portfolioID int64) ([]string, error) {
	rows, err := r.ledgerDB.QueryContext(ctx, `
		SELECT DISTINCT ticker FROM transactions WHERE portfolio_id = ? ORDER BY ticker
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query traded tickers: %w", err)
	}
	defer rows.Close()

	tickers := []string{}
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	return tickers, rows.Err()
}

// HeldTickers returns the tickers with a positive net share count in any portfolio
func (r *Repository) HeldTickers(ctx context.Context) ([]string, error) {
	rows, err := r.ledgerDB.QueryContext(ctx, `
		SELECT DISTINCT ticker FROM (
			SELECT portfolio_id, ticker,
			       SUM(CASE WHEN transaction_type = 'buy' THEN shares ELSE -shares END) AS net
			FROM transactions
			GROUP BY portfolio_id, ticker
		)
		WHERE net > ?
		ORDER BY ticker
	`, domain.DustShares)
	if err != nil {
		return nil, fmt.Errorf("failed to query held tickers: %w", err)
	}
	defer rows.Close()

	tickers := []string{}
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	return tickers, rows.Err()
}

// Snapshot is the ledger of a portfolio projected into positions and cash
type Snapshot struct {
	Trades        []domain.LedgerTrade  `json:"-"`
	CashMovements []domain.CashMovement `json:"-"`
	Positions     []domain.Position     `json:"positions"`
	Cash          float64               `json:"cash"`
	Invested      float64               `json:"invested"`
	Method        CostBasisMethod       `json:"cost_basis_method"`
}

// LoadSnapshot reads the ledger of reader and projects it
func LoadSnapshot(ctx context.Context, reader domain.LedgerReader, portfolioID int64) (*Snapshot, error) {
	trades, err := reader.ListTrades(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	movements, err := reader.ListCashMovements(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	positions := ComputePositions(trades)
	return &Snapshot{
		Trades:        trades,
		CashMovements: movements,
		Positions:     positions,
		Cash:          ComputeCashBalance(movements, trades),
		Invested:      ComputeInvestedAmount(positions),
		Method:        Method,
	}, nil
}
