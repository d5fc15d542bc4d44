package domain

import "context"

// LedgerReader provides the ordered ledger for a portfolio.
// Both lists are ordered by transaction date ascending, then insertion id.
type LedgerReader interface {
	ListTrades(ctx context.Context, portfolioID int64) ([]LedgerTrade, error)
	ListCashMovements(ctx context.Context, portfolioID int64) ([]CashMovement, error)
}

// PriceSource provides latest closes and daily history in EUR
type PriceSource interface {
	// LatestCloses returns a close per ticker; tickers without data are omitted
	LatestCloses(ctx context.Context, tickers []string) (map[string]float64, error)
	// History returns up to limit bars ascending by date
	History(ctx context.Context, ticker string, limit int) ([]OHLCVBar, error)
}

// MetadataSource maps tickers to their sector and region.
// Tickers without classification are omitted.
type MetadataSource interface {
	TickerMetadata(ctx context.Context, tickers []string) (map[string]TickerMeta, error)
}
