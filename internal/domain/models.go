// Package domain provides the value types shared by the ledger, policy,
// pricing and rebalancing modules.
package domain

import "strings"

// Currency represents a currency code
type Currency string

const (
	CurrencyEUR Currency = "EUR"
)

// DustShares is the share count at or below which a position is treated as closed.
const DustShares = 0.0001

// UnknownBucket is used for tickers without sector or region metadata.
const UnknownBucket = "Unknown"

// TradeSide is the direction of a ledger trade
type TradeSide string

const (
	TradeSideBuy  TradeSide = "buy"
	TradeSideSell TradeSide = "sell"
)

// IsValid reports whether the side is buy or sell
func (s TradeSide) IsValid() bool {
	return s == TradeSideBuy || s == TradeSideSell
}

// CashType is the direction of a cash movement
type CashType string

const (
	CashTypeCredit CashType = "credit"
	CashTypeDebit  CashType = "debit"
)

// IsValid reports whether the cash type is credit or debit
func (c CashType) IsValid() bool {
	return c == CashTypeCredit || c == CashTypeDebit
}

// LedgerTrade is an immutable buy/sell record from the ledger.
// All amounts are in EUR.
type LedgerTrade struct {
	ID         int64     `json:"id"`
	Ticker     string    `json:"ticker"`
	Side       TradeSide `json:"transaction_type"`
	Shares     float64   `json:"shares"`
	PriceEUR   float64   `json:"price_eur"`
	Commission float64   `json:"commission"`
	Date       string    `json:"transaction_date"` // YYYY-MM-DD
	Notes      string    `json:"notes,omitempty"`
}

// GrossValue returns shares × price, excluding commission
func (t LedgerTrade) GrossValue() float64 {
	return t.Shares * t.PriceEUR
}

// CashMovement is an immutable deposit/withdrawal record from the ledger
type CashMovement struct {
	ID        int64    `json:"id"`
	Type      CashType `json:"cash_type"`
	AmountEUR float64  `json:"amount_eur"`
	Date      string   `json:"transaction_date"` // YYYY-MM-DD
	Notes     string   `json:"notes,omitempty"`
}

// Position is a holding derived from the ledger using average cost
type Position struct {
	Ticker    string  `json:"ticker"`
	Shares    float64 `json:"shares"`
	AvgCost   float64 `json:"avg_cost"`
	CostBasis float64 `json:"cost_basis"`
}

// MarketValue values the position at price, falling back to avg cost when
// no positive price is available
func (p Position) MarketValue(price float64, ok bool) float64 {
	if !ok || price <= 0 {
		return p.Shares * p.AvgCost
	}
	return p.Shares * price
}

// TickerMeta classifies a ticker for allocation purposes
type TickerMeta struct {
	Sector string `json:"sector"`
	Region string `json:"region"`
}

// SectorOrUnknown returns the sector or the Unknown bucket
func (m TickerMeta) SectorOrUnknown() string {
	if strings.TrimSpace(m.Sector) == "" {
		return UnknownBucket
	}
	return m.Sector
}

// RegionOrUnknown returns the region or the Unknown bucket
func (m TickerMeta) RegionOrUnknown() string {
	if strings.TrimSpace(m.Region) == "" {
		return UnknownBucket
	}
	return m.Region
}

// OHLCVBar is one daily price bar
type OHLCVBar struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// NormalizeTicker upper-cases and trims a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
