// Package ledger derives positions and cash from the immutable trade and
// cash-movement ledger, validates new entries and persists them.
package ledger

import (
	"sort"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/pkg/formulas"
)

// CostBasisMethod names how cost basis is carried through sells
type CostBasisMethod string

// AverageCost reduces total cost proportionally to the fraction of shares sold.
// Realized P&L is not tracked under this method.
const AverageCost CostBasisMethod = "AVERAGE_COST"

// Method is the cost basis method used by ComputePositions
const Method = AverageCost

type runningPosition struct {
	shares    float64
	totalCost float64
}

// ComputePositions folds trades, in the order given, into average-cost positions.
// Callers must pass trades ordered by date then id. Positions at or below
// domain.DustShares are dropped and the result is sorted by ticker.
func ComputePositions(trades []domain.LedgerTrade) []domain.Position {
	running := make(map[string]*runningPosition)

	for _, t := range trades {
		ticker := domain.NormalizeTicker(t.Ticker)
		pos, ok := running[ticker]
		if !ok {
			pos = &runningPosition{}
			running[ticker] = pos
		}

		switch t.Side {
		case domain.TradeSideBuy:
			pos.totalCost += t.Shares*t.PriceEUR + t.Commission
			pos.shares += t.Shares
		case domain.TradeSideSell:
			if pos.shares <= 0 {
				continue
			}
			if t.Shares >= pos.shares {
				pos.shares = 0
				pos.totalCost = 0
				continue
			}
			pos.totalCost *= 1 - t.Shares/pos.shares
			pos.shares -= t.Shares
		}
	}

	positions := make([]domain.Position, 0, len(running))
	for ticker, pos := range running {
		if pos.shares <= domain.DustShares {
			continue
		}
		positions = append(positions, domain.Position{
			Ticker:    ticker,
			Shares:    pos.shares,
			AvgCost:   pos.totalCost / pos.shares,
			CostBasis: pos.totalCost,
		})
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Ticker < positions[j].Ticker
	})
	return positions
}

// ComputeCashBalance sums cash movements and the cash impact of trades.
// Credits add, debits subtract; buys cost shares×price+commission and sells
// return shares×price−commission.
func ComputeCashBalance(movements []domain.CashMovement, trades []domain.LedgerTrade) float64 {
	balance := 0.0

	for _, m := range movements {
		switch m.Type {
		case domain.CashTypeCredit:
			balance += m.AmountEUR
		case domain.CashTypeDebit:
			balance -= m.AmountEUR
		}
	}

	for _, t := range trades {
		switch t.Side {
		case domain.TradeSideBuy:
			balance -= t.GrossValue() + t.Commission
		case domain.TradeSideSell:
			balance += t.GrossValue() - t.Commission
		}
	}

	return balance
}

// ComputeInvestedAmount returns the capital currently deployed (Σ cost basis)
func ComputeInvestedAmount(positions []domain.Position) float64 {
	costs := make([]float64, len(positions))
	for i, p := range positions {
		costs[i] = p.CostBasis
	}
	return formulas.Sum(costs)
}

// ComputeRealizedPnL always returns 0: average cost does not keep the
// per-lot history needed to attribute gains to individual sells.
func ComputeRealizedPnL(trades []domain.LedgerTrade) float64 {
	return 0
}

// Completeness reports which held tickers lack classification or prices
type Completeness struct {
	MissingSectors        int      `json:"missing_sectors"`
	MissingSectorsTickers []string `json:"missing_sectors_tickers"`
	HasPrices             bool     `json:"has_prices"`
}

// CheckDataCompleteness lists positions without a sector mapping. HasPrices is
// true only when prices is non-nil and holds a positive close for every position.
func CheckDataCompleteness(positions []domain.Position, tickerSectors map[string]string, prices map[string]float64) Completeness {
	result := Completeness{MissingSectorsTickers: []string{}}

	for _, p := range positions {
		if tickerSectors[p.Ticker] == "" {
			result.MissingSectorsTickers = append(result.MissingSectorsTickers, p.Ticker)
		}
	}
	result.MissingSectors = len(result.MissingSectorsTickers)

	if prices != nil {
		result.HasPrices = true
		for _, p := range positions {
			if prices[p.Ticker] <= 0 {
				result.HasPrices = false
				break
			}
		}
	}

	return result
}
