package rebalancing

import (
	"fmt"
	"sort"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/policy"
)

// ComputeCompensationTrades restores the cash band after signal trades.
// Below the minimum it sells from candidates in order, rounding each sale up
// and never past the shares held, until the shortfall is covered. Above the
// maximum it spreads the excess equally over candidates with a price,
// rounding buys down. Candidates default to every priced ticker, sorted,
// when none are given. Sector and region breaches are reported by drift
// but not compensated.
func ComputeCompensationTrades(state State, p policy.Policy, prices map[string]float64, candidates []string) []TradeProposal {
	trades := []TradeProposal{}
	if state.TotalValue <= 0 {
		return trades
	}

	if len(candidates) == 0 {
		candidates = make([]string, 0, len(prices))
		for ticker := range prices {
			candidates = append(candidates, ticker)
		}
		sort.Strings(candidates)
	}

	cash := state.Cash
	current := cash / state.TotalValue * 100

	switch {
	case current < p.CashMinPct:
		needed := p.CashMinPct/100*state.TotalValue - cash
		held := make(map[string]domain.Position, len(state.Positions))
		for _, pos := range state.Positions {
			held[pos.Ticker] = pos
		}

		for _, ticker := range candidates {
			if needed <= 0 {
				break
			}
			pos, ok := held[ticker]
			if !ok {
				continue
			}
			price := prices[ticker]
			if price <= 0 {
				continue
			}

			sell := int(needed/price + 0.9999)
			if whole := int(pos.Shares); sell > whole {
				sell = whole
			}
			if sell <= 0 {
				continue
			}

			value := float64(sell) * price
			trades = append(trades, TradeProposal{
				Ticker:       ticker,
				Layer:        LayerRebalance,
				Signal:       SignalRebalance,
				SharesDelta:  -sell,
				Price:        price,
				EstimatedEUR: -value,
				Reason:       fmt.Sprintf("Raise cash to meet %.1f%% minimum", p.CashMinPct),
			})
			needed -= value
			cash += value
		}

	case current > p.CashMaxPct:
		excess := cash - p.CashMaxPct/100*state.TotalValue
		buyable := make([]string, 0, len(candidates))
		for _, ticker := range candidates {
			if prices[ticker] > 0 {
				buyable = append(buyable, ticker)
			}
		}
		if len(buyable) == 0 || excess <= 0 {
			return trades
		}

		perTicker := excess / float64(len(buyable))
		for _, ticker := range buyable {
			price := prices[ticker]
			buy := int(perTicker / price)
			if buy <= 0 {
				continue
			}
			value := float64(buy) * price
			trades = append(trades, TradeProposal{
				Ticker:       ticker,
				Layer:        LayerRebalance,
				Signal:       SignalRebalance,
				SharesDelta:  buy,
				Price:        price,
				EstimatedEUR: value,
				Reason:       fmt.Sprintf("Deploy cash below %.1f%% maximum", p.CashMaxPct),
			})
			cash -= value
		}
	}
	return trades
}
