package rebalancing

import (
	"math"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/signals"
	"github.com/aristath/folio/internal/modules/sizing"
)

// ComputeSignalTrades converts BUY/SELL signals into whole-share trades using
// the percentage carried in each signal (10% when absent). Buys of tickers
// not held are sized against LegacyBaseValueEUR. Buys round down, sells
// round up and never exceed the shares held. Signals without a positive
// price are skipped.
func ComputeSignalTrades(positions []domain.Position, list []signals.Signal, prices map[string]float64) []TradeProposal {
	held := make(map[string]float64, len(positions))
	for _, p := range positions {
		held[p.Ticker] = p.Shares
	}

	trades := []TradeProposal{}
	for _, sig := range list {
		if sig.Direction == signals.DirectionHold {
			continue
		}

		price, ok := prices[sig.Ticker]
		if !ok || price <= 0 {
			continue
		}

		pct := sig.Percentage()
		shares := held[sig.Ticker]

		switch sig.Direction {
		case signals.DirectionBuy:
			base := shares * price
			if base <= 0 {
				base = LegacyBaseValueEUR
			}
			delta := int(base * pct / 100 / price)
			if delta <= 0 {
				continue
			}
			trades = append(trades, signalTrade(sig, delta, price))

		case signals.DirectionSell:
			if shares <= 0 {
				continue
			}
			delta := -int(shares*pct/100 + 0.9999)
			if math.Abs(float64(delta)) > shares {
				delta = -int(shares)
			}
			if delta == 0 {
				continue
			}
			trades = append(trades, signalTrade(sig, delta, price))
		}
	}
	return trades
}

func signalTrade(sig signals.Signal, delta int, price float64) TradeProposal {
	return TradeProposal{
		Ticker:       sig.Ticker,
		Layer:        LayerSignal,
		Signal:       string(sig.Direction),
		SharesDelta:  delta,
		Price:        price,
		EstimatedEUR: float64(delta) * price,
		Reason:       sig.Reason,
	}
}

// FromTargets converts sized targets into proposals. Skipped targets are kept
// as zero-share Skipped proposals so the plan shows why nothing was traded.
func FromTargets(targets []sizing.TradeTarget, prices map[string]float64) []TradeProposal {
	trades := make([]TradeProposal, 0, len(targets))
	for _, t := range targets {
		price := prices[t.Ticker]
		if t.Skipped {
			trades = append(trades, TradeProposal{
				Ticker: t.Ticker,
				Layer:  LayerSkipped,
				Signal: string(t.Signal),
				Price:  price,
				Reason: "Skipped: " + t.Reason,
			})
			continue
		}
		if t.DeltaShares == 0 {
			continue
		}
		trades = append(trades, TradeProposal{
			Ticker:       t.Ticker,
			Layer:        LayerSignal,
			Signal:       string(t.Signal),
			SharesDelta:  t.DeltaShares,
			Price:        price,
			EstimatedEUR: float64(t.DeltaShares) * price,
			Reason:       t.Reason,
			StopPrice:    t.StopPrice,
			LimitPrice:   t.LimitPrice,
		})
	}
	return trades
}
