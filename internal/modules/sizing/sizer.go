package sizing

import (
	"sort"

	"github.com/aristath/folio/internal/modules/signals"
)

// BuildSignalTradeTargets sizes every BUY and SELL signal with the policy's
// sizing rule. It returns nothing when sizing is off. Results are ordered by
// ticker.
func BuildSignalTradeTargets(in Inputs) []TradeTarget {
	rule, ok := RuleFor(in.Policy.SignalSizingMode)
	if !ok {
		return []TradeTarget{}
	}

	weights := make(map[string]float64, len(in.Holdings))
	held := make(map[string]float64, len(in.Holdings))
	for _, h := range in.Holdings {
		value := h.ValueEUR
		if price := in.Prices[h.Ticker]; price > 0 {
			value = h.Shares * price
		}
		if in.NAV > 0 {
			weights[h.Ticker] = value / in.NAV * 100
		}
		held[h.Ticker] = h.Shares
	}

	tickers := make([]string, 0, len(in.Signals))
	for ticker := range in.Signals {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	targets := []TradeTarget{}
	for _, ticker := range tickers {
		sig := in.Signals[ticker]
		if sig.Direction == signals.DirectionHold {
			continue
		}

		c := sizingContext{
			ticker:        ticker,
			signal:        sig,
			currentWeight: weights[ticker],
			heldShares:    held[ticker],
			nav:           in.NAV,
			price:         in.Prices[ticker],
			params:        in.Strategies[ticker],
			bars:          in.OHLCV[ticker],
			policy:        in.Policy,
		}
		t := rule.Size(c)
		if t == nil {
			continue
		}
		if !t.Skipped && t.DeltaShares != 0 {
			suggestStop(t, c.price, c.params, c.bars, in.Policy)
		}
		targets = append(targets, *t)
	}
	return targets
}
