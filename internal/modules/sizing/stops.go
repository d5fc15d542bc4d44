package sizing

import (
	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/policy"
	"github.com/aristath/folio/internal/modules/signals"
	"github.com/aristath/folio/pkg/formulas"
)

// stopDistance returns the stop distance as a fraction of price. A strategy
// stop_loss_pct wins when the policy prefers it, then ATR × multiplier, then
// DefaultStopDistance.
func stopDistance(params signals.StrategyParams, bars []domain.OHLCVBar, price float64, p policy.Policy) float64 {
	if p.SignalStopSource == policy.StopSourceStrategy {
		if pct, ok := params.StopLossPct(); ok {
			if pct > 0 {
				return pct / 100
			}
			return DefaultStopDistance
		}
	}

	if price > 0 && len(bars) >= p.SignalATRPeriod+1 {
		if atr := barsATR(bars, p.SignalATRPeriod); atr > 0 {
			if dist := atr / price * p.SignalATRMult; dist > 0 {
				return dist
			}
		}
	}
	return DefaultStopDistance
}

func barsATR(bars []domain.OHLCVBar, period int) float64 {
	high := make([]float64, len(bars))
	low := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		high[i] = b.High
		low[i] = b.Low
		closes[i] = b.Close
	}
	return formulas.ATR(high, low, closes, period)
}

// suggestStop attaches protective stop and limit prices to a BUY target
func suggestStop(t *TradeTarget, lastClose float64, params signals.StrategyParams, bars []domain.OHLCVBar, p policy.Policy) {
	if lastClose <= 0 || t.Signal != signals.DirectionBuy {
		return
	}

	stop := lastClose * (1 - stopDistance(params, bars, lastClose, p))
	t.StopPrice = &stop
	if p.SignalStopOrderType == policy.StopOrderStopLimit {
		limit := stop * (1 - p.SignalStopLimitBufferBps/10000)
		t.LimitPrice = &limit
	}
	if len(bars) > 0 {
		t.ReferenceCloseDate = bars[len(bars)-1].Date
	}
}
