package sizing

import (
	"fmt"
	"math"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/policy"
	"github.com/aristath/folio/internal/modules/signals"
)

// sizingContext is the per-ticker state handed to a rule
type sizingContext struct {
	ticker        string
	signal        signals.SizingInput
	currentWeight float64
	heldShares    float64
	nav           float64
	price         float64
	params        signals.StrategyParams
	bars          []domain.OHLCVBar
	policy        policy.Policy
}

// Rule sizes a single BUY or SELL signal. A nil result means no trade.
type Rule interface {
	Mode() policy.SizingMode
	Size(c sizingContext) *TradeTarget
}

var rules = map[policy.SizingMode]Rule{
	policy.SizingModeStep:    stepRule{},
	policy.SizingModeRiskATR: riskATRRule{},
}

// RuleFor returns the rule for a sizing mode, or false when sizing is off
func RuleFor(mode policy.SizingMode) (Rule, bool) {
	r, ok := rules[mode]
	return r, ok
}

type stepRule struct{}

func (stepRule) Mode() policy.SizingMode { return policy.SizingModeStep }

func (stepRule) Size(c sizingContext) *TradeTarget {
	if c.price <= 0 || c.nav <= 0 {
		return nil
	}

	p := c.policy
	step := p.SignalStepPct
	if c.signal.Strength >= 2 {
		step = p.SignalStrongStepPct
	}

	var delta, target float64
	var action Action
	switch c.signal.Direction {
	case signals.DirectionBuy:
		delta = step
		target = c.currentWeight + delta
		if target > p.MaxPositionPct {
			delta = p.MaxPositionPct - c.currentWeight
			target = p.MaxPositionPct
		}
		if delta <= 0 {
			return nil
		}
		action = ActionBuy
		if c.currentWeight > 0 {
			action = ActionIncrease
		}
	case signals.DirectionSell:
		delta = -step
		target = c.currentWeight + delta
		action = ActionReduce
		if target < p.SignalExitThresholdPct {
			delta = -c.currentWeight
			target = 0
			action = ActionExit
		}
		if delta >= 0 {
			return nil
		}
	default:
		return nil
	}

	reason := fmt.Sprintf("%s signal (strength=%d), step=%.1f%%", c.signal.Direction, c.signal.Strength, step)
	return finish(c, policy.SizingModeStep, action, delta, target, reason)
}

type riskATRRule struct{}

func (riskATRRule) Mode() policy.SizingMode { return policy.SizingModeRiskATR }

func (riskATRRule) Size(c sizingContext) *TradeTarget {
	if c.price <= 0 || c.nav <= 0 {
		return nil
	}

	p := c.policy
	riskEUR := c.nav * p.SignalRiskPerTradePct / 100
	stopDist := stopDistance(c.params, c.bars, c.price, p)

	positionValue := riskEUR / stopDist
	target := positionValue / c.nav * 100
	if target > p.MaxPositionPct {
		target = p.MaxPositionPct
	}
	delta := target - c.currentWeight

	var action Action
	switch c.signal.Direction {
	case signals.DirectionBuy:
		if delta <= 0 {
			return nil
		}
		action = ActionBuy
		if c.currentWeight > 0 {
			action = ActionIncrease
		}
	case signals.DirectionSell:
		delta = -c.currentWeight
		target = 0
		action = ActionExit
		if delta >= 0 {
			return nil
		}
	default:
		return nil
	}

	reason := fmt.Sprintf("%s signal, risk=%.1f%%, stop=%.1f%%", c.signal.Direction, p.SignalRiskPerTradePct, stopDist*100)
	return finish(c, policy.SizingModeRiskATR, action, delta, target, reason)
}

// finish converts a weight delta into EUR and whole shares and applies the
// minimum trade value gate shared by every rule.
func finish(c sizingContext, rule policy.SizingMode, action Action, deltaWeight, targetWeight float64, reason string) *TradeTarget {
	deltaValue := deltaWeight / 100 * c.nav
	shares := truncShares(deltaValue / c.price)
	if shares < 0 && float64(-shares) > c.heldShares {
		shares = -int(c.heldShares)
	}

	tradeValue := math.Abs(float64(shares) * c.price)
	if tradeValue < c.policy.SignalMinTradeEUR {
		return &TradeTarget{
			Ticker:     c.ticker,
			Action:     action,
			Signal:     c.signal.Direction,
			SizingRule: rule,
			Skipped:    true,
			Reason:     fmt.Sprintf("Trade value €%.0f < min €%.0f", tradeValue, c.policy.SignalMinTradeEUR),
		}
	}

	return &TradeTarget{
		Ticker:          c.ticker,
		Action:          action,
		Signal:          c.signal.Direction,
		SizingRule:      rule,
		DeltaWeightPct:  deltaWeight,
		DeltaValueEUR:   deltaValue,
		DeltaShares:     shares,
		TargetWeightPct: targetWeight,
		Reason:          reason,
	}
}

// truncShares truncates toward zero, absorbing float noise such as 4.9999999999
func truncShares(x float64) int {
	return int(math.Trunc(x + math.Copysign(1e-9, x)))
}
