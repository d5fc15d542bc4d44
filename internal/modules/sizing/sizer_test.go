package sizing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/policy"
	"github.com/aristath/folio/internal/modules/signals"
)

func stepPolicy() policy.Policy {
	p := policy.Defaults()
	p.SignalSizingMode = policy.SizingModeStep
	return p
}

func riskPolicy() policy.Policy {
	p := policy.Defaults()
	p.SignalSizingMode = policy.SizingModeRiskATR
	return p
}

func buy(strength int) signals.SizingInput {
	return signals.SizingInput{Direction: signals.DirectionBuy, Strength: strength, Confidence: 1}
}

func sell() signals.SizingInput {
	return signals.SizingInput{Direction: signals.DirectionSell, Strength: 1, Confidence: 1}
}

func flatBars(n int, close float64) []domain.OHLCVBar {
	bars := make([]domain.OHLCVBar, n)
	for i := range bars {
		bars[i] = domain.OHLCVBar{
			Date:  fmt.Sprintf("2024-01-%02d", i+1),
			Open:  close,
			High:  close + 1,
			Low:   close - 1,
			Close: close,
		}
	}
	return bars
}

func TestBuildSignalTradeTargets_Off(t *testing.T) {
	targets := BuildSignalTradeTargets(Inputs{
		NAV:     10000,
		Prices:  map[string]float64{"AAPL": 100},
		Signals: map[string]signals.SizingInput{"AAPL": buy(1)},
		Policy:  policy.Defaults(),
	})
	assert.Empty(t, targets)
}

func TestStep_MinTradeSkip(t *testing.T) {
	targets := BuildSignalTradeTargets(Inputs{
		NAV:     10000,
		Prices:  map[string]float64{"ASML": 500},
		Signals: map[string]signals.SizingInput{"ASML": buy(1)},
		Policy:  stepPolicy(),
	})

	require.Len(t, targets, 1)
	got := targets[0]
	assert.True(t, got.Skipped)
	assert.Equal(t, 0, got.DeltaShares)
	assert.Equal(t, 0.0, got.DeltaValueEUR)
	assert.Equal(t, 0.0, got.DeltaWeightPct)
	assert.Equal(t, "Trade value €0 < min €250", got.Reason)
	assert.Nil(t, got.StopPrice)
}

func TestStep_BuyWithDefaultStop(t *testing.T) {
	targets := BuildSignalTradeTargets(Inputs{
		NAV:     100000,
		Prices:  map[string]float64{"AAPL": 100},
		Signals: map[string]signals.SizingInput{"AAPL": buy(1)},
		Policy:  stepPolicy(),
	})

	require.Len(t, targets, 1)
	got := targets[0]
	assert.False(t, got.Skipped)
	assert.Equal(t, ActionBuy, got.Action)
	assert.Equal(t, policy.SizingModeStep, got.SizingRule)
	assert.Equal(t, 10, got.DeltaShares)
	assert.InDelta(t, 1000.0, got.DeltaValueEUR, 1e-9)
	assert.Equal(t, "BUY signal (strength=1), step=1.0%", got.Reason)
	require.NotNil(t, got.StopPrice)
	require.NotNil(t, got.LimitPrice)
	assert.InDelta(t, 92.0, *got.StopPrice, 1e-9)
	assert.InDelta(t, 91.77, *got.LimitPrice, 1e-9)
	assert.Empty(t, got.ReferenceCloseDate)
}

func TestStep_StrongBuyCappedAtMaxPosition(t *testing.T) {
	targets := BuildSignalTradeTargets(Inputs{
		Holdings: []Holding{{Ticker: "AAPL", Shares: 95, ValueEUR: 9000}},
		NAV:      100000,
		Prices:   map[string]float64{"AAPL": 100},
		Signals:  map[string]signals.SizingInput{"AAPL": buy(2)},
		Policy:   stepPolicy(),
	})

	require.Len(t, targets, 1)
	got := targets[0]
	assert.Equal(t, ActionIncrease, got.Action)
	assert.InDelta(t, 0.5, got.DeltaWeightPct, 1e-9)
	assert.InDelta(t, 10.0, got.TargetWeightPct, 1e-9)
	assert.Equal(t, 5, got.DeltaShares)
	assert.Equal(t, "BUY signal (strength=2), step=2.0%", got.Reason)
}

func TestStep_BuyAtMaxPositionIsDropped(t *testing.T) {
	targets := BuildSignalTradeTargets(Inputs{
		Holdings: []Holding{{Ticker: "AAPL", Shares: 100}},
		NAV:      100000,
		Prices:   map[string]float64{"AAPL": 100},
		Signals:  map[string]signals.SizingInput{"AAPL": buy(1)},
		Policy:   stepPolicy(),
	})
	assert.Empty(t, targets)
}

func TestStep_SellReduceAndExit(t *testing.T) {
	targets := BuildSignalTradeTargets(Inputs{
		Holdings: []Holding{
			{Ticker: "BIG", Shares: 50},
			{Ticker: "SMALL", Shares: 6},
		},
		NAV:    100000,
		Prices: map[string]float64{"BIG": 100, "SMALL": 100},
		Signals: map[string]signals.SizingInput{
			"SMALL": sell(),
			"BIG":   sell(),
		},
		Policy: stepPolicy(),
	})

	require.Len(t, targets, 2)

	big := targets[0]
	assert.Equal(t, "BIG", big.Ticker)
	assert.Equal(t, ActionReduce, big.Action)
	assert.Equal(t, -10, big.DeltaShares)
	assert.InDelta(t, 4.0, big.TargetWeightPct, 1e-9)
	assert.Nil(t, big.StopPrice)

	small := targets[1]
	assert.Equal(t, "SMALL", small.Ticker)
	assert.Equal(t, ActionExit, small.Action)
	assert.Equal(t, -6, small.DeltaShares)
	assert.Equal(t, 0.0, small.TargetWeightPct)
}

func TestStep_SkipsMissingPriceAndHold(t *testing.T) {
	targets := BuildSignalTradeTargets(Inputs{
		NAV:    100000,
		Prices: map[string]float64{"HELD": 100},
		Signals: map[string]signals.SizingInput{
			"NOPRICE": buy(1),
			"HELD":    {Direction: signals.DirectionHold},
		},
		Policy: stepPolicy(),
	})
	assert.Empty(t, targets)
}

func TestRiskATR_StrategyStop(t *testing.T) {
	targets := BuildSignalTradeTargets(Inputs{
		NAV:        100000,
		Prices:     map[string]float64{"AAPL": 100},
		Signals:    map[string]signals.SizingInput{"AAPL": buy(1)},
		Strategies: map[string]signals.StrategyParams{"AAPL": {"stop_loss_pct": 5.0}},
		Policy:     riskPolicy(),
	})

	require.Len(t, targets, 1)
	got := targets[0]
	assert.Equal(t, policy.SizingModeRiskATR, got.SizingRule)
	assert.InDelta(t, 10.0, got.TargetWeightPct, 1e-9)
	assert.Equal(t, 100, got.DeltaShares)
	assert.Equal(t, "BUY signal, risk=0.5%, stop=5.0%", got.Reason)
	require.NotNil(t, got.StopPrice)
	assert.InDelta(t, 95.0, *got.StopPrice, 1e-9)
	assert.InDelta(t, 94.7625, *got.LimitPrice, 1e-9)
}

func TestRiskATR_UsesATRWhenConfigured(t *testing.T) {
	p := riskPolicy()
	p.SignalStopSource = policy.StopSourceATR
	p.SignalStopOrderType = policy.StopOrderStop
	p.MaxPositionPct = 20
	bars := flatBars(15, 100)

	targets := BuildSignalTradeTargets(Inputs{
		NAV:        100000,
		Prices:     map[string]float64{"AAPL": 100},
		Signals:    map[string]signals.SizingInput{"AAPL": buy(1)},
		Strategies: map[string]signals.StrategyParams{"AAPL": {"stop_loss_pct": 5.0}},
		Policy:     p,
		OHLCV:      map[string][]domain.OHLCVBar{"AAPL": bars},
	})

	require.Len(t, targets, 1)
	got := targets[0]
	// ATR 2, stop distance 2/100 × 2 = 4%, position 500 / 0.04 = 12500
	assert.InDelta(t, 12.5, got.TargetWeightPct, 1e-6)
	assert.Equal(t, 125, got.DeltaShares)
	assert.Equal(t, "BUY signal, risk=0.5%, stop=4.0%", got.Reason)
	require.NotNil(t, got.StopPrice)
	assert.InDelta(t, 96.0, *got.StopPrice, 1e-6)
	assert.Nil(t, got.LimitPrice)
	assert.Equal(t, "2024-01-15", got.ReferenceCloseDate)
}

func TestRiskATR_FallbackStop(t *testing.T) {
	targets := BuildSignalTradeTargets(Inputs{
		NAV:     100000,
		Prices:  map[string]float64{"AAPL": 100},
		Signals: map[string]signals.SizingInput{"AAPL": buy(1)},
		Policy:  riskPolicy(),
		OHLCV:   map[string][]domain.OHLCVBar{"AAPL": flatBars(5, 100)},
	})

	require.Len(t, targets, 1)
	assert.Equal(t, 62, targets[0].DeltaShares)
	assert.Equal(t, "BUY signal, risk=0.5%, stop=8.0%", targets[0].Reason)
	assert.Equal(t, "2024-01-05", targets[0].ReferenceCloseDate)
}

func TestRiskATR_SellExitsWholePosition(t *testing.T) {
	targets := BuildSignalTradeTargets(Inputs{
		Holdings: []Holding{{Ticker: "AAPL", Shares: 30}},
		NAV:      100000,
		Prices:   map[string]float64{"AAPL": 100},
		Signals:  map[string]signals.SizingInput{"AAPL": sell()},
		Policy:   riskPolicy(),
	})

	require.Len(t, targets, 1)
	assert.Equal(t, ActionExit, targets[0].Action)
	assert.Equal(t, -30, targets[0].DeltaShares)
	assert.Nil(t, targets[0].StopPrice)
}

func TestRiskATR_SellWithoutPositionIsDropped(t *testing.T) {
	targets := BuildSignalTradeTargets(Inputs{
		NAV:     100000,
		Prices:  map[string]float64{"AAPL": 100},
		Signals: map[string]signals.SizingInput{"AAPL": sell()},
		Policy:  riskPolicy(),
	})
	assert.Empty(t, targets)
}

func TestSellNeverExceedsHeldShares(t *testing.T) {
	// Fractional holdings exit in whole shares only
	targets := BuildSignalTradeTargets(Inputs{
		Holdings: []Holding{{Ticker: "X", Shares: 7.5}},
		NAV:      10000,
		Prices:   map[string]float64{"X": 100},
		Signals:  map[string]signals.SizingInput{"X": sell()},
		Policy:   riskPolicy(),
	})

	require.Len(t, targets, 1)
	assert.Equal(t, -7, targets[0].DeltaShares)
}

func TestHoldingsFromPositions(t *testing.T) {
	holdings := HoldingsFromPositions([]domain.Position{
		{Ticker: "A", Shares: 10, AvgCost: 5},
		{Ticker: "B", Shares: 2, AvgCost: 50},
	}, map[string]float64{"A": 7})

	assert.Equal(t, []Holding{
		{Ticker: "A", Shares: 10, ValueEUR: 70},
		{Ticker: "B", Shares: 2, ValueEUR: 100},
	}, holdings)
}

func TestRuleFor(t *testing.T) {
	r, ok := RuleFor(policy.SizingModeStep)
	require.True(t, ok)
	assert.Equal(t, policy.SizingModeStep, r.Mode())

	r, ok = RuleFor(policy.SizingModeRiskATR)
	require.True(t, ok)
	assert.Equal(t, policy.SizingModeRiskATR, r.Mode())

	_, ok = RuleFor(policy.SizingModeOff)
	assert.False(t, ok)
}
