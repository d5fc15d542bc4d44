package rebalancing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/policy"
	"github.com/aristath/folio/internal/modules/signals"
)

func sampleInputs() Inputs {
	snap := policy.DefaultSnapshot()
	snap.Policy.CashMinPct = 5
	snap.Policy.CashTargetPct = 5
	snap.Policy.CashMaxPct = 30
	snap.SectorTargets = []policy.Target{
		policy.NewTarget("Tech", 50, 40, 60),
		policy.NewTarget("Health", 30, 20, 40),
	}
	snap.RegionTargets = []policy.Target{
		policy.NewTarget("US", 70, 50, 90),
	}

	return Inputs{
		Positions: []domain.Position{
			{Ticker: "AAPL", Shares: 50, AvgCost: 90, CostBasis: 4500},
			{Ticker: "JNJ", Shares: 30, AvgCost: 150, CostBasis: 4500},
			{Ticker: "SAP", Shares: 5, AvgCost: 100, CostBasis: 500},
		},
		Cash:   300,
		Policy: snap,
		Signals: []signals.Signal{
			{Ticker: "AAPL", Direction: signals.DirectionBuy, Reason: "breakout", MetaJSON: `{"percentage": 10}`},
			{Ticker: "JNJ", Direction: signals.DirectionHold},
			{Ticker: "SAP", Direction: signals.DirectionSell, Reason: "trend break", MetaJSON: `{"percentage": 50}`},
		},
		Prices: map[string]float64{"AAPL": 100, "JNJ": 145, "SAP": 110},
		Metadata: map[string]domain.TickerMeta{
			"AAPL": {Sector: "Tech", Region: "US"},
			"JNJ":  {Sector: "Health", Region: "US"},
			"SAP":  {Sector: "Tech", Region: "EU"},
		},
	}
}

func TestComputeFullRebalancePlan_Pipeline(t *testing.T) {
	in := sampleInputs()
	plan := ComputeFullRebalancePlan(in)

	// Holdings 5000 + 4350 + 550, cash 300
	total := 10200.0

	require.Len(t, plan.DriftBefore, 4)
	cashBefore := plan.DriftBefore[3]
	assert.Equal(t, DimensionCash, cashBefore.Dimension)
	assert.InDelta(t, 300/total*100, cashBefore.CurrentPct, 1e-9)
	assert.Equal(t, StatusBreach, cashBefore.Status)
	assert.Equal(t, ActionIncrease, cashBefore.Action)

	// BUY 10% of 5000 → 5 shares, SELL 50% of 5 → 3 shares
	require.Len(t, plan.SignalTrades, 2)
	assert.Equal(t, "AAPL", plan.SignalTrades[0].Ticker)
	assert.Equal(t, 5, plan.SignalTrades[0].SharesDelta)
	assert.Equal(t, "SAP", plan.SignalTrades[1].Ticker)
	assert.Equal(t, -3, plan.SignalTrades[1].SharesDelta)

	// Post-signal cash 300 - 500 + 330 = 130, total 10200; min 5% needs 510 → 380 more.
	// JNJ is the only HOLD candidate: ceil(380 / 145) = 3 shares.
	require.Len(t, plan.CompensationTrades, 1)
	comp := plan.CompensationTrades[0]
	assert.Equal(t, "JNJ", comp.Ticker)
	assert.Equal(t, LayerRebalance, comp.Layer)
	assert.Equal(t, -3, comp.SharesDelta)
	assert.Equal(t, -435.0, comp.EstimatedEUR)

	assert.Len(t, plan.AllTrades, 3)
	assert.Equal(t, 3, plan.Summary.TotalTrades)
	assert.InDelta(t, 500-330-435, plan.Summary.NetEURImpact, 1e-9)

	cashAfter := plan.DriftAfter[len(plan.DriftAfter)-1]
	assert.InDelta(t, 565/total*100, cashAfter.CurrentPct, 1e-9)
	assert.Equal(t, StatusOK, cashAfter.Status)
	assert.Equal(t, StatusOK, plan.Summary.CashStatus)

	assert.InDelta(t, 300-(500-330), plan.CashPreviewSignalsOnly.EndingCash, 1e-9)
	assert.InDelta(t, 565, plan.CashPreviewFull.EndingCash, 1e-9)
	// Within a point of the minimum: the preview warns, the cash drift row does not
	require.NotNil(t, plan.CashPreviewFull.Status)
	assert.Equal(t, StatusWarn, *plan.CashPreviewFull.Status)
	require.NotNil(t, plan.CashPreviewSignalsOnly.Status)
	assert.Equal(t, StatusBreach, *plan.CashPreviewSignalsOnly.Status)

	assert.Nil(t, plan.SizedTargets)
}

func TestComputeFullRebalancePlan_BreachCounts(t *testing.T) {
	in := sampleInputs()
	in.Policy.SectorTargets = []policy.Target{policy.NewTarget("Energy", 10, 5, 15)}
	in.Policy.RegionTargets = []policy.Target{policy.NewTarget("Asia", 10, 5, 15), policy.NewTarget("EU", 5, 0, 50)}

	plan := ComputeFullRebalancePlan(in)
	assert.Equal(t, 1, plan.Summary.SectorBreaches)
	assert.Equal(t, 1, plan.Summary.RegionBreaches)
}

func TestComputeFullRebalancePlan_Deterministic(t *testing.T) {
	first := ComputeFullRebalancePlan(sampleInputs())
	second := ComputeFullRebalancePlan(sampleInputs())

	assert.Equal(t, first, second)
}

func TestComputeFullRebalancePlan_DoesNotMutateInputs(t *testing.T) {
	in := sampleInputs()
	before := sampleInputs()

	ComputeFullRebalancePlan(in)
	assert.Equal(t, before.Positions, in.Positions)
	assert.Equal(t, before.Prices, in.Prices)
	assert.Equal(t, before.Cash, in.Cash)
}

func TestComputeFullRebalancePlan_NoOversell(t *testing.T) {
	in := sampleInputs()
	in.Cash = 0
	in.Policy.Policy.CashMinPct = 25
	in.Policy.Policy.CashTargetPct = 25
	in.Signals = append(in.Signals, signals.Signal{Ticker: "SAP", Direction: signals.DirectionHold})
	in.Signals[2].MetaJSON = `{"percentage": 400}`

	plan := ComputeFullRebalancePlan(in)

	held := map[string]float64{}
	for _, p := range in.Positions {
		held[p.Ticker] = p.Shares
	}
	for _, tr := range plan.AllTrades {
		if tr.SharesDelta < 0 {
			assert.LessOrEqual(t, float64(-tr.SharesDelta), held[tr.Ticker], tr.Ticker)
			held[tr.Ticker] += float64(tr.SharesDelta)
		}
	}
}

func TestComputeFullRebalancePlan_EmptyPortfolio(t *testing.T) {
	plan := ComputeFullRebalancePlan(Inputs{Policy: policy.DefaultSnapshot()})

	assert.Empty(t, plan.AllTrades)
	require.Len(t, plan.DriftBefore, 1)
	assert.Equal(t, 0.0, plan.DriftBefore[0].CurrentPct)
	assert.Nil(t, plan.CashPreviewFull.EndingCashPct)
	assert.Nil(t, plan.CashPreviewFull.Status)
}

func TestComputeFullRebalancePlan_StepSizing(t *testing.T) {
	in := Inputs{
		Cash:    10000,
		Policy:  policy.DefaultSnapshot(),
		Signals: []signals.Signal{{Ticker: "ASML", Direction: signals.DirectionBuy}},
		Prices:  map[string]float64{"ASML": 500},
	}
	in.Policy.Policy.SignalSizingMode = policy.SizingModeStep

	plan := ComputeFullRebalancePlan(in)

	require.Len(t, plan.SizedTargets, 1)
	assert.True(t, plan.SizedTargets[0].Skipped)

	require.Len(t, plan.SignalTrades, 1)
	skipped := plan.SignalTrades[0]
	assert.Equal(t, LayerSkipped, skipped.Layer)
	assert.Equal(t, 0, skipped.SharesDelta)
	assert.Equal(t, 0.0, skipped.EstimatedEUR)
	assert.Contains(t, skipped.Reason, "< min €250")
	assert.Equal(t, 10000.0, plan.CashPreviewSignalsOnly.EndingCash)
}

func TestComputeFullRebalancePlan_StepSizingActive(t *testing.T) {
	in := Inputs{
		Cash:    100000,
		Policy:  policy.DefaultSnapshot(),
		Signals: []signals.Signal{{Ticker: "AAPL", Direction: signals.DirectionBuy}},
		Prices:  map[string]float64{"AAPL": 100},
	}
	in.Policy.Policy.SignalSizingMode = policy.SizingModeStep

	plan := ComputeFullRebalancePlan(in)

	require.Len(t, plan.SignalTrades, 1)
	trade := plan.SignalTrades[0]
	assert.Equal(t, LayerSignal, trade.Layer)
	assert.Equal(t, 10, trade.SharesDelta)
	assert.Equal(t, 1000.0, trade.EstimatedEUR)
	require.NotNil(t, trade.StopPrice)
	assert.InDelta(t, 92.0, *trade.StopPrice, 1e-9)
}
