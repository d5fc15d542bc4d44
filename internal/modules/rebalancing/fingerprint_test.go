package rebalancing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/policy"
	"github.com/aristath/folio/internal/modules/signals"
)

func TestFingerprint(t *testing.T) {
	first, err := Fingerprint(sampleInputs())
	require.NoError(t, err)
	assert.Len(t, first, 36)

	second, err := Fingerprint(sampleInputs())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	reordered := sampleInputs()
	reordered.Positions[0], reordered.Positions[2] = reordered.Positions[2], reordered.Positions[0]
	third, err := Fingerprint(reordered)
	require.NoError(t, err)
	assert.Equal(t, first, third, "position order does not change the plan")

	changed := sampleInputs()
	changed.Cash = 301
	fourth, err := Fingerprint(changed)
	require.NoError(t, err)
	assert.NotEqual(t, first, fourth)
}

func TestFingerprint_SignalOrderChangesPlanAndID(t *testing.T) {
	snap := policy.DefaultSnapshot()
	snap.Policy.CashMinPct = 5
	inputs := func(holds ...string) Inputs {
		in := Inputs{
			Positions: []domain.Position{
				{Ticker: "A", Shares: 100, AvgCost: 100, CostBasis: 10000},
				{Ticker: "B", Shares: 100, AvgCost: 100, CostBasis: 10000},
			},
			Policy: snap,
			Prices: map[string]float64{"A": 100, "B": 100},
		}
		for _, ticker := range holds {
			in.Signals = append(in.Signals, signals.Signal{Ticker: ticker, Direction: signals.DirectionHold})
		}
		return in
	}

	ab, ba := inputs("A", "B"), inputs("B", "A")

	// Shortfall of 1000 is covered entirely by the first HOLD ticker
	planAB := ComputeFullRebalancePlan(ab)
	planBA := ComputeFullRebalancePlan(ba)
	require.Len(t, planAB.CompensationTrades, 1)
	require.Len(t, planBA.CompensationTrades, 1)
	assert.Equal(t, "A", planAB.CompensationTrades[0].Ticker)
	assert.Equal(t, "B", planBA.CompensationTrades[0].Ticker)
	assert.Equal(t, -10, planAB.CompensationTrades[0].SharesDelta)

	idAB, err := Fingerprint(ab)
	require.NoError(t, err)
	idBA, err := Fingerprint(ba)
	require.NoError(t, err)
	assert.NotEqual(t, idAB, idBA)
}

func TestFingerprint_DoesNotReorderCallerSlices(t *testing.T) {
	in := sampleInputs()
	in.Positions[0], in.Positions[2] = in.Positions[2], in.Positions[0]
	_, err := Fingerprint(in)
	require.NoError(t, err)
	assert.Equal(t, "SAP", in.Positions[0].Ticker)
}
