package rebalancing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/folio/internal/domain"
)

func TestComputePostTradeState_BuyAndSell(t *testing.T) {
	positions := []domain.Position{
		{Ticker: "A", Shares: 10, AvgCost: 50, CostBasis: 500},
		{Ticker: "B", Shares: 20, AvgCost: 100, CostBasis: 2000},
	}
	trades := []TradeProposal{
		{Ticker: "A", SharesDelta: 10, Price: 100},
		{Ticker: "B", SharesDelta: -5, Price: 120},
	}
	prices := map[string]float64{"A": 100, "B": 120}
	metadata := map[string]domain.TickerMeta{"A": {Sector: "Tech", Region: "US"}}

	state := ComputePostTradeState(positions, trades, 2000, prices, metadata)

	require.Len(t, state.Positions, 2)
	a, b := state.Positions[0], state.Positions[1]
	assert.Equal(t, 20.0, a.Shares)
	assert.InDelta(t, 1500.0, a.CostBasis, 1e-9)
	assert.InDelta(t, 75.0, a.AvgCost, 1e-9)
	assert.Equal(t, 15.0, b.Shares)
	assert.InDelta(t, 1500.0, b.CostBasis, 1e-9)
	assert.InDelta(t, 100.0, b.AvgCost, 1e-9)

	// 2000 - 1000 + 600
	assert.InDelta(t, 1600.0, state.Cash, 1e-9)
	// 2000 + 1800 + 1600
	assert.InDelta(t, 5400.0, state.TotalValue, 1e-9)
	assert.InDelta(t, 2000.0/5400*100, state.SectorAllocations["Tech"], 1e-9)
	assert.InDelta(t, 1800.0/5400*100, state.SectorAllocations[domain.UnknownBucket], 1e-9)
	assert.InDelta(t, 1800.0/5400*100, state.RegionAllocations[domain.UnknownBucket], 1e-9)

	// Inputs untouched
	assert.Equal(t, 10.0, positions[0].Shares)
	assert.Equal(t, 20.0, positions[1].Shares)
}

func TestComputePostTradeState_DropsClosedPositions(t *testing.T) {
	positions := []domain.Position{{Ticker: "A", Shares: 5, AvgCost: 10, CostBasis: 50}}
	state := ComputePostTradeState(positions,
		[]TradeProposal{{Ticker: "A", SharesDelta: -5, Price: 12}},
		0, map[string]float64{"A": 12}, nil)

	assert.Empty(t, state.Positions)
	assert.Equal(t, 60.0, state.Cash)
	assert.Equal(t, map[string]float64{}, state.SectorAllocations)
}

func TestComputePostTradeState_NewPositionAndAvgCostValuation(t *testing.T) {
	positions := []domain.Position{{Ticker: "OLD", Shares: 10, AvgCost: 30, CostBasis: 300}}
	state := ComputePostTradeState(positions,
		[]TradeProposal{{Ticker: "NEW", SharesDelta: 4, Price: 25}},
		100, map[string]float64{"NEW": 25}, nil)

	require.Len(t, state.Positions, 2)
	assert.Equal(t, "NEW", state.Positions[0].Ticker)
	assert.Equal(t, 25.0, state.Positions[0].AvgCost)
	assert.Equal(t, 0.0, state.Cash)
	// OLD has no price and is valued at avg cost
	assert.Equal(t, 400.0, state.TotalValue)
}

func TestComputePostTradeState_ZeroTotal(t *testing.T) {
	state := ComputePostTradeState(nil, nil, 0, nil, nil)
	assert.Empty(t, state.Positions)
	assert.Empty(t, state.SectorAllocations)
	assert.Empty(t, state.RegionAllocations)
	assert.Equal(t, 0.0, state.TotalValue)
}
