package rebalancing

import (
	"github.com/aristath/folio/internal/modules/signals"
	"github.com/aristath/folio/internal/modules/sizing"
)

// ComputeFullRebalancePlan runs the whole pipeline on one snapshot:
// drift before, signal trades, post-signal state, cash compensation using
// HOLD tickers as candidates, final state, drift after and cash previews.
// It does not modify its inputs and returns the same plan for the same
// inputs.
func ComputeFullRebalancePlan(in Inputs) Plan {
	pol := in.Policy.Policy

	sectorsBefore, regionsBefore, totalBefore := allocations(in.Positions, in.Cash, in.Prices, in.Metadata)
	driftBefore := ComputeDrift(sectorsBefore, in.Policy.SectorTargets, DimensionSector)
	driftBefore = append(driftBefore, ComputeDrift(regionsBefore, in.Policy.RegionTargets, DimensionRegion)...)
	driftBefore = append(driftBefore, cashDrift(in.Cash, totalBefore, pol))

	var sized []sizing.TradeTarget
	var signalTrades []TradeProposal
	if _, ok := sizing.RuleFor(pol.SignalSizingMode); ok {
		sized = sizing.BuildSignalTradeTargets(sizing.Inputs{
			Holdings:   sizing.HoldingsFromPositions(in.Positions, in.Prices),
			NAV:        totalBefore,
			Prices:     in.Prices,
			Signals:    signals.ToSizingInputs(in.Signals),
			Strategies: in.Strategies,
			Policy:     pol,
			OHLCV:      in.OHLCV,
		})
		signalTrades = FromTargets(sized, in.Prices)
	} else {
		signalTrades = ComputeSignalTrades(in.Positions, in.Signals, in.Prices)
	}

	postSignal := ComputePostTradeState(in.Positions, signalTrades, in.Cash, in.Prices, in.Metadata)

	compensation := ComputeCompensationTrades(postSignal, pol, in.Prices, signals.HoldTickers(in.Signals))

	allTrades := make([]TradeProposal, 0, len(signalTrades)+len(compensation))
	allTrades = append(allTrades, signalTrades...)
	allTrades = append(allTrades, compensation...)

	final := ComputePostTradeState(postSignal.Positions, compensation, postSignal.Cash, in.Prices, in.Metadata)

	driftAfter := ComputeDrift(final.SectorAllocations, in.Policy.SectorTargets, DimensionSector)
	driftAfter = append(driftAfter, ComputeDrift(final.RegionAllocations, in.Policy.RegionTargets, DimensionRegion)...)
	finalCash := cashDrift(final.Cash, final.TotalValue, pol)
	driftAfter = append(driftAfter, finalCash)

	previewSignals := ComputeCashPreview(in.Cash, signalTrades, &pol, totalBefore)
	previewFull := ComputeCashPreview(in.Cash, allTrades, &pol, totalBefore)

	return Plan{
		SignalTrades:           signalTrades,
		CompensationTrades:     compensation,
		AllTrades:              allTrades,
		DriftBefore:            driftBefore,
		DriftAfter:             driftAfter,
		CashPreviewSignalsOnly: previewSignals,
		CashPreviewFull:        previewFull,
		Summary:                summarize(driftAfter, finalCash.Status, previewFull.NetImpact, len(allTrades)),
		SizedTargets:           sized,
	}
}

func summarize(driftAfter []Drift, cashStatus Status, net float64, trades int) Summary {
	s := Summary{
		CashStatus:   cashStatus,
		TotalTrades:  trades,
		NetEURImpact: net,
	}
	for _, d := range driftAfter {
		if d.Status != StatusBreach {
			continue
		}
		switch d.Dimension {
		case DimensionSector:
			s.SectorBreaches++
		case DimensionRegion:
			s.RegionBreaches++
		}
	}
	return s
}
