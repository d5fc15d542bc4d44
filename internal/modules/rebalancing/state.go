package rebalancing

import (
	"sort"

	"github.com/aristath/folio/internal/domain"
)

// ComputePostTradeState applies trades to a copy of positions and cash and
// recomputes sector and region allocations. Buys add to cost basis at trade
// price, sells reduce it by the sold fraction. Cash moves by the full trade
// value either way. Positions at or below domain.DustShares are dropped.
func ComputePostTradeState(
	positions []domain.Position,
	trades []TradeProposal,
	cash float64,
	prices map[string]float64,
	metadata map[string]domain.TickerMeta,
) State {
	byTicker := make(map[string]*domain.Position, len(positions))
	for _, p := range positions {
		cp := p
		byTicker[p.Ticker] = &cp
	}

	for _, t := range trades {
		pos, ok := byTicker[t.Ticker]
		if !ok {
			pos = &domain.Position{Ticker: t.Ticker}
			byTicker[t.Ticker] = pos
		}

		switch {
		case t.SharesDelta > 0:
			value := float64(t.SharesDelta) * t.Price
			pos.CostBasis += value
			pos.Shares += float64(t.SharesDelta)
			pos.AvgCost = 0
			if pos.Shares > 0 {
				pos.AvgCost = pos.CostBasis / pos.Shares
			}
			cash -= value
		case t.SharesDelta < 0:
			sold := float64(-t.SharesDelta)
			if pos.Shares > 0 {
				pos.CostBasis *= 1 - sold/pos.Shares
				pos.Shares -= sold
				pos.AvgCost = 0
				if pos.Shares > 0 {
					pos.AvgCost = pos.CostBasis / pos.Shares
				}
			}
			cash += sold * t.Price
		}
	}

	updated := make([]domain.Position, 0, len(byTicker))
	for _, p := range byTicker {
		if p.Shares > domain.DustShares {
			updated = append(updated, *p)
		}
	}
	sort.Slice(updated, func(i, j int) bool { return updated[i].Ticker < updated[j].Ticker })

	sectors, regions, total := allocations(updated, cash, prices, metadata)
	return State{
		Positions:         updated,
		Cash:              cash,
		SectorAllocations: sectors,
		RegionAllocations: regions,
		TotalValue:        total,
	}
}

// allocations returns sector and region weights in percent of holdings plus
// cash. Both maps are empty when the total is not positive.
func allocations(
	positions []domain.Position,
	cash float64,
	prices map[string]float64,
	metadata map[string]domain.TickerMeta,
) (map[string]float64, map[string]float64, float64) {
	sectorValues := map[string]float64{}
	regionValues := map[string]float64{}
	holdings := 0.0

	for _, p := range positions {
		price, ok := prices[p.Ticker]
		value := p.MarketValue(price, ok)
		holdings += value

		meta := metadata[p.Ticker]
		sectorValues[meta.SectorOrUnknown()] += value
		regionValues[meta.RegionOrUnknown()] += value
	}

	total := holdings + cash
	sectors := map[string]float64{}
	regions := map[string]float64{}
	if total <= 0 {
		return sectors, regions, total
	}
	for bucket, value := range sectorValues {
		sectors[bucket] = value / total * 100
	}
	for bucket, value := range regionValues {
		regions[bucket] = value / total * 100
	}
	return sectors, regions, total
}

func cashPct(cash, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return cash / total * 100
}
