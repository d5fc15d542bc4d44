package rebalancing

import (
	"math"

	"github.com/aristath/folio/internal/modules/policy"
	"github.com/aristath/folio/pkg/formulas"
)

// ComputeCashPreview sums the cash impact of trades. The ending percentage
// needs a positive total value and the status additionally needs a policy.
func ComputeCashPreview(startingCash float64, trades []TradeProposal, p *policy.Policy, totalValue float64) CashPreview {
	impacts := make([]float64, len(trades))
	for i, t := range trades {
		impacts[i] = t.EstimatedEUR
	}
	net := formulas.Sum(impacts)
	ending := startingCash - net

	preview := CashPreview{
		StartingCash: startingCash,
		NetImpact:    net,
		EndingCash:   ending,
	}
	if totalValue > 0 {
		pct := ending / totalValue * 100
		preview.EndingCashPct = &pct
	}
	if p != nil && preview.EndingCashPct != nil {
		status := cashStatus(*preview.EndingCashPct, *p)
		preview.Status = &status
	}
	return preview
}

func cashStatus(pct float64, p policy.Policy) Status {
	switch {
	case pct < p.CashMinPct, pct > p.CashMaxPct:
		return StatusBreach
	case math.Abs(pct-p.CashMinPct) <= WarnBandPct, math.Abs(pct-p.CashMaxPct) <= WarnBandPct:
		return StatusWarn
	default:
		return StatusOK
	}
}
