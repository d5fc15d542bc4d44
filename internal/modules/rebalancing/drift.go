package rebalancing

import (
	"math"

	"github.com/aristath/folio/internal/modules/policy"
)

// ComputeDrift classifies every target bucket against its band. Buckets with
// an allocation but no target are not reported; targets with no allocation
// are treated as 0%.
func ComputeDrift(allocations map[string]float64, targets []policy.Target, dimension Dimension) []Drift {
	drift := make([]Drift, 0, len(targets))
	for _, t := range targets {
		if t.Bucket == "" {
			continue
		}
		current := allocations[t.Bucket]
		status, action := classify(current, t)
		drift = append(drift, Drift{
			Dimension:  dimension,
			Bucket:     t.Bucket,
			TargetPct:  t.TargetPct,
			CurrentPct: current,
			DriftPct:   current - t.TargetPct,
			Status:     status,
			Action:     action,
		})
	}
	return drift
}

func classify(current float64, t policy.Target) (Status, Action) {
	switch {
	case t.MinPct != nil && current < *t.MinPct:
		return StatusBreach, ActionIncrease
	case t.MaxPct != nil && current > *t.MaxPct:
		return StatusBreach, ActionReduce
	case t.MinPct != nil && math.Abs(current-*t.MinPct) <= WarnBandPct:
		if current < t.TargetPct {
			return StatusWarn, ActionIncrease
		}
		return StatusWarn, ActionNone
	case t.MaxPct != nil && math.Abs(current-*t.MaxPct) <= WarnBandPct:
		if current > t.TargetPct {
			return StatusWarn, ActionReduce
		}
		return StatusWarn, ActionNone
	default:
		return StatusOK, ActionNone
	}
}

// cashDrift is the synthesized cash record. It only reports breaches of the
// cash band; the WARN band applies to cash previews.
func cashDrift(cash, total float64, p policy.Policy) Drift {
	current := cashPct(cash, total)
	status, action := StatusOK, ActionNone
	switch {
	case current < p.CashMinPct:
		status, action = StatusBreach, ActionIncrease
	case current > p.CashMaxPct:
		status, action = StatusBreach, ActionReduce
	}
	return Drift{
		Dimension:  DimensionCash,
		Bucket:     CashBucket,
		TargetPct:  p.CashTargetPct,
		CurrentPct: current,
		DriftPct:   current - p.CashTargetPct,
		Status:     status,
		Action:     action,
	}
}
