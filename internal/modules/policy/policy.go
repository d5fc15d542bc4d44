// Package policy holds the per-portfolio rebalancing policy: cash bands,
// position caps, sector/region targets and signal sizing parameters.
package policy

import (
	"fmt"
	"math"
	"strings"
)

// SizingMode selects how signals are converted into trades
type SizingMode string

const (
	SizingModeOff     SizingMode = "off"
	SizingModeStep    SizingMode = "step"
	SizingModeRiskATR SizingMode = "risk_atr"
)

// ParseSizingMode maps a stored value to a mode; unknown values disable sizing
func ParseSizingMode(s string) SizingMode {
	switch SizingMode(strings.ToLower(strings.TrimSpace(s))) {
	case SizingModeStep:
		return SizingModeStep
	case SizingModeRiskATR:
		return SizingModeRiskATR
	default:
		return SizingModeOff
	}
}

// StopSource selects where the stop distance for risk sizing comes from
type StopSource string

const (
	StopSourceStrategy StopSource = "strategy_stop"
	StopSourceATR      StopSource = "atr"
)

// ParseStopSource maps a stored value to a stop source, defaulting to strategy_stop
func ParseStopSource(s string) StopSource {
	if StopSource(strings.ToLower(strings.TrimSpace(s))) == StopSourceATR {
		return StopSourceATR
	}
	return StopSourceStrategy
}

// StopOrderType is the protective order suggested with a buy
type StopOrderType string

const (
	StopOrderStop      StopOrderType = "stop"
	StopOrderStopLimit StopOrderType = "stop_limit"
)

// ParseStopOrderType maps a stored value to an order type, defaulting to stop_limit
func ParseStopOrderType(s string) StopOrderType {
	if StopOrderType(strings.ToLower(strings.TrimSpace(s))) == StopOrderStop {
		return StopOrderStop
	}
	return StopOrderStopLimit
}

// Policy is the scalar part of a portfolio policy. Percentages are 0-100.
type Policy struct {
	CashMinPct     float64 `json:"cash_min_pct" yaml:"cash_min_pct"`
	CashTargetPct  float64 `json:"cash_target_pct" yaml:"cash_target_pct"`
	CashMaxPct     float64 `json:"cash_max_pct" yaml:"cash_max_pct"`
	MaxPositionPct float64 `json:"max_position_pct" yaml:"max_position_pct"`
	MaxSectorPct   float64 `json:"max_sector_pct" yaml:"max_sector_pct"`

	SignalSizingMode         SizingMode    `json:"signal_sizing_mode" yaml:"signal_sizing_mode"`
	SignalStepPct            float64       `json:"signal_step_pct" yaml:"signal_step_pct"`
	SignalStrongStepPct      float64       `json:"signal_strong_step_pct" yaml:"signal_strong_step_pct"`
	SignalExitThresholdPct   float64       `json:"signal_exit_threshold_pct" yaml:"signal_exit_threshold_pct"`
	SignalMinTradeEUR        float64       `json:"signal_min_trade_eur" yaml:"signal_min_trade_eur"`
	SignalRiskPerTradePct    float64       `json:"signal_risk_per_trade_pct" yaml:"signal_risk_per_trade_pct"`
	SignalATRPeriod          int           `json:"signal_atr_period" yaml:"signal_atr_period"`
	SignalATRMult            float64       `json:"signal_atr_mult" yaml:"signal_atr_mult"`
	SignalStopSource         StopSource    `json:"signal_stop_source" yaml:"signal_stop_source"`
	SignalStopOrderType      StopOrderType `json:"signal_stop_order_type" yaml:"signal_stop_order_type"`
	SignalStopLimitBufferBps float64       `json:"signal_stop_limit_buffer_bps" yaml:"signal_stop_limit_buffer_bps"`
}

// Defaults returns the policy used when a portfolio has none stored
func Defaults() Policy {
	return Policy{
		CashMinPct:     0,
		CashTargetPct:  5,
		CashMaxPct:     100,
		MaxPositionPct: 10,
		MaxSectorPct:   100,

		SignalSizingMode:         SizingModeOff,
		SignalStepPct:            1.0,
		SignalStrongStepPct:      2.0,
		SignalExitThresholdPct:   0.5,
		SignalMinTradeEUR:        250,
		SignalRiskPerTradePct:    0.5,
		SignalATRPeriod:          14,
		SignalATRMult:            2.0,
		SignalStopSource:         StopSourceStrategy,
		SignalStopOrderType:      StopOrderStopLimit,
		SignalStopLimitBufferBps: 25,
	}
}

// Normalize replaces unknown enum values and non-positive ATR periods with defaults
func (p *Policy) Normalize() {
	p.SignalSizingMode = ParseSizingMode(string(p.SignalSizingMode))
	p.SignalStopSource = ParseStopSource(string(p.SignalStopSource))
	p.SignalStopOrderType = ParseStopOrderType(string(p.SignalStopOrderType))
	if p.SignalATRPeriod <= 0 {
		p.SignalATRPeriod = Defaults().SignalATRPeriod
	}
}

// Validate checks the cash band and sizing parameters
func (p Policy) Validate() error {
	if p.CashMinPct < 0 || p.CashMaxPct > 100 {
		return fmt.Errorf("cash band must be within 0-100%%")
	}
	if p.CashMinPct > p.CashTargetPct || p.CashTargetPct > p.CashMaxPct {
		return fmt.Errorf("cash percentages must satisfy min <= target <= max (got %.1f/%.1f/%.1f)",
			p.CashMinPct, p.CashTargetPct, p.CashMaxPct)
	}
	if p.MaxPositionPct <= 0 || p.MaxPositionPct > 100 {
		return fmt.Errorf("max position must be within (0, 100]")
	}
	if p.SignalStepPct < 0 || p.SignalStrongStepPct < 0 || p.SignalExitThresholdPct < 0 {
		return fmt.Errorf("signal step and exit percentages cannot be negative")
	}
	if p.SignalMinTradeEUR < 0 || p.SignalRiskPerTradePct < 0 || p.SignalATRMult < 0 || p.SignalStopLimitBufferBps < 0 {
		return fmt.Errorf("signal sizing parameters cannot be negative")
	}
	return nil
}

// Target is an allocation target for one sector or region bucket.
// A nil bound is not enforced.
type Target struct {
	Bucket    string   `json:"bucket" yaml:"bucket"`
	TargetPct float64  `json:"target_pct" yaml:"target_pct"`
	MinPct    *float64 `json:"min_pct" yaml:"min_pct"`
	MaxPct    *float64 `json:"max_pct" yaml:"max_pct"`
}

// NewTarget builds a target with both bounds set
func NewTarget(bucket string, target, min, max float64) Target {
	return Target{Bucket: bucket, TargetPct: target, MinPct: &min, MaxPct: &max}
}

// Validate checks that bounds are ordered
func (t Target) Validate() error {
	if strings.TrimSpace(t.Bucket) == "" {
		return fmt.Errorf("target bucket is required")
	}
	if t.MinPct != nil && t.MaxPct != nil && *t.MinPct > *t.MaxPct {
		return fmt.Errorf("target %s: min %.1f exceeds max %.1f", t.Bucket, *t.MinPct, *t.MaxPct)
	}
	return nil
}

// Snapshot is a complete policy for one portfolio
type Snapshot struct {
	Policy        Policy   `json:"policy" yaml:"policy"`
	SectorTargets []Target `json:"sector_targets" yaml:"sector_targets"`
	RegionTargets []Target `json:"region_targets" yaml:"region_targets"`
}

// DefaultSnapshot returns default policy values with no targets
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Policy:        Defaults(),
		SectorTargets: []Target{},
		RegionTargets: []Target{},
	}
}

// Validate checks the policy and every target
func (s Snapshot) Validate() error {
	if err := s.Policy.Validate(); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, t := range s.SectorTargets {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("sector %w", err)
		}
		if seen[t.Bucket] {
			return fmt.Errorf("duplicate sector target %s", t.Bucket)
		}
		seen[t.Bucket] = true
	}
	seen = map[string]bool{}
	for _, t := range s.RegionTargets {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("region %w", err)
		}
		if seen[t.Bucket] {
			return fmt.Errorf("duplicate region target %s", t.Bucket)
		}
		seen[t.Bucket] = true
	}
	return nil
}

// TargetSum returns Σ sector targets + cash target and whether it is off 100
// by more than half a percentage point. Advisory only.
func (s Snapshot) TargetSum() (float64, bool) {
	sum := s.Policy.CashTargetPct
	for _, t := range s.SectorTargets {
		sum += t.TargetPct
	}
	return sum, len(s.SectorTargets) > 0 && math.Abs(sum-100) > 0.5
}
