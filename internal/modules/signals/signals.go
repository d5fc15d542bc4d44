// Package signals models the directional BUY/SELL/HOLD signals produced by
// ticker strategies and the strategy parameters used to size them.
package signals

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Direction is the action a signal recommends
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionHold Direction = "HOLD"
)

// ParseDirection normalizes a stored direction; anything unrecognized is HOLD
func ParseDirection(s string) Direction {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case DirectionBuy:
		return DirectionBuy
	case DirectionSell:
		return DirectionSell
	default:
		return DirectionHold
	}
}

// DefaultPercentage is the legacy sizing percentage when a signal carries none
const DefaultPercentage = 10.0

// Signal is one directional recommendation for a ticker
type Signal struct {
	ID          int64     `json:"id,omitempty"`
	Ticker      string    `json:"ticker"`
	Direction   Direction `json:"signal"`
	Reason      string    `json:"reason"`
	StrategyKey string    `json:"strategy_key,omitempty"`
	Timestamp   string    `json:"ts,omitempty"`
	MetaJSON    string    `json:"meta_json,omitempty"`
}

// Meta is the parsed optional payload of a signal
type Meta struct {
	Percentage    float64
	HasPercentage bool
	Strength      int
	Confidence    float64
}

// ParseMeta decodes a signal payload. Numbers may be JSON numbers or numeric
// strings. Anything malformed falls back to strength 1 and confidence 1.0
// with no percentage.
func ParseMeta(raw string) Meta {
	meta := Meta{Strength: 1, Confidence: 1.0}
	if strings.TrimSpace(raw) == "" {
		return meta
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return meta
	}

	if v, ok := asFloat(payload["percentage"]); ok {
		meta.Percentage = v
		meta.HasPercentage = true
	}
	if v, ok := asFloat(payload["strength"]); ok {
		meta.Strength = int(v)
	}
	if v, ok := asFloat(payload["confidence"]); ok {
		meta.Confidence = v
	}
	return meta
}

func asFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Percentage returns the legacy sizing percentage of the signal
func (s Signal) Percentage() float64 {
	meta := ParseMeta(s.MetaJSON)
	if !meta.HasPercentage {
		return DefaultPercentage
	}
	return meta.Percentage
}

// SizingInput is the per-ticker view of a signal used by advanced sizing
type SizingInput struct {
	Direction  Direction `json:"signal"`
	Strength   int       `json:"strength"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
}

// ToSizingInputs keys signals by ticker. When a ticker appears more than once
// the last occurrence wins.
func ToSizingInputs(list []Signal) map[string]SizingInput {
	inputs := make(map[string]SizingInput, len(list))
	for _, s := range list {
		meta := ParseMeta(s.MetaJSON)
		inputs[s.Ticker] = SizingInput{
			Direction:  s.Direction,
			Strength:   meta.Strength,
			Confidence: meta.Confidence,
			Reason:     s.Reason,
		}
	}
	return inputs
}

// HoldTickers returns the tickers carrying a HOLD signal, in input order
func HoldTickers(list []Signal) []string {
	tickers := []string{}
	seen := map[string]bool{}
	for _, s := range list {
		if s.Direction == DirectionHold && !seen[s.Ticker] {
			tickers = append(tickers, s.Ticker)
			seen[s.Ticker] = true
		}
	}
	return tickers
}

// StrategyParams are the saved parameters of the strategy assigned to a ticker
type StrategyParams map[string]interface{}

// StopLossPct returns the strategy stop loss in percent when defined
func (p StrategyParams) StopLossPct() (float64, bool) {
	if p == nil {
		return 0, false
	}
	return asFloat(p["stop_loss_pct"])
}

// SavedStrategy is a named, parameterized strategy for one ticker
type SavedStrategy struct {
	ID              int64          `json:"id"`
	Ticker          string         `json:"ticker"`
	Name            string         `json:"name"`
	BaseStrategyKey string         `json:"base_strategy_key"`
	Params          StrategyParams `json:"params"`
}
