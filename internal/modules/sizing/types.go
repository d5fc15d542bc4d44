// Package sizing converts directional signals into weight, EUR and share
// targets using the portfolio's configured sizing rule.
package sizing

import (
	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/policy"
	"github.com/aristath/folio/internal/modules/signals"
)

// Action is what a sized trade does to the position
type Action string

const (
	ActionBuy      Action = "BUY"
	ActionIncrease Action = "INCREASE"
	ActionReduce   Action = "REDUCE"
	ActionExit     Action = "EXIT"
)

// DefaultStopDistance is used when neither a strategy stop nor ATR is available
const DefaultStopDistance = 0.08

// Holding is the current state of one position as seen by the sizer
type Holding struct {
	Ticker   string  `json:"ticker"`
	Shares   float64 `json:"shares"`
	ValueEUR float64 `json:"value_eur"`
}

// TradeTarget is a sized trade suggestion. Skipped targets carry zero deltas
// and a reason explaining why nothing should be traded.
type TradeTarget struct {
	Ticker             string            `json:"ticker"`
	Action             Action            `json:"action"`
	Signal             signals.Direction `json:"signal"`
	SizingRule         policy.SizingMode `json:"sizing_rule"`
	DeltaWeightPct     float64           `json:"delta_weight_pct"`
	DeltaValueEUR      float64           `json:"delta_value_eur"`
	DeltaShares        int               `json:"delta_shares"`
	TargetWeightPct    float64           `json:"target_weight_pct"`
	Reason             string            `json:"reason"`
	Skipped            bool              `json:"skipped"`
	StopPrice          *float64          `json:"stop_price"`
	LimitPrice         *float64          `json:"limit_price"`
	ReferenceCloseDate string            `json:"reference_close_date,omitempty"`
}

// Inputs is everything the sizer needs for one portfolio
type Inputs struct {
	Holdings   []Holding
	NAV        float64
	Prices     map[string]float64
	Signals    map[string]signals.SizingInput
	Strategies map[string]signals.StrategyParams
	Policy     policy.Policy
	OHLCV      map[string][]domain.OHLCVBar
}

// HoldingsFromPositions values positions at price, or avg cost when no price is known
func HoldingsFromPositions(positions []domain.Position, prices map[string]float64) []Holding {
	holdings := make([]Holding, 0, len(positions))
	for _, p := range positions {
		price, ok := prices[p.Ticker]
		holdings = append(holdings, Holding{
			Ticker:   p.Ticker,
			Shares:   p.Shares,
			ValueEUR: p.MarketValue(price, ok),
		})
	}
	return holdings
}
