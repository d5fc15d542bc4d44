// Package rebalancing turns a portfolio snapshot, its policy and the latest
// signals into a rebalance plan: signal trades, cash compensation trades,
// drift before and after, and cash previews.
package rebalancing

import (
	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/policy"
	"github.com/aristath/folio/internal/modules/signals"
	"github.com/aristath/folio/internal/modules/sizing"
)

// Layer identifies which stage of the plan produced a trade
type Layer string

const (
	LayerSignal    Layer = "Signal"
	LayerRebalance Layer = "Rebalance"
	LayerSkipped   Layer = "Skipped"
)

// SignalRebalance labels compensation trades
const SignalRebalance = "REBAL"

// Dimension is the allocation axis a drift record measures
type Dimension string

const (
	DimensionSector Dimension = "Sector"
	DimensionRegion Dimension = "Region"
	DimensionCash   Dimension = "Cash"
)

// CashBucket is the bucket name of the synthesized cash drift record
const CashBucket = "Cash"

// Status classifies an allocation against its band
type Status string

const (
	StatusOK     Status = "OK"
	StatusWarn   Status = "WARN"
	StatusBreach Status = "BREACH"
)

// Action is the correction a drift record calls for
type Action string

const (
	ActionIncrease Action = "Increase"
	ActionReduce   Action = "Reduce"
	ActionNone     Action = "None"
)

// WarnBandPct is how close to a bound, in percentage points, counts as WARN
const WarnBandPct = 1.0

// LegacyBaseValueEUR is the position value assumed when buying a ticker not yet held
const LegacyBaseValueEUR = 1000.0

// TradeProposal is one proposed trade. SharesDelta is positive for buys and
// negative for sells. EstimatedEUR is the signed cash outflow: buys are
// positive, sells negative.
type TradeProposal struct {
	Ticker       string   `json:"ticker"`
	Layer        Layer    `json:"layer"`
	Signal       string   `json:"signal"`
	SharesDelta  int      `json:"shares_delta"`
	Price        float64  `json:"price"`
	EstimatedEUR float64  `json:"estimated_eur"`
	Reason       string   `json:"reason"`
	StopPrice    *float64 `json:"stop_price,omitempty"`
	LimitPrice   *float64 `json:"limit_price,omitempty"`
}

// Drift compares a bucket's current allocation with its target
type Drift struct {
	Dimension  Dimension `json:"dimension"`
	Bucket     string    `json:"bucket"`
	TargetPct  float64   `json:"target_pct"`
	CurrentPct float64   `json:"current_pct"`
	DriftPct   float64   `json:"drift_pct"`
	Status     Status    `json:"status"`
	Action     Action    `json:"action"`
}

// State is a portfolio after a set of trades has been applied
type State struct {
	Positions         []domain.Position  `json:"positions"`
	Cash              float64            `json:"cash"`
	SectorAllocations map[string]float64 `json:"sector_allocations"`
	RegionAllocations map[string]float64 `json:"region_allocations"`
	TotalValue        float64            `json:"total_value"`
}

// CashPreview is the cash impact of a set of trades. EndingCashPct is nil
// without a positive portfolio value; Status is nil without a policy or pct.
type CashPreview struct {
	StartingCash  float64  `json:"starting_cash"`
	NetImpact     float64  `json:"net_impact"`
	EndingCash    float64  `json:"ending_cash"`
	EndingCashPct *float64 `json:"ending_cash_pct"`
	Status        *Status  `json:"status"`
}

// Summary aggregates the plan
type Summary struct {
	SectorBreaches int     `json:"sector_breaches"`
	RegionBreaches int     `json:"region_breaches"`
	CashStatus     Status  `json:"cash_status"`
	TotalTrades    int     `json:"total_trades"`
	NetEURImpact   float64 `json:"net_eur_impact"`
}

// Plan is the complete result of one planning run
type Plan struct {
	SignalTrades           []TradeProposal      `json:"signal_trades"`
	CompensationTrades     []TradeProposal      `json:"compensation_trades"`
	AllTrades              []TradeProposal      `json:"all_trades"`
	DriftBefore            []Drift              `json:"drift_before"`
	DriftAfter             []Drift              `json:"drift_after"`
	CashPreviewSignalsOnly CashPreview          `json:"cash_preview_signals_only"`
	CashPreviewFull        CashPreview          `json:"cash_preview_full"`
	Summary                Summary              `json:"summary"`
	SizedTargets           []sizing.TradeTarget `json:"sized_targets,omitempty"`
}

// Inputs is the point-in-time snapshot a plan is computed from. Strategies
// and OHLCV are only consulted when the policy enables advanced sizing.
type Inputs struct {
	Positions  []domain.Position                 `json:"positions"`
	Cash       float64                           `json:"cash"`
	Policy     policy.Snapshot                   `json:"policy"`
	Signals    []signals.Signal                  `json:"signals"`
	Prices     map[string]float64                `json:"prices"`
	Metadata   map[string]domain.TickerMeta      `json:"ticker_metadata"`
	Strategies map[string]signals.StrategyParams `json:"strategies,omitempty"`
	OHLCV      map[string][]domain.OHLCVBar      `json:"ohlcv,omitempty"`
}
