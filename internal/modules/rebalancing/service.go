package rebalancing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/policy"
	"github.com/aristath/folio/internal/modules/signals"
)

// PolicyLoader provides the policy snapshot of a portfolio
type PolicyLoader interface {
	Load(ctx context.Context, portfolioID int64) (*policy.Snapshot, error)
}

// SignalStore provides the latest signals and strategy parameters of a portfolio
type SignalStore interface {
	LatestSignals(ctx context.Context, portfolioID int64) ([]signals.Signal, error)
	AssignedParams(ctx context.Context, portfolioID int64) (map[string]signals.StrategyParams, error)
}

// Result is a plan together with the context it was computed in
type Result struct {
	PortfolioID    int64     `json:"portfolio_id"`
	PlanID         string    `json:"plan_id"`
	GeneratedAt    time.Time `json:"generated_at"`
	Cash           float64   `json:"cash"`
	SizingMode     string    `json:"sizing_mode"`
	MissingTickers []string  `json:"missing_tickers"`
	Plan           Plan      `json:"plan"`
}

// Service loads a portfolio snapshot from its collaborators and computes a plan
type Service struct {
	ledger   domain.LedgerReader
	policies PolicyLoader
	signals  SignalStore
	prices   domain.PriceSource
	metadata domain.MetadataSource
	log      zerolog.Logger
}

// NewService creates a new rebalancing service
func NewService(
	ledgerReader domain.LedgerReader,
	policies PolicyLoader,
	signalStore SignalStore,
	prices domain.PriceSource,
	metadata domain.MetadataSource,
	log zerolog.Logger,
) *Service {
	return &Service{
		ledger:   ledgerReader,
		policies: policies,
		signals:  signalStore,
		prices:   prices,
		metadata: metadata,
		log:      log.With().Str("service", "rebalancing").Logger(),
	}
}

// BuildPlan computes the rebalance plan for a portfolio from its stored state
func (s *Service) BuildPlan(ctx context.Context, portfolioID int64) (*Result, error) {
	in, err := s.LoadInputs(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	result, err := Compute(in)
	if err != nil {
		return nil, err
	}
	result.PortfolioID = portfolioID

	s.log.Info().
		Int64("portfolio_id", portfolioID).
		Str("plan_id", result.PlanID).
		Int("trades", result.Plan.Summary.TotalTrades).
		Int("missing_prices", len(result.MissingTickers)).
		Str("cash_status", string(result.Plan.Summary.CashStatus)).
		Msg("Built rebalance plan")

	return result, nil
}

// Compute runs the planner on caller-supplied inputs
func Compute(in Inputs) (*Result, error) {
	id, err := Fingerprint(in)
	if err != nil {
		return nil, err
	}
	return &Result{
		PlanID:         id,
		GeneratedAt:    time.Now().UTC(),
		Cash:           in.Cash,
		SizingMode:     string(in.Policy.Policy.SignalSizingMode),
		MissingTickers: missingPrices(planTickers(in.Positions, in.Signals), in.Prices),
		Plan:           ComputeFullRebalancePlan(in),
	}, nil
}

// LoadInputs assembles a point-in-time snapshot for a portfolio. Tickers
// without a close price are valued at average cost and skipped by the trade
// builders.
func (s *Service) LoadInputs(ctx context.Context, portfolioID int64) (Inputs, error) {
	snap, err := ledger.LoadSnapshot(ctx, s.ledger, portfolioID)
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to load ledger: %w", err)
	}

	pol, err := s.policies.Load(ctx, portfolioID)
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to load policy: %w", err)
	}

	sigs, err := s.signals.LatestSignals(ctx, portfolioID)
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to load signals: %w", err)
	}

	tickers := planTickers(snap.Positions, sigs)

	prices, err := s.prices.LatestCloses(ctx, tickers)
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to load prices: %w", err)
	}

	metadata, err := s.metadata.TickerMetadata(ctx, tickers)
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to load ticker metadata: %w", err)
	}

	if missing := missingPrices(tickers, prices); len(missing) > 0 {
		s.log.Warn().Int64("portfolio_id", portfolioID).Strs("tickers", missing).Msg("Missing prices, falling back to average cost")
	}

	in := Inputs{
		Positions: snap.Positions,
		Cash:      snap.Cash,
		Policy:    *pol,
		Signals:   sigs,
		Prices:    prices,
		Metadata:  metadata,
	}

	if pol.Policy.SignalSizingMode != policy.SizingModeOff {
		if in.Strategies, err = s.signals.AssignedParams(ctx, portfolioID); err != nil {
			return Inputs{}, fmt.Errorf("failed to load strategy assignments: %w", err)
		}
		in.OHLCV = s.loadHistory(ctx, sigs, pol.Policy.SignalATRPeriod+1)
	}

	return in, nil
}

// loadHistory fetches bars for tickers with a BUY or SELL signal. A ticker
// whose history cannot be loaded falls back to the default stop distance.
func (s *Service) loadHistory(ctx context.Context, sigs []signals.Signal, limit int) map[string][]domain.OHLCVBar {
	bars := make(map[string][]domain.OHLCVBar)
	for _, sig := range sigs {
		if sig.Direction == signals.DirectionHold {
			continue
		}
		history, err := s.prices.History(ctx, sig.Ticker, limit)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", sig.Ticker).Msg("Failed to load price history")
			continue
		}
		if len(history) > 0 {
			bars[sig.Ticker] = history
		}
	}
	return bars
}

func planTickers(positions []domain.Position, sigs []signals.Signal) []string {
	seen := make(map[string]bool, len(positions)+len(sigs))
	tickers := make([]string, 0, len(positions)+len(sigs))
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			tickers = append(tickers, t)
		}
	}
	for _, p := range positions {
		add(p.Ticker)
	}
	for _, sig := range sigs {
		add(sig.Ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// missingPrices lists tickers without a usable (positive) price
func missingPrices(tickers []string, prices map[string]float64) []string {
	missing := []string{}
	for _, t := range tickers {
		if p, ok := prices[t]; !ok || p <= 0 {
			missing = append(missing, t)
		}
	}
	return missing
}
