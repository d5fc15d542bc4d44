// Package handlers provides HTTP handlers for rebalance planning.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/policy"
	"github.com/aristath/folio/internal/modules/rebalancing"
	"github.com/aristath/folio/internal/modules/signals"
)

// Planner builds plans from stored portfolio state
type Planner interface {
	BuildPlan(ctx context.Context, portfolioID int64) (*rebalancing.Result, error)
}

// Handler handles rebalancing HTTP requests
type Handler struct {
	planner Planner
	log     zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(planner Planner, log zerolog.Logger) *Handler {
	return &Handler{
		planner: planner,
		log:     log.With().Str("handler", "rebalancing").Logger(),
	}
}

// HandleGetPlan handles GET /api/portfolios/{portfolioID}/rebalance-plan
func (h *Handler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := strconv.ParseInt(chi.URLParam(r, "portfolioID"), 10, 64)
	if err != nil || portfolioID <= 0 {
		http.Error(w, "Invalid portfolio ID", http.StatusBadRequest)
		return
	}

	result, err := h.planner.BuildPlan(r.Context(), portfolioID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to build rebalance plan")
		http.Error(w, "Failed to build rebalance plan", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, result)
}

// HandleComputePlan handles POST /api/rebalancing/plan.
// The body carries every input; nothing is read from storage.
func (h *Handler) HandleComputePlan(w http.ResponseWriter, r *http.Request) {
	in := rebalancing.Inputs{Policy: policy.DefaultSnapshot()}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	in.Policy.Policy.Normalize()
	normalizeTickers(&in)

	if err := in.Policy.Validate(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := rebalancing.Compute(in)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute rebalance plan")
		http.Error(w, "Failed to compute rebalance plan", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, result)
}

// normalizeTickers upper-cases every ticker in a request body so positions,
// signals and the ticker-keyed maps line up. On a key collision the entry
// already in normalized form wins.
func normalizeTickers(in *rebalancing.Inputs) {
	for i := range in.Positions {
		in.Positions[i].Ticker = domain.NormalizeTicker(in.Positions[i].Ticker)
	}
	for i := range in.Signals {
		in.Signals[i].Ticker = domain.NormalizeTicker(in.Signals[i].Ticker)
		in.Signals[i].Direction = signals.ParseDirection(string(in.Signals[i].Direction))
	}
	in.Prices = normalizeKeys(in.Prices)
	in.Metadata = normalizeKeys(in.Metadata)
	in.Strategies = normalizeKeys(in.Strategies)
	in.OHLCV = normalizeKeys(in.OHLCV)
}

func normalizeKeys[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for key, v := range m {
		ticker := domain.NormalizeTicker(key)
		if _, exists := out[ticker]; exists && key != ticker {
			continue
		}
		out[ticker] = v
	}
	return out
}

func (h *Handler) writeData(w http.ResponseWriter, status int, data interface{}) {
	h.writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
