// Package handlers provides HTTP handlers for portfolio policies.
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
)

// Store is the policy persistence used by the handlers
type Store interface {
	Load(ctx context.Context, portfolioID int64) (*policy.Snapshot, error)
	Save(ctx context.Context, portfolioID int64, snap policy.Snapshot) error
	TickerMetadata(ctx context.Context, tickers []string) (map[string]domain.TickerMeta, error)
	SetTickerMeta(ctx context.Context, ticker string, meta domain.TickerMeta) error
}

// Handler handles policy HTTP requests
type Handler struct {
	store Store
	log   zerolog.Logger
}

// NewHandler creates a new policy handler
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "policy").Logger(),
	}
}

// HandleGetPolicy handles GET /api/portfolios/{portfolioID}/policy
func (h *Handler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	snap, err := h.store.Load(r.Context(), portfolioID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to load policy")
		http.Error(w, "Failed to load policy", http.StatusInternalServerError)
		return
	}

	sum, off := snap.TargetSum()
	h.writeData(w, http.StatusOK, map[string]interface{}{
		"snapshot":           snap,
		"target_sum_pct":     sum,
		"target_sum_warning": off,
	})
}

// HandlePutPolicy handles PUT /api/portfolios/{portfolioID}/policy
func (h *Handler) HandlePutPolicy(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	snap := policy.DefaultSnapshot()
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	snap.Policy.Normalize()

	if err := snap.Validate(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := h.store.Save(r.Context(), portfolioID, snap); err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to save policy")
		http.Error(w, "Failed to save policy", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{"snapshot": snap})
}

// HandleGetClassification handles GET /api/tickers/{ticker}/classification
func (h *Handler) HandleGetClassification(w http.ResponseWriter, r *http.Request) {
	ticker := domain.NormalizeTicker(chi.URLParam(r, "ticker"))

	meta, err := h.store.TickerMetadata(r.Context(), []string{ticker})
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to load classification")
		http.Error(w, "Failed to load classification", http.StatusInternalServerError)
		return
	}

	m, ok := meta[ticker]
	if !ok {
		http.Error(w, "Ticker not classified", http.StatusNotFound)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"sector": m.Sector,
		"region": m.Region,
	})
}

// HandlePutClassification handles PUT /api/tickers/{ticker}/classification
func (h *Handler) HandlePutClassification(w http.ResponseWriter, r *http.Request) {
	ticker := domain.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		http.Error(w, "Ticker is required", http.StatusBadRequest)
		return
	}

	var meta domain.TickerMeta
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.store.SetTickerMeta(r.Context(), ticker, meta); err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to save classification")
		http.Error(w, "Failed to save classification", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"sector": meta.Sector,
		"region": meta.Region,
	})
}

func (h *Handler) portfolioID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "portfolioID"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid portfolio ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
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
