// Package handlers provides HTTP handlers for signals and saved strategies.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/signals"
)

// Store is the signals persistence used by the handlers
type Store interface {
	Record(ctx context.Context, portfolioID int64, s signals.Signal) (signals.Signal, error)
	LatestSignals(ctx context.Context, portfolioID int64) ([]signals.Signal, error)
	SaveStrategy(ctx context.Context, portfolioID int64, st signals.SavedStrategy) (signals.SavedStrategy, error)
	AssignStrategy(ctx context.Context, portfolioID int64, ticker string, strategyID int64) error
}

// Handler handles signal HTTP requests
type Handler struct {
	store Store
	log   zerolog.Logger
}

// NewHandler creates a new signals handler
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "signals").Logger(),
	}
}

// HandleGetSignals handles GET /api/portfolios/{portfolioID}/signals
func (h *Handler) HandleGetSignals(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	list, err := h.store.LatestSignals(r.Context(), portfolioID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to load signals")
		http.Error(w, "Failed to load signals", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"signals": list,
		"count":   len(list),
	})
}

// HandleCreateSignal handles POST /api/portfolios/{portfolioID}/signals
func (h *Handler) HandleCreateSignal(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	var s signals.Signal
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if domain.NormalizeTicker(s.Ticker) == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Ticker is required"})
		return
	}
	if s.MetaJSON != "" && !json.Valid([]byte(s.MetaJSON)) {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "meta_json must be valid JSON"})
		return
	}

	recorded, err := h.store.Record(r.Context(), portfolioID, s)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to record signal")
		http.Error(w, "Failed to record signal", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusCreated, recorded)
}

// HandleSaveStrategy handles POST /api/portfolios/{portfolioID}/strategies
func (h *Handler) HandleSaveStrategy(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	var st signals.SavedStrategy
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if domain.NormalizeTicker(st.Ticker) == "" || strings.TrimSpace(st.Name) == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Ticker and name are required"})
		return
	}

	saved, err := h.store.SaveStrategy(r.Context(), portfolioID, st)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to save strategy")
		http.Error(w, "Failed to save strategy", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, saved)
}

// HandleAssignStrategy handles PUT /api/portfolios/{portfolioID}/strategies/assignments/{ticker}
func (h *Handler) HandleAssignStrategy(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}
	ticker := domain.NormalizeTicker(chi.URLParam(r, "ticker"))

	var body struct {
		StrategyID int64 `json:"strategy_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.StrategyID <= 0 {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.store.AssignStrategy(r.Context(), portfolioID, ticker, body.StrategyID); err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to assign strategy")
		http.Error(w, "Failed to assign strategy", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"ticker":      ticker,
		"strategy_id": body.StrategyID,
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
