// Package handlers provides HTTP handlers for price history.
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
)

// Store is the price persistence used by the handlers
type Store interface {
	domain.PriceSource
	UpsertBars(ctx context.Context, ticker string, bars []domain.OHLCVBar) error
}

// Invalidator drops cached prices after a write
type Invalidator interface {
	Invalidate()
}

// Handler handles price HTTP requests
type Handler struct {
	store Store
	cache Invalidator
	log   zerolog.Logger
}

// NewHandler creates a new prices handler. cache may be nil.
func NewHandler(store Store, cache Invalidator, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		cache: cache,
		log:   log.With().Str("handler", "prices").Logger(),
	}
}

// HandleGetLatest handles GET /api/prices/latest?tickers=A,B
func (h *Handler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	var tickers []string
	for _, t := range strings.Split(r.URL.Query().Get("tickers"), ",") {
		if t = domain.NormalizeTicker(t); t != "" {
			tickers = append(tickers, t)
		}
	}
	if len(tickers) == 0 {
		http.Error(w, "tickers parameter is required", http.StatusBadRequest)
		return
	}

	closes, err := h.store.LatestCloses(r.Context(), tickers)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load latest closes")
		http.Error(w, "Failed to load latest closes", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, closes)
}

// HandleGetHistory handles GET /api/prices/{ticker}/history?limit=N
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	ticker := domain.NormalizeTicker(chi.URLParam(r, "ticker"))

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	bars, err := h.store.History(r.Context(), ticker, limit)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to load price history")
		http.Error(w, "Failed to load price history", http.StatusInternalServerError)
		return
	}
	if bars == nil {
		bars = []domain.OHLCVBar{}
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"bars":   bars,
	})
}

// HandlePutBars handles PUT /api/prices/{ticker}/bars
func (h *Handler) HandlePutBars(w http.ResponseWriter, r *http.Request) {
	ticker := domain.NormalizeTicker(chi.URLParam(r, "ticker"))

	var bars []domain.OHLCVBar
	if err := json.NewDecoder(r.Body).Decode(&bars); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.store.UpsertBars(r.Context(), ticker, bars); err != nil {
		h.log.Warn().Err(err).Str("ticker", ticker).Msg("Rejected price bars")
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if h.cache != nil {
		h.cache.Invalidate()
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"stored": len(bars),
	})
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
