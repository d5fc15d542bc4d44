// Package handlers provides HTTP handlers for ledger operations.
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/ledger"
)

// Store is the ledger persistence used by the handlers
type Store interface {
	domain.LedgerReader
	InsertTrade(ctx context.Context, portfolioID int64, trade domain.LedgerTrade) (domain.LedgerTrade, error)
	InsertCashMovement(ctx context.Context, portfolioID int64, movement domain.CashMovement) (domain.CashMovement, error)
	DeleteTrade(ctx context.Context, portfolioID, tradeID int64) error
	DeleteCashMovement(ctx context.Context, portfolioID, movementID int64) error
}

// SectorLookup resolves sector names for data completeness checks
type SectorLookup interface {
	TickerSectors(ctx context.Context, tickers []string) (map[string]string, error)
}

// Handler handles ledger HTTP requests
type Handler struct {
	store   Store
	sectors SectorLookup
	log     zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(store Store, sectors SectorLookup, log zerolog.Logger) *Handler {
	return &Handler{
		store:   store,
		sectors: sectors,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// HandleGetPositions handles GET /api/portfolios/{portfolioID}/positions
func (h *Handler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	snap, err := ledger.LoadSnapshot(r.Context(), h.store, portfolioID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to load ledger")
		http.Error(w, "Failed to load ledger", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"positions":         snap.Positions,
		"count":             len(snap.Positions),
		"invested_eur":      snap.Invested,
		"realized_pnl_eur":  ledger.ComputeRealizedPnL(snap.Trades),
		"cost_basis_method": snap.Method,
	})
}

// HandleGetCash handles GET /api/portfolios/{portfolioID}/cash
func (h *Handler) HandleGetCash(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	snap, err := ledger.LoadSnapshot(r.Context(), h.store, portfolioID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to load ledger")
		http.Error(w, "Failed to load ledger", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"cash_eur": snap.Cash,
	})
}

// HandleGetCompleteness handles GET /api/portfolios/{portfolioID}/completeness
func (h *Handler) HandleGetCompleteness(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	snap, err := ledger.LoadSnapshot(r.Context(), h.store, portfolioID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to load ledger")
		http.Error(w, "Failed to load ledger", http.StatusInternalServerError)
		return
	}

	tickers := make([]string, len(snap.Positions))
	for i, p := range snap.Positions {
		tickers[i] = p.Ticker
	}

	sectors := map[string]string{}
	if h.sectors != nil {
		sectors, err = h.sectors.TickerSectors(r.Context(), tickers)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to load ticker sectors")
			http.Error(w, "Failed to load ticker sectors", http.StatusInternalServerError)
			return
		}
	}

	h.writeData(w, http.StatusOK, ledger.CheckDataCompleteness(snap.Positions, sectors, nil))
}

// HandleGetTrades handles GET /api/portfolios/{portfolioID}/trades
func (h *Handler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	trades, err := h.store.ListTrades(r.Context(), portfolioID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query trades")
		http.Error(w, "Failed to query trades", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"trades": trades,
		"count":  len(trades),
	})
}

// HandleCreateTrade handles POST /api/portfolios/{portfolioID}/trades
func (h *Handler) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	var input ledger.TradeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	snap, err := ledger.LoadSnapshot(r.Context(), h.store, portfolioID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to load ledger")
		http.Error(w, "Failed to load ledger", http.StatusInternalServerError)
		return
	}

	if valid, message := ledger.ValidateTrade(input, snap.Cash, snap.Positions); !valid {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
		return
	}

	trade, err := h.store.InsertTrade(r.Context(), portfolioID, input.ToTrade())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to insert trade")
		http.Error(w, "Failed to insert trade", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusCreated, trade)
}

// HandleDeleteTrade handles DELETE /api/portfolios/{portfolioID}/trades/{tradeID}
func (h *Handler) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	tradeID, err := strconv.ParseInt(chi.URLParam(r, "tradeID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid trade ID", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteTrade(r.Context(), portfolioID, tradeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Trade not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Msg("Failed to delete trade")
		http.Error(w, "Failed to delete trade", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleGetCashMovements handles GET /api/portfolios/{portfolioID}/cash-movements
func (h *Handler) HandleGetCashMovements(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	movements, err := h.store.ListCashMovements(r.Context(), portfolioID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query cash movements")
		http.Error(w, "Failed to query cash movements", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusOK, map[string]interface{}{
		"cash_movements": movements,
		"count":          len(movements),
	})
}

// HandleCreateCashMovement handles POST /api/portfolios/{portfolioID}/cash-movements
func (h *Handler) HandleCreateCashMovement(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	var input ledger.CashInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	snap, err := ledger.LoadSnapshot(r.Context(), h.store, portfolioID)
	if err != nil {
		h.log.Error().Err(err).Int64("portfolio_id", portfolioID).Msg("Failed to load ledger")
		http.Error(w, "Failed to load ledger", http.StatusInternalServerError)
		return
	}

	if valid, message := ledger.ValidateCashTransaction(input, snap.Cash); !valid {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
		return
	}

	movement, err := h.store.InsertCashMovement(r.Context(), portfolioID, input.ToMovement())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to insert cash movement")
		http.Error(w, "Failed to insert cash movement", http.StatusInternalServerError)
		return
	}

	h.writeData(w, http.StatusCreated, movement)
}

// HandleDeleteCashMovement handles DELETE /api/portfolios/{portfolioID}/cash-movements/{movementID}
func (h *Handler) HandleDeleteCashMovement(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := h.portfolioID(w, r)
	if !ok {
		return
	}

	movementID, err := strconv.ParseInt(chi.URLParam(r, "movementID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid cash movement ID", http.StatusBadRequest)
		return
	}

	if err := h.store.DeleteCashMovement(r.Context(), portfolioID, movementID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Cash movement not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Msg("Failed to delete cash movement")
		http.Error(w, "Failed to delete cash movement", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
