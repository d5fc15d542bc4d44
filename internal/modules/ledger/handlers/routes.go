package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers ledger routes under a /portfolios/{portfolioID} router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/positions", h.HandleGetPositions)
	r.Get("/cash", h.HandleGetCash)
	r.Get("/completeness", h.HandleGetCompleteness)

	r.Route("/trades", func(r chi.Router) {
		r.Get("/", h.HandleGetTrades)
		r.Post("/", h.HandleCreateTrade)
		r.Delete("/{tradeID}", h.HandleDeleteTrade)
	})

	r.Route("/cash-movements", func(r chi.Router) {
		r.Get("/", h.HandleGetCashMovements)
		r.Post("/", h.HandleCreateCashMovement)
		r.Delete("/{movementID}", h.HandleDeleteCashMovement)
	})
}
