package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers policy routes under a /portfolios/{portfolioID} router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/policy", func(r chi.Router) {
		r.Get("/", h.HandleGetPolicy)
		r.Put("/", h.HandlePutPolicy)
	})
}

// RegisterTickerRoutes registers ticker classification routes
func (h *Handler) RegisterTickerRoutes(r chi.Router) {
	r.Route("/tickers/{ticker}", func(r chi.Router) {
		r.Get("/classification", h.HandleGetClassification)
		r.Put("/classification", h.HandlePutClassification)
	})
}
