package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers signal routes under a /portfolios/{portfolioID} router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/signals", func(r chi.Router) {
		r.Get("/", h.HandleGetSignals)
		r.Post("/", h.HandleCreateSignal)
	})

	r.Route("/strategies", func(r chi.Router) {
		r.Post("/", h.HandleSaveStrategy)
		r.Put("/assignments/{ticker}", h.HandleAssignStrategy)
	})
}
