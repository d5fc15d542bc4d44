package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the plan route under a /portfolios/{portfolioID} router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/rebalance-plan", h.HandleGetPlan)
}

// RegisterPlanRoutes registers the stateless planning routes
func (h *Handler) RegisterPlanRoutes(r chi.Router) {
	r.Route("/rebalancing", func(r chi.Router) {
		r.Post("/plan", h.HandleComputePlan)
	})
}
