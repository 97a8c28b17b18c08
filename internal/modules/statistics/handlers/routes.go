package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers history and statistics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Post("/import", h.HandleImport)
		r.Get("/tickers", h.HandleTickers)
	})
	r.Post("/statistics", h.HandleCompute)
}
