package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the optimize routes under /optimize
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/optimize", func(r chi.Router) {
		r.Post("/today", h.HandleOptimizeToday)
		r.Post("/stats", h.HandleOptimizeStats)
		r.Post("/history", h.HandleOptimizeHistory)
		r.Post("/object", h.HandleOptimizeObject)
	})
}
