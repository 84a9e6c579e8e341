package orders

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.With(h.idempotent).Post("/orders", h.Create)
	r.With(h.idempotent).Post("/quotations/{id}/convert", h.ConvertFromQuotation)
	r.Get("/orders/{id}", h.Show)
	r.Put("/orders/{id}", h.Update)
	r.Post("/orders/{id}/confirm", h.Confirm)
	r.Post("/orders/{id}/start-production", h.StartProduction)
	r.Post("/orders/{id}/complete", h.Complete)
	r.Post("/orders/{id}/cancel", h.Cancel)
}
