package quotations

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotations", h.List)
	r.Post("/quotations/preview", h.Preview)
	r.With(h.idempotent).Post("/quotations", h.Create)
	r.Get("/quotations/{id}", h.Show)
	r.Put("/quotations/{id}", h.Update)
	r.Post("/quotations/{id}/submit", h.Submit)
	r.Post("/quotations/{id}/approve", h.Approve)
	r.Post("/quotations/{id}/reject", h.Reject)
}
