package export

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotations/{id}/pdf", h.QuotationPDF)
	r.Post("/quotations/{id}/pdf/render", h.RenderQuotationPDF)
}
