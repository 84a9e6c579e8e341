package production

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.idempotent).Post("/orders/{id}/work-orders", h.ReleaseSalesOrder)

	r.Get("/work-orders", h.ListWorkOrders)
	r.Get("/work-orders/{id}", h.ShowWorkOrder)
	r.Post("/work-orders/{id}/release", h.Release)
	r.Post("/work-orders/{id}/start", h.Start)
	r.Post("/work-orders/{id}/complete", h.Complete)
	r.Post("/work-orders/{id}/cancel", h.Cancel)

	r.Post("/job-cards/{id}/progress", h.RecordProgress)

	r.Get("/job-work", h.ListJobWork)
	r.With(h.idempotent).Post("/job-work", h.SendJobWork)
	r.Get("/job-work/{id}", h.ShowJobWork)
	r.Post("/job-work/{id}/receive", h.ReceiveJobWork)
	r.Post("/job-work/{id}/cancel", h.CancelJobWork)

	r.Get("/production/summary", h.Summary)
}
