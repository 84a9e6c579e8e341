package production

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/wms/internal/platform/httpx"
	"github.com/odyssey-erp/wms/internal/sales/shared"
	wms "github.com/odyssey-erp/wms/internal/shared"
)

type Handler struct {
	logger     *slog.Logger
	service    *Service
	idempotent func(http.Handler) http.Handler
}

func NewHandler(logger *slog.Logger, service *Service, keys wms.KeyStore) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		idempotent: wms.Idempotent(keys, "production", logger),
	}
}

type workOrderList struct {
	Data       []WorkOrder    `json:"data"`
	Pagination wms.Pagination `json:"pagination"`
}

type jobWorkList struct {
	Data       []JobWorkWithDetails `json:"data"`
	Pagination wms.Pagination       `json:"pagination"`
}

func (h *Handler) ReleaseSalesOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	var req ReleaseSalesOrderRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	actor, _ := wms.ActorFromContext(r.Context())
	list, err := h.service.ReleaseSalesOrder(r.Context(), actor.CompanyID, orderID, req, actor.UserID)
	if err != nil {
		h.logger.Warn("release sales order failed", slog.Int64("sales_order_id", orderID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("sales order released to production", slog.Int64("sales_order_id", orderID), slog.Int("work_orders", len(list)))
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": list})
}

func (h *Handler) ListWorkOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := wms.ActorFromContext(r.Context())
	limit, offset := wms.PageFromRequest(r)
	q := r.URL.Query()
	req := ListWorkOrdersRequest{
		CompanyID:    actor.CompanyID,
		SalesOrderID: shared.QueryInt64(q, "sales_order_id"),
		Limit:        limit,
		Offset:       offset,
	}
	if status := q.Get("status"); status != "" {
		st := WorkOrderStatus(status)
		req.Status = &st
	}
	list, total, err := h.service.ListWorkOrders(r.Context(), req)
	if err != nil {
		h.logger.Error("list work orders failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []WorkOrder{}
	}
	httpx.JSON(w, http.StatusOK, workOrderList{Data: list, Pagination: wms.PageOf(limit, offset, total)})
}

func (h *Handler) ShowWorkOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	wo, err := h.service.GetWorkOrder(r.Context(), actor.CompanyID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Release)
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Start)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, companyID, id, userID int64) (*WorkOrder, error)) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	wo, err := fn(r.Context(), actor.CompanyID, id, actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	var req ProgressRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	wo, err := h.service.RecordProgress(r.Context(), actor.CompanyID, id, req, actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) ListJobWork(w http.ResponseWriter, r *http.Request) {
	actor, _ := wms.ActorFromContext(r.Context())
	limit, offset := wms.PageFromRequest(r)
	q := r.URL.Query()
	req := ListJobWorkRequest{
		CompanyID: actor.CompanyID,
		VendorID:  shared.QueryInt64(q, "vendor_id"),
		JobCardID: shared.QueryInt64(q, "job_card_id"),
		Limit:     limit,
		Offset:    offset,
	}
	if status := q.Get("status"); status != "" {
		st := JobWorkStatus(status)
		req.Status = &st
	}
	list, total, err := h.service.ListJobWork(r.Context(), req)
	if err != nil {
		h.logger.Error("list job work failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []JobWorkWithDetails{}
	}
	httpx.JSON(w, http.StatusOK, jobWorkList{Data: list, Pagination: wms.PageOf(limit, offset, total)})
}

func (h *Handler) ShowJobWork(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	jw, err := h.service.GetJobWork(r.Context(), actor.CompanyID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jw)
}

func (h *Handler) SendJobWork(w http.ResponseWriter, r *http.Request) {
	var req SendJobWorkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	jw, err := h.service.SendJobWork(r.Context(), actor.CompanyID, req, actor.UserID)
	if err != nil {
		h.logger.Warn("send job work failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("job work sent", slog.Int64("id", jw.ID), slog.String("challan_no", jw.ChallanNo.String()))
	httpx.JSON(w, http.StatusCreated, jw)
}

func (h *Handler) ReceiveJobWork(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	var req ReceiveJobWorkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	jw, err := h.service.ReceiveJobWork(r.Context(), actor.CompanyID, id, req, actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jw)
}

func (h *Handler) CancelJobWork(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ParseID(w, r)
	if !ok {
		return
	}
	actor, _ := wms.ActorFromContext(r.Context())
	jw, err := h.service.CancelJobWork(r.Context(), actor.CompanyID, id, actor.UserID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, jw)
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, _ := wms.ActorFromContext(r.Context())
	sum, err := h.service.Summary(r.Context(), actor.CompanyID)
	if err != nil {
		h.logger.Error("production summary failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}
