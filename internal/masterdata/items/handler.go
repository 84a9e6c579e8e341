package items

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/wms/internal/masterdata/shared"
	"github.com/odyssey-erp/wms/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/wms/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := internalShared.ActorFromContext(r.Context())
	filters := shared.FiltersFromRequest(r, actor.CompanyID)

	list, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list items failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if list == nil {
		list = []Item{}
	}
	httpx.JSON(w, http.StatusOK, shared.Page[Item]{Data: list, Total: total, Page: filters.Page, Limit: filters.Limit})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := internalShared.ActorFromContext(r.Context())
	item, err := h.service.Get(r.Context(), actor.CompanyID, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in ItemInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := internalShared.ActorFromContext(r.Context())
	item, err := h.service.Create(r.Context(), actor.CompanyID, in)
	if err != nil {
		h.logger.Warn("create item failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in ItemInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := internalShared.ActorFromContext(r.Context())
	item, err := h.service.Update(r.Context(), actor.CompanyID, id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	actor, _ := internalShared.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor.CompanyID, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
