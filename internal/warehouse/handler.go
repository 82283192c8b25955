package warehouse

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/procureflow/procureflow/internal/domain"
	"github.com/procureflow/procureflow/internal/saga"
	"github.com/procureflow/procureflow/internal/stock"
)

type Handler struct {
	svc    *saga.Warehouse
	stock  *stock.Repository
	logger *slog.Logger
}

func NewHandler(svc *saga.Warehouse, stock *stock.Repository, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		stock:  stock,
		logger: logger,
	}
}

func (h *Handler) HandleAcceptReception(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	if orderID == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.svc.AcceptReception(r.Context(), orderID)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			h.writeError(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, domain.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrNoItems):
			h.writeError(w, http.StatusUnprocessableEntity, "order has no items")
		case errors.Is(err, domain.ErrStateConflict):
			h.writeError(w, http.StatusConflict, "order is not awaiting reception")
		default:
			h.logger.Error("failed to accept reception", "error", err, "order_id", orderID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleListStock(w http.ResponseWriter, r *http.Request) {
	entries, err := h.stock.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list stock", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	sku := r.PathValue("sku")
	if sku == "" {
		h.writeError(w, http.StatusBadRequest, "missing sku")
		return
	}

	entry, err := h.stock.Get(r.Context(), sku)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "sku not found")
			return
		}
		h.logger.Error("failed to get stock", "error", err, "sku", sku)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
