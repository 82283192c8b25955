package logistics

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/procureflow/procureflow/internal/domain"
	"github.com/procureflow/procureflow/internal/saga"
	"github.com/procureflow/procureflow/internal/shipments"
)

type Handler struct {
	svc       *saga.Logistics
	shipments *shipments.Repository
	logger    *slog.Logger
}

func NewHandler(svc *saga.Logistics, shipments *shipments.Repository, logger *slog.Logger) *Handler {
	return &Handler{
		svc:       svc,
		shipments: shipments,
		logger:    logger,
	}
}

func (h *Handler) HandleConfirmDispatch(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	if orderID == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	result, err := h.svc.ConfirmDispatch(r.Context(), orderID)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			h.writeError(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, domain.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "order not found")
		default:
			h.logger.Error("failed to confirm dispatch", "error", err, "order_id", orderID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleGetShipment(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")
	if orderID == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	shipment, err := h.shipments.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "shipment not found")
			return
		}
		h.logger.Error("failed to get shipment", "error", err, "order_id", orderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, shipment)
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
