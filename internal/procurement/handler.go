package procurement

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/procureflow/procureflow/internal/domain"
	"github.com/procureflow/procureflow/internal/orders"
	"github.com/procureflow/procureflow/internal/saga"
)

type Handler struct {
	svc    *saga.Procurement
	repo   *orders.Repository
	logger *slog.Logger
}

func NewHandler(svc *saga.Procurement, repo *orders.Repository, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in saga.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), in)
	if err != nil {
		h.writeSagaError(w, err, "failed to create order")
		return
	}

	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		h.writeSagaError(w, err, "failed to get order")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, list)
}

type approveResponse struct {
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	ApprovedAt time.Time `json:"approved_at"`
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	approvedAt, err := h.svc.Approve(r.Context(), id)
	if err != nil {
		h.writeSagaError(w, err, "failed to approve order")
		return
	}

	h.writeJSON(w, http.StatusOK, approveResponse{
		OrderID:    id,
		Status:     string(domain.OrderStatusApproved),
		ApprovedAt: approvedAt,
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reason == "" {
		req.Reason = r.URL.Query().Get("reason")
	}

	if err := h.svc.Reject(r.Context(), id, req.Reason); err != nil {
		h.writeSagaError(w, err, "failed to reject order")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"order_id": id,
		"status":   string(domain.OrderStatusRejected),
	})
}

// writeSagaError maps the error taxonomy onto HTTP statuses: a conflict is
// a distinct, non-fatal outcome so callers can tell "already handled" from
// "broken".
func (h *Handler) writeSagaError(w http.ResponseWriter, err error, logMsg string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		h.writeError(w, http.StatusConflict, "order already exists")
	case errors.Is(err, domain.ErrStateConflict):
		h.writeError(w, http.StatusConflict, "order is not in the expected status")
	default:
		h.logger.Error(logMsg, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
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
