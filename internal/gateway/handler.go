// Package gateway is a thin reverse proxy that presents the procurement,
// warehouse and logistics services as one API surface.
package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

type Handler struct {
	procurementProxy *ServiceProxy
	warehouseProxy   *ServiceProxy
	logisticsProxy   *ServiceProxy
	logger           *slog.Logger
}

func NewHandler(procurementProxy, warehouseProxy, logisticsProxy *ServiceProxy, logger *slog.Logger) *Handler {
	return &Handler{
		procurementProxy: procurementProxy,
		warehouseProxy:   warehouseProxy,
		logisticsProxy:   logisticsProxy,
		logger:           logger,
	}
}

func (h *Handler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.procurementProxy, r.URL.Path)
}

func (h *Handler) HandleWarehouse(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.warehouseProxy, r.URL.Path)
}

func (h *Handler) HandleLogistics(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.logisticsProxy, r.URL.Path)
}

func (h *Handler) proxyRequest(w http.ResponseWriter, r *http.Request, proxy *ServiceProxy, path string) {
	resp, err := proxy.ForwardRequest(r.Context(), r, path)
	if err != nil {
		h.logger.Error("failed to forward request", "error", err, "path", path)
		h.writeError(w, http.StatusBadGateway, "service unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(resp.StatusCode)

	h.logger.Info("request proxied", "method", r.Method, "path", path, "status", resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("failed to copy response body", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}
