package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// SinkHandler is a local stand-in for the real notification channels. It
// accepts webhook posts and logs them, which is all the demo environment
// needs.
type SinkHandler struct {
	logger *slog.Logger
}

func NewSinkHandler(logger *slog.Logger) *SinkHandler {
	return &SinkHandler{logger: logger}
}

type sinkResponse struct {
	Status string `json:"status"`
}

func (h *SinkHandler) HandleNotify(w http.ResponseWriter, r *http.Request) {
	var n Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	h.logger.Info("notification received", "role", n.Role, "branch", n.Branch, "subject", n.Subject)

	h.writeJSON(w, http.StatusOK, sinkResponse{Status: "delivered"})
}

func (h *SinkHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
