package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/pcd-go/internal/core/domain"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready. The server is ready while the device
// is registered.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if !h.dev.Registered() {
		h.writeError(w, r, http.StatusServiceUnavailable, domain.ErrDeviceClosed.Code, domain.ErrDeviceClosed.Message, nil)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
