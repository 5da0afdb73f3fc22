package handler

import (
	"net/http"

	"github.com/yndnr/pcd-go/internal/infra/buildinfo"
)

// handleDevice handles GET /v1/device.
func (h *Handler) handleDevice(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, DeviceResponse{
		DeviceStat: h.dev.Stat(r.Context()),
		Build:      buildinfo.Get(),
	})
}
