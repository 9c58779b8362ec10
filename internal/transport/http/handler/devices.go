package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-trip-api/internal/application/device"
	"github.com/go-trip-api/internal/domain"
	"github.com/go-trip-api/internal/pkg/validate"
	"github.com/go-trip-api/internal/transport/http/middleware"
)

// DeviceHandler handles push-token registration endpoints.
type DeviceHandler struct {
	svc       device.Service
	staleDays int
}

func NewDeviceHandler(svc device.Service, staleDays int) *DeviceHandler {
	return &DeviceHandler{svc: svc, staleDays: staleDays}
}

func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.Register(r.Context(), claims.UserID, req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{Message: "device registered"})
}

func (h *DeviceHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "token required")
		return
	}
	if err := h.svc.Deactivate(r.Context(), token); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "device deactivated"})
}

// Sweep deactivates registrations that have not been seen within the
// configured staleness window. Admin only.
func (h *DeviceHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.SweepStale(r.Context(), h.staleDays)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SweepEnvelope{Deactivated: n})
}
