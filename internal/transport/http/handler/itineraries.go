package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-trip-api/internal/application/itinerary"
	"github.com/go-trip-api/internal/domain"
	"github.com/go-trip-api/internal/pkg/validate"
	"github.com/go-trip-api/internal/transport/http/middleware"
)

// ItineraryHandler handles itinerary and roster endpoints.
type ItineraryHandler struct {
	svc itinerary.Service
}

func NewItineraryHandler(svc itinerary.Service) *ItineraryHandler {
	return &ItineraryHandler{svc: svc}
}

func (h *ItineraryHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateItineraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	it, err := h.svc.Create(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *ItineraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	it, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *ItineraryHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.AddMember(r.Context(), chi.URLParam(r, "id"), claims.UserID, req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{Message: "member added"})
}

func (h *ItineraryHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	err := h.svc.RemoveMember(r.Context(), chi.URLParam(r, "id"), claims.UserID, chi.URLParam(r, "userID"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "member removed"})
}
