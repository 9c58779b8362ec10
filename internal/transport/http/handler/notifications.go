package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-trip-api/internal/application/itinerary"
	"github.com/go-trip-api/internal/application/notification"
	"github.com/go-trip-api/internal/domain"
	"github.com/go-trip-api/internal/pkg/validate"
	"github.com/go-trip-api/internal/transport/http/middleware"
)

// NotificationHandler handles announcement fan-out and per-user feed endpoints.
type NotificationHandler struct {
	svc         notification.Service
	itineraries itinerary.Service
}

func NewNotificationHandler(svc notification.Service, itineraries itinerary.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc, itineraries: itineraries}
}

// Announce fans an owner announcement out to every member of the itinerary.
func (h *NotificationHandler) Announce(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	itineraryID := chi.URLParam(r, "id")

	owner, err := h.itineraries.IsOwner(r.Context(), itineraryID, claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	if !owner {
		writeError(w, http.StatusForbidden, "only the itinerary owner can send announcements")
		return
	}

	var req domain.CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.svc.NotifyItineraryMembers(r.Context(), itineraryID, claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	notifications, err := h.svc.List(r.Context(), claims.UserID, unreadOnly)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) CountUnread(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	count, err := h.svc.CountUnread(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, count)
}

func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.MarkRead(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "notification read"})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.MarkAllRead(r.Context(), claims.UserID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "all notifications read"})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "notification deleted"})
}
