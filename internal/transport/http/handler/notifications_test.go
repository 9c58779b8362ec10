package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-trip-api/internal/config"
	"github.com/go-trip-api/internal/domain"
	jwtinfra "github.com/go-trip-api/internal/infrastructure/jwt"
	"github.com/go-trip-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockNotifSvc struct{ mock.Mock }

func (m *mockNotifSvc) NotifyItineraryMembers(ctx context.Context, itineraryID, originUserID string, req domain.CreateNotificationRequest) (*domain.NotificationSummary, error) {
	args := m.Called(ctx, itineraryID, originUserID, req)
	if s, _ := args.Get(0).(*domain.NotificationSummary); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotifSvc) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	if n, _ := args.Get(0).([]domain.Notification); n != nil {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotifSvc) CountUnread(ctx context.Context, userID string) (*domain.UnreadCount, error) {
	args := m.Called(ctx, userID)
	if c, _ := args.Get(0).(*domain.UnreadCount); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockNotifSvc) MarkRead(ctx context.Context, userID, notificationID string) error {
	return m.Called(ctx, userID, notificationID).Error(0)
}
func (m *mockNotifSvc) MarkAllRead(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockNotifSvc) Delete(ctx context.Context, userID, notificationID string) error {
	return m.Called(ctx, userID, notificationID).Error(0)
}

type mockItinSvc struct{ mock.Mock }

func (m *mockItinSvc) Create(ctx context.Context, ownerUserID string, req domain.CreateItineraryRequest) (*domain.Itinerary, error) {
	args := m.Called(ctx, ownerUserID, req)
	if it, _ := args.Get(0).(*domain.Itinerary); it != nil {
		return it, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockItinSvc) Get(ctx context.Context, itineraryID string) (*domain.Itinerary, error) {
	args := m.Called(ctx, itineraryID)
	if it, _ := args.Get(0).(*domain.Itinerary); it != nil {
		return it, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockItinSvc) AddMember(ctx context.Context, itineraryID, callerUserID string, req domain.AddMemberRequest) error {
	return m.Called(ctx, itineraryID, callerUserID, req).Error(0)
}
func (m *mockItinSvc) RemoveMember(ctx context.Context, itineraryID, callerUserID, userID string) error {
	return m.Called(ctx, itineraryID, callerUserID, userID).Error(0)
}
func (m *mockItinSvc) IsOwner(ctx context.Context, itineraryID, userID string) (bool, error) {
	args := m.Called(ctx, itineraryID, userID)
	return args.Bool(0), args.Error(1)
}

// --- helpers ---

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

// bearerReq builds a request with a signed Bearer token for the given userID and role.
func bearerReq(t *testing.T, p *jwtinfra.Provider, method, target, userID, role string, body []byte) *http.Request {
	t.Helper()
	token, err := p.Sign(userID, role, "sess1")
	require.NoError(t, err)
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// withChiID injects a chi URL param "id" into the request context.
func withChiID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, h http.Handler, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p)(h).ServeHTTP(w, r)
}

// --- Announce tests ---

func TestAnnounce_MissingClaims(t *testing.T) {
	h := NewNotificationHandler(&mockNotifSvc{}, &mockItinSvc{})
	r := withChiID(httptest.NewRequest(http.MethodPost, "/v1/itineraries/it-1/notifications", nil), "it-1")
	rr := httptest.NewRecorder()
	h.Announce(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAnnounce_NotOwner(t *testing.T) {
	p := newTestJWTProvider(t)
	notifSvc, itinSvc := &mockNotifSvc{}, &mockItinSvc{}
	itinSvc.On("IsOwner", mock.Anything, "it-1", "u1").Return(false, nil)
	h := NewNotificationHandler(notifSvc, itinSvc)

	body, _ := json.Marshal(domain.CreateNotificationRequest{Title: "Hi", Body: "There"})
	r := bearerReq(t, p, http.MethodPost, "/v1/itineraries/it-1/notifications", "u1", domain.RoleTraveler, body)
	r = withChiID(r, "it-1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Announce), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	notifSvc.AssertNotCalled(t, "NotifyItineraryMembers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnnounce_ValidationFailure(t *testing.T) {
	p := newTestJWTProvider(t)
	notifSvc, itinSvc := &mockNotifSvc{}, &mockItinSvc{}
	itinSvc.On("IsOwner", mock.Anything, "it-1", "u1").Return(true, nil)
	h := NewNotificationHandler(notifSvc, itinSvc)

	body, _ := json.Marshal(domain.CreateNotificationRequest{Body: "no title"})
	r := bearerReq(t, p, http.MethodPost, "/v1/itineraries/it-1/notifications", "u1", domain.RoleTraveler, body)
	r = withChiID(r, "it-1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Announce), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	notifSvc.AssertNotCalled(t, "NotifyItineraryMembers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnnounce_ItineraryNotFound(t *testing.T) {
	p := newTestJWTProvider(t)
	notifSvc, itinSvc := &mockNotifSvc{}, &mockItinSvc{}
	itinSvc.On("IsOwner", mock.Anything, "missing", "u1").Return(false, domain.ErrNotFound)
	h := NewNotificationHandler(notifSvc, itinSvc)

	body, _ := json.Marshal(domain.CreateNotificationRequest{Title: "Hi", Body: "There"})
	r := bearerReq(t, p, http.MethodPost, "/v1/itineraries/missing/notifications", "u1", domain.RoleTraveler, body)
	r = withChiID(r, "missing")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Announce), rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAnnounce_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	notifSvc, itinSvc := &mockNotifSvc{}, &mockItinSvc{}
	itinSvc.On("IsOwner", mock.Anything, "it-1", "u1").Return(true, nil)
	notifSvc.On("NotifyItineraryMembers", mock.Anything, "it-1", "u1", mock.Anything).
		Return(&domain.NotificationSummary{RecipientCount: 3}, nil)
	h := NewNotificationHandler(notifSvc, itinSvc)

	body, _ := json.Marshal(domain.CreateNotificationRequest{Title: "Flight moved", Body: "09:40 now"})
	r := bearerReq(t, p, http.MethodPost, "/v1/itineraries/it-1/notifications", "u1", domain.RoleTraveler, body)
	r = withChiID(r, "it-1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Announce), rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	var resp domain.NotificationSummary
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 3, resp.RecipientCount)
	notifSvc.AssertExpectations(t)
}

// --- feed endpoint tests ---

func TestList_PassesUnreadOnlyFlag(t *testing.T) {
	p := newTestJWTProvider(t)
	notifSvc := &mockNotifSvc{}
	notifSvc.On("List", mock.Anything, "u1", true).Return([]domain.Notification{}, nil)
	h := NewNotificationHandler(notifSvc, &mockItinSvc{})

	r := bearerReq(t, p, http.MethodGet, "/v1/notifications?unread_only=true", "u1", domain.RoleTraveler, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.List), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	notifSvc.AssertExpectations(t)
}

func TestCountUnread_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	notifSvc := &mockNotifSvc{}
	notifSvc.On("CountUnread", mock.Anything, "u1").Return(&domain.UnreadCount{UnreadCount: 5}, nil)
	h := NewNotificationHandler(notifSvc, &mockItinSvc{})

	r := bearerReq(t, p, http.MethodGet, "/v1/notifications/unread/count", "u1", domain.RoleTraveler, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.CountUnread), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp domain.UnreadCount
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 5, resp.UnreadCount)
}

func TestMarkAsRead_NotFoundMapsTo404(t *testing.T) {
	p := newTestJWTProvider(t)
	notifSvc := &mockNotifSvc{}
	notifSvc.On("MarkRead", mock.Anything, "u1", "n1").Return(domain.ErrNotFound)
	h := NewNotificationHandler(notifSvc, &mockItinSvc{})

	r := bearerReq(t, p, http.MethodPut, "/v1/notifications/n1/read", "u1", domain.RoleTraveler, nil)
	r = withChiID(r, "n1")
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.MarkAsRead), rr, r)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMarkAllRead_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	notifSvc := &mockNotifSvc{}
	notifSvc.On("MarkAllRead", mock.Anything, "u1").Return(nil)
	h := NewNotificationHandler(notifSvc, &mockItinSvc{})

	r := bearerReq(t, p, http.MethodPut, "/v1/notifications/mark-all-read", "u1", domain.RoleTraveler, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.MarkAllRead), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	notifSvc.AssertExpectations(t)
}
