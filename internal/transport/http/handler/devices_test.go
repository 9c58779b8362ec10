package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-trip-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDeviceSvc struct{ mock.Mock }

func (m *mockDeviceSvc) Register(ctx context.Context, userID string, req domain.RegisterDeviceRequest) error {
	return m.Called(ctx, userID, req).Error(0)
}
func (m *mockDeviceSvc) Deactivate(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}
func (m *mockDeviceSvc) ListActiveTokens(ctx context.Context, userIDs []string) ([]string, error) {
	args := m.Called(ctx, userIDs)
	if t, _ := args.Get(0).([]string); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDeviceSvc) SweepStale(ctx context.Context, thresholdDays int) (int, error) {
	args := m.Called(ctx, thresholdDays)
	return args.Int(0), args.Error(1)
}

func TestDeviceRegister_InvalidPlatform(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockDeviceSvc{}
	h := NewDeviceHandler(svc, 30)

	body, _ := json.Marshal(domain.RegisterDeviceRequest{Token: "fcm-token", Platform: "blackberry"})
	r := bearerReq(t, p, http.MethodPost, "/v1/users/devices", "u1", domain.RoleTraveler, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Register), rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeviceRegister_Conflict(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockDeviceSvc{}
	svc.On("Register", mock.Anything, "u1", mock.Anything).Return(domain.ErrConflict)
	h := NewDeviceHandler(svc, 30)

	body, _ := json.Marshal(domain.RegisterDeviceRequest{Token: "fcm-token", Platform: "ios"})
	r := bearerReq(t, p, http.MethodPost, "/v1/users/devices", "u1", domain.RoleTraveler, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Register), rr, r)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestDeviceRegister_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockDeviceSvc{}
	svc.On("Register", mock.Anything, "u1", domain.RegisterDeviceRequest{Token: "fcm-token", Platform: "web"}).Return(nil)
	h := NewDeviceHandler(svc, 30)

	body, _ := json.Marshal(domain.RegisterDeviceRequest{Token: "fcm-token", Platform: "web"})
	r := bearerReq(t, p, http.MethodPost, "/v1/users/devices", "u1", domain.RoleTraveler, body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Register), rr, r)

	assert.Equal(t, http.StatusCreated, rr.Code)
	svc.AssertExpectations(t)
}

func TestSweep_ReturnsDeactivatedCount(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockDeviceSvc{}
	svc.On("SweepStale", mock.Anything, 30).Return(7, nil)
	h := NewDeviceHandler(svc, 30)

	r := bearerReq(t, p, http.MethodPost, "/v1/admin/devices/sweep", "admin1", domain.RoleAdmin, nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.Sweep), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp SweepEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 7, resp.Deactivated)
	svc.AssertExpectations(t)
}
