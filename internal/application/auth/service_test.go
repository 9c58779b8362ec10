package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-trip-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) Put(ctx context.Context, s *domain.Session) error {
	return m.Called(ctx, s).Error(0)
}
func (m *mockSessionStore) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockSessionStore) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	return m.Called(ctx, sessionID, newToken, newExpiry).Error(0)
}
func (m *mockSessionStore) Update(ctx context.Context, sessionID string, updates map[string]interface{}) error {
	return m.Called(ctx, sessionID, updates).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(userID, role, sessionID string) (string, error) {
	args := m.Called(userID, role, sessionID)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newSvc(us *mockUserStore, ss *mockSessionStore, signer *mockSigner) Service {
	return NewService(us, ss, signer, 24*time.Hour)
}

func hashedUser(password string) *domain.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &domain.User{
		UserID:       "u1",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		Role:         domain.RoleTraveler,
		Enable:       true,
	}
}

// --- Register tests ---

func TestRegister_HappyPath(t *testing.T) {
	us, ss, signer := &mockUserStore{}, &mockSessionStore{}, &mockSigner{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	u, err := newSvc(us, ss, signer).Register(context.Background(), domain.CreateUserRequest{
		Username: "alice", Password: "secret123", Email: "alice@example.com",
		FirstName: "Alice", LastName: "Smith",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleTraveler, u.Role)
	assert.True(t, u.Enable)
	assert.NotEmpty(t, u.UserID)
	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")))
}

func TestRegister_UsernameTaken(t *testing.T) {
	us, ss, signer := &mockUserStore{}, &mockSessionStore{}, &mockSigner{}
	us.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{UserID: "u9"}, nil)

	_, err := newSvc(us, ss, signer).Register(context.Background(), domain.CreateUserRequest{
		Username: "alice", Password: "secret123", Email: "alice@example.com",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	us.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_EmailTaken(t *testing.T) {
	us, ss, signer := &mockUserStore{}, &mockSessionStore{}, &mockSigner{}
	us.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{UserID: "u9"}, nil)

	_, err := newSvc(us, ss, signer).Register(context.Background(), domain.CreateUserRequest{
		Username: "alice", Password: "secret123", Email: "alice@example.com",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

// --- Login tests ---

func TestLogin_HappyPath(t *testing.T) {
	us, ss, signer := &mockUserStore{}, &mockSessionStore{}, &mockSigner{}
	us.On("GetByUsername", mock.Anything, "alice").Return(hashedUser("secret123"), nil)
	ss.On("Put", mock.Anything, mock.AnythingOfType("*domain.Session")).Return(nil)
	signer.On("Sign", "u1", domain.RoleTraveler, mock.Anything).Return("bearer", nil)

	res, err := newSvc(us, ss, signer).Login(context.Background(), domain.LoginRequest{
		Username: "alice", Password: "secret123",
	})

	require.NoError(t, err)
	assert.Equal(t, "bearer", res.Bearer)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, "alice", res.Session.User.Username)
	assert.True(t, res.Session.Enable)
}

func TestLogin_ByEmailFallback(t *testing.T) {
	us, ss, signer := &mockUserStore{}, &mockSessionStore{}, &mockSigner{}
	us.On("GetByUsername", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(hashedUser("secret123"), nil)
	ss.On("Put", mock.Anything, mock.Anything).Return(nil)
	signer.On("Sign", mock.Anything, mock.Anything, mock.Anything).Return("bearer", nil)

	res, err := newSvc(us, ss, signer).Login(context.Background(), domain.LoginRequest{
		Username: "alice@example.com", Password: "secret123",
	})

	require.NoError(t, err)
	assert.Equal(t, "bearer", res.Bearer)
}

func TestLogin_UnknownUser(t *testing.T) {
	us, ss, signer := &mockUserStore{}, &mockSessionStore{}, &mockSigner{}
	us.On("GetByUsername", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)
	us.On("GetByEmail", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	_, err := newSvc(us, ss, signer).Login(context.Background(), domain.LoginRequest{
		Username: "ghost", Password: "whatever1",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestLogin_WrongPassword(t *testing.T) {
	us, ss, signer := &mockUserStore{}, &mockSessionStore{}, &mockSigner{}
	us.On("GetByUsername", mock.Anything, "alice").Return(hashedUser("secret123"), nil)

	_, err := newSvc(us, ss, signer).Login(context.Background(), domain.LoginRequest{
		Username: "alice", Password: "wrong-password",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	ss.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestLogin_DisabledAccount(t *testing.T) {
	us, ss, signer := &mockUserStore{}, &mockSessionStore{}, &mockSigner{}
	u := hashedUser("secret123")
	u.Enable = false
	us.On("GetByUsername", mock.Anything, "alice").Return(u, nil)

	_, err := newSvc(us, ss, signer).Login(context.Background(), domain.LoginRequest{
		Username: "alice", Password: "secret123",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// --- Refresh tests ---

func TestRefresh_HappyPath_RotatesToken(t *testing.T) {
	us, ss, signer := &mockUserStore{}, &mockSessionStore{}, &mockSigner{}
	sess := &domain.Session{
		SessionID: "s1", UserID: "u1", Enable: true,
		RefreshToken:     "old-token",
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	ss.On("GetByRefreshToken", mock.Anything, "old-token").Return(sess, nil)
	ss.On("RotateRefreshToken", mock.Anything, "s1", mock.Anything, mock.Anything).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(hashedUser("secret123"), nil)
	signer.On("Sign", "u1", domain.RoleTraveler, "s1").Return("new-bearer", nil)

	bearer, newToken, err := newSvc(us, ss, signer).Refresh(context.Background(), "old-token")

	require.NoError(t, err)
	assert.Equal(t, "new-bearer", bearer)
	assert.NotEmpty(t, newToken)
	assert.NotEqual(t, "old-token", newToken)
	ss.AssertExpectations(t)
}

func TestRefresh_UnknownToken(t *testing.T) {
	us, ss, signer := &mockUserStore{}, &mockSessionStore{}, &mockSigner{}
	ss.On("GetByRefreshToken", mock.Anything, "bogus").Return(nil, domain.ErrNotFound)

	_, _, err := newSvc(us, ss, signer).Refresh(context.Background(), "bogus")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestRefresh_ExpiredToken(t *testing.T) {
	us, ss, signer := &mockUserStore{}, &mockSessionStore{}, &mockSigner{}
	sess := &domain.Session{
		SessionID: "s1", UserID: "u1", Enable: true,
		RefreshToken:     "old-token",
		RefreshExpiresAt: time.Now().Add(-time.Hour).Unix(),
	}
	ss.On("GetByRefreshToken", mock.Anything, "old-token").Return(sess, nil)

	_, _, err := newSvc(us, ss, signer).Refresh(context.Background(), "old-token")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	ss.AssertNotCalled(t, "RotateRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_DisabledSession(t *testing.T) {
	us, ss, signer := &mockUserStore{}, &mockSessionStore{}, &mockSigner{}
	sess := &domain.Session{
		SessionID: "s1", UserID: "u1", Enable: false,
		RefreshToken:     "old-token",
		RefreshExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	ss.On("GetByRefreshToken", mock.Anything, "old-token").Return(sess, nil)

	_, _, err := newSvc(us, ss, signer).Refresh(context.Background(), "old-token")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

// --- Logout tests ---

func TestLogout_DisablesSession(t *testing.T) {
	us, ss, signer := &mockUserStore{}, &mockSessionStore{}, &mockSigner{}
	ss.On("Update", mock.Anything, "s1", map[string]interface{}{"enable": false}).Return(nil)

	require.NoError(t, newSvc(us, ss, signer).Logout(context.Background(), "s1"))
	ss.AssertExpectations(t)
}
