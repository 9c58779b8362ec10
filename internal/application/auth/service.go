package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-trip-api/internal/domain"
	"github.com/go-trip-api/internal/pkg/id"
	pkgtoken "github.com/go-trip-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

type LoginResult struct {
	Bearer       string
	RefreshToken string
	Session      *domain.Session
}

type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (bearer, newRefreshToken string, err error)
	Logout(ctx context.Context, sessionID string) error
}

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type sessionStore interface {
	Put(ctx context.Context, sess *domain.Session) error
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
}

type tokenSigner interface {
	Sign(userID, role, sessionID string) (string, error)
}

type service struct {
	users           userStore
	sessions        sessionStore
	signer          tokenSigner
	refreshTokenDur time.Duration
}

func NewService(users userStore, sessions sessionStore, signer tokenSigner, refreshTokenDur time.Duration) Service {
	return &service{
		users:           users,
		sessions:        sessions,
		signer:          signer,
		refreshTokenDur: refreshTokenDur,
	}
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleTraveler,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		u, err = s.users.GetByEmail(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
	}
	if !u.Enable {
		return nil, fmt.Errorf("account disabled: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	refreshToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:        id.New(),
		UserID:           u.UserID,
		Enable:           true,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(s.refreshTokenDur).Unix(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	bearer, err := s.signer.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return nil, err
	}
	sess.User = u
	return &LoginResult{Bearer: bearer, RefreshToken: refreshToken, Session: sess}, nil
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	}
	if !sess.Enable || sess.RefreshExpiresAt < time.Now().Unix() {
		return "", "", fmt.Errorf("refresh token expired: %w", domain.ErrUnauthorized)
	}

	newToken, err := pkgtoken.NewRefreshToken()
	if err != nil {
		return "", "", err
	}
	newExpiry := time.Now().Add(s.refreshTokenDur).Unix()
	if err := s.sessions.RotateRefreshToken(ctx, sess.SessionID, newToken, newExpiry); err != nil {
		return "", "", err
	}

	u, err := s.users.Get(ctx, sess.UserID)
	if err != nil {
		return "", "", err
	}
	bearer, err := s.signer.Sign(u.UserID, u.Role, sess.SessionID)
	if err != nil {
		return "", "", err
	}
	return bearer, newToken, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Update(ctx, sessionID, map[string]interface{}{"enable": false})
}
