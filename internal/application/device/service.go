package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-trip-api/internal/domain"
	"github.com/go-trip-api/internal/pkg/id"
)

// Service is the registry of push-delivery tokens: which tokens belong to
// which users and whether they are currently deliverable.
type Service interface {
	// Register upserts by (user, platform): an existing row gets the new
	// token and is reactivated, otherwise a new row is inserted.
	Register(ctx context.Context, userID string, req domain.RegisterDeviceRequest) error
	// Deactivate marks the registration holding token inactive. Unknown
	// tokens are a no-op, so the call is idempotent.
	Deactivate(ctx context.Context, token string) error
	// ListActiveTokens returns the deliverable tokens for any of the users.
	ListActiveTokens(ctx context.Context, userIDs []string) ([]string, error)
	// SweepStale deactivates active registrations unused for more than
	// thresholdDays and returns how many were affected.
	SweepStale(ctx context.Context, thresholdDays int) (int, error)
}

type deviceStore interface {
	Put(ctx context.Context, d *domain.Device) error
	GetByToken(ctx context.Context, token string) (*domain.Device, error)
	GetByUserAndPlatform(ctx context.Context, userID, platform string) (*domain.Device, error)
	ListActiveByUsers(ctx context.Context, userIDs []string) ([]domain.Device, error)
	ListStaleActive(ctx context.Context, cutoff time.Time) ([]domain.Device, error)
	Update(ctx context.Context, deviceID string, updates map[string]interface{}) error
	Deactivate(ctx context.Context, deviceID string) error
}

type service struct {
	repo deviceStore
}

func NewService(repo deviceStore) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, userID string, req domain.RegisterDeviceRequest) error {
	// A token belongs to exactly one user. Re-registering your own token is
	// fine; claiming someone else's is a data-integrity violation.
	if holder, err := s.repo.GetByToken(ctx, req.Token); err == nil && holder.UserID != userID {
		return fmt.Errorf("token already registered to another user: %w", domain.ErrConflict)
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	now := time.Now().UTC()

	existing, err := s.repo.GetByUserAndPlatform(ctx, userID, req.Platform)
	if err == nil {
		updates := map[string]interface{}{
			"token":        req.Token,
			"last_seen_at": now.Format(time.RFC3339),
			"enable":       true,
		}
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		return s.repo.Update(ctx, existing.DeviceID, updates)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	return s.repo.Put(ctx, &domain.Device{
		DeviceID:   id.New(),
		UserID:     userID,
		Token:      req.Token,
		Platform:   req.Platform,
		Name:       req.Name,
		Enable:     true,
		CreatedAt:  now,
		LastSeenAt: now,
	})
}

func (s *service) Deactivate(ctx context.Context, token string) error {
	d, err := s.repo.GetByToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, d.DeviceID)
}

func (s *service) ListActiveTokens(ctx context.Context, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	devices, err := s.repo.ListActiveByUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		if d.Token != "" {
			tokens = append(tokens, d.Token)
		}
	}
	return tokens, nil
}

func (s *service) SweepStale(ctx context.Context, thresholdDays int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -thresholdDays)
	stale, err := s.repo.ListStaleActive(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, d := range stale {
		if err := s.repo.Deactivate(ctx, d.DeviceID); err != nil {
			slog.Warn("failed to deactivate stale device", "device_id", d.DeviceID, "err", err)
			continue
		}
		count++
	}
	return count, nil
}
