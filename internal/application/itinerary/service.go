package itinerary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-trip-api/internal/domain"
	"github.com/go-trip-api/internal/pkg/id"
)

// Service manages itineraries and their member rosters.
type Service interface {
	Create(ctx context.Context, ownerUserID string, req domain.CreateItineraryRequest) (*domain.Itinerary, error)
	Get(ctx context.Context, itineraryID string) (*domain.Itinerary, error)
	// AddMember adds a user to the roster. Only the owner may invite.
	AddMember(ctx context.Context, itineraryID, callerUserID string, req domain.AddMemberRequest) error
	RemoveMember(ctx context.Context, itineraryID, callerUserID, userID string) error
	// IsOwner reports whether userID owns the itinerary.
	IsOwner(ctx context.Context, itineraryID, userID string) (bool, error)
}

type itineraryStore interface {
	Put(ctx context.Context, it *domain.Itinerary) error
	Get(ctx context.Context, itineraryID string) (*domain.Itinerary, error)
}

type memberStore interface {
	Put(ctx context.Context, m *domain.ItineraryMember) error
	GetActive(ctx context.Context, itineraryID, userID string) (*domain.ItineraryMember, error)
	SoftDelete(ctx context.Context, memberID string) error
}

type userDirectory interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type service struct {
	itineraries itineraryStore
	members     memberStore
	users       userDirectory
}

func NewService(itineraries itineraryStore, members memberStore, users userDirectory) Service {
	return &service{itineraries: itineraries, members: members, users: users}
}

func (s *service) Create(ctx context.Context, ownerUserID string, req domain.CreateItineraryRequest) (*domain.Itinerary, error) {
	now := time.Now().UTC()
	it := &domain.Itinerary{
		ItineraryID: id.New(),
		Name:        req.Name,
		OwnerUserID: ownerUserID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		GroupSize:   req.GroupSize,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.itineraries.Put(ctx, it); err != nil {
		return nil, err
	}

	// The owner is always a roster member of their own itinerary.
	owner := &domain.ItineraryMember{
		MemberID:    id.New(),
		ItineraryID: it.ItineraryID,
		UserID:      ownerUserID,
		Role:        domain.MemberRoleOwner,
		JoinedAt:    now,
	}
	if err := s.members.Put(ctx, owner); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *service) Get(ctx context.Context, itineraryID string) (*domain.Itinerary, error) {
	return s.itineraries.Get(ctx, itineraryID)
}

func (s *service) AddMember(ctx context.Context, itineraryID, callerUserID string, req domain.AddMemberRequest) error {
	it, err := s.itineraries.Get(ctx, itineraryID)
	if err != nil {
		return err
	}
	if it.OwnerUserID != callerUserID {
		return fmt.Errorf("only the owner can add members: %w", domain.ErrForbidden)
	}

	if _, err := s.users.Get(ctx, req.UserID); err != nil {
		return err
	}

	if _, err := s.members.GetActive(ctx, itineraryID, req.UserID); err == nil {
		return fmt.Errorf("user already a member: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	return s.members.Put(ctx, &domain.ItineraryMember{
		MemberID:    id.New(),
		ItineraryID: itineraryID,
		UserID:      req.UserID,
		Role:        domain.MemberRoleMember,
		JoinedAt:    time.Now().UTC(),
	})
}

func (s *service) RemoveMember(ctx context.Context, itineraryID, callerUserID, userID string) error {
	it, err := s.itineraries.Get(ctx, itineraryID)
	if err != nil {
		return err
	}
	// The owner can remove anyone but themselves; members can leave.
	if it.OwnerUserID != callerUserID && callerUserID != userID {
		return fmt.Errorf("cannot remove other members: %w", domain.ErrForbidden)
	}
	if it.OwnerUserID == userID {
		return fmt.Errorf("owner cannot be removed: %w", domain.ErrBadRequest)
	}

	m, err := s.members.GetActive(ctx, itineraryID, userID)
	if err != nil {
		return err
	}
	return s.members.SoftDelete(ctx, m.MemberID)
}

func (s *service) IsOwner(ctx context.Context, itineraryID, userID string) (bool, error) {
	it, err := s.itineraries.Get(ctx, itineraryID)
	if err != nil {
		return false, err
	}
	return it.OwnerUserID == userID, nil
}
