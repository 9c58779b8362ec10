package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-trip-api/internal/application/push"
	"github.com/go-trip-api/internal/domain"
	"github.com/go-trip-api/internal/infrastructure/smtp"
	"github.com/go-trip-api/internal/pkg/id"
)

// Service fans announcements out to itinerary members and manages each
// recipient's notification feed.
type Service interface {
	// NotifyItineraryMembers persists one notification per active member of
	// the itinerary (minus the origin user) in a single atomic write, then
	// dispatches best-effort push and optional email delivery. Delivery
	// failures never surface to the caller.
	NotifyItineraryMembers(ctx context.Context, itineraryID, originUserID string, req domain.CreateNotificationRequest) (*domain.NotificationSummary, error)
	List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (*domain.UnreadCount, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) error
}

type notificationStore interface {
	CreateMany(ctx context.Context, notifications []domain.Notification) error
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID string) error
	SoftDelete(ctx context.Context, notificationID string) error
}

type itineraryStore interface {
	Get(ctx context.Context, itineraryID string) (*domain.Itinerary, error)
}

type memberStore interface {
	ListActive(ctx context.Context, itineraryID string) ([]domain.ItineraryMember, error)
}

type userDirectory interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

type service struct {
	repo        notificationStore
	itineraries itineraryStore
	members     memberStore
	users       userDirectory
	push        push.Service
	mailer      smtp.Mailer
}

func NewService(repo notificationStore, itineraries itineraryStore, members memberStore, users userDirectory, pushSvc push.Service, mailer smtp.Mailer) Service {
	return &service{
		repo:        repo,
		itineraries: itineraries,
		members:     members,
		users:       users,
		push:        pushSvc,
		mailer:      mailer,
	}
}

func (s *service) NotifyItineraryMembers(ctx context.Context, itineraryID, originUserID string, req domain.CreateNotificationRequest) (*domain.NotificationSummary, error) {
	itin, err := s.itineraries.Get(ctx, itineraryID)
	if err != nil {
		return nil, err
	}

	members, err := s.members.ListActive(ctx, itineraryID)
	if err != nil {
		return nil, err
	}

	recipients := make([]string, 0, len(members))
	for _, m := range members {
		if m.UserID != originUserID {
			recipients = append(recipients, m.UserID)
		}
	}
	if len(recipients) == 0 {
		return &domain.NotificationSummary{RecipientCount: 0}, nil
	}

	now := time.Now().UTC()
	notifications := make([]domain.Notification, 0, len(recipients))
	for _, userID := range recipients {
		notifications = append(notifications, domain.Notification{
			NotificationID: id.New(),
			UserID:         userID,
			ItineraryID:    itineraryID,
			Category:       domain.CategoryOwnerAnnouncement,
			Title:          req.Title,
			Body:           req.Body,
			IsRead:         false,
			Deleted:        false,
			CreatedAt:      now,
		})
	}

	if err := s.repo.CreateMany(ctx, notifications); err != nil {
		return nil, fmt.Errorf("persist notifications: %w", err)
	}

	// Delivery runs after the rows are committed and must survive the request
	// context being cancelled mid-flight.
	s.dispatch(context.WithoutCancel(ctx), itin, recipients, req)

	return &domain.NotificationSummary{RecipientCount: len(recipients)}, nil
}

func (s *service) dispatch(ctx context.Context, itin *domain.Itinerary, recipients []string, req domain.CreateNotificationRequest) {
	report := s.push.SendToUsers(ctx, recipients, req.Title, req.Body, map[string]string{
		"itineraryId": itin.ItineraryID,
		"category":    domain.CategoryOwnerAnnouncement,
	})
	slog.Info("announcement push dispatched",
		"itinerary_id", itin.ItineraryID,
		"recipients", len(recipients),
		"tokens", report.Tokens,
		"sent", report.Sent,
		"failed", report.Failed,
		"deactivated", report.Deactivated)

	if !req.SendEmail || s.mailer == nil {
		return
	}

	subject := fmt.Sprintf("[%s] %s", itin.Name, req.Title)
	body := fmt.Sprintf("<h3>%s</h3><p>%s</p>", req.Title, req.Body)
	for _, userID := range recipients {
		user, err := s.users.Get(ctx, userID)
		if err != nil {
			slog.Warn("announcement email: recipient lookup failed", "user_id", userID, "err", err)
			continue
		}
		if user.Email == "" {
			continue
		}
		if err := s.mailer.SendEmail(user.Email, subject, body); err != nil {
			slog.Warn("announcement email: send failed", "user_id", userID, "err", err)
		}
	}
}

func (s *service) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly)
}

func (s *service) CountUnread(ctx context.Context, userID string) (*domain.UnreadCount, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.UnreadCount{UnreadCount: n}, nil
}

// owned loads a notification and verifies it belongs to userID and is not
// deleted. Foreign and deleted rows look identical to missing ones.
func (s *service) owned(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID || n.Deleted {
		return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	return n, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID string) error {
	if _, err := s.owned(ctx, userID, notificationID); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, notificationID)
}

func (s *service) MarkAllRead(ctx context.Context, userID string) error {
	unread, err := s.repo.ListByUser(ctx, userID, true)
	if err != nil {
		return err
	}
	for _, n := range unread {
		if err := s.repo.MarkRead(ctx, n.NotificationID); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) Delete(ctx context.Context, userID, notificationID string) error {
	if _, err := s.owned(ctx, userID, notificationID); err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, notificationID)
}
