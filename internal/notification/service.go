package notification

import (
	"context"
	"log/slog"

	"github.com/wytlabs/cardops/internal/core/events"
)

type RepositoryAPI interface {
	Create(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID int64, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
}

// Service persists in-app notifications and publishes the created event;
// the dispatcher handles the email copy asynchronously.
type Service struct {
	repo RepositoryAPI
	bus  *events.EventBus
	log  *slog.Logger
}

func NewService(repo RepositoryAPI, bus *events.EventBus, lg *slog.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: lg}
}

// NotifyUser records a notification for the user and queues its email.
func (s *Service) NotifyUser(ctx context.Context, userID int64, email, subject, body string, entryID int64) error {
	n := &Notification{
		UserID:  userID,
		EntryID: entryID,
		Subject: subject,
		Body:    body,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if err := s.bus.Publish(ctx, events.NewNotificationCreatedEvent(n.ID, userID, email, subject, body, entryID)); err != nil {
		s.log.Error("failed to publish notification event", "notification_id", n.ID, "error", err)
	}
	return nil
}

func (s *Service) ListForUser(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListForUser(ctx, userID, limit)
}

func (s *Service) MarkRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkRead(ctx, id, userID)
}
