package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/daniyal2335/eprojectfitness/internal/models"
	"github.com/daniyal2335/eprojectfitness/internal/observability"
	"github.com/daniyal2335/eprojectfitness/internal/repository"
)

// MaxNotificationList caps how many notifications a listing returns.
const MaxNotificationList = 50

type NotificationService struct {
	repo        repository.NotificationRepository
	broadcaster Broadcaster
}

type NotifyInput struct {
	Message  string
	Kind     models.NotificationKind
	Link     string
	SenderID *uint
}

type ListNotificationsInput struct {
	UnreadOnly bool
}

func NewNotificationService(repo repository.NotificationRepository, broadcaster Broadcaster) *NotificationService {
	return &NotificationService{repo: repo, broadcaster: broadcaster}
}

// Notify persists a notification for ownerID and then pushes it to the owner's
// live channels. Nothing is pushed unless the row was stored.
func (s *NotificationService) Notify(ctx context.Context, ownerID uint, in NotifyInput) (n *models.Notification, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "NotificationService", "Notify")
	defer func() { observability.EndSpan(span, err) }()

	if ownerID == 0 {
		return nil, models.NewValidationError("Notification owner is required")
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, models.NewValidationError("Message is required")
	}
	kind := in.Kind
	if kind == "" {
		kind = models.NotificationInfo
	}
	if !kind.Valid() {
		return nil, models.NewValidationError("Invalid notification type")
	}

	n = &models.Notification{
		UserID:   ownerID,
		SenderID: in.SenderID,
		Kind:     kind,
		Message:  message,
		Link:     strings.TrimSpace(in.Link),
		Read:     false,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, models.NewStorageError(err)
	}
	observability.NotificationsCreated.WithLabelValues(string(kind)).Inc()

	if s.broadcaster != nil {
		s.broadcaster.BroadcastTo(ownerID, EventNotification, n.Event())
	}
	return n, nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uint, in ListNotificationsInput) ([]models.Notification, error) {
	out, err := s.repo.ListByUser(ctx, userID, in.UnreadOnly, MaxNotificationList)
	if err != nil {
		return nil, models.NewStorageError(err)
	}
	return out, nil
}

// MarkRead flips read on a notification owned by userID. A foreign or missing
// notification is reported as not found and left untouched.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID uint) (*models.Notification, error) {
	n, err := s.repo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return nil, storageError(err, "Notification", notificationID)
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	modified, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, models.NewStorageError(err)
	}
	if modified > 0 {
		slog.DebugContext(ctx, "notifications marked read", slog.Uint64("user_id", uint64(userID)), slog.Int64("modified", modified))
	}
	return modified, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, models.NewStorageError(err)
	}
	return count, nil
}
