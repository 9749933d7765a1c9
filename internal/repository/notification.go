package repository

import (
	"context"

	"github.com/daniyal2335/eprojectfitness/internal/models"
	"github.com/daniyal2335/eprojectfitness/internal/observability"

	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uint) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	defer observability.TrackQuery("create", "notifications")()
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	defer observability.TrackQuery("list", "notifications")()

	conds := map[string]any{"user_id": userID}
	if unreadOnly {
		conds["read"] = false
	}

	var out []models.Notification
	err := r.db.WithContext(ctx).
		Where(conds).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkRead flips the read flag of one notification owned by userID.
// A missing or foreign notification yields gorm.ErrRecordNotFound and nothing is written.
func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uint) (*models.Notification, error) {
	defer observability.TrackQuery("update", "notifications")()

	var n models.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Notification{}).
			Where(map[string]any{"id": id, "user_id": userID}).
			Update("read", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where(map[string]any{"id": id, "user_id": userID}).Take(&n).Error
	})
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	defer observability.TrackQuery("update", "notifications")()
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where(map[string]any{"user_id": userID, "read": false}).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where(map[string]any{"user_id": userID, "read": false}).
		Count(&count).Error
	return count, err
}
