// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"github.com/daniyal2335/eprojectfitness/internal/cache"
	"github.com/daniyal2335/eprojectfitness/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetSummary(ctx context.Context, id uint) (*models.UserSummary, error)
	UpdateProfile(ctx context.Context, id uint, in models.ProfileUpdate) (*models.User, error)
	Follow(ctx context.Context, followerID, followingID uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Select("users.*, "+
			"(SELECT COUNT(*) FROM user_follows WHERE user_follows.following_id = users.id) AS followers_count, "+
			"(SELECT COUNT(*) FROM user_follows WHERE user_follows.follower_id = users.id) AS following_count").
		First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetSummary returns the public projection of a user, served from Redis when cached.
func (r *userRepository) GetSummary(ctx context.Context, id uint) (*models.UserSummary, error) {
	var summary models.UserSummary
	err := cache.CacheAside(ctx, cache.UserKey(id), &summary, cache.UserTTL, func() error {
		return r.db.WithContext(ctx).
			Model(&models.User{}).
			Select("id", "username", "name", "profile_image").
			Where("id = ?", id).
			Take(&summary).Error
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// UpdateProfile applies the non-nil fields and drops the cached summary.
func (r *userRepository) UpdateProfile(ctx context.Context, id uint, in models.ProfileUpdate) (*models.User, error) {
	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.ProfileImage != nil {
		updates["profile_image"] = *in.ProfileImage
	}
	if in.Preferences != nil {
		updates["pref_units"] = in.Preferences.Units
		updates["pref_theme"] = in.Preferences.Theme
		updates["pref_notifications"] = in.Preferences.Notifications
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
		cache.InvalidateUser(ctx, id)
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) Follow(ctx context.Context, followerID, followingID uint) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO user_follows (follower_id, following_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (follower_id, following_id) DO NOTHING`,
		followerID, followingID, nowUTC(),
	).Error
}

// selectUserSummary limits preloaded authors to their public columns.
func selectUserSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "name", "profile_image")
}
