package service

import (
	"errors"

	"github.com/daniyal2335/eprojectfitness/internal/models"

	"gorm.io/gorm"
)

// Broadcaster pushes an event to every live channel of a user. Delivery is
// best effort; implementations never report failures to the caller.
type Broadcaster interface {
	BroadcastTo(userID uint, event string, payload any)
}

// EventNotification is the socket event carrying a new notification.
const EventNotification = "notification"

// storageError maps repository failures onto application errors.
func storageError(err error, resource string, id any) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewStorageError(err)
}
