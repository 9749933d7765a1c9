package database

import "github.com/daniyal2335/eprojectfitness/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.UserFollow{},
		&models.Notification{},
		&models.ForumPost{},
		&models.ForumPostTag{},
		&models.ForumReply{},
		&models.ForumLike{},
		&models.ForumFollow{},
	}
}
