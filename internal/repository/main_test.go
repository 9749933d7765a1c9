package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/daniyal2335/eprojectfitness/internal/database"
	"github.com/daniyal2335/eprojectfitness/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "hash",
		Name:     name,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createPost(t *testing.T, repo ForumRepository, authorID uint, title string, tags ...string) *models.ForumPost {
	t.Helper()
	p := &models.ForumPost{
		Title:    title,
		Content:  "content of " + title,
		Category: models.CategoryGeneralDiscussion,
		AuthorID: authorID,
		Tags:     tags,
	}
	require.NoError(t, repo.CreatePost(context.Background(), p))
	return p
}
