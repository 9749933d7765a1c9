package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daniyal2335/eprojectfitness/internal/auth"
	"github.com/daniyal2335/eprojectfitness/internal/config"
	"github.com/daniyal2335/eprojectfitness/internal/database"
	"github.com/daniyal2335/eprojectfitness/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
}

func newTestEnv(t *testing.T, rdb *redis.Client) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	cfg := &config.Config{JWTSecret: testSecret, Env: "test", Port: "0"}
	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	t.Cleanup(func() { s.shutdownFn() })

	return &testEnv{server: s, app: s.App(), db: db}
}

func (e *testEnv) createUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		Name:     username,
	}
	require.NoError(t, e.db.Create(u).Error)

	token, err := auth.IssueToken(testSecret, u.ID, u.Username, u.Email)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	status, raw := e.do(t, method, path, token, body)
	if out != nil && len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, out), "body: %s", raw)
	}
	return status
}

func (e *testEnv) createPost(t *testing.T, token, title string) uint {
	t.Helper()
	var resp struct {
		Post models.ForumPost `json:"post"`
	}
	status := e.doJSON(t, http.MethodPost, "/api/forum", token, fiber.Map{
		"title":    title,
		"content":  "content of " + title,
		"category": "workout-tips",
	}, &resp)
	require.Equal(t, http.StatusCreated, status)
	require.NotZero(t, resp.Post.ID)
	return resp.Post.ID
}

func forumPath(id uint, suffix string) string {
	return fmt.Sprintf("/api/forum/%d%s", id, suffix)
}
