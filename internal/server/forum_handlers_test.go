package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/daniyal2335/eprojectfitness/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type likeResponse struct {
	IsLiked    bool  `json:"isLiked"`
	LikesCount int64 `json:"likesCount"`
}

type followResponseBody struct {
	IsFollowed     bool  `json:"isFollowed"`
	FollowersCount int64 `json:"followersCount"`
}

func TestForum_CreateLikeLikeScenario(t *testing.T) {
	env := newTestEnv(t, nil)
	author, authorToken := env.createUser(t, "author")
	_, u2Token := env.createUser(t, "u2")
	_, u3Token := env.createUser(t, "u3")

	postID := env.createPost(t, authorToken, "Deadlift form")

	var like likeResponse
	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodPost, forumPath(postID, "/like"), u2Token, nil, &like))
	assert.Equal(t, likeResponse{IsLiked: true, LikesCount: 1}, like)

	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodPost, forumPath(postID, "/like"), u3Token, nil, &like))
	assert.Equal(t, likeResponse{IsLiked: true, LikesCount: 2}, like)

	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodPost, forumPath(postID, "/like"), u2Token, nil, &like))
	assert.Equal(t, likeResponse{IsLiked: false, LikesCount: 1}, like)

	var post struct {
		models.ForumPost
		CurrentUserID uint `json:"currentUserId"`
	}
	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodGet, forumPath(postID, ""), u3Token, nil, &post))
	assert.Equal(t, 1, post.LikesCount)
	assert.True(t, post.IsLiked)
	assert.Equal(t, 1, post.ViewCount)
	assert.Equal(t, "workout-tips", string(post.Category))

	// The author was told about both activations, not the un-like.
	var list []models.Notification
	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodGet, "/api/notifications", authorToken, nil, &list))
	require.Len(t, list, 2)
	for _, n := range list {
		assert.Equal(t, models.NotificationLike, n.Kind)
		assert.Equal(t, author.ID, n.UserID)
		assert.Equal(t, fmt.Sprintf("/forum/%d", postID), n.Link)
	}
}

func TestForum_FollowRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	_, authorToken := env.createUser(t, "author")
	follower, followerToken := env.createUser(t, "follower")
	postID := env.createPost(t, authorToken, "Meal prep")

	var res followResponseBody
	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodPost, forumPath(postID, "/follow"), followerToken, nil, &res))
	assert.Equal(t, followResponseBody{IsFollowed: true, FollowersCount: 1}, res)

	// Explicit follow is idempotent
	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodPost, forumPath(postID, "/follow"), followerToken, nil, &res))
	assert.Equal(t, followResponseBody{IsFollowed: true, FollowersCount: 1}, res)

	var followers []models.UserSummary
	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodGet, forumPath(postID, "/followers"), authorToken, nil, &followers))
	require.Len(t, followers, 1)
	assert.Equal(t, follower.ID, followers[0].ID)

	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodDelete, forumPath(postID, "/follow"), followerToken, nil, &res))
	assert.Equal(t, followResponseBody{IsFollowed: false, FollowersCount: 0}, res)

	status, body := env.do(t, http.MethodGet, forumPath(postID, "/followers"), authorToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodPost, forumPath(postID, "/follow/toggle"), followerToken, nil, &res))
	assert.True(t, res.IsFollowed)
	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodPost, forumPath(postID, "/follow/toggle"), followerToken, nil, &res))
	assert.False(t, res.IsFollowed)
}

func TestForum_ReplyNotifiesAuthorAndFollowers(t *testing.T) {
	env := newTestEnv(t, nil)
	_, authorToken := env.createUser(t, "author")
	_, followerToken := env.createUser(t, "follower")
	_, replierToken := env.createUser(t, "replier")
	postID := env.createPost(t, authorToken, "Marathon plan")

	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodPost, forumPath(postID, "/follow"), followerToken, nil, nil))

	var reply models.ForumReply
	status := env.doJSON(t, http.MethodPost, forumPath(postID, "/reply"), replierToken, fiber.Map{"content": "  Go slow  "}, &reply)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Go slow", reply.Content)
	require.NotNil(t, reply.Author)
	assert.Equal(t, "replier", reply.Author.Username)

	var count struct {
		Count int64 `json:"count"`
	}
	// author: follow + reply
	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodGet, "/api/notifications/unread-count", authorToken, nil, &count))
	assert.Equal(t, int64(2), count.Count)
	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodGet, "/api/notifications/unread-count", followerToken, nil, &count))
	assert.Equal(t, int64(1), count.Count)
	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodGet, "/api/notifications/unread-count", replierToken, nil, &count))
	assert.Equal(t, int64(0), count.Count)

	status = env.doJSON(t, http.MethodPost, forumPath(postID, "/reply"), replierToken, fiber.Map{"content": "   "}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestForum_ErrorStatuses(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.createUser(t, "someone")

	var body models.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, env.doJSON(t, http.MethodPost, "/api/forum/abc/like", token, nil, &body))
	assert.Equal(t, models.CodeValidation, body.Code)

	assert.Equal(t, http.StatusNotFound, env.doJSON(t, http.MethodPost, "/api/forum/999/like", token, nil, &body))
	assert.Equal(t, models.CodeNotFound, body.Code)

	assert.Equal(t, http.StatusNotFound, env.doJSON(t, http.MethodGet, "/api/forum/999", token, nil, &body))
	assert.Equal(t, http.StatusNotFound, env.doJSON(t, http.MethodPost, "/api/forum/999/reply", token, fiber.Map{"content": "hi"}, &body))

	status := env.doJSON(t, http.MethodPost, "/api/forum", token, fiber.Map{
		"title": "t", "content": "c", "category": "gossip",
	}, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, body.Code)

	assert.Equal(t, http.StatusBadRequest, env.doJSON(t, http.MethodGet, "/api/forum?category=gossip", token, nil, &body))
}

func TestForum_ListPagination(t *testing.T) {
	env := newTestEnv(t, nil)
	author, token := env.createUser(t, "author")

	for i := 0; i < 25; i++ {
		post := &models.ForumPost{
			Title:    fmt.Sprintf("Post %02d", i),
			Content:  "body",
			Category: models.CategoryMotivation,
			AuthorID: author.ID,
		}
		require.NoError(t, env.server.forumRepo.CreatePost(context.Background(), post))
	}

	var page struct {
		Posts         []models.ForumPost `json:"posts"`
		Total         int64              `json:"total"`
		Page          int                `json:"page"`
		PageSize      int                `json:"pageSize"`
		Pages         int                `json:"pages"`
		CurrentUserID uint               `json:"currentUserId"`
	}
	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodGet, "/api/forum?page=2&limit=20", token, nil, &page))
	assert.Len(t, page.Posts, 5)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, author.ID, page.CurrentUserID)

	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodGet, "/api/forum?category=motivation&sort=trending", token, nil, &page))
	assert.Len(t, page.Posts, 20)
	assert.Equal(t, 1, page.Page)
}

func TestForum_TagFilter(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.createUser(t, "author")

	require.Equal(t, http.StatusCreated, env.doJSON(t, http.MethodPost, "/api/forum", token, fiber.Map{
		"title": "Keto", "content": "fats", "category": "nutrition-advice", "tags": []string{"Keto", "diet"},
	}, nil))
	env.createPost(t, token, "Untagged")

	var page struct {
		Posts []models.ForumPost `json:"posts"`
	}
	require.Equal(t, http.StatusOK, env.doJSON(t, http.MethodGet, "/api/forum?tags=keto,cardio", token, nil, &page))
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "Keto", page.Posts[0].Title)
	assert.ElementsMatch(t, []string{"keto", "diet"}, page.Posts[0].Tags)
}
