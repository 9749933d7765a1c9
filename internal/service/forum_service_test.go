package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/daniyal2335/eprojectfitness/internal/models"
	"github.com/daniyal2335/eprojectfitness/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newForumService(repo *forumRepoStub, notifier ActivityNotifier) *ForumService {
	users := &userRepoStub{summaries: map[uint]models.UserSummary{
		1: {ID: 1, Username: "author"},
		2: {ID: 2, Username: "liker", Name: "Lee"},
		3: {ID: 3, Username: "replier"},
	}}
	return NewForumService(repo, users, notifier)
}

func TestForumService_CreatePostValidation(t *testing.T) {
	svc := newForumService(noopForumRepo(), nil)
	ctx := context.Background()

	valid := CreatePostInput{AuthorID: 1, Title: "Leg day", Content: "Squats", Category: models.CategoryWorkoutTips}

	tests := []struct {
		name   string
		mutate func(in *CreatePostInput)
	}{
		{"missing title", func(in *CreatePostInput) { in.Title = "   " }},
		{"title too long", func(in *CreatePostInput) { in.Title = strings.Repeat("a", 201) }},
		{"missing content", func(in *CreatePostInput) { in.Content = "" }},
		{"content too long", func(in *CreatePostInput) { in.Content = strings.Repeat("é", 5001) }},
		{"unknown category", func(in *CreatePostInput) { in.Category = "gossip" }},
		{"tag too long", func(in *CreatePostInput) { in.Tags = []string{strings.Repeat("t", 65)} }},
		{"too many tags", func(in *CreatePostInput) {
			in.Tags = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.CreatePost(ctx, in)
			assertAppErrorCode(t, err, models.CodeValidation)
		})
	}

	t.Run("multi-byte content at the limit is accepted", func(t *testing.T) {
		in := valid
		in.Content = strings.Repeat("é", 5000)
		_, err := svc.CreatePost(ctx, in)
		assert.NoError(t, err)
	})
}

func TestForumService_CreatePostNormalizesTags(t *testing.T) {
	repo := noopForumRepo()
	var saved *models.ForumPost
	repo.createPostFn = func(_ context.Context, p *models.ForumPost) error {
		p.ID = 42
		saved = p
		return nil
	}
	svc := newForumService(repo, nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		AuthorID: 1,
		Title:    "  Cutting tips ",
		Content:  "Eat protein",
		Category: models.CategoryNutritionAdvice,
		Tags:     []string{" Protein", "protein", "", "cut"},
	})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Cutting tips", saved.Title)
	assert.Equal(t, []string{"protein", "cut"}, saved.Tags)
}

func TestForumService_ListPostsPaging(t *testing.T) {
	repo := noopForumRepo()
	var got repository.PostFilter
	repo.listPostsFn = func(_ context.Context, f repository.PostFilter) ([]models.ForumPost, int64, error) {
		got = f
		return make([]models.ForumPost, 5), 25, nil
	}
	svc := newForumService(repo, nil)
	ctx := context.Background()

	page, err := svc.ListPosts(ctx, ListPostsInput{Page: 2, PageSize: 20, Sort: "bogus"})
	require.NoError(t, err)
	assert.Equal(t, 20, got.Offset)
	assert.Equal(t, 20, got.Limit)
	assert.Equal(t, repository.SortLatest, got.Sort)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, int64(25), page.Total)
	assert.Len(t, page.Posts, 5)

	_, err = svc.ListPosts(ctx, ListPostsInput{Page: -3, PageSize: 500, Sort: repository.SortPopular})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Offset)
	assert.Equal(t, MaxPageSize, got.Limit)
	assert.Equal(t, repository.SortPopular, got.Sort)

	_, err = svc.ListPosts(ctx, ListPostsInput{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, got.Limit)

	_, err = svc.ListPosts(ctx, ListPostsInput{Category: "gossip"})
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestForumService_ListPostsHugePageStaysInRange(t *testing.T) {
	repo := noopForumRepo()
	var got repository.PostFilter
	repo.listPostsFn = func(_ context.Context, f repository.PostFilter) ([]models.ForumPost, int64, error) {
		got = f
		return []models.ForumPost{}, 25, nil
	}
	svc := newForumService(repo, nil)

	page, err := svc.ListPosts(context.Background(), ListPostsInput{Page: math.MaxInt/20 + 2, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, MaxPage, page.Page)
	assert.Equal(t, (MaxPage-1)*20, got.Offset)
	assert.Positive(t, got.Offset)
	assert.Empty(t, page.Posts)
}

func TestForumService_GetPostCountsViewFirst(t *testing.T) {
	repo := noopForumRepo()
	var calls []string
	repo.incrementViewsFn = func(_ context.Context, _ uint) error {
		calls = append(calls, "increment")
		return nil
	}
	repo.getPostFn = func(_ context.Context, id, viewerID uint) (*models.ForumPost, error) {
		calls = append(calls, "get")
		assert.Equal(t, uint(8), viewerID)
		return &models.ForumPost{ID: id, ViewCount: 1}, nil
	}
	svc := newForumService(repo, nil)

	post, err := svc.GetPost(context.Background(), 3, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, post.ViewCount)
	assert.Equal(t, []string{"increment", "get"}, calls)
}

func TestForumService_MissingPostIsNotFound(t *testing.T) {
	repo := noopForumRepo()
	repo.incrementViewsFn = func(_ context.Context, _ uint) error { return gorm.ErrRecordNotFound }
	repo.toggleFn = func(_ context.Context, _ repository.Relation, _, _ uint) (models.ToggleResult, error) {
		return models.ToggleResult{}, gorm.ErrRecordNotFound
	}
	repo.addReplyFn = func(_ context.Context, _ *models.ForumReply) error { return gorm.ErrRecordNotFound }
	repo.listFollowersFn = func(_ context.Context, _ uint) ([]models.UserSummary, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := newForumService(repo, nil)
	ctx := context.Background()

	_, err := svc.GetPost(ctx, 99, 1)
	assertAppErrorCode(t, err, models.CodeNotFound)
	_, err = svc.ToggleLike(ctx, 99, 1)
	assertAppErrorCode(t, err, models.CodeNotFound)
	_, err = svc.ToggleFollow(ctx, 99, 1)
	assertAppErrorCode(t, err, models.CodeNotFound)
	_, err = svc.AddReply(ctx, 99, 1, "hi")
	assertAppErrorCode(t, err, models.CodeNotFound)
	_, err = svc.ListFollowers(ctx, 99)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestForumService_ToggleLikeNotifiesAuthorOnActivation(t *testing.T) {
	repo := noopForumRepo()
	active := true
	repo.toggleFn = func(_ context.Context, rel repository.Relation, _, _ uint) (models.ToggleResult, error) {
		assert.Equal(t, repository.RelationLike, rel)
		return models.ToggleResult{Active: active, Count: 1}, nil
	}
	n := &recordingNotifier{}
	svc := newForumService(repo, n)
	ctx := context.Background()

	res, err := svc.ToggleLike(ctx, 10, 2)
	require.NoError(t, err)
	assert.True(t, res.Active)
	require.Len(t, n.calls, 1)
	assert.Equal(t, uint(1), n.calls[0].ownerID)
	assert.Equal(t, models.NotificationLike, n.calls[0].in.Kind)
	assert.Equal(t, "/forum/10", n.calls[0].in.Link)
	assert.Contains(t, n.calls[0].in.Message, "Lee liked your post")
	require.NotNil(t, n.calls[0].in.SenderID)
	assert.Equal(t, uint(2), *n.calls[0].in.SenderID)

	active = false
	_, err = svc.ToggleLike(ctx, 10, 2)
	require.NoError(t, err)
	assert.Len(t, n.calls, 1)

	// Authors liking their own post are not notified.
	active = true
	_, err = svc.ToggleLike(ctx, 10, 1)
	require.NoError(t, err)
	assert.Len(t, n.calls, 1)
}

func TestForumService_NotificationFailureDoesNotFailToggle(t *testing.T) {
	n := &recordingNotifier{err: errors.New("storage down")}
	svc := newForumService(noopForumRepo(), n)

	res, err := svc.ToggleFollow(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.Len(t, n.calls, 1)
}

func TestForumService_SetFollowNotifiesOnlyOnChange(t *testing.T) {
	repo := noopForumRepo()
	following := false
	repo.getPostFn = func(_ context.Context, _, _ uint) (*models.ForumPost, error) {
		t.Fatal("SetFollow must not load the full post")
		return nil, nil
	}
	repo.setFn = func(_ context.Context, _ repository.Relation, _, _ uint, active bool) (models.ToggleResult, error) {
		changed := following != active
		following = active
		return models.ToggleResult{Active: active, Count: 1, Changed: changed}, nil
	}
	n := &recordingNotifier{}
	svc := newForumService(repo, n)
	ctx := context.Background()

	_, err := svc.SetFollow(ctx, 10, 2, true)
	require.NoError(t, err)
	_, err = svc.SetFollow(ctx, 10, 2, true)
	require.NoError(t, err)
	assert.Len(t, n.calls, 1)

	res, err := svc.SetFollow(ctx, 10, 2, false)
	require.NoError(t, err)
	assert.False(t, res.Active)
	assert.Len(t, n.calls, 1)
}

func TestForumService_AddReplyNotifiesAuthorAndFollowers(t *testing.T) {
	repo := noopForumRepo()
	repo.listFollowerIDsFn = func(_ context.Context, _ uint) ([]uint, error) {
		return []uint{1, 3, 4, 5}, nil
	}
	n := &recordingNotifier{}
	svc := newForumService(repo, n)

	reply, err := svc.AddReply(context.Background(), 10, 3, "  nice work  ")
	require.NoError(t, err)
	assert.Equal(t, "nice work", reply.Content)
	assert.Equal(t, uint(3), reply.AuthorID)

	assert.Equal(t, []uint{1, 4, 5}, n.owners())
	for _, c := range n.calls {
		assert.Equal(t, models.NotificationReply, c.in.Kind)
	}
	assert.Contains(t, n.calls[0].in.Message, "replier replied to your post")
}

func TestForumService_AddReplyValidation(t *testing.T) {
	repo := noopForumRepo()
	repo.addReplyFn = func(_ context.Context, _ *models.ForumReply) error {
		t.Fatal("add reply must not be called")
		return nil
	}
	svc := newForumService(repo, nil)

	_, err := svc.AddReply(context.Background(), 1, 1, "   ")
	assertAppErrorCode(t, err, models.CodeValidation)
	_, err = svc.AddReply(context.Background(), 1, 1, strings.Repeat("x", 5001))
	assertAppErrorCode(t, err, models.CodeValidation)
}
