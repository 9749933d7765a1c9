package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/daniyal2335/eprojectfitness/internal/models"
	"github.com/daniyal2335/eprojectfitness/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notificationRepoStub is a stub for repository.NotificationRepository.
type notificationRepoStub struct {
	createFn      func(context.Context, *models.Notification) error
	listByUserFn  func(context.Context, uint, bool, int) ([]models.Notification, error)
	markReadFn    func(context.Context, uint, uint) (*models.Notification, error)
	markAllReadFn func(context.Context, uint) (int64, error)
	countUnreadFn func(context.Context, uint) (int64, error)
}

func (s *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	return s.createFn(ctx, n)
}
func (s *notificationRepoStub) ListByUser(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	return s.listByUserFn(ctx, userID, unreadOnly, limit)
}
func (s *notificationRepoStub) MarkRead(ctx context.Context, id, userID uint) (*models.Notification, error) {
	return s.markReadFn(ctx, id, userID)
}
func (s *notificationRepoStub) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.markAllReadFn(ctx, userID)
}
func (s *notificationRepoStub) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.countUnreadFn(ctx, userID)
}

func noopNotificationRepo() *notificationRepoStub {
	var nextID uint
	return &notificationRepoStub{
		createFn: func(_ context.Context, n *models.Notification) error {
			nextID++
			n.ID = nextID
			return nil
		},
		listByUserFn:  func(_ context.Context, _ uint, _ bool, _ int) ([]models.Notification, error) { return nil, nil },
		markReadFn:    func(_ context.Context, _, _ uint) (*models.Notification, error) { return &models.Notification{}, nil },
		markAllReadFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		countUnreadFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

// forumRepoStub is a stub for repository.ForumRepository.
type forumRepoStub struct {
	createPostFn      func(context.Context, *models.ForumPost) error
	getPostFn         func(context.Context, uint, uint) (*models.ForumPost, error)
	getPostHeaderFn   func(context.Context, uint) (*models.ForumPost, error)
	incrementViewsFn  func(context.Context, uint) error
	listPostsFn       func(context.Context, repository.PostFilter) ([]models.ForumPost, int64, error)
	addReplyFn        func(context.Context, *models.ForumReply) error
	toggleFn          func(context.Context, repository.Relation, uint, uint) (models.ToggleResult, error)
	setFn             func(context.Context, repository.Relation, uint, uint, bool) (models.ToggleResult, error)
	listFollowerIDsFn func(context.Context, uint) ([]uint, error)
	listFollowersFn   func(context.Context, uint) ([]models.UserSummary, error)
}

func (s *forumRepoStub) CreatePost(ctx context.Context, post *models.ForumPost) error {
	return s.createPostFn(ctx, post)
}
func (s *forumRepoStub) GetPost(ctx context.Context, id, viewerID uint) (*models.ForumPost, error) {
	return s.getPostFn(ctx, id, viewerID)
}
func (s *forumRepoStub) GetPostHeader(ctx context.Context, id uint) (*models.ForumPost, error) {
	return s.getPostHeaderFn(ctx, id)
}
func (s *forumRepoStub) IncrementViews(ctx context.Context, id uint) error {
	return s.incrementViewsFn(ctx, id)
}
func (s *forumRepoStub) ListPosts(ctx context.Context, filter repository.PostFilter) ([]models.ForumPost, int64, error) {
	return s.listPostsFn(ctx, filter)
}
func (s *forumRepoStub) AddReply(ctx context.Context, reply *models.ForumReply) error {
	return s.addReplyFn(ctx, reply)
}
func (s *forumRepoStub) Toggle(ctx context.Context, rel repository.Relation, postID, userID uint) (models.ToggleResult, error) {
	return s.toggleFn(ctx, rel, postID, userID)
}
func (s *forumRepoStub) Set(ctx context.Context, rel repository.Relation, postID, userID uint, active bool) (models.ToggleResult, error) {
	return s.setFn(ctx, rel, postID, userID, active)
}
func (s *forumRepoStub) ListFollowerIDs(ctx context.Context, postID uint) ([]uint, error) {
	return s.listFollowerIDsFn(ctx, postID)
}
func (s *forumRepoStub) ListFollowers(ctx context.Context, postID uint) ([]models.UserSummary, error) {
	return s.listFollowersFn(ctx, postID)
}

func noopForumRepo() *forumRepoStub {
	return &forumRepoStub{
		createPostFn: func(_ context.Context, p *models.ForumPost) error { p.ID = 1; return nil },
		getPostFn: func(_ context.Context, id, _ uint) (*models.ForumPost, error) {
			return &models.ForumPost{ID: id, AuthorID: 1, Title: "Post"}, nil
		},
		getPostHeaderFn: func(_ context.Context, id uint) (*models.ForumPost, error) {
			return &models.ForumPost{ID: id, AuthorID: 1, Title: "Post"}, nil
		},
		incrementViewsFn: func(_ context.Context, _ uint) error { return nil },
		listPostsFn: func(_ context.Context, _ repository.PostFilter) ([]models.ForumPost, int64, error) {
			return []models.ForumPost{}, 0, nil
		},
		addReplyFn: func(_ context.Context, r *models.ForumReply) error { r.ID = 1; return nil },
		toggleFn: func(_ context.Context, _ repository.Relation, _, _ uint) (models.ToggleResult, error) {
			return models.ToggleResult{Active: true, Count: 1, Changed: true}, nil
		},
		setFn: func(_ context.Context, _ repository.Relation, _, _ uint, active bool) (models.ToggleResult, error) {
			return models.ToggleResult{Active: active, Changed: true}, nil
		},
		listFollowerIDsFn: func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
		listFollowersFn:   func(_ context.Context, _ uint) ([]models.UserSummary, error) { return nil, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	summaries map[uint]models.UserSummary
}

func (s *userRepoStub) Create(_ context.Context, _ *models.User) error { return nil }
func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	return &models.User{ID: id}, nil
}
func (s *userRepoStub) GetSummary(_ context.Context, id uint) (*models.UserSummary, error) {
	summary, ok := s.summaries[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &summary, nil
}
func (s *userRepoStub) UpdateProfile(_ context.Context, id uint, _ models.ProfileUpdate) (*models.User, error) {
	return &models.User{ID: id}, nil
}
func (s *userRepoStub) Follow(_ context.Context, _, _ uint) error { return nil }

type broadcast struct {
	userID  uint
	event   string
	payload any
}

// recordingBroadcaster records every broadcast it receives.
type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcast
}

func (b *recordingBroadcaster) BroadcastTo(userID uint, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcast{userID: userID, event: event, payload: payload})
}

func (b *recordingBroadcaster) all() []broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcast(nil), b.calls...)
}

type notifyCall struct {
	ownerID uint
	in      NotifyInput
}

// recordingNotifier records notifications instead of storing them.
type recordingNotifier struct {
	calls []notifyCall
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, ownerID uint, in NotifyInput) (*models.Notification, error) {
	n.calls = append(n.calls, notifyCall{ownerID: ownerID, in: in})
	if n.err != nil {
		return nil, n.err
	}
	return &models.Notification{UserID: ownerID, Kind: in.Kind, Message: in.Message}, nil
}

func (n *recordingNotifier) owners() []uint {
	out := make([]uint, 0, len(n.calls))
	for _, c := range n.calls {
		out = append(out, c.ownerID)
	}
	return out
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
