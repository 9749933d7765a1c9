package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/daniyal2335/eprojectfitness/internal/models"
	"github.com/daniyal2335/eprojectfitness/internal/observability"
	"github.com/daniyal2335/eprojectfitness/internal/repository"
)

const (
	maxTitleLen   = 200
	maxContentLen = 5000
	maxTagLen     = 64
	maxTags       = 10

	DefaultPageSize = 20
	MaxPageSize     = 50
	// MaxPage keeps the row offset well inside int32.
	MaxPage = 1_000_000
)

// ActivityNotifier records a notification for a user.
type ActivityNotifier interface {
	Notify(ctx context.Context, ownerID uint, in NotifyInput) (*models.Notification, error)
}

type ForumService struct {
	forumRepo repository.ForumRepository
	userRepo  repository.UserRepository
	notifier  ActivityNotifier
}

type CreatePostInput struct {
	AuthorID uint
	Title    string
	Content  string
	Category models.ForumCategory
	Tags     []string
}

type ListPostsInput struct {
	Category models.ForumCategory
	Tags     []string
	Page     int
	PageSize int
	Sort     string
	ViewerID uint
}

func NewForumService(
	forumRepo repository.ForumRepository,
	userRepo repository.UserRepository,
	notifier ActivityNotifier,
) *ForumService {
	return &ForumService{
		forumRepo: forumRepo,
		userRepo:  userRepo,
		notifier:  notifier,
	}
}

func (s *ForumService) CreatePost(ctx context.Context, in CreatePostInput) (*models.ForumPost, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)

	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 200 characters)")
	}
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 5000 characters)")
	}
	if !in.Category.Valid() {
		return nil, models.NewValidationError("Invalid category")
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	post := &models.ForumPost{
		Title:    title,
		Content:  content,
		Category: in.Category,
		AuthorID: in.AuthorID,
		Tags:     tags,
	}
	if err := s.forumRepo.CreatePost(ctx, post); err != nil {
		return nil, models.NewStorageError(err)
	}

	created, err := s.forumRepo.GetPost(ctx, post.ID, in.AuthorID)
	if err != nil {
		return nil, storageError(err, "Post", post.ID)
	}
	return created, nil
}

// GetPost counts a view and returns the post with replies, counters and viewer flags.
func (s *ForumService) GetPost(ctx context.Context, postID, viewerID uint) (*models.ForumPost, error) {
	if err := s.forumRepo.IncrementViews(ctx, postID); err != nil {
		return nil, storageError(err, "Post", postID)
	}
	post, err := s.forumRepo.GetPost(ctx, postID, viewerID)
	if err != nil {
		return nil, storageError(err, "Post", postID)
	}
	return post, nil
}

func (s *ForumService) ListPosts(ctx context.Context, in ListPostsInput) (*models.PostPage, error) {
	if in.Category != "" && !in.Category.Valid() {
		return nil, models.NewValidationError("Invalid category")
	}
	pageSize := in.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	page := in.Page
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	sort := in.Sort
	switch sort {
	case repository.SortLatest, repository.SortPopular, repository.SortTrending:
	default:
		sort = repository.SortLatest
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	posts, total, err := s.forumRepo.ListPosts(ctx, repository.PostFilter{
		Category: in.Category,
		Tags:     tags,
		Sort:     sort,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
		ViewerID: in.ViewerID,
	})
	if err != nil {
		return nil, models.NewStorageError(err)
	}

	return &models.PostPage{
		Posts:    posts,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

func (s *ForumService) AddReply(ctx context.Context, postID, userID uint, content string) (*models.ForumReply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Reply content is required")
	}
	if utf8.RuneCountInString(content) > maxContentLen {
		return nil, models.NewValidationError("Reply too long (max 5000 characters)")
	}

	reply := &models.ForumReply{PostID: postID, AuthorID: userID, Content: content}
	if err := s.forumRepo.AddReply(ctx, reply); err != nil {
		return nil, storageError(err, "Post", postID)
	}

	s.notifyReply(ctx, reply)
	return reply, nil
}

func (s *ForumService) ToggleLike(ctx context.Context, postID, userID uint) (models.ToggleResult, error) {
	result, err := s.forumRepo.Toggle(ctx, repository.RelationLike, postID, userID)
	if err != nil {
		return models.ToggleResult{}, storageError(err, "Post", postID)
	}
	observability.ForumToggles.WithLabelValues(string(repository.RelationLike), observability.ToggleState(result.Active)).Inc()

	if result.Active {
		s.notifyAuthor(ctx, postID, userID, models.NotificationLike, "liked")
	}
	return result, nil
}

func (s *ForumService) ToggleFollow(ctx context.Context, postID, userID uint) (models.ToggleResult, error) {
	result, err := s.forumRepo.Toggle(ctx, repository.RelationFollow, postID, userID)
	if err != nil {
		return models.ToggleResult{}, storageError(err, "Post", postID)
	}
	observability.ForumToggles.WithLabelValues(string(repository.RelationFollow), observability.ToggleState(result.Active)).Inc()

	if result.Active {
		s.notifyAuthor(ctx, postID, userID, models.NotificationFollow, "started following")
	}
	return result, nil
}

// SetFollow follows or unfollows explicitly. Repeating the same request changes nothing
// and sends no further notification.
func (s *ForumService) SetFollow(ctx context.Context, postID, userID uint, follow bool) (models.ToggleResult, error) {
	result, err := s.forumRepo.Set(ctx, repository.RelationFollow, postID, userID, follow)
	if err != nil {
		return models.ToggleResult{}, storageError(err, "Post", postID)
	}
	observability.ForumToggles.WithLabelValues(string(repository.RelationFollow), observability.ToggleState(result.Active)).Inc()

	if follow && result.Changed {
		s.notifyAuthor(ctx, postID, userID, models.NotificationFollow, "started following")
	}
	return result, nil
}

func (s *ForumService) ListFollowers(ctx context.Context, postID uint) ([]models.UserSummary, error) {
	followers, err := s.forumRepo.ListFollowers(ctx, postID)
	if err != nil {
		return nil, storageError(err, "Post", postID)
	}
	return followers, nil
}

func (s *ForumService) notifyAuthor(ctx context.Context, postID, actorID uint, kind models.NotificationKind, verb string) {
	if s.notifier == nil {
		return
	}
	post, err := s.forumRepo.GetPostHeader(ctx, postID)
	if err != nil {
		slog.WarnContext(ctx, "forum notification skipped", slog.Uint64("post_id", uint64(postID)), slog.String("error", err.Error()))
		return
	}
	if post.AuthorID == actorID {
		return
	}

	sender := actorID
	s.send(ctx, post.AuthorID, NotifyInput{
		Message:  fmt.Sprintf("%s %s your post \"%s\"", s.actorName(ctx, actorID), verb, post.Title),
		Kind:     kind,
		Link:     postLink(postID),
		SenderID: &sender,
	})
}

// notifyReply tells the author and every follower of the post, except the replier.
func (s *ForumService) notifyReply(ctx context.Context, reply *models.ForumReply) {
	if s.notifier == nil {
		return
	}
	post, err := s.forumRepo.GetPostHeader(ctx, reply.PostID)
	if err != nil {
		slog.WarnContext(ctx, "forum notification skipped", slog.Uint64("post_id", uint64(reply.PostID)), slog.String("error", err.Error()))
		return
	}

	actor := s.actorName(ctx, reply.AuthorID)
	sender := reply.AuthorID
	link := postLink(reply.PostID)

	if post.AuthorID != reply.AuthorID {
		s.send(ctx, post.AuthorID, NotifyInput{
			Message:  fmt.Sprintf("%s replied to your post \"%s\"", actor, post.Title),
			Kind:     models.NotificationReply,
			Link:     link,
			SenderID: &sender,
		})
	}

	followers, err := s.forumRepo.ListFollowerIDs(ctx, reply.PostID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load post followers", slog.Uint64("post_id", uint64(reply.PostID)), slog.String("error", err.Error()))
		return
	}
	for _, followerID := range followers {
		if followerID == reply.AuthorID || followerID == post.AuthorID {
			continue
		}
		s.send(ctx, followerID, NotifyInput{
			Message:  fmt.Sprintf("%s replied to \"%s\"", actor, post.Title),
			Kind:     models.NotificationReply,
			Link:     link,
			SenderID: &sender,
		})
	}
}

func (s *ForumService) send(ctx context.Context, ownerID uint, in NotifyInput) {
	if _, err := s.notifier.Notify(ctx, ownerID, in); err != nil {
		slog.WarnContext(ctx, "failed to create notification",
			slog.Uint64("owner_id", uint64(ownerID)),
			slog.String("type", string(in.Kind)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ForumService) actorName(ctx context.Context, userID uint) string {
	if s.userRepo == nil {
		return "Someone"
	}
	summary, err := s.userRepo.GetSummary(ctx, userID)
	if err != nil || summary == nil {
		return "Someone"
	}
	if summary.Name != "" {
		return summary.Name
	}
	if summary.Username != "" {
		return summary.Username
	}
	return "Someone"
}

func postLink(postID uint) string {
	return fmt.Sprintf("/forum/%d", postID)
}

// normalizeTags trims, lowercases and de-duplicates tags, keeping first-seen order.
func normalizeTags(raw []string) ([]string, error) {
	tags := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if utf8.RuneCountInString(t) > maxTagLen {
			return nil, models.NewValidationError("Tag too long (max 64 characters)")
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	if len(tags) > maxTags {
		return nil, models.NewValidationError("Too many tags (max 10)")
	}
	return tags, nil
}
