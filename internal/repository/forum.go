package repository

import (
	"context"
	"errors"
	"time"

	"github.com/daniyal2335/eprojectfitness/internal/models"
	"github.com/daniyal2335/eprojectfitness/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Relation names a per-(post, user) toggle set.
type Relation string

const (
	RelationLike   Relation = "like"
	RelationFollow Relation = "follow"
)

// table maps a relation to its membership table. Only fixed names reach raw SQL.
func (r Relation) table() (string, error) {
	switch r {
	case RelationLike:
		return "forum_likes", nil
	case RelationFollow:
		return "forum_follows", nil
	}
	return "", errors.New("unknown relation " + string(r))
}

// Sort orders for post listings.
const (
	SortLatest   = "latest"
	SortPopular  = "popular"
	SortTrending = "trending"
)

// PostFilter narrows and orders a post listing.
type PostFilter struct {
	Category models.ForumCategory
	Tags     []string
	Sort     string
	Limit    int
	Offset   int
	ViewerID uint
}

// ForumRepository defines the interface for forum data operations
type ForumRepository interface {
	CreatePost(ctx context.Context, post *models.ForumPost) error
	GetPost(ctx context.Context, id, viewerID uint) (*models.ForumPost, error)
	GetPostHeader(ctx context.Context, id uint) (*models.ForumPost, error)
	IncrementViews(ctx context.Context, id uint) error
	ListPosts(ctx context.Context, filter PostFilter) ([]models.ForumPost, int64, error)
	AddReply(ctx context.Context, reply *models.ForumReply) error
	Toggle(ctx context.Context, rel Relation, postID, userID uint) (models.ToggleResult, error)
	Set(ctx context.Context, rel Relation, postID, userID uint, active bool) (models.ToggleResult, error)
	ListFollowerIDs(ctx context.Context, postID uint) ([]uint, error)
	ListFollowers(ctx context.Context, postID uint) ([]models.UserSummary, error)
}

type forumRepository struct {
	db *gorm.DB
}

// NewForumRepository creates a new forum repository
func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db}
}

func (r *forumRepository) CreatePost(ctx context.Context, post *models.ForumPost) error {
	defer observability.TrackQuery("create", "forum_posts")()

	post.TagRows = make([]models.ForumPostTag, 0, len(post.Tags))
	for _, tag := range post.Tags {
		post.TagRows = append(post.TagRows, models.ForumPostTag{Tag: tag})
	}
	return r.db.WithContext(ctx).Omit("Author", "Replies").Create(post).Error
}

func (r *forumRepository) GetPost(ctx context.Context, id, viewerID uint) (*models.ForumPost, error) {
	defer observability.TrackQuery("get", "forum_posts")()

	var post models.ForumPost
	err := r.withDerived(r.db.WithContext(ctx), viewerID).
		Preload("Author", selectUserSummary).
		Preload("TagRows").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("forum_replies.created_at ASC").Order("forum_replies.id ASC")
		}).
		Preload("Replies.Author", selectUserSummary).
		Where("forum_posts.id = ?", id).
		Take(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPostHeader loads only the identity columns of a post.
func (r *forumRepository) GetPostHeader(ctx context.Context, id uint) (*models.ForumPost, error) {
	var post models.ForumPost
	err := r.db.WithContext(ctx).
		Select("id", "title", "author_id", "category").
		Where("id = ?", id).
		Take(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// IncrementViews bumps the view counter in place; there is no read-then-write.
func (r *forumRepository) IncrementViews(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Model(&models.ForumPost{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *forumRepository) ListPosts(ctx context.Context, filter PostFilter) ([]models.ForumPost, int64, error) {
	defer observability.TrackQuery("list", "forum_posts")()

	var total int64
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.ForumPost{}), filter).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	posts := make([]models.ForumPost, 0, filter.Limit)
	if total == 0 {
		return posts, 0, nil
	}

	q := r.withDerived(r.db.WithContext(ctx), filter.ViewerID).
		Preload("Author", selectUserSummary).
		Preload("TagRows")
	err := applySort(r.applyFilter(q, filter), filter.Sort).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *forumRepository) applyFilter(db *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.Category != "" {
		db = db.Where("forum_posts.category = ?", filter.Category)
	}
	if len(filter.Tags) > 0 {
		db = db.Where("EXISTS (SELECT 1 FROM forum_post_tags WHERE forum_post_tags.post_id = forum_posts.id AND forum_post_tags.tag IN ?)", filter.Tags)
	}
	return db
}

// applySort appends the ORDER BY clause for the requested sort type.
// likes_count is a SELECT alias from withDerived. Every order ends on id so pages are stable.
func applySort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortPopular:
		return db.Order("likes_count DESC, forum_posts.created_at DESC, forum_posts.id DESC")
	case SortTrending:
		return db.Order("forum_posts.view_count DESC, forum_posts.created_at DESC, forum_posts.id DESC")
	default:
		return db.Order("forum_posts.pinned DESC, forum_posts.created_at DESC, forum_posts.id DESC")
	}
}

// withDerived adds subqueries for counters and viewer flags in a single query.
func (r *forumRepository) withDerived(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "forum_posts.*, " +
		"(SELECT COUNT(*) FROM forum_likes WHERE forum_likes.post_id = forum_posts.id) AS likes_count, " +
		"(SELECT COUNT(*) FROM forum_replies WHERE forum_replies.post_id = forum_posts.id) AS replies_count, " +
		"(SELECT COUNT(*) FROM forum_follows WHERE forum_follows.post_id = forum_posts.id) AS followers_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", "+
			"EXISTS(SELECT 1 FROM forum_likes WHERE forum_likes.post_id = forum_posts.id AND forum_likes.user_id = ?) AS is_liked, "+
			"EXISTS(SELECT 1 FROM forum_follows WHERE forum_follows.post_id = forum_posts.id AND forum_follows.user_id = ?) AS is_followed",
			viewerID, viewerID)
	}
	return db.Select(selectQuery + ", false AS is_liked, false AS is_followed")
}

// AddReply appends a reply to an existing post and loads its author.
func (r *forumRepository) AddReply(ctx context.Context, reply *models.ForumReply) error {
	defer observability.TrackQuery("create", "forum_replies")()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePost(tx, reply.PostID); err != nil {
			return err
		}
		if err := tx.Omit("Author").Create(reply).Error; err != nil {
			return err
		}
		var author models.User
		if err := selectUserSummary(tx).Where("id = ?", reply.AuthorID).Take(&author).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		reply.Author = &author
		return nil
	})
}

// Toggle flips the caller's membership in a relation set.
// The post row stays locked until commit, so concurrent toggles on one post
// apply one after another and two toggles by the same user cancel out.
func (r *forumRepository) Toggle(ctx context.Context, rel Relation, postID, userID uint) (models.ToggleResult, error) {
	table, err := rel.table()
	if err != nil {
		return models.ToggleResult{}, err
	}
	defer observability.TrackQuery("toggle", table)()

	var result models.ToggleResult
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, postID); err != nil {
			return err
		}

		removed, err := deleteMember(tx, table, postID, userID)
		if err != nil {
			return err
		}
		if !removed {
			if _, err := insertMember(tx, table, postID, userID); err != nil {
				return err
			}
			result.Active = true
		}
		result.Changed = true

		return tx.Table(table).Where("post_id = ?", postID).Count(&result.Count).Error
	})
	return result, err
}

// Set forces the caller's membership in a relation set to the requested state.
// Repeating it is a no-op and reports Changed=false.
func (r *forumRepository) Set(ctx context.Context, rel Relation, postID, userID uint, active bool) (models.ToggleResult, error) {
	table, err := rel.table()
	if err != nil {
		return models.ToggleResult{}, err
	}
	defer observability.TrackQuery("set", table)()

	result := models.ToggleResult{Active: active}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, postID); err != nil {
			return err
		}

		var err error
		if active {
			result.Changed, err = insertMember(tx, table, postID, userID)
		} else {
			result.Changed, err = deleteMember(tx, table, postID, userID)
		}
		if err != nil {
			return err
		}

		return tx.Table(table).Where("post_id = ?", postID).Count(&result.Count).Error
	})
	return result, err
}

func (r *forumRepository) ListFollowerIDs(ctx context.Context, postID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.ForumFollow{}).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *forumRepository) ListFollowers(ctx context.Context, postID uint) ([]models.UserSummary, error) {
	out := []models.UserSummary{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePost(tx, postID); err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Select("users.id", "users.username", "users.name", "users.profile_image").
			Joins("JOIN forum_follows ON forum_follows.user_id = users.id").
			Where("forum_follows.post_id = ?", postID).
			Order("forum_follows.created_at ASC").
			Find(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func ensurePost(tx *gorm.DB, postID uint) error {
	var count int64
	if err := tx.Model(&models.ForumPost{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// lockPost takes a row lock on the post for the rest of the transaction.
// SQLite has no row locks; its writer lock already serializes the transaction.
func lockPost(tx *gorm.DB, postID uint) error {
	var post models.ForumPost
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", postID).
		Take(&post).Error
}

func insertMember(tx *gorm.DB, table string, postID, userID uint) (bool, error) {
	res := tx.Exec(
		"INSERT INTO "+table+" (post_id, user_id, created_at) VALUES (?, ?, ?) ON CONFLICT (post_id, user_id) DO NOTHING",
		postID, userID, nowUTC(),
	)
	return res.RowsAffected > 0, res.Error
}

func deleteMember(tx *gorm.DB, table string, postID, userID uint) (bool, error) {
	res := tx.Exec("DELETE FROM "+table+" WHERE post_id = ? AND user_id = ?", postID, userID)
	return res.RowsAffected > 0, res.Error
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
