// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/daniyal2335/eprojectfitness/internal/models"
	"github.com/daniyal2335/eprojectfitness/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded user gets.
const DefaultPassword = "password123"

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// Seed makes the generated data reproducible when non-zero.
	Seed int64
}

var tagPool = []string{
	"strength", "cardio", "hiit", "mobility", "protein", "meal-prep",
	"running", "powerlifting", "yoga", "recovery", "beginner", "home-gym",
}

// Seeder writes demo data through the same repositories the API uses.
type Seeder struct {
	db            *gorm.DB
	users         repository.UserRepository
	forum         repository.ForumRepository
	notifications repository.NotificationRepository
	rng           *rand.Rand
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &Seeder{
		db:            db,
		users:         repository.NewUserRepository(db),
		forum:         repository.NewForumRepository(db),
		notifications: repository.NewNotificationRepository(db),
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// Seed populates the database with test data
func Seed(ctx context.Context, db *gorm.DB, opts Options) ([]models.User, error) {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	s := NewSeeder(db, opts.Seed)
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	users, err := s.CreateUsers(ctx, opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d test users created", len(users))

	if err := s.FollowUsers(ctx, users); err != nil {
		return nil, fmt.Errorf("failed to seed follow graph: %w", err)
	}

	posts, err := s.CreatePosts(ctx, users, opts.NumPosts)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d forum posts created", len(posts))

	if err := s.SeedEngagement(ctx, users, posts); err != nil {
		return nil, fmt.Errorf("failed to seed engagement: %w", err)
	}
	log.Println("✓ Likes, follows, replies and notifications created")

	return users, nil
}

// ClearAll removes every seeded row, children first.
func (s *Seeder) ClearAll() error {
	tables := []interface{}{
		&models.Notification{},
		&models.ForumLike{},
		&models.ForumFollow{},
		&models.ForumReply{},
		&models.ForumPostTag{},
		&models.ForumPost{},
		&models.UserFollow{},
		&models.User{},
	}
	for _, t := range tables {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateUsers inserts n users sharing DefaultPassword.
func (s *Seeder) CreateUsers(ctx context.Context, n int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		first := gofakeit.FirstName()
		last := gofakeit.LastName()
		username := strings.ToLower(fmt.Sprintf("%s%s%d", first, last, i))
		user := models.User{
			Username:     username,
			Email:        username + "@example.com",
			Password:     string(hash),
			Name:         first + " " + last,
			ProfileImage: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
			Preferences: models.Preferences{
				Units:         models.UnitsMetric,
				Theme:         models.ThemeLight,
				Notifications: true,
			},
		}
		if err := s.users.Create(ctx, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// FollowUsers links every user to the next one in a ring, plus random extra edges.
func (s *Seeder) FollowUsers(ctx context.Context, users []models.User) error {
	if len(users) < 2 {
		return nil
	}
	for i, u := range users {
		next := users[(i+1)%len(users)]
		if err := s.users.Follow(ctx, u.ID, next.ID); err != nil {
			return err
		}
		for _, other := range users {
			if other.ID == u.ID || s.rng.Intn(4) != 0 {
				continue
			}
			if err := s.users.Follow(ctx, u.ID, other.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// CreatePosts spreads n posts across users and categories.
func (s *Seeder) CreatePosts(ctx context.Context, users []models.User, n int) ([]models.ForumPost, error) {
	if len(users) == 0 {
		return nil, nil
	}
	posts := make([]models.ForumPost, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.rng.Intn(len(users))]
		post := models.ForumPost{
			Title:    strings.TrimSuffix(gofakeit.Sentence(6), "."),
			Content:  gofakeit.Paragraph(2, 3, 12, "\n\n"),
			Category: models.ForumCategories[s.rng.Intn(len(models.ForumCategories))],
			AuthorID: author.ID,
			Tags:     s.pickTags(),
			Pinned:   i == 0,
		}
		if err := s.forum.CreatePost(ctx, &post); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// SeedEngagement adds likes, follows and replies, with the matching
// notifications for post authors.
func (s *Seeder) SeedEngagement(ctx context.Context, users []models.User, posts []models.ForumPost) error {
	for _, post := range posts {
		for _, u := range users {
			if u.ID == post.AuthorID {
				continue
			}
			if s.rng.Intn(3) == 0 {
				if _, err := s.forum.Set(ctx, repository.RelationLike, post.ID, u.ID, true); err != nil {
					return err
				}
				if err := s.notify(ctx, post.AuthorID, u, models.NotificationLike, "liked your post", post.ID); err != nil {
					return err
				}
			}
			if s.rng.Intn(5) == 0 {
				if _, err := s.forum.Set(ctx, repository.RelationFollow, post.ID, u.ID, true); err != nil {
					return err
				}
			}
		}

		replies := s.rng.Intn(4)
		for i := 0; i < replies; i++ {
			u := users[s.rng.Intn(len(users))]
			reply := &models.ForumReply{
				PostID:   post.ID,
				AuthorID: u.ID,
				Content:  gofakeit.Sentence(12),
			}
			if err := s.forum.AddReply(ctx, reply); err != nil {
				return err
			}
			if u.ID != post.AuthorID {
				if err := s.notify(ctx, post.AuthorID, u, models.NotificationReply, "replied to your post", post.ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Seeder) notify(ctx context.Context, ownerID uint, actor models.User, kind models.NotificationKind, action string, postID uint) error {
	sender := actor.ID
	return s.notifications.Create(ctx, &models.Notification{
		UserID:   ownerID,
		SenderID: &sender,
		Kind:     kind,
		Message:  fmt.Sprintf("%s %s", actor.Name, action),
		Link:     fmt.Sprintf("/forum/%d", postID),
		Read:     s.rng.Intn(2) == 0,
	})
}

func (s *Seeder) pickTags() []string {
	n := s.rng.Intn(4)
	seen := make(map[string]bool, n)
	tags := make([]string, 0, n)
	for len(tags) < n {
		t := tagPool[s.rng.Intn(len(tagPool))]
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	return tags
}
