package models

import (
	"time"

	"gorm.io/gorm"
)

// ForumCategory is one of the fixed discussion categories.
type ForumCategory string

const (
	CategoryGeneralDiscussion ForumCategory = "general-discussion"
	CategoryWorkoutTips       ForumCategory = "workout-tips"
	CategoryNutritionAdvice   ForumCategory = "nutrition-advice"
	CategoryProgressSharing   ForumCategory = "progress-sharing"
	CategoryMotivation        ForumCategory = "motivation"
	CategoryQuestions         ForumCategory = "questions"
	CategorySuccessStories    ForumCategory = "success-stories"
	CategoryEquipmentReviews  ForumCategory = "equipment-reviews"
)

// ForumCategories lists every category in display order.
var ForumCategories = []ForumCategory{
	CategoryGeneralDiscussion,
	CategoryWorkoutTips,
	CategoryNutritionAdvice,
	CategoryProgressSharing,
	CategoryMotivation,
	CategoryQuestions,
	CategorySuccessStories,
	CategoryEquipmentReviews,
}

// Valid reports whether c is a known category.
func (c ForumCategory) Valid() bool {
	for _, known := range ForumCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ForumPost is a discussion thread.
type ForumPost struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Title     string        `gorm:"size:200;not null" json:"title"`
	Content   string        `gorm:"type:text;not null" json:"content"`
	Category  ForumCategory `gorm:"size:32;not null;index" json:"category"`
	AuthorID  uint          `gorm:"not null;index" json:"authorId"`
	Author    *User         `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ViewCount int           `gorm:"not null;default:0" json:"viewCount"`
	Pinned    bool          `gorm:"not null;index" json:"pinned"`
	CreatedAt time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`

	TagRows []ForumPostTag `gorm:"foreignKey:PostID" json:"-"`
	Tags    []string       `gorm:"-" json:"tags"`
	Replies []ForumReply   `gorm:"foreignKey:PostID" json:"replies,omitempty"`

	// Counters and viewer flags are computed at query time
	LikesCount     int  `gorm:"->;-:migration" json:"likesCount"`
	RepliesCount   int  `gorm:"->;-:migration" json:"repliesCount"`
	FollowersCount int  `gorm:"->;-:migration" json:"followersCount"`
	IsLiked        bool `gorm:"->;-:migration" json:"isLiked"`
	IsFollowed     bool `gorm:"->;-:migration" json:"isFollowed"`
}

// AfterFind flattens the tag rows into Tags.
func (p *ForumPost) AfterFind(_ *gorm.DB) error {
	p.Tags = make([]string, 0, len(p.TagRows))
	for _, t := range p.TagRows {
		p.Tags = append(p.Tags, t.Tag)
	}
	return nil
}

// ForumPostTag attaches one free-form tag to a post.
type ForumPostTag struct {
	PostID uint   `gorm:"primaryKey;autoIncrement:false"`
	Tag    string `gorm:"primaryKey;size:64;index"`
}

// ForumReply is an append-only answer to a post.
type ForumReply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"postId"`
	AuthorID  uint      `gorm:"not null;index" json:"authorId"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// ForumLike is one member of a post's like set.
type ForumLike struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}

// ForumFollow is one member of a post's follower set.
type ForumFollow struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}

// ToggleResult is the state of a toggle relation after a mutation.
type ToggleResult struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
	// Changed is false when the request left the set as it was.
	Changed bool `json:"-"`
}

// PostPage is one page of a post listing.
type PostPage struct {
	Posts    []ForumPost `json:"posts"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
	Pages    int         `json:"pages"`
}
