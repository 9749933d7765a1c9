// Package models contains data structures for the application's domain models.
package models

import "time"

// Units is the measurement system a user prefers.
type Units string

// Theme is the UI theme a user prefers.
type Theme string

// Valid reports whether u is a known measurement system.
func (u Units) Valid() bool { return u == UnitsMetric || u == UnitsImperial }

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool { return t == ThemeLight || t == ThemeDark }

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"

	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Preferences is embedded into the users table with a pref_ prefix.
type Preferences struct {
	Units         Units `gorm:"size:16;default:'metric'" json:"units"`
	Theme         Theme `gorm:"size:16;default:'light'" json:"theme"`
	Notifications bool  `json:"notifications"`
}

// User represents a member of the fitness community.
type User struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Username     string      `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email        string      `gorm:"size:255;uniqueIndex;not null" json:"email,omitempty"`
	Password     string      `gorm:"not null" json:"-"`
	Name         string      `json:"name"`
	ProfileImage string      `json:"profileImage,omitempty"`
	Preferences  Preferences `gorm:"embedded;embeddedPrefix:pref_" json:"preferences,omitzero"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`

	// FollowersCount and FollowingCount are computed at query time
	FollowersCount int `gorm:"->;-:migration" json:"followersCount"`
	FollowingCount int `gorm:"->;-:migration" json:"followingCount"`
}

// UserFollow is one directed edge of the user follow graph.
type UserFollow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false" json:"followerId"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName specifies the table name for GORM
func (UserFollow) TableName() string {
	return "user_follows"
}

// ProfileUpdate carries the editable profile fields. Nil fields are left alone.
type ProfileUpdate struct {
	Name         *string      `json:"name"`
	ProfileImage *string      `json:"profileImage"`
	Preferences  *Preferences `json:"preferences"`
}

// UserSummary is the public projection of a user embedded in other payloads.
type UserSummary struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
}
