package models

import (
	"strconv"
	"time"
)

// NotificationKind tags what kind of event a notification reports.
type NotificationKind string

const (
	NotificationLike    NotificationKind = "like"
	NotificationReply   NotificationKind = "reply"
	NotificationFollow  NotificationKind = "follow"
	NotificationGoal    NotificationKind = "goal"
	NotificationWorkout NotificationKind = "workout"
	NotificationInfo    NotificationKind = "info"
)

// Valid reports whether k is one of the known kinds.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationLike, NotificationReply, NotificationFollow,
		NotificationGoal, NotificationWorkout, NotificationInfo:
		return true
	}
	return false
}

// Notification is one persisted delivery event for a user.
// UserID is the owner and never changes after creation.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index:idx_notifications_owner,priority:1" json:"user"`
	SenderID  *uint            `gorm:"index" json:"sender,omitempty"`
	Kind      NotificationKind `gorm:"size:16;not null" json:"type"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Link      string           `json:"link,omitempty"`
	Read      bool             `gorm:"not null;index:idx_notifications_owner,priority:2" json:"read"`
	CreatedAt time.Time        `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// NotificationEvent is the shape pushed over the socket channel.
// The owner id is a string so clients can compare it with their session id.
type NotificationEvent struct {
	ID        uint             `json:"id"`
	User      string           `json:"user"`
	Sender    *uint            `json:"sender,omitempty"`
	Type      NotificationKind `json:"type"`
	Message   string           `json:"message"`
	Link      string           `json:"link,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Event converts the notification into its socket payload.
func (n *Notification) Event() NotificationEvent {
	return NotificationEvent{
		ID:        n.ID,
		User:      strconv.FormatUint(uint64(n.UserID), 10),
		Sender:    n.SenderID,
		Type:      n.Kind,
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
