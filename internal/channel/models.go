package channel

import (
	"errors"
	"fmt"
	"time"

	"messenger/infrastructure"
)

// ErrUsernameTaken is returned by Create when the handle is already in use.
var ErrUsernameTaken = fmt.Errorf("channel username is taken: %w", infrastructure.ErrConflict)

// Channel is a broadcast feed. SubscriberCount always equals the number of
// Subscription rows for the channel.
type Channel struct {
	ID                 string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	Name               string    `gorm:"not null" json:"name"`
	Description        *string   `json:"description,omitempty"`
	Username           string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"username"`
	AvatarRef          *string   `json:"avatar_ref,omitempty"`
	CreatorID          string    `gorm:"type:varchar(64);not null" json:"creator_id"`
	SubscriberCount    int64     `gorm:"not null;default:0" json:"subscriber_count"`
	IsPublic           bool      `gorm:"not null;index" json:"is_public"`
	LastMessageAt      int64     `gorm:"index" json:"last_message_at"`
	LastMessagePreview *string   `json:"last_message_preview,omitempty"`
}

func (Channel) TableName() string { return "channels" }

type Admin struct {
	ChannelID string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"primaryKey;type:varchar(64);index"`
}

func (Admin) TableName() string { return "channel_admins" }

type Subscription struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ChannelID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_channel_subscriber,priority:1" json:"channel_id"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_channel_subscriber,priority:2;index" json:"user_id"`
}

func (Subscription) TableName() string { return "channel_subscriptions" }

// View is a channel as seen by one user.
type View struct {
	Channel
	Admins       []string `json:"admins"`
	IsAdmin      bool     `json:"is_admin"`
	IsSubscribed bool     `json:"is_subscribed"`
}

type CreateInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Username    string  `json:"username"`
	IsPublic    bool    `json:"is_public"`
}

// IsUsernameTaken reports whether err came from a duplicate channel handle.
func IsUsernameTaken(err error) bool {
	return errors.Is(err, ErrUsernameTaken)
}
