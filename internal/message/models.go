package message

import (
	"fmt"
	"strings"

	"messenger/infrastructure"
)

type ChatType string

const (
	ChatDirect  ChatType = "direct"
	ChatGroup   ChatType = "group"
	ChatChannel ChatType = "channel"
)

func ParseChatType(s string) (ChatType, error) {
	switch t := ChatType(strings.ToLower(strings.TrimSpace(s))); t {
	case ChatDirect, ChatGroup, ChatChannel:
		return t, nil
	default:
		return "", fmt.Errorf("unknown chat type %q: %w", s, infrastructure.ErrInvalidInput)
	}
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	// DeletedContent replaces the body of a deleted message.
	DeletedContent = "This message was deleted"

	// UnknownSender is the name snapshot used when the sender has no profile.
	UnknownSender = "Unknown"
)

// Message IDs are ULIDs, so they sort in creation order.
type Message struct {
	ID         string   `gorm:"primaryKey;type:varchar(26)" json:"id"`
	CreatedAt  int64    `gorm:"not null" json:"created_at"`
	ChatType   ChatType `gorm:"type:varchar(16);not null;index:idx_messages_chat,priority:1" json:"chat_type"`
	ChatID     string   `gorm:"type:varchar(36);not null;index:idx_messages_chat,priority:2" json:"chat_id"`
	SenderID   string   `gorm:"type:varchar(64);not null;index" json:"sender_id"`
	SenderName string   `gorm:"not null" json:"sender_name"`
	Content    string   `gorm:"not null" json:"content"`
	ImageRef   *string  `json:"image_ref,omitempty"`
	ReplyToID  *string  `gorm:"type:varchar(26)" json:"reply_to_id,omitempty"`
	IsEdited   bool     `gorm:"not null;default:false" json:"is_edited"`
	IsDeleted  bool     `gorm:"not null;default:false" json:"is_deleted"`
}

func (Message) TableName() string { return "messages" }

type SendInput struct {
	ChatType  ChatType `json:"chat_type"`
	ChatID    string   `json:"chat_id"`
	Content   string   `json:"content"`
	ImageRef  *string  `json:"image_ref"`
	ReplyToID *string  `json:"reply_to_id"`
}
