package message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"messenger/infrastructure"
	"messenger/internal/metrics"
	"messenger/internal/profile"
)

// ErrMessageDeleted is returned when editing a deleted message.
var ErrMessageDeleted = fmt.Errorf("message was deleted: %w", infrastructure.ErrConflict)

// Profiles supplies the sender name snapshot.
type Profiles interface {
	GetByUserID(ctx context.Context, userID string) (*profile.View, error)
}

// Service is the message store shared by every chat type. It does not check
// membership; callers decide who may send and read.
type Service struct {
	repo     Repository
	profiles Profiles
	previews PreviewUpdaters
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, profiles Profiles, previews PreviewUpdaters, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		previews: previews,
		logger:   logger.With().Str("component", "message").Logger(),
		now:      time.Now,
	}
}

// Send stores a message and updates the parent chat's last-message fields in
// the same transaction.
func (s *Service) Send(ctx context.Context, callerID string, in SendInput) (*Message, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return nil, err
	}
	if in.ChatType, err = ParseChatType(string(in.ChatType)); err != nil {
		return nil, err
	}
	in.ChatID = strings.TrimSpace(in.ChatID)
	if in.ChatID == "" {
		return nil, fmt.Errorf("chat is required: %w", infrastructure.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Content) == "" && in.ImageRef == nil {
		return nil, fmt.Errorf("message needs content or an image: %w", infrastructure.ErrInvalidInput)
	}
	if in.ReplyToID != nil {
		parent, err := s.repo.Get(ctx, *in.ReplyToID)
		if err != nil {
			return nil, fmt.Errorf("reply target: %w", err)
		}
		if parent.ChatType != in.ChatType || parent.ChatID != in.ChatID {
			return nil, fmt.Errorf("reply target is in another chat: %w", infrastructure.ErrInvalidInput)
		}
	}

	senderName := UnknownSender
	sender, err := s.profiles.GetByUserID(ctx, callerID)
	switch {
	case err == nil:
		senderName = sender.Name
	case !errors.Is(err, infrastructure.ErrNotFound):
		return nil, err
	}

	now := s.now()
	m := &Message{
		ID:         ulid.Make().String(),
		CreatedAt:  now.UnixMilli(),
		ChatType:   in.ChatType,
		ChatID:     in.ChatID,
		SenderID:   callerID,
		SenderName: senderName,
		Content:    in.Content,
		ImageRef:   in.ImageRef,
		ReplyToID:  in.ReplyToID,
	}

	err = infrastructure.TimeOperation(ctx, "message.send", func() error {
		return s.repo.Create(ctx, m, func(tx *gorm.DB) error {
			updater, ok := s.previews[m.ChatType]
			if !ok {
				return nil
			}
			return updater.RecordMessage(tx, m.ChatID, m.CreatedAt, Preview(m.Content))
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.MessagesSent.WithLabelValues(string(m.ChatType)).Inc()
	return m, nil
}

// List returns the newest limit messages of a chat in chronological order.
// A non-positive limit means DefaultListLimit.
func (s *Service) List(ctx context.Context, chatType ChatType, chatID string, limit int) ([]*Message, error) {
	chatType, err := ParseChatType(string(chatType))
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	msgs, err := s.repo.ListRecent(ctx, chatType, chatID, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Get returns ErrNotFound for an unknown ID.
func (s *Service) Get(ctx context.Context, id string) (*Message, error) {
	return s.repo.Get(ctx, id)
}

// Edit replaces the content of the caller's own message.
func (s *Service) Edit(ctx context.Context, callerID, id, content string) error {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required: %w", infrastructure.ErrInvalidInput)
	}
	return s.repo.Mutate(ctx, id, func(m *Message) (map[string]interface{}, error) {
		if m.SenderID != callerID {
			return nil, fmt.Errorf("only the sender can edit a message: %w", infrastructure.ErrForbidden)
		}
		if m.IsDeleted {
			return nil, ErrMessageDeleted
		}
		return map[string]interface{}{"content": content, "is_edited": true}, nil
	})
}

// Delete tombstones the caller's own message. Deleting twice is a no-op.
func (s *Service) Delete(ctx context.Context, callerID, id string) error {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return err
	}
	return s.repo.Mutate(ctx, id, func(m *Message) (map[string]interface{}, error) {
		if m.SenderID != callerID {
			return nil, fmt.Errorf("only the sender can delete a message: %w", infrastructure.ErrForbidden)
		}
		if m.IsDeleted {
			return nil, nil
		}
		return map[string]interface{}{"content": DeletedContent, "is_deleted": true}, nil
	})
}
