package message

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"messenger/infrastructure"
)

type Repository interface {
	// Create stores m and runs after within the same transaction.
	Create(ctx context.Context, m *Message, after func(tx *gorm.DB) error) error
	Get(ctx context.Context, id string) (*Message, error)
	ListRecent(ctx context.Context, chatType ChatType, chatID string, limit int) ([]*Message, error)
	// Mutate loads the message under lock, lets fn change it and saves the
	// returned columns. fn may return an error to abort.
	Mutate(ctx context.Context, id string, fn func(m *Message) (map[string]interface{}, error)) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, m *Message, after func(tx *gorm.DB) error) error {
	return infrastructure.WithTransaction(r.db, ctx, func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return fmt.Errorf("failed to store message: %w", err)
		}
		if after == nil {
			return nil
		}
		return after(tx)
	})
}

func (r *repository) Get(ctx context.Context, id string) (*Message, error) {
	var m Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, infrastructure.NotFound(err)
	}
	return &m, nil
}

// ListRecent returns up to limit newest messages, newest first.
func (r *repository) ListRecent(ctx context.Context, chatType ChatType, chatID string, limit int) ([]*Message, error) {
	var out []*Message
	err := r.db.WithContext(ctx).
		Where("chat_type = ? AND chat_id = ?", chatType, chatID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return out, nil
}

func (r *repository) Mutate(ctx context.Context, id string, fn func(m *Message) (map[string]interface{}, error)) error {
	return infrastructure.WithTransaction(r.db, ctx, func(tx *gorm.DB) error {
		var m Message
		if err := infrastructure.ForUpdate(tx).Where("id = ?", id).Take(&m).Error; err != nil {
			return infrastructure.NotFound(err)
		}
		cols, err := fn(&m)
		if err != nil || len(cols) == 0 {
			return err
		}
		return tx.Model(&Message{}).Where("id = ?", id).Updates(cols).Error
	})
}
