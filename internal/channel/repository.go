package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"messenger/infrastructure"
)

type Repository interface {
	Create(ctx context.Context, c *Channel) error
	Get(ctx context.Context, id string) (*Channel, error)
	Admins(ctx context.Context, channelID string) ([]string, error)
	IsAdmin(ctx context.Context, channelID, userID string) (bool, error)
	IsSubscribed(ctx context.Context, channelID, userID string) (bool, error)
	Subscribe(ctx context.Context, channelID, userID string) (bool, error)
	Unsubscribe(ctx context.Context, channelID, userID string) (bool, error)
	SearchPublic(ctx context.Context, query string, limit int) ([]*Channel, error)
	ListSubscribed(ctx context.Context, userID string) ([]*Channel, error)
	AdminChannelIDs(ctx context.Context, userID string) (map[string]bool, error)
	CountSubscriptions(ctx context.Context, channelID string) (int64, error)

	RecordMessage(tx *gorm.DB, id string, at int64, preview string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create stores c with its creator as sole admin and first subscriber.
func (r *repository) Create(ctx context.Context, c *Channel) error {
	err := infrastructure.WithTransaction(r.db, ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Channel{}).Where("username = ?", c.Username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrUsernameTaken
		}

		c.SubscriberCount = 1
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		if err := tx.Create(&Admin{ChannelID: c.ID, UserID: c.CreatorID}).Error; err != nil {
			return fmt.Errorf("failed to add channel admin: %w", err)
		}
		sub := &Subscription{ID: uuid.NewString(), ChannelID: c.ID, UserID: c.CreatorID}
		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("failed to subscribe creator: %w", err)
		}
		return nil
	})
	if infrastructure.IsDuplicateKey(err) {
		return ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, ErrUsernameTaken) {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return err
}

func (r *repository) Get(ctx context.Context, id string) (*Channel, error) {
	var c Channel
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, infrastructure.NotFound(err)
	}
	return &c, nil
}

func (r *repository) Admins(ctx context.Context, channelID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&Admin{}).
		Where("channel_id = ?", channelID).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *repository) IsAdmin(ctx context.Context, channelID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Admin{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *repository) IsSubscribed(ctx context.Context, channelID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Subscription{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&n).Error
	return n > 0, err
}

// Subscribe adds the edge and bumps the counter in one transaction. It
// reports whether the edge was new.
func (r *repository) Subscribe(ctx context.Context, channelID, userID string) (bool, error) {
	added := false
	err := infrastructure.WithTransaction(r.db, ctx, func(tx *gorm.DB) error {
		var c Channel
		if err := infrastructure.ForUpdate(tx).Select("id").Where("id = ?", channelID).Take(&c).Error; err != nil {
			return infrastructure.NotFound(err)
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&Subscription{
			ID:        uuid.NewString(),
			ChannelID: channelID,
			UserID:    userID,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to subscribe: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		added = true
		return tx.Model(&Channel{}).Where("id = ?", channelID).
			UpdateColumn("subscriber_count", gorm.Expr("subscriber_count + 1")).Error
	})
	return added, err
}

// Unsubscribe removes the edge and decrements the counter, never below zero.
func (r *repository) Unsubscribe(ctx context.Context, channelID, userID string) (bool, error) {
	removed := false
	err := infrastructure.WithTransaction(r.db, ctx, func(tx *gorm.DB) error {
		res := tx.Where("channel_id = ? AND user_id = ?", channelID, userID).Delete(&Subscription{})
		if res.Error != nil {
			return fmt.Errorf("failed to unsubscribe: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&Channel{}).Where("id = ?", channelID).
			UpdateColumn("subscriber_count", gorm.Expr("CASE WHEN subscriber_count > 0 THEN subscriber_count - 1 ELSE 0 END")).Error
	})
	return removed, err
}

func (r *repository) SearchPublic(ctx context.Context, query string, limit int) ([]*Channel, error) {
	pattern := infrastructure.ContainsPattern(query)
	var out []*Channel
	err := r.db.WithContext(ctx).
		Where("is_public = ?", true).
		Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(username) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("subscriber_count DESC, created_at, id").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search channels: %w", err)
	}
	return out, nil
}

func (r *repository) ListSubscribed(ctx context.Context, userID string) ([]*Channel, error) {
	tx := r.db.WithContext(ctx)
	var out []*Channel
	err := tx.
		Where("id IN (?)", tx.Model(&Subscription{}).Select("channel_id").Where("user_id = ?", userID)).
		Order("last_message_at DESC, created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return out, nil
}

func (r *repository) AdminChannelIDs(ctx context.Context, userID string) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&Admin{}).Where("user_id = ?", userID).Pluck("channel_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *repository) CountSubscriptions(ctx context.Context, channelID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Subscription{}).Where("channel_id = ?", channelID).Count(&n).Error
	return n, err
}

func (r *repository) RecordMessage(tx *gorm.DB, id string, at int64, preview string) error {
	return tx.Model(&Channel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_message_at":      at,
		"last_message_preview": preview,
	}).Error
}
