package block

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Insert(ctx context.Context, edge *BlockedUser) (bool, error)
	Delete(ctx context.Context, userID, blockedUserID string) (bool, error)
	Exists(ctx context.Context, userID, blockedUserID string) (bool, error)
	EitherWay(ctx context.Context, a, b string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*BlockedUser, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Insert adds the edge and reports whether it was new.
func (r *repository) Insert(ctx context.Context, edge *BlockedUser) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(edge)
	if res.Error != nil {
		return false, fmt.Errorf("failed to block user: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Delete(ctx context.Context, userID, blockedUserID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND blocked_user_id = ?", userID, blockedUserID).
		Delete(&BlockedUser{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to unblock user: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Exists(ctx context.Context, userID, blockedUserID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&BlockedUser{}).
		Where("user_id = ? AND blocked_user_id = ?", userID, blockedUserID).
		Count(&n).Error
	return n > 0, err
}

func (r *repository) EitherWay(ctx context.Context, a, b string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&BlockedUser{}).
		Where("(user_id = ? AND blocked_user_id = ?) OR (user_id = ? AND blocked_user_id = ?)", a, b, b, a).
		Count(&n).Error
	return n > 0, err
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]*BlockedUser, error) {
	var out []*BlockedUser
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at, id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked users: %w", err)
	}
	return out, nil
}
