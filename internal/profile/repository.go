package profile

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"messenger/infrastructure"
)

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	CreateIfAbsent(ctx context.Context, p *Profile) (*Profile, error)
	Update(ctx context.Context, userID string, columns map[string]interface{}) (bool, error)
	Search(ctx context.Context, excludeUserID, query string, limit int) ([]*Profile, error)
	SwapAvatar(ctx context.Context, userID string, ref *string) (*string, error)
	ConfirmPhone(tx *gorm.DB, userID, phone string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&p).Error; err != nil {
		return nil, infrastructure.NotFound(err)
	}
	return &p, nil
}

// CreateIfAbsent inserts p unless a profile for p.UserID already exists and
// returns whichever row is stored.
func (r *repository) CreateIfAbsent(ctx context.Context, p *Profile) (*Profile, error) {
	var stored Profile
	err := infrastructure.WithTransaction(r.db, ctx, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(p).Error
		if err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return tx.Where("user_id = ?", p.UserID).Take(&stored).Error
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Update patches the given columns and reports whether a profile matched.
func (r *repository) Update(ctx context.Context, userID string, columns map[string]interface{}) (bool, error) {
	if len(columns) == 0 {
		var n int64
		err := r.db.WithContext(ctx).Model(&Profile{}).Where("user_id = ?", userID).Count(&n).Error
		return n > 0, err
	}
	res := r.db.WithContext(ctx).Model(&Profile{}).Where("user_id = ?", userID).Updates(columns)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update profile: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Search(ctx context.Context, excludeUserID, query string, limit int) ([]*Profile, error) {
	pattern := infrastructure.ContainsPattern(query)
	var out []*Profile
	err := r.db.WithContext(ctx).
		Where("user_id <> ?", excludeUserID).
		Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(username, '')) LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("created_at, id").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}
	return out, nil
}

// SwapAvatar sets the avatar reference and returns the one it replaced.
func (r *repository) SwapAvatar(ctx context.Context, userID string, ref *string) (*string, error) {
	var old *string
	err := infrastructure.WithTransaction(r.db, ctx, func(tx *gorm.DB) error {
		var p Profile
		if err := tx.Where("user_id = ?", userID).Take(&p).Error; err != nil {
			return infrastructure.NotFound(err)
		}
		old = p.AvatarRef
		return tx.Model(&Profile{}).Where("id = ?", p.ID).Update("avatar_ref", ref).Error
	})
	if err != nil {
		return nil, err
	}
	return old, nil
}

// ConfirmPhone records a verified phone number inside the caller's
// transaction. A missing profile is left alone.
func (r *repository) ConfirmPhone(tx *gorm.DB, userID, phone string) error {
	return tx.Model(&Profile{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"phone":          phone,
		"phone_verified": true,
	}).Error
}
