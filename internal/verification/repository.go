package verification

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"messenger/infrastructure"
)

// PhoneConfirmer writes the verified number onto the user's profile.
type PhoneConfirmer interface {
	ConfirmPhone(tx *gorm.DB, userID, phone string) error
}

type Repository interface {
	Store(ctx context.Context, v *PhoneVerification) error
	Get(ctx context.Context, userID string) (*PhoneVerification, error)
	ClaimAttempt(ctx context.Context, v *PhoneVerification) (bool, error)
	Discard(ctx context.Context, userID string) error
	Confirm(ctx context.Context, v *PhoneVerification) error
}

type repository struct {
	db       *gorm.DB
	saver    Saver
	deleter  Deleter
	provider Provider
	profiles PhoneConfirmer
}

func NewRepository(db *gorm.DB, storage *GormStorage, profiles PhoneConfirmer) Repository {
	return &repository{
		db:       db,
		saver:    storage,
		deleter:  storage,
		provider: storage,
		profiles: profiles,
	}
}

func (r *repository) Store(ctx context.Context, v *PhoneVerification) error {
	return infrastructure.WithTransaction(r.db, ctx, func(tx *gorm.DB) error {
		if err := r.saver.StorePhoneVerification(tx, v); err != nil {
			return fmt.Errorf("failed to store phone verification: %w", err)
		}
		return nil
	})
}

func (r *repository) Get(ctx context.Context, userID string) (*PhoneVerification, error) {
	return r.provider.GetPhoneVerification(r.db.WithContext(ctx), userID)
}

// ClaimAttempt must succeed before the code is compared, so concurrent
// guesses cannot exceed MaxAttempts.
func (r *repository) ClaimAttempt(ctx context.Context, v *PhoneVerification) (bool, error) {
	ok, err := r.saver.ClaimAttempt(r.db.WithContext(ctx), v.ID, MaxAttempts)
	if err != nil {
		return false, fmt.Errorf("failed to record verification attempt: %w", err)
	}
	return ok, nil
}

func (r *repository) Discard(ctx context.Context, userID string) error {
	return r.deleter.DeletePhoneVerification(r.db.WithContext(ctx), userID)
}

// Confirm marks the code used and records the phone on the profile
// atomically. A code that was already used or replaced yields ErrNotFound.
func (r *repository) Confirm(ctx context.Context, v *PhoneVerification) error {
	return infrastructure.WithTransaction(r.db, ctx, func(tx *gorm.DB) error {
		ok, err := r.saver.MarkVerified(tx, v.ID)
		if err != nil {
			return fmt.Errorf("failed to mark code verified: %w", err)
		}
		if !ok {
			return infrastructure.ErrNotFound
		}
		if err := r.profiles.ConfirmPhone(tx, v.UserID, v.Phone); err != nil {
			return fmt.Errorf("failed to update profile phone: %w", err)
		}
		return nil
	})
}
