package verification

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"messenger/infrastructure"
)

type Saver interface {
	StorePhoneVerification(tx *gorm.DB, v *PhoneVerification) error
	MarkVerified(tx *gorm.DB, id string) (bool, error)
	ClaimAttempt(tx *gorm.DB, id string, limit int) (bool, error)
}

type Deleter interface {
	DeletePhoneVerification(tx *gorm.DB, userID string) error
}

type Provider interface {
	GetPhoneVerification(tx *gorm.DB, userID string) (*PhoneVerification, error)
}

type GormStorage struct{}

func NewGormStorage() *GormStorage {
	return &GormStorage{}
}

// StorePhoneVerification replaces any earlier code for the same user.
func (s *GormStorage) StorePhoneVerification(tx *gorm.DB, v *PhoneVerification) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"id", "created_at", "phone", "code_hash", "expires_at", "attempts", "verified"}),
	}).Create(v).Error
}

// MarkVerified reports false when the code was already used or replaced.
func (s *GormStorage) MarkVerified(tx *gorm.DB, id string) (bool, error) {
	res := tx.Model(&PhoneVerification{}).
		Where("id = ? AND verified = ?", id, false).
		Update("verified", true)
	return res.RowsAffected == 1, res.Error
}

// ClaimAttempt spends one attempt on code id. It reports false once limit
// attempts have been spent, or when the code is used or gone.
func (s *GormStorage) ClaimAttempt(tx *gorm.DB, id string, limit int) (bool, error) {
	res := tx.Model(&PhoneVerification{}).
		Where("id = ? AND attempts < ? AND verified = ?", id, limit, false).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	return res.RowsAffected == 1, res.Error
}

func (s *GormStorage) DeletePhoneVerification(tx *gorm.DB, userID string) error {
	return tx.Where("user_id = ?", userID).Delete(&PhoneVerification{}).Error
}

func (s *GormStorage) GetPhoneVerification(tx *gorm.DB, userID string) (*PhoneVerification, error) {
	var v PhoneVerification
	if err := tx.Where("user_id = ?", userID).Take(&v).Error; err != nil {
		return nil, infrastructure.NotFound(err)
	}
	return &v, nil
}
