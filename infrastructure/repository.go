package infrastructure

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// TimeOperation executes an operation and logs its execution time
func TimeOperation(ctx context.Context, name string, operation func() error) error {
	start := time.Now()
	err := operation()
	zerolog.Ctx(ctx).Debug().
		Str("operation", name).
		Dur("elapsed", time.Since(start)).
		Err(err).
		Msg("operation finished")
	return err
}

// WithTransaction handles a database transaction and executes the given operation
func WithTransaction(db *gorm.DB, ctx context.Context, operation func(tx *gorm.DB) error) (err error) {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to start transaction: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // re-throw panic after Rollback
		} else if err != nil {
			if rbErr := tx.Rollback().Error; rbErr != nil {
				zerolog.Ctx(ctx).Error().Err(rbErr).Msg("error while rolling back transaction")
			}
		} else {
			err = tx.Commit().Error
		}
	}()

	err = operation(tx)
	return err
}

const verificationCodeLength = 6

// GenerateVerificationCode returns a uniformly random numeric code with no
// leading zero.
func GenerateVerificationCode() (string, error) {
	low := int64(1)
	for i := 1; i < verificationCodeLength; i++ {
		low *= 10
	}
	n, err := rand.Int(rand.Reader, big.NewInt(low*9))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+low), nil
}
