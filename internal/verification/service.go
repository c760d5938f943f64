package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"messenger/infrastructure"
	"messenger/internal/metrics"
)

// Service issues and checks phone verification codes. Without a Sender it
// runs in development mode and returns the code in the result message.
type Service struct {
	repo     Repository
	sender   Sender
	logger   zerolog.Logger
	now      func() time.Time
	hashCost int
	compare  func(hash, code []byte) error
}

func NewService(repo Repository, sender Sender, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		sender:   sender,
		logger:   logger.With().Str("component", "verification").Logger(),
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
		compare:  bcrypt.CompareHashAndPassword,
	}
}

func (s *Service) mode() string {
	if s.sender == nil {
		return "development"
	}
	return "sms"
}

// SendCode issues a fresh code for phone, replacing any earlier one.
func (s *Service) SendCode(ctx context.Context, callerID, phone string) (*Result, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return nil, err
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("phone number is required: %w", infrastructure.ErrInvalidInput)
	}

	code, err := infrastructure.GenerateVerificationCode()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash verification code: %w", err)
	}

	err = s.repo.Store(ctx, &PhoneVerification{
		ID:        uuid.NewString(),
		UserID:    callerID,
		Phone:     phone,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(CodeTTL).UnixMilli(),
	})
	if err != nil {
		return nil, err
	}

	if s.sender == nil {
		metrics.VerificationCodes.WithLabelValues(s.mode(), "sent").Inc()
		s.logger.Warn().Str("user_id", callerID).Msg("sms disabled, returning verification code to caller")
		return &Result{Success: true, Message: fmt.Sprintf(devModeMessage, code)}, nil
	}

	if err := s.sender.Send(ctx, phone, fmt.Sprintf(smsBody, code)); err != nil {
		metrics.VerificationCodes.WithLabelValues(s.mode(), "failed").Inc()
		s.logger.Error().Err(err).Str("user_id", callerID).Msg("verification sms failed")
		if err := s.repo.Discard(ctx, callerID); err != nil {
			s.logger.Error().Err(err).Str("user_id", callerID).Msg("failed to discard undelivered code")
		}
		return &Result{Success: false, Message: msgSendFailed}, nil
	}

	metrics.VerificationCodes.WithLabelValues(s.mode(), "sent").Inc()
	return &Result{Success: true, Message: msgSent}, nil
}

// VerifyCode checks code against the caller's outstanding code. On success
// the phone is recorded on the profile as verified.
func (s *Service) VerifyCode(ctx context.Context, callerID, code string) (*Result, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return nil, err
	}

	v, err := s.repo.Get(ctx, callerID)
	if errors.Is(err, infrastructure.ErrNotFound) {
		return &Result{Success: false, Message: msgNoCode}, nil
	}
	if err != nil {
		return nil, err
	}
	if v.Verified {
		return &Result{Success: false, Message: msgNoCode}, nil
	}
	if v.ExpiresAt < s.now().UnixMilli() {
		return &Result{Success: false, Message: msgExpired}, nil
	}

	claimed, err := s.repo.ClaimAttempt(ctx, v)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return s.attemptRefused(ctx, v)
	}

	if s.compare([]byte(v.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		return &Result{Success: false, Message: msgInvalid}, nil
	}

	err = s.repo.Confirm(ctx, v)
	if errors.Is(err, infrastructure.ErrNotFound) {
		return &Result{Success: false, Message: msgNoCode}, nil
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", callerID).Msg("phone verified")
	return &Result{Success: true, Message: msgVerified}, nil
}

// attemptRefused handles a code whose attempt could not be claimed: it was
// exhausted, used or replaced since it was read.
func (s *Service) attemptRefused(ctx context.Context, v *PhoneVerification) (*Result, error) {
	cur, err := s.repo.Get(ctx, v.UserID)
	if errors.Is(err, infrastructure.ErrNotFound) {
		return &Result{Success: false, Message: msgNoCode}, nil
	}
	if err != nil {
		return nil, err
	}
	if cur.ID != v.ID || cur.Verified {
		return &Result{Success: false, Message: msgNoCode}, nil
	}
	if err := s.repo.Discard(ctx, v.UserID); err != nil {
		return nil, err
	}
	s.logger.Warn().Str("user_id", v.UserID).Msg("verification attempts exhausted")
	return &Result{Success: false, Message: msgTooMany}, nil
}
