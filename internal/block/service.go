package block

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"messenger/infrastructure"
	"messenger/internal/profile"
)

// Profiles resolves a user's public profile.
type Profiles interface {
	GetByUserID(ctx context.Context, userID string) (*profile.View, error)
}

// Service is the relationship guard. Blocks are directed and idempotent.
type Service struct {
	repo     Repository
	profiles Profiles
	logger   zerolog.Logger
}

func NewService(repo Repository, profiles Profiles, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		logger:   logger.With().Str("component", "block").Logger(),
	}
}

func (s *Service) Block(ctx context.Context, callerID, targetID string) error {
	callerID, targetID, err := normalize(callerID, targetID)
	if err != nil {
		return err
	}
	created, err := s.repo.Insert(ctx, &BlockedUser{
		ID:            uuid.NewString(),
		UserID:        callerID,
		BlockedUserID: targetID,
	})
	if err != nil {
		return err
	}
	if created {
		s.logger.Info().Str("user_id", callerID).Str("blocked_user_id", targetID).Msg("user blocked")
	}
	return nil
}

func (s *Service) Unblock(ctx context.Context, callerID, targetID string) error {
	callerID, targetID, err := normalize(callerID, targetID)
	if err != nil {
		return err
	}
	_, err = s.repo.Delete(ctx, callerID, targetID)
	return err
}

// IsBlocked reports whether the caller has blocked target.
func (s *Service) IsBlocked(ctx context.Context, callerID, targetID string) (bool, error) {
	callerID, targetID, err := normalize(callerID, targetID)
	if err != nil {
		return false, err
	}
	return s.repo.Exists(ctx, callerID, targetID)
}

// EitherBlocked reports whether a block exists in either direction.
func (s *Service) EitherBlocked(ctx context.Context, a, b string) (bool, error) {
	return s.repo.EitherWay(ctx, a, b)
}

// ListBlocked returns the caller's block list with the profile of each
// blocked user, or a nil profile if they never created one.
func (s *Service) ListBlocked(ctx context.Context, callerID string) ([]*Entry, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return nil, err
	}
	edges, err := s.repo.ListByUser(ctx, callerID)
	if err != nil {
		return nil, err
	}

	out := make([]*Entry, 0, len(edges))
	for _, e := range edges {
		v, err := s.profiles.GetByUserID(ctx, e.BlockedUserID)
		if err != nil && !errors.Is(err, infrastructure.ErrNotFound) {
			return nil, err
		}
		out = append(out, &Entry{BlockedUser: *e, Profile: v})
	}
	return out, nil
}

func normalize(callerID, targetID string) (string, string, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return "", "", err
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return "", "", fmt.Errorf("target user is required: %w", infrastructure.ErrInvalidInput)
	}
	return callerID, targetID, nil
}
