package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"messenger/infrastructure"
	"messenger/internal/storage"
)

type Service struct {
	repo    Repository
	storage storage.ObjectStorage
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, objects storage.ObjectStorage, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		storage: objects,
		logger:  logger.With().Str("component", "profile").Logger(),
		now:     time.Now,
	}
}

// GetOrCreate returns the caller's profile, creating it with defaults on
// first use. Concurrent first calls converge on one row.
func (s *Service) GetOrCreate(ctx context.Context, callerID string) (*Profile, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByUserID(ctx, callerID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, infrastructure.ErrNotFound) {
		return nil, err
	}

	verified := false
	p, err := s.repo.CreateIfAbsent(ctx, &Profile{
		ID:            uuid.NewString(),
		UserID:        callerID,
		Name:          DefaultName,
		PhoneVerified: &verified,
		IsOnline:      true,
		LastSeen:      s.now().UnixMilli(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", callerID).Str("profile_id", p.ID).Msg("profile ready")
	return p, nil
}

// Update patches the caller's profile and marks the caller online. A caller
// without a profile is a no-op.
func (s *Service) Update(ctx context.Context, callerID string, in UpdateInput) error {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return fmt.Errorf("name must not be empty: %w", infrastructure.ErrInvalidInput)
	}

	cols := in.columns()
	cols["is_online"] = true
	cols["last_seen"] = s.now().UnixMilli()

	found, err := s.repo.Update(ctx, callerID, cols)
	if err != nil {
		return err
	}
	if !found {
		s.logger.Debug().Str("user_id", callerID).Msg("update skipped, no profile")
	}
	return nil
}

// SetPresence flips the online flag and refreshes last seen.
func (s *Service) SetPresence(ctx context.Context, callerID string, online bool) error {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return err
	}
	_, err = s.repo.Update(ctx, callerID, map[string]interface{}{
		"is_online": online,
		"last_seen": s.now().UnixMilli(),
	})
	return err
}

// Search matches name or username case-insensitively, excluding the caller.
func (s *Service) Search(ctx context.Context, callerID, query string) ([]*View, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []*View{}, nil
	}

	found, err := s.repo.Search(ctx, callerID, query, infrastructure.SearchLimit)
	if err != nil {
		return nil, err
	}
	out := make([]*View, 0, len(found))
	for _, p := range found {
		v, err := s.view(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) GetMine(ctx context.Context, callerID string) (*View, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return nil, err
	}
	return s.GetByUserID(ctx, callerID)
}

// GetByUserID returns ErrNotFound when the user has no profile.
func (s *Service) GetByUserID(ctx context.Context, userID string) (*View, error) {
	p, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

func (s *Service) GenerateUploadURL(ctx context.Context, callerID string) (*storage.UploadTarget, error) {
	if _, err := infrastructure.RequireCaller(callerID); err != nil {
		return nil, err
	}
	return s.storage.GenerateUploadTarget(ctx)
}

// UpdateAvatar points the caller's avatar at ref and deletes the object it
// replaces.
func (s *Service) UpdateAvatar(ctx context.Context, callerID, ref string) error {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fmt.Errorf("avatar reference is required: %w", infrastructure.ErrInvalidInput)
	}

	old, err := s.repo.SwapAvatar(ctx, callerID, &ref)
	if err != nil {
		return err
	}
	if old != nil && *old != ref {
		s.deleteObject(ctx, *old)
	}
	return nil
}

func (s *Service) RemoveAvatar(ctx context.Context, callerID string) error {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return err
	}
	old, err := s.repo.SwapAvatar(ctx, callerID, nil)
	if err != nil {
		return err
	}
	if old != nil {
		s.deleteObject(ctx, *old)
	}
	return nil
}

// deleteObject is best effort; the reference is already detached.
func (s *Service) deleteObject(ctx context.Context, ref string) {
	if err := s.storage.Delete(ctx, ref); err != nil {
		s.logger.Warn().Err(err).Str("ref", ref).Msg("failed to delete replaced avatar")
	}
}

func (s *Service) view(ctx context.Context, p *Profile) (*View, error) {
	v := &View{Profile: *p}
	if p.AvatarRef == nil || *p.AvatarRef == "" {
		return v, nil
	}
	u, err := s.storage.ResolveURL(ctx, *p.AvatarRef)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return v, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve avatar: %w", err)
	}
	v.AvatarURL = &u
	return v, nil
}
