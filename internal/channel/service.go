package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"messenger/infrastructure"
	"messenger/internal/metrics"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "channel").Logger(),
		now:    time.Now,
	}
}

// Create registers a channel under a unique username. Returns
// ErrUsernameTaken when the handle is in use.
func (s *Service) Create(ctx context.Context, callerID string, in CreateInput) (string, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(in.Name)
	username := strings.TrimSpace(in.Username)
	if name == "" || username == "" {
		return "", fmt.Errorf("channel name and username are required: %w", infrastructure.ErrInvalidInput)
	}

	c := &Channel{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   in.Description,
		Username:      username,
		CreatorID:     callerID,
		IsPublic:      in.IsPublic,
		LastMessageAt: s.now().UnixMilli(),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return "", err
	}
	metrics.ChannelsCreated.Inc()
	s.logger.Info().Str("channel_id", c.ID).Str("username", username).Str("creator_id", callerID).Msg("channel created")
	return c.ID, nil
}

// Subscribe is idempotent.
func (s *Service) Subscribe(ctx context.Context, callerID, channelID string) error {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return err
	}
	added, err := s.repo.Subscribe(ctx, channelID, callerID)
	if err != nil {
		return err
	}
	if added {
		s.logger.Debug().Str("channel_id", channelID).Str("user_id", callerID).Msg("subscribed")
	}
	return nil
}

// Unsubscribe is idempotent. Admins may unsubscribe and stay admins.
func (s *Service) Unsubscribe(ctx context.Context, callerID, channelID string) error {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return err
	}
	_, err = s.repo.Unsubscribe(ctx, channelID, callerID)
	return err
}

// SearchPublic matches public channels by name or username.
func (s *Service) SearchPublic(ctx context.Context, query string) ([]*Channel, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*Channel{}, nil
	}
	return s.repo.SearchPublic(ctx, query, infrastructure.SearchLimit)
}

// ListMine returns the channels the caller is subscribed to, most recently
// active first.
func (s *Service) ListMine(ctx context.Context, callerID string) ([]*View, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return nil, err
	}
	channels, err := s.repo.ListSubscribed(ctx, callerID)
	if err != nil {
		return nil, err
	}
	adminOf, err := s.repo.AdminChannelIDs(ctx, callerID)
	if err != nil {
		return nil, err
	}

	out := make([]*View, 0, len(channels))
	for _, c := range channels {
		admins, err := s.repo.Admins(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &View{
			Channel:      *c,
			Admins:       admins,
			IsAdmin:      adminOf[c.ID],
			IsSubscribed: true,
		})
	}
	return out, nil
}

// Get returns ErrNotFound for a missing channel.
func (s *Service) Get(ctx context.Context, callerID, channelID string) (*View, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, channelID)
	if err != nil {
		return nil, err
	}
	admins, err := s.repo.Admins(ctx, channelID)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.repo.IsSubscribed(ctx, channelID, callerID)
	if err != nil {
		return nil, err
	}

	v := &View{Channel: *c, Admins: admins, IsSubscribed: subscribed}
	for _, a := range admins {
		if a == callerID {
			v.IsAdmin = true
		}
	}
	return v, nil
}

func (s *Service) IsAdmin(ctx context.Context, channelID, userID string) (bool, error) {
	return s.repo.IsAdmin(ctx, channelID, userID)
}

// CanRead reports whether userID may read the channel feed: public channels
// are open, private ones need a subscription or admin role.
func (s *Service) CanRead(ctx context.Context, channelID, userID string) (bool, error) {
	c, err := s.repo.Get(ctx, channelID)
	if err != nil {
		return false, err
	}
	if c.IsPublic {
		return true, nil
	}
	if ok, err := s.repo.IsSubscribed(ctx, channelID, userID); err != nil || ok {
		return ok, err
	}
	return s.repo.IsAdmin(ctx, channelID, userID)
}
