package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"messenger/infrastructure"
	"messenger/internal/metrics"
	"messenger/internal/profile"
)

// Profiles resolves a user's public profile.
type Profiles interface {
	GetByUserID(ctx context.Context, userID string) (*profile.View, error)
}

type Service struct {
	repo     Repository
	profiles Profiles
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, profiles Profiles, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		logger:   logger.With().Str("component", "conversation").Logger(),
		now:      time.Now,
	}
}

// GetOrCreateDirect returns the one conversation between the caller and
// otherID, creating it on first contact. Argument order does not matter.
func (s *Service) GetOrCreateDirect(ctx context.Context, callerID, otherID string) (string, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return "", err
	}
	otherID = strings.TrimSpace(otherID)
	if otherID == "" || otherID == callerID {
		return "", fmt.Errorf("a direct conversation needs another user: %w", infrastructure.ErrInvalidInput)
	}

	a, b := callerID, otherID
	if b < a {
		a, b = b, a
	}
	c, err := s.repo.GetOrCreateDirect(ctx, a, b, s.now().UnixMilli())
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *Service) ListMine(ctx context.Context, callerID string) ([]*Summary, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return nil, err
	}
	convs, err := s.repo.ListDirect(ctx, callerID)
	if err != nil {
		return nil, err
	}

	out := make([]*Summary, 0, len(convs))
	for _, c := range convs {
		other, err := s.profiles.GetByUserID(ctx, c.Other(callerID))
		if err != nil && !errors.Is(err, infrastructure.ErrNotFound) {
			return nil, err
		}
		out = append(out, &Summary{
			Conversation:   *c,
			ParticipantIDs: c.Participants(),
			OtherUser:      other,
		})
	}
	return out, nil
}

// Get returns ErrNotFound when the conversation is missing or the caller is
// not a participant.
func (s *Service) Get(ctx context.Context, callerID, id string) (*Summary, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.GetDirect(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(callerID) {
		return nil, infrastructure.ErrNotFound
	}
	return &Summary{Conversation: *c, ParticipantIDs: c.Participants()}, nil
}

func (s *Service) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	c, err := s.repo.GetDirect(ctx, conversationID)
	if errors.Is(err, infrastructure.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.HasParticipant(userID), nil
}

// Participants returns both members of a direct conversation.
func (s *Service) Participants(ctx context.Context, conversationID string) ([]string, error) {
	c, err := s.repo.GetDirect(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return c.Participants(), nil
}

// CreateGroup makes the caller the sole admin and first member. Duplicate
// and blank member IDs are dropped.
func (s *Service) CreateGroup(ctx context.Context, callerID string, in CreateGroupInput) (string, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return "", err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", fmt.Errorf("group name is required: %w", infrastructure.ErrInvalidInput)
	}

	members := []string{callerID}
	seen := map[string]bool{callerID: true}
	for _, id := range in.MemberIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}

	g := &Group{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   in.Description,
		CreatorID:     callerID,
		LastMessageAt: s.now().UnixMilli(),
	}
	if err := s.repo.CreateGroup(ctx, g, members); err != nil {
		return "", err
	}
	metrics.GroupsCreated.Inc()
	s.logger.Info().Str("group_id", g.ID).Str("creator_id", callerID).Int("members", len(members)).Msg("group created")
	return g.ID, nil
}

// AddMember is restricted to group admins. Adding an existing member is a
// no-op.
func (s *Service) AddMember(ctx context.Context, callerID, groupID, userID string) error {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user is required: %w", infrastructure.ErrInvalidInput)
	}
	added, err := s.repo.AddGroupMember(ctx, groupID, callerID, userID)
	if err != nil {
		return err
	}
	if added {
		s.logger.Info().Str("group_id", groupID).Str("user_id", userID).Msg("group member added")
	}
	return nil
}

// LeaveGroup removes the caller. The group is deleted once empty, and the
// earliest remaining member is promoted when no admin is left. Leaving a
// missing group or one the caller is not in is a no-op.
func (s *Service) LeaveGroup(ctx context.Context, callerID, groupID string) error {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return err
	}
	plan, err := s.repo.LeaveGroup(ctx, groupID, callerID)
	if errors.Is(err, infrastructure.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !plan.member {
		return nil
	}
	event := s.logger.Info().Str("group_id", groupID).Str("user_id", callerID)
	switch {
	case plan.deleteGroup:
		event.Msg("last member left, group deleted")
	case plan.promote != "":
		event.Str("promoted", plan.promote).Msg("member left, admin promoted")
	default:
		event.Msg("member left")
	}
	return nil
}

func (s *Service) ListMyGroups(ctx context.Context, callerID string) ([]*GroupView, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListGroups(ctx, callerID)
}

// GetGroup returns ErrNotFound when the group is missing or the caller is not
// a member.
func (s *Service) GetGroup(ctx context.Context, callerID, groupID string) (*GroupView, error) {
	callerID, err := infrastructure.RequireCaller(callerID)
	if err != nil {
		return nil, err
	}
	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.IsMember(callerID) {
		return nil, infrastructure.ErrNotFound
	}
	return g, nil
}

func (s *Service) IsGroupMember(ctx context.Context, groupID, userID string) (bool, error) {
	return s.repo.IsGroupMember(ctx, groupID, userID)
}
