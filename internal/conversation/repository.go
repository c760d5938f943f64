package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"messenger/infrastructure"
)

type Repository interface {
	GetOrCreateDirect(ctx context.Context, a, b string, at int64) (*Conversation, error)
	GetDirect(ctx context.Context, id string) (*Conversation, error)
	ListDirect(ctx context.Context, userID string) ([]*Conversation, error)

	CreateGroup(ctx context.Context, g *Group, memberIDs []string) error
	GetGroup(ctx context.Context, id string) (*GroupView, error)
	AddGroupMember(ctx context.Context, groupID, actorID, userID string) (bool, error)
	LeaveGroup(ctx context.Context, groupID, userID string) (leavePlan, error)
	ListGroups(ctx context.Context, userID string) ([]*GroupView, error)
	IsGroupMember(ctx context.Context, groupID, userID string) (bool, error)

	RecordDirectMessage(tx *gorm.DB, id string, at int64, preview string) error
	RecordGroupMessage(tx *gorm.DB, id string, at int64, preview string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// GetOrCreateDirect expects a < b. The unique pair index arbitrates between
// concurrent creators. A new conversation starts with last_message_at = at.
func (r *repository) GetOrCreateDirect(ctx context.Context, a, b string, at int64) (*Conversation, error) {
	var c Conversation
	err := infrastructure.WithTransaction(r.db, ctx, func(tx *gorm.DB) error {
		err := tx.Where("participant_a = ? AND participant_b = ?", a, b).Take(&c).Error
		if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		err = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&Conversation{
			ID:            uuid.NewString(),
			ParticipantA:  a,
			ParticipantB:  b,
			LastMessageAt: at,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
		return tx.Where("participant_a = ? AND participant_b = ?", a, b).Take(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetDirect(ctx context.Context, id string) (*Conversation, error) {
	var c Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&c).Error; err != nil {
		return nil, infrastructure.NotFound(err)
	}
	return &c, nil
}

func (r *repository) ListDirect(ctx context.Context, userID string) ([]*Conversation, error) {
	var out []*Conversation
	err := r.db.WithContext(ctx).
		Where("participant_a = ? OR participant_b = ?", userID, userID).
		Order("last_message_at DESC, created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return out, nil
}

// CreateGroup stores g with memberIDs in join order. The first member is the
// only admin.
func (r *repository) CreateGroup(ctx context.Context, g *Group, memberIDs []string) error {
	return infrastructure.WithTransaction(r.db, ctx, func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}
		members := make([]*GroupMember, 0, len(memberIDs))
		for i, id := range memberIDs {
			members = append(members, &GroupMember{
				GroupID:  g.ID,
				UserID:   id,
				Position: int64(i),
				IsAdmin:  i == 0,
			})
		}
		if err := tx.Create(&members).Error; err != nil {
			return fmt.Errorf("failed to add group members: %w", err)
		}
		return nil
	})
}

func (r *repository) GetGroup(ctx context.Context, id string) (*GroupView, error) {
	tx := r.db.WithContext(ctx)
	var g Group
	if err := tx.Where("id = ?", id).Take(&g).Error; err != nil {
		return nil, infrastructure.NotFound(err)
	}
	members, err := loadMembers(tx, id)
	if err != nil {
		return nil, err
	}
	return newGroupView(&g, members), nil
}

// AddGroupMember appends userID to the group if actorID is an admin. It
// reports whether a row was added.
func (r *repository) AddGroupMember(ctx context.Context, groupID, actorID, userID string) (bool, error) {
	added := false
	err := infrastructure.WithTransaction(r.db, ctx, func(tx *gorm.DB) error {
		var g Group
		if err := infrastructure.ForUpdate(tx).Where("id = ?", groupID).Take(&g).Error; err != nil {
			return infrastructure.NotFound(err)
		}
		members, err := loadMembers(tx, groupID)
		if err != nil {
			return err
		}
		view := newGroupView(&g, members)
		if !view.IsAdmin(actorID) {
			return fmt.Errorf("only group admins can add members: %w", infrastructure.ErrForbidden)
		}
		if view.IsMember(userID) {
			return nil
		}

		next := int64(0)
		if n := len(members); n > 0 {
			next = members[n-1].Position + 1
		}
		if err := tx.Create(&GroupMember{GroupID: groupID, UserID: userID, Position: next}).Error; err != nil {
			return fmt.Errorf("failed to add group member: %w", err)
		}
		added = true
		return nil
	})
	return added, err
}

func (r *repository) LeaveGroup(ctx context.Context, groupID, userID string) (leavePlan, error) {
	var plan leavePlan
	err := infrastructure.WithTransaction(r.db, ctx, func(tx *gorm.DB) error {
		var g Group
		if err := infrastructure.ForUpdate(tx).Where("id = ?", groupID).Take(&g).Error; err != nil {
			return infrastructure.NotFound(err)
		}
		members, err := loadMembers(tx, groupID)
		if err != nil {
			return err
		}
		plan = planLeave(members, userID)
		if !plan.member {
			return nil
		}

		err = tx.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&GroupMember{}).Error
		if err != nil {
			return fmt.Errorf("failed to remove group member: %w", err)
		}
		switch {
		case plan.deleteGroup:
			if err := tx.Where("id = ?", groupID).Delete(&Group{}).Error; err != nil {
				return fmt.Errorf("failed to delete group: %w", err)
			}
		case plan.promote != "":
			err := tx.Model(&GroupMember{}).
				Where("group_id = ? AND user_id = ?", groupID, plan.promote).
				Update("is_admin", true).Error
			if err != nil {
				return fmt.Errorf("failed to promote group member: %w", err)
			}
		}
		return nil
	})
	return plan, err
}

func (r *repository) ListGroups(ctx context.Context, userID string) ([]*GroupView, error) {
	tx := r.db.WithContext(ctx)
	var groups []*Group
	err := tx.
		Where("id IN (?)", tx.Model(&GroupMember{}).Select("group_id").Where("user_id = ?", userID)).
		Order("last_message_at DESC, created_at DESC").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	if len(groups) == 0 {
		return []*GroupView{}, nil
	}

	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	var members []*GroupMember
	err = tx.Where("group_id IN ?", ids).Order("group_id, position, user_id").Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}
	byGroup := make(map[string][]*GroupMember, len(groups))
	for _, m := range members {
		byGroup[m.GroupID] = append(byGroup[m.GroupID], m)
	}

	out := make([]*GroupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, newGroupView(g, byGroup[g.ID]))
	}
	return out, nil
}

func (r *repository) IsGroupMember(ctx context.Context, groupID, userID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *repository) RecordDirectMessage(tx *gorm.DB, id string, at int64, preview string) error {
	return tx.Model(&Conversation{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_message_at":      at,
		"last_message_preview": preview,
	}).Error
}

func (r *repository) RecordGroupMessage(tx *gorm.DB, id string, at int64, preview string) error {
	return tx.Model(&Group{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_message_at":      at,
		"last_message_preview": preview,
	}).Error
}

func loadMembers(tx *gorm.DB, groupID string) ([]*GroupMember, error) {
	var members []*GroupMember
	err := tx.Where("group_id = ?", groupID).Order("position, user_id").Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}
	return members, nil
}
