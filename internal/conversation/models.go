package conversation

import (
	"time"

	"messenger/internal/profile"
)

// Conversation is a direct chat between two distinct users. The pair is
// stored sorted so that it is unique regardless of who started the chat.
type Conversation struct {
	ID                 string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	ParticipantA       string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_conversation_pair,priority:1" json:"-"`
	ParticipantB       string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_conversation_pair,priority:2;index" json:"-"`
	LastMessageAt      int64     `gorm:"index" json:"last_message_at"`
	LastMessagePreview *string   `json:"last_message_preview,omitempty"`
}

func (Conversation) TableName() string { return "conversations" }

func (c *Conversation) Participants() []string {
	return []string{c.ParticipantA, c.ParticipantB}
}

func (c *Conversation) HasParticipant(userID string) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}

// Summary is a conversation as seen by one of its participants.
type Summary struct {
	Conversation
	ParticipantIDs []string      `json:"participants"`
	OtherUser      *profile.View `json:"other_user"`
	UnreadCount    int           `json:"unread_count"`
}

type Group struct {
	ID                 string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	Name               string    `gorm:"not null" json:"name"`
	Description        *string   `json:"description,omitempty"`
	AvatarRef          *string   `json:"avatar_ref,omitempty"`
	CreatorID          string    `gorm:"type:varchar(64);not null" json:"creator_id"`
	LastMessageAt      int64     `gorm:"index" json:"last_message_at"`
	LastMessagePreview *string   `json:"last_message_preview,omitempty"`
}

func (Group) TableName() string { return "chat_groups" }

// GroupMember is one membership row. Position records join order and decides
// who is promoted when the last admin leaves.
type GroupMember struct {
	GroupID  string `gorm:"primaryKey;type:varchar(36)"`
	UserID   string `gorm:"primaryKey;type:varchar(64);index"`
	Position int64  `gorm:"not null"`
	IsAdmin  bool   `gorm:"not null;default:false"`
}

func (GroupMember) TableName() string { return "group_members" }

// GroupView is a group with its ordered member and admin lists.
type GroupView struct {
	Group
	Members     []string `json:"members"`
	Admins      []string `json:"admins"`
	MemberCount int      `json:"member_count"`
}

func newGroupView(g *Group, members []*GroupMember) *GroupView {
	v := &GroupView{Group: *g, Members: make([]string, 0, len(members)), Admins: []string{}}
	for _, m := range members {
		v.Members = append(v.Members, m.UserID)
		if m.IsAdmin {
			v.Admins = append(v.Admins, m.UserID)
		}
	}
	v.MemberCount = len(v.Members)
	return v
}

func (v *GroupView) IsMember(userID string) bool {
	for _, m := range v.Members {
		if m == userID {
			return true
		}
	}
	return false
}

func (v *GroupView) IsAdmin(userID string) bool {
	for _, a := range v.Admins {
		if a == userID {
			return true
		}
	}
	return false
}

type CreateGroupInput struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	MemberIDs   []string `json:"member_ids"`
}

// leavePlan is what happens to a group when one member leaves.
type leavePlan struct {
	member      bool
	deleteGroup bool
	promote     string
}

// planLeave decides the outcome of userID leaving a group whose members are
// given in join order. The earliest remaining member is promoted when no
// admin would remain.
func planLeave(members []*GroupMember, userID string) leavePlan {
	var plan leavePlan
	remaining := make([]*GroupMember, 0, len(members))
	for _, m := range members {
		if m.UserID == userID {
			plan.member = true
			continue
		}
		remaining = append(remaining, m)
	}
	if !plan.member {
		return plan
	}
	if len(remaining) == 0 {
		plan.deleteGroup = true
		return plan
	}
	for _, m := range remaining {
		if m.IsAdmin {
			return plan
		}
	}
	plan.promote = remaining[0].UserID
	return plan
}
