package block

import (
	"time"

	"messenger/internal/profile"
)

// BlockedUser is a directed edge: UserID has blocked BlockedUserID.
type BlockedUser struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UserID        string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_block_pair,priority:1" json:"user_id"`
	BlockedUserID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_block_pair,priority:2;index" json:"blocked_user_id"`
}

func (BlockedUser) TableName() string { return "blocked_users" }

// Entry is one row of a block list joined with the blocked user's profile.
type Entry struct {
	BlockedUser
	Profile *profile.View `json:"profile"`
}
