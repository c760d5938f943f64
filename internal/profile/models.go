package profile

import "time"

const DefaultName = "User"

// Profile is the public face of a user. There is at most one per UserID.
type Profile struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UserID        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"user_id"`
	Name          string    `gorm:"not null" json:"name"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `gorm:"index" json:"phone,omitempty"`
	Username      *string   `gorm:"index" json:"username,omitempty"`
	Bio           *string   `json:"bio,omitempty"`
	AvatarRef     *string   `json:"avatar_ref,omitempty"`
	LastSeen      int64     `json:"last_seen"`
	IsOnline      bool      `json:"is_online"`
	PhoneVerified *bool     `json:"phone_verified,omitempty"`
}

func (Profile) TableName() string { return "user_profiles" }

// View is a profile with its avatar reference resolved to a URL.
type View struct {
	Profile
	AvatarURL *string `json:"avatar_url"`
}

// UpdateInput holds the mutable profile fields. Nil fields are left as is.
type UpdateInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Username *string `json:"username"`
	Bio      *string `json:"bio"`
}

func (in UpdateInput) columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if in.Name != nil {
		cols["name"] = *in.Name
	}
	if in.Email != nil {
		cols["email"] = *in.Email
	}
	if in.Phone != nil {
		cols["phone"] = *in.Phone
	}
	if in.Username != nil {
		cols["username"] = *in.Username
	}
	if in.Bio != nil {
		cols["bio"] = *in.Bio
	}
	return cols
}
