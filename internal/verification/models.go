package verification

import "time"

const (
	CodeTTL     = 10 * time.Minute
	MaxAttempts = 5
)

// PhoneVerification is the single outstanding code for a user. Only a bcrypt
// hash of the code is stored.
type PhoneVerification struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time
	UserID    string `gorm:"type:varchar(64);not null;uniqueIndex"`
	Phone     string `gorm:"type:varchar(32);not null"`
	CodeHash  string `gorm:"not null"`
	ExpiresAt int64  `gorm:"not null"`
	Attempts  int    `gorm:"not null;default:0"`
	Verified  bool   `gorm:"not null;default:false"`
}

func (PhoneVerification) TableName() string { return "phone_verifications" }

// Result is reported back to the user verbatim.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

const (
	msgSent        = "Verification code sent successfully"
	msgSendFailed  = "Failed to send verification code. Please try again."
	msgNoCode      = "No verification code found. Please request a new code."
	msgExpired     = "Verification code has expired. Please request a new code."
	msgInvalid     = "Invalid verification code. Please try again."
	msgTooMany     = "Too many failed attempts. Please request a new code."
	msgVerified    = "Phone number verified successfully!"
	devModeMessage = "Development mode: Your code is %s"
	smsBody        = "Your verification code is: %s. This code expires in 10 minutes."
)
