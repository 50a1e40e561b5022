package model

import (
	"time"

	"github.com/google/uuid"
)

type OTPPurpose string

const (
	PurposeEmailVerification OTPPurpose = "email-verification"
	PurposePasswordReset     OTPPurpose = "password-reset"
	PurposeLogin             OTPPurpose = "login"
)

func (p OTPPurpose) Valid() bool {
	return p == PurposeEmailVerification || p == PurposePasswordReset || p == PurposeLogin
}

// OTP is a single-use code scoped to an email and purpose. Only the bcrypt hash of the code is kept.
type OTP struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email     string     `gorm:"type:varchar(255);not null;index:idx_otp_email_purpose" json:"email"`
	Purpose   OTPPurpose `gorm:"type:varchar(30);not null;index:idx_otp_email_purpose" json:"purpose"`
	CodeHash  string     `gorm:"type:varchar(255);not null" json:"-"`
	Attempts  int        `gorm:"not null;default:0" json:"attempts"`
	IsUsed    bool       `gorm:"not null;default:false" json:"is_used"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
