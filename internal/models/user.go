package models

import "time"

// User represents a KPR applicant account.
type User struct {
	Base
	FullName            string     `gorm:"not null" json:"full_name"`
	PhoneNumber         string     `gorm:"size:16" json:"phone_number"`
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Password            string     `gorm:"not null" json:"-"`
	EmailVerifiedAt     *time.Time `json:"email_verified_at,omitempty"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}

// IsVerified reports whether the user confirmed their email.
func (u *User) IsVerified() bool { return u.EmailVerifiedAt != nil }
