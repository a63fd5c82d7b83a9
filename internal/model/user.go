// Package model defines database models
package model

import "time"

const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// User is an account that signed up locally or through an OAuth provider.
// Secrets never leave the server: they are excluded from JSON so every
// response carrying a User is redacted by construction.
type User struct {
	ID       string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email    string  `gorm:"uniqueIndex;not null" json:"email"`
	Password *string `json:"-"` // Only set for local accounts

	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Avatar    *string `json:"avatar"`

	Provider   string  `gorm:"not null;default:local;index:idx_users_provider" json:"provider"`
	ProviderID *string `gorm:"index:idx_users_provider" json:"providerId"`

	IsEmailVerified        bool       `gorm:"not null;default:false" json:"isEmailVerified"`
	EmailVerificationToken *string    `json:"-"`
	ResetPasswordToken     *string    `json:"-"`
	ResetPasswordExpires   *time.Time `json:"-"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	LastLogin *time.Time `json:"lastLogin"`
	IsActive  bool       `gorm:"not null;default:true;index" json:"isActive"`

	Preferences *UserPreferences `gorm:"foreignKey:UserID" json:"-"`
	Scans       []ScanHistory    `gorm:"foreignKey:UserID" json:"-"`
	Sessions    []UserSession    `gorm:"foreignKey:UserID" json:"-"`
}
