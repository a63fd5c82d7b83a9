package model

import "time"

// UserSession records an issued bearer token by its ID (the jti claim).
// The token itself is never stored.
type UserSession struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)"`
	UserID       string     `gorm:"not null;index"`
	SessionToken string     `gorm:"not null;uniqueIndex"`
	ExpiresAt    time.Time  `gorm:"not null;index"`
	IPAddress    string     `gorm:"size:64"`
	UserAgent    string     `gorm:"size:512"`
	CreatedAt    time.Time
	RevokedAt    *time.Time
}
