package model

import "time"

const (
	DefaultTheme    = "light"
	DefaultLanguage = "en"
	DefaultTimezone = "UTC"
)

type UserPreferences struct {
	ID     string `gorm:"primaryKey;type:varchar(36)" json:"-"`
	UserID string `gorm:"uniqueIndex;not null" json:"-"`

	// No column defaults on the flags: gorm would swap a false for the
	// default on insert. DefaultPreferences sets them instead.
	EmailNotifications bool   `gorm:"not null" json:"emailNotifications"`
	SecurityAlerts     bool   `gorm:"not null" json:"securityAlerts"`
	MarketingEmails    bool   `gorm:"not null" json:"marketingEmails"`
	Theme              string `gorm:"not null;default:light" json:"theme"`
	Language           string `gorm:"not null;default:en" json:"language"`
	Timezone           string `gorm:"not null;default:UTC" json:"timezone"`

	UpdatedAt time.Time `json:"updatedAt"`
}

func (UserPreferences) TableName() string {
	return "user_preferences"
}

// DefaultPreferences returns the preferences every new account starts with
func DefaultPreferences(userID string) *UserPreferences {
	return &UserPreferences{
		UserID:             userID,
		EmailNotifications: true,
		SecurityAlerts:     true,
		MarketingEmails:    false,
		Theme:              DefaultTheme,
		Language:           DefaultLanguage,
		Timezone:           DefaultTimezone,
	}
}
