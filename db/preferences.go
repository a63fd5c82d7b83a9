package db

import (
	"context"
	"time"

	"flexgen/auth-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InsertDefaultPreferences creates the default preferences row. Inside
// WithTx it runs in a savepoint, so callers may ignore the error without
// poisoning the surrounding transaction.
func (s *Store) InsertDefaultPreferences(ctx context.Context, userID string) error {
	prefs := model.DefaultPreferences(userID)
	prefs.ID = uuid.NewString()

	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(prefs).Error
	}))
}

func (s *Store) GetPreferences(ctx context.Context, userID string) (*model.UserPreferences, error) {
	var prefs model.UserPreferences

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&prefs).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &prefs, nil
}

// UpdatePreferences replaces every preference field, creating the row
// when the account has none yet
func (s *Store) UpdatePreferences(ctx context.Context, userID string, p *model.UserPreferences) error {
	row := *p
	row.ID = uuid.NewString()
	row.UserID = userID
	row.UpdatedAt = time.Now()

	return translate(s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"email_notifications",
				"security_alerts",
				"marketing_emails",
				"theme",
				"language",
				"timezone",
				"updated_at",
			}),
		}).
		Create(&row).
		Error)
}
