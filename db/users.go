package db

import (
	"context"
	"time"

	"flexgen/auth-api/internal/model"

	"github.com/google/uuid"
)

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User

	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", email, true).
		First(&user).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User

	err := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&user).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &user, nil
}

// FindUserByEmailOrProviderID resolves a federated identity. A matching
// email wins over a different provider, which links accounts by email.
func (s *Store) FindUserByEmailOrProviderID(ctx context.Context, email, provider, providerID string) (*model.User, error) {
	var user model.User

	err := s.db.WithContext(ctx).
		Where("is_active = ? AND (email = ? OR (provider = ? AND provider_id = ?))", true, email, provider, providerID).
		Order("created_at ASC").
		First(&user).
		Error
	if err != nil {
		return nil, translate(err)
	}

	return &user, nil
}

// EmailTaken reports whether any account, active or not, owns the email
func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64

	err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", email).
		Count(&n).
		Error
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// InsertUser creates u, assigning a random ID when none is set. A taken
// email fails with ErrConstraintViolation.
func (s *Store) InsertUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	if u.Provider == "" {
		u.Provider = model.ProviderLocal
	}

	u.IsActive = true

	return translate(s.db.WithContext(ctx).Omit("Preferences", "Scans", "Sessions").Create(u).Error)
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login", time.Now()).
		Error
}

type ProfileUpdate struct {
	FirstName string
	LastName  string
	Avatar    *string
}

// UpdateProfile overwrites the display fields of an active user
func (s *Store) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) error {
	r := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND is_active = ?", userID, true).
		Updates(map[string]any{
			"first_name": p.FirstName,
			"last_name":  p.LastName,
			"avatar":     p.Avatar,
			"updated_at": time.Now(),
		})
	if r.Error != nil {
		return translate(r.Error)
	}

	if r.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
