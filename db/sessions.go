package db

import (
	"context"
	"time"

	"flexgen/auth-api/internal/model"

	"github.com/google/uuid"
)

func (s *Store) InsertSession(ctx context.Context, sess *model.UserSession) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}

	return translate(s.db.WithContext(ctx).Create(sess).Error)
}

// RevokeSession marks the user's session identified by digest as revoked.
// Revoking an unknown or already revoked session is not an error.
func (s *Store) RevokeSession(ctx context.Context, userID, digest string) error {
	return s.db.WithContext(ctx).
		Model(&model.UserSession{}).
		Where("user_id = ? AND session_token = ? AND revoked_at IS NULL", userID, digest).
		Update("revoked_at", time.Now()).
		Error
}

// SessionActive reports whether the session exists, isn't revoked and
// hasn't expired yet
func (s *Store) SessionActive(ctx context.Context, digest string) (bool, error) {
	var n int64

	err := s.db.WithContext(ctx).
		Model(&model.UserSession{}).
		Where("session_token = ? AND revoked_at IS NULL AND expires_at > ?", digest, time.Now()).
		Count(&n).
		Error
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// DeleteExpiredSessions removes sessions that expired before t and returns
// how many were removed
func (s *Store) DeleteExpiredSessions(ctx context.Context, t time.Time) (int64, error) {
	r := s.db.WithContext(ctx).
		Where("expires_at < ?", t).
		Delete(&model.UserSession{})

	return r.RowsAffected, r.Error
}
