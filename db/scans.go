package db

import (
	"context"

	"flexgen/auth-api/internal/model"

	"github.com/google/uuid"
)

// InsertScan stores a scan and returns its new ID
func (s *Store) InsertScan(ctx context.Context, scan *model.ScanHistory) (string, error) {
	scan.ID = uuid.NewString()

	if scan.ScanStatus == "" {
		scan.ScanStatus = model.ScanStatusCompleted
	}

	if err := s.db.WithContext(ctx).Create(scan).Error; err != nil {
		return "", translate(err)
	}

	return scan.ID, nil
}

func (s *Store) CountScansByUser(ctx context.Context, userID string) (int64, error) {
	var n int64

	err := s.db.WithContext(ctx).
		Model(&model.ScanHistory{}).
		Where("user_id = ?", userID).
		Count(&n).
		Error

	return n, err
}

// ListScansByUser returns a page of scans, newest first
func (s *Store) ListScansByUser(ctx context.Context, userID string, limit, offset int) ([]model.ScanHistory, error) {
	scans := []model.ScanHistory{}

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&scans).
		Error
	if err != nil {
		return nil, err
	}

	return scans, nil
}
