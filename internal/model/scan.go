package model

import "time"

const ScanStatusCompleted = "completed"

// ScanHistory is a single tool run saved by its owner. Rows are written
// once and never updated.
type ScanHistory struct {
	ID     string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID string `gorm:"not null;index:idx_scan_history_user_created,priority:1" json:"userId"`

	ScanType     string  `gorm:"not null" json:"scanType"`
	TargetURL    *string `json:"targetUrl"`
	TargetIP     *string `json:"targetIp"`
	ScanResults  JSON    `json:"scanResults"`
	ScanStatus   string  `gorm:"not null;default:completed" json:"scanStatus"`
	RiskLevel    *string `json:"riskLevel"`
	ThreatsFound int     `gorm:"not null;default:0" json:"threatsFound"`
	ScanDuration *int64  `json:"scanDuration"` // Milliseconds

	CreatedAt time.Time `gorm:"index:idx_scan_history_user_created,priority:2" json:"createdAt"`
}

func (ScanHistory) TableName() string {
	return "scan_history"
}
