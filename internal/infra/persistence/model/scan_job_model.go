package model

import (
	"time"

	"github.com/google/uuid"
)

// ScanJobModel mirrors the 'scan_jobs' table. Rows record reconciliation runs
// for polling after the triggering request returned.
type ScanJobModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     int64     `gorm:"not null;index"`
	State      string    `gorm:"type:varchar(16);not null"`
	FoldersNew int       `gorm:"not null;default:0"`
	MediaNew   int       `gorm:"not null;default:0"`
	Skipped    int       `gorm:"not null;default:0"`
	Error      *string   `gorm:"type:text"`
	StartedAt  time.Time `gorm:"not null;index"`
	FinishedAt *time.Time
}

// TableName explicitly sets the table name for GORM.
func (ScanJobModel) TableName() string {
	return "scan_jobs"
}
