package model

import (
	"time"

	"github.com/google/uuid"
)

// MediaModel mirrors the 'media' table. (owner, folder, filename) is unique
// so re-scans never duplicate rows. FolderID is null for files sitting
// directly in the user's gallery root.
type MediaModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:uuid_generate_v4()"`
	OwnerID     int64     `gorm:"not null;uniqueIndex:idx_media_owner_folder_filename"`
	FolderID    *int64    `gorm:"uniqueIndex:idx_media_owner_folder_filename"`
	Filename    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_media_owner_folder_filename"`
	Width       int       `gorm:"not null;default:0"`
	Height      int       `gorm:"not null;default:0"`
	Description *string   `gorm:"type:text"`
	DateTaken   time.Time `gorm:"not null"`
	ContentHash *string   `gorm:"type:char(128)"`
}

// TableName explicitly sets the table name for GORM.
func (MediaModel) TableName() string {
	return "media"
}
