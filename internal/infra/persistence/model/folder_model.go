package model

import "github.com/google/uuid"

// FolderModel mirrors the 'folders' table. The composite unique index makes
// find-or-insert reconciliation safe against concurrent scans.
type FolderModel struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	UUID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:uuid_generate_v4()"`
	OwnerID  int64     `gorm:"not null;uniqueIndex:idx_folders_owner_parent_name"`
	ParentID *int64    `gorm:"uniqueIndex:idx_folders_owner_parent_name"`
	Name     string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_folders_owner_parent_name"`
}

// TableName explicitly sets the table name for GORM.
func (FolderModel) TableName() string {
	return "folders"
}
