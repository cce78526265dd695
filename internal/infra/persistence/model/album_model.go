package model

import (
	"time"

	"github.com/google/uuid"
)

// AlbumModel mirrors the 'albums' table.
type AlbumModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:uuid_generate_v4()"`
	OwnerID     int64     `gorm:"not null;index"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Description *string   `gorm:"type:text"`
	CreatedAt   time.Time

	ShareLinks []AlbumShareLinkModel `gorm:"foreignKey:AlbumID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (AlbumModel) TableName() string {
	return "albums"
}

// AlbumShareLinkModel mirrors the 'album_share_links' table. The UUID is the
// public credential handed out to viewers.
type AlbumShareLinkModel struct {
	ID           int64      `gorm:"primaryKey;autoIncrement"`
	UUID         uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null;default:uuid_generate_v4()"`
	AlbumID      int64      `gorm:"not null;index"`
	PasswordHash *string    `gorm:"type:varchar(255)"`
	ExpiresAt    *time.Time `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (AlbumShareLinkModel) TableName() string {
	return "album_share_links"
}

// AlbumMediaModel mirrors the 'album_media' join table.
type AlbumMediaModel struct {
	AlbumID int64 `gorm:"primaryKey"`
	MediaID int64 `gorm:"primaryKey"`
}

// TableName explicitly sets the table name for GORM.
func (AlbumMediaModel) TableName() string {
	return "album_media"
}
