package entity

import (
	"time"

	"github.com/google/uuid"
)

// Media maps one on-disk file into the store. (owner, folder, filename) is
// unique; rows are only ever added by the scanner, never auto-deleted, so a
// file removed from disk leaves an orphan row behind. A nil FolderID means
// the file sits directly in the user's gallery root.
type Media struct {
	ID          int64
	UUID        uuid.UUID
	OwnerID     int64
	FolderID    *int64
	Filename    string
	Width       int
	Height      int
	Description *string
	DateTaken   time.Time
	ContentHash *string // Uppercase hex SHA-512 of the file bytes; nil when hashing is disabled.
}
