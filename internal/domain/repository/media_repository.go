package repository

import (
	"context"

	"lumen/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrMediaNotFound is returned when a media record is not found.
var ErrMediaNotFound = errors.New("media not found")

// MediaRepository defines the interface for media persistence. The scanner
// relies on ExistsByOwnerFolderFilename to keep re-scans idempotent.
type MediaRepository interface {
	// Create persists a new media record and fills in its generated ID.
	Create(ctx context.Context, media *entity.Media) error

	// FindByID retrieves a single media record by its internal numeric ID.
	FindByID(ctx context.Context, id int64) (*entity.Media, error)

	// FindByFolderID retrieves all media records within a folder.
	FindByFolderID(ctx context.Context, ownerID int64, folderID int64) ([]*entity.Media, error)

	// FindByAlbumID retrieves all media records attached to an album.
	FindByAlbumID(ctx context.Context, albumID int64) ([]*entity.Media, error)

	// ExistsByOwnerFolderFilename reports whether the unique
	// (owner, folder, filename) triple is already present. A nil folderID
	// matches files at the gallery root.
	ExistsByOwnerFolderFilename(ctx context.Context, ownerID int64, folderID *int64, filename string) (bool, error)
}
