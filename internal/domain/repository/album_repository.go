package repository

import (
	"context"

	"lumen/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Domain-specific errors for album persistence.
var (
	// ErrAlbumNotFound is returned when an album is not found.
	ErrAlbumNotFound = errors.New("album not found")
	// ErrShareLinkNotFound is returned when a share link is not found.
	ErrShareLinkNotFound = errors.New("share link not found")
)

// AlbumRepository defines the interface for album persistence.
type AlbumRepository interface {
	// Create persists a new album and fills in its generated ID.
	Create(ctx context.Context, album *entity.Album) error

	// FindByID retrieves a single album by its internal numeric ID.
	FindByID(ctx context.Context, id int64) (*entity.Album, error)

	// FindByOwnerID retrieves all albums belonging to a user.
	FindByOwnerID(ctx context.Context, ownerID int64) ([]*entity.Album, error)

	// AddMedia attaches a media record to an album. Attaching media that is
	// already present fails with gorm.ErrDuplicatedKey.
	AddMedia(ctx context.Context, albumID int64, mediaID int64) error
}

// ShareLinkRepository defines the interface for album share link persistence.
// Links are looked up by UUID on every share-authenticated request.
type ShareLinkRepository interface {
	// Create persists a new share link and fills in its generated ID.
	Create(ctx context.Context, link *entity.AlbumShareLink) error

	// FindByUUID retrieves a share link by its public identifier.
	FindByUUID(ctx context.Context, id uuid.UUID) (*entity.AlbumShareLink, error)

	// FindByAlbumID retrieves all share links attached to an album.
	FindByAlbumID(ctx context.Context, albumID int64) ([]*entity.AlbumShareLink, error)

	// Delete removes a share link by its internal numeric ID.
	Delete(ctx context.Context, id int64) error
}
