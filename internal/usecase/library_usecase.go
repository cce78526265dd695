package usecase

import (
	"context"
	"time"

	"lumen/internal/domain/entity"

	"github.com/google/uuid"
)

// CreateShareLinkInput defines the data required to share an album.
type CreateShareLinkInput struct {
	OwnerID   int64
	AlbumID   int64
	Password  string     // Optional; empty creates an open link.
	ExpiresAt *time.Time // Optional; nil creates a link that never expires.
}

// LibraryUsecase defines the interface for browsing the reconciled library.
type LibraryUsecase interface {
	// Folders lists a user's folders, rooted or under a given parent.
	Folders(ctx context.Context, ownerID int64, parentID *int64) ([]*entity.Folder, error)

	// FolderMedia lists the media records inside a folder.
	FolderMedia(ctx context.Context, ownerID int64, folderID int64) ([]*entity.Media, error)

	// MediaPath resolves a media record to its absolute on-disk path by
	// walking the folder chain up to the gallery root.
	MediaPath(ctx context.Context, identity *Identity, mediaID int64) (string, error)

	// CreateAlbum creates an empty album owned by the user.
	CreateAlbum(ctx context.Context, ownerID int64, name string, description *string) (*entity.Album, error)

	// AlbumAddMedia attaches the user's media records to one of their
	// albums. Media already in the album is passed over.
	AlbumAddMedia(ctx context.Context, ownerID int64, albumID int64, mediaIDs []int64) error

	// CreateShareLink attaches a share link to an album the user owns.
	CreateShareLink(ctx context.Context, input CreateShareLinkInput) (*entity.AlbumShareLink, error)

	// ShareLinkQR renders a share link's public URL as a PNG QR code.
	ShareLinkQR(ctx context.Context, linkID uuid.UUID) ([]byte, error)
}
