package repository

import (
	"context"

	"lumen/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrFolderNotFound is returned when a folder is not found.
var ErrFolderNotFound = errors.New("folder not found")

// FolderRepository defines the interface for folder persistence. The scanner
// relies on FindByOwnerParentName plus the (owner, parent, name) unique
// constraint for its find-or-insert reconciliation.
type FolderRepository interface {
	// Create persists a new folder and fills in its generated ID.
	Create(ctx context.Context, folder *entity.Folder) error

	// FindByID retrieves a single folder by its internal numeric ID.
	FindByID(ctx context.Context, id int64) (*entity.Folder, error)

	// FindByOwnerParentName retrieves the folder identified by the unique
	// (owner, parent, name) triple. A nil parentID addresses root folders.
	FindByOwnerParentName(ctx context.Context, ownerID int64, parentID *int64, name string) (*entity.Folder, error)

	// FindByOwnerID retrieves all folders belonging to a user.
	FindByOwnerID(ctx context.Context, ownerID int64) ([]*entity.Folder, error)

	// FindChildren retrieves the direct children of a folder.
	FindChildren(ctx context.Context, ownerID int64, parentID int64) ([]*entity.Folder, error)
}
