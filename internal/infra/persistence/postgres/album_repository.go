// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"lumen/internal/domain/entity"
	domainerrors "lumen/internal/domain/errors"
	"lumen/internal/domain/repository"
	"lumen/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// albumRepository implements the repository.AlbumRepository interface.
type albumRepository struct {
	db *gorm.DB
}

// NewAlbumRepository is the constructor for albumRepository.
func NewAlbumRepository(db *gorm.DB) repository.AlbumRepository {
	return &albumRepository{db: db}
}

// Create persists a new album.
func (repo *albumRepository) Create(ctx context.Context, album *entity.Album) error {
	albumM := fromAlbumDomain(album)

	if err := repo.db.WithContext(ctx).Create(albumM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create album")
	}

	album.ID = albumM.ID
	album.UUID = albumM.UUID
	album.CreatedAt = albumM.CreatedAt

	return nil
}

// FindByID retrieves a single album by its internal numeric ID.
func (repo *albumRepository) FindByID(ctx context.Context, id int64) (*entity.Album, error) {
	var albumM model.AlbumModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&albumM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAlbumNotFound
		}

		return nil, errors.Wrap(err, "failed to find album by id")
	}

	return toAlbumDomain(&albumM), nil
}

// FindByOwnerID retrieves all albums belonging to a user.
func (repo *albumRepository) FindByOwnerID(ctx context.Context, ownerID int64) ([]*entity.Album, error) {
	var albumModels []*model.AlbumModel

	if err := repo.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&albumModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find albums by owner")
	}

	albums := make([]*entity.Album, 0, len(albumModels))
	for _, albumM := range albumModels {
		albums = append(albums, toAlbumDomain(albumM))
	}

	return albums, nil
}

// AddMedia attaches a media record to an album via the album_media join table.
func (repo *albumRepository) AddMedia(ctx context.Context, albumID int64, mediaID int64) error {
	link := &model.AlbumMediaModel{AlbumID: albumID, MediaID: mediaID}

	if err := repo.db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return gorm.ErrDuplicatedKey
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to attach media to album")
	}

	return nil
}

// shareLinkRepository implements the repository.ShareLinkRepository interface.
type shareLinkRepository struct {
	db *gorm.DB
}

// NewShareLinkRepository is the constructor for shareLinkRepository.
func NewShareLinkRepository(db *gorm.DB) repository.ShareLinkRepository {
	return &shareLinkRepository{db: db}
}

// Create persists a new share link.
func (repo *shareLinkRepository) Create(ctx context.Context, link *entity.AlbumShareLink) error {
	linkM := fromShareLinkDomain(link)

	if err := repo.db.WithContext(ctx).Create(linkM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create share link")
	}

	link.ID = linkM.ID
	link.UUID = linkM.UUID

	return nil
}

// FindByUUID retrieves a share link by its public identifier.
func (repo *shareLinkRepository) FindByUUID(ctx context.Context, id uuid.UUID) (*entity.AlbumShareLink, error) {
	var linkM model.AlbumShareLinkModel

	if err := repo.db.WithContext(ctx).
		Where("uuid = ?", id).
		First(&linkM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrShareLinkNotFound
		}

		return nil, errors.Wrap(err, "failed to find share link by uuid")
	}

	return toShareLinkDomain(&linkM), nil
}

// FindByAlbumID retrieves all share links attached to an album.
func (repo *shareLinkRepository) FindByAlbumID(ctx context.Context, albumID int64) ([]*entity.AlbumShareLink, error) {
	var linkModels []*model.AlbumShareLinkModel

	if err := repo.db.WithContext(ctx).
		Where("album_id = ?", albumID).
		Find(&linkModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find share links by album")
	}

	links := make([]*entity.AlbumShareLink, 0, len(linkModels))
	for _, linkM := range linkModels {
		links = append(links, toShareLinkDomain(linkM))
	}

	return links, nil
}

// Delete removes a share link by its internal numeric ID.
func (repo *shareLinkRepository) Delete(ctx context.Context, id int64) error {
	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.AlbumShareLinkModel{}).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete share link")
	}

	return nil
}

func toAlbumDomain(m *model.AlbumModel) *entity.Album {
	return &entity.Album{
		ID:          m.ID,
		UUID:        m.UUID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

func fromAlbumDomain(a *entity.Album) *model.AlbumModel {
	return &model.AlbumModel{
		ID:          a.ID,
		UUID:        a.UUID,
		OwnerID:     a.OwnerID,
		Name:        a.Name,
		Description: a.Description,
	}
}

func toShareLinkDomain(m *model.AlbumShareLinkModel) *entity.AlbumShareLink {
	return &entity.AlbumShareLink{
		ID:           m.ID,
		UUID:         m.UUID,
		AlbumID:      m.AlbumID,
		PasswordHash: m.PasswordHash,
		ExpiresAt:    m.ExpiresAt,
	}
}

func fromShareLinkDomain(l *entity.AlbumShareLink) *model.AlbumShareLinkModel {
	return &model.AlbumShareLinkModel{
		ID:           l.ID,
		UUID:         l.UUID,
		AlbumID:      l.AlbumID,
		PasswordHash: l.PasswordHash,
		ExpiresAt:    l.ExpiresAt,
	}
}
