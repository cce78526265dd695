// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"lumen/internal/domain/entity"
	domainerrors "lumen/internal/domain/errors"
	"lumen/internal/domain/repository"
	"lumen/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// mediaRepository implements the repository.MediaRepository interface.
type mediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository is the constructor for mediaRepository.
func NewMediaRepository(db *gorm.DB) repository.MediaRepository {
	return &mediaRepository{db: db}
}

// Create persists a new media record.
func (repo *mediaRepository) Create(ctx context.Context, media *entity.Media) error {
	mediaM := fromMediaDomain(media)

	if err := repo.db.WithContext(ctx).Create(mediaM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return gorm.ErrDuplicatedKey
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create media")
	}

	media.ID = mediaM.ID
	media.UUID = mediaM.UUID

	return nil
}

// FindByID retrieves a single media record by its internal numeric ID.
func (repo *mediaRepository) FindByID(ctx context.Context, id int64) (*entity.Media, error) {
	var mediaM model.MediaModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&mediaM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMediaNotFound
		}

		return nil, errors.Wrap(err, "failed to find media by id")
	}

	return toMediaDomain(&mediaM), nil
}

// FindByFolderID retrieves all media records within a folder.
func (repo *mediaRepository) FindByFolderID(ctx context.Context, ownerID int64, folderID int64) ([]*entity.Media, error) {
	var mediaModels []*model.MediaModel

	if err := repo.db.WithContext(ctx).
		Where("owner_id = ? AND folder_id = ?", ownerID, folderID).
		Order("filename ASC").
		Find(&mediaModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find media by folder")
	}

	media := make([]*entity.Media, 0, len(mediaModels))
	for _, mediaM := range mediaModels {
		media = append(media, toMediaDomain(mediaM))
	}

	return media, nil
}

// FindByAlbumID retrieves all media records attached to an album.
func (repo *mediaRepository) FindByAlbumID(ctx context.Context, albumID int64) ([]*entity.Media, error) {
	var mediaModels []*model.MediaModel

	if err := repo.db.WithContext(ctx).
		Joins("JOIN album_media ON album_media.media_id = media.id").
		Where("album_media.album_id = ?", albumID).
		Order("media.filename ASC").
		Find(&mediaModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find media by album")
	}

	media := make([]*entity.Media, 0, len(mediaModels))
	for _, mediaM := range mediaModels {
		media = append(media, toMediaDomain(mediaM))
	}

	return media, nil
}

// ExistsByOwnerFolderFilename reports whether the unique (owner, folder, filename)
// triple is already present. A nil folderID matches gallery-root files.
func (repo *mediaRepository) ExistsByOwnerFolderFilename(ctx context.Context, ownerID int64, folderID *int64, filename string) (bool, error) {
	var count int64

	query := repo.db.WithContext(ctx).
		Model(&model.MediaModel{}).
		Where("owner_id = ? AND filename = ?", ownerID, filename)
	if folderID == nil {
		query = query.Where("folder_id IS NULL")
	} else {
		query = query.Where("folder_id = ?", *folderID)
	}

	if err := query.Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check media existence")
	}

	return count > 0, nil
}

func toMediaDomain(m *model.MediaModel) *entity.Media {
	return &entity.Media{
		ID:          m.ID,
		UUID:        m.UUID,
		OwnerID:     m.OwnerID,
		FolderID:    m.FolderID,
		Filename:    m.Filename,
		Width:       m.Width,
		Height:      m.Height,
		Description: m.Description,
		DateTaken:   m.DateTaken,
		ContentHash: m.ContentHash,
	}
}

func fromMediaDomain(m *entity.Media) *model.MediaModel {
	return &model.MediaModel{
		ID:          m.ID,
		UUID:        m.UUID,
		OwnerID:     m.OwnerID,
		FolderID:    m.FolderID,
		Filename:    m.Filename,
		Width:       m.Width,
		Height:      m.Height,
		Description: m.Description,
		DateTaken:   m.DateTaken,
		ContentHash: m.ContentHash,
	}
}
