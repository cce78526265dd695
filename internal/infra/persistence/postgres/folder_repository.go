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

// folderRepository implements the repository.FolderRepository interface.
type folderRepository struct {
	db *gorm.DB
}

// NewFolderRepository is the constructor for folderRepository.
func NewFolderRepository(db *gorm.DB) repository.FolderRepository {
	return &folderRepository{db: db}
}

// Create persists a new folder. A unique constraint violation surfaces as
// ErrUserAlreadyExists-style duplicate handling at the caller through
// find-again, so it is mapped to a distinct sentinel here.
func (repo *folderRepository) Create(ctx context.Context, folder *entity.Folder) error {
	folderM := fromFolderDomain(folder)

	if err := repo.db.WithContext(ctx).Create(folderM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return gorm.ErrDuplicatedKey
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create folder")
	}

	folder.ID = folderM.ID
	folder.UUID = folderM.UUID

	return nil
}

// FindByID retrieves a single folder by its internal numeric ID.
func (repo *folderRepository) FindByID(ctx context.Context, id int64) (*entity.Folder, error) {
	var folderM model.FolderModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&folderM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrFolderNotFound
		}

		return nil, errors.Wrap(err, "failed to find folder by id")
	}

	return toFolderDomain(&folderM), nil
}

// FindByOwnerParentName retrieves the folder identified by the unique
// (owner, parent, name) triple. A nil parentID addresses root folders.
func (repo *folderRepository) FindByOwnerParentName(ctx context.Context, ownerID int64, parentID *int64, name string) (*entity.Folder, error) {
	var folderM model.FolderModel

	query := repo.db.WithContext(ctx).Where("owner_id = ? AND name = ?", ownerID, name)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	if err := query.First(&folderM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrFolderNotFound
		}

		return nil, errors.Wrap(err, "failed to find folder by owner, parent and name")
	}

	return toFolderDomain(&folderM), nil
}

// FindByOwnerID retrieves all folders belonging to a user.
func (repo *folderRepository) FindByOwnerID(ctx context.Context, ownerID int64) ([]*entity.Folder, error) {
	var folderModels []*model.FolderModel

	if err := repo.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&folderModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find folders by owner")
	}

	folders := make([]*entity.Folder, 0, len(folderModels))
	for _, folderM := range folderModels {
		folders = append(folders, toFolderDomain(folderM))
	}

	return folders, nil
}

// FindChildren retrieves the direct children of a folder.
func (repo *folderRepository) FindChildren(ctx context.Context, ownerID int64, parentID int64) ([]*entity.Folder, error) {
	var folderModels []*model.FolderModel

	if err := repo.db.WithContext(ctx).
		Where("owner_id = ? AND parent_id = ?", ownerID, parentID).
		Order("name ASC").
		Find(&folderModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find child folders")
	}

	folders := make([]*entity.Folder, 0, len(folderModels))
	for _, folderM := range folderModels {
		folders = append(folders, toFolderDomain(folderM))
	}

	return folders, nil
}

func toFolderDomain(m *model.FolderModel) *entity.Folder {
	return &entity.Folder{
		ID:       m.ID,
		UUID:     m.UUID,
		OwnerID:  m.OwnerID,
		ParentID: m.ParentID,
		Name:     m.Name,
	}
}

func fromFolderDomain(f *entity.Folder) *model.FolderModel {
	return &model.FolderModel{
		ID:       f.ID,
		UUID:     f.UUID,
		OwnerID:  f.OwnerID,
		ParentID: f.ParentID,
		Name:     f.Name,
	}
}
