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

// scanJobRepository implements the repository.ScanJobRepository interface.
type scanJobRepository struct {
	db *gorm.DB
}

// NewScanJobRepository is the constructor for scanJobRepository.
func NewScanJobRepository(db *gorm.DB) repository.ScanJobRepository {
	return &scanJobRepository{db: db}
}

// Create persists a new scan job record.
func (repo *scanJobRepository) Create(ctx context.Context, job *entity.ScanJob) error {
	jobM := fromScanJobDomain(job)

	if err := repo.db.WithContext(ctx).Create(jobM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create scan job")
	}

	return nil
}

// FindByID retrieves a scan job by its identifier.
func (repo *scanJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ScanJob, error) {
	var jobM model.ScanJobModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&jobM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrScanJobNotFound
		}

		return nil, errors.Wrap(err, "failed to find scan job by id")
	}

	return toScanJobDomain(&jobM), nil
}

// FindLatestByUserID retrieves the most recently started job for a user.
func (repo *scanJobRepository) FindLatestByUserID(ctx context.Context, userID int64) (*entity.ScanJob, error) {
	var jobM model.ScanJobModel

	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		First(&jobM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrScanJobNotFound
		}

		return nil, errors.Wrap(err, "failed to find latest scan job")
	}

	return toScanJobDomain(&jobM), nil
}

// Update persists the current state and counters of a job.
func (repo *scanJobRepository) Update(ctx context.Context, job *entity.ScanJob) error {
	jobM := fromScanJobDomain(job)

	result := repo.db.WithContext(ctx).
		Model(&model.ScanJobModel{}).
		Where("id = ?", job.ID).
		Updates(map[string]any{
			"state":       jobM.State,
			"folders_new": jobM.FoldersNew,
			"media_new":   jobM.MediaNew,
			"skipped":     jobM.Skipped,
			"error":       jobM.Error,
			"finished_at": jobM.FinishedAt,
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update scan job")
	}
	if result.RowsAffected == 0 {
		return repository.ErrScanJobNotFound
	}

	return nil
}

func toScanJobDomain(m *model.ScanJobModel) *entity.ScanJob {
	return &entity.ScanJob{
		ID:         m.ID,
		UserID:     m.UserID,
		State:      entity.ScanJobState(m.State),
		FoldersNew: m.FoldersNew,
		MediaNew:   m.MediaNew,
		Skipped:    m.Skipped,
		Error:      m.Error,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
	}
}

func fromScanJobDomain(j *entity.ScanJob) *model.ScanJobModel {
	return &model.ScanJobModel{
		ID:         j.ID,
		UserID:     j.UserID,
		State:      string(j.State),
		FoldersNew: j.FoldersNew,
		MediaNew:   j.MediaNew,
		Skipped:    j.Skipped,
		Error:      j.Error,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
	}
}
