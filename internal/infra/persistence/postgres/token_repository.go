// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"lumen/internal/domain/entity"
	domainerrors "lumen/internal/domain/errors"
	"lumen/internal/domain/repository"
	"lumen/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// refreshTokenRepository implements the repository.RefreshTokenRepository interface.
type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository is the constructor for refreshTokenRepository.
func NewRefreshTokenRepository(db *gorm.DB) repository.RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create persists a new refresh token, representing a user session.
func (repo *refreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	tokenM := fromRefreshTokenDomain(token)

	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create refresh token")
	}

	token.ID = tokenM.ID
	token.CreatedAt = tokenM.CreatedAt

	return nil
}

// FindByToken retrieves a refresh token record by its opaque value.
func (repo *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	var tokenM model.RefreshTokenModel

	if err := repo.db.WithContext(ctx).
		Where("token = ?", token).
		First(&tokenM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRefreshTokenNotFound
		}

		return nil, errors.Wrap(err, "failed to find refresh token")
	}

	return toRefreshTokenDomain(&tokenM), nil
}

// FindByUserID retrieves all refresh tokens for a specific user.
func (repo *refreshTokenRepository) FindByUserID(ctx context.Context, userID int64) ([]*entity.RefreshToken, error) {
	var tokenModels []*model.RefreshTokenModel

	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tokenModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find refresh tokens by user")
	}

	tokens := make([]*entity.RefreshToken, 0, len(tokenModels))
	for _, tokenM := range tokenModels {
		tokens = append(tokens, toRefreshTokenDomain(tokenM))
	}

	return tokens, nil
}

// DeleteByToken removes a refresh token by its value. Deleting a token that
// does not exist is not an error; logout stays idempotent. The returned flag
// reports whether a row was actually removed.
func (repo *refreshTokenRepository) DeleteByToken(ctx context.Context, token string) (bool, error) {
	result := repo.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&model.RefreshTokenModel{})
	if result.Error != nil {
		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete refresh token")
	}

	return result.RowsAffected > 0, nil
}

// DeleteByUserID removes all refresh tokens for a specific user.
func (repo *refreshTokenRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.RefreshTokenModel{}).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete refresh tokens by user")
	}

	return nil
}

// DeleteExpired removes all refresh tokens that expired before the given instant.
func (repo *refreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&model.RefreshTokenModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete expired refresh tokens")
	}

	return result.RowsAffected, nil
}

// CountActiveByUserID returns the number of non-expired sessions for a user.
func (repo *refreshTokenRepository) CountActiveByUserID(ctx context.Context, userID int64) (int, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Model(&model.RefreshTokenModel{}).
		Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count active sessions")
	}

	return int(count), nil
}

// accessTokenRepository implements the repository.AccessTokenRepository interface.
type accessTokenRepository struct {
	db *gorm.DB
}

// NewAccessTokenRepository is the constructor for accessTokenRepository.
func NewAccessTokenRepository(db *gorm.DB) repository.AccessTokenRepository {
	return &accessTokenRepository{db: db}
}

// Create persists a new access token bound to a refresh token.
func (repo *accessTokenRepository) Create(ctx context.Context, token *entity.AccessToken) error {
	tokenM := fromAccessTokenDomain(token)

	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create access token")
	}

	token.ID = tokenM.ID
	token.CreatedAt = tokenM.CreatedAt

	return nil
}

// FindByToken retrieves an access token record by its opaque value.
func (repo *accessTokenRepository) FindByToken(ctx context.Context, token string) (*entity.AccessToken, error) {
	var tokenM model.AccessTokenModel

	if err := repo.db.WithContext(ctx).
		Where("token = ?", token).
		First(&tokenM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccessTokenNotFound
		}

		return nil, errors.Wrap(err, "failed to find access token")
	}

	return toAccessTokenDomain(&tokenM), nil
}

// DeleteByRefreshTokenID removes every access token minted from the given session.
func (repo *accessTokenRepository) DeleteByRefreshTokenID(ctx context.Context, refreshTokenID int64) error {
	if err := repo.db.WithContext(ctx).
		Where("refresh_token_id = ?", refreshTokenID).
		Delete(&model.AccessTokenModel{}).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to delete access tokens by refresh token")
	}

	return nil
}

// DeleteExpired removes all access tokens that expired before the given instant.
func (repo *accessTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&model.AccessTokenModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete expired access tokens")
	}

	return result.RowsAffected, nil
}

func toRefreshTokenDomain(m *model.RefreshTokenModel) *entity.RefreshToken {
	return &entity.RefreshToken{
		ID:        m.ID,
		UserID:    m.UserID,
		Token:     m.Token,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
	}
}

func fromRefreshTokenDomain(t *entity.RefreshToken) *model.RefreshTokenModel {
	return &model.RefreshTokenModel{
		ID:        t.ID,
		UserID:    t.UserID,
		Token:     t.Token,
		ExpiresAt: t.ExpiresAt,
	}
}

func toAccessTokenDomain(m *model.AccessTokenModel) *entity.AccessToken {
	return &entity.AccessToken{
		ID:             m.ID,
		RefreshTokenID: m.RefreshTokenID,
		Token:          m.Token,
		ExpiresAt:      m.ExpiresAt,
		CreatedAt:      m.CreatedAt,
	}
}

func fromAccessTokenDomain(t *entity.AccessToken) *model.AccessTokenModel {
	return &model.AccessTokenModel{
		ID:             t.ID,
		RefreshTokenID: t.RefreshTokenID,
		Token:          t.Token,
		ExpiresAt:      t.ExpiresAt,
	}
}
