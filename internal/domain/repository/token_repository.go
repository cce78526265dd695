package repository

import (
	"context"
	"time"

	"lumen/internal/domain/entity"

	"github.com/pkg/errors"
)

// Domain-specific errors for token persistence.
var (
	// ErrRefreshTokenNotFound is returned when a refresh token is not found.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	// ErrAccessTokenNotFound is returned when an access token is not found.
	ErrAccessTokenNotFound = errors.New("access token not found")
)

// RefreshTokenRepository defines the interface for session persistence.
// Each refresh token row is one device session; multi-device login is
// supported by holding several rows per user.
type RefreshTokenRepository interface {
	// Create persists a new refresh token, representing a user session.
	Create(ctx context.Context, token *entity.RefreshToken) error

	// FindByToken retrieves a refresh token record by its opaque value.
	FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error)

	// FindByUserID retrieves all refresh tokens for a specific user.
	// This allows users to see all their active sessions across different devices.
	FindByUserID(ctx context.Context, userID int64) ([]*entity.RefreshToken, error)

	// DeleteByToken removes a refresh token by its value, ending a session.
	// It reports whether a row was actually deleted; deleting a token that
	// does not exist is not an error.
	DeleteByToken(ctx context.Context, token string) (bool, error)

	// DeleteByUserID removes all refresh tokens for a specific user.
	// This is useful for "logout from all devices" functionality.
	DeleteByUserID(ctx context.Context, userID int64) error

	// DeleteExpired removes all refresh tokens that expired before the given
	// instant and returns the number of sessions removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)

	// CountActiveByUserID returns the number of non-expired sessions for a user.
	CountActiveByUserID(ctx context.Context, userID int64) (int, error)
}

// AccessTokenRepository defines the interface for short-lived credential
// persistence. Rows are always manipulated together with their owning refresh
// token inside a transaction.
type AccessTokenRepository interface {
	// Create persists a new access token bound to a refresh token.
	Create(ctx context.Context, token *entity.AccessToken) error

	// FindByToken retrieves an access token record by its opaque value.
	FindByToken(ctx context.Context, token string) (*entity.AccessToken, error)

	// DeleteByRefreshTokenID removes every access token minted from the given
	// session. Called before inserting the replacement during rotation.
	DeleteByRefreshTokenID(ctx context.Context, refreshTokenID int64) error

	// DeleteExpired removes all access tokens that expired before the given instant.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
