package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken represents one logical session: a long-lived, server-side
// credential used only to mint new access tokens.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string    // Opaque random value (UUIDv4), unique across all sessions.
	ExpiresAt time.Time // Session lifetime boundary; past this the session is dead.
	CreatedAt time.Time
}

// Expired reports whether the session has passed its lifetime at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// AccessToken is the short-lived credential derived from a refresh token.
// Its value becomes the jti of the signed claims; at most one live row
// exists per refresh token, enforced by the transactional rotate.
type AccessToken struct {
	ID             int64
	RefreshTokenID int64
	Token          string
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// NewTokenValue generates an opaque credential value from a cryptographically
// secure source.
func NewTokenValue() string {
	return uuid.New().String()
}
