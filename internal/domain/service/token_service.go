package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the custom claims carried inside signed access tokens. The
// opaque access token value is reused as the jti registered claim so the
// server-side row and the signed credential can be correlated.
type Claims struct {
	UserID int64    `json:"user_id"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService defines the interface for signing and validating JWTs.
// This abstracts the signing algorithm and secret handling from the use cases.
type TokenService interface {
	// Sign produces a signed access token string for the given claims input.
	// tokenValue becomes the jti; subject is the user's external UUID.
	Sign(subject string, tokenValue string, userID int64, roles []string, expiresAt time.Time) (string, error)

	// Validate checks a token string's signature and registered claims.
	// An expired token is reported distinctly from a malformed or forged one.
	Validate(tokenString string) (*Claims, error)

	// AccessTokenDuration returns the configured access token lifetime.
	AccessTokenDuration() time.Duration

	// RefreshTokenDuration returns the configured session lifetime.
	RefreshTokenDuration() time.Duration
}
