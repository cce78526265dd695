// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"lumen/config"
	domainerrors "lumen/internal/domain/errors"
	"lumen/internal/domain/service"
)

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
// Access tokens are signed with HS512; the shared secret comes from the secret file.
type jwtService struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration // Time-to-live for access tokens.
	refreshTTL time.Duration // Time-to-live for refresh token sessions.
}

// NewJWTService is the constructor for jwtService.
// It loads (or provisions) the signing secret and takes TTLs from configuration.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	secret, err := LoadOrCreateSecret(cfg.Auth.SecretFile)
	if err != nil {
		return nil, err
	}

	return &jwtService{
		secret:     []byte(secret),
		issuer:     cfg.Auth.Issuer,
		audience:   cfg.Auth.Audience,
		accessTTL:  cfg.Auth.AccessTokenTTL,
		refreshTTL: cfg.Auth.RefreshTokenTTL,
	}, nil
}

// Sign produces a signed access token. The opaque token value doubles as the
// jti so the server-side row can be looked up from the signed credential.
func (s *jwtService) Sign(subject string, tokenValue string, userID int64, roles []string, expiresAt time.Time) (string, error) {
	now := time.Now()
	claims := &service.Claims{
		UserID: userID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenValue,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign access token")
	}

	return signed, nil
}

// Validate checks a token string's signature and registered claims. Expiry is
// classified separately from every other defect so callers can tell a stale
// credential apart from a forged one.
func (s *jwtService) Validate(tokenString string) (*service.Claims, error) {
	claims := &service.Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		// Pin the algorithm; accepting whatever the header declares would
		// allow downgrade attacks.
		if token.Method.Alg() != jwt.SigningMethodHS512.Alg() {
			return nil, jwt.ErrSignatureInvalid
		}

		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domainerrors.ErrTokenExpired
		}

		return nil, domainerrors.ErrTokenInvalid
	}

	return claims, nil
}

// AccessTokenDuration returns the configured access token lifetime.
func (s *jwtService) AccessTokenDuration() time.Duration {
	return s.accessTTL
}

// RefreshTokenDuration returns the configured session lifetime.
func (s *jwtService) RefreshTokenDuration() time.Duration {
	return s.refreshTTL
}
