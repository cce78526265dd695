package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumen/config"
	domainerrors "lumen/internal/domain/errors"
	"lumen/internal/domain/service"
)

func testTokenConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{}
	cfg.Auth = &config.AuthConfig{
		SecretFile:      filepath.Join(t.TempDir(), "secret.key"),
		Issuer:          "lumen",
		Audience:        "lumen-web",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	}

	return cfg
}

func TestJWTService_SignAndValidate(t *testing.T) {
	svc, err := NewJWTService(testTokenConfig(t))
	require.NoError(t, err)

	subject := "8c5f1c0e-0b1a-4f6e-9f5a-0d9a1b2c3d4e"
	tokenValue := "b6b9f1f2-8d7c-4e3a-b1a2-c3d4e5f6a7b8"

	signed, err := svc.Sign(subject, tokenValue, 42, []string{"user"}, time.Now().Add(15*time.Minute))
	require.NoError(t, err)

	claims, err := svc.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
	assert.Equal(t, tokenValue, claims.ID)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, []string{"user"}, claims.Roles)
	assert.Equal(t, "lumen", claims.Issuer)
}

func TestJWTService_ExpiredTokenIsClassifiedAsExpired(t *testing.T) {
	svc, err := NewJWTService(testTokenConfig(t))
	require.NoError(t, err)

	signed, err := svc.Sign("subject", "token-value", 1, nil, time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestJWTService_TamperedTokenIsInvalid(t *testing.T) {
	svc, err := NewJWTService(testTokenConfig(t))
	require.NoError(t, err)

	signed, err := svc.Sign("subject", "token-value", 1, nil, time.Now().Add(time.Minute))
	require.NoError(t, err)

	_, err = svc.Validate(signed + "x")
	assert.ErrorIs(t, err, domainerrors.ErrTokenInvalid)
}

func TestJWTService_GarbageTokenIsInvalid(t *testing.T) {
	svc, err := NewJWTService(testTokenConfig(t))
	require.NoError(t, err)

	_, err = svc.Validate("not-a-token")
	assert.ErrorIs(t, err, domainerrors.ErrTokenInvalid)
}

func TestJWTService_RejectsForeignSigningAlgorithm(t *testing.T) {
	svc, err := NewJWTService(testTokenConfig(t))
	require.NoError(t, err)

	// Same claim shape but signed with HS256 and a different key.
	claims := &service.Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "lumen",
			Audience:  jwt.ClaimStrings{"lumen-web"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.Validate(foreign)
	assert.ErrorIs(t, err, domainerrors.ErrTokenInvalid)
}

func TestJWTService_WrongAudienceIsInvalid(t *testing.T) {
	cfg := testTokenConfig(t)
	svc, err := NewJWTService(cfg)
	require.NoError(t, err)

	other := testTokenConfig(t)
	other.Auth.SecretFile = cfg.Auth.SecretFile
	other.Auth.Audience = "other-app"
	otherSvc, err := NewJWTService(other)
	require.NoError(t, err)

	signed, err := otherSvc.Sign("subject", "token-value", 1, nil, time.Now().Add(time.Minute))
	require.NoError(t, err)

	_, err = svc.Validate(signed)
	assert.ErrorIs(t, err, domainerrors.ErrTokenInvalid)
}

func TestJWTService_Durations(t *testing.T) {
	svc, err := NewJWTService(testTokenConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, svc.AccessTokenDuration())
	assert.Equal(t, time.Hour, svc.RefreshTokenDuration())
}
