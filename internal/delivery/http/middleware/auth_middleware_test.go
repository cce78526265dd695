package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"lumen/internal/domain/entity"
	domainerrors "lumen/internal/domain/errors"
	"lumen/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuthUsecase satisfies the slice of AuthUsecase the middleware touches.
type stubAuthUsecase struct {
	usecase.AuthUsecase

	user     *entity.User
	authErr  error
	grant    *entity.ShareLinkGrant
	shareErr error

	gotLinkID   uuid.UUID
	gotPassword string
}

func (s *stubAuthUsecase) Authenticate(_ context.Context, _ string) (*entity.User, error) {
	return s.user, s.authErr
}

func (s *stubAuthUsecase) ValidateShareLink(_ context.Context, linkID uuid.UUID, password string) (*entity.ShareLinkGrant, error) {
	s.gotLinkID = linkID
	s.gotPassword = password

	return s.grant, s.shareErr
}

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, decorate func(*http.Request)) (*usecase.Identity, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured *usecase.Identity
	err := mw(func(c echo.Context) error {
		captured = IdentityFromContext(c)

		return nil
	})(c)

	return captured, err
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	user := &entity.User{ID: 7, UUID: uuid.New(), Username: "alice"}
	mw := NewAuthMiddleware(&stubAuthUsecase{user: user})

	identity, err := runMiddleware(t, mw.Authenticate, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer some-token")
	})
	require.NoError(t, err)
	require.NotNil(t, identity)
	require.NotNil(t, identity.User)
	assert.Equal(t, user.ID, identity.User.ID)
}

func TestAuthMiddleware_AuthenticateRejectsMissingAndMalformed(t *testing.T) {
	mw := NewAuthMiddleware(&stubAuthUsecase{})

	_, err := runMiddleware(t, mw.Authenticate, nil)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)

	_, err = runMiddleware(t, mw.Authenticate, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Token abc")
	})
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestAuthMiddleware_AuthenticatePropagatesTokenErrors(t *testing.T) {
	mw := NewAuthMiddleware(&stubAuthUsecase{authErr: domainerrors.ErrTokenExpired})

	_, err := runMiddleware(t, mw.Authenticate, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer stale")
	})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestAuthMiddleware_MixedPrefersBearer(t *testing.T) {
	user := &entity.User{ID: 7, Username: "alice"}
	grant := &entity.ShareLinkGrant{LinkUUID: uuid.New(), AlbumID: 3}
	mw := NewAuthMiddleware(&stubAuthUsecase{user: user, grant: grant})

	identity, err := runMiddleware(t, mw.AuthenticateMixed, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer some-token")
	})
	require.NoError(t, err)
	require.NotNil(t, identity.User)
	assert.Nil(t, identity.Share)
}

func TestAuthMiddleware_MixedAcceptsShareLinkBasicAuth(t *testing.T) {
	grant := &entity.ShareLinkGrant{LinkUUID: uuid.New(), AlbumID: 3}
	stub := &stubAuthUsecase{grant: grant}
	mw := NewAuthMiddleware(stub)

	identity, err := runMiddleware(t, mw.AuthenticateMixed, func(r *http.Request) {
		r.SetBasicAuth(grant.LinkUUID.String(), "hunter2")
	})
	require.NoError(t, err)
	require.NotNil(t, identity.Share)
	assert.Equal(t, grant.AlbumID, identity.Share.AlbumID)
	assert.Nil(t, identity.User)
	assert.Equal(t, grant.LinkUUID, stub.gotLinkID)
	assert.Equal(t, "hunter2", stub.gotPassword)

	// Links without a password send an empty Basic password.
	identity, err = runMiddleware(t, mw.AuthenticateMixed, func(r *http.Request) {
		r.SetBasicAuth(grant.LinkUUID.String(), "")
	})
	require.NoError(t, err)
	require.NotNil(t, identity.Share)
	assert.Empty(t, stub.gotPassword)
}

func TestAuthMiddleware_MixedRejectsBadShareCredentials(t *testing.T) {
	mw := NewAuthMiddleware(&stubAuthUsecase{shareErr: domainerrors.ErrShareLinkInvalid})

	// Basic username that is not a link UUID.
	_, err := runMiddleware(t, mw.AuthenticateMixed, func(r *http.Request) {
		r.SetBasicAuth("not-a-uuid", "")
	})
	assert.ErrorIs(t, err, domainerrors.ErrShareLinkInvalid)

	// Well-formed UUID the usecase does not recognise.
	_, err = runMiddleware(t, mw.AuthenticateMixed, func(r *http.Request) {
		r.SetBasicAuth(uuid.New().String(), "wrong")
	})
	assert.ErrorIs(t, err, domainerrors.ErrShareLinkInvalid)

	// Basic header whose payload is not valid base64.
	var httpErr *echo.HTTPError
	_, err = runMiddleware(t, mw.AuthenticateMixed, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Basic ???")
	})
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)

	_, err = runMiddleware(t, mw.AuthenticateMixed, nil)
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
