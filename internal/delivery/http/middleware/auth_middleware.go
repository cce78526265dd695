package middleware

import (
	"net/http"
	"strings"

	domainerrors "lumen/internal/domain/errors"
	"lumen/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ContextKeyIdentity is the echo context key holding the request identity.
const ContextKeyIdentity = "identity"

// AuthMiddleware resolves request credentials into an identity. The Bearer
// flow runs through the auth usecase so tokens of deleted accounts are
// rejected, not just badly signed ones.
type AuthMiddleware struct {
	authUC usecase.AuthUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(authUC usecase.AuthUsecase) *AuthMiddleware {
	return &AuthMiddleware{authUC: authUC}
}

// Authenticate requires a valid Bearer access token and stores the account
// identity on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := m.bearerIdentity(c)
		if err != nil {
			return err
		}
		if identity == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
		}

		c.Set(ContextKeyIdentity, identity)

		return next(c)
	}
}

// AuthenticateMixed accepts either a Bearer access token or a share link
// credential sent as HTTP Basic, with the link UUID as the username and the
// link password (possibly empty) as the password. A Bearer header wins,
// matching the stronger grant.
func (m *AuthMiddleware) AuthenticateMixed(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var (
			identity *usecase.Identity
			err      error
		)

		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		switch {
		case strings.HasPrefix(authHeader, "Bearer "):
			identity, err = m.bearerIdentity(c)
		case strings.HasPrefix(authHeader, "Basic "):
			identity, err = m.shareIdentity(c)
		default:
			return echo.NewHTTPError(http.StatusUnauthorized, "credentials required")
		}
		if err != nil {
			return err
		}

		c.Set(ContextKeyIdentity, identity)

		return next(c)
	}
}

func (m *AuthMiddleware) bearerIdentity(c echo.Context) (*usecase.Identity, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return nil, nil
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token format, must be Bearer token")
	}

	user, err := m.authUC.Authenticate(c.Request().Context(), tokenString)
	if err != nil {
		if errors.Is(err, domainerrors.ErrTokenExpired) || errors.Is(err, domainerrors.ErrTokenInvalid) {
			return nil, err
		}

		return nil, errors.WithStack(err)
	}

	return &usecase.Identity{User: user}, nil
}

// shareIdentity resolves a Basic credential of the form link-uuid:password.
// An open link is presented with an empty password.
func (m *AuthMiddleware) shareIdentity(c echo.Context) (*usecase.Identity, error) {
	username, password, ok := c.Request().BasicAuth()
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid share link credential")
	}

	linkID, err := uuid.Parse(username)
	if err != nil {
		return nil, domainerrors.ErrShareLinkInvalid
	}

	grant, err := m.authUC.ValidateShareLink(c.Request().Context(), linkID, password)
	if err != nil {
		return nil, err
	}

	return &usecase.Identity{Share: grant}, nil
}

// IdentityFromContext returns the identity stored by the middleware, or nil.
func IdentityFromContext(c echo.Context) *usecase.Identity {
	identity, _ := c.Get(ContextKeyIdentity).(*usecase.Identity)

	return identity
}
