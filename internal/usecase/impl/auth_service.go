// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"time"

	"lumen/config"
	deliverycontext "lumen/internal/delivery/context"
	"lumen/internal/domain/constants"
	"lumen/internal/domain/entity"
	domainerrors "lumen/internal/domain/errors"
	"lumen/internal/domain/repository"
	"lumen/internal/domain/service"
	"lumen/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager         repository.TransactionManager
	userRepo          repository.UserRepository
	refreshTokenRepo  repository.RefreshTokenRepository
	shareLinkRepo     repository.ShareLinkRepository
	hasher            service.PasswordHasher
	tokenService      service.TokenService
	maxActiveSessions int
	logger            *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager        repository.TransactionManager
	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	ShareLinkRepo    repository.ShareLinkRepository
	Hasher           service.PasswordHasher
	TokenService     service.TokenService
	Config           *config.Config
	Logger           *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	maxActiveSessions := 0
	if params.Config != nil && params.Config.Auth != nil {
		maxActiveSessions = params.Config.Auth.MaxActiveSessions
	}

	return &authService{
		txManager:         params.TxManager,
		userRepo:          params.UserRepo,
		refreshTokenRepo:  params.RefreshTokenRepo,
		shareLinkRepo:     params.ShareLinkRepo,
		hasher:            params.Hasher,
		tokenService:      params.TokenService,
		maxActiveSessions: maxActiveSessions,
		logger:            params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Signup registers a new account with a password.
func (srv *authService) Signup(ctx context.Context, input usecase.SignupInput) (*usecase.SignupOutput, error) {
	srv.log(ctx).Info("Starting signup", slog.String("username", input.Username), slog.String("email", input.Email))

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during signup", slog.Any("error", err))

		return nil, domainerrors.ErrPasswordHashFailed
	}

	user := &entity.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		if _, err := userRepo.FindByUsername(ctx, input.Username); err == nil {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("username already taken")
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check username")
		}

		if _, err := userRepo.FindByEmail(ctx, input.Email); err == nil {
			return domainerrors.ErrUserAlreadyExists.WrapMessage("email already registered")
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check email")
		}

		return userRepo.Create(ctx, user)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute signup transaction", slog.String("username", input.Username), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Debug("Signup completed", slog.Int64("user_id", user.ID))

	return &usecase.SignupOutput{User: user}, nil
}

// Login verifies credentials and opens a new session.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.TokenPairOutput, error) {
	srv.log(ctx).Info("Starting login", slog.String("identifier", input.Identifier))

	user, err := srv.userRepo.FindByUsername(ctx, input.Identifier)
	if errors.Is(err, repository.ErrUserNotFound) {
		user, err = srv.userRepo.FindByEmail(ctx, input.Identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same failure as a wrong password, so probing for accounts
			// yields nothing.
			return nil, domainerrors.ErrInvalidCredentials
		}

		return nil, errors.Wrap(err, "failed to find user for login")
	}

	if !user.HasPassword() || !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login rejected", slog.Int64("user_id", user.ID))

		return nil, domainerrors.ErrInvalidCredentials
	}

	if err := srv.enforceSessionLimit(ctx, user.ID); err != nil {
		return nil, err
	}

	output, err := srv.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Login completed", slog.Int64("user_id", user.ID))

	return output, nil
}

// IssueFromOIDC opens a session for an externally verified OIDC identity,
// creating the account on first sight.
func (srv *authService) IssueFromOIDC(ctx context.Context, input usecase.OIDCInput) (*usecase.TokenPairOutput, error) {
	srv.log(ctx).Info("Issuing session from OIDC identity", slog.String("email", input.Email))

	var user *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		found, err := userRepo.FindByEmail(ctx, input.Email)
		if err == nil {
			user = found

			return nil
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to find user by email")
		}

		username := input.Username
		if username == "" {
			username = input.Subject
		}
		user = &entity.User{
			Username: username,
			Email:    input.Email,
		}

		return userRepo.Create(ctx, user)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to resolve OIDC identity", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	if err := srv.enforceSessionLimit(ctx, user.ID); err != nil {
		return nil, err
	}

	return srv.openSession(ctx, user)
}

// Authenticate validates a signed access token and resolves its user. A token
// past its expiry is reported as expired; every other defect is reported as
// invalid. Validity is decided by the signature and embedded expiry alone;
// the server-side token row is only consulted by the refresh flow.
func (srv *authService) Authenticate(ctx context.Context, accessToken string) (*entity.User, error) {
	claims, err := srv.tokenService.Validate(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := srv.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrTokenInvalid
		}

		return nil, errors.Wrap(err, "failed to resolve authenticated user")
	}

	return user, nil
}

// Refresh rotates the access token of a session. Revoking the old access
// token and minting the new one happen in one transaction, so a crash can
// never leave a session with two live access tokens.
func (srv *authService) Refresh(ctx context.Context, refreshToken string) (*usecase.TokenPairOutput, error) {
	var (
		user      *entity.User
		newAccess *entity.AccessToken
	)

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		refreshRepo := repoFactory.NewRefreshTokenRepository()
		accessRepo := repoFactory.NewAccessTokenRepository()
		userRepo := repoFactory.NewUserRepository()

		session, err := refreshRepo.FindByToken(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, repository.ErrRefreshTokenNotFound) {
				return domainerrors.ErrSessionNotFound
			}

			return errors.Wrap(err, "failed to find session")
		}
		if session.Expired(time.Now()) {
			return domainerrors.ErrSessionExpired
		}

		user, err = userRepo.FindByID(ctx, session.UserID)
		if err != nil {
			return errors.Wrap(err, "failed to resolve session user")
		}

		if err := accessRepo.DeleteByRefreshTokenID(ctx, session.ID); err != nil {
			return errors.Wrap(err, "failed to revoke previous access token")
		}

		newAccess = &entity.AccessToken{
			RefreshTokenID: session.ID,
			Token:          entity.NewTokenValue(),
			ExpiresAt:      time.Now().Add(srv.tokenService.AccessTokenDuration()),
		}

		return accessRepo.Create(ctx, newAccess)
	})
	if err != nil {
		srv.log(ctx).Warn("Refresh rejected", slog.Any("error", err))

		return nil, err
	}

	signed, err := srv.tokenService.Sign(user.UUID.String(), newAccess.Token, user.ID, []string{constants.RoleUser}, newAccess.ExpiresAt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign rotated access token")
	}

	srv.log(ctx).Debug("Session refreshed", slog.Int64("user_id", user.ID))

	return &usecase.TokenPairOutput{
		AccessToken:  signed,
		RefreshToken: refreshToken,
		ExpiresAt:    newAccess.ExpiresAt,
		User:         user,
	}, nil
}

// Logout ends a session and reports whether one was actually deleted.
// Unknown tokens are ignored so repeated logouts and races with expiry
// cleanup both succeed, reporting that nothing was removed.
func (srv *authService) Logout(ctx context.Context, refreshToken string) (bool, error) {
	deleted, err := srv.refreshTokenRepo.DeleteByToken(ctx, refreshToken)
	if err != nil {
		return false, errors.Wrap(err, "failed to delete session")
	}

	srv.log(ctx).Debug("Logout completed", slog.Bool("deleted", deleted))

	return deleted, nil
}

// ValidateShareLink checks a share link credential and optional password.
func (srv *authService) ValidateShareLink(ctx context.Context, linkID uuid.UUID, password string) (*entity.ShareLinkGrant, error) {
	link, err := srv.shareLinkRepo.FindByUUID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrShareLinkNotFound) {
			return nil, domainerrors.ErrShareLinkInvalid
		}

		return nil, errors.Wrap(err, "failed to find share link")
	}

	if link.Expired(time.Now()) {
		return nil, domainerrors.ErrShareLinkInvalid
	}
	if !link.Open() && !srv.hasher.Check(password, *link.PasswordHash) {
		return nil, domainerrors.ErrShareLinkInvalid
	}

	return &entity.ShareLinkGrant{
		LinkUUID: link.UUID,
		AlbumID:  link.AlbumID,
	}, nil
}

// ActiveSessions lists the sessions currently held by a user.
func (srv *authService) ActiveSessions(ctx context.Context, userID int64) ([]*usecase.SessionInfo, error) {
	tokens, err := srv.refreshTokenRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}

	now := time.Now()
	sessions := make([]*usecase.SessionInfo, 0, len(tokens))
	for _, token := range tokens {
		sessions = append(sessions, &usecase.SessionInfo{
			Token:     token.Token,
			CreatedAt: token.CreatedAt,
			ExpiresAt: token.ExpiresAt,
			Active:    !token.Expired(now),
		})
	}

	return sessions, nil
}

// CleanupExpired removes expired sessions and stale access tokens.
func (srv *authService) CleanupExpired(ctx context.Context) (int64, error) {
	var removed int64

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		now := time.Now()

		if _, err := repoFactory.NewAccessTokenRepository().DeleteExpired(ctx, now); err != nil {
			return errors.Wrap(err, "failed to delete expired access tokens")
		}

		n, err := repoFactory.NewRefreshTokenRepository().DeleteExpired(ctx, now)
		if err != nil {
			return errors.Wrap(err, "failed to delete expired sessions")
		}
		removed = n

		return nil
	})
	if err != nil {
		return 0, err
	}

	srv.log(ctx).Info("Expired sessions cleaned up", slog.Int64("removed", removed))

	return removed, nil
}

// openSession mints a refresh token and its first access token in one
// transaction, then signs the access credential.
func (srv *authService) openSession(ctx context.Context, user *entity.User) (*usecase.TokenPairOutput, error) {
	now := time.Now()
	refresh := &entity.RefreshToken{
		UserID:    user.ID,
		Token:     entity.NewTokenValue(),
		ExpiresAt: now.Add(srv.tokenService.RefreshTokenDuration()),
	}
	access := &entity.AccessToken{
		Token:     entity.NewTokenValue(),
		ExpiresAt: now.Add(srv.tokenService.AccessTokenDuration()),
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		refreshRepo := repoFactory.NewRefreshTokenRepository()
		accessRepo := repoFactory.NewAccessTokenRepository()

		if err := refreshRepo.Create(ctx, refresh); err != nil {
			return errors.Wrap(err, "failed to create session")
		}

		access.RefreshTokenID = refresh.ID

		return accessRepo.Create(ctx, access)
	})
	if err != nil {
		srv.log(ctx).Error("Failed to open session", slog.Int64("user_id", user.ID), slog.Any("error", err))

		return nil, err
	}

	signed, err := srv.tokenService.Sign(user.UUID.String(), access.Token, user.ID, []string{constants.RoleUser}, access.ExpiresAt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign access token")
	}

	return &usecase.TokenPairOutput{
		AccessToken:  signed,
		RefreshToken: refresh.Token,
		ExpiresAt:    access.ExpiresAt,
		User:         user,
	}, nil
}

// enforceSessionLimit keeps a user at or below the configured session count
// by retiring the oldest session before opening a new one.
func (srv *authService) enforceSessionLimit(ctx context.Context, userID int64) error {
	if srv.maxActiveSessions <= 0 {
		return nil
	}

	count, err := srv.refreshTokenRepo.CountActiveByUserID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to count sessions")
	}
	if count < srv.maxActiveSessions {
		return nil
	}

	tokens, err := srv.refreshTokenRepo.FindByUserID(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "failed to list sessions for eviction")
	}
	if len(tokens) == 0 {
		return nil
	}

	// FindByUserID orders newest first; the last entry is the oldest session.
	oldest := tokens[len(tokens)-1]
	srv.log(ctx).Info("Evicting oldest session", slog.Int64("user_id", userID))

	_, err = srv.refreshTokenRepo.DeleteByToken(ctx, oldest.Token)

	return err
}
