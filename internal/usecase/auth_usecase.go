// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"lumen/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// SignupInput defines the data required to register a new account.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput defines the data required for a user to log in.
// Identifier accepts either the username or the email address.
type LoginInput struct {
	Identifier string
	Password   string
}

// OIDCInput carries an externally verified OIDC identity. Verification
// happens upstream; this layer only maps the identity onto an account.
type OIDCInput struct {
	Subject  string
	Email    string
	Username string
}

// --- Output DTOs ---

// SignupOutput returns the newly created user's basic information.
type SignupOutput struct {
	User *entity.User
}

// TokenPairOutput returns the credentials minted for a session.
type TokenPairOutput struct {
	AccessToken  string // Signed JWT presented as the Bearer credential.
	RefreshToken string // Opaque session value presented to the refresh endpoint.
	ExpiresAt    time.Time
	User         *entity.User
}

// SessionInfo describes one active session for session listings.
type SessionInfo struct {
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	Active    bool
}

// Identity is the result of authenticating a request. Exactly one of the two
// grants is set: an account identity or a share link grant.
type Identity struct {
	User  *entity.User
	Share *entity.ShareLinkGrant
}

// AuthUsecase defines the interface for authentication and session management.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	// Signup registers a new account with a password.
	Signup(ctx context.Context, input SignupInput) (*SignupOutput, error)

	// Login verifies credentials and opens a new session. Sessions are
	// per-device; logging in twice yields two independent sessions.
	Login(ctx context.Context, input LoginInput) (*TokenPairOutput, error)

	// IssueFromOIDC opens a session for an externally verified OIDC identity,
	// creating the account on first sight.
	IssueFromOIDC(ctx context.Context, input OIDCInput) (*TokenPairOutput, error)

	// Authenticate validates a signed access token and resolves its user.
	Authenticate(ctx context.Context, accessToken string) (*entity.User, error)

	// Refresh rotates the access token of a session: the old access token is
	// revoked and a new one minted atomically.
	Refresh(ctx context.Context, refreshToken string) (*TokenPairOutput, error)

	// Logout ends a session, reporting whether one was actually deleted.
	// Logging out an unknown or already ended session succeeds with false;
	// the operation is idempotent.
	Logout(ctx context.Context, refreshToken string) (bool, error)

	// ValidateShareLink checks a share link credential and optional password,
	// producing the weaker share-scoped identity.
	ValidateShareLink(ctx context.Context, linkID uuid.UUID, password string) (*entity.ShareLinkGrant, error)

	// ActiveSessions lists the sessions currently held by a user.
	ActiveSessions(ctx context.Context, userID int64) ([]*SessionInfo, error)

	// CleanupExpired removes expired sessions and orphaned access tokens,
	// returning the number of sessions removed.
	CleanupExpired(ctx context.Context) (int64, error)
}
