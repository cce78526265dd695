package entity

import (
	"time"

	"github.com/google/uuid"
)

// Album is a user-curated collection of media, shareable with non-account
// viewers through share links.
type Album struct {
	ID          int64
	UUID        uuid.UUID
	OwnerID     int64
	Name        string
	Description *string
	CreatedAt   time.Time
}

// AlbumShareLink is the per-album, optionally password-protected credential
// for viewers without an account. It carries no session state: every request
// presenting it is validated against this row.
type AlbumShareLink struct {
	ID           int64
	UUID         uuid.UUID
	AlbumID      int64
	PasswordHash *string    // bcrypt hash; nil means the link is open.
	ExpiresAt    *time.Time // nil means the link never expires.
}

// Expired reports whether the link has lapsed at the given instant.
func (l *AlbumShareLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// Open reports whether the link requires no password.
func (l *AlbumShareLink) Open() bool {
	return l.PasswordHash == nil
}

// ShareLinkGrant is the identity produced by validating a share link. It is
// the weaker half of the mixed authentication scheme and scopes access to a
// single album.
type ShareLinkGrant struct {
	LinkUUID uuid.UUID
	AlbumID  int64
}
