// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core identity record. The numeric ID is the internal primary
// key; the UUID is the stable external identifier embedded in tokens and URLs.
type User struct {
	ID           int64
	UUID         uuid.UUID
	Username     string    // Globally unique display/login name, also the on-disk gallery directory name.
	Email        string    // Globally unique contact address, usable as a login identifier.
	PasswordHash string    // bcrypt hash; empty for accounts created through the external identity provider.
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can log in with a password at all.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
