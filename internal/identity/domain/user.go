// Package domain defines the identity domain: user accounts and the role enum
// that gates every operation on the credential hierarchy.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/jediahjireh/credential-management/internal/errors"
)

// Role determines which hierarchy operations a user may perform.
type Role string

const (
	// RoleNormal can read the hierarchy and add credentials.
	RoleNormal Role = "normal"

	// RoleManagement can additionally update existing credentials.
	RoleManagement Role = "management"

	// RoleAdmin can additionally manage user↔OU/division assignments and roles.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleNormal, RoleManagement, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account. Username and email are globally unique.
// Secret holds the hashed login secret; users are never deleted.
type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Secret    string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity domain errors.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUsernameTaken indicates a user with the same username already exists.
	ErrUsernameTaken = errors.Wrap(errors.ErrConflict, "username already registered")

	// ErrEmailTaken indicates a user with the same email already exists.
	ErrEmailTaken = errors.Wrap(errors.ErrConflict, "email already registered")

	// ErrInvalidRole indicates the role is not one of normal, management, admin.
	ErrInvalidRole = errors.Wrap(errors.ErrInvalidInput, "invalid role")
)
