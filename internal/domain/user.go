package domain

import (
	"errors"
	"time"
)

// User represents a system user
type User struct {
	ID             int64
	Username       string
	Email          string
	HashedPassword string
	Role           Role
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// SelectedAccountID is the account shown by default in clients.
	// Set to the first account a user opens.
	SelectedAccountID *int64
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin has full access to all operations, including rollbacks
	RoleAdmin Role = "admin"

	// RoleUser can operate only on accounts they own
	RoleUser Role = "user"
)

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Identity is the authenticated caller threaded explicitly through every
// engine call. It is resolved once at the request boundary.
type Identity struct {
	UserID   int64
	Username string
	Role     Role
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
