package domain

import (
	"context"
	"time"
)

// User is a caseworker or administrator account.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	// RoleAdmin sees every session, entry, and contact.
	RoleAdmin = "admin"
	// RoleCaseworker sees only records it owns.
	RoleCaseworker = "caseworker"
)

// Elevated reports whether the user may observe records owned by others.
func (u *User) Elevated() bool {
	return u.Role == RoleAdmin
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	ListAll(ctx context.Context) ([]User, error)
}
