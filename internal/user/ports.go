package user

import (
	"context"
)

// Repository is the credential store.
type Repository interface {
	GetByUsername(ctx context.Context, username string) (User, error)
	// Create inserts u and links it to u.Roles, which must already exist.
	Create(ctx context.Context, u *User) error
	// EnsureRole returns the role with the given name, creating it if needed.
	EnsureRole(ctx context.Context, name string) (Role, error)
}
