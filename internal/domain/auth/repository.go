package auth

import (
	"context"

	"quotis/internal/core/id"
)

// UserRepository defines persistence for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
