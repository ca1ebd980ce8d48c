package account

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateUsername is returned when an insert hits the unique
	// username constraint.
	ErrDuplicateUsername = errors.New("duplicate username")
	// ErrDuplicateEmail is returned when an insert or update hits the
	// unique email constraint.
	ErrDuplicateEmail = errors.New("duplicate user email")
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// Update persists email/first_name/last_name.
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}
