package user

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

// User holds the running points total for one identity. The id is supplied
// by whoever authenticated the caller; this package never mints it.
type User struct {
	ID        string    `json:"id"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the contract for user persistence.
type Store interface {
	// Ensure creates the user row if it doesn't exist and returns it. Idempotent.
	Ensure(ctx context.Context, id string) (*User, error)

	// Get returns a user by ID.
	Get(ctx context.Context, id string) (*User, error)

	// Points returns the user's total, or 0 for a user never seen.
	Points(ctx context.Context, id string) (int, error)

	// IncrementPoints atomically adds n to the user's total, creating the
	// row on first use, and returns the new total.
	IncrementPoints(ctx context.Context, id string, n int) (int, error)

	// List returns all users.
	List(ctx context.Context) ([]User, error)

	// EnsureTable creates the users table if it doesn't exist.
	EnsureTable(ctx context.Context) error
}
