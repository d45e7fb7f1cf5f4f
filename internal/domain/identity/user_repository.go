package identity

import "context"

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByID finds a user by ID, shared.ErrNotFound when absent
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByUsername finds a user by username, shared.ErrNotFound when absent
	FindByUsername(ctx context.Context, username string) (*User, error)

	// ExistsByUsername checks whether the username is taken
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// Create inserts a new user and assigns its id
	Create(ctx context.Context, user *User) error
}
