package identity

import (
	"regexp"
	"strings"

	"github.com/stockflow/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 10

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// User is an account that owns products and sales
type User struct {
	shared.BaseEntity
	Name         string
	Username     string
	PasswordHash string
}

// NewUser creates a new user, hashing the plain password
func NewUser(name, username, password string) (*User, error) {
	name = strings.TrimSpace(name)
	username = strings.TrimSpace(username)
	if name == "" {
		return nil, shared.NewValidationError("Name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewValidationError("Name cannot exceed 100 characters")
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, shared.NewInternalError("Failed to hash password", err)
	}

	return &User{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		Username:     username,
		PasswordHash: string(hash),
	}, nil
}

// VerifyPassword reports whether password matches the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func validateUsername(username string) error {
	if len(username) < 3 {
		return shared.NewValidationError("Username must be at least 3 characters")
	}
	if len(username) > 50 {
		return shared.NewValidationError("Username cannot exceed 50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewValidationError("Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return shared.NewValidationError("Password must be at least 6 characters")
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return shared.NewValidationError("Password cannot exceed 72 characters")
	}
	return nil
}
