package identity

import (
	"context"
	"errors"

	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// ErrUsernameTaken is returned when registering an existing username
var ErrUsernameTaken = shared.NewConflictError("Username already exists")

// AuthService handles registration and login
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo identity.UserRepository, jwtService *auth.JWTService, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

// Register creates an account and signs the user in
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Error("Failed to check username", zap.Error(err))
		return nil, shared.NewInternalError("Failed to register user", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	user, err := identity.NewUser(input.Name, input.Username, input.Password)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		s.logger.Error("Failed to create user", zap.Error(err))
		return nil, shared.AsInternal(err, "Failed to register user")
	}

	s.logger.Info("User registered",
		zap.String("username", user.Username),
		zap.Int64("user_id", user.ID))

	return s.issue(user)
}

// Login authenticates a user by username and password
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("User not found during login", zap.String("username", input.Username))
			return nil, shared.NewNotFoundError("User with username %s not found", input.Username)
		}
		s.logger.Error("Failed to load user", zap.Error(err))
		return nil, shared.AsInternal(err, "Failed to log in")
	}

	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", input.Username))
		return nil, shared.ErrInvalidCredentials
	}

	s.logger.Info("User logged in successfully",
		zap.String("username", user.Username),
		zap.Int64("user_id", user.ID))

	return s.issue(user)
}

func (s *AuthService) issue(user *identity.User) (*AuthResult, error) {
	token, err := s.jwtService.GenerateToken(user.ID, user.Username)
	if err != nil {
		s.logger.Error("Failed to generate token", zap.Error(err))
		return nil, shared.NewInternalError("Failed to generate authentication token", err)
	}
	return &AuthResult{
		User:  UserInfo{ID: user.ID, Name: user.Name},
		Token: token.AccessToken,
	}, nil
}
