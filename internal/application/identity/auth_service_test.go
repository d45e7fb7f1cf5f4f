package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/auth"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func newTestAuthService(repo identity.UserRepository) (*AuthService, *auth.JWTService) {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:     "test-secret-key-at-least-32-chars",
		Expiration: time.Hour,
		Issuer:     "test-issuer",
	})
	return NewAuthService(repo, jwtService, zap.NewNop()), jwtService
}

func createTestUser(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewUser("Alice", "alice", "secret123")
	require.NoError(t, err)
	user.ID = 5
	return user
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the user and returns a token", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, jwtService := newTestAuthService(repo)

		repo.On("ExistsByUsername", ctx, "alice").Return(false, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*identity.User")).
			Run(func(args mock.Arguments) { args.Get(1).(*identity.User).ID = 9 }).
			Return(nil)

		result, err := svc.Register(ctx, RegisterInput{Name: "Alice", Username: "alice", Password: "secret123"})

		require.NoError(t, err)
		assert.Equal(t, UserInfo{ID: 9, Name: "Alice"}, result.User)
		claims, err := jwtService.ValidateToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(9), claims.UserID)
		assert.Equal(t, "alice", claims.Username)
		repo.AssertExpectations(t)
	})

	t.Run("rejects a taken username", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _ := newTestAuthService(repo)

		repo.On("ExistsByUsername", ctx, "alice").Return(true, nil)

		_, err := svc.Register(ctx, RegisterInput{Name: "Alice", Username: "alice", Password: "secret123"})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		assert.Equal(t, "Username already exists", err.Error())
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("maps a unique violation on insert to conflict", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _ := newTestAuthService(repo)

		repo.On("ExistsByUsername", ctx, "alice").Return(false, nil)
		repo.On("Create", ctx, mock.Anything).Return(shared.NewConflictError("duplicate"))

		_, err := svc.Register(ctx, RegisterInput{Name: "Alice", Username: "alice", Password: "secret123"})

		assert.Equal(t, "Username already exists", err.Error())
	})

	t.Run("rejects a short password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _ := newTestAuthService(repo)

		repo.On("ExistsByUsername", ctx, "alice").Return(false, nil)

		_, err := svc.Register(ctx, RegisterInput{Name: "Alice", Username: "alice", Password: "123"})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _ := newTestAuthService(repo)

		repo.On("ExistsByUsername", ctx, "alice").Return(false, errors.New("connection refused"))

		_, err := svc.Register(ctx, RegisterInput{Name: "Alice", Username: "alice", Password: "secret123"})

		assert.ErrorIs(t, err, shared.ErrInternal)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _ := newTestAuthService(repo)
		repo.On("FindByUsername", ctx, "alice").Return(createTestUser(t), nil)

		result, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "secret123"})

		require.NoError(t, err)
		assert.Equal(t, int64(5), result.User.ID)
		assert.Equal(t, "Alice", result.User.Name)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _ := newTestAuthService(repo)
		repo.On("FindByUsername", ctx, "bob").Return(nil, shared.ErrNotFound)

		_, err := svc.Login(ctx, LoginInput{Username: "bob", Password: "secret123"})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, "User with username bob not found", err.Error())
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc, _ := newTestAuthService(repo)
		repo.On("FindByUsername", ctx, "alice").Return(createTestUser(t), nil)

		_, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "wrong-password"})

		assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
		assert.Equal(t, "Invalid credentials", err.Error())
	})
}
