package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/premium-entitlement/internal/lib/jwt"
	"github.com/magabrotheeeer/premium-entitlement/internal/lib/password"
	"github.com/magabrotheeeer/premium-entitlement/internal/models"
)

// MockUserRepository реализует интерфейс UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestService_Register(t *testing.T) {
	repo := new(MockUserRepository)
	maker := jwt.NewMaker("test-secret", time.Hour)

	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Username == "alice" &&
			u.Email == "alice@example.com" &&
			u.Role == "user" &&
			!u.IsPremium &&
			password.CompareHash(u.PasswordHash, "secret123") == nil
	})).Return("uid-1", nil)

	uid, err := New(repo, maker).Register(context.Background(), "alice@example.com", "alice", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
	repo.AssertExpectations(t)
}

func TestService_Login(t *testing.T) {
	maker := jwt.NewMaker("test-secret", time.Hour)
	hashed, err := password.GetHash("secret123")
	require.NoError(t, err)

	t.Run("успешный вход возвращает валидный токен", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetUserByUsername", mock.Anything, "alice").Return(&models.User{
			UUID:         "uid-1",
			Username:     "alice",
			PasswordHash: hashed,
			Role:         "user",
		}, nil)

		service := New(repo, maker)
		token, role, err := service.Login(context.Background(), "alice", "secret123")

		require.NoError(t, err)
		assert.Equal(t, "user", role)

		user, err := service.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "uid-1", user.UUID)
	})

	t.Run("неверный пароль", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetUserByUsername", mock.Anything, "alice").Return(&models.User{
			Username:     "alice",
			PasswordHash: hashed,
		}, nil)

		_, _, err := New(repo, maker).Login(context.Background(), "alice", "wrongpass")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("неизвестный пользователь", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, errors.New("not found"))

		_, _, err := New(repo, maker).Login(context.Background(), "ghost", "secret123")

		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestService_ValidateToken(t *testing.T) {
	maker := jwt.NewMaker("test-secret", time.Hour)
	service := New(new(MockUserRepository), maker)

	_, err := service.ValidateToken(context.Background(), "not-a-token")
	require.Error(t, err)

	otherMaker := jwt.NewMaker("other-secret", time.Hour)
	token, err := otherMaker.GenerateToken("alice", "user", "uid-1")
	require.NoError(t, err)

	_, err = service.ValidateToken(context.Background(), token)
	require.Error(t, err, "токен с чужим секретом отклоняется")
}
