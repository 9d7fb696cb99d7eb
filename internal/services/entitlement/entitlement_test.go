package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/premium-entitlement/internal/models"
)

// MockRepository реализует интерфейс Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetUserWithSubscription(ctx context.Context, userUID string) (*models.User, *models.Subscription, error) {
	args := m.Called(ctx, userUID)
	var user *models.User
	var sub *models.Subscription
	if res := args.Get(0); res != nil {
		user = res.(*models.User)
	}
	if res := args.Get(1); res != nil {
		sub = res.(*models.Subscription)
	}
	return user, sub, args.Error(2)
}

func (m *MockRepository) SetPremiumFlag(ctx context.Context, userUID string, premium bool) error {
	args := m.Called(ctx, userUID, premium)
	return args.Error(0)
}

// MockCache реализует интерфейс Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func TestService_Resolve(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	const userUID = "a1b2c3d4-0000-0000-0000-000000000001"
	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)

	newService := func(repo *MockRepository, cacheMock *MockCache) *Service {
		s := New(repo, cacheMock, logger)
		s.now = func() time.Time { return now }
		return s
	}

	cacheMiss := func(cacheMock *MockCache) {
		cacheMock.On("Get", "entitlement:"+userUID, mock.Anything).Return(false, nil)
		cacheMock.On("Set", "entitlement:"+userUID, mock.Anything, mock.Anything).Return(nil)
	}

	t.Run("действующий премиум возвращается как есть", func(t *testing.T) {
		repo := new(MockRepository)
		cacheMock := new(MockCache)
		cacheMiss(cacheMock)

		repo.On("GetUserWithSubscription", mock.Anything, userUID).Return(
			&models.User{UUID: userUID, IsPremium: true},
			&models.Subscription{
				UserUID:          userUID,
				Plan:             models.PlanMonthly,
				Status:           models.StatusActive,
				CurrentPeriodEnd: now.AddDate(0, 0, 10),
			}, nil)

		resolved, err := newService(repo, cacheMock).Resolve(context.Background(), userUID)

		require.NoError(t, err)
		assert.True(t, resolved.User.IsPremium)
		repo.AssertNotCalled(t, "SetPremiumFlag", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("обычный пользователь без подписки не трогает хранилище", func(t *testing.T) {
		repo := new(MockRepository)
		cacheMock := new(MockCache)
		cacheMiss(cacheMock)

		repo.On("GetUserWithSubscription", mock.Anything, userUID).Return(
			&models.User{UUID: userUID, IsPremium: false}, nil, nil)

		resolved, err := newService(repo, cacheMock).Resolve(context.Background(), userUID)

		require.NoError(t, err)
		assert.False(t, resolved.User.IsPremium)
		repo.AssertNotCalled(t, "SetPremiumFlag", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("истекший период снимает премиум-флаг", func(t *testing.T) {
		repo := new(MockRepository)
		cacheMock := new(MockCache)
		cacheMiss(cacheMock)

		repo.On("GetUserWithSubscription", mock.Anything, userUID).Return(
			&models.User{UUID: userUID, IsPremium: true},
			&models.Subscription{
				UserUID:          userUID,
				Plan:             models.PlanMonthly,
				Status:           models.StatusActive,
				CurrentPeriodEnd: now.Add(-time.Minute),
			}, nil)
		repo.On("SetPremiumFlag", mock.Anything, userUID, false).Return(nil)
		cacheMock.On("Invalidate", "entitlement:"+userUID).Return(nil)

		resolved, err := newService(repo, cacheMock).Resolve(context.Background(), userUID)

		require.NoError(t, err)
		assert.False(t, resolved.User.IsPremium)
		repo.AssertExpectations(t)
		cacheMock.AssertExpectations(t)
	})

	t.Run("премиум-флаг без подписки корректируется", func(t *testing.T) {
		repo := new(MockRepository)
		cacheMock := new(MockCache)
		cacheMiss(cacheMock)

		repo.On("GetUserWithSubscription", mock.Anything, userUID).Return(
			&models.User{UUID: userUID, IsPremium: true}, nil, nil)
		repo.On("SetPremiumFlag", mock.Anything, userUID, false).Return(nil)
		cacheMock.On("Invalidate", mock.Anything).Return(nil)

		resolved, err := newService(repo, cacheMock).Resolve(context.Background(), userUID)

		require.NoError(t, err)
		assert.False(t, resolved.User.IsPremium)
	})

	t.Run("сбой записи коррекции все равно снимает флаг в ответе", func(t *testing.T) {
		repo := new(MockRepository)
		cacheMock := new(MockCache)
		cacheMiss(cacheMock)

		repo.On("GetUserWithSubscription", mock.Anything, userUID).Return(
			&models.User{UUID: userUID, IsPremium: true},
			&models.Subscription{
				UserUID:          userUID,
				Plan:             models.PlanMonthly,
				Status:           models.StatusActive,
				CurrentPeriodEnd: now.Add(-time.Hour),
			}, nil)
		repo.On("SetPremiumFlag", mock.Anything, userUID, false).Return(errors.New("db down"))

		resolved, err := newService(repo, cacheMock).Resolve(context.Background(), userUID)

		require.NoError(t, err)
		assert.False(t, resolved.User.IsPremium)
		cacheMock.AssertNotCalled(t, "Invalidate", mock.Anything)
	})

	t.Run("ошибка чтения пользователя возвращается наружу", func(t *testing.T) {
		repo := new(MockRepository)
		cacheMock := new(MockCache)
		cacheMock.On("Get", mock.Anything, mock.Anything).Return(false, nil)

		repo.On("GetUserWithSubscription", mock.Anything, userUID).Return(nil, nil, errors.New("db down"))

		_, err := newService(repo, cacheMock).Resolve(context.Background(), userUID)

		require.Error(t, err)
	})

	t.Run("устаревший премиум из кеша тоже корректируется", func(t *testing.T) {
		repo := new(MockRepository)
		cacheMock := new(MockCache)

		cacheMock.On("Get", "entitlement:"+userUID, mock.Anything).
			Run(func(args mock.Arguments) {
				target := args.Get(1).(**Resolved)
				*target = &Resolved{
					User: models.User{UUID: userUID, IsPremium: true},
					Subscription: &models.Subscription{
						UserUID:          userUID,
						Plan:             models.PlanMonthly,
						Status:           models.StatusActive,
						CurrentPeriodEnd: now.Add(-time.Minute),
					},
				}
			}).Return(true, nil)
		repo.On("SetPremiumFlag", mock.Anything, userUID, false).Return(nil)
		cacheMock.On("Invalidate", "entitlement:"+userUID).Return(nil)

		resolved, err := newService(repo, cacheMock).Resolve(context.Background(), userUID)

		require.NoError(t, err)
		assert.False(t, resolved.User.IsPremium)
		repo.AssertNotCalled(t, "GetUserWithSubscription", mock.Anything, mock.Anything)
	})

	t.Run("сбой кеша не мешает чтению из хранилища", func(t *testing.T) {
		repo := new(MockRepository)
		cacheMock := new(MockCache)

		cacheMock.On("Get", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
		cacheMock.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
		repo.On("GetUserWithSubscription", mock.Anything, userUID).Return(
			&models.User{UUID: userUID, IsPremium: false}, nil, nil)

		resolved, err := newService(repo, cacheMock).Resolve(context.Background(), userUID)

		require.NoError(t, err)
		assert.False(t, resolved.User.IsPremium)
	})
}
