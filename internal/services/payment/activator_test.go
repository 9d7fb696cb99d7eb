package payment

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

// MockActivationRepository реализует интерфейс ActivationRepository
type MockActivationRepository struct {
	mock.Mock
}

func (m *MockActivationRepository) Activate(ctx context.Context, userUID, plan, externalTransactionID string, periodEnd time.Time) (bool, error) {
	args := m.Called(ctx, userUID, plan, externalTransactionID, periodEnd)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivationRepository) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockNotifier реализует интерфейс Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyActivated(event models.ActivationEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func TestActivator_Activate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	const (
		userUID = "a1b2c3d4-0000-0000-0000-000000000001"
		transID = "4200042"
	)
	now := time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC)

	newActivator := func(repo *MockActivationRepository, notifier *MockNotifier, cacheMock *MockInvalidator) *Activator {
		a := NewActivator(repo, notifier, cacheMock, logger)
		a.now = func() time.Time { return now }
		return a
	}

	t.Run("успешная активация месячного плана", func(t *testing.T) {
		repo := new(MockActivationRepository)
		notifier := new(MockNotifier)
		cacheMock := new(MockInvalidator)

		wantPeriodEnd := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
		repo.On("Activate", mock.Anything, userUID, "MONTHLY", transID, wantPeriodEnd).Return(true, nil)
		repo.On("GetUser", mock.Anything, userUID).Return(&models.User{
			UUID:     userUID,
			Username: "alice",
			Email:    "alice@example.com",
		}, nil)
		notifier.On("NotifyActivated", models.ActivationEvent{
			UserUID:  userUID,
			Username: "alice",
			Email:    "alice@example.com",
			Plan:     "MONTHLY",
		}).Return(nil)
		cacheMock.On("Invalidate", "entitlement:"+userUID).Return(nil)

		activated, err := newActivator(repo, notifier, cacheMock).Activate(context.Background(), userUID, "MONTHLY", transID)

		require.NoError(t, err)
		assert.True(t, activated)
		repo.AssertExpectations(t)
		notifier.AssertExpectations(t)
		cacheMock.AssertExpectations(t)
	})

	t.Run("годовой план продлевает период на год", func(t *testing.T) {
		repo := new(MockActivationRepository)
		notifier := new(MockNotifier)
		cacheMock := new(MockInvalidator)

		wantPeriodEnd := time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)
		repo.On("Activate", mock.Anything, userUID, "YEARLY", transID, wantPeriodEnd).Return(true, nil)
		repo.On("GetUser", mock.Anything, userUID).Return(&models.User{Username: "alice", Email: "alice@example.com"}, nil)
		notifier.On("NotifyActivated", mock.Anything).Return(nil)
		cacheMock.On("Invalidate", mock.Anything).Return(nil)

		activated, err := newActivator(repo, notifier, cacheMock).Activate(context.Background(), userUID, "YEARLY", transID)

		require.NoError(t, err)
		assert.True(t, activated)
		repo.AssertExpectations(t)
	})

	t.Run("неизвестный план отклоняется до обращения к хранилищу", func(t *testing.T) {
		repo := new(MockActivationRepository)
		notifier := new(MockNotifier)
		cacheMock := new(MockInvalidator)

		_, err := newActivator(repo, notifier, cacheMock).Activate(context.Background(), userUID, "WEEKLY", transID)

		assert.ErrorIs(t, err, ErrInvalidPlan)
		repo.AssertNotCalled(t, "Activate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("повторная доставка не отправляет уведомление", func(t *testing.T) {
		repo := new(MockActivationRepository)
		notifier := new(MockNotifier)
		cacheMock := new(MockInvalidator)

		repo.On("Activate", mock.Anything, userUID, "MONTHLY", transID, mock.Anything).Return(false, nil)
		cacheMock.On("Invalidate", mock.Anything).Return(nil)

		activated, err := newActivator(repo, notifier, cacheMock).Activate(context.Background(), userUID, "MONTHLY", transID)

		require.NoError(t, err)
		assert.False(t, activated)
		notifier.AssertNotCalled(t, "NotifyActivated", mock.Anything)
		repo.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})

	t.Run("ошибка хранилища возвращается наружу", func(t *testing.T) {
		repo := new(MockActivationRepository)
		notifier := new(MockNotifier)
		cacheMock := new(MockInvalidator)

		repo.On("Activate", mock.Anything, userUID, "MONTHLY", transID, mock.Anything).
			Return(false, errors.New("db down"))

		_, err := newActivator(repo, notifier, cacheMock).Activate(context.Background(), userUID, "MONTHLY", transID)

		require.Error(t, err)
		notifier.AssertNotCalled(t, "NotifyActivated", mock.Anything)
	})

	t.Run("сбой уведомления не ломает активацию", func(t *testing.T) {
		repo := new(MockActivationRepository)
		notifier := new(MockNotifier)
		cacheMock := new(MockInvalidator)

		repo.On("Activate", mock.Anything, userUID, "MONTHLY", transID, mock.Anything).Return(true, nil)
		repo.On("GetUser", mock.Anything, userUID).Return(&models.User{Username: "alice", Email: "alice@example.com"}, nil)
		notifier.On("NotifyActivated", mock.Anything).Return(errors.New("rabbitmq down"))
		cacheMock.On("Invalidate", mock.Anything).Return(nil)

		activated, err := newActivator(repo, notifier, cacheMock).Activate(context.Background(), userUID, "MONTHLY", transID)

		require.NoError(t, err)
		assert.True(t, activated)
	})

	t.Run("пользователь без email активируется без уведомления", func(t *testing.T) {
		repo := new(MockActivationRepository)
		notifier := new(MockNotifier)
		cacheMock := new(MockInvalidator)

		repo.On("Activate", mock.Anything, userUID, "MONTHLY", transID, mock.Anything).Return(true, nil)
		repo.On("GetUser", mock.Anything, userUID).Return(&models.User{Username: "alice"}, nil)
		cacheMock.On("Invalidate", mock.Anything).Return(nil)

		activated, err := newActivator(repo, notifier, cacheMock).Activate(context.Background(), userUID, "MONTHLY", transID)

		require.NoError(t, err)
		assert.True(t, activated)
		notifier.AssertNotCalled(t, "NotifyActivated", mock.Anything)
	})
}
