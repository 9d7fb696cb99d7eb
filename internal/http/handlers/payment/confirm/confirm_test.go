package confirm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/premium-entitlement/internal/config"
	"github.com/magabrotheeeer/premium-entitlement/internal/http/middlewarectx"
)

// MockService реализует интерфейс confirm.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Activate(ctx context.Context, userUID, plan, externalTransactionID string) (bool, error) {
	args := m.Called(ctx, userUID, plan, externalTransactionID)
	return args.Bool(0), args.Error(1)
}

func TestConfirmHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := config.PaymentGateway{
		SuccessURL: "https://app.example.com/premium/success",
		FailureURL: "https://app.example.com/premium/failure",
	}
	const userUID = "a1b2c3d4-0000-0000-0000-000000000001"

	tests := []struct {
		name         string
		url          string
		withUID      bool
		setupMock    func(*MockService)
		wantRedirect string
	}{
		{
			name:    "успешный возврат активирует подписку",
			url:     "/payments/confirm?resultCode=0&transId=4200042&plan=MONTHLY",
			withUID: true,
			setupMock: func(m *MockService) {
				m.On("Activate", mock.Anything, userUID, "MONTHLY", "4200042").Return(true, nil)
			},
			wantRedirect: cfg.SuccessURL,
		},
		{
			name:    "дубликат после колбэка тоже ведет на успех",
			url:     "/payments/confirm?resultCode=0&transId=4200042&plan=MONTHLY",
			withUID: true,
			setupMock: func(m *MockService) {
				m.On("Activate", mock.Anything, userUID, "MONTHLY", "4200042").Return(false, nil)
			},
			wantRedirect: cfg.SuccessURL,
		},
		{
			name:         "неуспешный код результата",
			url:          "/payments/confirm?resultCode=1006&transId=4200042&plan=MONTHLY",
			withUID:      true,
			setupMock:    func(_ *MockService) {},
			wantRedirect: cfg.FailureURL,
		},
		{
			name:         "возврат без ID транзакции",
			url:          "/payments/confirm?resultCode=0&plan=MONTHLY",
			withUID:      true,
			setupMock:    func(_ *MockService) {},
			wantRedirect: cfg.FailureURL,
		},
		{
			name:         "возврат без пользователя в контексте",
			url:          "/payments/confirm?resultCode=0&transId=4200042&plan=MONTHLY",
			withUID:      false,
			setupMock:    func(_ *MockService) {},
			wantRedirect: cfg.FailureURL,
		},
		{
			name:    "ошибка активации",
			url:     "/payments/confirm?resultCode=0&transId=4200042&plan=MONTHLY",
			withUID: true,
			setupMock: func(m *MockService) {
				m.On("Activate", mock.Anything, userUID, "MONTHLY", "4200042").
					Return(false, errors.New("db down"))
			},
			wantRedirect: cfg.FailureURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService, cfg)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.withUID {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, userUID))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, tt.wantRedirect, w.Header().Get("Location"))
			mockService.AssertExpectations(t)
		})
	}
}
