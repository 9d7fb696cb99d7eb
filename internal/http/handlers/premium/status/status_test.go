package status

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/premium-entitlement/internal/http/middlewarectx"
)

func TestStatusHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		ctxValue       any
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "премиум-пользователь",
			ctxValue:       true,
			expectedStatus: http.StatusOK,
			expectedBody:   `"is_premium":true`,
		},
		{
			name:           "обычный пользователь",
			ctxValue:       false,
			expectedStatus: http.StatusOK,
			expectedBody:   `"is_premium":false`,
		},
		{
			name:           "энтайтлмент не разрешен",
			ctxValue:       nil,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := New(logger)

			req := httptest.NewRequest(http.MethodGet, "/users/premium", nil)
			if tt.ctxValue != nil {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.IsPremium, tt.ctxValue))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}
