package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/premium-entitlement/internal/http/response"
	"github.com/magabrotheeeer/premium-entitlement/internal/lib/sl"
	"github.com/magabrotheeeer/premium-entitlement/internal/services/entitlement"
)

// EntitlementService описывает интерфейс разрешения энтайтлмента сессии.
type EntitlementService interface {
	Resolve(ctx context.Context, userUID string) (*entitlement.Resolved, error)
}

// EntitlementMiddleware разрешает премиум-энтайтлмент текущего пользователя
// на каждом аутентифицированном запросе и кладёт его в контекст.
//
// Именно здесь срабатывает ленивая коррекция устаревшего премиум-флага:
// обработчики ниже по цепочке никогда не видят флаг, противоречащий
// хранимому концу оплаченного периода на момент чтения.
func EntitlementMiddleware(service EntitlementService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.EntitlementMiddleware"
			log := log.With(slog.String("op", op))

			userUID, ok := r.Context().Value(UserUID).(string)
			if !ok || userUID == "" {
				log.Error("user identification missing")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			resolved, err := service.Resolve(r.Context(), userUID)
			if err != nil {
				log.Error("failed to resolve entitlement", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			ctx := context.WithValue(r.Context(), IsPremium, resolved.User.IsPremium)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
