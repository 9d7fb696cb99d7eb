package middlewarectx

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/premium-entitlement/internal/http/response"
)

// LimiterStore хранит лимитеры по ключу (пользователь или адрес клиента).
// Хранилище передаётся в middleware явно, а не прячется в глобальной
// переменной пакета, и защищено собственным мьютексом.
type LimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewLimiterStore создаёт хранилище лимитеров с заданной скоростью и burst.
func NewLimiterStore(r rate.Limit, burst int) *LimiterStore {
	return &LimiterStore{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

// Allow сообщает, разрешён ли очередной запрос для ключа.
func (s *LimiterStore) Allow(key string) bool {
	s.mu.Lock()
	limiter, ok := s.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(s.rate, s.burst)
		s.limiters[key] = limiter
	}
	s.mu.Unlock()
	return limiter.Allow()
}

// RateLimitMiddleware ограничивает частоту запросов по ключу,
// извлекаемому из запроса функцией keyFn.
func RateLimitMiddleware(store *LimiterStore, keyFn func(*http.Request) string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if !store.Allow(key) {
				log.Warn("too many requests", slog.String("key", key))
				w.WriteHeader(http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// KeyByUserUID извлекает ключ лимитера из контекста аутентифицированного запроса,
// с откатом на адрес клиента для неаутентифицированных запросов.
func KeyByUserUID(r *http.Request) string {
	if uid, ok := r.Context().Value(UserUID).(string); ok && uid != "" {
		return uid
	}
	return r.RemoteAddr
}

// KeyByRemoteAddr извлекает ключ лимитера из адреса клиента.
func KeyByRemoteAddr(r *http.Request) string {
	return r.RemoteAddr
}
