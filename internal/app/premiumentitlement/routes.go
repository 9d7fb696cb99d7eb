package premiumentitlement

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/premium-entitlement/internal/config"
	"github.com/magabrotheeeer/premium-entitlement/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/premium-entitlement/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/premium-entitlement/internal/http/handlers/health"
	"github.com/magabrotheeeer/premium-entitlement/internal/http/handlers/payment/confirm"
	"github.com/magabrotheeeer/premium-entitlement/internal/http/handlers/payment/subscribe"
	"github.com/magabrotheeeer/premium-entitlement/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/premium-entitlement/internal/http/handlers/premium/status"
	"github.com/magabrotheeeer/premium-entitlement/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/premium-entitlement/internal/services/auth"
	entitlementservice "github.com/magabrotheeeer/premium-entitlement/internal/services/entitlement"
	paymentservice "github.com/magabrotheeeer/premium-entitlement/internal/services/payment"
	"github.com/magabrotheeeer/premium-entitlement/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	cfg *config.Config,
	db *repository.Storage,
	authService *authservice.Service,
	entitlementService *entitlementservice.Service,
	initiator *paymentservice.Initiator,
	activator *paymentservice.Activator,
) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	// Лимитеры раздельные: анонимные запросы считаются по адресу клиента,
	// аутентифицированные по UID пользователя.
	openLimiter := middlewarectx.NewLimiterStore(rate.Limit(5), 10)
	userLimiter := middlewarectx.NewLimiterStore(rate.Limit(10), 20)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(openLimiter, middlewarectx.KeyByRemoteAddr, logger))
			r.Post("/register", register.New(logger, authService).ServeHTTP)
			r.Post("/login", login.New(logger, authService).ServeHTTP)
		})

		// Группа с JWT аутентификацией и разрешением энтайтлмента
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.EntitlementMiddleware(entitlementService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(userLimiter, middlewarectx.KeyByUserUID, logger))
			r.Post("/payments/subscribe", subscribe.New(logger, initiator).ServeHTTP)
			r.Get("/payments/confirm", confirm.New(logger, activator, cfg.PaymentGateway).ServeHTTP)
			r.Get("/users/premium", status.New(logger).ServeHTTP)
		})

		// Колбэк шлюза: без аутентификации, подлинность проверяется подписью
		r.Post("/payments/webhook", webhook.New(logger, activator, cfg.SecretKey).ServeHTTP)
	})

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
