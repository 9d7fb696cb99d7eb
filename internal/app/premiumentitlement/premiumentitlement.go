// Package premiumentitlement собирает основное приложение:
// хранилище, кеш, очередь уведомлений, сервисы и HTTP-сервер.
package premiumentitlement

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/premium-entitlement/internal/cache"
	"github.com/magabrotheeeer/premium-entitlement/internal/config"
	"github.com/magabrotheeeer/premium-entitlement/internal/lib/jwt"
	"github.com/magabrotheeeer/premium-entitlement/internal/migrations"
	"github.com/magabrotheeeer/premium-entitlement/internal/paymentgateway"
	"github.com/magabrotheeeer/premium-entitlement/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/premium-entitlement/internal/services/auth"
	entitlementservice "github.com/magabrotheeeer/premium-entitlement/internal/services/entitlement"
	paymentservice "github.com/magabrotheeeer/premium-entitlement/internal/services/payment"
	"github.com/magabrotheeeer/premium-entitlement/internal/storage/repository"
)

// App инкапсулирует зависимости и жизненный цикл HTTP-сервера.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	rabbitConn *amqp.Connection
	rabbitCh   *amqp.Channel
}

// New создаёт и связывает все зависимости приложения.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	rabbitCh, err := rabbitmq.SetupChannel(rabbitConn)
	if err != nil {
		_ = rabbitConn.Close()
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(rabbitCh)

	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	gatewayClient := paymentgateway.NewClient(cfg.PaymentGateway)

	authService := authservice.New(db, jwtMaker)
	entitlementService := entitlementservice.New(db, cacheRedis, logger)
	initiator := paymentservice.NewInitiator(db, gatewayClient, cacheRedis, cfg.PaymentGateway, logger)
	activator := paymentservice.NewActivator(db, publisher, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, db, authService, entitlementService, initiator, activator)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		rabbitConn: rabbitConn,
		rabbitCh:   rabbitCh,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста
// или ошибки сервера, после чего корректно освобождает ресурсы.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.rabbitCh.Close()
		_ = a.rabbitConn.Close()
		_ = a.db.DB.Close()
		return err
	}
}
