// Package payment содержит бизнес-логику оплаты премиум-подписки:
// инициализацию платежа во внешнем шлюзе и идемпотентную активацию
// по подтверждённому результату.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/magabrotheeeer/premium-entitlement/internal/cache"
	"github.com/magabrotheeeer/premium-entitlement/internal/config"
	"github.com/magabrotheeeer/premium-entitlement/internal/lib/sl"
	"github.com/magabrotheeeer/premium-entitlement/internal/models"
	"github.com/magabrotheeeer/premium-entitlement/internal/paymentgateway"
)

// Ошибки уровня сервиса. Наружу уходит только их текст,
// настоящая причина остаётся в логах.
var (
	ErrInvalidPlan     = errors.New("invalid plan")
	ErrPaymentCreation = errors.New("payment creation failed")
)

// Стоимость планов. Сумма вычисляется только из плана,
// присланные клиентом суммы не принимаются.
const (
	amountMonthly int64 = 99000
	amountYearly  int64 = 999000
)

// PlanAmount возвращает стоимость плана.
func PlanAmount(plan string) (int64, error) {
	switch plan {
	case models.PlanMonthly:
		return amountMonthly, nil
	case models.PlanYearly:
		return amountYearly, nil
	default:
		return 0, ErrInvalidPlan
	}
}

// PendingRepository описывает контракт записи PENDING-подписки.
type PendingRepository interface {
	UpsertPending(ctx context.Context, userUID, plan string) error
}

// GatewayClient описывает контракт клиента платёжного шлюза.
type GatewayClient interface {
	CreateIntent(ctx context.Context, req paymentgateway.CreateIntentRequest) (*paymentgateway.CreateIntentResponse, error)
}

// Invalidator описывает инвалидацию кеша энтайтлмента.
type Invalidator interface {
	Invalidate(key string) error
}

// Initiator создаёт платёжное намерение и PENDING-подписку.
type Initiator struct {
	repo    PendingRepository
	gateway GatewayClient
	cache   Invalidator
	cfg     config.PaymentGateway
	log     *slog.Logger
}

// NewInitiator создаёт новый Initiator.
func NewInitiator(repo PendingRepository, gateway GatewayClient, cache Invalidator, cfg config.PaymentGateway, log *slog.Logger) *Initiator {
	return &Initiator{
		repo:    repo,
		gateway: gateway,
		cache:   cache,
		cfg:     cfg,
		log:     log,
	}
}

// InitiatePayment создаёт платёжное намерение для пользователя и плана,
// переводит подписку в PENDING и возвращает URL для редиректа плательщика.
//
// Опорный номер заказа кодирует пользователя и момент попытки, чтобы колбэк
// шлюза можно было сопоставить обратно с пользователем.
func (i *Initiator) InitiatePayment(ctx context.Context, userUID, plan string) (string, error) {
	const op = "services.payment.InitiatePayment"
	log := i.log.With(slog.String("op", op), slog.String("user_uid", userUID))

	amount, err := PlanAmount(plan)
	if err != nil {
		return "", err
	}

	orderRef := fmt.Sprintf("ORDER_%s_%d", userUID, time.Now().UnixMilli())
	extraData := url.Values{
		"userId": {userUID},
		"plan":   {plan},
	}.Encode()

	resp, err := i.gateway.CreateIntent(ctx, paymentgateway.CreateIntentRequest{
		Amount:      amount,
		OrderID:     orderRef,
		OrderInfo:   "Subscription for " + plan,
		RedirectURL: i.cfg.RedirectURL,
		IpnURL:      i.cfg.CallbackURL,
		ExtraData:   extraData,
	})
	if err != nil {
		log.Error("gateway intent creation failed", sl.Err(err), slog.String("order_ref", orderRef))
		return "", ErrPaymentCreation
	}

	if err := i.repo.UpsertPending(ctx, userUID, plan); err != nil {
		// Шлюз уже подтвердил намерение, а локальная запись не прошла:
		// такой платёж требует ручной сверки, номер заказа уходит в лог.
		log.Error("reconciliation required: intent created but pending upsert failed",
			sl.Err(err), slog.String("order_ref", orderRef), slog.String("plan", plan))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := i.cache.Invalidate(cache.EntitlementKey(userUID)); err != nil {
		log.Warn("failed to invalidate entitlement cache", sl.Err(err))
	}

	log.Info("payment intent created", slog.String("order_ref", orderRef), slog.String("plan", plan))
	return resp.PayURL, nil
}
