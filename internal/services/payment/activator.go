package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/premium-entitlement/internal/cache"
	"github.com/magabrotheeeer/premium-entitlement/internal/lib/period"
	"github.com/magabrotheeeer/premium-entitlement/internal/lib/sl"
	"github.com/magabrotheeeer/premium-entitlement/internal/models"
)

// ActivationRepository описывает контракт атомарной активации подписки.
type ActivationRepository interface {
	// Activate активирует подписку и премиум-флаг в одной транзакции.
	// Возвращает false без ошибки, если externalTransactionID уже обработан.
	Activate(ctx context.Context, userUID, plan, externalTransactionID string, periodEnd time.Time) (bool, error)
	// GetUser возвращает пользователя по UID.
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Notifier описывает отправку уведомления об активации.
type Notifier interface {
	NotifyActivated(event models.ActivationEvent) error
}

// Activator выполняет идемпотентную активацию подписки.
//
// Обе входные точки — серверный колбэк шлюза и возврат браузера —
// сходятся на одном Activate, поэтому двойное зачисление одного платежа
// исключено общим ключом идемпотентности.
type Activator struct {
	repo     ActivationRepository
	notifier Notifier
	cache    Invalidator
	log      *slog.Logger
	now      func() time.Time
}

// NewActivator создаёт новый Activator.
func NewActivator(repo ActivationRepository, notifier Notifier, cache Invalidator, log *slog.Logger) *Activator {
	return &Activator{
		repo:     repo,
		notifier: notifier,
		cache:    cache,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Activate переводит подписку пользователя в ACTIVE со свежим концом периода
// и выставляет премиум-флаг. Возвращает false без ошибки для повторной
// доставки уже обработанной транзакции.
//
// Уведомление об активации отправляется по принципу fire-and-forget:
// его сбой логируется и не влияет на результат.
func (a *Activator) Activate(ctx context.Context, userUID, plan, externalTransactionID string) (bool, error) {
	const op = "services.payment.Activate"
	log := a.log.With(slog.String("op", op), slog.String("user_uid", userUID))

	if period.Months(plan) == 0 {
		return false, ErrInvalidPlan
	}
	periodEnd := period.End(plan, a.now())

	activated, err := a.repo.Activate(ctx, userUID, plan, externalTransactionID, periodEnd)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := a.cache.Invalidate(cache.EntitlementKey(userUID)); err != nil {
		log.Warn("failed to invalidate entitlement cache", sl.Err(err))
	}

	if !activated {
		log.Info("duplicate activation ignored", slog.String("external_transaction_id", externalTransactionID))
		return false, nil
	}

	log.Info("subscription activated",
		slog.String("plan", plan),
		slog.String("external_transaction_id", externalTransactionID),
		slog.Time("current_period_end", periodEnd))

	user, err := a.repo.GetUser(ctx, userUID)
	if err != nil {
		log.Error("failed to load user for activation notification", sl.Err(err))
		return true, nil
	}
	if user.Email == "" {
		log.Error("user email is missing, cannot send activation notification")
		return true, nil
	}
	if err := a.notifier.NotifyActivated(models.ActivationEvent{
		UserUID:  userUID,
		Username: user.Username,
		Email:    user.Email,
		Plan:     plan,
	}); err != nil {
		log.Error("failed to publish activation notification", sl.Err(err))
	}
	return true, nil
}
