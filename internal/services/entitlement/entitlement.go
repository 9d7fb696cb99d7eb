// Package entitlement реализует разрешение премиум-энтайтлмента сессии.
//
// Сервис вызывается на каждом аутентифицированном запросе и гарантирует,
// что возвращённый премиум-флаг согласован с хранимым концом оплаченного
// периода на момент чтения. Истечение подписки никем не отслеживается
// по таймеру: устаревший флаг корректируется лениво, при первом же чтении.
package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/premium-entitlement/internal/cache"
	"github.com/magabrotheeeer/premium-entitlement/internal/lib/sl"
	"github.com/magabrotheeeer/premium-entitlement/internal/metrics"
	"github.com/magabrotheeeer/premium-entitlement/internal/models"
)

const cacheTTL = 5 * time.Minute

// Repository описывает контракт чтения пользователя с подпиской
// и коррекции премиум-флага.
type Repository interface {
	GetUserWithSubscription(ctx context.Context, userUID string) (*models.User, *models.Subscription, error)
	SetPremiumFlag(ctx context.Context, userUID string, premium bool) error
}

// Cache описывает методы для кеширования разрешённого энтайтлмента.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Resolved — результат разрешения энтайтлмента для сессии.
type Resolved struct {
	User         models.User          `json:"user"`
	Subscription *models.Subscription `json:"subscription"`
}

// Service разрешает текущий энтайтлмент пользователя.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
	now   func() time.Time
}

// New создаёт новый Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Resolve возвращает пользователя с премиум-флагом, согласованным
// с его подпиской на момент вызова.
//
// Правило коррекции: если флаг поднят, а подписки нет или её период истёк,
// флаг снимается в хранилище и для текущего вызова возвращается уже
// исправленное значение. Если запись коррекции не прошла, исправленное
// значение всё равно возвращается, а сбой уходит в лог на сверку.
func (s *Service) Resolve(ctx context.Context, userUID string) (*Resolved, error) {
	const op = "services.entitlement.Resolve"
	log := s.log.With(slog.String("op", op), slog.String("user_uid", userUID))

	key := cache.EntitlementKey(userUID)
	var resolved *Resolved
	found, err := s.cache.Get(key, &resolved)
	if err != nil {
		log.Warn("failed to read entitlement cache", sl.Err(err))
		found = false
	}
	if !found {
		user, sub, err := s.repo.GetUserWithSubscription(ctx, userUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		resolved = &Resolved{User: *user, Subscription: sub}
		if err := s.cache.Set(key, resolved, cacheTTL); err != nil {
			log.Warn("failed to cache entitlement", sl.Err(err))
		}
	}

	if s.isStale(resolved) {
		if err := s.repo.SetPremiumFlag(ctx, userUID, false); err != nil {
			// Для текущего вызова флаг всё равно снят; хранилище
			// догонит при следующем успешном чтении.
			log.Error("reconciliation required: premium flag correction failed", sl.Err(err))
		} else if err := s.cache.Invalidate(key); err != nil {
			log.Warn("failed to invalidate entitlement cache", sl.Err(err))
		}
		resolved.User.IsPremium = false
		metrics.PremiumCorrections.Inc()
		log.Info("premium flag corrected after lapse")
	}

	return resolved, nil
}

// isStale сообщает, что премиум-флаг поднят без действующей подписки.
func (s *Service) isStale(r *Resolved) bool {
	if !r.User.IsPremium {
		return false
	}
	return r.Subscription == nil || r.Subscription.CurrentPeriodEnd.Before(s.now())
}
