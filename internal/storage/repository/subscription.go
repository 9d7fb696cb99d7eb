package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/premium-entitlement/internal/models"
)

// UpsertPending переводит подписку пользователя в состояние PENDING,
// очищая следы предыдущего платежа. Повторные попытки оплаты всегда
// начинаются с чистого состояния.
func (s *Storage) UpsertPending(ctx context.Context, userUID, plan string) error {
	const op = "storage.UpsertPending"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (user_uid, plan, status, external_transaction_id, current_period_end)
			  VALUES ($1, $2, 'PENDING', NULL, to_timestamp(0))
			  ON CONFLICT (user_uid) DO UPDATE
			  SET plan = EXCLUDED.plan,
			      status = 'PENDING',
			      external_transaction_id = NULL,
			      current_period_end = to_timestamp(0)`
	if _, err := s.DB.ExecContext(ctx, query, userUID, plan); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetSubscription возвращает подписку пользователя.
// Если подписки нет, возвращает nil без ошибки.
func (s *Storage) GetSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_uid, plan, status, external_transaction_id, current_period_end
			  FROM subscriptions
			  WHERE user_uid = $1`
	row := s.DB.QueryRowContext(ctx, query, userUID)

	sub := &models.Subscription{}
	var externalTransactionID sql.NullString
	if err := row.Scan(&sub.UserUID, &sub.Plan, &sub.Status,
		&externalTransactionID, &sub.CurrentPeriodEnd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if externalTransactionID.Valid {
		sub.ExternalTransactionID = &externalTransactionID.String
	}
	return sub, nil
}

// Activate атомарно активирует подписку пользователя и выставляет его премиум-флаг.
//
// Обе записи выполняются в одной транзакции: либо подписка стала ACTIVE
// и пользователь премиум, либо не изменилось ничего. Строка подписки
// блокируется на время транзакции, поэтому два одновременных колбэка
// по одному пользователю сериализуются.
//
// externalTransactionID — ключ идемпотентности: если он уже записан
// для этой подписки, возвращается (false, nil) и период не продлевается.
func (s *Storage) Activate(ctx context.Context, userUID, plan, externalTransactionID string, periodEnd time.Time) (bool, error) {
	const op = "storage.Activate"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var storedID sql.NullString
	query := `SELECT external_transaction_id FROM subscriptions WHERE user_uid = $1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, userUID).Scan(&storedID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if storedID.Valid && storedID.String == externalTransactionID {
		// Повторная доставка уже обработанного платежа.
		if err = tx.Commit(); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return false, nil
	}

	query = `INSERT INTO subscriptions (user_uid, plan, status, external_transaction_id, current_period_end)
			 VALUES ($1, $2, 'ACTIVE', $3, $4)
			 ON CONFLICT (user_uid) DO UPDATE
			 SET plan = EXCLUDED.plan,
			     status = 'ACTIVE',
			     external_transaction_id = EXCLUDED.external_transaction_id,
			     current_period_end = EXCLUDED.current_period_end`
	if _, err = tx.ExecContext(ctx, query, userUID, plan, externalTransactionID, periodEnd); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	result, err := tx.ExecContext(ctx, `UPDATE users SET is_premium = TRUE WHERE uid = $1`, userUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return false, fmt.Errorf("%s: user %s not found", op, userUID)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}
