package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/premium-entitlement/internal/models"
)

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его ID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (email, username, password_hash, role, is_premium)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role, user.IsPremium).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, is_premium
			  FROM users
			  WHERE username = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, username)

	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.IsPremium); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, is_premium
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userUID)

	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.IsPremium); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserWithSubscription возвращает пользователя вместе с его подпиской одним запросом.
// Если подписки нет, вторым значением возвращается nil.
func (s *Storage) GetUserWithSubscription(ctx context.Context, userUID string) (*models.User, *models.Subscription, error) {
	const op = "storage.GetUserWithSubscription"
	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.uid, u.email, u.username, u.password_hash, u.role, u.is_premium,
			      s.user_uid, s.plan, s.status, s.external_transaction_id, s.current_period_end
			  FROM users u
			  LEFT JOIN subscriptions s ON s.user_uid = u.uid
			  WHERE u.uid = $1`
	row := s.DB.QueryRowContext(ctx, query, userUID)

	u := &models.User{}
	var subUID, plan, status, externalTransactionID sql.NullString
	var currentPeriodEnd sql.NullTime
	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &u.IsPremium,
		&subUID, &plan, &status, &externalTransactionID, &currentPeriodEnd); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !subUID.Valid {
		return u, nil, nil
	}
	sub := &models.Subscription{
		UserUID:          subUID.String,
		Plan:             plan.String,
		Status:           status.String,
		CurrentPeriodEnd: currentPeriodEnd.Time,
	}
	if externalTransactionID.Valid {
		sub.ExternalTransactionID = &externalTransactionID.String
	}
	return u, sub, nil
}

// SetPremiumFlag выставляет премиум-флаг пользователя.
// Используется ленивой коррекцией: при обнаружении истёкшей подписки
// флаг снимается при первом же чтении.
func (s *Storage) SetPremiumFlag(ctx context.Context, userUID string, premium bool) error {
	const op = "storage.SetPremiumFlag"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET is_premium = $1 WHERE uid = $2`
	result, err := s.DB.ExecContext(ctx, query, premium, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: user %s not found", op, userUID)
	}
	return nil
}
