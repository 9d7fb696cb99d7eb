package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его UID
func (f *TestDataFactory) CreateUser(t *testing.T, username, email string, isPremium bool) string {
	userUID := uuid.New().String()
	_, err := f.storage.DB.Exec(`INSERT INTO users (uid, username, email, password_hash, role, is_premium)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		userUID, username, email, "hashedpassword", "user", isPremium)
	require.NoError(t, err)
	return userUID
}

// CreateSubscription создает подписку пользователя в заданном статусе
func (f *TestDataFactory) CreateSubscription(t *testing.T, userUID, plan, status string,
	externalTransactionID *string, currentPeriodEnd time.Time) {
	_, err := f.storage.DB.Exec(`INSERT INTO subscriptions
		(user_uid, plan, status, external_transaction_id, current_period_end)
		VALUES ($1, $2, $3, $4, $5)`,
		userUID, plan, status, externalTransactionID, currentPeriodEnd)
	require.NoError(t, err)
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifyPremiumFlag проверяет премиум-флаг пользователя в БД
func (v *TestVerification) VerifyPremiumFlag(t *testing.T, userUID string, expected bool) {
	var isPremium bool
	err := v.storage.DB.QueryRow("SELECT is_premium FROM users WHERE uid = $1", userUID).Scan(&isPremium)
	require.NoError(t, err)
	require.Equal(t, expected, isPremium)
}

// VerifySubscription проверяет статус и ID транзакции подписки пользователя
func (v *TestVerification) VerifySubscription(t *testing.T, userUID, expectedStatus string, expectedTxID *string) {
	var status string
	var txID *string
	err := v.storage.DB.QueryRow(
		"SELECT status, external_transaction_id FROM subscriptions WHERE user_uid = $1", userUID).
		Scan(&status, &txID)
	require.NoError(t, err)
	require.Equal(t, expectedStatus, status)
	if expectedTxID == nil {
		require.Nil(t, txID)
	} else {
		require.NotNil(t, txID)
		require.Equal(t, *expectedTxID, *txID)
	}
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	postgresContainer, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(3*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for i := 0; i < 10; i++ {
		storage, err = New(connStr)
		if err == nil {
			err = storage.DB.Ping()
			if err == nil {
				break
			}
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "failed to create storage after retries")

	// Создаем таблицы
	_, err = storage.DB.Exec(`
        DROP TABLE IF EXISTS subscriptions CASCADE;
        DROP TABLE IF EXISTS users CASCADE;

        CREATE EXTENSION IF NOT EXISTS "pgcrypto";

        CREATE TABLE users (
            uid UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            email TEXT NOT NULL UNIQUE,
            username TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'user',
            is_premium BOOLEAN NOT NULL DEFAULT FALSE
        );

        CREATE TABLE subscriptions (
            user_uid UUID PRIMARY KEY REFERENCES users(uid) ON DELETE CASCADE,
            plan TEXT NOT NULL CHECK (plan IN ('MONTHLY', 'YEARLY')),
            status TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'ACTIVE')),
            external_transaction_id TEXT,
            current_period_end TIMESTAMPTZ NOT NULL DEFAULT to_timestamp(0)
        );

        CREATE INDEX idx_subscriptions_external_transaction_id
            ON subscriptions(external_transaction_id);
    `)
	require.NoError(t, err, "failed to create tables")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		if postgresContainer != nil {
			_ = postgresContainer.Terminate(ctx)
		}
	}

	return storage, cleanup
}
