package models

import "time"

// Планы подписки и статусы жизненного цикла.
const (
	PlanMonthly = "MONTHLY"
	PlanYearly  = "YEARLY"

	StatusPending = "PENDING"
	StatusActive  = "ACTIVE"
)

// Subscription представляет подписку пользователя, не более одной на пользователя.
//
// Запись создаётся в статусе PENDING при инициализации оплаты и переводится
// в ACTIVE по подтверждённому колбэку шлюза. Истечение подписки не меняет
// статус: оно выражается прошедшей датой CurrentPeriodEnd и отражается
// в премиум-флаге пользователя лениво, при очередном чтении.
type Subscription struct {
	UserUID               string    // Владелец подписки, один-к-одному с users.uid
	Plan                  string    // MONTHLY или YEARLY
	Status                string    // PENDING или ACTIVE
	ExternalTransactionID *string   // ID транзакции шлюза, ключ идемпотентности; nil до активации
	CurrentPeriodEnd      time.Time // Конец оплаченного периода; epoch до активации
}

// ActivationEvent — событие активации премиум-подписки,
// публикуется в очередь уведомлений после успешной активации.
type ActivationEvent struct {
	UserUID  string `json:"user_uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Plan     string `json:"plan"`
}
