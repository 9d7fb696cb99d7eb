// Package models содержит доменные модели движка премиум-подписок:
// пользователя с денормализованным премиум-флагом и подписку,
// привязанную к платежу во внешнем шлюзе.
package models

// User представляет зарегистрированного пользователя платформы.
//
// Поле IsPremium — денормализованный флаг наличия премиум-доступа.
// Инвариант: IsPremium == true означает, что у пользователя есть подписка
// со статусом ACTIVE и current_period_end в будущем, либо флаг устарел
// и будет исправлен при следующем обращении (ленивая коррекция).
type User struct {
	UUID         string // Уникальный идентификатор пользователя
	Email        string // Электронная почта
	Username     string // Имя пользователя (уникальное)
	PasswordHash string // Хэш пароля пользователя
	Role         string // Роль пользователя, admin или user
	IsPremium    bool   // Премиум-флаг (денормализован из подписки)
}
