// Package middlewarectx содержит HTTP middleware аутентификации,
// разрешения энтайтлмента и ограничения частоты запросов, а также
// ключи контекста, через которые обработчики получают данные сессии.
package middlewarectx

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User — ключ для имени пользователя в контексте.
	User Key = "username"
	// Role — ключ для роли пользователя в контексте.
	Role Key = "role"
	// UserUID — ключ для идентификатора пользователя в контексте.
	UserUID Key = "user_uid"
	// IsPremium — ключ для разрешённого премиум-флага в контексте.
	IsPremium Key = "is_premium"
)
