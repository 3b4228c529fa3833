package model

import "time"

// UserProfile — профиль пользователя (таблица users).
// Учётные данные хранит identity provider, здесь только публичные поля.
type UserProfile struct {
	// ID — идентификатор пользователя у провайдера (sub)
	ID        string
	Email     string
	CreatedAt time.Time
}

// Principal — проверенный субъект запроса, извлечённый из bearer-токена.
type Principal struct {
	// Subject — идентификатор владельца (claim sub)
	Subject string
	// Email — claim email (может быть пустым)
	Email string
	// Role — claim role (authenticated, service_role, ...)
	Role string
}
