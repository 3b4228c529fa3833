// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrUnauthenticated — нет проверенного владельца или токен отклонён провайдером.
	ErrUnauthenticated = errors.New("требуется аутентификация")
	// ErrInvalidCredentials — провайдер отклонил email/пароль.
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrNotFound — запись не найдена или принадлежит другому владельцу.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrUnsupportedMedia — формат видео не поддерживается.
	ErrUnsupportedMedia = errors.New("неподдерживаемый формат видео")
	// ErrPayloadTooLarge — файл больше допустимого размера.
	ErrPayloadTooLarge = errors.New("файл слишком большой")
	// ErrUpstream — ошибка внешнего сервиса (хранилище, БД, identity provider).
	ErrUpstream = errors.New("ошибка внешнего сервиса")
)
