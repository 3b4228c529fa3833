package mediastore

import (
	"errors"
	"fmt"
)

// Ошибки хранилища медиа.
var (
	// ErrUnsupportedMedia — контейнер не входит в allow-list.
	ErrUnsupportedMedia = errors.New("неподдерживаемый формат видео")
	// ErrPayloadTooLarge — размер превышает лимит загрузки.
	ErrPayloadTooLarge = errors.New("превышен максимальный размер загрузки")
	// ErrEmptyAsset — пустой файл.
	ErrEmptyAsset = errors.New("пустой файл")
	// ErrNotFound — объект отсутствует в хранилище.
	ErrNotFound = errors.New("объект не найден в хранилище")
)

// UpstreamError — ошибка внешнего провайдера (S3, MinIO, SQS).
// Текст исходной ошибки предназначен для логов, не для клиента.
type UpstreamError struct {
	// Op — операция: put, delete, notify, ping
	Op string
	// Provider — s3, minio, sqs
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(provider, op string, err error) error {
	return &UpstreamError{Op: op, Provider: provider, Err: err}
}
