package mediastore

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Constraints — ограничения на загружаемые файлы.
type Constraints struct {
	// AllowedFormats — допустимые расширения в нижнем регистре, без точки
	AllowedFormats []string
	// MaxSize — максимальный размер в байтах
	MaxSize int64
}

// Validate проверяет имя файла и размер до обращения к хранилищу.
// Возвращает формат (расширение в нижнем регистре).
func (c Constraints) Validate(filename string, size int64) (string, error) {
	format := FormatOf(filename)
	if format == "" || !slices.Contains(c.AllowedFormats, format) {
		return "", fmt.Errorf("%w: %q (допустимые: %s)",
			ErrUnsupportedMedia, filepath.Ext(filename), strings.Join(c.AllowedFormats, ", "))
	}
	if c.MaxSize > 0 && size > c.MaxSize {
		return "", fmt.Errorf("%w: %d > %d байт", ErrPayloadTooLarge, size, c.MaxSize)
	}
	if size == 0 {
		return "", ErrEmptyAsset
	}
	return format, nil
}

// FormatOf возвращает расширение файла в нижнем регистре без точки.
func FormatOf(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

var contentTypes = map[string]string{
	"mp4":  "video/mp4",
	"m4v":  "video/x-m4v",
	"mov":  "video/quicktime",
	"avi":  "video/x-msvideo",
	"mkv":  "video/x-matroska",
	"webm": "video/webm",
}

// ContentTypeOf возвращает MIME-тип контейнера.
func ContentTypeOf(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}
