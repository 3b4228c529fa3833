// ratelimit.go — ограничение частоты запросов по IP (httprate, sliding window).
// Применяется к /api/auth/*: endpoints провайдера дорогие и привлекают перебор паролей.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	apierrors "github.com/bigkaa/videostream/internal/api/errors"
)

// RateLimitConfig — параметры ограничения.
type RateLimitConfig struct {
	// RequestLimit — максимум запросов в окне
	RequestLimit int
	// WindowSize — размер окна
	WindowSize time.Duration
	// KeyFunc — ключ лимита; по умолчанию IP клиента
	KeyFunc func(r *http.Request) (string, error)
}

// RateLimit возвращает middleware ограничения частоты.
// При превышении — 429 в стандартном формате ошибки и заголовок Retry-After.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}

	retryAfter := strconv.Itoa(max(1, int(cfg.WindowSize.Seconds())))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Retry-After", retryAfter)
			apierrors.RateLimited(w, "Слишком много запросов, повторите позже")
		}),
	)
}
