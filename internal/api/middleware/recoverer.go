// recoverer.go — перехват panic в обработчиках с ответом в стандартном формате ошибки.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/bigkaa/videostream/internal/api/errors"
)

// Recoverer возвращает middleware, превращающий panic в 500 INTERNAL_ERROR.
// http.ErrAbortHandler пробрасывается дальше: это штатный обрыв ответа.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler { //nolint:errorlint // сравнение значения panic
					panic(rec)
				}
				logger.Error("Panic в обработчике",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)
				apierrors.InternalError(w, "Внутренняя ошибка сервера")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
