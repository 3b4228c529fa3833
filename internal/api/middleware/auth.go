// auth.go — middleware аутентификации по Bearer-токену identity provider.
// Проверка подписи и claims делегирована identity.Verifier;
// в контекст кладётся Principal и исходный токен (нужен для вызовов провайдера).
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/videostream/internal/api/errors"
	"github.com/bigkaa/videostream/internal/domain/model"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

const (
	// ContextKeyPrincipal — проверенный субъект токена.
	ContextKeyPrincipal contextKey = "principal"
	// ContextKeyToken — исходный access token.
	ContextKeyToken contextKey = "access_token"
)

// TokenVerifier — проверка access token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*model.Principal, error)
}

// Authenticate возвращает middleware, пропускающий только запросы с валидным Bearer-токеном.
func Authenticate(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := bearerToken(r)
			if msg != "" {
				apierrors.Unauthorized(w, msg)
				return
			}

			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Debug("JWT валидация не пройдена",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
			ctx = context.WithValue(ctx, ContextKeyToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerOnly кладёт в контекст токен без локальной проверки подписи.
// Для endpoints, где токен проверяет сам провайдер (/auth/me, /auth/logout).
func BearerOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := bearerToken(r)
			if msg != "" {
				apierrors.Unauthorized(w, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ContextKeyToken, token)))
		})
	}
}

// bearerToken извлекает токен; при ошибке возвращает сообщение для клиента.
func bearerToken(r *http.Request) (token, msg string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "Отсутствует заголовок Authorization"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "Неверный формат Authorization: ожидается Bearer <token>"
	}

	token = strings.TrimSpace(parts[1])
	if token == "" {
		return "", "Пустой Bearer token"
	}
	return token, ""
}

// --- Context helpers ---

// PrincipalFromContext извлекает Principal из контекста запроса.
// Возвращает nil, если запрос не прошёл Authenticate.
func PrincipalFromContext(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(ContextKeyPrincipal).(*model.Principal)
	return p
}

// SubjectFromContext извлекает sub из контекста запроса.
// Возвращает пустую строку, если Principal не найден.
func SubjectFromContext(ctx context.Context) string {
	p := PrincipalFromContext(ctx)
	if p == nil {
		return ""
	}
	return p.Subject
}

// TokenFromContext извлекает исходный access token.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ContextKeyToken).(string)
	return token
}
