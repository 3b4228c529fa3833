// Пакет identity — проверка bearer-токенов identity provider (JWKS + опционально HS256)
// и HTTP-клиент GoTrue-совместимого провайдера для auth endpoints.
// Пароли и сессии хранит провайдер, сервис их не сохраняет.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/videostream/internal/domain/model"
)

// ErrInvalidToken — токен отсутствует, просрочен или не прошёл проверку.
var ErrInvalidToken = errors.New("невалидный или просроченный токен")

// Verifier проверяет bearer-токен и возвращает субъекта.
type Verifier interface {
	Verify(ctx context.Context, token string) (*model.Principal, error)
}

// providerClaims — claims access-токена провайдера.
type providerClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// VerifierOptions — параметры проверки JWT.
type VerifierOptions struct {
	// Issuer — ожидаемый iss; пусто = не проверяется
	Issuer string
	// Audience — ожидаемый aud; пусто = не проверяется
	Audience string
	// Leeway — допустимое отклонение времени
	Leeway time.Duration
	// HMACSecret — общий секрет для HS256; пусто = HS256 отклоняется
	HMACSecret string
}

// JWTVerifier — проверка JWT через JWKS провайдера.
type JWTVerifier struct {
	jwks       keyfunc.Keyfunc
	hmacSecret []byte
	methods    []string
	opts       VerifierOptions
	logger     *slog.Logger
}

// NewJWTVerifier создаёт verifier с JWKS storage и фоновым обновлением ключей.
// Обновление останавливается при отмене ctx.
func NewJWTVerifier(
	ctx context.Context,
	jwksURL string,
	opts VerifierOptions,
	jwksClientTimeout time.Duration,
	jwksRefreshInterval time.Duration,
	logger *slog.Logger,
) (*JWTVerifier, error) {
	// NoErrorReturnFirstHTTPReq — стартуем, даже если провайдер ещё недоступен.
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: jwksClientTimeout},
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           jwksRefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("Ошибка обновления JWKS",
				slog.String("error", err.Error()),
				slog.String("url", jwksURL),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{
		Ctx:     ctx,
		Storage: storage,
	})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return NewJWTVerifierWithKeyfunc(k, opts, logger), nil
}

// NewJWTVerifierWithKeyfunc создаёт verifier с предоставленной keyfunc.
// Используется в тестах для подстановки JWKS.
func NewJWTVerifierWithKeyfunc(kf keyfunc.Keyfunc, opts VerifierOptions, logger *slog.Logger) *JWTVerifier {
	v := &JWTVerifier{
		jwks:    kf,
		methods: []string{"RS256", "ES256"},
		opts:    opts,
		logger:  logger.With(slog.String("component", "jwt_verifier")),
	}
	if opts.HMACSecret != "" {
		v.hmacSecret = []byte(opts.HMACSecret)
		v.methods = append(v.methods, "HS256")
	}
	return v
}

// Verify проверяет подпись, срок действия, issuer и audience токена.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*model.Principal, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.opts.Leeway),
	}
	if v.opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.opts.Issuer))
	}
	if v.opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.opts.Audience))
	}

	claims := &providerClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, v.keyFor(ctx), parserOpts...)
	if err != nil {
		v.logger.Debug("JWT валидация не пройдена", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: отсутствует sub", ErrInvalidToken)
	}

	return &model.Principal{
		Subject: subject,
		Email:   claims.Email,
		Role:    claims.Role,
	}, nil
}

// keyFor выбирает ключ: общий секрет для HMAC, JWKS для остальных алгоритмов.
func (v *JWTVerifier) keyFor(ctx context.Context) jwt.Keyfunc {
	jwksFn := v.jwks.KeyfuncCtx(ctx)
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); ok {
			if v.hmacSecret == nil {
				return nil, errors.New("HS256 не разрешён")
			}
			return v.hmacSecret, nil
		}
		return jwksFn(t)
	}
}
