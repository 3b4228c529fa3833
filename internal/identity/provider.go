package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// User — пользователь провайдера.
type User struct {
	ID               string         `json:"id"`
	Email            string         `json:"email"`
	Role             string         `json:"role,omitempty"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	UserMetadata     map[string]any `json:"user_metadata,omitempty"`
}

// Session — сессия, выданная провайдером.
type Session struct {
	AccessToken  string `json:"access_token"` //nolint:gosec // G117: JSON-маппинг ответа провайдера
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"` //nolint:gosec // G117: JSON-маппинг ответа провайдера
	User         *User  `json:"user,omitempty"`
}

// ProviderError — ответ провайдера с кодом ошибки.
// Message предназначен для логов; клиенту отдаётся обобщённый текст.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider вернул %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// IsClientError — провайдер отклонил запрос (4xx).
func (e *ProviderError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// ProviderClient — HTTP-клиент GoTrue-совместимого провайдера (/auth/v1).
type ProviderClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewProviderClient создаёт клиент провайдера.
// baseURL — например https://xyz.supabase.co/auth/v1.
func NewProviderClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *ProviderClient {
	return &ProviderClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.With(slog.String("component", "identity_provider")),
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // G117: пароль передаётся провайдеру, не хранится
}

// SignUp регистрирует пользователя. При выключенном подтверждении email
// провайдер сразу возвращает сессию, иначе — только пользователя.
// POST /signup?redirect_to=...
func (c *ProviderClient) SignUp(ctx context.Context, email, password, redirectTo string) (*User, *Session, error) {
	path := "/signup"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, path, "", credentials{Email: email, Password: password}, &raw); err != nil {
		return nil, nil, err
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err == nil && session.AccessToken != "" && session.User != nil {
		return session.User, &session, nil
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, nil, fmt.Errorf("декодирование ответа signup: %w", err)
	}
	return &user, nil, nil
}

// SignInWithPassword выдаёт сессию по email и паролю.
// POST /token?grant_type=password
func (c *ProviderClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "",
		credentials{Email: email, Password: password}, &session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("пустой access_token в ответе провайдера")
	}
	return &session, nil
}

// SignOut отзывает сессию токена.
// POST /logout
func (c *ProviderClient) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// GetUser возвращает пользователя токена.
// GET /user
func (c *ProviderClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Recover отправляет письмо для сброса пароля.
// POST /recover?redirect_to=...
func (c *ProviderClient) Recover(ctx context.Context, email, redirectTo string) error {
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return c.do(ctx, http.MethodPost, path, "", map[string]string{"email": email}, nil)
}

// UpdatePassword меняет пароль пользователя токена.
// PUT /user
func (c *ProviderClient) UpdatePassword(ctx context.Context, accessToken, password string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/user", accessToken, map[string]string{"password": password}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// do выполняет запрос к провайдеру. Статус не 2xx — *ProviderError.
func (c *ProviderClient) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("сериализация запроса %s: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("создание запроса %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	if err != nil {
		return fmt.Errorf("запрос %s %s к провайдеру: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Запрос к провайдеру",
		slog.String("method", method),
		slog.String("path", strings.SplitN(path, "?", 2)[0]),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseProviderError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("декодирование ответа %s: %w", path, err)
	}
	return nil
}

// parseProviderError разбирает тело ошибки GoTrue.
// Встречаются два формата: {"error_code","msg"} и OAuth {"error","error_description"}.
func parseProviderError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(data, &body)

	pe := &ProviderError{StatusCode: resp.StatusCode}
	pe.Code = firstNonEmpty(body.ErrorCode, body.Error, http.StatusText(resp.StatusCode))
	pe.Message = firstNonEmpty(body.Msg, body.ErrorDescription, body.Message, strings.TrimSpace(string(data)))
	return pe
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
