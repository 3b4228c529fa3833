// auth.go — auth endpoints, делегированные identity provider.
// Сервис не хранит пароли: провайдер выдаёт и отзывает сессии,
// локально сохраняется только профиль (id, email).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bigkaa/videostream/internal/identity"
)

// IdentityProvider — операции GoTrue-совместимого провайдера.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, redirectTo string) (*identity.User, *identity.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*identity.User, error)
	Recover(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, accessToken, password string) (*identity.User, error)
}

// ProfileEnsurer — сохранение профиля после регистрации и входа.
type ProfileEnsurer interface {
	Ensure(ctx context.Context, id, email string) error
}

// AuthService — регистрация, вход и управление паролем через провайдера.
type AuthService struct {
	provider    IdentityProvider
	profiles    ProfileEnsurer
	redirectURL string
	logger      *slog.Logger
}

// NewAuthService создаёт auth-сервис.
// redirectURL — базовый URL фронтенда для ссылок из писем провайдера.
func NewAuthService(provider IdentityProvider, profiles ProfileEnsurer, redirectURL string, logger *slog.Logger) *AuthService {
	return &AuthService{
		provider:    provider,
		profiles:    profiles,
		redirectURL: strings.TrimRight(redirectURL, "/"),
		logger:      logger.With(slog.String("component", "auth_service")),
	}
}

// SignUp регистрирует пользователя. Письмо подтверждения ведёт на <redirect>/auth/callback.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*identity.User, *identity.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, nil, fmt.Errorf("%w: email и пароль обязательны", ErrValidation)
	}

	user, session, err := s.provider.SignUp(ctx, email, password, s.redirectURL+"/auth/callback")
	if err != nil {
		return nil, nil, s.providerError("signup", err, ErrValidation)
	}

	s.ensureProfile(ctx, user)
	s.logger.Info("Пользователь зарегистрирован", slog.String("user_id", user.ID))
	return user, session, nil
}

// Login выдаёт сессию по email и паролю.
func (s *AuthService) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email и пароль обязательны", ErrValidation)
	}

	session, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, s.providerError("login", err, ErrInvalidCredentials)
	}

	s.ensureProfile(ctx, session.User)
	return session, nil
}

// Logout отзывает сессию токена.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return ErrUnauthenticated
	}
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		return s.providerError("logout", err, ErrUnauthenticated)
	}
	return nil
}

// Me возвращает пользователя токена по данным провайдера.
func (s *AuthService) Me(ctx context.Context, accessToken string) (*identity.User, error) {
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}
	user, err := s.provider.GetUser(ctx, accessToken)
	if err != nil {
		return nil, s.providerError("me", err, ErrUnauthenticated)
	}
	return user, nil
}

// ResetPassword отправляет письмо сброса пароля со ссылкой на <redirect>/auth/reset-password.
func (s *AuthService) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email обязателен", ErrValidation)
	}
	if err := s.provider.Recover(ctx, email, s.redirectURL+"/auth/reset-password"); err != nil {
		return s.providerError("reset_password", err, ErrValidation)
	}
	return nil
}

// UpdatePassword меняет пароль пользователя токена.
func (s *AuthService) UpdatePassword(ctx context.Context, accessToken, password string) error {
	if accessToken == "" {
		return ErrUnauthenticated
	}
	if password == "" {
		return fmt.Errorf("%w: пароль обязателен", ErrValidation)
	}
	if _, err := s.provider.UpdatePassword(ctx, accessToken, password); err != nil {
		return s.providerError("update_password", err, ErrValidation)
	}
	return nil
}

// providerError переводит ошибку провайдера в ошибку сервиса.
// 401/403 → ErrUnauthenticated, прочие 4xx → clientErr, остальное → ErrUpstream.
// Текст провайдера только логируется.
func (s *AuthService) providerError(op string, err error, clientErr error) error {
	var pe *identity.ProviderError
	if errors.As(err, &pe) && pe.IsClientError() {
		s.logger.Warn("Провайдер отклонил запрос",
			slog.String("op", op),
			slog.Int("status", pe.StatusCode),
			slog.String("code", pe.Code),
			slog.String("message", pe.Message),
		)
		if (pe.StatusCode == http.StatusUnauthorized || pe.StatusCode == http.StatusForbidden) &&
			!errors.Is(clientErr, ErrInvalidCredentials) {
			return ErrUnauthenticated
		}
		return clientErr
	}

	s.logger.Error("Ошибка identity provider",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%w: identity provider", ErrUpstream)
}

// ensureProfile сохраняет профиль; ошибка не прерывает запрос.
func (s *AuthService) ensureProfile(ctx context.Context, user *identity.User) {
	if user == nil || user.ID == "" || s.profiles == nil {
		return
	}
	if err := s.profiles.Ensure(ctx, user.ID, user.Email); err != nil {
		s.logger.Warn("Профиль не сохранён",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}
