// profile.go — профили пользователей: чтение и обновление по allow-list полей.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/bigkaa/videostream/internal/domain/model"
	"github.com/bigkaa/videostream/internal/repository"
)

// ProfileService — профили пользователей.
type ProfileService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewProfileService создаёт сервис профилей.
func NewProfileService(users repository.UserRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		users:  users,
		logger: logger.With(slog.String("component", "profile_service")),
	}
}

// Get возвращает профиль владельца.
func (s *ProfileService) Get(ctx context.Context, ownerID string) (*model.UserProfile, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	u, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: получение профиля: %v", ErrUpstream, err)
	}
	return u, nil
}

// Update применяет к профилю только разрешённые поля (сейчас — email).
// Прочие поля игнорируются. Пустой набор разрешённых полей — ErrValidation.
func (s *ProfileService) Update(ctx context.Context, ownerID string, fields map[string]any) (*model.UserProfile, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	var upd repository.ProfileUpdate
	for key, val := range fields {
		switch key {
		case "email":
			email, err := parseEmail(val)
			if err != nil {
				return nil, err
			}
			upd.Email = &email
		default:
			s.logger.Debug("Поле профиля не разрешено к изменению", slog.String("field", key))
		}
	}
	if upd.Empty() {
		return nil, fmt.Errorf("%w: нет допустимых полей для обновления", ErrValidation)
	}

	u, err := s.users.Update(ctx, ownerID, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: обновление профиля: %v", ErrUpstream, err)
	}

	s.logger.Info("Профиль обновлён", slog.String("user_id", ownerID))
	return u, nil
}

// Ensure создаёт профиль, если его ещё нет.
func (s *ProfileService) Ensure(ctx context.Context, id, email string) error {
	if err := s.users.Upsert(ctx, id, email); err != nil {
		return fmt.Errorf("%w: сохранение профиля: %v", ErrUpstream, err)
	}
	return nil
}

func parseEmail(val any) (string, error) {
	raw, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%w: email должен быть строкой", ErrValidation)
	}
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", fmt.Errorf("%w: некорректный email", ErrValidation)
	}
	return raw, nil
}
