// handler.go — основной обработчик API.
// Делегирует запросы в сервисный слой и переводит ошибки сервисов в HTTP-ответы.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/videostream/internal/api/errors"
	"github.com/bigkaa/videostream/internal/domain/model"
	"github.com/bigkaa/videostream/internal/identity"
	"github.com/bigkaa/videostream/internal/service"
)

// maxJSONBody — предельный размер JSON-тела запроса.
const maxJSONBody = 1 << 20

// VideoIngestion — загрузка и удаление видео.
type VideoIngestion interface {
	Upload(ctx context.Context, ownerID string, in service.UploadInput) (*model.VideoRecord, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// VideoCatalog — запросы к каталогу владельца.
type VideoCatalog interface {
	List(ctx context.Context, ownerID string, page, limit int) (*model.VideoPage, error)
	Search(ctx context.Context, ownerID, query string, page, limit int) (*model.VideoPage, error)
	Get(ctx context.Context, ownerID, id string) (*model.VideoRecord, error)
}

// Profiles — профиль пользователя.
type Profiles interface {
	Get(ctx context.Context, ownerID string) (*model.UserProfile, error)
	Update(ctx context.Context, ownerID string, fields map[string]any) (*model.UserProfile, error)
}

// Auth — операции identity provider.
type Auth interface {
	SignUp(ctx context.Context, email, password string) (*identity.User, *identity.Session, error)
	Login(ctx context.Context, email, password string) (*identity.Session, error)
	Logout(ctx context.Context, accessToken string) error
	Me(ctx context.Context, accessToken string) (*identity.User, error)
	ResetPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, accessToken, password string) error
}

// APIHandler — обработчик всех endpoints API.
type APIHandler struct {
	health        *HealthHandler
	ingestion     VideoIngestion
	catalog       VideoCatalog
	profiles      Profiles
	auth          Auth
	maxUploadSize int64
	logger        *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// maxUploadSize — лимит файла; тело multipart ограничивается с запасом на заголовки формы.
func NewAPIHandler(
	health *HealthHandler,
	ingestion VideoIngestion,
	catalog VideoCatalog,
	profiles Profiles,
	auth Auth,
	maxUploadSize int64,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:        health,
		ingestion:     ingestion,
		catalog:       catalog,
		profiles:      profiles,
		auth:          auth,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "api_handler")),
	}
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает JSON-тело запроса в dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("пустое тело запроса")
		}
		return fmt.Errorf("некорректный JSON: %w", err)
	}
	return nil
}

// writeServiceError переводит ошибку сервиса в HTTP-ответ.
// Текст внешних ошибок не передаётся клиенту, только логируется.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrUnsupportedMedia):
		apierrors.UnsupportedMedia(w, err.Error())
	case errors.Is(err, service.ErrPayloadTooLarge):
		apierrors.PayloadTooLarge(w, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		apierrors.Unauthorized(w, "Неверный email или пароль")
	case errors.Is(err, service.ErrUnauthenticated):
		apierrors.Unauthorized(w, "Требуется аутентификация")
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "Ресурс не найден")
	case errors.Is(err, service.ErrUpstream):
		h.logger.Error("Ошибка внешнего сервиса",
			slog.String("op", op),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.UpstreamError(w, "Внешний сервис временно недоступен")
	default:
		h.logger.Error("Внутренняя ошибка",
			slog.String("op", op),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
