// Пакет mediastore — Media Store Gateway: загрузка видео в объектное хранилище,
// построение playback/thumbnail URL и удаление ассетов.
// Бэкенды: S3 (aws-sdk-go-v2) и MinIO (minio-go). Уведомление транскодера — SQS.
package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Backend — объектное хранилище ассетов.
type Backend interface {
	// Put сохраняет объект. body читается ровно size байт.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Delete удаляет объект. Отсутствующий объект — ErrNotFound.
	Delete(ctx context.Context, key string) error
	// Ping проверяет доступность бакета.
	Ping(ctx context.Context) error
	// Name — имя провайдера для логов и ошибок.
	Name() string
}

// TranscodeJob — задание асинхронного транскодинга.
type TranscodeJob struct {
	StorageRef      string    `json:"storage_ref"`
	OwnerID         string    `json:"owner_id"`
	Format          string    `json:"format"`
	Profile         string    `json:"profile"`
	ThumbnailWidth  int       `json:"thumbnail_width"`
	NotificationURL string    `json:"notification_url,omitempty"`
	RequestedAt     time.Time `json:"requested_at"`
}

// Notifier регистрирует задание транскодинга. Завершение задания этот сервис не обрабатывает.
type Notifier interface {
	NotifyTranscode(ctx context.Context, job TranscodeJob) error
}

// NoopNotifier — уведомления отключены (очередь не настроена).
type NoopNotifier struct{}

// NotifyTranscode ничего не делает.
func (NoopNotifier) NotifyTranscode(context.Context, TranscodeJob) error { return nil }

// Upload — входные данные загрузки.
type Upload struct {
	OwnerID  string
	Filename string
	Size     int64
	Body     io.ReadSeeker
}

// StoredAsset — результат StoreAsset.
type StoredAsset struct {
	StorageRef      string
	PlaybackURL     string
	ThumbnailURL    string
	DurationSeconds *float64
	Format          string
}

// Gateway — Media Store Gateway.
type Gateway struct {
	backend         Backend
	notifier        Notifier
	urls            URLBuilder
	constraints     Constraints
	notificationURL string
	logger          *slog.Logger
	newID           func() string
}

// GatewayOption — опция Gateway.
type GatewayOption func(*Gateway)

// WithNotifier задаёт уведомление транскодера и URL webhook завершения.
func WithNotifier(n Notifier, notificationURL string) GatewayOption {
	return func(g *Gateway) {
		g.notifier = n
		g.notificationURL = notificationURL
	}
}

// NewGateway создаёт Media Store Gateway.
func NewGateway(backend Backend, urls URLBuilder, constraints Constraints, logger *slog.Logger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		backend:     backend,
		notifier:    NoopNotifier{},
		urls:        urls,
		constraints: constraints,
		logger:      logger.With(slog.String("component", "mediastore")),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Constraints возвращает действующие ограничения загрузки.
func (g *Gateway) Constraints() Constraints {
	return g.constraints
}

// StoreAsset проверяет ограничения, сохраняет файл и регистрирует транскодинг.
// Ограничения проверяются до любого обращения к хранилищу.
// При ошибке уведомления сохранённый объект удаляется.
func (g *Gateway) StoreAsset(ctx context.Context, up Upload) (*StoredAsset, error) {
	format, err := g.constraints.Validate(up.Filename, up.Size)
	if err != nil {
		return nil, err
	}
	if up.OwnerID == "" || up.Body == nil {
		return nil, fmt.Errorf("%w: нет владельца или содержимого", ErrEmptyAsset)
	}

	duration, err := readDuration(up.Body, format)
	if err != nil {
		g.logger.Debug("Длительность не определена",
			slog.String("filename", up.Filename),
			slog.String("error", err.Error()),
		)
	}
	if _, err := up.Body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("ошибка перемотки файла: %w", err)
	}

	ref := up.OwnerID + "/" + g.newID() + "." + format

	if err := g.backend.Put(ctx, ref, up.Body, up.Size, ContentTypeOf(format)); err != nil {
		return nil, err
	}

	job := TranscodeJob{
		StorageRef:      ref,
		OwnerID:         up.OwnerID,
		Format:          format,
		Profile:         g.urls.Profile,
		ThumbnailWidth:  g.urls.ThumbnailWidth,
		NotificationURL: g.notificationURL,
		RequestedAt:     time.Now().UTC(),
	}
	if err := g.notifier.NotifyTranscode(ctx, job); err != nil {
		if delErr := g.backend.Delete(context.WithoutCancel(ctx), ref); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			g.logger.Error("Не удалось удалить ассет после ошибки уведомления",
				slog.String("storage_ref", ref),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, err
	}

	g.logger.Info("Ассет сохранён",
		slog.String("storage_ref", ref),
		slog.String("backend", g.backend.Name()),
		slog.Int64("size", up.Size),
		slog.String("format", format),
	)

	return &StoredAsset{
		StorageRef:      ref,
		PlaybackURL:     g.urls.Playback(ref),
		ThumbnailURL:    g.urls.Thumbnail(ref),
		DurationSeconds: duration,
		Format:          format,
	}, nil
}

// PlaybackURL возвращает URL стримингового представления.
func (g *Gateway) PlaybackURL(storageRef string) string {
	return g.urls.Playback(storageRef)
}

// ThumbnailURL возвращает URL превью.
func (g *Gateway) ThumbnailURL(storageRef string) string {
	return g.urls.Thumbnail(storageRef)
}

// DeleteAsset удаляет ассет. Повторное удаление возвращает ErrNotFound.
func (g *Gateway) DeleteAsset(ctx context.Context, storageRef string) error {
	if storageRef == "" {
		return ErrNotFound
	}
	if err := g.backend.Delete(ctx, storageRef); err != nil {
		return err
	}
	g.logger.Info("Ассет удалён", slog.String("storage_ref", storageRef))
	return nil
}

// ReadinessChecker — проверка готовности хранилища для /health/ready.
type ReadinessChecker struct {
	backend Backend
}

// NewReadinessChecker создаёт проверку готовности хранилища.
func NewReadinessChecker(backend Backend) *ReadinessChecker {
	return &ReadinessChecker{backend: backend}
}

// CheckReady проверяет доступность бакета.
func (c *ReadinessChecker) CheckReady(ctx context.Context) (status string, message string) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := c.backend.Ping(ctx); err != nil {
		return "fail", fmt.Sprintf("хранилище %s недоступно", c.backend.Name())
	}
	return "ok", "бакет доступен"
}
