// ingestion.go — Ingestion Workflow: загрузка видео и удаление записи вместе с ассетом.
// Координирует Media Store Gateway, Catalog Repository, кэш и Prometheus-метрики.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/videostream/internal/domain/model"
	"github.com/bigkaa/videostream/internal/mediastore"
	"github.com/bigkaa/videostream/internal/repository"
)

// Prometheus-метрики ingestion.
var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vs_uploads_total",
		Help: "Общее количество загрузок видео (по статусу).",
	}, []string{"status"})

	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vs_upload_bytes_total",
		Help: "Общее количество байт успешно загруженных видео.",
	})

	deletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vs_deletes_total",
		Help: "Общее количество удалений видео (по статусу).",
	}, []string{"status"})

	orphanedAssetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vs_orphaned_assets_total",
		Help: "Ассеты, сохранённые в хранилище без записи каталога (ошибка вставки после загрузки).",
	})

	assetDeleteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vs_asset_delete_failures_total",
		Help: "Ошибки удаления ассета при удалении записи каталога.",
	})
)

// AssetStore — операции Media Store Gateway, нужные workflow.
type AssetStore interface {
	StoreAsset(ctx context.Context, up mediastore.Upload) (*mediastore.StoredAsset, error)
	DeleteAsset(ctx context.Context, storageRef string) error
}

// UploadInput — загрузка от проверенного владельца.
type UploadInput struct {
	Filename string
	Size     int64
	Body     io.ReadSeeker
	Title    string
}

// IngestionService — загрузка и удаление видео.
type IngestionService struct {
	assets AssetStore
	videos repository.VideoRepository
	cache  *CacheService
	logger *slog.Logger
}

// NewIngestionService создаёт сервис загрузки.
func NewIngestionService(
	assets AssetStore,
	videos repository.VideoRepository,
	cache *CacheService,
	logger *slog.Logger,
) *IngestionService {
	return &IngestionService{
		assets: assets,
		videos: videos,
		cache:  cache,
		logger: logger.With(slog.String("component", "ingestion_service")),
	}
}

// Upload сохраняет ассет и создаёт запись каталога.
// ownerID берётся только из проверенного токена.
// Если вставка в каталог не удалась, ассет остаётся в хранилище (orphan):
// событие логируется и считается в vs_orphaned_assets_total.
func (s *IngestionService) Upload(ctx context.Context, ownerID string, in UploadInput) (*model.VideoRecord, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	if in.Body == nil || in.Filename == "" {
		uploadsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: видеофайл не передан", ErrValidation)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = model.DefaultTitle
	}

	asset, err := s.assets.StoreAsset(ctx, mediastore.Upload{
		OwnerID:  ownerID,
		Filename: in.Filename,
		Size:     in.Size,
		Body:     in.Body,
	})
	if err != nil {
		return nil, s.storeError(err, in.Filename)
	}

	stored, err := s.videos.Insert(ctx, &model.VideoRecord{
		OwnerID:         ownerID,
		Title:           title,
		PlaybackURL:     asset.PlaybackURL,
		ThumbnailURL:    asset.ThumbnailURL,
		StorageRef:      asset.StorageRef,
		DurationSeconds: asset.DurationSeconds,
		Format:          asset.Format,
	})
	if err != nil {
		orphanedAssetsTotal.Inc()
		uploadsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Запись каталога не создана, ассет остался без записи",
			slog.String("storage_ref", asset.StorageRef),
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: сохранение записи каталога", ErrUpstream)
	}

	uploadsTotal.WithLabelValues("success").Inc()
	uploadBytesTotal.Add(float64(in.Size))
	s.cache.Set(stored.ID, stored)

	s.logger.Info("Видео загружено",
		slog.String("video_id", stored.ID),
		slog.String("owner_id", ownerID),
		slog.String("storage_ref", stored.StorageRef),
		slog.Int64("size", in.Size),
	)

	return stored, nil
}

// storeError переводит ошибки хранилища в ошибки сервиса.
func (s *IngestionService) storeError(err error, filename string) error {
	switch {
	case errors.Is(err, mediastore.ErrUnsupportedMedia):
		uploadsTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%w: %s", ErrUnsupportedMedia, storeDetail(err, mediastore.ErrUnsupportedMedia))
	case errors.Is(err, mediastore.ErrPayloadTooLarge):
		uploadsTotal.WithLabelValues("rejected").Inc()
		return fmt.Errorf("%w: %s", ErrPayloadTooLarge, storeDetail(err, mediastore.ErrPayloadTooLarge))
	case errors.Is(err, mediastore.ErrEmptyAsset):
		uploadsTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: %s", ErrValidation, storeDetail(err, mediastore.ErrEmptyAsset))
	default:
		uploadsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Ошибка сохранения ассета",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: сохранение ассета", ErrUpstream)
	}
}

// storeDetail возвращает текст ошибки хранилища без префикса sentinel:
// сервисная ошибка уже несёт собственное описание.
func storeDetail(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}

// Delete удаляет ассет и запись каталога владельца.
// Порядок: поиск записи → удаление ассета (best-effort) → удаление записи.
// Отсутствие ассета не считается ошибкой, прочие ошибки хранилища логируются.
func (s *IngestionService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}

	rec, err := s.videos.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			deletesTotal.WithLabelValues("not_found").Inc()
			return ErrNotFound
		}
		deletesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: поиск записи каталога: %v", ErrUpstream, err)
	}

	if err := s.assets.DeleteAsset(ctx, rec.StorageRef); err != nil {
		if errors.Is(err, mediastore.ErrNotFound) {
			s.logger.Info("Ассет уже отсутствует в хранилище",
				slog.String("video_id", rec.ID),
				slog.String("storage_ref", rec.StorageRef),
			)
		} else {
			assetDeleteFailuresTotal.Inc()
			s.logger.Error("Ошибка удаления ассета, запись каталога будет удалена",
				slog.String("video_id", rec.ID),
				slog.String("storage_ref", rec.StorageRef),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.videos.DeleteByIDAndOwner(ctx, rec.ID, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			deletesTotal.WithLabelValues("not_found").Inc()
			return ErrNotFound
		}
		deletesTotal.WithLabelValues("error").Inc()
		s.logger.Error("Ассет удалён, запись каталога осталась",
			slog.String("video_id", rec.ID),
			slog.String("storage_ref", rec.StorageRef),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: удаление записи каталога", ErrUpstream)
	}

	s.cache.Delete(rec.ID)
	deletesTotal.WithLabelValues("success").Inc()

	s.logger.Info("Видео удалено",
		slog.String("video_id", rec.ID),
		slog.String("owner_id", ownerID),
	)
	return nil
}
