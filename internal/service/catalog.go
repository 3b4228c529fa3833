// catalog.go — Catalog Query Service: листинг, поиск и получение записей владельца.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/videostream/internal/domain/model"
	"github.com/bigkaa/videostream/internal/repository"
)

// Prometheus-метрики каталога.
var (
	catalogQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vs_catalog_queries_total",
		Help: "Общее количество запросов к каталогу (list, search, get).",
	}, []string{"kind"})
	catalogQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vs_catalog_query_duration_seconds",
		Help:    "Длительность запросов к каталогу.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
)

// Pagination — параметры пагинации каталога.
type Pagination struct {
	// DefaultLimit — размер страницы, если limit не задан или некорректен
	DefaultLimit int
	// MaxLimit — максимальный размер страницы
	MaxLimit int
}

// Normalize приводит page и limit к допустимым значениям:
// page < 1 → 1, limit < 1 → DefaultLimit, limit > MaxLimit → MaxLimit.
func (p Pagination) Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = p.DefaultLimit
	}
	if limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	return page, limit
}

// TotalPages — ceil(total / limit), 0 при total == 0.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// CatalogService — запросы к каталогу видео.
type CatalogService struct {
	videos     repository.VideoRepository
	cache      *CacheService
	pagination Pagination
	logger     *slog.Logger
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(
	videos repository.VideoRepository,
	cache *CacheService,
	pagination Pagination,
	logger *slog.Logger,
) *CatalogService {
	if pagination.MaxLimit > repository.MaxPageSize {
		pagination.MaxLimit = repository.MaxPageSize
	}
	return &CatalogService{
		videos:     videos,
		cache:      cache,
		pagination: pagination,
		logger:     logger.With(slog.String("component", "catalog_service")),
	}
}

// List возвращает страницу записей владельца, новые сверху.
func (s *CatalogService) List(ctx context.Context, ownerID string, page, limit int) (*model.VideoPage, error) {
	return s.query(ctx, "list", ownerID, "", page, limit)
}

// Search возвращает страницу записей владельца с подстрокой query в названии.
// Пустой query эквивалентен List.
func (s *CatalogService) Search(ctx context.Context, ownerID, query string, page, limit int) (*model.VideoPage, error) {
	return s.query(ctx, "search", ownerID, query, page, limit)
}

func (s *CatalogService) query(ctx context.Context, kind, ownerID, query string, page, limit int) (*model.VideoPage, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	page, limit = s.pagination.Normalize(page, limit)

	start := time.Now()
	catalogQueriesTotal.WithLabelValues(kind).Inc()

	var (
		videos []*model.VideoRecord
		total  int
		err    error
	)
	if query == "" {
		videos, total, err = s.videos.ListByOwner(ctx, ownerID, page, limit)
	} else {
		videos, total, err = s.videos.SearchByOwnerAndTitle(ctx, ownerID, query, page, limit)
	}
	if err != nil {
		s.logger.Error("Ошибка запроса к каталогу",
			slog.String("kind", kind),
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: запрос к каталогу", ErrUpstream)
	}

	duration := time.Since(start)
	catalogQueryDuration.WithLabelValues(kind).Observe(duration.Seconds())

	s.logger.Debug("Запрос к каталогу выполнен",
		slog.String("kind", kind),
		slog.Int("total", total),
		slog.Int("returned", len(videos)),
		slog.Duration("duration", duration),
	)

	if videos == nil {
		videos = []*model.VideoRecord{}
	}
	return &model.VideoPage{
		Videos:     videos,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: TotalPages(total, limit),
	}, nil
}

// Get возвращает запись владельца. Сначала проверяется LRU-кэш.
// Запись другого владельца неотличима от отсутствующей.
func (s *CatalogService) Get(ctx context.Context, ownerID, id string) (*model.VideoRecord, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	catalogQueriesTotal.WithLabelValues("get").Inc()

	if rec, ok := s.cache.Get(id); ok {
		if rec.OwnerID != ownerID {
			return nil, ErrNotFound
		}
		return rec, nil
	}

	rec, err := s.videos.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: получение записи каталога: %v", ErrUpstream, err)
	}

	s.cache.Set(rec.ID, rec)
	return rec, nil
}
