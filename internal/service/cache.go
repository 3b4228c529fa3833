// Пакет service — бизнес-логика videostream.
// CacheService — LRU-кэш записей каталога с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/videostream/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vs_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш каталога.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vs_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша каталога.",
	})
)

// CacheService — LRU-кэш записей каталога по ID с автоматическим TTL.
// Кэш per-instance: записи неизменяемы, инвалидация нужна только при удалении.
type CacheService struct {
	cache *expirable.LRU[string, *model.VideoRecord]
}

// NewCacheService создаёт LRU-кэш с указанным максимальным размером и TTL.
func NewCacheService(maxSize int, ttl time.Duration) *CacheService {
	return &CacheService{cache: expirable.NewLRU[string, *model.VideoRecord](maxSize, nil, ttl)}
}

// Get возвращает запись из кэша.
func (c *CacheService) Get(id string) (*model.VideoRecord, bool) {
	val, ok := c.cache.Get(id)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *CacheService) Set(id string, record *model.VideoRecord) {
	c.cache.Add(id, record)
}

// Delete удаляет запись из кэша.
func (c *CacheService) Delete(id string) {
	c.cache.Remove(id)
}

// Len возвращает количество записей в кэше.
func (c *CacheService) Len() int {
	return c.cache.Len()
}
