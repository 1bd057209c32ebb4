// Пакет cache: LRU-кэш справочников backend'а с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable: шаблоны ACL, список ролей
// и пользовательские действия меняются редко, а нужны при каждом открытии
// вкладки доступа.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oca_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш справочников.",
	}, []string{"cache"})
	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oca_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша справочников.",
	}, []string{"cache"})
)

// Cache: именованный LRU-кэш с автоматическим TTL.
type Cache[K comparable, V any] struct {
	name  string
	cache *expirable.LRU[K, V]
}

// New создаёт кэш name с максимальным размером maxSize и временем жизни ttl.
func New[K comparable, V any](name string, maxSize int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		name:  name,
		cache: expirable.NewLRU[K, V](maxSize, nil, ttl),
	}
}

// Get возвращает значение по ключу и обновляет метрики hit/miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	val, ok := c.cache.Get(key)
	if ok {
		cacheHitsTotal.WithLabelValues(c.name).Inc()
		return val, true
	}
	cacheMissesTotal.WithLabelValues(c.name).Inc()
	var zero V
	return zero, false
}

// Set добавляет или обновляет запись.
func (c *Cache[K, V]) Set(key K, val V) {
	c.cache.Add(key, val)
}

// Delete удаляет запись (инвалидация).
func (c *Cache[K, V]) Delete(key K) {
	c.cache.Remove(key)
}

// Len возвращает количество записей в кэше.
func (c *Cache[K, V]) Len() int {
	return c.cache.Len()
}

// GetOrLoad возвращает значение из кэша или загружает его через load.
// Ошибка загрузки не кэшируется.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K, load func(ctx context.Context) (V, error)) (V, error) {
	if val, ok := c.Get(key); ok {
		return val, nil
	}
	val, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, val)
	return val, nil
}
