package lti

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// managed: EventManager с контекстом его фоновых проверок.
type managed struct {
	manager *EventManager
	cancel  context.CancelFunc
}

// Registry хранит EventManager по сериям. Неиспользуемый менеджер
// вытесняется по TTL; вытеснение останавливает его фоновые проверки.
type Registry struct {
	backend Backend
	api     API
	opts    Options
	logger  *slog.Logger

	mu    sync.Mutex
	cache *expirable.LRU[string, managed]
}

// NewRegistry создаёт реестр на size серий. opts задаёт общие параметры
// менеджеров; SeriesID и Personal подставляются при Get.
func NewRegistry(backend Backend, api API, opts Options, size int, ttl time.Duration, logger *slog.Logger) *Registry {
	r := &Registry{
		backend: backend,
		api:     api,
		opts:    opts,
		logger:  logger.With(slog.String("component", "lti_registry")),
	}
	r.cache = expirable.NewLRU[string, managed](size, func(key string, m managed) {
		m.cancel()
		m.manager.Close()
		r.logger.Debug("Менеджер событий серии закрыт", slog.String("key", key))
	}, ttl)
	return r
}

// API возвращает выбранный API планирования.
func (r *Registry) API() API { return r.api }

// Get возвращает менеджер серии, создавая его при первом обращении.
func (r *Registry) Get(seriesID string, personal bool) *EventManager {
	key := seriesID
	if personal {
		key = "personal:" + seriesID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.cache.Get(key); ok {
		return m.manager
	}

	opts := r.opts
	opts.SeriesID = seriesID
	opts.Personal = personal
	ctx, cancel := context.WithCancel(context.Background())
	m := NewEventManager(ctx, r.backend, r.api, opts, r.logger)
	r.cache.Add(key, managed{manager: m, cancel: cancel})
	return m
}

// Len возвращает число открытых менеджеров.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Close закрывает все менеджеры.
func (r *Registry) Close() {
	r.cache.Purge()
}
