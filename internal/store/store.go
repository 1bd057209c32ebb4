package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики контейнера состояния.
var (
	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oca_store_actions_total",
		Help: "Общее количество обработанных действий по типу.",
	}, []string{"type"})
)

// DispatchFunc отправляет действие в контейнер.
type DispatchFunc func(Action)

// GetStateFunc возвращает текущий снимок состояния.
type GetStateFunc func() State

// Thunk: асинхронное действие: выполняет побочные эффекты
// и диспатчит обычные действия.
type Thunk func(ctx context.Context, dispatch DispatchFunc, getState GetStateFunc) error

// Store: контейнер состояния одной сессии. Действия обрабатываются
// последовательно: Reduce никогда не выполняется параллельно сам с собой.
type Store struct {
	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
	logger *slog.Logger
}

// New создаёт Store с начальным состоянием initial.
func New(initial State, logger *slog.Logger) *Store {
	return &Store{
		state:  initial,
		subs:   make(map[int]func(State)),
		logger: logger.With(slog.String("component", "store")),
	}
}

// State возвращает текущий снимок состояния.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch применяет действие и уведомляет подписчиков.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	st := s.state
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	actionsTotal.WithLabelValues(a.Type().String()).Inc()
	s.logger.Debug("Действие обработано", slog.String("type", a.Type().String()))

	for _, fn := range subs {
		fn(st)
	}
}

// Subscribe регистрирует подписчика и возвращает функцию отписки.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Run выполняет thunk против этого контейнера.
func (s *Store) Run(ctx context.Context, t Thunk) error {
	return t(ctx, s.Dispatch, s.State)
}

// Notify добавляет уведомление и, если задана длительность,
// удаляет его по истечении. Возвращает ID уведомления.
func (s *Store) Notify(typ NotificationType, key, area string, d time.Duration) string {
	n := Notification{
		ID:       uuid.NewString(),
		Type:     typ,
		Key:      key,
		Context:  area,
		Duration: d,
	}
	s.Dispatch(AddNotification{Notification: n})
	if d > 0 {
		time.AfterFunc(d, func() {
			s.Dispatch(RemoveNotification{ID: n.ID})
		})
	}
	return n.ID
}
