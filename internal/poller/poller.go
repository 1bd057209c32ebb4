// Пакет poller: отменяемые периодические проверки.
//
// Tracker отслеживает набор ID (например, события в обработке) и раз
// в интервал проверяет каждый. Проверенный ID удаляется из набора;
// фоновая горутина завершается, когда набор пуст или когда отменён
// контекст владельца (сессия или открытое представление).
package poller

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// CheckFunc проверяет один ID. done=true: отслеживание ID завершено.
type CheckFunc func(ctx context.Context, id string) (done bool, err error)

// Tracker: периодическая проверка набора ID.
type Tracker struct {
	interval time.Duration
	check    CheckFunc
	onDone   func(id string)
	logger   *slog.Logger

	mu      sync.Mutex
	parent  context.Context
	ids     map[string]struct{}
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewTracker создаёт Tracker, привязанный к контексту владельца parent.
// onDone вызывается для каждого ID после завершения его отслеживания (может быть nil).
func NewTracker(parent context.Context, interval time.Duration, check CheckFunc, onDone func(id string), logger *slog.Logger) *Tracker {
	if onDone == nil {
		onDone = func(string) {}
	}
	return &Tracker{
		interval: interval,
		check:    check,
		onDone:   onDone,
		logger:   logger.With(slog.String("component", "poller")),
		parent:   parent,
		ids:      make(map[string]struct{}),
	}
}

// Track добавляет ID в набор и при необходимости запускает проверку.
// После отмены контекста владельца вызов игнорируется.
func (t *Tracker) Track(ids ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.parent.Err() != nil {
		return
	}
	for _, id := range ids {
		t.ids[id] = struct{}{}
	}
	if !t.running && len(t.ids) > 0 {
		t.startLocked()
	}
}

// Untrack удаляет ID из набора без вызова onDone.
func (t *Tracker) Untrack(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ids, id)
}

// Tracked возвращает отслеживаемые ID в отсортированном порядке.
func (t *Tracker) Tracked() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.ids))
	for id := range t.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Running сообщает, работает ли фоновая проверка.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Stop останавливает проверку и ждёт завершения горутины.
// Набор ID сохраняется: следующий Track снова запустит проверку.
func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (t *Tracker) startLocked() {
	ctx, cancel := context.WithCancel(t.parent)
	done := make(chan struct{})
	t.cancel, t.done, t.running = cancel, done, true

	go func() {
		defer close(done)
		defer cancel()

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				t.finish(done)
				t.logger.Debug("Проверка остановлена владельцем")
				return
			case <-ticker.C:
				if t.tick(ctx) {
					return
				}
			}
		}
	}()
}

// tick проверяет все ID и возвращает true, если набор опустел.
func (t *Tracker) tick(ctx context.Context) bool {
	for _, id := range t.Tracked() {
		if ctx.Err() != nil {
			return false
		}
		done, err := t.check(ctx, id)
		if err != nil {
			t.logger.Warn("Ошибка проверки",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		if done {
			t.mu.Lock()
			_, tracked := t.ids[id]
			delete(t.ids, id)
			t.mu.Unlock()
			if tracked {
				t.onDone(id)
			}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.ids) == 0 {
		t.running = false
		t.cancel, t.done = nil, nil
		return true
	}
	return false
}

// finish сбрасывает признак работы, если горутина done всё ещё текущая.
func (t *Tracker) finish(done chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == done {
		t.running = false
		t.cancel, t.done = nil, nil
	}
}

// Every вызывает fn раз в interval, пока fn не вернёт true
// или не будет отменён ctx. Блокирует вызывающего.
func Every(ctx context.Context, interval time.Duration, fn func(ctx context.Context) (stop bool)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if fn(ctx) {
				return nil
			}
		}
	}
}
