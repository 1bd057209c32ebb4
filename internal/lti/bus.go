package lti

import (
	"sort"
	"sync"
)

// Topic: тема сообщения шины.
type Topic string

// Темы сообщений EventManager.
const (
	TopicStatuses           Topic = "event.statuses"
	TopicCreateSuccess      Topic = "event.create.success"
	TopicCreatePartial      Topic = "event.create.partial"
	TopicCreateFailed       Topic = "event.create.failed"
	TopicUpdateProgress     Topic = "event.update.progress"
	TopicUpdateFailed       Topic = "event.update.failed"
	TopicDeleteSuccess      Topic = "event.delete.success"
	TopicDeleteFail         Topic = "event.delete.fail"
	TopicTransactionActive  Topic = "event.transaction.active"
	TopicTransactionStarted Topic = "event.transaction.started"
	TopicTransactionDone    Topic = "event.transaction.complete"
	TopicTransactionFailed  Topic = "event.transaction.failed"
	TopicRepublishComplete  Topic = "event.republish.complete"
	TopicRepublishFailed    Topic = "event.republish.failed"
	TopicRetractComplete    Topic = "event.retract.complete"
	TopicRetractFailed      Topic = "event.retract.failed"
	TopicProcessingComplete Topic = "event.processing.complete"
)

// Progress: прогресс очереди: обработано Current ключей из Total.
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Message: сообщение шины. Заполнены только поля, относящиеся к теме.
type Message struct {
	Topic    Topic     `json:"topic"`
	IDs      []string  `json:"ids,omitempty"`
	Events   []Event   `json:"events,omitempty"`
	Statuses []Status  `json:"statuses,omitempty"`
	Progress *Progress `json:"progress,omitempty"`
	Active   bool      `json:"active,omitempty"`
}

type subscriber struct {
	fn   func(Message)
	once bool
}

// Bus: синхронная шина сообщений по темам.
type Bus struct {
	mu     sync.Mutex
	subs   map[Topic]map[int]subscriber
	nextID int
}

// NewBus создаёт пустую шину.
func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[int]subscriber)}
}

// Subscribe подписывает fn на тему. Возвращает функцию отписки.
func (b *Bus) Subscribe(topic Topic, fn func(Message)) func() {
	return b.add(topic, subscriber{fn: fn})
}

// Once подписывает fn на первое сообщение темы.
func (b *Bus) Once(topic Topic, fn func(Message)) func() {
	return b.add(topic, subscriber{fn: fn, once: true})
}

func (b *Bus) add(topic Topic, s subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]subscriber)
	}
	b.subs[topic][id] = s
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Emit доставляет сообщение подписчикам темы в порядке подписки.
// Обработчики вызываются вне блокировки.
func (b *Bus) Emit(m Message) {
	b.mu.Lock()
	subs := b.subs[m.Topic]
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Message), 0, len(ids))
	for _, id := range ids {
		s := subs[id]
		fns = append(fns, s.fn)
		if s.once {
			delete(subs, id)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(m)
	}
}
