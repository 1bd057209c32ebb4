package lti

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Task: шаг очереди. prev: ошибка предыдущего шага того же ключа
// (nil для первого шага или после успеха).
type Task func(ctx context.Context, prev error) error

// TaskResult: результат одного шага.
type TaskResult struct {
	Step int
	Err  error
}

// Results: результаты прогона очереди по ключам.
type Results map[string][]TaskResult

// Failed возвращает ключи, у которых хотя бы один шаг завершился ошибкой.
func (r Results) Failed() []string {
	var out []string
	for key, steps := range r {
		for _, s := range steps {
			if s.Err != nil {
				out = append(out, key)
				break
			}
		}
	}
	return out
}

// QueueOptions: параметры прогона.
type QueueOptions struct {
	// ProceedWithErrors: после ошибки продолжать шаги того же ключа.
	ProceedWithErrors bool
	// Success и Fail: темы уведомлений о завершении ключа (могут быть пустыми).
	Success Topic
	Fail    Topic
}

// Queue: последовательная очередь задач, сгруппированных по ключам.
// Ключи выполняются в порядке добавления, шаги ключа последовательно.
type Queue struct {
	mu    sync.Mutex
	order []string
	tasks map[string][]Task
}

// NewQueue создаёт пустую очередь.
func NewQueue() *Queue {
	return &Queue{tasks: make(map[string][]Task)}
}

// Add добавляет шаг к ключу. Пустой ключ заменяется сгенерированным.
// Возвращает фактический ключ.
func (q *Queue) Add(key string, t Task) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if key == "" {
		key = uuid.NewString()
	}
	if _, ok := q.tasks[key]; !ok {
		q.order = append(q.order, key)
	}
	q.tasks[key] = append(q.tasks[key], t)
	return key
}

// Len возвращает число ключей в очереди.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Run выполняет накопленные задачи и очищает очередь.
// После каждого ключа публикуется Success либо Fail с прогрессом.
// Отмена ctx прерывает прогон: невыполненные шаги получают ctx.Err().
func (q *Queue) Run(ctx context.Context, opts QueueOptions, bus *Bus) Results {
	q.mu.Lock()
	order, tasks := q.order, q.tasks
	q.order, q.tasks = nil, make(map[string][]Task)
	q.mu.Unlock()

	results := make(Results, len(order))
	for i, key := range order {
		failed := false
		var prev error
		for step, task := range tasks[key] {
			var err error
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			} else {
				err = task(ctx, prev)
			}
			results[key] = append(results[key], TaskResult{Step: step, Err: err})
			prev = err
			if err != nil {
				failed = true
				if !opts.ProceedWithErrors {
					break
				}
			}
		}

		topic := opts.Success
		if failed {
			topic = opts.Fail
		}
		if bus != nil && topic != "" {
			bus.Emit(Message{
				Topic:    topic,
				IDs:      []string{key},
				Progress: &Progress{Current: i + 1, Total: len(order)},
			})
		}
	}
	return results
}
