package lti

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/castadmin/internal/occlient"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const eventsFixture = `{"total":3,"count":3,"limit":0,"offset":0,"results":[
 {"id":"e1","title":"Лекция 1","series":{"id":"s1"},"location":"room-1",
  "event_status":"EVENTS.EVENTS.STATUS.SCHEDULED","presenters":["Иванов"],
  "start_date":"2030-01-01T10:00:00Z","end_date":"2030-01-01T11:00:00Z"},
 {"id":"e2","title":"Лекция 2","series":{"id":"s1"},"agent_id":"room-2",
  "event_status":"EVENTS.EVENTS.STATUS.PROCESSING","workflow_state":"RUNNING",
  "start_date":"2025-01-01T10:00:00Z","end_date":"2025-01-01T11:00:00Z"},
 {"id":"e3","title":"Лекция 3","series":{"id":"s1"},"location":"room-1",
  "event_status":"EVENTS.EVENTS.STATUS.SCHEDULED",
  "start_date":"2031-01-01T10:00:00Z","end_date":"2031-01-01T12:00:00Z"}
]}`

// recorder собирает сообщения шины.
type recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *recorder) add(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func (r *recorder) topics() []Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Topic, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Topic
	}
	return out
}

func (r *recorder) find(topic Topic) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if m.Topic == topic {
			return m, true
		}
	}
	return Message{}, false
}

// setupManager создаёт EventManager поверх mock-сервера backend'а.
func setupManager(t *testing.T, api API, opts Options, handler http.HandlerFunc) *EventManager {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := occlient.New(occlient.Options{BaseURL: server.URL}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if opts.SeriesID == "" {
		opts.SeriesID = "s1"
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := NewEventManager(ctx, client, api, opts, testLogger())
	t.Cleanup(func() {
		cancel()
		m.Close()
	})
	return m
}

func TestEndpointsFor(t *testing.T) {
	admin := EndpointsFor(APIAdmin)
	path, err := Expand(admin.Scheduling, "ev 1")
	if err != nil {
		t.Fatal(err)
	}
	if path != "/admin-ng/event/ev%201/scheduling" {
		t.Errorf("scheduling: получен %s", path)
	}

	external := EndpointsFor(APIExternal)
	if path, _ := Expand(external.Update, "e1"); path != "/api/events/e1/metadata" {
		t.Errorf("external update: получен %s", path)
	}
	if _, err := Expand(external.Scheduling, "e1"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ожидалась ErrUnsupported, получена %v", err)
	}

	if got := EndpointsFor("unknown").API; got != APIAdmin {
		t.Errorf("неизвестный API: ожидался admin, получен %s", got)
	}
}

func TestParseAPI(t *testing.T) {
	tests := []struct {
		value    string
		fallback API
		want     API
	}{
		{"external", APIAdmin, APIExternal},
		{" admin ", APIExternal, APIAdmin},
		{"", APIExternal, APIExternal},
		{"soap", APIAdmin, APIAdmin},
		{"", "", APIAdmin},
	}
	for _, tt := range tests {
		if got := ParseAPI(tt.value, tt.fallback); got != tt.want {
			t.Errorf("ParseAPI(%q, %q) = %s, ожидался %s", tt.value, tt.fallback, got, tt.want)
		}
	}
}

func TestDeriveStatus(t *testing.T) {
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)
	tests := []struct {
		name  string
		event Event
		want  Status
	}{
		{"запланировано в будущем", Event{EventStatus: backendScheduled, Start: future}, StatusUpcoming},
		{"запланировано в прошлом", Event{EventStatus: backendScheduled, Start: past}, StatusExpired},
		{"идёт запись", Event{EventStatus: backendRecording}, StatusCapturing},
		{"ошибка обработки", Event{EventStatus: backendProcessingFailure}, StatusFailed},
		{"ошибка записи", Event{EventStatus: backendRecordingFailure}, StatusFailed},
		{"загрузка", Event{EventStatus: backendIngesting}, StatusProcessing},
		{"ожидание", Event{EventStatus: backendPending}, StatusProcessing},
		{"обработано в будущем", Event{EventStatus: backendProcessed, Start: future}, StatusUpcoming},
		{"опубликовано", Event{EventStatus: backendProcessed, Start: past, Publications: 2}, StatusPublished},
		{"без публикаций и комментариев", Event{EventStatus: backendProcessed, Start: past}, StatusUnwanted},
		{"с открытыми комментариями", Event{EventStatus: backendProcessed, Start: past, HasOpenComments: true}, StatusAwaitingReview},
		{"неизвестный статус", Event{EventStatus: "EVENTS.EVENTS.STATUS.ARCHIVED"}, StatusProcessing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.event, testNow); got != tt.want {
				t.Errorf("ожидался %s, получен %s", tt.want, got)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		45 * time.Minute:             "00:45:00",
		90 * time.Minute:             "01:30:00",
		10*time.Hour + 5*time.Minute: "10:05:00",
		time.Hour + 30*time.Second:   "01:00:00",
	}
	for d, want := range tests {
		if got := FormatDuration(d); got != want {
			t.Errorf("FormatDuration(%v) = %s, ожидалось %s", d, got, want)
		}
	}
}

func TestBus_OnceAndUnsubscribe(t *testing.T) {
	bus := NewBus()
	var all, once int
	unsubscribe := bus.Subscribe(TopicStatuses, func(Message) { all++ })
	bus.Once(TopicStatuses, func(Message) { once++ })

	bus.Emit(Message{Topic: TopicStatuses})
	bus.Emit(Message{Topic: TopicStatuses})
	unsubscribe()
	bus.Emit(Message{Topic: TopicStatuses})
	bus.Emit(Message{Topic: TopicDeleteFail})

	if all != 2 || once != 1 {
		t.Errorf("ожидалось all=2 once=1, получено all=%d once=%d", all, once)
	}
}

func TestQueue_Run(t *testing.T) {
	var order []string
	step := func(name string, err error) Task {
		return func(ctx context.Context, prev error) error {
			order = append(order, name)
			return err
		}
	}
	boom := errors.New("сбой")

	t.Run("без продолжения после ошибки", func(t *testing.T) {
		order = nil
		q := NewQueue()
		q.Add("a", step("a1", boom))
		q.Add("a", step("a2", nil))
		q.Add("b", step("b1", nil))

		bus := NewBus()
		rec := &recorder{}
		bus.Subscribe(TopicUpdateProgress, rec.add)
		bus.Subscribe(TopicUpdateFailed, rec.add)

		res := q.Run(context.Background(), QueueOptions{Success: TopicUpdateProgress, Fail: TopicUpdateFailed}, bus)

		if strings.Join(order, ",") != "a1,b1" {
			t.Errorf("порядок шагов: %v", order)
		}
		if len(res["a"]) != 1 || !errors.Is(res["a"][0].Err, boom) {
			t.Errorf("результаты a: %+v", res["a"])
		}
		if failed := res.Failed(); len(failed) != 1 || failed[0] != "a" {
			t.Errorf("Failed: %v", failed)
		}
		topics := rec.topics()
		if len(topics) != 2 || topics[0] != TopicUpdateFailed || topics[1] != TopicUpdateProgress {
			t.Errorf("уведомления: %v", topics)
		}
		if rec.msgs[1].Progress.Current != 2 || rec.msgs[1].Progress.Total != 2 {
			t.Errorf("прогресс: %+v", rec.msgs[1].Progress)
		}
		if q.Len() != 0 {
			t.Error("очередь должна быть очищена после прогона")
		}
	})

	t.Run("с продолжением и передачей ошибки", func(t *testing.T) {
		q := NewQueue()
		var seen error
		q.Add("a", step("a1", boom))
		q.Add("a", func(ctx context.Context, prev error) error {
			seen = prev
			return nil
		})
		res := q.Run(context.Background(), QueueOptions{ProceedWithErrors: true}, nil)
		if !errors.Is(seen, boom) {
			t.Errorf("второй шаг должен получить ошибку первого, получено %v", seen)
		}
		if len(res["a"]) != 2 || res["a"][1].Err != nil {
			t.Errorf("результаты: %+v", res["a"])
		}
	})

	t.Run("отменённый контекст", func(t *testing.T) {
		q := NewQueue()
		called := false
		q.Add("", func(ctx context.Context, prev error) error {
			called = true
			return nil
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := q.Run(ctx, QueueOptions{}, nil)
		if called {
			t.Error("шаг не должен выполняться после отмены")
		}
		if len(res.Failed()) != 1 {
			t.Errorf("ожидался один ключ с ошибкой, получено %v", res.Failed())
		}
	})
}

func TestResolveAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"org":{"properties":{"lti.manage.scheduling.api":"external"}}}`))
	}))
	defer server.Close()
	client, err := occlient.New(occlient.Options{BaseURL: server.URL}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if got := ResolveAPI(context.Background(), client, APIAdmin, testLogger()); got != APIExternal {
		t.Errorf("ожидался external, получен %s", got)
	}

	server.Close()
	if got := ResolveAPI(context.Background(), client, APIAdmin, testLogger()); got != APIAdmin {
		t.Errorf("при ошибке ожидался fallback admin, получен %s", got)
	}
}

func TestEventManager_ListEvents(t *testing.T) {
	var gotFilter string
	m := setupManager(t, APIAdmin, Options{Personal: true}, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin-ng/event/events.json" {
			http.NotFound(w, r)
			return
		}
		gotFilter = r.URL.Query().Get("filter")
		w.Write([]byte(eventsFixture))
	})
	rec := &recorder{}
	m.Bus().Subscribe(TopicStatuses, rec.add)

	events, err := m.ListEvents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if gotFilter != "textFilter:s1" {
		t.Errorf("персональная серия: ожидался textFilter:s1, получен %s", gotFilter)
	}
	if len(events) != 3 {
		t.Fatalf("ожидалось 3 события, получено %d", len(events))
	}
	if events[1].AgentID != "room-2" {
		t.Errorf("агент берётся из agent_id при пустом location, получен %q", events[1].AgentID)
	}
	if events[0].Duration() != time.Hour {
		t.Errorf("длительность: %v", events[0].Duration())
	}

	msg, ok := rec.find(TopicStatuses)
	if !ok {
		t.Fatal("статусы не опубликованы")
	}
	if len(msg.Statuses) != 2 || msg.Statuses[0] != StatusUpcoming || msg.Statuses[1] != StatusProcessing {
		t.Errorf("статусы: %v", msg.Statuses)
	}
	if ids := m.ProcessingIDs(); len(ids) != 1 || ids[0] != "e2" {
		t.Errorf("на проверке должны быть [e2], получено %v", ids)
	}
}

func TestEventManager_ProcessingComplete(t *testing.T) {
	m := setupManager(t, APIAdmin, Options{PollInterval: 5 * time.Millisecond}, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin-ng/event/events.json":
			w.Write([]byte(eventsFixture))
		case "/admin-ng/event/e2":
			w.Write([]byte(`{"id":"e2","title":"Лекция 2","event_status":"EVENTS.EVENTS.STATUS.PROCESSED",
				"workflow_state":"SUCCEEDED","publications":[{"id":"engage"}],
				"start_date":"2025-01-01T10:00:00Z","end_date":"2025-01-01T11:00:00Z"}`))
		default:
			http.NotFound(w, r)
		}
	})
	done := make(chan string, 1)
	m.Bus().Subscribe(TopicProcessingComplete, func(msg Message) { done <- msg.IDs[0] })

	if _, err := m.ListEvents(context.Background()); err != nil {
		t.Fatal(err)
	}

	select {
	case id := <-done:
		if id != "e2" {
			t.Errorf("ожидалось e2, получено %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("обработка не завершилась")
	}

	ev, ok := m.Event("e2")
	if !ok || ev.Status != StatusPublished {
		t.Errorf("событие должно обновиться до Published, получено %+v", ev)
	}
}

func TestEventManager_UpdateEvents(t *testing.T) {
	var mu sync.Mutex
	metadata := map[string]string{}
	m := setupManager(t, APIAdmin, Options{}, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/admin-ng/event/events.json":
			w.Write([]byte(eventsFixture))
		case r.URL.Path == "/admin-ng/event/e1/scheduling":
			http.Error(w, "conflict", http.StatusConflict)
		case r.URL.Path == "/admin-ng/event/e3/scheduling":
			w.WriteHeader(http.StatusNoContent)
		case strings.HasSuffix(r.URL.Path, "/metadata") && r.Method == http.MethodPut:
			r.ParseForm()
			mu.Lock()
			metadata[strings.Split(r.URL.Path, "/")[3]] = r.Form.Get("metadata")
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	})
	if _, err := m.ListEvents(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	m.Bus().Subscribe(TopicUpdateProgress, rec.add)
	m.Bus().Subscribe(TopicUpdateFailed, rec.add)

	res, err := m.UpdateEvents(context.Background(), []string{"e1", "e3"}, Changes{
		Title:    "Семинар",
		Location: "room-9",
	})
	if err != nil {
		t.Fatal(err)
	}
	if failed := res.Failed(); len(failed) != 1 || failed[0] != "e1" {
		t.Errorf("ошибка ожидалась только у e1, получено %v", failed)
	}

	mu.Lock()
	defer mu.Unlock()
	var e1 []metadataCatalog
	if err := json.Unmarshal([]byte(metadata["e1"]), &e1); err != nil {
		t.Fatalf("метаданные e1: %v", err)
	}
	for _, f := range e1[0].Fields {
		if f.ID == "location" {
			t.Error("после ошибки расписания location не должен уходить в метаданные")
		}
	}
	if e1[0].Fields[0].ID != "title" || e1[0].Fields[0].Value != "Семинар 1" {
		t.Errorf("заголовок e1: %+v", e1[0].Fields[0])
	}
	if !strings.Contains(metadata["e3"], `"room-9"`) || !strings.Contains(metadata["e3"], "Семинар 2") {
		t.Errorf("метаданные e3: %s", metadata["e3"])
	}

	topics := rec.topics()
	if len(topics) != 2 || topics[0] != TopicUpdateFailed || topics[1] != TopicUpdateProgress {
		t.Errorf("уведомления: %v", topics)
	}

	if _, err := m.UpdateEvents(context.Background(), []string{"missing"}, Changes{}); !errors.Is(err, ErrNoSuchEvent) {
		t.Errorf("ожидалась ErrNoSuchEvent, получена %v", err)
	}
}

func TestEventManager_UpdateEvent_Republish(t *testing.T) {
	var task string
	m := setupManager(t, APIAdmin, Options{}, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin-ng/event/events.json":
			w.Write([]byte(eventsFixture))
		case "/admin-ng/event/e2/metadata":
			w.WriteHeader(http.StatusOK)
		case "/admin-ng/tasks/new":
			r.ParseForm()
			task = r.Form.Get("metadata")
			w.WriteHeader(http.StatusCreated)
		default:
			http.NotFound(w, r)
		}
	})
	if _, err := m.ListEvents(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	m.Bus().Subscribe(TopicRepublishComplete, rec.add)

	if err := m.UpdateEvent(context.Background(), "e2", Changes{Title: "Новое название"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(task, `"republish-metadata"`) || !strings.Contains(task, `"e2"`) {
		t.Errorf("задача переопубликации: %s", task)
	}
	if _, ok := rec.find(TopicRepublishComplete); !ok {
		t.Error("не опубликовано завершение переопубликации")
	}
}

func TestEventManager_CreateEvent(t *testing.T) {
	var payload createPayload
	var fileName string
	m := setupManager(t, APIAdmin, Options{Workflows: Workflows{Schedule: "schedule-wf", Upload: "upload-wf"}},
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/admin-ng/event/new" {
				http.NotFound(w, r)
				return
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			json.Unmarshal([]byte(r.FormValue("metadata")), &payload)
			if fh, ok := r.MultipartForm.File["track_presenter.0"]; ok {
				fileName = fh[0].Filename
			}
			w.Write([]byte(`"new-1,new-2"`))
		})
	rec := &recorder{}
	m.Bus().Subscribe(TopicCreateSuccess, rec.add)
	m.Bus().Subscribe(TopicCreateFailed, rec.add)

	if _, err := m.CreateEvent(context.Background(), NewEvent{Title: "Без агента"}); !errors.Is(err, ErrIncompleteEvent) {
		t.Errorf("ожидалась ErrIncompleteEvent, получена %v", err)
	}

	start := time.Date(2030, 3, 1, 9, 0, 0, 0, time.UTC)
	ids, err := m.CreateEvent(context.Background(), NewEvent{
		Title:      "Лекция",
		Presenters: []string{"Петров"},
		Start:      start,
		Duration:   45 * time.Minute,
		Location:   "room-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "new-1" || ids[1] != "new-2" {
		t.Errorf("ID: %v", ids)
	}
	if payload.Processing.Workflow != "schedule-wf" || payload.Source["type"] != "SCHEDULE_SINGLE" {
		t.Errorf("payload: %+v", payload)
	}
	src := payload.Source["metadata"].(map[string]any)
	if src["end"] != "2030-03-01T09:45:00Z" || src["device"] != "room-1" {
		t.Errorf("source: %+v", src)
	}
	if payload.Metadata[0].Fields[0].ID != "isPartOf" || payload.Metadata[0].Fields[0].Value != "s1" {
		t.Errorf("isPartOf: %+v", payload.Metadata[0].Fields[0])
	}

	_, err = m.CreateEvent(context.Background(), NewEvent{
		Title:  "Загрузка",
		Upload: &Upload{Filename: "lecture.mp4", Content: io.NopCloser(strings.NewReader("data"))},
	})
	if err != nil {
		t.Fatal(err)
	}
	if fileName != "lecture.mp4" || payload.Processing.Workflow != "upload-wf" || payload.Source["type"] != "UPLOAD" {
		t.Errorf("загрузка: файл %q, payload %+v", fileName, payload)
	}

	topics := rec.topics()
	if len(topics) != 3 || topics[0] != TopicCreateFailed || topics[1] != TopicCreateSuccess {
		t.Errorf("уведомления: %v", topics)
	}
}

func TestEventManager_DeleteEventsSynchronously(t *testing.T) {
	m := setupManager(t, APIAdmin, Options{}, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/admin-ng/event/events.json":
			w.Write([]byte(eventsFixture))
		case r.Method == http.MethodDelete && r.URL.Path == "/admin-ng/event/e1":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodDelete:
			http.Error(w, "locked", http.StatusForbidden)
		default:
			http.NotFound(w, r)
		}
	})
	if _, err := m.ListEvents(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	m.Bus().Subscribe(TopicDeleteSuccess, rec.add)
	m.Bus().Subscribe(TopicDeleteFail, rec.add)

	deleted, failed := m.DeleteEventsSynchronously(context.Background(), []string{"e1", "e3"})
	if len(deleted) != 1 || deleted[0] != "e1" || len(failed) != 1 || failed[0] != "e3" {
		t.Errorf("удалено %v, ошибки %v", deleted, failed)
	}
	if _, ok := m.Event("e1"); ok {
		t.Error("удалённое событие должно исчезнуть из списка")
	}
	if len(m.Events()) != 2 {
		t.Errorf("ожидалось 2 события, получено %d", len(m.Events()))
	}
	if topics := rec.topics(); len(topics) != 2 || topics[0] != TopicDeleteSuccess || topics[1] != TopicDeleteFail {
		t.Errorf("уведомления: %v", topics)
	}
}

func TestEventManager_PollEvents(t *testing.T) {
	// Первый опрос находит новое событие, второй подтверждает, что список не меняется.
	m := setupManager(t, APIAdmin, Options{PollInterval: 2 * time.Millisecond}, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"id":"e1","event_status":"EVENTS.EVENTS.STATUS.SCHEDULED","start_date":"2030-01-01T10:00:00Z"}]}`))
	})
	rec := &recorder{}
	m.Bus().Subscribe(TopicCreatePartial, rec.add)
	m.Bus().Subscribe(TopicCreateSuccess, rec.add)

	if err := m.PollEvents(context.Background()); err != nil {
		t.Fatal(err)
	}
	topics := rec.topics()
	if len(topics) != 2 || topics[0] != TopicCreatePartial || topics[1] != TopicCreateSuccess {
		t.Errorf("уведомления: %v", topics)
	}
	partial, _ := rec.find(TopicCreatePartial)
	if len(partial.Events) != 1 {
		t.Errorf("в частичном результате ожидалось 1 событие, получено %d", len(partial.Events))
	}
}

func TestEventManager_PollEvents_StopsOnError(t *testing.T) {
	m := setupManager(t, APIAdmin, Options{PollInterval: 2 * time.Millisecond}, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	err := m.PollEvents(context.Background())
	if !errors.Is(err, occlient.ErrUnexpectedStatus) {
		t.Errorf("ожидалась ErrUnexpectedStatus, получена %v", err)
	}
}

func TestEventManager_CheckActiveTransaction(t *testing.T) {
	m := setupManager(t, APIAdmin, Options{}, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin-ng/event/e1/hasActiveTransaction":
			w.Write([]byte(`{"active":false}`))
		default:
			w.Write([]byte(`{}`))
		}
	})
	rec := &recorder{}
	m.Bus().Subscribe(TopicTransactionActive, rec.add)

	active, err := m.CheckActiveTransaction(context.Background(), "e1")
	if err != nil || active {
		t.Errorf("e1: active=%v err=%v", active, err)
	}
	active, err = m.CheckActiveTransaction(context.Background(), "e2")
	if err != nil || !active {
		t.Errorf("ответ без active должен считаться активной транзакцией: active=%v err=%v", active, err)
	}
	if len(rec.topics()) != 2 {
		t.Errorf("ожидалось 2 уведомления, получено %d", len(rec.topics()))
	}
}

func TestEventManager_ExternalAPI(t *testing.T) {
	var comment bool
	m := setupManager(t, APIExternal, Options{}, func(w http.ResponseWriter, r *http.Request) {
		comment = true
	})
	if err := m.Comment(context.Background(), "e1", "текст"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ожидалась ErrUnsupported, получена %v", err)
	}
	if err := m.Retract(context.Background(), "e1"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ожидалась ErrUnsupported, получена %v", err)
	}
	if comment {
		t.Error("неподдерживаемые операции не должны обращаться к backend")
	}
}

func TestEventManager_Comment(t *testing.T) {
	var text, reason string
	m := setupManager(t, APIAdmin, Options{}, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin-ng/event/e1/comment" {
			http.NotFound(w, r)
			return
		}
		r.ParseMultipartForm(1 << 16)
		text, reason = r.FormValue("text"), r.FormValue("reason")
		w.WriteHeader(http.StatusCreated)
	})
	if err := m.Comment(context.Background(), "e1", "обрезать начало"); err != nil {
		t.Fatal(err)
	}
	if text != "обрезать начало" || reason != commentReason {
		t.Errorf("комментарий: %q %q", text, reason)
	}
}

func TestRegistry_GetAndEvict(t *testing.T) {
	client, err := occlient.New(occlient.Options{BaseURL: "http://127.0.0.1:1"}, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry(client, APIAdmin, Options{PollInterval: time.Hour}, 1, time.Hour, testLogger())
	defer reg.Close()

	m1 := reg.Get("s1", false)
	if again := reg.Get("s1", false); again != m1 {
		t.Error("повторный Get должен вернуть тот же менеджер")
	}
	if p := reg.Get("s1", true); p == m1 {
		t.Error("персональная серия должна иметь отдельный менеджер")
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d, ожидалась 1 (размер реестра 1)", reg.Len())
	}
	if m := reg.Get("s1", false); m == m1 {
		t.Error("вытесненный менеджер не должен возвращаться")
	}
	if reg.API() != APIAdmin {
		t.Errorf("API = %q", reg.API())
	}
}
