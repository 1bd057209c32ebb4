package lti

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/bigkaa/castadmin/internal/occlient"
	"github.com/bigkaa/castadmin/internal/poller"
)

var (
	// ErrNoSuchEvent: событие отсутствует в загруженном списке.
	ErrNoSuchEvent = errors.New("событие не найдено")
	// ErrIncompleteEvent: для планирования не хватает агента или времени начала.
	ErrIncompleteEvent = errors.New("не заполнены обязательные поля события")
)

// DefaultPollInterval: интервал опроса событий и статуса обработки.
const DefaultPollInterval = 10 * time.Second

const (
	episodeFlavor  = "dublincore/episode"
	episodeTitle   = "EVENTS.EVENTS.DETAILS.CATALOG.EPISODE"
	commentReason  = "EVENTS.EVENTS.DETAILS.COMMENTS.REASONS.CUTTING"
	metadataTime   = "2006-01-02T15:04:05.000Z"
	schedulingTime = "2006-01-02T15:04:05Z"
)

// Backend: операции REST API, используемые EventManager.
// Реализуется *occlient.Client.
type Backend interface {
	GetJSON(ctx context.Context, op, path string, query url.Values) (gjson.Result, error)
	PostForm(ctx context.Context, op, path string, form url.Values) ([]byte, error)
	PutForm(ctx context.Context, op, path string, form url.Values) ([]byte, error)
	PostMultipart(ctx context.Context, op, path string, body *bytes.Buffer, contentType string) ([]byte, error)
	Delete(ctx context.Context, op, path string) error
	OrgProperty(ctx context.Context, name string) (string, error)
}

// Workflows: workflow для новых событий.
type Workflows struct {
	Schedule string
	Upload   string
}

// Options: параметры EventManager.
type Options struct {
	// SeriesID: серия, события которой показывает инструмент.
	SeriesID string
	// Personal: персональная серия: события ищутся текстовым фильтром.
	Personal bool
	// PollInterval: интервал опроса (по умолчанию DefaultPollInterval).
	PollInterval time.Duration
	Workflows    Workflows
	// Now: источник времени для вычисления статусов (по умолчанию time.Now).
	Now func() time.Time
}

// EventManager: события серии и операции над ними.
type EventManager struct {
	backend    Backend
	endpoints  Endpoints
	opts       Options
	bus        *Bus
	processing *poller.Tracker
	logger     *slog.Logger

	mu     sync.RWMutex
	events []Event
}

// ResolveAPI выбирает API по свойству организации.
// Ошибка чтения свойства даёт fallback.
func ResolveAPI(ctx context.Context, backend Backend, fallback API, logger *slog.Logger) API {
	v, err := backend.OrgProperty(ctx, OrgPropertySchedulingAPI)
	if err != nil {
		logger.Warn("Не удалось прочитать свойство организации",
			slog.String("property", OrgPropertySchedulingAPI),
			slog.String("error", err.Error()),
		)
		return ParseAPI("", fallback)
	}
	return ParseAPI(v, fallback)
}

// NewEventManager создаёт EventManager. ctx ограничивает жизнь фоновой
// проверки статуса обработки: при его отмене проверка останавливается.
func NewEventManager(ctx context.Context, backend Backend, api API, opts Options, logger *slog.Logger) *EventManager {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &EventManager{
		backend:   backend,
		endpoints: EndpointsFor(api),
		opts:      opts,
		bus:       NewBus(),
		logger: logger.With(
			slog.String("component", "lti"),
			slog.String("series_id", opts.SeriesID),
		),
	}
	m.processing = poller.NewTracker(ctx, opts.PollInterval, m.checkProcessing, func(id string) {
		m.bus.Emit(Message{Topic: TopicProcessingComplete, IDs: []string{id}})
	}, m.logger)
	return m
}

// Bus возвращает шину сообщений.
func (m *EventManager) Bus() *Bus { return m.bus }

// Endpoints возвращает шаблоны путей выбранного API.
func (m *EventManager) Endpoints() Endpoints { return m.endpoints }

// Close останавливает фоновую проверку статуса обработки.
func (m *EventManager) Close() { m.processing.Stop() }

// Events возвращает копию загруженных событий.
func (m *EventManager) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneEvents(m.events)
}

// Event возвращает загруженное событие по ID.
func (m *EventManager) Event(id string) (Event, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}

// Statuses возвращает статусы загруженных событий без повторов.
func (m *EventManager) Statuses() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uniqueStatuses(m.events)
}

// ListEvents загружает события серии, вычисляет статусы, публикует
// TopicStatuses и ставит события в обработке на проверку.
func (m *EventManager) ListEvents(ctx context.Context) ([]Event, error) {
	filter := "series:" + m.opts.SeriesID
	if m.opts.Personal {
		filter = "textFilter:" + m.opts.SeriesID
	}
	res, err := m.backend.GetJSON(ctx, "lti_events", m.endpoints.Events, url.Values{"filter": {filter}})
	if err != nil {
		return nil, fmt.Errorf("загрузка событий серии: %w", err)
	}

	now := m.opts.Now()
	events := []Event{}
	var processing []string
	for _, r := range res.Get("results").Array() {
		e := parseEvent(r)
		e.Status = DeriveStatus(e, now)
		if e.Status == StatusProcessing {
			processing = append(processing, e.ID)
		}
		events = append(events, e)
	}

	m.mu.Lock()
	m.events = events
	m.mu.Unlock()

	m.bus.Emit(Message{Topic: TopicStatuses, Statuses: uniqueStatuses(events)})
	if len(processing) > 0 {
		m.processing.Track(processing...)
	}
	return cloneEvents(events), nil
}

// GetEvent загружает событие и обновляет или добавляет его в список.
// При изменении набора статусов публикуется TopicStatuses.
func (m *EventManager) GetEvent(ctx context.Context, id string) (Event, error) {
	path, err := Expand(m.endpoints.Event, id)
	if err != nil {
		return Event{}, err
	}
	res, err := m.backend.GetJSON(ctx, "lti_event", path, nil)
	if err != nil {
		return Event{}, fmt.Errorf("загрузка события %s: %w", id, err)
	}
	e := parseEvent(res)
	if e.ID == "" {
		e.ID = id
	}
	e.Status = DeriveStatus(e, m.opts.Now())

	m.mu.Lock()
	before := len(uniqueStatuses(m.events))
	replaced := false
	for i := range m.events {
		if m.events[i].ID == e.ID {
			m.events[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		m.events = append(m.events, e)
	}
	statuses := uniqueStatuses(m.events)
	m.mu.Unlock()

	if len(statuses) != before {
		m.bus.Emit(Message{Topic: TopicStatuses, Statuses: statuses})
	}
	return e, nil
}

// CheckProcessingStatus ставит события на периодическую проверку.
// Событие снимается с проверки, когда его workflow больше не выполняется;
// для каждого снятого публикуется TopicProcessingComplete.
func (m *EventManager) CheckProcessingStatus(ids ...string) {
	m.processing.Track(ids...)
}

// ProcessingIDs возвращает события на проверке.
func (m *EventManager) ProcessingIDs() []string {
	return m.processing.Tracked()
}

func (m *EventManager) checkProcessing(ctx context.Context, id string) (bool, error) {
	e, err := m.GetEvent(ctx, id)
	if errors.Is(err, occlient.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return e.WorkflowState != WorkflowRunning, nil
}

// PollEvents перечитывает список раз в интервал, пока число событий
// не перестанет меняться (TopicCreateSuccess). Каждое изменение
// публикуется как TopicCreatePartial. Ошибка загрузки прекращает опрос.
func (m *EventManager) PollEvents(ctx context.Context) error {
	count := len(m.Events())
	var listErr error
	err := poller.Every(ctx, m.opts.PollInterval, func(ctx context.Context) bool {
		events, err := m.ListEvents(ctx)
		if err != nil {
			listErr = err
			return true
		}
		if len(events) == count {
			m.bus.Emit(Message{Topic: TopicCreateSuccess})
			return true
		}
		count = len(events)
		m.bus.Emit(Message{Topic: TopicCreatePartial, Events: events})
		return false
	})
	if listErr != nil {
		return listErr
	}
	return err
}

// CheckActiveTransaction сообщает, идёт ли по событию транзакция,
// и публикует TopicTransactionActive.
// Ответ без поля active считается активной транзакцией.
func (m *EventManager) CheckActiveTransaction(ctx context.Context, id string) (bool, error) {
	path, err := Expand(m.endpoints.ActiveTransaction, id)
	if err != nil {
		return false, err
	}
	res, err := m.backend.GetJSON(ctx, "lti_active_transaction", path, nil)
	if err != nil {
		return false, fmt.Errorf("проверка транзакции %s: %w", id, err)
	}
	active := true
	if v := res.Get("active"); v.Exists() {
		active = v.Bool()
	}
	m.bus.Emit(Message{Topic: TopicTransactionActive, IDs: []string{id}, Active: active})
	return active, nil
}

// Upload: файл записи для загрузки вместо планирования.
type Upload struct {
	Filename string
	Content  io.Reader
}

// NewEvent: параметры нового события.
type NewEvent struct {
	Title      string
	Presenters []string
	Start      time.Time
	Duration   time.Duration
	Location   string
	// SeriesID переопределяет серию только в персональном режиме.
	SeriesID string
	License  string
	Upload   *Upload
}

type metadataField struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

type metadataCatalog struct {
	Flavor string          `json:"flavor"`
	Title  string          `json:"title"`
	Fields []metadataField `json:"fields"`
}

type processing struct {
	Workflow      string            `json:"workflow"`
	Configuration map[string]string `json:"configuration"`
}

type createPayload struct {
	Processing processing        `json:"processing"`
	Source     map[string]any    `json:"source"`
	Metadata   []metadataCatalog `json:"metadata"`
	Assets     map[string]any    `json:"assets"`
}

// CreateEvent создаёт событие: плановую запись либо загрузку файла.
// Возвращает ID созданных событий и публикует TopicCreateSuccess
// или TopicCreateFailed.
func (m *EventManager) CreateEvent(ctx context.Context, ne NewEvent) ([]string, error) {
	ids, err := m.createEvent(ctx, ne)
	if err != nil {
		m.logger.Error("Ошибка создания события", slog.String("error", err.Error()))
		m.bus.Emit(Message{Topic: TopicCreateFailed})
		return nil, err
	}
	m.bus.Emit(Message{Topic: TopicCreateSuccess, IDs: ids})
	return ids, nil
}

func (m *EventManager) createEvent(ctx context.Context, ne NewEvent) ([]string, error) {
	upload := ne.Upload != nil
	if !upload && (ne.Location == "" || ne.Start.IsZero()) {
		return nil, ErrIncompleteEvent
	}
	path, err := Expand(m.endpoints.Create, "")
	if err != nil {
		return nil, err
	}

	seriesID := m.opts.SeriesID
	if m.opts.Personal && ne.SeriesID != "" {
		seriesID = ne.SeriesID
	}
	fields := []metadataField{
		{ID: "isPartOf", Value: seriesID},
		{ID: "title", Value: ne.Title},
		{ID: "creator", Value: presentersOrEmpty(ne.Presenters)},
	}
	if !ne.Start.IsZero() {
		fields = append(fields, metadataField{ID: "startDate", Value: ne.Start.UTC().Format(metadataTime)})
	}
	location := ne.Location
	if upload {
		location = "upload"
	}
	fields = append(fields, metadataField{ID: "location", Value: location})
	if ne.License != "" {
		fields = append(fields, metadataField{ID: "license", Value: ne.License})
	}

	payload := createPayload{
		Processing: processing{
			Workflow:      m.opts.Workflows.Schedule,
			Configuration: map[string]string{"comment": "false", "publish": "true"},
		},
		Source:   map[string]any{"type": "UPLOAD"},
		Metadata: []metadataCatalog{{Flavor: episodeFlavor, Title: episodeTitle, Fields: fields}},
		Assets:   map[string]any{},
	}
	if upload {
		payload.Processing.Workflow = m.opts.Workflows.Upload
	} else {
		payload.Source = map[string]any{
			"type": "SCHEDULE_SINGLE",
			"metadata": map[string]any{
				"start":    ne.Start.UTC().Format(schedulingTime),
				"end":      ne.Start.Add(ne.Duration).UTC().Format(schedulingTime),
				"device":   ne.Location,
				"duration": fmt.Sprint(ne.Duration.Milliseconds()),
				"inputs":   "default",
			},
		}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("кодирование события: %w", err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("metadata", string(raw)); err != nil {
		return nil, err
	}
	if upload {
		part, err := w.CreateFormFile("track_presenter.0", ne.Upload.Filename)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, ne.Upload.Content); err != nil {
			return nil, fmt.Errorf("чтение загружаемого файла: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	resp, err := m.backend.PostMultipart(ctx, "lti_create_event", path, &body, w.FormDataContentType())
	if err != nil {
		return nil, fmt.Errorf("создание события: %w", err)
	}
	return parseCreatedIDs(resp), nil
}

// parseCreatedIDs разбирает ответ создания: ID через запятую,
// возможно в кавычках или в JSON-массиве.
func parseCreatedIDs(resp []byte) []string {
	s := strings.Trim(strings.TrimSpace(string(resp)), "[]")
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		id := strings.Trim(strings.TrimSpace(part), `"`)
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Changes: изменения события. Нулевые поля не меняются.
type Changes struct {
	Title      string
	Presenters []string
	Start      time.Time
	Location   string
	Duration   time.Duration
	SeriesID   string
}

// HasScheduling сообщает, затрагивают ли изменения расписание.
func (c Changes) HasScheduling() bool {
	return !c.Start.IsZero() || c.Location != "" || c.Duration > 0
}

// WithoutScheduling возвращает изменения без полей расписания.
func (c Changes) WithoutScheduling() Changes {
	c.Start, c.Location, c.Duration = time.Time{}, "", 0
	return c
}

func (c Changes) metadataFields() []metadataField {
	var fields []metadataField
	if c.Title != "" {
		fields = append(fields, metadataField{ID: "title", Value: c.Title})
	}
	if len(c.Presenters) > 0 {
		fields = append(fields, metadataField{ID: "creator", Value: c.Presenters})
	}
	if !c.Start.IsZero() {
		fields = append(fields, metadataField{ID: "startDate", Value: c.Start.UTC().Format(metadataTime)})
	}
	if c.Location != "" {
		fields = append(fields, metadataField{ID: "location", Value: c.Location})
	}
	if c.Duration > 0 {
		fields = append(fields, metadataField{ID: "duration", Value: FormatDuration(c.Duration)})
	}
	if c.SeriesID != "" {
		fields = append(fields, metadataField{ID: "isPartOf", Value: c.SeriesID})
	}
	return fields
}

// FormatDuration форматирует длительность в "HH:MM:00" (секунды отбрасываются).
func FormatDuration(d time.Duration) string {
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d:00", minutes/60, minutes%60)
}

// UpdateEvent изменяет одно событие: сначала расписание, затем метаданные.
// Если расписание не менялось и событие уже записано, оно переопубликовывается.
func (m *EventManager) UpdateEvent(ctx context.Context, id string, ch Changes) error {
	ev, ok := m.Event(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSuchEvent, id)
	}

	q := NewQueue()
	m.enqueueUpdate(q, ev, ch)
	results := q.Run(ctx, QueueOptions{}, nil)
	for _, r := range results[ev.ID] {
		if r.Err != nil {
			return r.Err
		}
	}
	if !ch.HasScheduling() && ev.Status != StatusUpcoming {
		return m.Republish(ctx, ev.ID)
	}
	return nil
}

// UpdateEvents применяет изменения к нескольким событиям через очередь.
// К заголовку добавляется порядковый номер. После ошибки расписания
// метаданные обновляются без полей расписания. Прогресс публикуется
// темами TopicUpdateProgress и TopicUpdateFailed.
func (m *EventManager) UpdateEvents(ctx context.Context, ids []string, ch Changes) (Results, error) {
	q := NewQueue()
	for i, id := range ids {
		ev, ok := m.Event(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoSuchEvent, id)
		}
		evChanges := ch
		if evChanges.Title != "" {
			evChanges.Title = fmt.Sprintf("%s %d", ch.Title, i+1)
		}
		m.enqueueUpdate(q, ev, evChanges)
	}
	return q.Run(ctx, QueueOptions{
		ProceedWithErrors: true,
		Success:           TopicUpdateProgress,
		Fail:              TopicUpdateFailed,
	}, m.bus), nil
}

func (m *EventManager) enqueueUpdate(q *Queue, ev Event, ch Changes) {
	if ch.HasScheduling() {
		q.Add(ev.ID, func(ctx context.Context, _ error) error {
			return m.updateScheduling(ctx, ev, ch)
		})
	}
	q.Add(ev.ID, func(ctx context.Context, prev error) error {
		meta := ch
		if prev != nil {
			meta = ch.WithoutScheduling()
		}
		if len(meta.metadataFields()) == 0 {
			return nil
		}
		return m.updateMetadata(ctx, ev, meta)
	})
}

func (m *EventManager) updateScheduling(ctx context.Context, ev Event, ch Changes) error {
	path, err := Expand(m.endpoints.Scheduling, ev.ID)
	if err != nil {
		return err
	}
	agent := ch.Location
	if agent == "" {
		agent = ev.AgentID
	}
	start := ch.Start
	if start.IsZero() {
		start = ev.Start
	}
	duration := ch.Duration
	if duration <= 0 {
		duration = ev.Duration()
	}
	raw, err := json.Marshal(map[string]string{
		"agentId": agent,
		"start":   start.UTC().Format(schedulingTime),
		"end":     start.Add(duration).UTC().Format(schedulingTime),
	})
	if err != nil {
		return err
	}
	if _, err := m.backend.PutForm(ctx, "lti_update_scheduling", path, url.Values{"scheduling": {string(raw)}}); err != nil {
		return fmt.Errorf("изменение расписания %s: %w", ev.ID, err)
	}
	return nil
}

func (m *EventManager) updateMetadata(ctx context.Context, ev Event, ch Changes) error {
	path, err := Expand(m.endpoints.Update, ev.ID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal([]metadataCatalog{{
		Flavor: episodeFlavor,
		Title:  episodeTitle,
		Fields: ch.metadataFields(),
	}})
	if err != nil {
		return err
	}
	if _, err := m.backend.PutForm(ctx, "lti_update_metadata", path, url.Values{"metadata": {string(raw)}}); err != nil {
		return fmt.Errorf("изменение метаданных %s: %w", ev.ID, err)
	}
	if _, err := m.GetEvent(ctx, ev.ID); err != nil {
		m.logger.Warn("Не удалось перечитать событие",
			slog.String("event_id", ev.ID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// DeleteEventsSynchronously удаляет события по одному и публикует
// TopicDeleteSuccess и TopicDeleteFail. Удалённые убираются из списка.
func (m *EventManager) DeleteEventsSynchronously(ctx context.Context, ids []string) (deleted, failed []string) {
	deleted, failed = []string{}, []string{}
	for _, id := range ids {
		if err := m.deleteEvent(ctx, id); err != nil {
			m.logger.Warn("Ошибка удаления события",
				slog.String("event_id", id),
				slog.String("error", err.Error()),
			)
			failed = append(failed, id)
			continue
		}
		deleted = append(deleted, id)
	}

	m.mu.Lock()
	kept := m.events[:0:0]
	for _, e := range m.events {
		if !containsID(deleted, e.ID) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	m.mu.Unlock()

	m.bus.Emit(Message{Topic: TopicDeleteSuccess, IDs: deleted})
	m.bus.Emit(Message{Topic: TopicDeleteFail, IDs: failed})
	return deleted, failed
}

func (m *EventManager) deleteEvent(ctx context.Context, id string) error {
	path, err := Expand(m.endpoints.Delete, id)
	if err != nil {
		return err
	}
	return m.backend.Delete(ctx, "lti_delete_event", path)
}

// Comment добавляет комментарий к событию.
func (m *EventManager) Comment(ctx context.Context, id, text string) error {
	path, err := Expand(m.endpoints.Comment, id)
	if err != nil {
		return err
	}
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("text", text); err != nil {
		return err
	}
	if err := w.WriteField("reason", commentReason); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	if _, err := m.backend.PostMultipart(ctx, "lti_comment", path, &body, w.FormDataContentType()); err != nil {
		return fmt.Errorf("комментарий к событию %s: %w", id, err)
	}
	return nil
}

// StartTask запускает workflow над событием с конфигурацией config.
func (m *EventManager) StartTask(ctx context.Context, id, workflow string, config map[string]string) error {
	if m.endpoints.StartTask == "" {
		return ErrUnsupported
	}
	raw, err := json.Marshal(map[string]any{
		"workflow":      workflow,
		"configuration": map[string]map[string]string{id: config},
	})
	if err != nil {
		return err
	}
	if _, err := m.backend.PostForm(ctx, "lti_start_task", m.endpoints.StartTask, url.Values{"metadata": {string(raw)}}); err != nil {
		return fmt.Errorf("запуск задачи %s для %s: %w", workflow, id, err)
	}
	return nil
}

// Republish переопубликовывает метаданные события.
func (m *EventManager) Republish(ctx context.Context, id string) error {
	return m.transaction(ctx, id, "republish-metadata", map[string]string{
		"publishToEngage": "true",
		"publishToOaiPmh": "false",
	}, TopicRepublishComplete, TopicRepublishFailed)
}

// Retract снимает событие с публикации.
func (m *EventManager) Retract(ctx context.Context, id string) error {
	return m.transaction(ctx, id, "retract", map[string]string{
		"retractFromEngage":  "true",
		"retractFromOaiPmh":  "true",
		"retractFromAws":     "false",
		"retractFromApi":     "true",
		"retractPreview":     "true",
		"retractFromYoutube": "false",
	}, TopicRetractComplete, TopicRetractFailed)
}

// transaction запускает workflow, публикуя начало и итог транзакции,
// и ставит событие на проверку статуса обработки.
func (m *EventManager) transaction(ctx context.Context, id, workflow string, config map[string]string, complete, failed Topic) error {
	ids := []string{id}
	m.bus.Emit(Message{Topic: TopicTransactionStarted, IDs: ids})
	err := m.StartTask(ctx, id, workflow, config)
	if err != nil {
		m.bus.Emit(Message{Topic: TopicTransactionFailed, IDs: ids})
		m.bus.Emit(Message{Topic: failed, IDs: ids})
	} else {
		m.bus.Emit(Message{Topic: TopicTransactionDone, IDs: ids})
		m.bus.Emit(Message{Topic: complete, IDs: ids})
	}
	m.CheckProcessingStatus(id)
	return err
}

func presentersOrEmpty(p []string) []string {
	if p == nil {
		return []string{}
	}
	return p
}

func cloneEvents(in []Event) []Event {
	out := make([]Event, len(in))
	for i, e := range in {
		e.Presenters = append([]string{}, e.Presenters...)
		out[i] = e
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
