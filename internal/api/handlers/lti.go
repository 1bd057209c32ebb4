// lti.go: JSON API событий серии LTI-инструмента.
// Серия передаётся параметрами запроса series и personal.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/castadmin/internal/api/errors"
	apimiddleware "github.com/bigkaa/castadmin/internal/api/middleware"
	"github.com/bigkaa/castadmin/internal/lti"
	"github.com/bigkaa/castadmin/internal/occlient"
)

// createPollTimeout ограничивает опрос списка после создания события.
const createPollTimeout = 2 * time.Minute

// eventListResponse: ответ GET /lti/events.
type eventListResponse struct {
	Total    int          `json:"total"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
	Statuses []lti.Status `json:"statuses"`
	Events   []lti.Event  `json:"events"`
}

// eventRequest: поля события в запросах создания и изменения.
// Duration задаётся в формате time.ParseDuration ("1h30m").
type eventRequest struct {
	Title      string    `json:"title"`
	Presenters []string  `json:"presenters"`
	Start      time.Time `json:"start"`
	Duration   string    `json:"duration"`
	Location   string    `json:"location"`
	SeriesID   string    `json:"series_id"`
	License    string    `json:"license"`
}

// bulkUpdateRequest: изменение нескольких событий.
type bulkUpdateRequest struct {
	IDs []string `json:"ids"`
	eventRequest
}

// commentRequest: тело POST /lti/events/{id}/comments.
type commentRequest struct {
	Text string `json:"text"`
}

// taskResult: итог задач очереди по одному событию.
type taskResult struct {
	ID     string   `json:"id"`
	Errors []string `json:"errors,omitempty"`
}

func (req eventRequest) duration() (time.Duration, error) {
	if req.Duration == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(req.Duration)
	if err != nil || d < 0 {
		return 0, errors.New("некорректная длительность")
	}
	return d, nil
}

func (req eventRequest) changes() (lti.Changes, error) {
	d, err := req.duration()
	if err != nil {
		return lti.Changes{}, err
	}
	return lti.Changes{
		Title:      req.Title,
		Presenters: req.Presenters,
		Start:      req.Start,
		Location:   req.Location,
		Duration:   d,
		SeriesID:   req.SeriesID,
	}, nil
}

// manager возвращает менеджер серии из параметров запроса.
// mutating требует права редактирования.
func (h *APIHandler) manager(w http.ResponseWriter, r *http.Request, mutating bool) (*lti.EventManager, bool) {
	series := r.URL.Query().Get("series")
	if series == "" {
		apierrors.ValidationError(w, "не указан параметр series")
		return nil, false
	}
	if mutating && !apimiddleware.CanEditACL(r.Context(), h.editRoles) {
		apierrors.Forbidden(w, "недостаточно прав для изменения событий")
		return nil, false
	}
	return h.registry.Get(series, r.URL.Query().Get("personal") == "true"), true
}

// writeLTIError сопоставляет ошибку операции ответу API.
func (h *APIHandler) writeLTIError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, lti.ErrNoSuchEvent), errors.Is(err, occlient.ErrNotFound):
		apierrors.NotFound(w, "событие не найдено")
	case errors.Is(err, lti.ErrIncompleteEvent):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, lti.ErrUnsupported):
		apierrors.NotSupported(w, err.Error())
	default:
		h.logger.Error("Ошибка операции над событиями",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.BackendUnavailable(w, "ошибка REST API платформы")
	}
}

// queryInt: необязательный целочисленный параметр запроса.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListEvents обрабатывает GET /api/v1/lti/events.
func (h *APIHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limitParam, err := queryInt(r, "limit")
	if err != nil {
		apierrors.ValidationError(w, "некорректный параметр limit")
		return
	}
	offsetParam, err := queryInt(r, "offset")
	if err != nil {
		apierrors.ValidationError(w, "некорректный параметр offset")
		return
	}
	m, ok := h.manager(w, r, false)
	if !ok {
		return
	}

	events, err := m.ListEvents(r.Context())
	if err != nil {
		h.writeLTIError(w, r, err)
		return
	}

	limit, offset := paginationDefaults(limitParam, offsetParam)
	page := []lti.Event{}
	if offset < len(events) {
		page = events[offset:min(offset+limit, len(events))]
	}
	writeJSON(w, http.StatusOK, eventListResponse{
		Total:    len(events),
		Limit:    limit,
		Offset:   offset,
		Statuses: m.Statuses(),
		Events:   page,
	})
}

// GetEvent обрабатывает GET /api/v1/lti/events/{id}.
func (h *APIHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r, false)
	if !ok {
		return
	}
	ev, err := m.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeLTIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// CreateEvent обрабатывает POST /api/v1/lti/events.
// Созданные события появляются в списке не сразу, поэтому после
// создания список перечитывается в фоне, пока не стабилизируется.
func (h *APIHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r, true)
	if !ok {
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}
	d, err := req.duration()
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	ids, err := m.CreateEvent(r.Context(), lti.NewEvent{
		Title:      req.Title,
		Presenters: req.Presenters,
		Start:      req.Start,
		Duration:   d,
		Location:   req.Location,
		SeriesID:   req.SeriesID,
		License:    req.License,
	})
	if err != nil {
		h.writeLTIError(w, r, err)
		return
	}

	go h.pollCreated(m)
	writeJSON(w, http.StatusCreated, map[string][]string{"ids": ids})
}

func (h *APIHandler) pollCreated(m *lti.EventManager) {
	ctx, cancel := context.WithTimeout(context.Background(), createPollTimeout)
	defer cancel()
	if err := m.PollEvents(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		h.logger.Warn("Опрос событий после создания прерван", slog.String("error", err.Error()))
	}
}

// UpdateEvent обрабатывает PATCH /api/v1/lti/events/{id}.
// Событие, ещё не загруженное в список серии, сначала запрашивается.
func (h *APIHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r, true)
	if !ok {
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}
	ch, err := req.changes()
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if _, loaded := m.Event(id); !loaded {
		if _, err := m.GetEvent(r.Context(), id); err != nil {
			h.writeLTIError(w, r, err)
			return
		}
	}
	if err := m.UpdateEvent(r.Context(), id, ch); err != nil {
		h.writeLTIError(w, r, err)
		return
	}
	ev, _ := m.Event(id)
	writeJSON(w, http.StatusOK, ev)
}

// UpdateEvents обрабатывает PATCH /api/v1/lti/events: изменение
// нескольких событий загруженного списка. Ошибки по событиям
// возвращаются в ответе, не прерывая остальные.
func (h *APIHandler) UpdateEvents(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r, true)
	if !ok {
		return
	}
	var req bulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		apierrors.ValidationError(w, "некорректное тело запроса")
		return
	}
	ch, err := req.changes()
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	if len(m.Events()) == 0 {
		if _, err := m.ListEvents(r.Context()); err != nil {
			h.writeLTIError(w, r, err)
			return
		}
	}

	results, err := m.UpdateEvents(r.Context(), req.IDs, ch)
	if err != nil {
		h.writeLTIError(w, r, err)
		return
	}
	out := make([]taskResult, 0, len(req.IDs))
	for _, id := range req.IDs {
		res := taskResult{ID: id}
		for _, tr := range results[id] {
			if tr.Err != nil {
				res.Errors = append(res.Errors, tr.Err.Error())
			}
		}
		out = append(out, res)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out, "failed": results.Failed()})
}

// DeleteEvent обрабатывает DELETE /api/v1/lti/events/{id}.
func (h *APIHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r, true)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if _, failed := m.DeleteEventsSynchronously(r.Context(), []string{id}); len(failed) > 0 {
		apierrors.BackendUnavailable(w, "не удалось удалить событие")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Retract обрабатывает POST /api/v1/lti/events/{id}/retract.
func (h *APIHandler) Retract(w http.ResponseWriter, r *http.Request) {
	h.transaction(w, r, (*lti.EventManager).Retract)
}

// Republish обрабатывает POST /api/v1/lti/events/{id}/republish.
func (h *APIHandler) Republish(w http.ResponseWriter, r *http.Request) {
	h.transaction(w, r, (*lti.EventManager).Republish)
}

func (h *APIHandler) transaction(w http.ResponseWriter, r *http.Request, op func(*lti.EventManager, context.Context, string) error) {
	m, ok := h.manager(w, r, true)
	if !ok {
		return
	}
	if err := op(m, r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeLTIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Comment обрабатывает POST /api/v1/lti/events/{id}/comments.
func (h *APIHandler) Comment(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r, true)
	if !ok {
		return
	}
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		apierrors.ValidationError(w, "не указан текст комментария")
		return
	}
	if err := m.Comment(r.Context(), chi.URLParam(r, "id"), req.Text); err != nil {
		h.writeLTIError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}
