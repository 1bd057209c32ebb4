// lti.go: события серии для инструмента планирования: список,
// снятие с публикации, переопубликация, удаление и SSE-поток
// завершения обработки.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	apimiddleware "github.com/bigkaa/castadmin/internal/api/middleware"
	"github.com/bigkaa/castadmin/internal/lti"
	"github.com/bigkaa/castadmin/internal/store"
	"github.com/bigkaa/castadmin/internal/ui/render"
)

// ltiPath: адрес страницы событий.
const ltiPath = "/admin/lti"

// defaultKeepAlive: интервал keep-alive SSE по умолчанию.
const defaultKeepAlive = 15 * time.Second

// LTIHandler: обработчик страницы событий серии.
type LTIHandler struct {
	registry        *lti.Registry
	editRoles       []string
	notificationTTL time.Duration
	keepAlive       time.Duration
	logger          *slog.Logger
}

// NewLTIHandler создаёт LTIHandler. keepAlive: интервал комментариев
// SSE, удерживающих соединение через прокси.
func NewLTIHandler(registry *lti.Registry, editRoles []string, notificationTTL, keepAlive time.Duration, logger *slog.Logger) *LTIHandler {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	return &LTIHandler{
		registry:        registry,
		editRoles:       editRoles,
		notificationTTL: notificationTTL,
		keepAlive:       keepAlive,
		logger:          logger.With(slog.String("component", "ui.lti")),
	}
}

// Routes регистрирует маршруты под /admin/lti.
func (h *LTIHandler) Routes(r chi.Router) {
	r.Get("/", h.HandleEvents)
	r.Get("/processing", h.HandleProcessing)
	r.Post("/events/{id}/retract", h.handleTransaction(func(ctx context.Context, m *lti.EventManager, id string) error {
		return m.Retract(ctx, id)
	}))
	r.Post("/events/{id}/republish", h.handleTransaction(func(ctx context.Context, m *lti.EventManager, id string) error {
		return m.Republish(ctx, id)
	}))
	r.Post("/events/{id}/delete", h.HandleDelete)
}

// seriesQuery: серия и признак персональной серии из запроса.
func seriesQuery(r *http.Request) (string, bool) {
	return r.FormValue("series"), r.FormValue("personal") == "true"
}

// seriesURL: адрес страницы (или потока) серии.
func seriesURL(path, series string, personal bool) string {
	q := url.Values{"series": {series}}
	if personal {
		q.Set("personal", "true")
	}
	return path + "?" + q.Encode()
}

// HandleEvents обрабатывает GET /admin/lti. Без параметра series
// отображается только форма выбора серии.
func (h *LTIHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(w, r, h.logger)
	if sess == nil {
		return
	}
	series, personal := seriesQuery(r)
	view := render.EventsView{
		SeriesID: series,
		Personal: personal,
		Status:   r.URL.Query().Get("status"),
		ReadOnly: !apimiddleware.CanEditACL(r.Context(), h.editRoles),
	}

	if series != "" {
		m := h.registry.Get(series, personal)
		events, err := m.ListEvents(r.Context())
		if err != nil {
			h.logger.Error("Ошибка загрузки событий серии",
				slog.String("series_id", series),
				slog.String("error", err.Error()),
			)
			sess.Store.Notify(store.NotificationError, "UI.LTI.FAILED", "", h.notificationTTL)
			events = m.Events()
		}
		view.Events = events
		view.Statuses = m.Statuses()
		view.StreamPath = seriesURL(ltiPath+"/processing", series, personal)
	}

	renderPage(w, r, h.logger, render.PageData{
		Title:         "UI.LTI.TITLE",
		Active:        ltiPath,
		Notifications: sess.Store.State().NotificationsFor(""),
		Body:          render.Events(view),
	})
}

// handleTransaction выполняет операцию публикации над событием
// и показывает её итог уведомлением.
func (h *LTIHandler) handleTransaction(op func(ctx context.Context, m *lti.EventManager, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		series, personal, ok := h.actionParams(w, r)
		if !ok {
			return
		}
		sess := currentSession(w, r, h.logger)
		if sess == nil {
			return
		}
		id := chi.URLParam(r, "id")

		err := op(r.Context(), h.registry.Get(series, personal), id)
		switch {
		case err == nil:
			sess.Store.Notify(store.NotificationSuccess, "UI.LTI.DONE", "", h.notificationTTL)
		case errors.Is(err, lti.ErrUnsupported):
			sess.Store.Notify(store.NotificationWarning, "UI.LTI.NOT_SUPPORTED", "", h.notificationTTL)
		default:
			h.logger.Error("Ошибка операции над событием",
				slog.String("event_id", id),
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
			sess.Store.Notify(store.NotificationError, "UI.LTI.FAILED", "", h.notificationTTL)
		}
		redirect(w, r, seriesURL(ltiPath, series, personal))
	}
}

// HandleDelete обрабатывает POST /admin/lti/events/{id}/delete.
func (h *LTIHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	series, personal, ok := h.actionParams(w, r)
	if !ok {
		return
	}
	sess := currentSession(w, r, h.logger)
	if sess == nil {
		return
	}
	id := chi.URLParam(r, "id")

	_, failed := h.registry.Get(series, personal).DeleteEventsSynchronously(r.Context(), []string{id})
	if len(failed) > 0 {
		sess.Store.Notify(store.NotificationError, "UI.LTI.FAILED", "", h.notificationTTL)
	} else {
		sess.Store.Notify(store.NotificationSuccess, "UI.LTI.DELETED", "", h.notificationTTL)
	}
	redirect(w, r, seriesURL(ltiPath, series, personal))
}

// actionParams проверяет форму действия: серия обязательна,
// изменения требуют права редактирования.
func (h *LTIHandler) actionParams(w http.ResponseWriter, r *http.Request) (string, bool, bool) {
	if err := r.ParseForm(); err != nil {
		badRequest(w, r)
		return "", false, false
	}
	series, personal := seriesQuery(r)
	if series == "" {
		badRequest(w, r)
		return "", false, false
	}
	if !apimiddleware.CanEditACL(r.Context(), h.editRoles) {
		forbidden(w, r)
		return "", false, false
	}
	return series, personal, true
}

// processedEvent: данные SSE-события processed.
type processedEvent struct {
	IDs []string `json:"ids"`
}

// HandleProcessing обрабатывает GET /admin/lti/processing: SSE endpoint.
// Для каждого события, чья обработка завершилась, отправляет
// event: processed. Между событиями шлёт комментарии keep-alive.
func (h *LTIHandler) HandleProcessing(w http.ResponseWriter, r *http.Request) {
	series, personal := seriesQuery(r)
	if series == "" {
		badRequest(w, r)
		return
	}
	m := h.registry.Get(series, personal)

	// Обработчик шины вызывается синхронно из проверки статуса:
	// отправка не блокирует её, лишние сообщения отбрасываются.
	messages := make(chan lti.Message, 16)
	unsubscribe := m.Bus().Subscribe(lti.TopicProcessingComplete, func(msg lti.Message) {
		select {
		case messages <- msg:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	rc := http.NewResponseController(w)
	// Поток живёт дольше WriteTimeout сервера.
	_ = rc.SetWriteDeadline(time.Time{})
	if err := rc.Flush(); err != nil {
		http.Error(w, "SSE не поддерживается", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	h.logger.Debug("SSE клиент подключён",
		slog.String("series_id", series),
		slog.String("remote_addr", r.RemoteAddr),
	)

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("SSE клиент отключён", slog.String("series_id", series))
			return
		case msg := <-messages:
			data, err := json.Marshal(processedEvent{IDs: msg.IDs})
			if err != nil {
				h.logger.Error("Ошибка сериализации processed", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(w, "event: processed\ndata: %s\n\n", data)
			_ = rc.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			_ = rc.Flush()
		}
	}
}
