// access.go: вкладка политик доступа события или серии.
// Редактор живёт в сессии, пока пользователь не уйдёт со вкладки
// и не откроет её снова без несохранённых изменений.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/castadmin/internal/acl"
	apimiddleware "github.com/bigkaa/castadmin/internal/api/middleware"
	"github.com/bigkaa/castadmin/internal/occlient"
	"github.com/bigkaa/castadmin/internal/session"
	"github.com/bigkaa/castadmin/internal/tablecfg"
	"github.com/bigkaa/castadmin/internal/ui/render"
)

// AccessHandler: обработчик вкладки политик доступа.
type AccessHandler struct {
	backend         acl.Backend
	editRoles       []string
	notificationTTL time.Duration
	logger          *slog.Logger
}

// NewAccessHandler создаёт AccessHandler. editRoles: роли, дающие право
// редактировать ACL; без JWT редактирование разрешено.
func NewAccessHandler(backend acl.Backend, editRoles []string, notificationTTL time.Duration, logger *slog.Logger) *AccessHandler {
	return &AccessHandler{
		backend:         backend,
		editRoles:       editRoles,
		notificationTTL: notificationTTL,
		logger:          logger.With(slog.String("component", "ui.access")),
	}
}

// Routes регистрирует маршруты под /admin/{kind}/{id}/access.
func (h *AccessHandler) Routes(r chi.Router) {
	r.Get("/", h.HandleAccess)
	r.Post("/template", h.handle(func(r *http.Request, ed *acl.Editor) error {
		return ed.ApplyTemplate(r.Context(), r.FormValue("template"))
	}))
	r.Post("/add", h.handle(func(_ *http.Request, ed *acl.Editor) error {
		return ed.AddPolicy()
	}))
	r.Post("/rows/{row}", h.handle(updateRow))
	r.Post("/rows/{row}/remove", h.handle(func(r *http.Request, ed *acl.Editor) error {
		i, err := rowParam(r)
		if err != nil {
			return err
		}
		return ed.RemovePolicy(i)
	}))
	r.Post("/reset", h.handle(func(_ *http.Request, ed *acl.Editor) error {
		return ed.Reset()
	}))
	r.Post("/save", h.handle(func(r *http.Request, ed *acl.Editor) error {
		return ed.Save(r.Context())
	}))
}

// accessKind сопоставляет сегмент пути типу ресурса.
func accessKind(segment string) (occlient.AccessKind, bool) {
	switch segment {
	case "events":
		return occlient.AccessEvent, true
	case "series":
		return occlient.AccessSeries, true
	}
	return "", false
}

// accessPath: адрес вкладки.
func accessPath(segment, id string) string {
	return "/admin/" + segment + "/" + url.PathEscape(id) + "/access"
}

// editorKey: ключ редактора в сессии.
func editorKey(kind occlient.AccessKind, id string) string {
	return "acl:" + string(kind) + ":" + id
}

// editor возвращает редактор сессии для ресурса запроса.
func (h *AccessHandler) editor(r *http.Request, sess *session.Session) (*acl.Editor, string, bool) {
	segment := chi.URLParam(r, "kind")
	kind, ok := accessKind(segment)
	id := chi.URLParam(r, "id")
	if !ok || id == "" {
		return nil, "", false
	}
	readOnly := !apimiddleware.CanEditACL(r.Context(), h.editRoles)
	ed := sess.Value(editorKey(kind, id), func() any {
		return acl.NewEditor(kind, id, h.backend, sess.Store, acl.Options{
			NotificationTTL: h.notificationTTL,
			ReadOnly:        readOnly,
		}, h.logger)
	}).(*acl.Editor)
	return ed, accessPath(segment, id), true
}

// HandleAccess обрабатывает GET /admin/{kind}/{id}/access.
// Редактор без несохранённых изменений перечитывает политику.
func (h *AccessHandler) HandleAccess(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(w, r, h.logger)
	if sess == nil {
		return
	}
	ed, base, ok := h.editor(r, sess)
	if !ok {
		notFound(w, r)
		return
	}

	if st := ed.State(); st == acl.StateLoading || (st == acl.StateReady && !ed.Dirty()) {
		if err := ed.Load(r.Context()); err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Warn("Ошибка загрузки редактора", slog.String("error", err.Error()))
		}
	}

	s := sess.Store.State()
	active := "/admin/tables/" + string(tablecfg.ResourceEvents)
	if chi.URLParam(r, "kind") == "series" {
		active = "/admin/tables/" + string(tablecfg.ResourceSeries)
	}
	renderPage(w, r, h.logger, render.PageData{
		Title:         "UI.ACL.TITLE",
		Active:        active,
		Notifications: s.NotificationsFor(""),
		Body: render.AccessTab(render.AccessView{
			Editor:        ed.View(),
			Notifications: s.NotificationsFor(acl.NotificationContext),
			BasePath:      base,
		}),
	})
}

// handle превращает операцию редактора в обработчик POST-формы.
// Ошибки проверки и сохранения показываются уведомлениями вкладки,
// поэтому завершаются перенаправлением.
func (h *AccessHandler) handle(op func(r *http.Request, ed *acl.Editor) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			badRequest(w, r)
			return
		}
		sess := currentSession(w, r, h.logger)
		if sess == nil {
			return
		}
		ed, base, ok := h.editor(r, sess)
		if !ok {
			notFound(w, r)
			return
		}
		if ed.State() == acl.StateLoading {
			if err := ed.Load(r.Context()); err != nil {
				h.logger.Warn("Ошибка загрузки редактора", slog.String("error", err.Error()))
			}
		}

		err := op(r, ed)
		switch {
		case err == nil:
		case errors.Is(err, acl.ErrReadOnly):
			forbidden(w, r)
			return
		case errors.Is(err, acl.ErrNoSuchRow), errors.Is(err, errBadForm):
			badRequest(w, r)
			return
		case errors.Is(err, acl.ErrInvalidRules), errors.Is(err, acl.ErrInvalidTransition):
			h.logger.Debug("Операция редактора отклонена", slog.String("error", err.Error()))
		default:
			h.logger.Error("Ошибка операции редактора",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
		}
		redirect(w, r, base)
	}
}

// rowParam: индекс строки из URL.
func rowParam(r *http.Request) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "row"))
	if err != nil || i < 0 {
		return 0, errBadForm
	}
	return i, nil
}

// updateRow применяет форму строки целиком: роль, права и действия.
// Снятые флажки не передаются формой и означают false.
func updateRow(r *http.Request, ed *acl.Editor) error {
	i, err := rowParam(r)
	if err != nil {
		return err
	}
	if err := ed.SetRole(i, r.FormValue("role")); err != nil {
		return err
	}
	if err := ed.SetRead(i, r.FormValue("read") == "true"); err != nil {
		return err
	}
	if err := ed.SetWrite(i, r.FormValue("write") == "true"); err != nil {
		return err
	}
	return ed.SetActions(i, r.Form["actions"])
}
