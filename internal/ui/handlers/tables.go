// tables.go: таблицы ресурсов: фильтры, профили фильтров, сортировка,
// пагинация, выбор строк и видимость колонок.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/castadmin/internal/store"
	"github.com/bigkaa/castadmin/internal/tablecfg"
	"github.com/bigkaa/castadmin/internal/thunks"
	"github.com/bigkaa/castadmin/internal/ui/render"
)

// saveTimeout: таймаут сохранения сессии после изменения.
const saveTimeout = 5 * time.Second

// errBadForm: значение формы не прошло проверку.
var errBadForm = errors.New("некорректные данные формы")

// followUp: что выполнить после действий формы.
type followUp int

const (
	// followNone: только действия.
	followNone followUp = iota
	// followProject: перестроить таблицу из загруженного среза.
	followProject
	// followRefetch: перезагрузить ресурс с фильтрами и сортировкой.
	followRefetch
)

// mutation: описание POST-действия над таблицей.
type mutation struct {
	follow followUp
	// persist: изменение входит в сохраняемые данные сессии.
	persist bool
	// actions строит действия из формы и текущего состояния.
	actions func(r *http.Request, resource tablecfg.Resource, cfg tablecfg.TableConfig, s store.State) ([]store.Action, error)
}

// TablesHandler: обработчик таблиц ресурсов.
type TablesHandler struct {
	loader    *thunks.Loader
	templates *render.Templates
	saver     SessionSaver
	logger    *slog.Logger
}

// NewTablesHandler создаёт TablesHandler. saver может быть nil.
func NewTablesHandler(loader *thunks.Loader, templates *render.Templates, saver SessionSaver, logger *slog.Logger) *TablesHandler {
	return &TablesHandler{
		loader:    loader,
		templates: templates,
		saver:     saver,
		logger:    logger.With(slog.String("component", "ui.tables")),
	}
}

// Routes регистрирует маршруты таблиц под /admin/tables/{resource}.
func (h *TablesHandler) Routes(r chi.Router) {
	r.Get("/", h.HandleTable)

	r.Post("/select", h.handle(selectRow))
	r.Post("/select-all", h.handle(selectAll))
	r.Post("/deselect-all", h.handle(deselectAll))
	r.Post("/sort", h.handle(sortBy))
	r.Post("/page", h.handle(goToPage))
	r.Post("/limit", h.handle(pageLimit))
	r.Post("/columns", h.handle(toggleColumn))

	r.Post("/filters/text", h.handle(textFilter))
	r.Post("/filters/reset", h.handle(resetFilters))
	r.Post("/filters/{name}", h.handle(filterValue))
	r.Post("/filters/{name}/remove", h.handle(removeFilter))

	r.Post("/profiles", h.handle(saveProfile))
	r.Post("/profiles/cancel", h.handle(cancelProfile))
	r.Post("/profiles/{name}/load", h.handle(loadProfile))
	r.Post("/profiles/{name}/edit", h.handle(editProfile))
	r.Post("/profiles/{name}/remove", h.handle(removeProfile))
}

// basePath: адрес таблицы ресурса.
func basePath(resource tablecfg.Resource) string {
	return "/admin/tables/" + string(resource)
}

// resourceParam возвращает ресурс из URL и его конфигурацию.
func resourceParam(r *http.Request) (tablecfg.Resource, tablecfg.TableConfig, bool) {
	resource := tablecfg.Resource(chi.URLParam(r, "resource"))
	cfg, ok := tablecfg.Lookup(resource)
	return resource, cfg, ok
}

// HandleTable обрабатывает GET /admin/tables/{resource}.
// Таблица загружается заново только при смене ресурса, если срез ещё
// не загружался, или по параметру refresh. Иначе страница строится
// из текущего состояния: выбор строк переживает redirect после POST.
// Параметр filter выбирает фильтр для редактирования в панели.
func (h *TablesHandler) HandleTable(w http.ResponseWriter, r *http.Request) {
	resource, cfg, ok := resourceParam(r)
	if !ok {
		notFound(w, r)
		return
	}
	sess := currentSession(w, r, h.logger)
	if sess == nil {
		return
	}
	st := sess.Store

	if needsOpen(st.State(), resource) || r.URL.Query().Has("refresh") {
		h.open(r.Context(), st, resource)
	}
	if name := r.URL.Query().Get("filter"); name != "" {
		st.Dispatch(store.SelectFilter{Name: name})
	}

	s := st.State()
	base := basePath(resource)
	view := render.TableView{
		Config:   cfg,
		Table:    s.Table,
		Loading:  s.Slice(resource).Loading,
		BasePath: base,
	}
	renderPage(w, r, h.logger, render.PageData{
		Title:         cfg.Caption,
		Active:        base,
		Notifications: s.NotificationsFor(""),
		Body: render.Stack(
			render.FilterBar(render.FilterView{Filters: s.Filters, BasePath: base}),
			render.Profiles(render.ProfilesView{
				Profiles: s.Profiles.List(resource),
				State:    s.Profiles,
				BasePath: base,
			}),
			render.ColumnToggles(view),
			render.Table(view, h.templates),
		),
	})
}

// needsOpen сообщает, что таблица показывает другой ресурс
// или срез ресурса ещё не запрашивался.
func needsOpen(s store.State, resource tablecfg.Resource) bool {
	return s.Table.Resource != resource || s.Slice(resource).Generation == 0
}

// open переключает таблицу на ресурс и загружает данные.
func (h *TablesHandler) open(ctx context.Context, st *store.Store, resource tablecfg.Resource) {
	if err := st.Run(ctx, h.loader.OpenTable(resource)); err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Error("Ошибка открытия таблицы",
			slog.String("resource", string(resource)),
			slog.String("error", err.Error()),
		)
	}
}

// handle превращает mutation в обработчик POST-формы.
func (h *TablesHandler) handle(m mutation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resource, cfg, ok := resourceParam(r)
		if !ok {
			notFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			badRequest(w, r)
			return
		}
		sess := currentSession(w, r, h.logger)
		if sess == nil {
			return
		}
		st := sess.Store

		// Действие над таблицей другого ресурса: сначала открываем её,
		// иначе индексы строк и колонки относятся к чужой таблице.
		if needsOpen(st.State(), resource) {
			h.open(r.Context(), st, resource)
		}

		actions, err := m.actions(r, resource, cfg, st.State())
		if err != nil {
			h.logger.Debug("Некорректная форма",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
			if errors.Is(err, errNoSuchProfile) {
				notFound(w, r)
				return
			}
			badRequest(w, r)
			return
		}
		for _, a := range actions {
			st.Dispatch(a)
		}

		var runErr error
		switch m.follow {
		case followProject:
			runErr = st.Run(r.Context(), thunks.ProjectTable(resource))
		case followRefetch:
			runErr = st.Run(r.Context(), h.loader.LoadResourceIntoTable(resource))
		}
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			h.logger.Error("Ошибка обновления таблицы",
				slog.String("resource", string(resource)),
				slog.String("error", runErr.Error()),
			)
		}

		if m.persist && h.saver != nil {
			ctx, cancel := detached(r.Context(), saveTimeout)
			if err := h.saver.Save(ctx, sess); err != nil {
				h.logger.Warn("Не удалось сохранить сессию",
					slog.String("session_id", sess.ID),
					slog.String("error", err.Error()),
				)
			}
			cancel()
		}

		redirect(w, r, basePath(resource))
	}
}

// formInt читает неотрицательное целое поле формы.
func formInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.FormValue(name))
	if err != nil || n < 0 {
		return 0, errBadForm
	}
	return n, nil
}

// --- Строки и колонки ---

var selectRow = mutation{
	follow: followNone,
	actions: func(r *http.Request, _ tablecfg.Resource, _ tablecfg.TableConfig, s store.State) ([]store.Action, error) {
		i, err := formInt(r, "index")
		if err != nil || i >= len(s.Table.Rows) {
			return nil, errBadForm
		}
		return []store.Action{store.SelectRow{Index: i, Selected: r.FormValue("selected") == "true"}}, nil
	},
}

var selectAll = mutation{
	follow: followNone,
	actions: func(*http.Request, tablecfg.Resource, tablecfg.TableConfig, store.State) ([]store.Action, error) {
		return []store.Action{store.SelectAll{}}, nil
	},
}

var deselectAll = mutation{
	follow: followNone,
	actions: func(*http.Request, tablecfg.Resource, tablecfg.TableConfig, store.State) ([]store.Action, error) {
		return []store.Action{store.DeselectAll{}}, nil
	},
}

var sortBy = mutation{
	follow:  followRefetch,
	persist: true,
	actions: func(r *http.Request, _ tablecfg.Resource, cfg tablecfg.TableConfig, _ store.State) ([]store.Action, error) {
		name := r.FormValue("column")
		for _, c := range cfg.Columns {
			if c.Name == name && c.Sortable {
				return []store.Action{store.SetSort{Column: name}}, nil
			}
		}
		return nil, errBadForm
	},
}

var goToPage = mutation{
	follow: followRefetch,
	actions: func(r *http.Request, _ tablecfg.Resource, _ tablecfg.TableConfig, _ store.State) ([]store.Action, error) {
		page, err := formInt(r, "page")
		if err != nil {
			return nil, err
		}
		return []store.Action{store.GoToPage{Page: page}}, nil
	},
}

var pageLimit = mutation{
	follow:  followRefetch,
	persist: true,
	actions: func(r *http.Request, _ tablecfg.Resource, _ tablecfg.TableConfig, _ store.State) ([]store.Action, error) {
		limit, err := formInt(r, "limit")
		if err != nil || limit == 0 {
			return nil, errBadForm
		}
		return []store.Action{store.SetPageLimit{Limit: limit}}, nil
	},
}

var toggleColumn = mutation{
	follow:  followNone,
	persist: true,
	actions: func(r *http.Request, _ tablecfg.Resource, cfg tablecfg.TableConfig, _ store.State) ([]store.Action, error) {
		name := r.FormValue("column")
		for _, c := range cfg.Columns {
			if c.Name == name {
				return []store.Action{store.ToggleColumn{Column: name}}, nil
			}
		}
		return nil, errBadForm
	},
}

// --- Фильтры ---
// Любое изменение фильтров возвращает таблицу на первую страницу.

var textFilter = mutation{
	follow: followRefetch,
	actions: func(r *http.Request, _ tablecfg.Resource, _ tablecfg.TableConfig, _ store.State) ([]store.Action, error) {
		return []store.Action{
			store.SetTextFilter{Text: strings.TrimSpace(r.FormValue("q"))},
			store.GoToPage{Page: 0},
		}, nil
	},
}

var resetFilters = mutation{
	follow: followRefetch,
	actions: func(*http.Request, tablecfg.Resource, tablecfg.TableConfig, store.State) ([]store.Action, error) {
		return []store.Action{store.ResetFilters{}, store.GoToPage{Page: 0}}, nil
	},
}

var filterValue = mutation{
	follow: followRefetch,
	actions: func(r *http.Request, _ tablecfg.Resource, _ tablecfg.TableConfig, s store.State) ([]store.Action, error) {
		name := chi.URLParam(r, "name")
		f, ok := s.Filters.Find(name)
		if !ok {
			return nil, errBadForm
		}

		if f.Type == store.FilterPeriod || r.FormValue("type") == string(store.FilterPeriod) {
			from, err1 := time.Parse("2006-01-02", r.FormValue("from"))
			to, err2 := time.Parse("2006-01-02", r.FormValue("to"))
			if err1 != nil || err2 != nil || to.Before(from) {
				return nil, errBadForm
			}
			// Конец периода включает весь последний день.
			end := to.Add(24*time.Hour - time.Second)
			return []store.Action{
				store.SelectFilter{Name: name},
				store.SetDateRange{Start: from, End: end},
				store.GoToPage{Page: 0},
			}, nil
		}

		value := r.FormValue("value")
		if value == "" {
			return []store.Action{store.RemoveFilter{Name: name}, store.GoToPage{Page: 0}}, nil
		}
		return []store.Action{store.SetFilterValue{Name: name, Value: value}, store.GoToPage{Page: 0}}, nil
	},
}

var removeFilter = mutation{
	follow: followRefetch,
	actions: func(r *http.Request, _ tablecfg.Resource, _ tablecfg.TableConfig, _ store.State) ([]store.Action, error) {
		return []store.Action{
			store.RemoveFilter{Name: chi.URLParam(r, "name")},
			store.GoToPage{Page: 0},
		}, nil
	},
}

// --- Профили ---

// errNoSuchProfile: профиль (ресурс, имя) не найден.
var errNoSuchProfile = errors.New("профиль фильтров не найден")

// profileParam: имя профиля из URL.
func profileParam(r *http.Request) string {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		return chi.URLParam(r, "name")
	}
	return name
}

// saveProfile создаёт профиль из текущих фильтров или, если задано
// поле original, заменяет редактируемый профиль. Конфликт имени
// отражается в ValidName и показывается формой.
var saveProfile = mutation{
	follow:  followNone,
	persist: true,
	actions: func(r *http.Request, resource tablecfg.Resource, _ tablecfg.TableConfig, s store.State) ([]store.Action, error) {
		p := store.FilterProfile{
			Name:        strings.TrimSpace(r.FormValue("name")),
			Description: strings.TrimSpace(r.FormValue("description")),
			FilterMap:   s.Filters.Filters,
			Resource:    resource,
		}
		if original := r.FormValue("original"); original != "" {
			return []store.Action{store.EditProfile{OriginalName: original, Profile: p}}, nil
		}
		return []store.Action{store.CreateProfile{Profile: p}}, nil
	},
}

var cancelProfile = mutation{
	follow: followNone,
	actions: func(*http.Request, tablecfg.Resource, tablecfg.TableConfig, store.State) ([]store.Action, error) {
		return []store.Action{store.CancelProfileEdit{}}, nil
	},
}

var loadProfile = mutation{
	follow: followRefetch,
	actions: func(r *http.Request, resource tablecfg.Resource, _ tablecfg.TableConfig, s store.State) ([]store.Action, error) {
		p, ok := s.Profiles.Get(resource, profileParam(r))
		if !ok {
			return nil, errNoSuchProfile
		}
		return []store.Action{store.LoadProfile{FilterMap: p.FilterMap}, store.GoToPage{Page: 0}}, nil
	},
}

var editProfile = mutation{
	follow: followNone,
	actions: func(r *http.Request, resource tablecfg.Resource, _ tablecfg.TableConfig, s store.State) ([]store.Action, error) {
		name := profileParam(r)
		if !s.Profiles.Exists(resource, name) {
			return nil, errNoSuchProfile
		}
		return []store.Action{store.StartProfileEdit{Resource: resource, Name: name}}, nil
	},
}

var removeProfile = mutation{
	follow:  followNone,
	persist: true,
	actions: func(r *http.Request, resource tablecfg.Resource, _ tablecfg.TableConfig, s store.State) ([]store.Action, error) {
		name := profileParam(r)
		if !s.Profiles.Exists(resource, name) {
			return nil, errNoSuchProfile
		}
		return []store.Action{store.RemoveProfile{Resource: resource, Name: name}}, nil
	},
}
