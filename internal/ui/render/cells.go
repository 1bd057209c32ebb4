package render

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/castadmin/internal/store"
	"github.com/bigkaa/castadmin/internal/tablecfg"
)

// CellRenderer отображает одну ячейку строки.
type CellRenderer interface {
	RenderCell(row store.Row, column tablecfg.Column) templ.Component
}

// CellFunc: функция, реализующая CellRenderer.
type CellFunc func(row store.Row, column tablecfg.Column) templ.Component

// RenderCell вызывает f.
func (f CellFunc) RenderCell(row store.Row, column tablecfg.Column) templ.Component {
	return f(row, column)
}

// emptyCell: ячейка без содержимого для неизвестных шаблонов.
var emptyCell = CellFunc(func(store.Row, tablecfg.Column) templ.Component {
	return templ.NopComponent
})

// Templates: реестр шаблонов ячеек по имени.
type Templates struct {
	mu    sync.RWMutex
	cells map[string]CellRenderer
}

// NewTemplates создаёт пустой реестр.
func NewTemplates() *Templates {
	return &Templates{cells: make(map[string]CellRenderer)}
}

// Register регистрирует шаблон name. Повторная регистрация заменяет шаблон.
func (t *Templates) Register(name string, c CellRenderer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cells[name] = c
}

// Has сообщает, зарегистрирован ли шаблон.
func (t *Templates) Has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.cells[name]
	return ok
}

// Resolve возвращает шаблон name. Неизвестное имя даёт пустую ячейку.
func (t *Templates) Resolve(name string) CellRenderer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if c, ok := t.cells[name]; ok {
		return c
	}
	return emptyCell
}

// Cell выбирает отображение ячейки: шаблон колонки, затем перевод
// значения (translate), затем значение как есть.
func (t *Templates) Cell(row store.Row, column tablecfg.Column) templ.Component {
	if column.Template != "" {
		return t.Resolve(column.Template).RenderCell(row, column)
	}
	value := FormatValue(row.Values[column.Name])
	if column.Translate {
		return translatedText(value)
	}
	return plainText(value)
}

// DefaultTemplates возвращает реестр со всеми шаблонами из конфигурации таблиц.
func DefaultTemplates() *Templates {
	t := NewTemplates()
	t.Register(tablecfg.TemplateEventStatus, CellFunc(statusCell))
	t.Register(tablecfg.TemplateRecordingState, CellFunc(statusCell))
	t.Register(tablecfg.TemplateServiceStatus, CellFunc(statusCell))
	t.Register(tablecfg.TemplateServerStatus, CellFunc(serverStatusCell))
	t.Register(tablecfg.TemplateDate, CellFunc(timeCell("2006-01-02")))
	t.Register(tablecfg.TemplateTime, CellFunc(timeCell("15:04")))
	t.Register(tablecfg.TemplatePublications, CellFunc(publicationsCell))
	t.Register(tablecfg.TemplateBoolean, CellFunc(booleanCell))
	t.Register(tablecfg.TemplateEventActions, CellFunc(accessLinkCell("events")))
	t.Register(tablecfg.TemplateSeriesActions, CellFunc(accessLinkCell("series")))
	t.Register(tablecfg.TemplateRowActions, CellFunc(rowActionsCell))
	return t
}

func plainText(s string) templ.Component {
	return component(func(_ context.Context, h *html) {
		h.text(s)
	})
}

func translatedText(key string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		if key == "" {
			return
		}
		h.text(t(ctx, key))
	})
}

// statusCell: бейдж с переведённым статусом.
func statusCell(row store.Row, column tablecfg.Column) templ.Component {
	value := FormatValue(row.Values[column.Name])
	return component(func(ctx context.Context, h *html) {
		if value == "" {
			return
		}
		h.raw(`<span`)
		h.attr("class", "badge "+classFor(value))
		h.raw(">")
		h.text(t(ctx, value))
		h.raw("</span>")
	})
}

// serverStatusCell учитывает online и maintenance.
func serverStatusCell(row store.Row, column tablecfg.Column) templ.Component {
	online, _ := row.Values[column.Name].(bool)
	maintenance, _ := row.Values["maintenance"].(bool)
	status := "offline"
	switch {
	case maintenance:
		status = "maintenance"
	case online:
		status = "online"
	}
	return component(func(_ context.Context, h *html) {
		h.raw(`<span`)
		h.attr("class", "badge status-"+status)
		h.attr("title", status)
		h.raw("></span>")
	})
}

// timeCell форматирует RFC3339-значение по layout.
// Неразбираемое значение выводится как есть.
func timeCell(layout string) CellFunc {
	return func(row store.Row, column tablecfg.Column) templ.Component {
		value := FormatValue(row.Values[column.Name])
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			return component(func(_ context.Context, h *html) {
				h.raw(`<time`)
				h.attr("datetime", value)
				h.raw(">")
				h.text(ts.Format(layout))
				h.raw("</time>")
			})
		}
		return plainText(value)
	}
}

// publicationsCell перечисляет включённые публикации события.
func publicationsCell(row store.Row, _ tablecfg.Column) templ.Component {
	pubs, _ := row.Values["publications"].([]any)
	return component(func(ctx context.Context, h *html) {
		n := 0
		for _, p := range pubs {
			pub, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if enabled, _ := pub["enabled"].(bool); !enabled {
				continue
			}
			if hiding, _ := pub["hiding"].(bool); hiding {
				continue
			}
			name := FormatValue(pub["name"])
			if name == "" {
				continue
			}
			if n > 0 {
				h.raw(", ")
			}
			if link := FormatValue(pub["url"]); link != "" {
				h.raw(`<a target="_blank" rel="noopener"`)
				h.attr("href", link)
				h.raw(">")
				h.text(t(ctx, name))
				h.raw("</a>")
			} else {
				h.text(t(ctx, name))
			}
			n++
		}
		if n == 0 {
			h.raw("&ndash;")
		}
	})
}

func booleanCell(row store.Row, column tablecfg.Column) templ.Component {
	v, _ := row.Values[column.Name].(bool)
	key := "UI.NO"
	if v {
		key = "UI.YES"
	}
	return translatedText(key)
}

// accessLinkCell: ссылка на вкладку политик доступа строки.
func accessLinkCell(kind string) CellFunc {
	return func(row store.Row, _ tablecfg.Column) templ.Component {
		id := FormatValue(row.Values["id"])
		if id == "" {
			return templ.NopComponent
		}
		href := "/admin/" + kind + "/" + url.PathEscape(id) + "/access"
		return component(func(ctx context.Context, h *html) {
			h.raw(`<a class="action-link"`)
			h.attr("href", href)
			h.raw(">")
			h.text(t(ctx, "UI.ACL.TITLE"))
			h.raw("</a>")
		})
	}
}

// rowActionsCell выводит идентификатор строки для клиентских действий.
func rowActionsCell(row store.Row, _ tablecfg.Column) templ.Component {
	id := FormatValue(row.Values["id"])
	if id == "" {
		id = FormatValue(row.Values["name"])
	}
	return component(func(_ context.Context, h *html) {
		h.raw(`<span class="row-actions"`)
		h.attr("data-id", id)
		h.raw("></span>")
	})
}
