package render

import (
	"context"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/bigkaa/castadmin/internal/lti"
)

// EventsView: данные страницы событий серии.
type EventsView struct {
	SeriesID string
	// Personal: персональная серия (события ищутся текстовым фильтром).
	Personal bool
	Events   []lti.Event
	Statuses []lti.Status
	// Status: фильтр по отображаемому статусу (пусто: все).
	Status string
	// StreamPath: адрес SSE-потока завершения обработки.
	StreamPath string
	// ReadOnly: изменения событий запрещены.
	ReadOnly bool
}

// Events отображает события серии. Строки в статусе Processing
// обновляются по SSE: клиент перезагружает страницу по событию processed.
// Без серии выводится только форма выбора серии.
func Events(v EventsView) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<form method="get" class="inline series-picker" action="/admin/lti"><label>`)
		h.text(t(ctx, "UI.LTI.SERIES"))
		h.raw(` <input type="text" name="series" required`)
		h.attr("value", v.SeriesID)
		h.raw("></label><label><input type=\"checkbox\" name=\"personal\" value=\"true\"")
		h.flag("checked", v.Personal)
		h.raw("> ")
		h.text(t(ctx, "UI.LTI.PERSONAL"))
		h.raw("</label><button type=\"submit\">")
		h.text(t(ctx, "UI.LTI.OPEN"))
		h.raw("</button></form>")
		if v.SeriesID == "" {
			return
		}

		hidden := []string{"series", v.SeriesID}
		if v.Personal {
			hidden = append(hidden, "personal", "true")
		}

		h.raw(`<section class="lti-events"`)
		if v.StreamPath != "" {
			h.attr("data-sse", v.StreamPath)
		}
		h.raw(">")

		if len(v.Statuses) > 1 {
			h.raw(`<form method="get" class="inline">`)
			for i := 0; i+1 < len(hidden); i += 2 {
				h.raw(`<input type="hidden"`)
				h.attr("name", hidden[i])
				h.attr("value", hidden[i+1])
				h.raw(">")
			}
			h.raw(`<select name="status" data-autosubmit><option value=""></option>`)
			for _, s := range v.Statuses {
				h.raw("<option")
				h.attr("value", string(s))
				h.flag("selected", string(s) == v.Status)
				h.raw(">")
				h.text(string(s))
				h.raw("</option>")
			}
			h.raw("</select></form>")
		}

		h.raw(`<table class="main-tbl"><thead><tr><th>`)
		h.text(t(ctx, "EVENTS.EVENTS.TABLE.TITLE"))
		h.raw("</th><th>")
		h.text(t(ctx, "EVENTS.EVENTS.TABLE.PRESENTERS"))
		h.raw("</th><th>")
		h.text(t(ctx, "EVENTS.EVENTS.TABLE.DATE"))
		h.raw("</th><th>")
		h.text(t(ctx, "EVENTS.EVENTS.TABLE.LOCATION"))
		h.raw("</th><th>")
		h.text(t(ctx, "EVENTS.EVENTS.TABLE.SCHEDULING_STATUS"))
		h.raw("</th><th></th></tr></thead><tbody>")

		n := 0
		for _, e := range v.Events {
			if v.Status != "" && string(e.Status) != v.Status {
				continue
			}
			n++
			h.raw("<tr")
			h.attr("data-id", e.ID)
			h.raw("><td>")
			h.text(e.Title)
			h.raw("</td><td>")
			h.text(strings.Join(e.Presenters, ", "))
			h.raw("</td><td>")
			if !e.Start.IsZero() {
				h.text(e.Start.Format("2006-01-02 15:04"))
			}
			h.raw("</td><td>")
			h.text(e.AgentID)
			h.raw("</td><td><span")
			h.attr("class", "badge "+classFor(string(e.Status)))
			h.raw(">")
			h.text(string(e.Status))
			h.raw("</span></td><td>")
			if !v.ReadOnly {
				base := "/admin/lti/events/" + url.PathEscape(e.ID)
				switch e.Status {
				case lti.StatusPublished:
					h.postButton(base+"/retract", "link danger", t(ctx, "UI.LTI.RETRACT"), false, hidden...)
					h.postButton(base+"/republish", "link", t(ctx, "UI.LTI.REPUBLISH"), false, hidden...)
				case lti.StatusUpcoming, lti.StatusExpired, lti.StatusFailed:
					h.postButton(base+"/delete", "link danger", t(ctx, "UI.LTI.DELETE"), false, hidden...)
				}
			}
			h.raw("</td></tr>")
		}
		if n == 0 {
			h.raw(`<tr class="empty"><td colspan="6">`)
			h.text(t(ctx, "UI.TABLE.EMPTY"))
			h.raw("</td></tr>")
		}
		h.raw("</tbody></table></section>")
	})
}
