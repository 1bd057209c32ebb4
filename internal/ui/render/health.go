package render

import (
	"context"
	"sort"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/castadmin/internal/occlient"
)

// Health отображает состояние компонентов backend'а.
// Для сервисов выводятся счётчики healthy/warning/error.
func Health(items []occlient.HealthItem) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<section class="health"><h2>`)
		h.text(t(ctx, "UI.HEALTH.TITLE"))
		h.raw(`</h2><table class="main-tbl"><thead><tr><th>`)
		h.text(t(ctx, "UI.HEALTH.SERVICE"))
		h.raw("</th><th>")
		h.text(t(ctx, "UI.HEALTH.STATUS"))
		h.raw("</th></tr></thead><tbody>")
		for _, item := range items {
			h.raw("<tr><td>")
			h.text(item.Name)
			h.raw("</td><td><span")
			class := "badge status-ok"
			if item.Error {
				class = "badge status-error"
			}
			h.attr("class", class)
			h.raw(">")
			h.text(t(ctx, item.Status))
			h.raw("</span>")
			if len(item.Counters) > 0 {
				keys := make([]string, 0, len(item.Counters))
				for k := range item.Counters {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				h.raw(`<ul class="counters">`)
				for _, k := range keys {
					h.raw("<li")
					h.attr("class", "counter-"+k)
					h.raw(">")
					h.text(k + ": " + strconv.Itoa(item.Counters[k]))
					h.raw("</li>")
				}
				h.raw("</ul>")
			}
			h.raw("</td></tr>")
		}
		h.raw("</tbody></table></section>")
	})
}
