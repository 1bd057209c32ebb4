package render

import (
	"context"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/castadmin/internal/store"
)

// Notifications отображает уведомления одной области. Уведомление
// с длительностью скрывается на клиенте по data-ttl (мс) и удаляется
// из состояния таймером контейнера.
func Notifications(list []store.Notification) templ.Component {
	return component(func(ctx context.Context, h *html) {
		if len(list) == 0 {
			return
		}
		h.raw(`<div class="notifications">`)
		for _, n := range list {
			h.raw("<div")
			h.attr("class", "alert alert-"+string(n.Type))
			h.attr("data-id", n.ID)
			if n.Duration > 0 {
				h.attr("data-ttl", strconv.FormatInt(n.Duration.Milliseconds(), 10))
			}
			h.raw("><span>")
			h.text(t(ctx, n.Key))
			h.raw("</span>")
			h.postButton("/admin/notifications/"+url.PathEscape(n.ID)+"/dismiss", "close", "×", false)
			h.raw("</div>")
		}
		h.raw("</div>")
	})
}
