package render

import (
	"context"

	"github.com/a-h/templ"

	"github.com/bigkaa/castadmin/internal/store"
	"github.com/bigkaa/castadmin/internal/tablecfg"
	"github.com/bigkaa/castadmin/internal/ui/i18n"
)

// PageData: общие данные страницы.
type PageData struct {
	// Title: ключ перевода заголовка.
	Title string
	// Active: адрес активного пункта меню.
	Active   string
	Username string
	// Notifications: уведомления без области (глобальные).
	Notifications []store.Notification
	Body          templ.Component
}

type navItem struct {
	href, label string
}

// navigation строит меню: таблицы ресурсов, здоровье системы, расписание.
func navigation() []navItem {
	var items []navItem
	for _, r := range tablecfg.Resources() {
		cfg, _ := tablecfg.Lookup(r)
		items = append(items, navItem{href: "/admin/tables/" + string(r), label: cfg.Caption})
	}
	return append(items,
		navItem{href: "/admin/system/health", label: "UI.NAV.SYSTEM_HEALTH"},
		navItem{href: "/admin/lti", label: "UI.NAV.LTI"},
	)
}

// Page: полный HTML-документ с меню и переключателем языка.
func Page(p PageData) templ.Component {
	return component(func(ctx context.Context, h *html) {
		lang := i18n.LangFromContext(ctx)
		h.raw("<!DOCTYPE html><html")
		h.attr("lang", lang)
		h.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		h.text(t(ctx, p.Title) + " | " + t(ctx, "UI.TITLE"))
		h.raw(`</title><link rel="stylesheet" href="/static/css/app.css"><script defer src="/static/js/app.js"></script></head><body>`)

		h.raw(`<header><nav class="main-nav"><ul>`)
		for _, item := range navigation() {
			h.raw("<li")
			h.flag(`class="active"`, item.href == p.Active)
			h.raw("><a")
			h.attr("href", item.href)
			h.raw(">")
			h.text(t(ctx, item.label))
			h.raw("</a></li>")
		}
		h.raw("</ul></nav>")

		h.raw(`<form method="post" action="/admin/set-language" class="inline language"><label>`)
		h.text(t(ctx, "UI.LANGUAGE"))
		h.raw(` <select name="lang" data-autosubmit>`)
		for _, tag := range i18n.SupportedLanguages {
			code := tag.String()
			h.raw("<option")
			h.attr("value", code)
			h.flag("selected", code == lang)
			h.raw(">")
			h.text(code)
			h.raw("</option>")
		}
		h.raw("</select></label></form>")
		if p.Username != "" {
			h.raw(`<span class="user">`)
			h.text(p.Username)
			h.raw("</span>")
		}
		h.raw("</header><main><h1>")
		h.text(t(ctx, p.Title))
		h.raw("</h1>")
		h.render(ctx, Notifications(p.Notifications))
		h.render(ctx, p.Body)
		h.raw("</main></body></html>")
	})
}

// Stack отображает компоненты друг за другом.
func Stack(components ...templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) {
		for _, c := range components {
			h.render(ctx, c)
		}
	})
}
