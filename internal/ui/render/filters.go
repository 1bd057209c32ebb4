package render

import (
	"context"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/bigkaa/castadmin/internal/store"
)

// dateLayout: формат полей даты в форме периода.
const dateLayout = "2006-01-02"

// FilterView: данные панели фильтров.
type FilterView struct {
	Filters  store.FilterState
	BasePath string
}

// FilterBar отображает текстовый поиск, выбор фильтра, активные фильтры
// и сброс. Значения фильтров с флагом translatable переводятся.
func FilterBar(v FilterView) templ.Component {
	return component(func(ctx context.Context, h *html) {
		fs := v.Filters
		h.raw(`<div class="filters-container">`)

		h.raw(`<form method="post" class="search"`)
		h.attr("action", v.BasePath+"/filters/text")
		h.raw(`><input type="search" name="q"`)
		h.attr("value", fs.TextFilter)
		h.attr("placeholder", t(ctx, "UI.FILTERS.SEARCH"))
		h.raw("></form>")

		if len(fs.Filters) > 0 {
			h.raw(`<form method="get" class="inline"`)
			h.attr("action", v.BasePath)
			h.raw(`><select name="filter" data-autosubmit><option value="">`)
			h.text(t(ctx, "UI.FILTERS.ADD"))
			h.raw("</option>")
			for _, f := range fs.Filters {
				if f.Value != "" {
					continue
				}
				h.raw("<option")
				h.attr("value", f.Name)
				h.flag("selected", f.Name == fs.SelectedFilter)
				h.raw(">")
				h.text(t(ctx, f.Label))
				h.raw("</option>")
			}
			h.raw("</select></form>")
		}

		if f, ok := fs.Find(fs.SelectedFilter); ok && f.Value == "" {
			filterEditor(ctx, h, v, f)
		}

		active := fs.Active()
		if len(active) > 0 {
			h.raw(`<ul class="active-filters">`)
			for _, f := range active {
				h.raw("<li>")
				h.text(t(ctx, f.Label) + ": " + filterValueLabel(ctx, f))
				h.postButton(v.BasePath+"/filters/"+url.PathEscape(f.Name)+"/remove", "remove", "×", false)
				h.raw("</li>")
			}
			h.raw("</ul>")
		}
		if len(active) > 0 || fs.TextFilter != "" {
			h.postButton(v.BasePath+"/filters/reset", "clear", t(ctx, "UI.FILTERS.CLEAR"), false)
		}
		h.raw("</div>")
	})
}

// filterEditor: ввод значения выбранного фильтра.
func filterEditor(ctx context.Context, h *html, v FilterView, f store.Filter) {
	action := v.BasePath + "/filters/" + url.PathEscape(f.Name)
	h.raw(`<form method="post" class="inline filter-editor"`)
	h.attr("action", action)
	h.raw(">")
	switch f.Type {
	case store.FilterPeriod:
		h.raw(`<input type="hidden" name="type" value="period"><label>`)
		h.text(t(ctx, "UI.FILTERS.PERIOD.FROM"))
		h.raw(` <input type="date" name="from" required`)
		if !v.Filters.StartDate.IsZero() {
			h.attr("value", v.Filters.StartDate.Format(dateLayout))
		}
		h.raw("></label><label>")
		h.text(t(ctx, "UI.FILTERS.PERIOD.TO"))
		h.raw(` <input type="date" name="to" required`)
		if !v.Filters.EndDate.IsZero() {
			h.attr("value", v.Filters.EndDate.Format(dateLayout))
		}
		h.raw("></label><button type=\"submit\">")
		h.text(t(ctx, "UI.FILTERS.APPLY"))
		h.raw("</button>")
	default:
		h.raw(`<select name="value" data-autosubmit><option value=""></option>`)
		for _, o := range f.Options {
			label := o.Label
			if f.Translatable {
				label = t(ctx, label)
			}
			h.raw("<option")
			h.attr("value", o.Value)
			h.raw(">")
			h.text(label)
			h.raw("</option>")
		}
		h.raw("</select>")
	}
	h.raw("</form>")
}

// filterValueLabel: отображаемое значение активного фильтра.
func filterValueLabel(ctx context.Context, f store.Filter) string {
	if f.Type == store.FilterPeriod {
		if from, to, ok := strings.Cut(f.Value, "/"); ok {
			return shortDate(from) + " – " + shortDate(to)
		}
		return f.Value
	}
	for _, o := range f.Options {
		if o.Value == f.Value {
			if f.Translatable {
				return t(ctx, o.Label)
			}
			return o.Label
		}
	}
	return f.Value
}

func shortDate(s string) string {
	if len(s) >= len(dateLayout) {
		return s[:len(dateLayout)]
	}
	return s
}

// ProfilesView: данные панели профилей фильтров.
type ProfilesView struct {
	Profiles []store.FilterProfile
	State    store.ProfileState
	BasePath string
}

// Profiles отображает сохранённые профили ресурса и форму сохранения
// текущих фильтров. При редактировании форма заполнена данными профиля.
func Profiles(v ProfilesView) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<details class="profiles"><summary>`)
		h.text(t(ctx, "UI.PROFILES.TITLE"))
		h.raw("</summary>")

		if len(v.Profiles) == 0 {
			h.raw(`<p class="empty">`)
			h.text(t(ctx, "UI.PROFILES.EMPTY"))
			h.raw("</p>")
		} else {
			h.raw("<ul>")
			for _, p := range v.Profiles {
				base := v.BasePath + "/profiles/" + url.PathEscape(p.Name)
				h.raw("<li")
				h.flag(`class="editing"`, p.Name == v.State.Editing)
				h.raw("><span")
				h.attr("title", p.Description)
				h.raw(">")
				h.text(p.Name)
				h.raw("</span>")
				h.postButton(base+"/load", "link", t(ctx, "UI.PROFILES.LOAD"), false)
				h.postButton(base+"/edit", "link", t(ctx, "UI.PROFILES.EDIT"), false)
				h.postButton(base+"/remove", "link danger", t(ctx, "UI.PROFILES.REMOVE"), false)
				h.raw("</li>")
			}
			h.raw("</ul>")
		}

		var editing store.FilterProfile
		for _, p := range v.Profiles {
			if p.Name == v.State.Editing {
				editing = p
			}
		}
		h.raw(`<form method="post" class="profile-form"`)
		h.attr("action", v.BasePath+"/profiles")
		h.raw(">")
		if v.State.Editing != "" {
			h.raw(`<input type="hidden" name="original"`)
			h.attr("value", v.State.Editing)
			h.raw(">")
		}
		h.raw("<label>")
		h.text(t(ctx, "UI.PROFILES.NAME"))
		h.raw(` <input type="text" name="name" required`)
		h.attr("value", editing.Name)
		h.flag(`class="invalid"`, !v.State.ValidName)
		h.raw("></label><label>")
		h.text(t(ctx, "UI.PROFILES.DESCRIPTION"))
		h.raw(` <input type="text" name="description"`)
		h.attr("value", editing.Description)
		h.raw("></label>")
		if !v.State.ValidName {
			h.raw(`<p class="error">`)
			h.text(t(ctx, "UI.PROFILES.INVALID_NAME"))
			h.raw("</p>")
		}
		h.raw(`<button type="submit">`)
		h.text(t(ctx, "UI.PROFILES.SAVE"))
		h.raw("</button></form>")
		if v.State.Editing != "" {
			h.postButton(v.BasePath+"/profiles/cancel", "link", t(ctx, "UI.PROFILES.CANCEL"), false)
		}
		h.raw("</details>")
	})
}
