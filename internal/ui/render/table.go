package render

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/castadmin/internal/store"
	"github.com/bigkaa/castadmin/internal/tablecfg"
)

// PageSizes: варианты размера страницы.
var PageSizes = []int{10, 20, 50, 100}

// TableView: данные для отображения таблицы ресурса.
type TableView struct {
	Config tablecfg.TableConfig
	Table  store.TableState
	// Loading: идёт загрузка среза ресурса.
	Loading bool
	// BasePath: префикс адресов действий таблицы, например /admin/tables/events.
	BasePath string
}

// Table отображает заголовок, строки и пагинацию.
// Скрытые колонки не выводятся, колонка выбора есть только при multiSelect.
func Table(v TableView, templates *Templates) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<div class="table-container" id="table"`)
		h.attr("data-resource", string(v.Config.Resource))
		h.raw(">")

		columns := visibleColumns(v.Table.Columns)
		h.raw(`<table class="main-tbl"><thead><tr>`)
		if v.Table.MultiSelect {
			h.raw(`<th class="select">`)
			selectAll(h, v)
			h.raw("</th>")
		}
		for _, c := range columns {
			header(ctx, h, v, c)
		}
		h.raw("</tr></thead><tbody>")

		switch {
		case v.Loading && len(v.Table.Rows) == 0:
			emptyRow(ctx, h, len(columns), v.Table.MultiSelect, "UI.TABLE.LOADING")
		case len(v.Table.Rows) == 0:
			emptyRow(ctx, h, len(columns), v.Table.MultiSelect, "UI.TABLE.EMPTY")
		}
		for i, row := range v.Table.Rows {
			h.raw("<tr")
			h.flag(`class="selected"`, row.Selected)
			h.raw(">")
			if v.Table.MultiSelect {
				h.raw(`<td class="select"><form method="post"`)
				h.attr("action", v.BasePath+"/select")
				h.raw(`><input type="hidden" name="index"`)
				h.attr("value", strconv.Itoa(i))
				h.raw(`><input type="hidden" name="selected"`)
				h.attr("value", strconv.FormatBool(!row.Selected))
				h.raw(`><input type="checkbox" data-autosubmit`)
				h.flag("checked", row.Selected)
				h.raw("></form></td>")
			}
			for _, c := range columns {
				h.raw("<td")
				h.attr("class", "col-"+c.Name)
				h.raw(">")
				h.render(ctx, templates.Cell(row, c))
				h.raw("</td>")
			}
			h.raw("</tr>")
		}
		h.raw("</tbody></table>")

		h.render(ctx, Pagination(v))
		h.raw("</div>")
	})
}

func visibleColumns(cols []tablecfg.Column) []tablecfg.Column {
	out := make([]tablecfg.Column, 0, len(cols))
	for _, c := range cols {
		if !c.Deactivated {
			out = append(out, c)
		}
	}
	return out
}

func selectAll(h *html, v TableView) {
	all := len(v.Table.Rows) > 0
	for _, r := range v.Table.Rows {
		if !r.Selected {
			all = false
			break
		}
	}
	action := v.BasePath + "/select-all"
	if all {
		action = v.BasePath + "/deselect-all"
	}
	h.raw(`<form method="post"`)
	h.attr("action", action)
	h.raw(`><input type="checkbox" data-autosubmit`)
	h.flag("checked", all)
	h.flag("disabled", len(v.Table.Rows) == 0)
	h.raw("></form>")
}

func header(ctx context.Context, h *html, v TableView, c tablecfg.Column) {
	label := t(ctx, c.Label)
	if !c.Sortable {
		h.raw("<th>")
		h.text(label)
		h.raw("</th>")
		return
	}
	class := "sortable"
	if v.Table.SortBy == c.Name {
		class += " sort-" + string(v.Table.Reverse)
	}
	h.raw("<th")
	h.attr("class", class)
	h.raw(">")
	h.postButton(v.BasePath+"/sort", "link", label, false, "column", c.Name)
	h.raw("</th>")
}

func emptyRow(ctx context.Context, h *html, columns int, multiSelect bool, key string) {
	if multiSelect {
		columns++
	}
	h.raw(`<tr class="empty"><td`)
	h.attr("colspan", strconv.Itoa(columns))
	h.raw(">")
	h.text(t(ctx, key))
	h.raw("</td></tr>")
}

// Pagination отображает переход по страницам и выбор размера страницы.
// Номера выводятся только для окна вокруг активной страницы.
func Pagination(v TableView) templ.Component {
	return component(func(ctx context.Context, h *html) {
		p := v.Table.Pagination
		active := v.Table.ActivePage()
		last := len(v.Table.Pages) - 1

		h.raw(`<nav class="pagination">`)
		h.raw(`<span class="summary">`)
		h.text(tf(ctx, "UI.TABLE.SHOWING", len(v.Table.Rows), p.TotalItems))
		h.raw(`</span><a class="refresh"`)
		h.attr("href", v.BasePath+"?refresh=1")
		h.raw(">")
		h.text(t(ctx, "UI.TABLE.REFRESH"))
		h.raw("</a>")

		h.postButton(v.BasePath+"/page", "page prev", t(ctx, "UI.PAGINATION.PREVIOUS"), active <= 0,
			"page", strconv.Itoa(active-1))
		for _, page := range v.Table.DirectlyAccessible() {
			class := "page"
			if page.Active {
				class += " active"
			}
			h.postButton(v.BasePath+"/page", class, page.Label, page.Active, "page", strconv.Itoa(page.Number))
		}
		h.postButton(v.BasePath+"/page", "page next", t(ctx, "UI.PAGINATION.NEXT"), active >= last,
			"page", strconv.Itoa(active+1))

		h.raw(`<form method="post" class="inline page-size"`)
		h.attr("action", v.BasePath+"/limit")
		h.raw("><label>")
		h.text(t(ctx, "UI.PAGINATION.PAGE_SIZE"))
		h.raw(` <select name="limit" data-autosubmit>`)
		for _, size := range PageSizes {
			h.raw("<option")
			h.attr("value", strconv.Itoa(size))
			h.flag("selected", size == p.Limit)
			h.raw(">")
			h.text(strconv.Itoa(size))
			h.raw("</option>")
		}
		h.raw("</select></label></form></nav>")
	})
}

// ColumnToggles отображает переключатели видимости колонок.
func ColumnToggles(v TableView) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<details class="column-toggles"><summary>`)
		h.text(t(ctx, "UI.TABLE.COLUMNS"))
		h.raw("</summary><ul>")
		for _, c := range v.Table.Columns {
			h.raw(`<li><form method="post"`)
			h.attr("action", v.BasePath+"/columns")
			h.raw(`><input type="hidden" name="column"`)
			h.attr("value", c.Name)
			h.raw(`><label><input type="checkbox" data-autosubmit`)
			h.flag("checked", !c.Deactivated)
			h.raw("> ")
			h.text(t(ctx, c.Label))
			h.raw("</label></form></li>")
		}
		h.raw("</ul></details>")
	})
}
