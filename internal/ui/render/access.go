package render

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/bigkaa/castadmin/internal/acl"
	"github.com/bigkaa/castadmin/internal/store"
)

// AccessView: данные вкладки политик доступа.
type AccessView struct {
	Editor        acl.View
	Notifications []store.Notification
	// BasePath: адрес вкладки, например /admin/events/{id}/access.
	BasePath string
}

// AccessTab отображает редактор политик доступа. В режиме чтения
// и вне состояний Ready/Editing все элементы управления отключены.
func AccessTab(v AccessView) templ.Component {
	return component(func(ctx context.Context, h *html) {
		ev := v.Editor
		disabled := ev.ReadOnly || (ev.State != acl.StateReady && ev.State != acl.StateEditing)

		h.raw(`<section class="access-tab"`)
		h.attr("data-state", ev.State.String())
		h.raw("><h2>")
		h.text(t(ctx, "UI.ACL.TITLE"))
		if ev.ReadOnly {
			h.raw(` <span class="badge status-read-only">`)
			h.text(t(ctx, "UI.ACL.READ_ONLY"))
			h.raw("</span>")
		}
		h.raw("</h2>")
		h.render(ctx, Notifications(v.Notifications))

		switch ev.State {
		case acl.StateLoading:
			h.raw(`<p class="loading">`)
			h.text(t(ctx, "UI.ACL.LOADING"))
			h.raw("</p></section>")
			return
		case acl.StateSaving:
			h.raw(`<p class="loading">`)
			h.text(t(ctx, "UI.ACL.SAVING"))
			h.raw("</p>")
		}

		h.raw(`<form method="post" class="inline"`)
		h.attr("action", v.BasePath+"/template")
		h.raw("><label>")
		h.text(t(ctx, "UI.ACL.TEMPLATE"))
		h.raw(` <select name="template" data-autosubmit`)
		h.flag("disabled", disabled)
		h.raw(`><option value=""></option>`)
		for _, tpl := range ev.Templates {
			h.raw("<option")
			h.attr("value", tpl.ID)
			h.flag("selected", tpl.ID == ev.SelectedTemplate)
			h.raw(">")
			h.text(tpl.Name)
			h.raw("</option>")
		}
		h.raw("</select></label></form>")

		h.raw(`<table class="main-tbl policies"><thead><tr><th>`)
		h.text(t(ctx, "UI.ACL.ROLE"))
		h.raw("</th><th>")
		h.text(t(ctx, "UI.ACL.READ"))
		h.raw("</th><th>")
		h.text(t(ctx, "UI.ACL.WRITE"))
		h.raw("</th>")
		if len(ev.Actions) > 0 {
			h.raw("<th>")
			h.text(t(ctx, "UI.ACL.ACTIONS"))
			h.raw("</th>")
		}
		h.raw("<th></th></tr></thead><tbody>")
		for i, p := range ev.Policies {
			policyRow(ctx, h, v, i, p, disabled)
		}
		h.raw("</tbody></table>")

		h.raw(`<div class="actions">`)
		h.postButton(v.BasePath+"/add", "link", t(ctx, "UI.ACL.ADD"), disabled)
		h.postButton(v.BasePath+"/reset", "secondary", t(ctx, "UI.ACL.RESET"), disabled || !ev.Dirty)
		h.postButton(v.BasePath+"/save", "primary", t(ctx, "UI.ACL.SAVE"), disabled)
		h.raw("</div></section>")
	})
}

// policyRow: строка политики: одна форма на строку.
func policyRow(ctx context.Context, h *html, v AccessView, i int, p acl.Policy, disabled bool) {
	row := v.BasePath + "/rows/" + strconv.Itoa(i)
	form := "policy-" + strconv.Itoa(i)
	ev := v.Editor

	h.raw("<tr")
	h.flag(`class="invalid"`, !p.Valid())
	h.raw("><td>")
	h.raw(`<form method="post"`)
	h.attr("id", form)
	h.attr("action", row)
	h.raw("></form>")
	h.raw(`<select name="role" data-autosubmit`)
	h.attr("form", form)
	h.flag("disabled", disabled)
	h.raw(`><option value=""></option>`)
	known := false
	for _, r := range ev.Roles {
		if r.Name == p.Role {
			known = true
		}
		h.raw("<option")
		h.attr("value", r.Name)
		h.flag("selected", r.Name == p.Role)
		h.raw(">")
		h.text(r.Name)
		h.raw("</option>")
	}
	if !known && p.Role != "" {
		h.raw("<option selected")
		h.attr("value", p.Role)
		h.raw(">")
		h.text(p.Role)
		h.raw("</option>")
	}
	h.raw("</select></td>")

	checkbox(h, form, "read", p.Read, disabled)
	checkbox(h, form, "write", p.Write, disabled)

	if len(ev.Actions) > 0 {
		h.raw(`<td><select name="actions" multiple data-autosubmit`)
		h.attr("form", form)
		h.flag("disabled", disabled)
		h.raw(">")
		for _, a := range ev.Actions {
			h.raw("<option")
			h.attr("value", a)
			h.flag("selected", contains(p.Actions, a))
			h.raw(">")
			h.text(a)
			h.raw("</option>")
		}
		h.raw("</select></td>")
	}

	h.raw("<td>")
	h.postButton(row+"/remove", "link danger", t(ctx, "UI.ACL.REMOVE"), disabled)
	h.raw("</td></tr>")
}

func checkbox(h *html, form, name string, checked, disabled bool) {
	h.raw(`<td><input type="checkbox" value="true" data-autosubmit`)
	h.attr("name", name)
	h.attr("form", form)
	h.flag("checked", checked)
	h.flag("disabled", disabled)
	h.raw("></td>")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
