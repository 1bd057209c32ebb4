package occlient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/tidwall/gjson"
)

// AccessKind: тип ресурса, к которому относится политика доступа.
type AccessKind string

const (
	AccessEvent  AccessKind = "event"
	AccessSeries AccessKind = "series"
)

// ACE: элемент списка контроля доступа в формате backend'а.
type ACE struct {
	Action string `json:"action"`
	Allow  bool   `json:"allow"`
	Role   string `json:"role"`
}

// ACLTemplate: именованный шаблон ACL.
type ACLTemplate struct {
	ID   string
	Name string
}

// Role: роль, которой можно выдать права.
type Role struct {
	Name string
	Type string
}

// Access возвращает текущий ACL события или серии.
// GET /admin-ng/{kind}/{id}/access.json; поле {kind}_access.acl содержит
// JSON-строку вида {"acl": {"ace": [...]}}.
func (c *Client) Access(ctx context.Context, kind AccessKind, id string) ([]ACE, error) {
	path := fmt.Sprintf("/admin-ng/%s/%s/access.json", kind, url.PathEscape(id))
	res, err := c.GetJSON(ctx, "access", path, nil)
	if err != nil {
		return nil, err
	}

	field := "episode_access"
	if kind == AccessSeries {
		field = "series_access"
	}
	acl := res.Get(field + ".acl")
	if !acl.Exists() {
		return nil, fmt.Errorf("доступ %s %s: %w: нет поля %s.acl", kind, id, ErrMalformed, field)
	}

	// acl бывает как JSON-строкой, так и вложенным объектом.
	doc := acl
	if acl.Type == gjson.String {
		if !gjson.Valid(acl.String()) {
			return nil, fmt.Errorf("доступ %s %s: %w: невалидный acl", kind, id, ErrMalformed)
		}
		doc = gjson.Parse(acl.String())
	}
	return parseACEs(doc.Get("acl.ace")), nil
}

// SaveAccess сохраняет ACL события или серии.
// POST /admin-ng/{kind}/{id}/access, форма acl={"acl":{"ace":[...]}}, override=true.
func (c *Client) SaveAccess(ctx context.Context, kind AccessKind, id string, aces []ACE) error {
	if aces == nil {
		aces = []ACE{}
	}
	payload, err := json.Marshal(map[string]any{"acl": map[string]any{"ace": aces}})
	if err != nil {
		return fmt.Errorf("сериализация ACL: %w", err)
	}
	form := url.Values{}
	form.Set("acl", string(payload))
	form.Set("override", "true")

	path := fmt.Sprintf("/admin-ng/%s/%s/access", kind, url.PathEscape(id))
	if _, err := c.PostForm(ctx, "save_access", path, form); err != nil {
		return err
	}
	return nil
}

// ACLTemplates возвращает список шаблонов ACL, отсортированный по имени.
// GET /admin-ng/resources/ACL.json: объект {id: name}.
func (c *Client) ACLTemplates(ctx context.Context) ([]ACLTemplate, error) {
	res, err := c.GetJSON(ctx, "acl_templates", "/admin-ng/resources/ACL.json", nil)
	if err != nil {
		return nil, err
	}
	var out []ACLTemplate
	res.ForEach(func(key, value gjson.Result) bool {
		out = append(out, ACLTemplate{ID: key.String(), Name: value.String()})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ACLTemplate возвращает ACE шаблона по ID.
// GET /acl-manager/acl/{id}: объект {"acl": {"ace": [...]}}.
func (c *Client) ACLTemplate(ctx context.Context, id string) ([]ACE, error) {
	res, err := c.GetJSON(ctx, "acl_template", "/acl-manager/acl/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return parseACEs(res.Get("acl.ace")), nil
}

// ACLActions возвращает пользовательские действия ACL (помимо read/write).
// GET /admin-ng/resources/ACL.ACTIONS.json: объект {action: label}.
func (c *Client) ACLActions(ctx context.Context) ([]string, error) {
	res, err := c.GetJSON(ctx, "acl_actions", "/admin-ng/resources/ACL.ACTIONS.json", nil)
	if err != nil {
		return nil, err
	}
	var out []string
	res.ForEach(func(key, _ gjson.Result) bool {
		out = append(out, key.String())
		return true
	})
	sort.Strings(out)
	return out, nil
}

// Roles возвращает роли, доступные для ACL.
// GET /admin-ng/acl/roles.json?limit=-1&target=ACL: массив {name, type}.
func (c *Client) Roles(ctx context.Context) ([]Role, error) {
	q := url.Values{}
	q.Set("limit", "-1")
	q.Set("target", "ACL")
	res, err := c.GetJSON(ctx, "roles", "/admin-ng/acl/roles.json", q)
	if err != nil {
		return nil, err
	}
	var out []Role
	for _, r := range res.Array() {
		if name := r.Get("name").String(); name != "" {
			out = append(out, Role{Name: name, Type: r.Get("type").String()})
		}
	}
	return out, nil
}

// HasActiveTransaction проверяет, выполняется ли над событием workflow.
// Отсутствие поля active трактуется как активная транзакция.
func (c *Client) HasActiveTransaction(ctx context.Context, eventID string) (bool, error) {
	path := fmt.Sprintf("/admin-ng/event/%s/hasActiveTransaction", url.PathEscape(eventID))
	res, err := c.GetJSON(ctx, "has_active_transaction", path, nil)
	if err != nil {
		return true, err
	}
	active := res.Get("active")
	if !active.Exists() {
		return true, nil
	}
	return active.Bool(), nil
}

// parseACEs разбирает массив ACE. Единичный объект вместо массива
// тоже допускается. allow может быть булевым значением или строкой "true".
func parseACEs(v gjson.Result) []ACE {
	if !v.Exists() {
		return []ACE{}
	}
	items := v.Array()
	out := make([]ACE, 0, len(items))
	for _, item := range items {
		out = append(out, ACE{
			Action: item.Get("action").String(),
			Allow:  item.Get("allow").Bool(),
			Role:   item.Get("role").String(),
		})
	}
	return out
}
