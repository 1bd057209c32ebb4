package occlient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// OrgProperty возвращает свойство организации текущего пользователя.
// GET /info/me.json, поле org.properties[name]. Отсутствующее свойство: "".
func (c *Client) OrgProperty(ctx context.Context, name string) (string, error) {
	res, err := c.GetJSON(ctx, "info_me", "/info/me.json", nil)
	if err != nil {
		return "", err
	}
	return res.Get("org.properties." + escapePath(name)).String(), nil
}

// Event возвращает событие по ID (GET /admin-ng/event/{id}).
func (c *Client) Event(ctx context.Context, id string) (gjson.Result, error) {
	return c.GetJSON(ctx, "event", "/admin-ng/event/"+url.PathEscape(id), nil)
}

// SeriesMetadata возвращает метаданные серии (GET /admin-ng/series/{id}/metadata.json).
func (c *Client) SeriesMetadata(ctx context.Context, id string) (gjson.Result, error) {
	return c.GetJSON(ctx, "series_metadata", fmt.Sprintf("/admin-ng/series/%s/metadata.json", url.PathEscape(id)), nil)
}

// CaptureAgent возвращает описание агента записи (GET /admin-ng/capture-agents/{name}).
func (c *Client) CaptureAgent(ctx context.Context, name string) (gjson.Result, error) {
	return c.GetJSON(ctx, "capture_agent", "/admin-ng/capture-agents/"+url.PathEscape(name), nil)
}

// escapePath экранирует спецсимволы пути gjson в имени ключа.
func escapePath(key string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(key)
}
