package occlient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
)

// ListResponse: нормализованный конверт списочного endpoint'а.
type ListResponse struct {
	Total   int
	Count   int
	Limit   int
	Offset  int
	Results []map[string]any
}

// FilterOption: вариант значения фильтра.
type FilterOption struct {
	Value string
	Label string
}

// FilterDefinition: описание фильтра из filters.json.
type FilterDefinition struct {
	Name         string
	Label        string
	Type         string
	Translatable bool
	Options      []FilterOption
}

// List запрашивает список ресурса. Ответ в виде голого массива
// (например, /api/workflow-definitions) приводится к конверту.
func (c *Client) List(ctx context.Context, path string, query url.Values) (*ListResponse, error) {
	res, err := c.GetJSON(ctx, "list", path, query)
	if err != nil {
		return nil, err
	}

	if res.IsArray() {
		results, err := decodeObjects(res.Raw)
		if err != nil {
			return nil, fmt.Errorf("декодирование списка %s: %w", path, err)
		}
		return &ListResponse{
			Total:   len(results),
			Count:   len(results),
			Limit:   len(results),
			Results: results,
		}, nil
	}

	if !res.IsObject() || !res.Get("results").Exists() {
		return nil, fmt.Errorf("список %s: %w: нет поля results", path, ErrMalformed)
	}

	results, err := decodeObjects(res.Get("results").Raw)
	if err != nil {
		return nil, fmt.Errorf("декодирование списка %s: %w", path, err)
	}

	out := &ListResponse{
		Total:   int(res.Get("total").Int()),
		Count:   int(res.Get("count").Int()),
		Limit:   int(res.Get("limit").Int()),
		Offset:  int(res.Get("offset").Int()),
		Results: results,
	}
	if !res.Get("count").Exists() {
		out.Count = len(results)
	}
	return out, nil
}

// Filters запрашивает определения фильтров ресурса. Порядок фильтров
// соответствует порядку ключей в ответе.
func (c *Client) Filters(ctx context.Context, path string) ([]FilterDefinition, error) {
	res, err := c.GetJSON(ctx, "filters", path, nil)
	if err != nil {
		return nil, err
	}
	if !res.IsObject() {
		return nil, fmt.Errorf("фильтры %s: %w", path, ErrMalformed)
	}

	var defs []FilterDefinition
	res.ForEach(func(key, value gjson.Result) bool {
		def := FilterDefinition{
			Name:         key.String(),
			Label:        value.Get("label").String(),
			Type:         value.Get("type").String(),
			Translatable: value.Get("translatable").Bool(),
		}
		value.Get("options").ForEach(func(label, val gjson.Result) bool {
			def.Options = append(def.Options, FilterOption{Value: val.String(), Label: label.String()})
			return true
		})
		defs = append(defs, def)
		return true
	})
	return defs, nil
}

func decodeObjects(raw string) ([]map[string]any, error) {
	var out []map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []map[string]any{}
	}
	return out, nil
}
