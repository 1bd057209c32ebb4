package thunks

import "github.com/bigkaa/castadmin/internal/tablecfg"

// Transform приводит строки ответа backend'а к виду, ожидаемому таблицей.
// Исходные карты не изменяются. Для событий добавляется поле date
// (копия start_date), а каждой публикации: enabled=true и hiding=false.
func Transform(resource tablecfg.Resource, results []map[string]any) []map[string]any {
	out := make([]map[string]any, len(results))
	for i, r := range results {
		row := make(map[string]any, len(r)+1)
		for k, v := range r {
			row[k] = v
		}
		if resource == tablecfg.ResourceEvents {
			row["date"] = r["start_date"]
			if pubs, ok := r["publications"].([]any); ok {
				row["publications"] = transformPublications(pubs)
			}
		}
		out[i] = row
	}
	return out
}

func transformPublications(pubs []any) []any {
	out := make([]any, len(pubs))
	for i, p := range pubs {
		m, ok := p.(map[string]any)
		if !ok {
			out[i] = p
			continue
		}
		pub := make(map[string]any, len(m)+2)
		for k, v := range m {
			pub[k] = v
		}
		pub["enabled"] = true
		pub["hiding"] = false
		out[i] = pub
	}
	return out
}
