package store

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryParams строит параметры запроса списка ресурса:
//
//	filter=name:value,...,textFilter:text
//	sort=column:ASC|DESC
//	limit=N, offset=страница*limit
//
// Фильтры добавляются только при applyFilter, сортировка: при applySort.
func QueryParams(s State, applyFilter, applySort bool) url.Values {
	q := url.Values{}

	if applyFilter {
		var parts []string
		for _, f := range s.Filters.Active() {
			parts = append(parts, f.Name+":"+f.Value)
		}
		if s.Filters.TextFilter != "" {
			parts = append(parts, "textFilter:"+s.Filters.TextFilter)
		}
		if len(parts) > 0 {
			q.Set("filter", strings.Join(parts, ","))
		}
	}

	if applySort && s.Table.SortBy != "" {
		dir := s.Table.Reverse
		if dir == "" {
			dir = SortAsc
		}
		q.Set("sort", s.Table.SortBy+":"+string(dir))
	}

	limit := s.Table.Pagination.Limit
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
		q.Set("offset", strconv.Itoa(s.Table.Pagination.Offset*limit))
	}
	return q
}
