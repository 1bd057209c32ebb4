package store

import (
	"strconv"

	"github.com/bigkaa/castadmin/internal/tablecfg"
)

// TableContent: результат проекции среза ресурса в таблицу.
type TableContent struct {
	Resource    tablecfg.Resource
	Rows        []Row
	Columns     []tablecfg.Column
	MultiSelect bool
	Pages       []Page
	SortBy      string
	TotalItems  int
}

func reduceTable(t TableState, a Action) TableState {
	switch a := a.(type) {
	case LoadTableContent:
		c := a.Content
		t.Resource = c.Resource
		t.Rows = c.Rows
		t.Columns = c.Columns
		t.MultiSelect = c.MultiSelect
		if c.SortBy != "" {
			t.SortBy = c.SortBy
		}
		t.Pagination.TotalItems = c.TotalItems
		t.Pages = c.Pages
		if len(t.Pages) == 0 {
			t.Pages = CalculatePages(c.TotalItems, t.Pagination.Limit, t.Pagination.Offset)
		}
		t.Pagination.Offset = t.ActivePage()
	case SelectRow:
		if a.Index < 0 || a.Index >= len(t.Rows) {
			return t
		}
		rows := make([]Row, len(t.Rows))
		copy(rows, t.Rows)
		rows[a.Index] = Row{Values: rows[a.Index].Values, Selected: a.Selected}
		t.Rows = rows
	case SelectAll:
		t.Rows = withSelection(t.Rows, true)
	case DeselectAll:
		t.Rows = withSelection(t.Rows, false)
	case SetSort:
		if a.Column == t.SortBy {
			t.Reverse = t.Reverse.Toggle()
		} else {
			t.SortBy = a.Column
			t.Reverse = SortAsc
		}
	case ReverseSort:
		t.Reverse = t.Reverse.Toggle()
	case SetPageLimit:
		if a.Limit < 0 {
			return t
		}
		t.Pagination.Limit = a.Limit
		t.Pagination.Offset = 0
		t.Pages = CalculatePages(t.Pagination.TotalItems, a.Limit, 0)
	case GoToPage:
		pages := CalculatePages(t.Pagination.TotalItems, t.Pagination.Limit, a.Page)
		t.Pages = pages
		t.Pagination.Offset = t.ActivePage()
	case ToggleColumn:
		cols := make([]tablecfg.Column, len(t.Columns))
		copy(cols, t.Columns)
		for i := range cols {
			if cols[i].Name == a.Column {
				cols[i].Deactivated = !cols[i].Deactivated
			}
		}
		t.Columns = cols
	}
	return t
}

// Toggle возвращает противоположное направление.
func (d SortDirection) Toggle() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// PageCount возвращает количество страниц. Пустой результат или limit<=0
// дают ровно одну страницу.
func PageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

// CalculatePages пересчитывает список страниц целиком. Активной остаётся
// страница active, если она существует, иначе последняя.
func CalculatePages(total, limit, active int) []Page {
	n := PageCount(total, limit)
	if active >= n {
		active = n - 1
	}
	if active < 0 {
		active = 0
	}
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Number: i, Label: strconv.Itoa(i + 1), Active: i == active}
	}
	return pages
}

func withSelection(rows []Row, selected bool) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{Values: r.Values, Selected: selected}
	}
	return out
}
