package store

import "github.com/bigkaa/castadmin/internal/tablecfg"

// Project строит содержимое таблицы из среза ресурса и его конфигурации.
// Строки получают selected=false; колонки берутся в порядке конфигурации
// с флагами deactivated, сохранёнными в срезе. Количество страниц считается
// по limit из ответа backend'а, активная страница: pagination.Offset
// (с прижатием к последней).
func Project(cfg tablecfg.TableConfig, slice ResourceSlice, pagination Pagination, sortBy string) TableContent {
	rows := make([]Row, len(slice.Results))
	for i, r := range slice.Results {
		rows[i] = Row{Values: r, Selected: false}
	}
	return TableContent{
		Resource:    cfg.Resource,
		Rows:        rows,
		Columns:     MergeColumns(cfg.Columns, slice.Columns),
		MultiSelect: cfg.MultiSelect,
		Pages:       CalculatePages(slice.Total, slice.Limit, pagination.Offset),
		SortBy:      sortBy,
		TotalItems:  slice.Total,
	}
}

// MergeColumns накладывает сохранённые флаги deactivated на колонки
// конфигурации. Порядок и состав колонок определяет конфигурация.
func MergeColumns(configured, persisted []tablecfg.Column) []tablecfg.Column {
	flags := make(map[string]bool, len(persisted))
	for _, c := range persisted {
		flags[c.Name] = c.Deactivated
	}
	out := make([]tablecfg.Column, len(configured))
	for i, c := range configured {
		if d, ok := flags[c.Name]; ok {
			c.Deactivated = d
		}
		out[i] = c
	}
	return out
}

// VisibleColumns возвращает колонки без флага deactivated.
func VisibleColumns(cols []tablecfg.Column) []tablecfg.Column {
	out := make([]tablecfg.Column, 0, len(cols))
	for _, c := range cols {
		if !c.Deactivated {
			out = append(out, c)
		}
	}
	return out
}
