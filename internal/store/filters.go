package store

import (
	"fmt"
	"time"
)

// reduceFilters обрабатывает действия над фильтрами. Каждое действие
// меняет только значение указанного фильтра; перекрёстной проверки нет.
func reduceFilters(s FilterState, a Action) FilterState {
	switch a := a.(type) {
	case LoadFilters:
		s.Resource = a.Resource
		s.Filters = copyFilters(a.Filters)
		s.SelectedFilter = ""
	case SetFilterValue:
		s.Filters = withFilterValue(s.Filters, a.Name, a.Value)
	case RemoveFilter:
		s.Filters = withFilterValue(s.Filters, a.Name, "")
	case ResetFilters:
		out := copyFilters(s.Filters)
		for i := range out {
			out[i].Value = ""
		}
		s.Filters = out
		s.TextFilter = ""
		s.SelectedFilter = ""
		s.StartDate, s.EndDate = time.Time{}, time.Time{}
	case LoadProfile:
		// Профиль авторитетен: фильтры, отсутствующие в профиле, исчезают.
		s.Filters = copyFilters(a.FilterMap)
	case SetTextFilter:
		s.TextFilter = a.Text
	case SelectFilter:
		s.SelectedFilter = a.Name
	case SetDateRange:
		s.StartDate, s.EndDate = a.Start, a.End
		if f, ok := s.Find(s.SelectedFilter); ok && f.Type == FilterPeriod {
			s.Filters = withFilterValue(s.Filters, f.Name, PeriodValue(a.Start, a.End))
		}
	}
	return s
}

// Find возвращает фильтр по имени.
func (s FilterState) Find(name string) (Filter, bool) {
	for _, f := range s.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return Filter{}, false
}

// Active возвращает фильтры с непустым значением в порядке определения.
func (s FilterState) Active() []Filter {
	var out []Filter
	for _, f := range s.Filters {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}

// PeriodValue форматирует период в синтаксисе backend'а.
func PeriodValue(start, end time.Time) string {
	return fmt.Sprintf("%s/%s", start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
}

// withFilterValue возвращает копию списка с новым значением фильтра name.
// Неизвестное имя возвращает исходный список без изменений.
func withFilterValue(filters []Filter, name, value string) []Filter {
	idx := -1
	for i, f := range filters {
		if f.Name == name {
			idx = i
			break
		}
	}
	if idx < 0 || filters[idx].Value == value {
		return filters
	}
	out := copyFilters(filters)
	out[idx].Value = value
	return out
}

func copyFilters(in []Filter) []Filter {
	if in == nil {
		return nil
	}
	out := make([]Filter, len(in))
	copy(out, in)
	return out
}
