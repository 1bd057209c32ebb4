package store

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/bigkaa/castadmin/internal/tablecfg"
)

func eventFilters() []Filter {
	return []Filter{
		{Name: "status", Label: "FILTERS.EVENTS.STATUS.LABEL", Type: FilterSelect, Translatable: true,
			Options: []FilterOption{{Value: "EVENTS.EVENTS.STATUS.PROCESSED", Label: "Processed"}}},
		{Name: "startDate", Label: "FILTERS.EVENTS.START_DATE", Type: FilterPeriod},
		{Name: "location", Label: "FILTERS.EVENTS.LOCATION.LABEL", Type: FilterSelect},
	}
}

func loaded() State {
	s := NewState(10)
	return Reduce(s, LoadFilters{Resource: tablecfg.ResourceEvents, Filters: eventFilters()})
}

func TestReduce_SetAndRemoveFilter(t *testing.T) {
	s := loaded()
	s = Reduce(s, SetFilterValue{Name: "location", Value: "room-1"})

	f, _ := s.Filters.Find("location")
	if f.Value != "room-1" {
		t.Errorf("значение фильтра = %q, хотели room-1", f.Value)
	}
	if st, _ := s.Filters.Find("status"); st.Value != "" {
		t.Error("изменён посторонний фильтр")
	}

	s = Reduce(s, RemoveFilter{Name: "location"})
	if f, _ := s.Filters.Find("location"); f.Value != "" {
		t.Error("RemoveFilter должен сбросить значение")
	}
}

func TestReduce_RemoveUnknownFilterIsNoop(t *testing.T) {
	s := loaded()
	s = Reduce(s, SetFilterValue{Name: "status", Value: "x"})

	got := Reduce(s, RemoveFilter{Name: "nope"})
	if !reflect.DeepEqual(got, s) {
		t.Error("удаление неизвестного фильтра изменило состояние")
	}
}

func TestReduce_ResetAll(t *testing.T) {
	s := loaded()
	s = Reduce(s, SetFilterValue{Name: "status", Value: "x"})
	s = Reduce(s, SetTextFilter{Text: "lecture"})

	s = Reduce(s, ResetFilters{})
	if len(s.Filters.Active()) != 0 || s.Filters.TextFilter != "" {
		t.Error("ResetFilters должен очистить все значения")
	}
	if len(s.Filters.Filters) != 3 {
		t.Error("ResetFilters не должен удалять определения")
	}
}

func TestReduce_LoadProfileReplacesWholesale(t *testing.T) {
	s := loaded()
	profile := []Filter{{Name: "series", Type: FilterSelect, Value: "s-1"}}

	s = Reduce(s, LoadProfile{FilterMap: profile})
	if !reflect.DeepEqual(s.Filters.Filters, profile) {
		t.Errorf("фильтры после загрузки профиля = %+v, хотели %+v", s.Filters.Filters, profile)
	}

	profile[0].Value = "changed"
	if s.Filters.Filters[0].Value != "s-1" {
		t.Error("состояние разделяет память с профилем")
	}
}

func TestReduce_DateRangeAppliesToSelectedPeriod(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	s := loaded()
	s = Reduce(s, SelectFilter{Name: "startDate"})
	s = Reduce(s, SetDateRange{Start: start, End: end})

	f, _ := s.Filters.Find("startDate")
	want := "2026-03-01T00:00:00Z/2026-03-31T23:59:59Z"
	if f.Value != want {
		t.Errorf("значение периода = %q, хотели %q", f.Value, want)
	}

	s = Reduce(s, SelectFilter{Name: "location"})
	s = Reduce(s, SetDateRange{Start: start, End: end})
	if loc, _ := s.Filters.Find("location"); loc.Value != "" {
		t.Error("период не должен применяться к фильтру select")
	}
}

func TestQueryParams(t *testing.T) {
	s := loaded()
	s = Reduce(s, SetFilterValue{Name: "status", Value: "EVENTS.EVENTS.STATUS.PROCESSED"})
	s = Reduce(s, SetFilterValue{Name: "location", Value: "room-1"})
	s = Reduce(s, SetTextFilter{Text: "math"})
	s = Reduce(s, SetSort{Column: "title"})
	s = Reduce(s, ReverseSort{})
	s.Table.Pagination.TotalItems = 100
	s = Reduce(s, GoToPage{Page: 2})

	q := QueryParams(s, true, true)
	if got, want := q.Get("filter"), "status:EVENTS.EVENTS.STATUS.PROCESSED,location:room-1,textFilter:math"; got != want {
		t.Errorf("filter = %q, хотели %q", got, want)
	}
	if got := q.Get("sort"); got != "title:DESC" {
		t.Errorf("sort = %q, хотели title:DESC", got)
	}
	if q.Get("limit") != "10" || q.Get("offset") != "20" {
		t.Errorf("limit=%s offset=%s, хотели 10 и 20", q.Get("limit"), q.Get("offset"))
	}

	q = QueryParams(s, false, false)
	if q.Has("filter") || q.Has("sort") {
		t.Error("без applyFilter/applySort параметры filter и sort не нужны")
	}
}

func TestReduce_Profiles(t *testing.T) {
	s := NewState(10)
	p := FilterProfile{Name: "mine", Resource: tablecfg.ResourceEvents, FilterMap: []Filter{{Name: "status", Value: "x"}}}

	s = Reduce(s, CreateProfile{Profile: p})
	if !s.Profiles.ValidName || !s.Profiles.Exists(tablecfg.ResourceEvents, "mine") {
		t.Fatal("профиль не создан")
	}

	before := s.Profiles.Profiles
	dup := Reduce(s, CreateProfile{Profile: FilterProfile{Name: "mine", Resource: tablecfg.ResourceEvents}})
	if dup.Profiles.ValidName {
		t.Error("дубликат должен дать ValidName=false")
	}
	if !reflect.DeepEqual(dup.Profiles.Profiles, before) {
		t.Error("дубликат изменил список профилей")
	}

	other := Reduce(s, CreateProfile{Profile: FilterProfile{Name: "mine", Resource: tablecfg.ResourceSeries}})
	if !other.Profiles.ValidName {
		t.Error("одинаковое имя для другого ресурса допустимо")
	}

	renamed := Reduce(s, EditProfile{OriginalName: "mine", Profile: FilterProfile{Name: "ours", Resource: tablecfg.ResourceEvents}})
	if renamed.Profiles.Exists(tablecfg.ResourceEvents, "mine") || !renamed.Profiles.Exists(tablecfg.ResourceEvents, "ours") {
		t.Error("переименование профиля не выполнено")
	}

	removed := Reduce(renamed, RemoveProfile{Resource: tablecfg.ResourceEvents, Name: "ours"})
	if len(removed.Profiles.List(tablecfg.ResourceEvents)) != 0 {
		t.Error("профиль не удалён")
	}
	if len(renamed.Profiles.List(tablecfg.ResourceEvents)) != 1 {
		t.Error("удаление изменило предыдущее состояние")
	}
}

func TestReduce_ProfileEditing(t *testing.T) {
	s := Reduce(NewState(10), CreateProfile{Profile: FilterProfile{Name: "a", Resource: tablecfg.ResourceEvents}})

	if got := Reduce(s, StartProfileEdit{Resource: tablecfg.ResourceEvents, Name: "missing"}); got.Profiles.Editing != "" {
		t.Errorf("неизвестный профиль не должен открываться: %q", got.Profiles.Editing)
	}

	s = Reduce(s, StartProfileEdit{Resource: tablecfg.ResourceEvents, Name: "a"})
	if s.Profiles.Editing != "a" {
		t.Fatalf("Editing = %q, ожидалось a", s.Profiles.Editing)
	}
	if got := Reduce(s, CancelProfileEdit{}); got.Profiles.Editing != "" {
		t.Errorf("после отмены Editing = %q", got.Profiles.Editing)
	}
	if got := Reduce(s, EditProfile{OriginalName: "a", Profile: FilterProfile{Name: "a", Description: "d", Resource: tablecfg.ResourceEvents}}); got.Profiles.Editing != "" {
		t.Errorf("после сохранения Editing = %q", got.Profiles.Editing)
	}
}

func TestValidateProfile(t *testing.T) {
	s := Reduce(NewState(10), CreateProfile{Profile: FilterProfile{Name: "a", Resource: tablecfg.ResourceJobs}})

	if err := ValidateProfile(s.Profiles, FilterProfile{Name: "a", Resource: tablecfg.ResourceJobs}); !errors.Is(err, ErrDuplicateProfile) {
		t.Errorf("ожидалась ErrDuplicateProfile, получено %v", err)
	}
	if err := ValidateProfile(s.Profiles, FilterProfile{Resource: tablecfg.ResourceJobs}); !errors.Is(err, ErrEmptyProfileName) {
		t.Errorf("ожидалась ErrEmptyProfileName, получено %v", err)
	}
	if err := ValidateProfile(s.Profiles, FilterProfile{Name: "b", Resource: tablecfg.ResourceJobs}); err != nil {
		t.Errorf("неожиданная ошибка: %v", err)
	}
}
