package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/castadmin/internal/tablecfg"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func results(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{"id": i, "title": "event"}
	}
	return out
}

func eventsConfig(t *testing.T) tablecfg.TableConfig {
	t.Helper()
	cfg, ok := tablecfg.Lookup(tablecfg.ResourceEvents)
	if !ok {
		t.Fatal("конфигурация events не найдена")
	}
	return cfg
}

func TestActionType_String(t *testing.T) {
	for at := ActionUnknown + 1; at < actionTypeCount; at++ {
		if at.String() == "" || at.String() == "UNKNOWN" {
			t.Errorf("у типа действия %d нет имени", at)
		}
	}
	if ActionType(-1).String() != "UNKNOWN" {
		t.Error("ожидалось UNKNOWN для отрицательного значения")
	}
}

func TestReduce_UnknownActionKeepsState(t *testing.T) {
	s := NewState(10)
	got := Reduce(s, nil)
	if !reflect.DeepEqual(got, s) {
		t.Error("nil-действие не должно менять состояние")
	}
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{12000, 0, 1},
		{12000, 10, 1200},
		{5, -1, 1},
	}
	for _, tt := range tests {
		if got := PageCount(tt.total, tt.limit); got != tt.want {
			t.Errorf("PageCount(%d, %d) = %d, хотели %d", tt.total, tt.limit, got, tt.want)
		}
	}
}

func TestCalculatePages_ExactlyOneActive(t *testing.T) {
	for total := 0; total < 40; total++ {
		for limit := 0; limit < 7; limit++ {
			for active := -1; active < 12; active++ {
				pages := CalculatePages(total, limit, active)
				n := 0
				for i, p := range pages {
					if p.Number != i {
						t.Fatalf("страница %d имеет номер %d", i, p.Number)
					}
					if p.Active {
						n++
					}
				}
				if n != 1 {
					t.Fatalf("total=%d limit=%d active=%d: активных страниц %d", total, limit, active, n)
				}
			}
		}
	}
}

func TestCalculatePages_PreserveAndClamp(t *testing.T) {
	pages := CalculatePages(100, 10, 4)
	if !pages[4].Active {
		t.Error("страница 4 должна остаться активной")
	}
	if pages[4].Label != "5" {
		t.Errorf("метка страницы 4 = %q, хотели \"5\"", pages[4].Label)
	}

	pages = CalculatePages(25, 10, 7)
	if len(pages) != 3 || !pages[2].Active {
		t.Errorf("ожидалось прижатие к последней странице, получено %+v", pages)
	}
}

func TestProject_LimitZeroSinglePage(t *testing.T) {
	cfg := eventsConfig(t)
	slice := ResourceSlice{Total: 12000, Count: 12, Limit: 0, Offset: 0, Results: results(12)}

	content := Project(cfg, slice, Pagination{Limit: 10}, "")
	if len(content.Pages) != 1 {
		t.Fatalf("ожидалась 1 страница, получено %d", len(content.Pages))
	}
	if !content.Pages[0].Active {
		t.Error("единственная страница должна быть активной")
	}
	if len(content.Rows) != 12 {
		t.Fatalf("ожидалось 12 строк, получено %d", len(content.Rows))
	}
	for i, r := range content.Rows {
		if r.Selected {
			t.Errorf("строка %d выбрана после проекции", i)
		}
	}
}

func TestProject_MergesPersistedColumns(t *testing.T) {
	cfg := eventsConfig(t)
	slice := ResourceSlice{
		Columns: []tablecfg.Column{{Name: "location", Deactivated: true}, {Name: "unknown", Deactivated: true}},
	}
	content := Project(cfg, slice, Pagination{}, "")

	if len(content.Columns) != len(cfg.Columns) {
		t.Fatalf("состав колонок изменился: %d != %d", len(content.Columns), len(cfg.Columns))
	}
	for i, c := range content.Columns {
		if c.Name != cfg.Columns[i].Name {
			t.Errorf("порядок колонок нарушен на позиции %d", i)
		}
		if c.Name == "location" && !c.Deactivated {
			t.Error("флаг deactivated колонки location потерян")
		}
	}
}

func TestReduce_LoadTableContentAndSelectAll(t *testing.T) {
	cfg := eventsConfig(t)
	s := NewState(10)
	slice := ResourceSlice{Total: 5, Count: 5, Limit: 10, Results: results(5)}
	s = Reduce(s, LoadTableContent{Content: Project(cfg, slice, s.Table.Pagination, "")})

	s = Reduce(s, SelectAll{})
	if len(s.Table.Rows) != 5 {
		t.Fatalf("ожидалось 5 строк, получено %d", len(s.Table.Rows))
	}
	if got := len(s.Table.SelectedRows()); got != 5 {
		t.Errorf("выбрано %d строк, хотели 5", got)
	}

	s = Reduce(s, DeselectAll{})
	if got := len(s.Table.SelectedRows()); got != 0 {
		t.Errorf("после DeselectAll выбрано %d строк", got)
	}
}

func TestReduce_SelectRowImmutable(t *testing.T) {
	cfg := eventsConfig(t)
	s := NewState(10)
	s = Reduce(s, LoadTableContent{Content: Project(cfg, ResourceSlice{Total: 3, Limit: 10, Results: results(3)}, s.Table.Pagination, "")})

	before := s.Table.Rows
	next := Reduce(s, SelectRow{Index: 1, Selected: true})

	if before[1].Selected {
		t.Error("исходная строка изменена на месте")
	}
	if !next.Table.Rows[1].Selected {
		t.Error("строка 1 должна быть выбрана")
	}
	if next.Table.Rows[0].Selected || next.Table.Rows[2].Selected {
		t.Error("выбраны посторонние строки")
	}

	same := Reduce(next, SelectRow{Index: 99, Selected: true})
	if !reflect.DeepEqual(same.Table.Rows, next.Table.Rows) {
		t.Error("индекс вне диапазона не должен менять строки")
	}
}

func TestReduce_PageLimitAndNavigation(t *testing.T) {
	cfg := eventsConfig(t)
	s := NewState(10)
	s = Reduce(s, LoadTableContent{Content: Project(cfg, ResourceSlice{Total: 95, Limit: 10, Results: results(10)}, s.Table.Pagination, "")})
	if len(s.Table.Pages) != 10 {
		t.Fatalf("ожидалось 10 страниц, получено %d", len(s.Table.Pages))
	}

	s = Reduce(s, GoToPage{Page: 7})
	if s.Table.Pagination.Offset != 7 || s.Table.ActivePage() != 7 {
		t.Errorf("ожидалась страница 7, offset=%d active=%d", s.Table.Pagination.Offset, s.Table.ActivePage())
	}

	s = Reduce(s, SetPageLimit{Limit: 50})
	if s.Table.Pagination.Limit != 50 || s.Table.Pagination.Offset != 0 {
		t.Errorf("после смены размера: limit=%d offset=%d", s.Table.Pagination.Limit, s.Table.Pagination.Offset)
	}
	if len(s.Table.Pages) != 2 {
		t.Errorf("ожидалось 2 страницы, получено %d", len(s.Table.Pages))
	}

	s = Reduce(s, GoToPage{Page: 40})
	if s.Table.ActivePage() != 1 {
		t.Errorf("переход за пределы должен прижиматься к последней странице, активна %d", s.Table.ActivePage())
	}
}

func TestReduce_ActivePagePreservedOnReload(t *testing.T) {
	cfg := eventsConfig(t)
	s := NewState(10)
	s = Reduce(s, LoadTableContent{Content: Project(cfg, ResourceSlice{Total: 100, Limit: 10}, s.Table.Pagination, "")})
	s = Reduce(s, GoToPage{Page: 3})

	s = Reduce(s, LoadTableContent{Content: Project(cfg, ResourceSlice{Total: 80, Limit: 10}, s.Table.Pagination, "")})
	if s.Table.ActivePage() != 3 {
		t.Errorf("активная страница должна сохраниться, получено %d", s.Table.ActivePage())
	}

	s = Reduce(s, LoadTableContent{Content: Project(cfg, ResourceSlice{Total: 15, Limit: 10}, s.Table.Pagination, "")})
	if s.Table.ActivePage() != 1 || s.Table.Pagination.Offset != 1 {
		t.Errorf("ожидалось прижатие к странице 1, получено %d", s.Table.ActivePage())
	}
}

func TestReduce_Sort(t *testing.T) {
	s := NewState(10)
	s = Reduce(s, SetSort{Column: "title"})
	if s.Table.SortBy != "title" || s.Table.Reverse != SortAsc {
		t.Errorf("ожидалось title:ASC, получено %s:%s", s.Table.SortBy, s.Table.Reverse)
	}
	s = Reduce(s, SetSort{Column: "title"})
	if s.Table.Reverse != SortDesc {
		t.Error("повторная сортировка по той же колонке должна менять направление")
	}
	s = Reduce(s, ReverseSort{})
	if s.Table.Reverse != SortAsc {
		t.Error("ReverseSort должен менять направление")
	}
}

func TestReduce_ToggleColumnPersistsInSlice(t *testing.T) {
	cfg := eventsConfig(t)
	s := NewState(10)
	s = Reduce(s, LoadTableContent{Content: Project(cfg, ResourceSlice{}, s.Table.Pagination, "")})

	s = Reduce(s, ToggleColumn{Column: "presenter"})

	slice := s.Slice(tablecfg.ResourceEvents)
	content := Project(cfg, slice, s.Table.Pagination, "")
	for _, c := range content.Columns {
		if c.Name == "presenter" && !c.Deactivated {
			t.Error("скрытая колонка должна пережить повторную проекцию")
		}
	}
	if got, want := len(VisibleColumns(content.Columns)), len(cfg.Columns)-1; got != want {
		t.Errorf("видимых колонок %d, хотели %d", got, want)
	}
}

func TestReduce_StaleResultDropped(t *testing.T) {
	s := NewState(10)
	first, second := NewRequestToken(), NewRequestToken()

	s = Reduce(s, LoadResourceInProgress{Resource: tablecfg.ResourceEvents, Token: first})
	s = Reduce(s, LoadResourceInProgress{Resource: tablecfg.ResourceEvents, Token: second})

	s = Reduce(s, LoadResourceSuccess{Resource: tablecfg.ResourceEvents, Token: second, Envelope: Envelope{Total: 2, Results: results(2)}})
	s = Reduce(s, LoadResourceSuccess{Resource: tablecfg.ResourceEvents, Token: first, Envelope: Envelope{Total: 9, Results: results(9)}})

	slice := s.Slice(tablecfg.ResourceEvents)
	if slice.Total != 2 || len(slice.Results) != 2 {
		t.Errorf("устаревший результат перезаписал новый: total=%d", slice.Total)
	}
	if slice.Loading {
		t.Error("флаг загрузки должен быть снят")
	}
}

func TestReduce_FailureOnlyClearsLoading(t *testing.T) {
	s := NewState(10)
	tok := NewRequestToken()
	s = Reduce(s, LoadResourceSuccess{Resource: tablecfg.ResourceJobs, Token: tok, Envelope: Envelope{Total: 3, Results: results(3)}})

	tok2 := NewRequestToken()
	s = Reduce(s, LoadResourceInProgress{Resource: tablecfg.ResourceJobs, Token: tok2})
	s = Reduce(s, LoadResourceFailure{Resource: tablecfg.ResourceJobs, Token: tok2})

	slice := s.Slice(tablecfg.ResourceJobs)
	if slice.Loading {
		t.Error("флаг загрузки должен быть снят")
	}
	if slice.Total != 3 || len(slice.Results) != 3 {
		t.Error("ошибка не должна трогать результаты")
	}
}

func TestStore_DispatchAndSubscribe(t *testing.T) {
	st := New(NewState(10), testLogger())

	var mu sync.Mutex
	var seen []string
	unsubscribe := st.Subscribe(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Filters.TextFilter)
	})

	st.Dispatch(SetTextFilter{Text: "math"})
	unsubscribe()
	st.Dispatch(SetTextFilter{Text: "physics"})

	if st.State().Filters.TextFilter != "physics" {
		t.Errorf("текстовый фильтр = %q", st.State().Filters.TextFilter)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != "math" {
		t.Errorf("подписчик получил %v, хотели [math]", seen)
	}
}

func TestStore_Run(t *testing.T) {
	st := New(NewState(10), testLogger())
	wantErr := errors.New("сбой")

	err := st.Run(context.Background(), func(ctx context.Context, dispatch DispatchFunc, getState GetStateFunc) error {
		dispatch(SetSort{Column: "title"})
		if getState().Table.SortBy != "title" {
			t.Error("getState должен видеть результат dispatch")
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Run должен вернуть ошибку thunk'а, получено %v", err)
	}
}

func TestStore_NotifyAutoDismiss(t *testing.T) {
	st := New(NewState(10), testLogger())

	id := st.Notify(NotificationWarning, "INVALID_ACL_RULES", "tabs-policies", 20*time.Millisecond)
	if len(st.State().NotificationsFor("tabs-policies")) != 1 {
		t.Fatal("уведомление не добавлено")
	}
	if id == "" {
		t.Error("пустой ID уведомления")
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(st.State().Notifications) > 0 {
		if time.Now().After(deadline) {
			t.Fatal("уведомление не удалено по таймауту")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
