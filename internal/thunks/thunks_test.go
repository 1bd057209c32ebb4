package thunks

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/bigkaa/castadmin/internal/occlient"
	"github.com/bigkaa/castadmin/internal/store"
	"github.com/bigkaa/castadmin/internal/tablecfg"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockBackend: подменяемый backend.
type mockBackend struct {
	mu      sync.Mutex
	list    func(path string, query url.Values) (*occlient.ListResponse, error)
	filters    []occlient.FilterDefinition
	filtersErr error
	queries    []url.Values
	paths      []string
}

func (m *mockBackend) List(ctx context.Context, path string, query url.Values) (*occlient.ListResponse, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.paths = append(m.paths, path)
	m.mu.Unlock()
	return m.list(path, query)
}

func (m *mockBackend) Filters(ctx context.Context, path string) ([]occlient.FilterDefinition, error) {
	return m.filters, m.filtersErr
}

func rows(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{"id": i, "start_date": "2026-01-02T10:00:00Z"}
	}
	return out
}

func TestFetchResource_Success(t *testing.T) {
	backend := &mockBackend{list: func(path string, q url.Values) (*occlient.ListResponse, error) {
		if path != "/admin-ng/event/events.json" {
			t.Errorf("неожиданный путь %s", path)
		}
		return &occlient.ListResponse{Total: 12000, Count: 12, Limit: 0, Offset: 0, Results: rows(12)}, nil
	}}
	st := store.New(store.NewState(10), testLogger())
	loader := NewLoader(backend, testLogger())

	if err := st.Run(context.Background(), loader.LoadResourceIntoTable(tablecfg.ResourceEvents)); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	s := st.State()
	slice := s.Slice(tablecfg.ResourceEvents)
	if slice.Loading || slice.Total != 12000 || len(slice.Results) != 12 {
		t.Errorf("неверный срез: loading=%v total=%d results=%d", slice.Loading, slice.Total, len(slice.Results))
	}
	if len(s.Table.Pages) != 1 {
		t.Errorf("ожидалась 1 страница, получено %d", len(s.Table.Pages))
	}
	if len(s.Table.Rows) != 12 {
		t.Fatalf("ожидалось 12 строк, получено %d", len(s.Table.Rows))
	}
	for _, r := range s.Table.Rows {
		if r.Selected {
			t.Error("строка выбрана после загрузки")
		}
		if r.Values["date"] != "2026-01-02T10:00:00Z" {
			t.Errorf("поле date не заполнено: %v", r.Values["date"])
		}
	}
}

func TestFetchResource_FailureOnlyClearsLoading(t *testing.T) {
	backend := &mockBackend{list: func(string, url.Values) (*occlient.ListResponse, error) {
		return nil, errors.New("502")
	}}
	st := store.New(store.NewState(10), testLogger())
	loader := NewLoader(backend, testLogger())

	if err := st.Run(context.Background(), loader.FetchResource(tablecfg.ResourceJobs, false, false)); err != nil {
		t.Fatalf("ошибка backend'а не должна пробрасываться: %v", err)
	}
	slice := st.State().Slice(tablecfg.ResourceJobs)
	if slice.Loading {
		t.Error("флаг загрузки не снят")
	}
	if len(slice.Results) != 0 {
		t.Error("после ошибки результатов быть не должно")
	}
}

func TestFetchResource_QueryParams(t *testing.T) {
	backend := &mockBackend{list: func(string, url.Values) (*occlient.ListResponse, error) {
		return &occlient.ListResponse{Results: rows(0)}, nil
	}}
	st := store.New(store.NewState(25), testLogger())
	st.Dispatch(store.LoadFilters{Resource: tablecfg.ResourceEvents, Filters: []store.Filter{{Name: "series", Type: store.FilterSelect}}})
	st.Dispatch(store.SetFilterValue{Name: "series", Value: "s-1"})
	st.Dispatch(store.SetSort{Column: "title"})
	loader := NewLoader(backend, testLogger())

	_ = st.Run(context.Background(), loader.FetchResource(tablecfg.ResourceEvents, true, true))
	_ = st.Run(context.Background(), loader.FetchResource(tablecfg.ResourceEvents, false, false))

	if len(backend.queries) != 2 {
		t.Fatalf("ожидалось 2 запроса, получено %d", len(backend.queries))
	}
	q := backend.queries[0]
	if q.Get("filter") != "series:s-1" || q.Get("sort") != "title:ASC" || q.Get("limit") != "25" {
		t.Errorf("неверные параметры: %v", q)
	}
	if backend.queries[1].Has("filter") || backend.queries[1].Has("sort") {
		t.Errorf("фильтры и сортировка не должны передаваться: %v", backend.queries[1])
	}
}

func TestFetchResource_StaleResponseDropped(t *testing.T) {
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	backend := &mockBackend{list: func(string, url.Values) (*occlient.ListResponse, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			<-release
			return &occlient.ListResponse{Total: 1, Results: rows(1)}, nil
		}
		return &occlient.ListResponse{Total: 2, Results: rows(2)}, nil
	}}
	st := store.New(store.NewState(10), testLogger())
	loader := NewLoader(backend, testLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = st.Run(context.Background(), loader.FetchResource(tablecfg.ResourceServers, false, false))
	}()

	// Ждём, пока первый запрос зарегистрирует свой токен.
	for {
		mu.Lock()
		n := calls
		mu.Unlock()
		if n == 1 {
			break
		}
	}
	_ = st.Run(context.Background(), loader.FetchResource(tablecfg.ResourceServers, false, false))
	close(release)
	<-done

	if got := st.State().Slice(tablecfg.ResourceServers).Total; got != 2 {
		t.Errorf("медленный устаревший ответ перезаписал новый: total=%d", got)
	}
}

func TestFetchResource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := &mockBackend{list: func(string, url.Values) (*occlient.ListResponse, error) {
		cancel()
		return &occlient.ListResponse{Total: 5, Results: rows(5)}, nil
	}}
	st := store.New(store.NewState(10), testLogger())
	loader := NewLoader(backend, testLogger())

	err := st.Run(ctx, loader.FetchResource(tablecfg.ResourceJobs, false, false))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ожидалась context.Canceled, получена %v", err)
	}
	if st.State().Slice(tablecfg.ResourceJobs).Total != 0 {
		t.Error("результат не должен попадать в состояние после отмены")
	}
}

func TestFetchFilters(t *testing.T) {
	backend := &mockBackend{filters: []occlient.FilterDefinition{
		{Name: "status", Label: "STATUS", Type: "select", Options: []occlient.FilterOption{{Value: "a", Label: "A"}}},
		{Name: "startDate", Label: "START", Type: "period"},
	}}
	st := store.New(store.NewState(10), testLogger())
	loader := NewLoader(backend, testLogger())

	if err := st.Run(context.Background(), loader.FetchFilters(tablecfg.ResourceEvents)); err != nil {
		t.Fatal(err)
	}
	f := st.State().Filters
	if f.Resource != tablecfg.ResourceEvents || len(f.Filters) != 2 {
		t.Fatalf("фильтры не загружены: %+v", f)
	}
	if f.Filters[1].Type != store.FilterPeriod || len(f.Filters[0].Options) != 1 {
		t.Errorf("неверное преобразование фильтров: %+v", f.Filters)
	}
}

func TestOpenTable_FiltersFailureDropsPreviousFilters(t *testing.T) {
	backend := &mockBackend{
		list: func(string, url.Values) (*occlient.ListResponse, error) {
			return &occlient.ListResponse{Total: 1, Count: 1, Limit: 10, Results: rows(1)}, nil
		},
		filters: []occlient.FilterDefinition{
			{Name: "status", Label: "STATUS", Type: "select"},
		},
	}
	st := store.New(store.NewState(10), testLogger())
	loader := NewLoader(backend, testLogger())

	if err := st.Run(context.Background(), loader.OpenTable(tablecfg.ResourceEvents)); err != nil {
		t.Fatal(err)
	}
	st.Dispatch(store.SetFilterValue{Name: "status", Value: "EVENTS.EVENTS.STATUS.PROCESSED"})

	backend.filtersErr = errors.New("filters.json недоступен")
	if err := st.Run(context.Background(), loader.OpenTable(tablecfg.ResourceSeries)); err != nil {
		t.Fatal(err)
	}

	f := st.State().Filters
	if f.Resource != tablecfg.ResourceSeries || len(f.Filters) != 0 {
		t.Errorf("фильтры после ошибки: resource=%s filters=%d", f.Resource, len(f.Filters))
	}
	last := len(backend.paths) - 1
	if backend.paths[last] != "/admin-ng/series/series.json" {
		t.Fatalf("последний запрос к %s", backend.paths[last])
	}
	if q := backend.queries[last].Get("filter"); q != "" {
		t.Errorf("в запрос серий попал фильтр событий: %q", q)
	}
}

func TestTransform_Publications(t *testing.T) {
	in := []map[string]any{{
		"start_date":   "x",
		"publications": []any{map[string]any{"id": "engage"}},
	}}
	out := Transform(tablecfg.ResourceEvents, in)

	pub := out[0]["publications"].([]any)[0].(map[string]any)
	if pub["enabled"] != true || pub["hiding"] != false {
		t.Errorf("публикация не дополнена: %v", pub)
	}
	if _, ok := in[0]["date"]; ok {
		t.Error("исходная строка изменена")
	}
	if _, ok := in[0]["publications"].([]any)[0].(map[string]any)["enabled"]; ok {
		t.Error("исходная публикация изменена")
	}

	jobs := Transform(tablecfg.ResourceJobs, []map[string]any{{"start_date": "x"}})
	if _, ok := jobs[0]["date"]; ok {
		t.Error("поле date добавляется только событиям")
	}
}
