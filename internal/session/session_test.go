package session

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/castadmin/internal/repository"
	"github.com/bigkaa/castadmin/internal/store"
	"github.com/bigkaa/castadmin/internal/tablecfg"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// memPersistence: хранилище сессий в памяти.
type memPersistence struct {
	mu      sync.Mutex
	data    map[string]repository.SessionData
	saves   int
	loadErr error
}

func newMemPersistence() *memPersistence {
	return &memPersistence{data: make(map[string]repository.SessionData)}
}

func (p *memPersistence) Load(_ context.Context, namespace, owner string) (*repository.SessionData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	d := p.data[namespace+"/"+owner]
	return &d, nil
}

func (p *memPersistence) Save(_ context.Context, namespace, owner string, data repository.SessionData) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[namespace+"/"+owner] = data
	p.saves++
	return nil
}

func (p *memPersistence) saveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

func TestCreateAndGet(t *testing.T) {
	m := NewManager(10, time.Hour, 25, nil, testLogger())
	defer m.Close()

	s, err := m.Create(context.Background(), "")
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if s.Owner != s.ID {
		t.Errorf("без владельца Owner должен совпадать с ID: %q != %q", s.Owner, s.ID)
	}
	if limit := s.Store.State().Table.Pagination.Limit; limit != 25 {
		t.Errorf("размер страницы = %d, ожидался 25", limit)
	}

	got, ok := m.Get(s.ID)
	if !ok || got != s {
		t.Fatal("Get() не вернул созданную сессию")
	}
	if _, ok := m.Get(""); ok {
		t.Error("Get(\"\") должен возвращать false")
	}

	again, created, err := m.GetOrCreate(context.Background(), s.ID, "")
	if err != nil || created || again != s {
		t.Errorf("GetOrCreate() существующей: created=%v err=%v", created, err)
	}

	other, created, err := m.GetOrCreate(context.Background(), "unknown", "")
	if err != nil || !created || other == s {
		t.Errorf("GetOrCreate() неизвестной: created=%v err=%v", created, err)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, ожидалось 2", m.Len())
	}
}

func TestGetOrCreate_OwnerMismatch(t *testing.T) {
	m := NewManager(10, time.Hour, 10, nil, testLogger())
	defer m.Close()

	s, _ := m.Create(context.Background(), "alice")
	other, created, err := m.GetOrCreate(context.Background(), s.ID, "bob")
	if err != nil {
		t.Fatalf("GetOrCreate() ошибка: %v", err)
	}
	if !created || other.Owner != "bob" {
		t.Errorf("сессия чужого владельца не должна переиспользоваться: created=%v owner=%q", created, other.Owner)
	}
}

func TestEvictionCancelsContext(t *testing.T) {
	m := NewManager(1, time.Hour, 10, nil, testLogger())
	defer m.Close()

	first, _ := m.Create(context.Background(), "")
	if _, err := m.Create(context.Background(), ""); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	select {
	case <-first.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("контекст вытесненной сессии не отменён")
	}
	if _, ok := m.Get(first.ID); ok {
		t.Error("вытесненная сессия осталась в реестре")
	}
}

func TestValue(t *testing.T) {
	m := NewManager(1, time.Hour, 10, nil, testLogger())
	defer m.Close()
	s, _ := m.Create(context.Background(), "")

	calls := 0
	create := func() any { calls++; return calls }
	if v := s.Value("editor", create); v != 1 {
		t.Errorf("Value() = %v, ожидалось 1", v)
	}
	if v := s.Value("editor", create); v != 1 || calls != 1 {
		t.Errorf("повторный Value() должен вернуть тот же объект: %v (вызовов %d)", v, calls)
	}
	s.Forget("editor")
	if v := s.Value("editor", create); v != 2 {
		t.Errorf("после Forget() Value() = %v, ожидалось 2", v)
	}
}

func TestSaveAndRestore(t *testing.T) {
	persist := newMemPersistence()
	m := NewManager(10, time.Hour, 10, persist, testLogger())

	s, err := m.Create(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	s.Store.Dispatch(store.LoadProfiles{Profiles: []store.FilterProfile{{
		Name:        "Запланированные",
		Description: "только будущие",
		Resource:    tablecfg.ResourceEvents,
		FilterMap:   []store.Filter{{Name: "status", Type: store.FilterSelect, Value: "SCHEDULED"}},
	}}})
	s.Store.Dispatch(store.SetPageLimit{Limit: 50})
	s.Store.Dispatch(store.SetSort{Column: "title"})
	s.Store.Dispatch(store.LoadTableContent{Content: store.TableContent{
		Resource: tablecfg.ResourceEvents,
		Columns: []tablecfg.Column{
			{Name: "title", Label: "EVENTS.EVENTS.TABLE.TITLE"},
			{Name: "presenter", Label: "EVENTS.EVENTS.TABLE.PRESENTERS"},
		},
	}})
	s.Store.Dispatch(store.ToggleColumn{Column: "presenter"})
	s.Store.Dispatch(store.LoadFilters{Resource: tablecfg.ResourceEvents, Filters: []store.Filter{
		{Name: "status", Type: store.FilterSelect},
		{Name: "startDate", Type: store.FilterPeriod},
	}})
	s.Store.Dispatch(store.SetFilterValue{Name: "status", Value: "EVENTS.EVENTS.STATUS.PROCESSED"})
	s.Store.Dispatch(store.SetTextFilter{Text: "лекция"})
	s.Store.Dispatch(store.SelectFilter{Name: "startDate"})
	s.Store.Dispatch(store.LoadResourceInProgress{Resource: tablecfg.ResourceEvents, Token: store.NewRequestToken()})

	// Close вытесняет сессию и дожидается сохранения.
	m.Close()
	if persist.saveCount() != 1 {
		t.Fatalf("ожидалось 1 сохранение, выполнено %d", persist.saveCount())
	}

	m2 := NewManager(10, time.Hour, 10, persist, testLogger())
	defer m2.Close()
	restored, err := m2.Create(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Create() после сохранения: %v", err)
	}
	st := restored.Store.State()

	p, ok := st.Profiles.Get(tablecfg.ResourceEvents, "Запланированные")
	if !ok {
		t.Fatal("профиль не восстановлен")
	}
	if p.Description != "только будущие" || len(p.FilterMap) != 1 || p.FilterMap[0].Value != "SCHEDULED" {
		t.Errorf("профиль восстановлен неверно: %+v", p)
	}
	if st.Table.Pagination.Limit != 50 {
		t.Errorf("размер страницы = %d, ожидался 50", st.Table.Pagination.Limit)
	}
	if st.Table.SortBy != "title" {
		t.Errorf("сортировка = %q, ожидалась title", st.Table.SortBy)
	}
	cols := st.Slice(tablecfg.ResourceEvents).Columns
	if len(cols) != 2 || cols[0].Deactivated || !cols[1].Deactivated {
		t.Errorf("колонки восстановлены неверно: %+v", cols)
	}

	f := st.Filters
	if f.Resource != tablecfg.ResourceEvents || f.TextFilter != "лекция" || f.SelectedFilter != "startDate" {
		t.Errorf("состояние фильтров восстановлено неверно: %+v", f)
	}
	if status, ok := f.Find("status"); !ok || status.Value != "EVENTS.EVENTS.STATUS.PROCESSED" {
		t.Errorf("значение фильтра status не восстановлено: %+v", status)
	}
	if st.Table.Resource != tablecfg.ResourceEvents {
		t.Errorf("ресурс таблицы = %q", st.Table.Resource)
	}
	if slice := st.Slice(tablecfg.ResourceEvents); slice.Loading || slice.Generation != 0 {
		t.Errorf("срез должен требовать новой загрузки: loading=%v generation=%d", slice.Loading, slice.Generation)
	}
}

func TestRestore_LoadErrorIgnored(t *testing.T) {
	persist := newMemPersistence()
	persist.loadErr = errors.New("база недоступна")
	m := NewManager(10, time.Hour, 15, persist, testLogger())
	defer m.Close()

	s, err := m.Create(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ошибка хранилища не должна мешать созданию сессии: %v", err)
	}
	if s.Store.State().Table.Pagination.Limit != 15 {
		t.Errorf("ожидалось начальное состояние")
	}
}

func TestRestore_CorruptSnapshot(t *testing.T) {
	persist := newMemPersistence()
	persist.data[Namespace+"/alice"] = repository.SessionData{State: []byte(`{not json`)}
	m := NewManager(10, time.Hour, 10, persist, testLogger())
	defer m.Close()

	if _, err := m.Create(context.Background(), "alice"); err == nil {
		t.Error("ожидалась ошибка разбора снимка")
	}
}
