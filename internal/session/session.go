// Пакет session: сессии браузера: у каждой свой контейнер состояния.
//
// Сессии хранятся в LRU-кэше с TTL. Вытеснение сессии отменяет её
// контекст (останавливает фоновые опросы) и, если хранение включено,
// сохраняет профили фильтров и снимок состояния контейнера в PostgreSQL.
// При создании сессии сохранённые данные восстанавливаются.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/castadmin/internal/repository"
	"github.com/bigkaa/castadmin/internal/store"
	"github.com/bigkaa/castadmin/internal/tablecfg"
)

// Namespace: пространство имён снимков состояния.
const Namespace = "castadmin.state"

// CookieName: имя cookie с ID сессии.
const CookieName = "castadmin_session"

// saveTimeout: таймаут сохранения при вытеснении сессии.
const saveTimeout = 5 * time.Second

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oca_sessions_active",
		Help: "Количество активных сессий.",
	})
	sessionSavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "oca_session_saves_total",
		Help: "Сохранения сессий в PostgreSQL по результату.",
	}, []string{"outcome"})
)

// Persistence: хранилище данных сессий. Реализуется *repository.SessionRepository.
type Persistence interface {
	Load(ctx context.Context, namespace, owner string) (*repository.SessionData, error)
	Save(ctx context.Context, namespace, owner string, data repository.SessionData) error
}

// Session: сессия браузера.
type Session struct {
	ID string
	// Owner: ключ сохранения: субъект JWT или ID сессии.
	Owner   string
	Store   *store.Store
	Created time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	values map[string]any
}

// Context возвращает контекст сессии. Отменяется при вытеснении.
func (s *Session) Context() context.Context { return s.ctx }

// Value возвращает объект сессии по ключу, создавая его через create.
// Используется для редакторов и менеджеров, живущих вместе с сессией.
func (s *Session) Value(key string, create func() any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	v := create()
	s.values[key] = v
	return v
}

// Forget удаляет объект сессии.
func (s *Session) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// snapshot: состояние контейнера без профилей (у них своя таблица)
// и без транзиентных уведомлений.
type snapshot struct {
	Filters   store.FilterState                         `json:"tableFilters"`
	Table     store.TableState                          `json:"table"`
	Resources map[tablecfg.Resource]store.ResourceSlice `json:"resources"`
}

// Manager: реестр сессий.
type Manager struct {
	cache    *expirable.LRU[string, *Session]
	pageSize int
	persist  Persistence
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewManager создаёт реестр на size сессий с временем жизни ttl.
// persist может быть nil: тогда сессии не сохраняются.
func NewManager(size int, ttl time.Duration, pageSize int, persist Persistence, logger *slog.Logger) *Manager {
	m := &Manager{
		pageSize: pageSize,
		persist:  persist,
		logger:   logger.With(slog.String("component", "session")),
	}
	m.cache = expirable.NewLRU[string, *Session](size, m.onEvict, ttl)
	return m
}

// onEvict вызывается под блокировкой кэша, поэтому сохранение
// выполняется в отдельной горутине.
func (m *Manager) onEvict(id string, s *Session) {
	s.cancel()
	activeSessions.Dec()
	m.logger.Debug("Сессия завершена", slog.String("session_id", id))
	if m.persist == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := m.Save(ctx, s); err != nil {
			m.logger.Error("Ошибка сохранения сессии",
				slog.String("session_id", id),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Get возвращает сессию и продлевает её жизнь.
func (m *Manager) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return m.cache.Get(id)
}

// Create создаёт сессию владельца owner (пустой owner: ID сессии)
// и восстанавливает сохранённые данные.
func (m *Manager) Create(ctx context.Context, owner string) (*Session, error) {
	id := uuid.NewString()
	if owner == "" {
		owner = id
	}

	state, err := m.restore(ctx, owner)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:      id,
		Owner:   owner,
		Store:   store.New(state, m.logger.With(slog.String("session_id", id))),
		Created: time.Now(),
		ctx:     sctx,
		cancel:  cancel,
		values:  make(map[string]any),
	}
	m.cache.Add(id, s)
	activeSessions.Inc()
	m.logger.Debug("Сессия создана", slog.String("session_id", id), slog.String("owner", owner))
	return s, nil
}

// GetOrCreate возвращает существующую сессию id или создаёт новую.
// created=true, если сессия создана.
func (m *Manager) GetOrCreate(ctx context.Context, id, owner string) (s *Session, created bool, err error) {
	if s, ok := m.Get(id); ok && (owner == "" || s.Owner == owner || s.Owner == s.ID) {
		return s, false, nil
	}
	s, err = m.Create(ctx, owner)
	return s, true, err
}

// Remove завершает сессию.
func (m *Manager) Remove(id string) {
	m.cache.Remove(id)
}

// Len возвращает число активных сессий.
func (m *Manager) Len() int {
	return m.cache.Len()
}

// Close завершает все сессии и ждёт окончания сохранения.
func (m *Manager) Close() {
	m.cache.Purge()
	m.wg.Wait()
}

// Save сохраняет профили и снимок состояния сессии.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if m.persist == nil {
		return nil
	}
	data, err := encode(s.Store.State())
	if err != nil {
		sessionSavesTotal.WithLabelValues("error").Inc()
		return err
	}
	if err := m.persist.Save(ctx, Namespace, s.Owner, data); err != nil {
		sessionSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("сохранение сессии %s: %w", s.ID, err)
	}
	sessionSavesTotal.WithLabelValues("ok").Inc()
	return nil
}

// restore строит начальное состояние с учётом сохранённых данных.
// Ошибка хранилища не мешает созданию сессии.
func (m *Manager) restore(ctx context.Context, owner string) (store.State, error) {
	state := store.NewState(m.pageSize)
	if m.persist == nil {
		return state, nil
	}
	data, err := m.persist.Load(ctx, Namespace, owner)
	if err != nil {
		m.logger.Warn("Не удалось восстановить сессию",
			slog.String("owner", owner),
			slog.String("error", err.Error()),
		)
		return state, nil
	}
	return decode(state, data)
}

func encode(s store.State) (repository.SessionData, error) {
	var data repository.SessionData
	resources := make([]tablecfg.Resource, 0, len(s.Profiles.Profiles))
	for r := range s.Profiles.Profiles {
		resources = append(resources, r)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i] < resources[j] })
	for _, r := range resources {
		for _, p := range s.Profiles.List(r) {
			filters, err := json.Marshal(p.FilterMap)
			if err != nil {
				return data, fmt.Errorf("кодирование профиля %s: %w", p.Name, err)
			}
			data.Profiles = append(data.Profiles, repository.FilterProfile{
				Resource:    string(r),
				Name:        p.Name,
				Description: p.Description,
				FilterMap:   filters,
			})
		}
	}

	snap := snapshot{
		Filters:   s.Filters,
		Table:     s.Table,
		Resources: s.Resources,
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return data, fmt.Errorf("кодирование снимка: %w", err)
	}
	data.State = raw
	return data, nil
}

func decode(state store.State, data *repository.SessionData) (store.State, error) {
	profiles := make([]store.FilterProfile, 0, len(data.Profiles))
	for _, p := range data.Profiles {
		var filters []store.Filter
		if len(p.FilterMap) > 0 {
			if err := json.Unmarshal(p.FilterMap, &filters); err != nil {
				return state, fmt.Errorf("разбор профиля %s: %w", p.Name, err)
			}
		}
		profiles = append(profiles, store.FilterProfile{
			Name:        p.Name,
			Description: p.Description,
			FilterMap:   filters,
			Resource:    tablecfg.Resource(p.Resource),
		})
	}
	state = store.Reduce(state, store.LoadProfiles{Profiles: profiles})

	if data.State == nil {
		return state, nil
	}
	var snap snapshot
	if err := json.Unmarshal(data.State, &snap); err != nil {
		return state, fmt.Errorf("разбор снимка: %w", err)
	}
	if snap.Filters.Resource != "" {
		state.Filters = snap.Filters
	}
	state.Table = restoreTable(state.Table, snap.Table)
	for r, slice := range snap.Resources {
		// Токены запросов живут в пределах процесса: восстановленный срез
		// считается незагруженным, и таблица запросит данные заново.
		slice.Loading = false
		slice.Generation = 0
		state.Resources[r] = slice
	}
	return state, nil
}

// restoreTable переносит сохранённую таблицу, подставляя значения
// по умолчанию для пустых полей.
func restoreTable(def, saved store.TableState) store.TableState {
	if saved.Pagination.Limit <= 0 {
		saved.Pagination.Limit = def.Pagination.Limit
	}
	if saved.Pagination.DirectAccessibleNo <= 0 {
		saved.Pagination.DirectAccessibleNo = def.Pagination.DirectAccessibleNo
	}
	if saved.Reverse == "" {
		saved.Reverse = def.Reverse
	}
	if len(saved.Pages) == 0 {
		saved.Pages = def.Pages
	}
	return saved
}
