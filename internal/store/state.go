// Пакет store: явный контейнер состояния консоли администратора.
// Всё изменяемое состояние сессии хранится в одной структуре State и меняется
// только через Dispatch: чистая функция Reduce вычисляет новое состояние
// из старого и действия. Асинхронная работа (запросы к backend'у) выполняется
// thunk'ами, которые сами диспатчат действия.
package store

import (
	"time"

	"github.com/bigkaa/castadmin/internal/tablecfg"
)

// Количество страниц, доступных напрямую по обе стороны от активной.
const DefaultDirectAccessibleNo = 3

// FilterType: тип фильтра.
type FilterType string

const (
	FilterSelect FilterType = "select"
	FilterPeriod FilterType = "period"
)

// FilterOption: вариант значения фильтра типа select.
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Filter: определение фильтра и его текущее значение.
// Для period значение хранится в синтаксисе backend'а: "start/end" (RFC3339).
type Filter struct {
	Name         string         `json:"name"`
	Label        string         `json:"label"`
	Type         FilterType     `json:"type"`
	Translatable bool           `json:"translatable,omitempty"`
	Options      []FilterOption `json:"options,omitempty"`
	Value        string         `json:"value"`
}

// FilterState: активные фильтры текущей таблицы.
type FilterState struct {
	Resource       tablecfg.Resource `json:"resource"`
	Filters        []Filter          `json:"filters"`
	TextFilter     string            `json:"textFilter"`
	SelectedFilter string            `json:"selectedFilter"`
	StartDate      time.Time         `json:"startDate"`
	EndDate        time.Time         `json:"endDate"`
}

// FilterProfile: именованный набор значений фильтров для ресурса.
type FilterProfile struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	FilterMap   []Filter          `json:"filterMap"`
	Resource    tablecfg.Resource `json:"resource"`
}

// ProfileState: профили фильтров, ключ (ресурс, имя).
type ProfileState struct {
	Profiles  map[tablecfg.Resource]map[string]FilterProfile `json:"profiles"`
	ValidName bool                                           `json:"validName"`
	// Editing: имя редактируемого профиля (пусто: редактирования нет).
	Editing string `json:"editing"`
}

// Envelope: нормализованный ответ списочного endpoint'а.
type Envelope struct {
	Total   int              `json:"total"`
	Count   int              `json:"count"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
	Results []map[string]any `json:"results"`
}

// ResourceSlice: загруженные данные одного ресурса.
type ResourceSlice struct {
	Loading bool `json:"isLoading"`
	// Generation: токен самого нового запроса. Результаты с меньшим
	// токеном отбрасываются.
	Generation uint64           `json:"generation"`
	Total      int              `json:"total"`
	Count      int              `json:"count"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
	Results    []map[string]any `json:"results"`
	// Columns: сохранённое состояние колонок (флаги deactivated).
	Columns []tablecfg.Column `json:"columns,omitempty"`
}

// Row: строка таблицы. Values не изменяются после создания,
// выбор строки создаёт новое значение Row.
type Row struct {
	Values   map[string]any `json:"values"`
	Selected bool           `json:"selected"`
}

// Page: описание страницы. Number начинается с нуля, Label: с единицы.
type Page struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// Pagination: курсор пагинации. Offset: индекс страницы, а не записи.
type Pagination struct {
	Limit              int `json:"limit"`
	Offset             int `json:"offset"`
	TotalItems         int `json:"totalItems"`
	DirectAccessibleNo int `json:"directAccessibleNo"`
}

// SortDirection: направление сортировки.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// TableState: отображаемая проекция таблицы.
type TableState struct {
	Resource    tablecfg.Resource `json:"resource"`
	Rows        []Row             `json:"rows"`
	Columns     []tablecfg.Column `json:"columns"`
	MultiSelect bool              `json:"multiSelect"`
	Pages       []Page            `json:"pages"`
	SortBy      string            `json:"sortBy"`
	Reverse     SortDirection     `json:"reverse"`
	Pagination  Pagination        `json:"pagination"`
}

// NotificationType: уровень уведомления.
type NotificationType string

const (
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
)

// Notification: транзиентное уведомление. Key: ключ перевода,
// Context: область отображения (например, "tabs-policies").
type Notification struct {
	ID       string           `json:"id"`
	Type     NotificationType `json:"type"`
	Key      string           `json:"key"`
	Context  string           `json:"context"`
	Duration time.Duration    `json:"duration"`
}

// State: единственный источник истины для одной сессии.
type State struct {
	Filters       FilterState                         `json:"tableFilters"`
	Profiles      ProfileState                        `json:"tableFilterProfiles"`
	Table         TableState                          `json:"table"`
	Resources     map[tablecfg.Resource]ResourceSlice `json:"resources"`
	Notifications []Notification                      `json:"notifications"`
}

// NewState возвращает начальное состояние с размером страницы pageSize.
func NewState(pageSize int) State {
	return State{
		Profiles: ProfileState{
			Profiles:  map[tablecfg.Resource]map[string]FilterProfile{},
			ValidName: true,
		},
		Table: TableState{
			Reverse: SortAsc,
			Pages:   []Page{{Number: 0, Label: "1", Active: true}},
			Pagination: Pagination{
				Limit:              pageSize,
				DirectAccessibleNo: DefaultDirectAccessibleNo,
			},
		},
		Resources: map[tablecfg.Resource]ResourceSlice{},
	}
}

// Slice возвращает срез ресурса (нулевое значение, если он не загружался).
func (s State) Slice(r tablecfg.Resource) ResourceSlice {
	return s.Resources[r]
}

// SelectedRows возвращает выбранные строки таблицы.
func (t TableState) SelectedRows() []Row {
	var out []Row
	for _, r := range t.Rows {
		if r.Selected {
			out = append(out, r)
		}
	}
	return out
}

// ActivePage возвращает индекс активной страницы.
func (t TableState) ActivePage() int {
	for _, p := range t.Pages {
		if p.Active {
			return p.Number
		}
	}
	return 0
}

// DirectlyAccessible возвращает окно страниц вокруг активной,
// не шире DirectAccessibleNo в каждую сторону.
func (t TableState) DirectlyAccessible() []Page {
	n := t.Pagination.DirectAccessibleNo
	if n <= 0 {
		n = DefaultDirectAccessibleNo
	}
	active := t.ActivePage()
	var out []Page
	for _, p := range t.Pages {
		if p.Number >= active-n && p.Number <= active+n {
			out = append(out, p)
		}
	}
	return out
}
