package store

import (
	"time"

	"github.com/bigkaa/castadmin/internal/tablecfg"
)

// ActionType: тег действия. Reduce выбирает обработчик по типу значения,
// ActionType используется в логах и метриках.
type ActionType int

const (
	ActionUnknown ActionType = iota

	// Фильтры
	ActionLoadFilters
	ActionSetFilterValue
	ActionRemoveFilter
	ActionResetFilters
	ActionLoadProfile
	ActionSetTextFilter
	ActionSetDateRange
	ActionSelectFilter

	// Профили фильтров
	ActionLoadProfiles
	ActionCreateProfile
	ActionEditProfile
	ActionRemoveProfile
	ActionCancelProfileEdit
	ActionStartProfileEdit

	// Срезы ресурсов
	ActionLoadResourceInProgress
	ActionLoadResourceSuccess
	ActionLoadResourceFailure

	// Таблица
	ActionLoadTableContent
	ActionSelectRow
	ActionSelectAll
	ActionDeselectAll
	ActionSetSort
	ActionReverseSort
	ActionSetPageLimit
	ActionGoToPage
	ActionToggleColumn

	// Уведомления
	ActionAddNotification
	ActionRemoveNotification

	actionTypeCount
)

var actionTypeNames = [...]string{
	ActionUnknown:                "UNKNOWN",
	ActionLoadFilters:            "LOAD_FILTERS",
	ActionSetFilterValue:         "EDIT_FILTER_VALUE",
	ActionRemoveFilter:           "REMOVE_FILTER",
	ActionResetFilters:           "RESET_FILTER_VALUES",
	ActionLoadProfile:            "LOAD_FILTER_PROFILE",
	ActionSetTextFilter:          "EDIT_TEXT_FILTER",
	ActionSetDateRange:           "SET_DATE_RANGE",
	ActionSelectFilter:           "EDIT_SELECTED_FILTER",
	ActionLoadProfiles:           "LOAD_FILTER_PROFILES",
	ActionCreateProfile:          "CREATE_FILTER_PROFILE",
	ActionEditProfile:            "EDIT_FILTER_PROFILE",
	ActionRemoveProfile:          "REMOVE_FILTER_PROFILE",
	ActionCancelProfileEdit:      "CANCEL_EDITING_FILTER_PROFILE",
	ActionStartProfileEdit:       "START_EDITING_FILTER_PROFILE",
	ActionLoadResourceInProgress: "LOAD_RESOURCE_IN_PROGRESS",
	ActionLoadResourceSuccess:    "LOAD_RESOURCE_SUCCESS",
	ActionLoadResourceFailure:    "LOAD_RESOURCE_FAILURE",
	ActionLoadTableContent:       "LOAD_RESOURCE_INTO_TABLE",
	ActionSelectRow:              "SELECT_ROW",
	ActionSelectAll:              "SELECT_ALL",
	ActionDeselectAll:            "DESELECT_ALL",
	ActionSetSort:                "SET_SORT_BY",
	ActionReverseSort:            "REVERSE_TABLE",
	ActionSetPageLimit:           "UPDATE_PAGESIZE",
	ActionGoToPage:               "SET_OFFSET",
	ActionToggleColumn:           "TOGGLE_COLUMN",
	ActionAddNotification:        "CREATE_NOTIFICATION",
	ActionRemoveNotification:     "REMOVE_NOTIFICATION",
}

// String возвращает имя типа действия.
func (t ActionType) String() string {
	if t < 0 || t >= actionTypeCount {
		return "UNKNOWN"
	}
	return actionTypeNames[t]
}

// Action: действие, обрабатываемое Reduce. Интерфейс закрыт:
// реализации существуют только в этом пакете.
type Action interface {
	Type() ActionType
	action()
}

// --- Фильтры ---

// LoadFilters заменяет определения фильтров при переключении таблицы.
type LoadFilters struct {
	Resource tablecfg.Resource
	Filters  []Filter
}

// SetFilterValue задаёт значение одного фильтра.
type SetFilterValue struct {
	Name  string
	Value string
}

// RemoveFilter сбрасывает значение одного фильтра.
type RemoveFilter struct {
	Name string
}

// ResetFilters сбрасывает значения всех фильтров и текстовый фильтр.
type ResetFilters struct{}

// LoadProfile целиком заменяет набор фильтров содержимым профиля.
type LoadProfile struct {
	FilterMap []Filter
}

// SetTextFilter задаёт строку полнотекстового поиска.
type SetTextFilter struct {
	Text string
}

// SetDateRange задаёт период для выбранного фильтра типа period.
type SetDateRange struct {
	Start time.Time
	End   time.Time
}

// SelectFilter выбирает фильтр, который редактируется в панели фильтров.
type SelectFilter struct {
	Name string
}

// --- Профили ---

// LoadProfiles загружает сохранённые профили (например, из БД).
type LoadProfiles struct {
	Profiles []FilterProfile
}

// CreateProfile добавляет профиль. Дубликат имени в пределах ресурса
// отклоняется: ValidName=false, список не меняется.
type CreateProfile struct {
	Profile FilterProfile
}

// EditProfile заменяет профиль OriginalName новым содержимым.
type EditProfile struct {
	OriginalName string
	Profile      FilterProfile
}

// RemoveProfile удаляет профиль.
type RemoveProfile struct {
	Resource tablecfg.Resource
	Name     string
}

// CancelProfileEdit отменяет редактирование профиля.
type CancelProfileEdit struct{}

// StartProfileEdit открывает профиль на редактирование.
// Неизвестный профиль игнорируется.
type StartProfileEdit struct {
	Resource tablecfg.Resource
	Name     string
}

// --- Ресурсы ---

// LoadResourceInProgress отмечает начало загрузки ресурса запросом Token.
type LoadResourceInProgress struct {
	Resource tablecfg.Resource
	Token    uint64
}

// LoadResourceSuccess передаёт нормализованный ответ backend'а.
type LoadResourceSuccess struct {
	Resource tablecfg.Resource
	Token    uint64
	Envelope Envelope
}

// LoadResourceFailure только снимает флаг загрузки.
type LoadResourceFailure struct {
	Resource tablecfg.Resource
	Token    uint64
}

// --- Таблица ---

// LoadTableContent устанавливает результат проекции как состояние таблицы.
type LoadTableContent struct {
	Content TableContent
}

// SelectRow переключает выбор строки с индексом Index.
type SelectRow struct {
	Index    int
	Selected bool
}

// SelectAll выбирает все загруженные строки.
type SelectAll struct{}

// DeselectAll снимает выбор со всех загруженных строк.
type DeselectAll struct{}

// SetSort задаёт колонку сортировки.
type SetSort struct {
	Column string
}

// ReverseSort меняет направление сортировки.
type ReverseSort struct{}

// SetPageLimit задаёт размер страницы и возвращает на первую страницу.
type SetPageLimit struct {
	Limit int
}

// GoToPage делает активной страницу с индексом Page.
type GoToPage struct {
	Page int
}

// ToggleColumn скрывает или показывает колонку.
type ToggleColumn struct {
	Column string
}

// --- Уведомления ---

// AddNotification добавляет уведомление.
type AddNotification struct {
	Notification Notification
}

// RemoveNotification удаляет уведомление по ID.
type RemoveNotification struct {
	ID string
}

func (LoadFilters) Type() ActionType            { return ActionLoadFilters }
func (SetFilterValue) Type() ActionType         { return ActionSetFilterValue }
func (RemoveFilter) Type() ActionType           { return ActionRemoveFilter }
func (ResetFilters) Type() ActionType           { return ActionResetFilters }
func (LoadProfile) Type() ActionType            { return ActionLoadProfile }
func (SetTextFilter) Type() ActionType          { return ActionSetTextFilter }
func (SetDateRange) Type() ActionType           { return ActionSetDateRange }
func (SelectFilter) Type() ActionType           { return ActionSelectFilter }
func (LoadProfiles) Type() ActionType           { return ActionLoadProfiles }
func (CreateProfile) Type() ActionType          { return ActionCreateProfile }
func (EditProfile) Type() ActionType            { return ActionEditProfile }
func (RemoveProfile) Type() ActionType          { return ActionRemoveProfile }
func (CancelProfileEdit) Type() ActionType      { return ActionCancelProfileEdit }
func (StartProfileEdit) Type() ActionType       { return ActionStartProfileEdit }
func (LoadResourceInProgress) Type() ActionType { return ActionLoadResourceInProgress }
func (LoadResourceSuccess) Type() ActionType    { return ActionLoadResourceSuccess }
func (LoadResourceFailure) Type() ActionType    { return ActionLoadResourceFailure }
func (LoadTableContent) Type() ActionType       { return ActionLoadTableContent }
func (SelectRow) Type() ActionType              { return ActionSelectRow }
func (SelectAll) Type() ActionType              { return ActionSelectAll }
func (DeselectAll) Type() ActionType            { return ActionDeselectAll }
func (SetSort) Type() ActionType                { return ActionSetSort }
func (ReverseSort) Type() ActionType            { return ActionReverseSort }
func (SetPageLimit) Type() ActionType           { return ActionSetPageLimit }
func (GoToPage) Type() ActionType               { return ActionGoToPage }
func (ToggleColumn) Type() ActionType           { return ActionToggleColumn }
func (AddNotification) Type() ActionType        { return ActionAddNotification }
func (RemoveNotification) Type() ActionType     { return ActionRemoveNotification }

func (LoadFilters) action()            {}
func (SetFilterValue) action()         {}
func (RemoveFilter) action()           {}
func (ResetFilters) action()           {}
func (LoadProfile) action()            {}
func (SetTextFilter) action()          {}
func (SetDateRange) action()           {}
func (SelectFilter) action()           {}
func (LoadProfiles) action()           {}
func (CreateProfile) action()          {}
func (EditProfile) action()            {}
func (RemoveProfile) action()          {}
func (CancelProfileEdit) action()      {}
func (StartProfileEdit) action()       {}
func (LoadResourceInProgress) action() {}
func (LoadResourceSuccess) action()    {}
func (LoadResourceFailure) action()    {}
func (LoadTableContent) action()       {}
func (SelectRow) action()              {}
func (SelectAll) action()              {}
func (DeselectAll) action()            {}
func (SetSort) action()                {}
func (ReverseSort) action()            {}
func (SetPageLimit) action()           {}
func (GoToPage) action()               {}
func (ToggleColumn) action()           {}
func (AddNotification) action()        {}
func (RemoveNotification) action()     {}
