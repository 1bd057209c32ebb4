// Пакет tablecfg: реестр конфигураций таблиц Admin UI.
// Для каждого ресурса описаны колонки, заголовок, категория, признак
// множественного выбора и endpoints backend'а. Пакет содержит только данные:
// поведение (рендеринг, фильтрация, пагинация) живёт в store и ui/render.
package tablecfg

import (
	"fmt"
	"sort"
)

// Resource: имя ресурса, для которого строится таблица.
type Resource string

// Ресурсы Admin UI.
const (
	ResourceEvents     Resource = "events"
	ResourceSeries     Resource = "series"
	ResourceRecordings Resource = "recordings"
	ResourceJobs       Resource = "jobs"
	ResourceServers    Resource = "servers"
	ResourceServices   Resource = "services"
	ResourceWorkflows  Resource = "workflows"
	ResourceUsers      Resource = "users"
	ResourceGroups     Resource = "groups"
	ResourceACLs       Resource = "acls"
	ResourceThemes     Resource = "themes"
)

// Имена шаблонов ячеек. Разрешаются в рендерер во время отображения
// (ui/render.Templates); неизвестное имя даёт пустую ячейку.
const (
	TemplateEventStatus    = "EventsStatusCell"
	TemplateEventActions   = "EventActionsCell"
	TemplateDate           = "DateCell"
	TemplateTime           = "TimeCell"
	TemplatePublications   = "PublishedCell"
	TemplateSeriesActions  = "SeriesActionsCell"
	TemplateRecordingState = "RecordingsStatusCell"
	TemplateServerStatus   = "ServersStatusCell"
	TemplateServiceStatus  = "ServicesStatusCell"
	TemplateRowActions     = "RowActionsCell"
	TemplateBoolean        = "BooleanCell"
)

// Column: описание колонки таблицы.
type Column struct {
	// Name: ключ значения в строке.
	Name string `json:"name"`
	// Label: ключ перевода заголовка.
	Label string `json:"label"`
	// Sortable: колонка допускает сортировку.
	Sortable bool `json:"sortable"`
	// Translate: значение ячейки является ключом перевода.
	Translate bool `json:"translate,omitempty"`
	// Template: имя шаблона ячейки (пусто: без шаблона).
	Template string `json:"template,omitempty"`
	// Deactivated: колонка скрыта, но остаётся в конфигурации.
	Deactivated bool `json:"deactivated"`
}

// TableConfig: конфигурация таблицы одного ресурса.
type TableConfig struct {
	Columns     []Column
	Caption     string
	Resource    Resource
	Category    string
	MultiSelect bool

	// ListEndpoint: путь списка ресурса на backend'е.
	ListEndpoint string
	// FiltersEndpoint: путь описаний фильтров (пусто: фильтров нет).
	FiltersEndpoint string
}

// registry: конфигурации всех таблиц.
var registry = map[Resource]TableConfig{
	ResourceEvents: {
		Caption:         "EVENTS.EVENTS.TABLE.CAPTION",
		Resource:        ResourceEvents,
		Category:        "events",
		MultiSelect:     true,
		ListEndpoint:    "/admin-ng/event/events.json",
		FiltersEndpoint: "/admin-ng/resources/events/filters.json",
		Columns: []Column{
			{Name: "title", Label: "EVENTS.EVENTS.TABLE.TITLE", Sortable: true},
			{Name: "presenter", Label: "EVENTS.EVENTS.TABLE.PRESENTERS", Sortable: true},
			{Name: "series_name", Label: "EVENTS.EVENTS.TABLE.SERIES", Sortable: true},
			{Name: "date", Label: "EVENTS.EVENTS.TABLE.DATE", Sortable: true, Template: TemplateDate},
			{Name: "start_date", Label: "EVENTS.EVENTS.TABLE.START", Sortable: true, Template: TemplateTime},
			{Name: "end_date", Label: "EVENTS.EVENTS.TABLE.STOP", Sortable: true, Template: TemplateTime},
			{Name: "location", Label: "EVENTS.EVENTS.TABLE.LOCATION", Sortable: true},
			{Name: "published", Label: "EVENTS.EVENTS.TABLE.PUBLISHED", Template: TemplatePublications},
			{Name: "event_status", Label: "EVENTS.EVENTS.TABLE.SCHEDULING_STATUS", Sortable: true, Template: TemplateEventStatus},
			{Name: "actions", Label: "EVENTS.EVENTS.TABLE.ACTION", Template: TemplateEventActions},
		},
	},
	ResourceSeries: {
		Caption:         "EVENTS.SERIES.TABLE.CAPTION",
		Resource:        ResourceSeries,
		Category:        "events",
		MultiSelect:     true,
		ListEndpoint:    "/admin-ng/series/series.json",
		FiltersEndpoint: "/admin-ng/resources/series/filters.json",
		Columns: []Column{
			{Name: "title", Label: "EVENTS.SERIES.TABLE.TITLE", Sortable: true},
			{Name: "creator", Label: "EVENTS.SERIES.TABLE.CREATORS", Sortable: true},
			{Name: "contributors", Label: "EVENTS.SERIES.TABLE.CONTRIBUTORS", Sortable: true},
			{Name: "createdDateTime", Label: "EVENTS.SERIES.TABLE.CREATED", Sortable: true, Template: TemplateDate},
			{Name: "actions", Label: "EVENTS.SERIES.TABLE.ACTION", Template: TemplateSeriesActions},
		},
	},
	ResourceRecordings: {
		Caption:         "RECORDINGS.RECORDINGS.TABLE.CAPTION",
		Resource:        ResourceRecordings,
		Category:        "recordings",
		ListEndpoint:    "/admin-ng/capture-agents/agents.json",
		FiltersEndpoint: "/admin-ng/resources/recordings/filters.json",
		Columns: []Column{
			{Name: "status", Label: "RECORDINGS.RECORDINGS.TABLE.STATUS", Sortable: true, Template: TemplateRecordingState},
			{Name: "name", Label: "RECORDINGS.RECORDINGS.TABLE.NAME", Sortable: true},
			{Name: "updated", Label: "RECORDINGS.RECORDINGS.TABLE.UPDATED", Sortable: true, Template: TemplateDate},
			{Name: "actions", Label: "RECORDINGS.RECORDINGS.TABLE.ACTION", Template: TemplateRowActions},
		},
	},
	ResourceJobs: {
		Caption:         "SYSTEMS.JOBS.TABLE.CAPTION",
		Resource:        ResourceJobs,
		Category:        "systems",
		ListEndpoint:    "/admin-ng/job/jobs.json",
		FiltersEndpoint: "/admin-ng/resources/jobs/filters.json",
		Columns: []Column{
			{Name: "id", Label: "SYSTEMS.JOBS.TABLE.ID", Sortable: true},
			{Name: "status", Label: "SYSTEMS.JOBS.TABLE.STATUS", Sortable: true, Translate: true},
			{Name: "operation", Label: "SYSTEMS.JOBS.TABLE.OPERATION", Sortable: true},
			{Name: "type", Label: "SYSTEMS.JOBS.TABLE.TYPE", Sortable: true},
			{Name: "processingHost", Label: "SYSTEMS.JOBS.TABLE.HOST_NAME", Sortable: true},
			{Name: "submitted", Label: "SYSTEMS.JOBS.TABLE.SUBMITTED", Sortable: true, Template: TemplateDate},
			{Name: "started", Label: "SYSTEMS.JOBS.TABLE.STARTED", Sortable: true, Template: TemplateDate},
			{Name: "creator", Label: "SYSTEMS.JOBS.TABLE.CREATOR", Sortable: true},
		},
	},
	ResourceServers: {
		Caption:         "SYSTEMS.SERVERS.TABLE.CAPTION",
		Resource:        ResourceServers,
		Category:        "systems",
		ListEndpoint:    "/admin-ng/server/servers.json",
		FiltersEndpoint: "/admin-ng/resources/servers/filters.json",
		Columns: []Column{
			{Name: "online", Label: "SYSTEMS.SERVERS.TABLE.STATUS", Sortable: true, Template: TemplateServerStatus},
			{Name: "hostname", Label: "SYSTEMS.SERVERS.TABLE.HOST_NAME", Sortable: true},
			{Name: "nodeName", Label: "SYSTEMS.SERVERS.TABLE.NODE_NAME", Sortable: true},
			{Name: "cores", Label: "SYSTEMS.SERVERS.TABLE.CORES", Sortable: true},
			{Name: "completed", Label: "SYSTEMS.SERVERS.TABLE.COMPLETED", Sortable: true},
			{Name: "running", Label: "SYSTEMS.SERVERS.TABLE.RUNNING", Sortable: true},
			{Name: "queued", Label: "SYSTEMS.SERVERS.TABLE.QUEUED", Sortable: true},
			{Name: "meanRunTime", Label: "SYSTEMS.SERVERS.TABLE.MEAN_RUN_TIME", Sortable: true},
			{Name: "meanQueueTime", Label: "SYSTEMS.SERVERS.TABLE.MEAN_QUEUE_TIME", Sortable: true},
			{Name: "maintenance", Label: "SYSTEMS.SERVERS.TABLE.MAINTENANCE", Template: TemplateBoolean},
		},
	},
	ResourceServices: {
		Caption:         "SYSTEMS.SERVICES.TABLE.CAPTION",
		Resource:        ResourceServices,
		Category:        "systems",
		ListEndpoint:    "/admin-ng/services/services.json",
		FiltersEndpoint: "/admin-ng/resources/services/filters.json",
		Columns: []Column{
			{Name: "status", Label: "SYSTEMS.SERVICES.TABLE.STATUS", Sortable: true, Template: TemplateServiceStatus},
			{Name: "name", Label: "SYSTEMS.SERVICES.TABLE.NAME", Sortable: true},
			{Name: "hostname", Label: "SYSTEMS.SERVICES.TABLE.HOST_NAME", Sortable: true},
			{Name: "nodeName", Label: "SYSTEMS.SERVICES.TABLE.NODE_NAME", Sortable: true},
			{Name: "completed", Label: "SYSTEMS.SERVICES.TABLE.COMPLETED", Sortable: true},
			{Name: "running", Label: "SYSTEMS.SERVICES.TABLE.RUNNING", Sortable: true},
			{Name: "queued", Label: "SYSTEMS.SERVICES.TABLE.QUEUED", Sortable: true},
			{Name: "meanRunTime", Label: "SYSTEMS.SERVICES.TABLE.MEAN_RUN_TIME", Sortable: true},
			{Name: "meanQueueTime", Label: "SYSTEMS.SERVICES.TABLE.MEAN_QUEUE_TIME", Sortable: true},
		},
	},
	ResourceWorkflows: {
		Caption:      "CONFIGURATION.WORKFLOWS.TABLE.CAPTION",
		Resource:     ResourceWorkflows,
		Category:     "configuration",
		ListEndpoint: "/api/workflow-definitions",
		Columns: []Column{
			{Name: "identifier", Label: "CONFIGURATION.WORKFLOWS.TABLE.ID", Sortable: true},
			{Name: "title", Label: "CONFIGURATION.WORKFLOWS.TABLE.TITLE", Sortable: true},
			{Name: "description", Label: "CONFIGURATION.WORKFLOWS.TABLE.DESCRIPTION"},
			{Name: "displayOrder", Label: "CONFIGURATION.WORKFLOWS.TABLE.ORDER", Sortable: true, Deactivated: true},
		},
	},
	ResourceUsers: {
		Caption:         "USERS.USERS.TABLE.CAPTION",
		Resource:        ResourceUsers,
		Category:        "users",
		ListEndpoint:    "/admin-ng/users/users.json",
		FiltersEndpoint: "/admin-ng/resources/users/filters.json",
		Columns: []Column{
			{Name: "name", Label: "USERS.USERS.TABLE.NAME", Sortable: true},
			{Name: "username", Label: "USERS.USERS.TABLE.USERNAME", Sortable: true},
			{Name: "email", Label: "USERS.USERS.TABLE.EMAIL", Sortable: true},
			{Name: "roles", Label: "USERS.USERS.TABLE.ROLES", Sortable: true},
			{Name: "provider", Label: "USERS.USERS.TABLE.PROVIDER", Sortable: true},
			{Name: "actions", Label: "USERS.USERS.TABLE.ACTION", Template: TemplateRowActions},
		},
	},
	ResourceGroups: {
		Caption:         "USERS.GROUPS.TABLE.CAPTION",
		Resource:        ResourceGroups,
		Category:        "users",
		ListEndpoint:    "/admin-ng/groups/groups.json",
		FiltersEndpoint: "/admin-ng/resources/groups/filters.json",
		Columns: []Column{
			{Name: "name", Label: "USERS.GROUPS.TABLE.NAME", Sortable: true},
			{Name: "description", Label: "USERS.GROUPS.TABLE.DESCRIPTION", Sortable: true},
			{Name: "role", Label: "USERS.GROUPS.TABLE.ROLE", Sortable: true},
			{Name: "actions", Label: "USERS.GROUPS.TABLE.ACTION", Template: TemplateRowActions},
		},
	},
	ResourceACLs: {
		Caption:         "USERS.ACLS.TABLE.CAPTION",
		Resource:        ResourceACLs,
		Category:        "users",
		ListEndpoint:    "/admin-ng/acl/acls.json",
		FiltersEndpoint: "/admin-ng/resources/acls/filters.json",
		Columns: []Column{
			{Name: "name", Label: "USERS.ACLS.TABLE.NAME", Sortable: true},
			{Name: "actions", Label: "USERS.ACLS.TABLE.ACTION", Template: TemplateRowActions},
		},
	},
	ResourceThemes: {
		Caption:         "CONFIGURATION.THEMES.TABLE.CAPTION",
		Resource:        ResourceThemes,
		Category:        "configuration",
		ListEndpoint:    "/admin-ng/themes/themes.json",
		FiltersEndpoint: "/admin-ng/resources/themes/filters.json",
		Columns: []Column{
			{Name: "name", Label: "CONFIGURATION.THEMES.TABLE.NAME", Sortable: true},
			{Name: "description", Label: "CONFIGURATION.THEMES.TABLE.DESCRIPTION", Sortable: true},
			{Name: "creator", Label: "CONFIGURATION.THEMES.TABLE.CREATOR", Sortable: true},
			{Name: "creation_date", Label: "CONFIGURATION.THEMES.TABLE.CREATED", Sortable: true, Template: TemplateDate},
			{Name: "usage", Label: "CONFIGURATION.THEMES.TABLE.USAGE", Sortable: true},
			{Name: "actions", Label: "CONFIGURATION.THEMES.TABLE.ACTION", Template: TemplateRowActions},
		},
	},
}

// Lookup возвращает конфигурацию таблицы ресурса.
// Срез колонок копируется: вызывающий код может менять его без влияния на реестр.
func Lookup(resource Resource) (TableConfig, bool) {
	cfg, ok := registry[resource]
	if !ok {
		return TableConfig{}, false
	}
	cfg.Columns = append([]Column(nil), cfg.Columns...)
	return cfg, true
}

// Resources возвращает все зарегистрированные ресурсы в стабильном порядке.
func Resources() []Resource {
	out := make([]Resource, 0, len(registry))
	for r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Parse проверяет, что строка: известный ресурс.
func Parse(s string) (Resource, bool) {
	r := Resource(s)
	_, ok := registry[r]
	return r, ok
}

// Validate проверяет инварианты реестра: имена колонок уникальны внутри таблицы.
func Validate() error {
	for _, r := range Resources() {
		seen := make(map[string]bool, len(registry[r].Columns))
		for _, c := range registry[r].Columns {
			if seen[c.Name] {
				return fmt.Errorf("tablecfg: дублирующаяся колонка %q в таблице %s", c.Name, r)
			}
			seen[c.Name] = true
		}
	}
	return nil
}
