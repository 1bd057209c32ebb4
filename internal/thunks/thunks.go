// Пакет thunks: асинхронные действия загрузки ресурсов.
// Thunk читает состояние, обращается к backend'у и диспатчит результат
// в срез ресурса. Ошибки backend'а логируются и не пробрасываются:
// в состоянии остаётся только снятый флаг загрузки. Повторов нет.
package thunks

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/castadmin/internal/occlient"
	"github.com/bigkaa/castadmin/internal/store"
	"github.com/bigkaa/castadmin/internal/tablecfg"
)

// Метрики исходов загрузки.
var fetchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "oca_resource_fetch_total",
		Help: "Количество загрузок ресурсов по исходу (success, failure, stale)",
	},
	[]string{"resource", "outcome"},
)

// Backend: операции backend'а, нужные thunk'ам.
type Backend interface {
	List(ctx context.Context, path string, query url.Values) (*occlient.ListResponse, error)
	Filters(ctx context.Context, path string) ([]occlient.FilterDefinition, error)
}

// Loader создаёт thunk'и загрузки ресурсов.
type Loader struct {
	backend Backend
	logger  *slog.Logger
}

// NewLoader создаёт Loader.
func NewLoader(backend Backend, logger *slog.Logger) *Loader {
	return &Loader{
		backend: backend,
		logger:  logger.With(slog.String("component", "thunks")),
	}
}

// FetchResource загружает список ресурса. При applyFilter в запрос
// добавляются активные фильтры, при applySort: сортировка.
// Если контекст отменён до прихода ответа, результат не диспатчится.
func (l *Loader) FetchResource(resource tablecfg.Resource, applyFilter, applySort bool) store.Thunk {
	return func(ctx context.Context, dispatch store.DispatchFunc, getState store.GetStateFunc) error {
		cfg, ok := tablecfg.Lookup(resource)
		if !ok {
			return fmt.Errorf("неизвестный ресурс %q", resource)
		}

		token := store.NewRequestToken()
		dispatch(store.LoadResourceInProgress{Resource: resource, Token: token})

		query := store.QueryParams(getState(), applyFilter, applySort)
		resp, err := l.backend.List(ctx, cfg.ListEndpoint, query)
		if ctx.Err() != nil {
			fetchTotal.WithLabelValues(string(resource), "cancelled").Inc()
			return ctx.Err()
		}
		if err != nil {
			l.logger.Error("Ошибка загрузки ресурса",
				slog.String("resource", string(resource)),
				slog.String("error", err.Error()),
			)
			fetchTotal.WithLabelValues(string(resource), "failure").Inc()
			dispatch(store.LoadResourceFailure{Resource: resource, Token: token})
			return nil
		}

		if getState().Slice(resource).Generation > token {
			fetchTotal.WithLabelValues(string(resource), "stale").Inc()
		} else {
			fetchTotal.WithLabelValues(string(resource), "success").Inc()
		}
		dispatch(store.LoadResourceSuccess{
			Resource: resource,
			Token:    token,
			Envelope: store.Envelope{
				Total:   resp.Total,
				Count:   resp.Count,
				Limit:   resp.Limit,
				Offset:  resp.Offset,
				Results: Transform(resource, resp.Results),
			},
		})
		return nil
	}
}

// FetchFilters загружает определения фильтров ресурса.
// При ошибке backend'а ресурс остаётся без фильтров.
func (l *Loader) FetchFilters(resource tablecfg.Resource) store.Thunk {
	return func(ctx context.Context, dispatch store.DispatchFunc, getState store.GetStateFunc) error {
		cfg, ok := tablecfg.Lookup(resource)
		if !ok {
			return fmt.Errorf("неизвестный ресурс %q", resource)
		}
		if cfg.FiltersEndpoint == "" {
			dispatch(store.LoadFilters{Resource: resource})
			return nil
		}

		defs, err := l.backend.Filters(ctx, cfg.FiltersEndpoint)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			l.logger.Error("Ошибка загрузки фильтров",
				slog.String("resource", string(resource)),
				slog.String("error", err.Error()),
			)
			// Фильтры прежнего ресурса не должны попасть в запрос нового.
			dispatch(store.LoadFilters{Resource: resource})
			return nil
		}

		filters := make([]store.Filter, 0, len(defs))
		for _, d := range defs {
			f := store.Filter{
				Name:         d.Name,
				Label:        d.Label,
				Type:         store.FilterType(d.Type),
				Translatable: d.Translatable,
			}
			for _, o := range d.Options {
				f.Options = append(f.Options, store.FilterOption{Value: o.Value, Label: o.Label})
			}
			filters = append(filters, f)
		}
		dispatch(store.LoadFilters{Resource: resource, Filters: filters})
		return nil
	}
}

// ProjectTable строит таблицу из текущего среза ресурса.
func ProjectTable(resource tablecfg.Resource) store.Thunk {
	return func(ctx context.Context, dispatch store.DispatchFunc, getState store.GetStateFunc) error {
		cfg, ok := tablecfg.Lookup(resource)
		if !ok {
			return fmt.Errorf("неизвестный ресурс %q", resource)
		}
		s := getState()
		dispatch(store.LoadTableContent{
			Content: store.Project(cfg, s.Slice(resource), s.Table.Pagination, s.Table.SortBy),
		})
		return nil
	}
}

// LoadResourceIntoTable загружает ресурс с фильтрами и сортировкой
// и строит из него таблицу.
func (l *Loader) LoadResourceIntoTable(resource tablecfg.Resource) store.Thunk {
	return func(ctx context.Context, dispatch store.DispatchFunc, getState store.GetStateFunc) error {
		if err := l.FetchResource(resource, true, true)(ctx, dispatch, getState); err != nil {
			return err
		}
		return ProjectTable(resource)(ctx, dispatch, getState)
	}
}

// OpenTable переключает таблицу на ресурс: загружает фильтры
// (если ресурс сменился) и данные.
func (l *Loader) OpenTable(resource tablecfg.Resource) store.Thunk {
	return func(ctx context.Context, dispatch store.DispatchFunc, getState store.GetStateFunc) error {
		if getState().Filters.Resource != resource {
			if err := l.FetchFilters(resource)(ctx, dispatch, getState); err != nil {
				return err
			}
			if getState().Table.Resource != resource {
				dispatch(store.GoToPage{Page: 0})
			}
		}
		return l.LoadResourceIntoTable(resource)(ctx, dispatch, getState)
	}
}
