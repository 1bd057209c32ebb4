// dephealth.go: интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// castadmin мониторит:
//   - REST API платформы: HTTP checker к /services/health.json (critical)
//   - PostgreSQL: SQL checker через pgxpool, только при включённом сохранении состояния
//   - JWKS: HTTP checker, только при включённой проверке JWT
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health: состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds: задержка проверки
//   - app_dependency_status: категория статуса
//   - app_dependency_status_detail: детальный статус
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // HTTP checker для backend и JWKS
	"github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/pgcheck"     // PostgreSQL checker (pool mode)
	"github.com/prometheus/client_golang/prometheus"
)

// Имена зависимостей в метриках.
const (
	DepBackend    = "backend"
	DepPostgreSQL = "postgresql"
	DepJWKS       = "jwks"
)

// servicesHealthPath: health endpoint платформы относительно её базового URL.
const servicesHealthPath = "/services/health.json"

// DephealthConfig: параметры мониторинга зависимостей.
type DephealthConfig struct {
	// ServiceID: имя вершины графа текущего приложения.
	ServiceID string
	// Group: имя группы в метриках (OCA_DEPHEALTH_GROUP).
	Group string
	// BackendURL: базовый URL REST API платформы.
	BackendURL string
	// DB: *sql.DB из pgxpool через stdlib.OpenDBFromPool(); nil отключает проверку PostgreSQL.
	DB *sql.DB
	// PgConnURL: URL PostgreSQL для меток (не для подключения).
	PgConnURL string
	// JWKSURL: URL JWKS; пустой отключает проверку.
	JWKSURL       string
	CheckInterval time.Duration
	// TLSSkipVerify: не проверять сертификаты HTTP-зависимостей.
	TLSSkipVerify bool
}

// DephealthService: сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	names  []string
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Метрики регистрируются в глобальном Prometheus registry.
func NewDephealthService(cfg DephealthConfig, logger *slog.Logger) (*DephealthService, error) {
	return newDephealthService(cfg, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(cfg DephealthConfig, logger *slog.Logger, registerer prometheus.Registerer) (*DephealthService, error) {
	return newDephealthService(cfg, logger, dephealth.WithRegisterer(registerer))
}

// newDephealthService: внутренний конструктор.
func newDephealthService(cfg DephealthConfig, logger *slog.Logger, extraOpts ...dephealth.Option) (*DephealthService, error) {
	httpOpts := func(rawURL, path string) []dephealth.DependencyOption {
		opts := []dephealth.DependencyOption{
			dephealth.FromURL(rawURL),
			dephealth.WithHTTPHealthPath(path),
			dephealth.CheckInterval(cfg.CheckInterval),
			dephealth.Critical(true),
		}
		if cfg.TLSSkipVerify {
			opts = append(opts, dephealth.WithHTTPTLSSkipVerify(true))
		}
		return opts
	}

	names := []string{DepBackend}
	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.HTTP(DepBackend, httpOpts(cfg.BackendURL, backendHealthPath(cfg.BackendURL))...),
	}
	if cfg.DB != nil {
		// Проверка идёт через *sql.DB (адаптер pgxpool) и отражает состояние пула.
		// pgcheck.New + AddDependency не тянут contrib/sqldb с зависимостью на MySQL.
		names = append(names, DepPostgreSQL)
		opts = append(opts, dephealth.AddDependency(DepPostgreSQL, dephealth.TypePostgres,
			pgcheck.New(pgcheck.WithDB(cfg.DB)),
			dephealth.FromURL(cfg.PgConnURL),
			dephealth.CheckInterval(cfg.CheckInterval),
			dephealth.Critical(true),
		))
	}
	if cfg.JWKSURL != "" {
		names = append(names, DepJWKS)
		opts = append(opts, dephealth.HTTP(DepJWKS, httpOpts(cfg.JWKSURL, urlPath(cfg.JWKSURL, "/health"))...))
	}
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(cfg.ServiceID, cfg.Group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		names:  names,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// backendHealthPath: путь health endpoint с учётом префикса базового URL
// (платформа может быть опубликована не в корне).
func backendHealthPath(backendURL string) string {
	return strings.TrimRight(urlPath(backendURL, ""), "/") + servicesHealthPath
}

// urlPath возвращает path URL или fallback, если path пуст или URL некорректен.
func urlPath(rawURL, fallback string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Path == "" {
		return fallback
	}
	return parsed.Path
}

// Dependencies возвращает имена отслеживаемых зависимостей.
func (ds *DephealthService) Dependencies() []string {
	return append([]string(nil), ds.names...)
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен",
		slog.String("dependencies", strings.Join(ds.names, ",")),
	)
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ: имя зависимости, значение: true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
