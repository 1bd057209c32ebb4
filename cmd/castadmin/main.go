// Точка входа castadmin: консоли администрирования платформы записи лекций.
// Загружает конфигурацию и каталоги переводов, создаёт клиента REST API
// платформы, при включённом сохранении состояния подключается к PostgreSQL
// и применяет миграции, собирает сессии, редактор ACL, LTI-инструмент
// и HTTP-сервер с опциональным JWT и graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/castadmin/internal/acl"
	"github.com/bigkaa/castadmin/internal/api/handlers"
	"github.com/bigkaa/castadmin/internal/api/middleware"
	"github.com/bigkaa/castadmin/internal/config"
	"github.com/bigkaa/castadmin/internal/database"
	"github.com/bigkaa/castadmin/internal/lti"
	"github.com/bigkaa/castadmin/internal/occlient"
	"github.com/bigkaa/castadmin/internal/repository"
	"github.com/bigkaa/castadmin/internal/server"
	"github.com/bigkaa/castadmin/internal/service"
	"github.com/bigkaa/castadmin/internal/session"
	"github.com/bigkaa/castadmin/internal/tablecfg"
	"github.com/bigkaa/castadmin/internal/thunks"
	uihandlers "github.com/bigkaa/castadmin/internal/ui/handlers"
	"github.com/bigkaa/castadmin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/castadmin/internal/ui/middleware"
	"github.com/bigkaa/castadmin/internal/ui/render"
)

// Таймауты проверок готовности.
const (
	readinessTimeout  = 5 * time.Second
	resolveAPITimeout = 10 * time.Second
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("castadmin запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Каталоги переводов и конфигурация таблиц
	bundle := i18n.Init(logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := tablecfg.Validate(); err != nil {
		logger.Error("Некорректная конфигурация таблиц", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Клиент REST API платформы
	ocClient, err := occlient.New(occlient.Options{
		BaseURL:    cfg.BackendURL,
		User:       cfg.BackendUser,
		Password:   cfg.BackendPassword,
		CACertPath: cfg.BackendCACertPath,
		Timeout:    cfg.BackendTimeout,
	}, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	checkers := []handlers.NamedChecker{
		{Name: "backend", Checker: handlers.NewBackendReadinessChecker(ocClient, readinessTimeout)},
	}

	// 5. PostgreSQL (опционально): миграции, пул, репозиторий сессий
	var (
		persist session.Persistence
		pgDB    *sql.DB
	)
	if cfg.PersistEnabled {
		logger.Info("Применение миграций БД...")
		if err := database.Migrate(cfg, logger); err != nil {
			logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
			os.Exit(1)
		}

		pool, err := database.Connect(ctx, cfg, logger)
		if err != nil {
			logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer pool.Close()

		// Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
		pgDB = stdlib.OpenDBFromPool(pool)
		defer pgDB.Close()

		persist = repository.NewSessionRepository(pool)
		checkers = append(checkers, handlers.NamedChecker{Name: "postgresql", Checker: database.NewReadinessChecker(pool)})
	} else {
		logger.Info("Сохранение состояния отключено (OCA_PERSIST_ENABLED=false)")
	}

	// 6. Сессии браузера
	sessions := session.NewManager(cfg.SessionCacheSize, cfg.SessionTTL, cfg.DefaultPageSize, persist, logger)
	defer sessions.Close()

	// 7. LTI: API планирования определяется свойством организации
	resolveCtx, cancel := context.WithTimeout(ctx, resolveAPITimeout)
	api := lti.ResolveAPI(resolveCtx, ocClient, lti.ParseAPI(cfg.SchedulingAPI, lti.APIAdmin), logger)
	cancel()
	registry := lti.NewRegistry(ocClient, api, lti.Options{
		PollInterval: cfg.PollInterval,
		Workflows: lti.Workflows{
			Schedule: cfg.LTIScheduleWorkflow,
			Upload:   cfg.LTIUploadWorkflow,
		},
	}, cfg.SessionCacheSize, cfg.SessionTTL, logger)
	defer registry.Close()
	logger.Info("LTI-инструмент инициализирован", slog.String("api", string(api)))

	// 8. JWT middleware (опционально, если задан OCA_JWT_JWKS_URL)
	var jwtAuth *middleware.JWTAuth
	if cfg.AuthEnabled() {
		jwtAuth, err = middleware.NewJWTAuth(
			cfg.JWTJWKSURL,
			cfg.BackendCACertPath,
			cfg.JWTIssuer,
			cfg.JWTRolesClaim,
			cfg.JWTLeeway,
			logger,
		)
		if err != nil {
			logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
			os.Exit(1)
		}
		jwksChecker, err := middleware.NewJWKSReadinessChecker(cfg.JWTJWKSURL, cfg.BackendCACertPath, readinessTimeout)
		if err != nil {
			logger.Error("Ошибка создания JWKS readiness checker", slog.String("error", err.Error()))
			os.Exit(1)
		}
		checkers = append(checkers, handlers.NamedChecker{Name: "jwks", Checker: jwksChecker})
		logger.Info("JWT middleware инициализирован",
			slog.String("jwks_url", cfg.JWTJWKSURL),
			slog.String("issuer", cfg.JWTIssuer),
		)
	} else {
		logger.Warn("OCA_JWT_JWKS_URL не задан, консоль доступна без аутентификации")
	}

	// 9. topologymetrics: мониторинг зависимостей
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "castadmin",
		Group:         cfg.DephealthGroup,
		BackendURL:    cfg.BackendURL,
		DB:            pgDB,
		PgConnURL:     cfg.DatabaseURL(),
		JWKSURL:       cfg.JWTJWKSURL,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 10. Обработчики консоли и API
	editRoles := cfg.ACLEditRoles
	h := server.Handlers{
		API: handlers.NewAPIHandler(handlers.NewHealthHandler(checkers...), registry, editRoles, logger),
		Tables: uihandlers.NewTablesHandler(
			thunks.NewLoader(ocClient, logger),
			render.DefaultTemplates(),
			sessions,
			logger,
		),
		Access: uihandlers.NewAccessHandler(
			acl.NewCachedBackend(ocClient, cfg.LookupCacheSize, cfg.LookupCacheTTL),
			editRoles, cfg.NotificationTTL, logger,
		),
		LTI:           uihandlers.NewLTIHandler(registry, editRoles, cfg.NotificationTTL, 0, logger),
		System:        uihandlers.NewSystemHandler(ocClient, logger),
		Notifications: uihandlers.NewNotificationsHandler(logger),
		Sessions:      uimiddleware.NewSessions(sessions, strings.HasPrefix(cfg.JWTJWKSURL, "https"), logger),
	}

	// 11. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, h, jwtAuth)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 12. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}
	logger.Info("castadmin остановлен")
}
