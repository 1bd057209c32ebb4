// Пакет server: HTTP-сервер castadmin с graceful shutdown.
// Без TLS: HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/castadmin/internal/api/handlers"
	"github.com/bigkaa/castadmin/internal/api/middleware"
	"github.com/bigkaa/castadmin/internal/config"
	"github.com/bigkaa/castadmin/internal/tablecfg"
	uihandlers "github.com/bigkaa/castadmin/internal/ui/handlers"
	"github.com/bigkaa/castadmin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/castadmin/internal/ui/middleware"
	"github.com/bigkaa/castadmin/internal/ui/static"
)

// Server: HTTP-сервер castadmin.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// Handlers: обработчики, из которых собирается маршрутизатор.
type Handlers struct {
	API           *handlers.APIHandler
	Tables        *uihandlers.TablesHandler
	Access        *uihandlers.AccessHandler
	LTI           *uihandlers.LTIHandler
	System        *uihandlers.SystemHandler
	Notifications *uihandlers.NotificationsHandler
	Sessions      *uimiddleware.Sessions
}

// homePath: стартовая страница консоли.
var homePath = "/admin/tables/" + string(tablecfg.ResourceEvents)

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// jwtAuth: JWT middleware (nil, если проверка JWT отключена).
func New(cfg *config.Config, logger *slog.Logger, h Handlers, jwtAuth *middleware.JWTAuth) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(logger, h, jwtAuth),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршруты: health и metrics, статику, JSON API и консоль.
func NewRouter(logger *slog.Logger, h Handlers, jwtAuth *middleware.JWTAuth) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Health, metrics и статика доступны без JWT.
	if jwtAuth != nil {
		router.Use(jwtAuthWithExclusions(jwtAuth, "/health/", "/metrics", "/static/"))
	}

	router.Get("/health/live", h.API.HealthLive)
	router.Get("/health/ready", h.API.HealthReady)
	router.Get("/metrics", h.API.GetMetrics)
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))

	router.Route("/api/v1", h.API.Routes)

	router.Route("/admin", func(r chi.Router) {
		r.Use(i18n.Middleware())
		r.Use(h.Sessions.Middleware())

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, homePath, http.StatusFound)
		})
		r.Route("/tables/{resource}", h.Tables.Routes)
		r.Route("/lti", h.LTI.Routes)
		r.Route("/{kind}/{id}/access", h.Access.Routes)
		r.Get("/system/health", h.System.HandleHealth)
		r.Post("/notifications/{id}/dismiss", h.Notifications.HandleDismiss)
		r.Post("/set-language", uihandlers.HandleSetLanguage)
	})

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/", http.StatusFound)
	})

	return router
}

// jwtAuthWithExclusions оборачивает JWTAuth.Middleware(), пропуская указанные пути.
// Запросы к путям, начинающимся с любого из excludePrefixes, проходят без JWT.
func jwtAuthWithExclusions(jwtAuth *middleware.JWTAuth, excludePrefixes ...string) func(http.Handler) http.Handler {
	jwtMiddleware := jwtAuth.Middleware()

	return func(next http.Handler) http.Handler {
		protected := jwtMiddleware(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range excludePrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
