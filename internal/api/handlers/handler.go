// handler.go: основной обработчик JSON API castadmin.
// Объединяет health endpoints и API событий LTI-инструмента.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/castadmin/internal/lti"
)

// APIHandler: основной обработчик JSON API.
type APIHandler struct {
	health    *HealthHandler
	registry  *lti.Registry
	editRoles []string
	logger    *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API. editRoles: роли,
// дающие право изменять события; без JWT изменения разрешены.
func NewAPIHandler(health *HealthHandler, registry *lti.Registry, editRoles []string, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		health:    health,
		registry:  registry,
		editRoles: editRoles,
		logger:    logger.With(slog.String("component", "api_handler")),
	}
}

// Routes регистрирует маршруты под /api/v1.
func (h *APIHandler) Routes(r chi.Router) {
	r.Route("/lti/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)
		r.Patch("/", h.UpdateEvents)
		r.Get("/{id}", h.GetEvent)
		r.Patch("/{id}", h.UpdateEvent)
		r.Delete("/{id}", h.DeleteEvent)
		r.Post("/{id}/retract", h.Retract)
		r.Post("/{id}/republish", h.Republish)
		r.Post("/{id}/comments", h.Comment)
	})
}

// HealthLive: liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady: readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics: Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// paginationDefaults нормализует параметры пагинации.
// Возвращает корректные limit и offset.
func paginationDefaults(limit *int, offset *int) (int, int) {
	l := 100
	o := 0

	if limit != nil {
		l = *limit
		if l < 1 {
			l = 1
		}
		if l > 1000 {
			l = 1000
		}
	}

	if offset != nil {
		o = *offset
		if o < 0 {
			o = 0
		}
	}

	return l, o
}
