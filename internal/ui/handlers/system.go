// system.go: страница здоровья системы: сервисы backend'а и брокер.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/bigkaa/castadmin/internal/occlient"
	"github.com/bigkaa/castadmin/internal/ui/render"
)

// HealthSource: проверки здоровья backend'а. Реализуется *occlient.Client.
type HealthSource interface {
	ServicesHealth(ctx context.Context) occlient.HealthItem
	BrokerStatus(ctx context.Context) occlient.HealthItem
}

// SystemHandler: обработчик страницы здоровья системы.
type SystemHandler struct {
	source HealthSource
	logger *slog.Logger
}

// NewSystemHandler создаёт SystemHandler.
func NewSystemHandler(source HealthSource, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{
		source: source,
		logger: logger.With(slog.String("component", "ui.system")),
	}
}

// HandleHealth обрабатывает GET /admin/system/health.
// Проверки выполняются параллельно.
func (h *SystemHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(w, r, h.logger)
	if sess == nil {
		return
	}

	items := make([]occlient.HealthItem, 2)
	var wg sync.WaitGroup
	wg.Go(func() { items[0] = h.source.ServicesHealth(r.Context()) })
	wg.Go(func() { items[1] = h.source.BrokerStatus(r.Context()) })
	wg.Wait()

	for _, it := range items {
		if it.Status != occlient.StatusOK {
			h.logger.Warn("Проверка здоровья не пройдена",
				slog.String("name", it.Name),
				slog.String("status", it.Status),
				slog.Bool("error", it.Error),
			)
		}
	}

	renderPage(w, r, h.logger, render.PageData{
		Title:         "UI.HEALTH.TITLE",
		Active:        "/admin/system/health",
		Notifications: sess.Store.State().NotificationsFor(""),
		Body:          render.Health(items),
	})
}
