// notifications.go: закрытие уведомлений пользователем.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/castadmin/internal/store"
)

// NotificationsHandler: обработчик уведомлений.
type NotificationsHandler struct {
	logger *slog.Logger
}

// NewNotificationsHandler создаёт NotificationsHandler.
func NewNotificationsHandler(logger *slog.Logger) *NotificationsHandler {
	return &NotificationsHandler{
		logger: logger.With(slog.String("component", "ui.notifications")),
	}
}

// HandleDismiss обрабатывает POST /admin/notifications/{id}/dismiss.
// Неизвестный ID игнорируется: уведомление могло истечь раньше.
func (h *NotificationsHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(w, r, h.logger)
	if sess == nil {
		return
	}
	sess.Store.Dispatch(store.RemoveNotification{ID: chi.URLParam(r, "id")})
	back(w, r, "/admin/")
}
