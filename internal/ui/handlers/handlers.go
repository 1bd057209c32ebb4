// Пакет handlers: HTTP-обработчики консоли.
//
// Каждое действие пользователя приходит обычной POST-формой, превращается
// в действия контейнера состояния сессии и завершается перенаправлением
// (POST/Redirect/GET). GET-обработчики только отображают состояние.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"

	apimiddleware "github.com/bigkaa/castadmin/internal/api/middleware"
	"github.com/bigkaa/castadmin/internal/session"
	"github.com/bigkaa/castadmin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/castadmin/internal/ui/middleware"
	"github.com/bigkaa/castadmin/internal/ui/render"
)

// SessionSaver сохраняет данные сессии (профили фильтров, настройки таблиц).
// Реализуется *session.Manager.
type SessionSaver interface {
	Save(ctx context.Context, s *session.Session) error
}

// currentSession возвращает сессию запроса или отвечает 500.
func currentSession(w http.ResponseWriter, r *http.Request, logger *slog.Logger) *session.Session {
	sess := uimiddleware.SessionFromContext(r.Context())
	if sess == nil {
		logger.Error("Запрос без сессии", slog.String("path", r.URL.Path))
		http.Error(w, "Сессия не найдена", http.StatusInternalServerError)
	}
	return sess
}

// username: отображаемое имя пользователя из JWT (пусто без аутентификации).
func username(ctx context.Context) string {
	if claims := apimiddleware.ClaimsFromContext(ctx); claims != nil {
		return claims.DisplayName()
	}
	return ""
}

// renderPage отображает полную страницу.
func renderPage(w http.ResponseWriter, r *http.Request, logger *slog.Logger, page render.PageData) {
	page.Username = username(r.Context())
	renderComponent(w, r, logger, http.StatusOK, render.Page(page))
}

// renderComponent пишет HTML-компонент со статусом status.
func renderComponent(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logger.Error("Ошибка рендеринга страницы",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
}

// badRequest отвечает 400 с переведённым сообщением.
func badRequest(w http.ResponseWriter, r *http.Request) {
	http.Error(w, i18n.T(r.Context(), "UI.BAD_REQUEST"), http.StatusBadRequest)
}

// notFound отвечает 404 с переведённым сообщением.
func notFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, i18n.T(r.Context(), "UI.NOT_FOUND"), http.StatusNotFound)
}

// forbidden отвечает 403 с переведённым сообщением.
func forbidden(w http.ResponseWriter, r *http.Request) {
	http.Error(w, i18n.T(r.Context(), "UI.FORBIDDEN"), http.StatusForbidden)
}

// redirect завершает POST-действие перенаправлением на GET.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// back перенаправляет на Referer или fallback.
func back(w http.ResponseWriter, r *http.Request, fallback string) {
	to := r.Header.Get("Referer")
	if to == "" {
		to = fallback
	}
	redirect(w, r, to)
}

// detached возвращает контекст без отмены запроса, ограниченный timeout.
// Используется для сохранения, которое должно завершиться после ответа.
func detached(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
