// Пакет middleware: HTTP middleware для Admin UI.
// session.go: сессия браузера по cookie: поиск, создание и привязка
// к субъекту JWT. Каждая сессия владеет своим контейнером состояния.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	apimiddleware "github.com/bigkaa/castadmin/internal/api/middleware"
	"github.com/bigkaa/castadmin/internal/session"
)

// contextKey: тип для ключей контекста UI (избегаем коллизий с API middleware).
type contextKey string

const (
	// ContextKeySession: сессия браузера в контексте запроса.
	ContextKeySession contextKey = "ui_session"
)

// SessionProvider: источник сессий. Реализуется *session.Manager.
type SessionProvider interface {
	GetOrCreate(ctx context.Context, id, owner string) (*session.Session, bool, error)
}

// Sessions: middleware сессий браузера.
type Sessions struct {
	provider SessionProvider
	secure   bool
	logger   *slog.Logger
}

// NewSessions создаёт middleware. secure включает флаг Secure у cookie.
func NewSessions(provider SessionProvider, secure bool, logger *slog.Logger) *Sessions {
	return &Sessions{
		provider: provider,
		secure:   secure,
		logger:   logger.With(slog.String("component", "ui_session_middleware")),
	}
}

// Middleware находит сессию по cookie или создаёт новую. Сессия другого
// владельца (смена пользователя в том же браузере) не переиспользуется.
func (s *Sessions) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(session.CookieName); err == nil {
				id = c.Value
			}
			owner := apimiddleware.SubjectFromContext(r.Context())

			sess, created, err := s.provider.GetOrCreate(r.Context(), id, owner)
			if err != nil {
				s.logger.Error("Ошибка создания сессии",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				http.Error(w, "Ошибка создания сессии", http.StatusInternalServerError)
				return
			}

			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     session.CookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					Secure:   s.secure,
					SameSite: http.SameSiteLaxMode,
				})
				s.logger.Debug("Новая сессия",
					slog.String("session_id", sess.ID),
					slog.Bool("had_cookie", id != ""),
				)
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext извлекает сессию из контекста запроса.
// Возвращает nil, если запрос не прошёл через Sessions middleware.
func SessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(ContextKeySession).(*session.Session)
	return sess
}
