package server

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"

	"github.com/bigkaa/castadmin/internal/api/handlers"
	"github.com/bigkaa/castadmin/internal/api/middleware"
	"github.com/bigkaa/castadmin/internal/lti"
	"github.com/bigkaa/castadmin/internal/session"
	"github.com/bigkaa/castadmin/internal/thunks"
	uihandlers "github.com/bigkaa/castadmin/internal/ui/handlers"
	uimiddleware "github.com/bigkaa/castadmin/internal/ui/middleware"
	"github.com/bigkaa/castadmin/internal/ui/render"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testHandlers(t *testing.T) Handlers {
	t.Helper()
	log := testLogger()
	sessions := session.NewManager(10, time.Hour, 10, nil, log)
	t.Cleanup(sessions.Close)
	registry := lti.NewRegistry(nil, lti.APIAdmin, lti.Options{}, 10, time.Hour, log)
	t.Cleanup(registry.Close)
	roles := []string{"ROLE_ADMIN"}

	return Handlers{
		API:           handlers.NewAPIHandler(handlers.NewHealthHandler(), registry, roles, log),
		Tables:        uihandlers.NewTablesHandler(thunks.NewLoader(nil, log), render.DefaultTemplates(), sessions, log),
		Access:        uihandlers.NewAccessHandler(nil, roles, time.Second, log),
		LTI:           uihandlers.NewLTIHandler(registry, roles, time.Second, time.Second, log),
		System:        uihandlers.NewSystemHandler(nil, log),
		Notifications: uihandlers.NewNotificationsHandler(log),
		Sessions:      uimiddleware.NewSessions(sessions, false, log),
	}
}

func testJWTAuth(t *testing.T) *middleware.JWTAuth {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	jwks, _ := json.Marshal(map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"kid": "server-test",
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	})
	kf, err := keyfunc.NewJWKSetJSON(jwks)
	if err != nil {
		t.Fatalf("не удалось создать keyfunc: %v", err)
	}
	return middleware.NewJWTAuthWithKeyfunc(kf, "", "roles", testLogger())
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouter_PublicRoutes(t *testing.T) {
	router := NewRouter(testLogger(), testHandlers(t), nil)

	tests := []struct {
		name     string
		target   string
		wantCode int
		location string
	}{
		{name: "liveness", target: "/health/live", wantCode: http.StatusOK},
		{name: "readiness без проверок", target: "/health/ready", wantCode: http.StatusOK},
		{name: "метрики", target: "/metrics", wantCode: http.StatusOK},
		{name: "статика", target: "/static/css/app.css", wantCode: http.StatusOK},
		{name: "корень", target: "/", wantCode: http.StatusFound, location: "/admin/"},
		{name: "стартовая страница", target: "/admin/", wantCode: http.StatusFound, location: homePath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(router, http.MethodGet, tt.target)
			if rec.Code != tt.wantCode {
				t.Fatalf("статус %d, ожидался %d", rec.Code, tt.wantCode)
			}
			if tt.location != "" && rec.Header().Get("Location") != tt.location {
				t.Errorf("Location %q, ожидался %q", rec.Header().Get("Location"), tt.location)
			}
		})
	}
}

func TestRouter_SessionCookie(t *testing.T) {
	router := NewRouter(testLogger(), testHandlers(t), nil)

	rec := serve(router, http.MethodGet, "/admin/")
	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("консоль должна выдавать cookie сессии")
	}

	if rec := serve(router, http.MethodGet, "/health/live"); len(rec.Result().Cookies()) != 0 {
		t.Error("health endpoints не должны создавать сессии")
	}
}

func TestRouter_JWTExclusions(t *testing.T) {
	router := NewRouter(testLogger(), testHandlers(t), testJWTAuth(t))

	tests := []struct {
		target   string
		wantCode int
	}{
		{"/health/live", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/static/js/app.js", http.StatusOK},
		{"/admin/", http.StatusUnauthorized},
		{"/admin/tables/events", http.StatusUnauthorized},
		{"/api/v1/lti/events?series=s1", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if rec := serve(router, http.MethodGet, tt.target); rec.Code != tt.wantCode {
				t.Errorf("статус %d, ожидался %d", rec.Code, tt.wantCode)
			}
		})
	}
}
