package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health/live", "/health/live"},
		{"/metrics", "/metrics"},
		{"/static/css/app.css", "/static/*"},
		{"/admin/tables/events", "/admin/tables/{resource}"},
		{"/admin/tables/nope/sort", "/admin/tables/{unknown}/sort"},
		{"/admin/tables/series/filters/status", "/admin/tables/{resource}/filters/{name}"},
		{"/admin/tables/series/filters/status/remove", "/admin/tables/{resource}/filters/{name}/remove"},
		{"/admin/tables/series/filters/text", "/admin/tables/{resource}/filters/text"},
		{"/admin/tables/events/profiles/mine/load", "/admin/tables/{resource}/profiles/{name}/load"},
		{"/admin/tables/events/profiles/cancel", "/admin/tables/{resource}/profiles/cancel"},
		{"/admin/events/abc-123/access", "/admin/events/{id}/access"},
		{"/admin/series/s1/access/rows/4/remove", "/admin/series/{id}/access/rows/{n}/remove"},
		{"/admin/notifications/x/dismiss", "/admin/notifications/{id}/dismiss"},
		{"/admin/lti/events/e1/retract", "/admin/lti/events/{id}/retract"},
		{"/api/v1/lti/events/e1", "/api/v1/lti/events/{id}"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, ожидалось %q", tt.path, got, tt.want)
		}
	}
}

func TestMetricsMiddleware_PassesStatus(t *testing.T) {
	h := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/tables/events", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("статус = %d, ожидался 418", rec.Code)
	}
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	h := RequestLogger(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Body.String() != "ok" {
		t.Errorf("тело = %q", rec.Body.String())
	}
}
