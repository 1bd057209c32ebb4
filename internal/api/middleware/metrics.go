// metrics.go: Prometheus HTTP метрики castadmin:
// oca_http_requests_total, oca_http_request_duration_seconds.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/castadmin/internal/tablecfg"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oca_http_requests_total",
			Help: "Общее количество HTTP-запросов к castadmin",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oca_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к castadmin в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware собирает количество и длительность запросов.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, strconv.Itoa(wrapped.statusCode)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(time.Since(start).Seconds())
		})
	}
}

// metricsResponseWriter: обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет идентификаторы и имена в пути шаблонами,
// чтобы число значений лейбла path оставалось ограниченным:
//
//	/admin/events/{id}/access/rows/3 → /admin/events/{id}/access/rows/{n}
//	/admin/tables/events/filters/status → /admin/tables/{resource}/filters/{name}
func normalizePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return path
	}

	switch {
	case parts[0] == "static":
		return "/static/*"
	case parts[0] == "admin" && parts[1] == "tables" && len(parts) >= 3:
		if _, ok := tablecfg.Lookup(tablecfg.Resource(parts[2])); ok {
			parts[2] = "{resource}"
		} else {
			parts[2] = "{unknown}"
		}
		// filters/{name}, profiles/{name}
		for i := 3; i+1 < len(parts); i++ {
			if (parts[i] == "filters" || parts[i] == "profiles") && !isTableVerb(parts[i+1]) {
				parts[i+1] = "{name}"
			}
		}
	case parts[0] == "admin" && (parts[1] == "events" || parts[1] == "series") && len(parts) >= 4 && parts[3] == "access":
		parts[2] = "{id}"
		if len(parts) >= 6 && parts[4] == "rows" {
			parts[5] = "{n}"
		}
	case parts[0] == "admin" && parts[1] == "notifications" && len(parts) >= 3:
		parts[2] = "{id}"
	case parts[0] == "admin" && parts[1] == "lti" && len(parts) >= 4 && parts[2] == "events":
		parts[3] = "{id}"
	case parts[0] == "api" && len(parts) >= 5 && parts[2] == "lti" && parts[3] == "events":
		parts[4] = "{id}"
	}
	return "/" + strings.Join(parts, "/")
}

// isTableVerb: фиксированные сегменты после filters/ и profiles/.
func isTableVerb(s string) bool {
	switch s {
	case "text", "reset", "cancel":
		return true
	}
	return false
}
