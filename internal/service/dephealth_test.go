// dephealth_test.go: unit-тесты сборки мониторинга зависимостей.
package service

import (
	"log/slog"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestBackendHealthPath проверяет путь health endpoint платформы.
func TestBackendHealthPath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "корень", input: "https://develop.opencast.org", want: "/services/health.json"},
		{name: "корень со слешем", input: "https://develop.opencast.org/", want: "/services/health.json"},
		{name: "префикс", input: "https://lms.example.com/opencast", want: "/opencast/services/health.json"},
		{name: "префикс со слешем", input: "http://10.0.0.1:8080/oc/", want: "/oc/services/health.json"},
		{name: "некорректный URL", input: "://bad", want: "/services/health.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := backendHealthPath(tt.input); got != tt.want {
				t.Errorf("backendHealthPath(%q) = %q, ожидалось %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestURLPath проверяет извлечение path с fallback.
func TestURLPath(t *testing.T) {
	if got := urlPath("https://kc.example.com/realms/r/protocol/openid-connect/certs", "/health"); got != "/realms/r/protocol/openid-connect/certs" {
		t.Errorf("неожиданный path JWKS: %q", got)
	}
	if got := urlPath("https://kc.example.com", "/health"); got != "/health" {
		t.Errorf("ожидался fallback, получено %q", got)
	}
}

// TestNewDephealthService_Dependencies проверяет набор зависимостей
// в зависимости от конфигурации.
func TestNewDephealthService_Dependencies(t *testing.T) {
	tests := []struct {
		name string
		cfg  DephealthConfig
		want []string
	}{
		{
			name: "только backend",
			cfg:  DephealthConfig{BackendURL: "https://develop.opencast.org"},
			want: []string{DepBackend},
		},
		{
			name: "backend и JWKS",
			cfg: DephealthConfig{
				BackendURL:    "https://develop.opencast.org",
				JWKSURL:       "https://kc.example.com/realms/r/protocol/openid-connect/certs",
				TLSSkipVerify: true,
			},
			want: []string{DepBackend, DepJWKS},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ServiceID = "castadmin"
			tt.cfg.Group = "castadmin"
			tt.cfg.CheckInterval = 15 * time.Second

			ds, err := NewDephealthServiceWithRegisterer(tt.cfg, testLogger(), prometheus.NewRegistry())
			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if got := ds.Dependencies(); !slices.Equal(got, tt.want) {
				t.Errorf("зависимости %v, ожидалось %v", got, tt.want)
			}
		})
	}
}
