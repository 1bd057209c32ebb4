// Пакет occlient: HTTP-клиент REST API платформы видеозаписи лекций.
// Поддерживает Basic-аутентификацию и TLS с кастомным CA (OCA_BACKEND_CA_CERT_PATH).
// Списочные endpoints возвращают конверт {total, offset, count, limit, results}.
package occlient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tidwall/gjson"
)

var (
	// ErrUnexpectedStatus: backend вернул статус вне диапазона 2xx.
	ErrUnexpectedStatus = errors.New("неожиданный статус ответа backend")
	// ErrNotFound: backend вернул 404.
	ErrNotFound = errors.New("ресурс backend не найден")
	// ErrMalformed: ответ backend не содержит ожидаемых полей.
	ErrMalformed = errors.New("некорректный ответ backend")
)

// Метрики запросов к backend.
var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oca_backend_requests_total",
			Help: "Общее количество запросов к REST API backend'а",
		},
		[]string{"op", "status"},
	)

	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oca_backend_request_duration_seconds",
			Help:    "Длительность запросов к REST API backend'а в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

// Options: параметры клиента.
type Options struct {
	// BaseURL: адрес backend'а (например, https://develop.opencast.org).
	BaseURL string
	// User и Password: учётные данные Basic-аутентификации (опционально).
	User     string
	Password string
	// CACertPath: путь к CA-сертификату (пустая строка: системный пул).
	CACertPath string
	// Timeout: таймаут HTTP-запроса (0: 30 секунд).
	Timeout time.Duration
}

// Client: HTTP-клиент backend'а.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиента backend'а.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("адрес backend не задан")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("некорректный адрес backend %q: %w", opts.BaseURL, err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	if opts.CACertPath != "" {
		tlsConfig, err := buildTLSConfig(opts.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата backend: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат backend добавлен в пул доверия",
			slog.String("ca_cert", opts.CACertPath),
		)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		user:       opts.User,
		password:   opts.Password,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "backend_client")),
	}, nil
}

// BaseURL возвращает адрес backend'а без завершающего слэша.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}

// do выполняет запрос и возвращает тело ответа со статусом 2xx.
// op: короткое имя операции для метрик и логов.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, int, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, 0, fmt.Errorf("создание запроса %s: %w", op, err)
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	backendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		backendRequestsTotal.WithLabelValues(op, "error").Inc()
		return nil, 0, fmt.Errorf("запрос %s к %s: %w", op, path, err)
	}
	defer resp.Body.Close()
	backendRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("чтение ответа %s: %w", op, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, resp.StatusCode, fmt.Errorf("%s %s: %w", op, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Backend вернул ошибку",
			slog.String("op", op),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return nil, resp.StatusCode, fmt.Errorf("%s %s: %w (%d): %s", op, path, ErrUnexpectedStatus, resp.StatusCode, truncate(data, 256))
	}
	return data, resp.StatusCode, nil
}

// GetJSON выполняет GET и возвращает разобранный JSON-ответ.
func (c *Client) GetJSON(ctx context.Context, op, path string, query url.Values) (gjson.Result, error) {
	data, _, err := c.do(ctx, op, http.MethodGet, path, query, nil, "")
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%s: %w: невалидный JSON", op, ErrMalformed)
	}
	return gjson.ParseBytes(data), nil
}

// PostForm отправляет форму методом POST и возвращает тело ответа.
func (c *Client) PostForm(ctx context.Context, op, path string, form url.Values) ([]byte, error) {
	data, _, err := c.do(ctx, op, http.MethodPost, path, nil,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	return data, err
}

// PutForm отправляет форму методом PUT и возвращает тело ответа.
func (c *Client) PutForm(ctx context.Context, op, path string, form url.Values) ([]byte, error) {
	data, _, err := c.do(ctx, op, http.MethodPut, path, nil,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	return data, err
}

// PostMultipart отправляет multipart-тело (загрузка ассетов).
func (c *Client) PostMultipart(ctx context.Context, op, path string, body *bytes.Buffer, contentType string) ([]byte, error) {
	data, _, err := c.do(ctx, op, http.MethodPost, path, nil, body, contentType)
	return data, err
}

// Delete выполняет DELETE.
func (c *Client) Delete(ctx context.Context, op, path string) error {
	_, _, err := c.do(ctx, op, http.MethodDelete, path, nil, nil, "")
	return err
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
