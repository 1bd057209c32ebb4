// Пакет config: загрузка и валидация конфигурации castadmin
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации castadmin.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- Backend платформы ---

	// Адрес REST API платформы
	BackendURL string
	// Учётные данные Basic-аутентификации (опционально)
	BackendUser     string
	BackendPassword string
	// Таймаут запроса к backend
	BackendTimeout time.Duration
	// Путь к CA-сертификату backend (опционально)
	BackendCACertPath string
	// API планирования LTI по умолчанию (admin, external)
	SchedulingAPI string
	// Workflow новых событий LTI
	LTIScheduleWorkflow string
	LTIUploadWorkflow   string

	// --- Таблицы и сессии ---

	// Размер страницы таблиц по умолчанию
	DefaultPageSize int
	// Интервал опроса статуса обработки
	PollInterval time.Duration
	// Время показа временных уведомлений
	NotificationTTL time.Duration
	// Максимум одновременных сессий
	SessionCacheSize int
	// Время жизни неактивной сессии
	SessionTTL time.Duration
	// Кэш справочников ACL
	LookupCacheSize int
	LookupCacheTTL  time.Duration

	// --- PostgreSQL (профили фильтров и снимки состояния) ---

	// Включает хранение профилей и состояния в PostgreSQL
	PersistEnabled bool
	DBHost         string
	DBPort         int
	DBName         string
	DBUser         string
	DBPassword     string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- JWT (опционально: включается заданием JWKS URL) ---

	JWTJWKSURL string
	JWTIssuer  string
	JWTLeeway  time.Duration
	// Claim со списком ролей
	JWTRolesClaim string
	// Роли, которым разрешено редактирование ACL
	ACLEditRoles []string

	// --- Мониторинг зависимостей ---

	// Группа сервиса в topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// OCA_PORT: порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("OCA_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("OCA_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("OCA_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// OCA_LOG_LEVEL: уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("OCA_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("OCA_LOG_LEVEL: %w", err)
	}

	// OCA_LOG_FORMAT: формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("OCA_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("OCA_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- Backend ---

	// OCA_BACKEND_URL: обязательный
	cfg.BackendURL, err = getEnvRequired("OCA_BACKEND_URL")
	if err != nil {
		return nil, err
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	cfg.BackendUser = getEnvDefault("OCA_BACKEND_USER", "")
	cfg.BackendPassword = getEnvDefault("OCA_BACKEND_PASSWORD", "")

	// OCA_BACKEND_TIMEOUT: таймаут запросов (по умолчанию 30s)
	cfg.BackendTimeout, err = getEnvDuration("OCA_BACKEND_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OCA_BACKEND_TIMEOUT: %w", err)
	}

	cfg.BackendCACertPath = getEnvDefault("OCA_BACKEND_CA_CERT_PATH", "")

	// OCA_SCHEDULING_API: API планирования (по умолчанию admin)
	cfg.SchedulingAPI = getEnvDefault("OCA_SCHEDULING_API", "admin")
	if cfg.SchedulingAPI != "admin" && cfg.SchedulingAPI != "external" {
		return nil, fmt.Errorf("OCA_SCHEDULING_API: недопустимое значение %q, допустимые: admin, external", cfg.SchedulingAPI)
	}

	cfg.LTIScheduleWorkflow = getEnvDefault("OCA_LTI_WORKFLOW_SCHEDULE", "schedule-and-upload")
	cfg.LTIUploadWorkflow = getEnvDefault("OCA_LTI_WORKFLOW_UPLOAD", "upload")

	// --- Таблицы и сессии ---

	// OCA_DEFAULT_PAGE_SIZE: размер страницы (по умолчанию 10)
	cfg.DefaultPageSize, err = getEnvInt("OCA_DEFAULT_PAGE_SIZE", 10)
	if err != nil {
		return nil, fmt.Errorf("OCA_DEFAULT_PAGE_SIZE: %w", err)
	}
	if cfg.DefaultPageSize < 1 || cfg.DefaultPageSize > 1000 {
		return nil, fmt.Errorf("OCA_DEFAULT_PAGE_SIZE: значение %d вне допустимого диапазона 1-1000", cfg.DefaultPageSize)
	}

	// OCA_POLL_INTERVAL: интервал опроса (по умолчанию 10s)
	cfg.PollInterval, err = getEnvDuration("OCA_POLL_INTERVAL", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OCA_POLL_INTERVAL: %w", err)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("OCA_POLL_INTERVAL: интервал должен быть положительным")
	}

	// OCA_NOTIFICATION_TTL: время показа уведомлений (по умолчанию 5s)
	cfg.NotificationTTL, err = getEnvDuration("OCA_NOTIFICATION_TTL", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OCA_NOTIFICATION_TTL: %w", err)
	}

	// OCA_SESSION_CACHE_SIZE: максимум сессий (по умолчанию 1000)
	cfg.SessionCacheSize, err = getEnvInt("OCA_SESSION_CACHE_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("OCA_SESSION_CACHE_SIZE: %w", err)
	}
	if cfg.SessionCacheSize < 1 {
		return nil, fmt.Errorf("OCA_SESSION_CACHE_SIZE: значение %d должно быть положительным", cfg.SessionCacheSize)
	}

	// OCA_SESSION_TTL: время жизни сессии (по умолчанию 8h)
	cfg.SessionTTL, err = getEnvDuration("OCA_SESSION_TTL", 8*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("OCA_SESSION_TTL: %w", err)
	}

	// OCA_LOOKUP_CACHE_SIZE: размер кэша справочников (по умолчанию 256)
	cfg.LookupCacheSize, err = getEnvInt("OCA_LOOKUP_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("OCA_LOOKUP_CACHE_SIZE: %w", err)
	}
	if cfg.LookupCacheSize < 1 {
		return nil, fmt.Errorf("OCA_LOOKUP_CACHE_SIZE: значение %d должно быть положительным", cfg.LookupCacheSize)
	}

	// OCA_LOOKUP_CACHE_TTL: время жизни справочников (по умолчанию 5m)
	cfg.LookupCacheTTL, err = getEnvDuration("OCA_LOOKUP_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("OCA_LOOKUP_CACHE_TTL: %w", err)
	}

	// --- PostgreSQL ---

	cfg.PersistEnabled, err = getEnvBool("OCA_PERSIST_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("OCA_PERSIST_ENABLED: %w", err)
	}
	if cfg.PersistEnabled {
		if err := loadDatabase(cfg); err != nil {
			return nil, err
		}
	}

	// --- JWT ---

	cfg.JWTJWKSURL = getEnvDefault("OCA_JWT_JWKS_URL", "")
	cfg.JWTIssuer = getEnvDefault("OCA_JWT_ISSUER", "")
	cfg.JWTLeeway, err = getEnvDuration("OCA_JWT_LEEWAY", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OCA_JWT_LEEWAY: %w", err)
	}
	cfg.JWTRolesClaim = getEnvDefault("OCA_JWT_ROLES_CLAIM", "roles")

	// OCA_ACL_EDIT_ROLES: роли редакторов ACL
	cfg.ACLEditRoles = parseCSV(getEnvDefault("OCA_ACL_EDIT_ROLES", "ROLE_ADMIN,ROLE_UI_EVENTS_DETAILS_ACL_EDIT"))

	// --- Мониторинг зависимостей ---

	cfg.DephealthGroup = getEnvDefault("OCA_DEPHEALTH_GROUP", "castadmin")

	// OCA_DEPHEALTH_CHECK_INTERVAL: интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("OCA_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OCA_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// OCA_SHUTDOWN_TIMEOUT: таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("OCA_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("OCA_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// loadDatabase читает параметры PostgreSQL. Вызывается только
// при включённом хранении.
func loadDatabase(cfg *Config) error {
	var err error

	cfg.DBHost, err = getEnvRequired("OCA_DB_HOST")
	if err != nil {
		return err
	}

	// OCA_DB_PORT: порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("OCA_DB_PORT", 5432)
	if err != nil {
		return fmt.Errorf("OCA_DB_PORT: %w", err)
	}

	cfg.DBName, err = getEnvRequired("OCA_DB_NAME")
	if err != nil {
		return err
	}
	cfg.DBUser, err = getEnvRequired("OCA_DB_USER")
	if err != nil {
		return err
	}
	cfg.DBPassword, err = getEnvRequired("OCA_DB_PASSWORD")
	if err != nil {
		return err
	}

	// OCA_DB_SSL_MODE: режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("OCA_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return fmt.Errorf("OCA_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}
	return nil
}

// AuthEnabled сообщает, включена ли проверка JWT.
func (c *Config) AuthEnabled() bool {
	return c.JWTJWKSURL != ""
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без учётных данных
// (метки topologymetrics).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
}

// MigrateURL возвращает URL базы для golang-migrate (драйвер pgx5).
func (c *Config) MigrateURL() string {
	return fmt.Sprintf(
		"pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
