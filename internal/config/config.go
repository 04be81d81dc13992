// Пакет config — загрузка и валидация конфигурации сервиса учёта
// охраны труда из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // часовые пояса в образах без системной базы tzdata
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Политики обработки записей без даты при активном диапазоне дат.
const (
	MissingDateExclude = "exclude"
	MissingDateInclude = "include"
)

// Config содержит все параметры конфигурации сервиса.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Размер пула; одна загрузка экрана занимает до 6 соединений
	DBMaxConns int

	// --- OIDC / JWT ---

	// URL провайдера идентификации (например, https://sso.example.org)
	OIDCURL string
	// Имя realm провайдера
	OIDCRealm string
	// Issuer JWT (авто-вычисляется из OIDCURL, если не задан)
	JWTIssuer string
	// URL JWKS endpoint (авто-вычисляется из OIDCURL, если не задан)
	JWTJWKSURL string
	// Допуск расхождения часов при проверке exp/nbf
	JWTLeeway time.Duration
	// Интервал обновления JWKS
	JWKSRefreshInterval time.Duration
	// Таймаут HTTP-клиента для загрузки JWKS
	JWKSClientTimeout time.Duration

	// --- Маппинг групп → ролей ---

	RoleAdminGroups    []string
	RoleHRGroups       []string
	RoleNurseGroups    []string
	RoleReadonlyGroups []string

	// Путь к CSV-файлу политики доступа (опционально, иначе встроенная)
	AuthzPolicyPath string

	// --- Предметная область ---

	// Часовой пояс для расчёта длительности отсутствия
	Timezone *time.Location
	// Обработка записей без даты при активном фильтре (exclude, include)
	MissingDatePolicy string

	// --- Рабочие сессии ---

	// Время жизни рабочей сессии оператора без обращений
	SessionTTL time.Duration
	// Максимальное число одновременно хранимых сессий
	SessionMax int

	// --- Мониторинг зависимостей ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// SN_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("SN_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("SN_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("SN_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("SN_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("SN_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("SN_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("SN_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	if cfg.DBHost, err = getEnvRequired("SN_DB_HOST"); err != nil {
		return nil, err
	}
	cfg.DBPort, err = getEnvInt("SN_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("SN_DB_PORT: %w", err)
	}
	if cfg.DBName, err = getEnvRequired("SN_DB_NAME"); err != nil {
		return nil, err
	}
	if cfg.DBUser, err = getEnvRequired("SN_DB_USER"); err != nil {
		return nil, err
	}
	if cfg.DBPassword, err = getEnvRequired("SN_DB_PASSWORD"); err != nil {
		return nil, err
	}

	cfg.DBSSLMode = getEnvDefault("SN_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("SN_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	cfg.DBMaxConns, err = getEnvInt("SN_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("SN_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 {
		return nil, fmt.Errorf("SN_DB_MAX_CONNS: значение %d должно быть положительным", cfg.DBMaxConns)
	}

	// --- OIDC / JWT ---

	cfg.OIDCURL, err = getEnvRequired("SN_OIDC_URL")
	if err != nil {
		return nil, err
	}
	cfg.OIDCURL = strings.TrimRight(cfg.OIDCURL, "/")
	cfg.OIDCRealm = getEnvDefault("SN_OIDC_REALM", "salud-ocupacional")

	cfg.JWTIssuer = getEnvDefault("SN_JWT_ISSUER",
		fmt.Sprintf("%s/realms/%s", cfg.OIDCURL, cfg.OIDCRealm))
	cfg.JWTJWKSURL = getEnvDefault("SN_JWT_JWKS_URL",
		fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs", cfg.OIDCURL, cfg.OIDCRealm))

	cfg.JWTLeeway, err = getEnvDuration("SN_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SN_JWT_LEEWAY: %w", err)
	}
	cfg.JWKSRefreshInterval, err = getEnvDuration("SN_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("SN_JWKS_REFRESH_INTERVAL: %w", err)
	}
	cfg.JWKSClientTimeout, err = getEnvDuration("SN_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SN_JWKS_CLIENT_TIMEOUT: %w", err)
	}

	// --- Маппинг групп → ролей ---

	cfg.RoleAdminGroups = parseCSV(getEnvDefault("SN_ROLE_ADMIN_GROUPS", "so-admins"))
	cfg.RoleHRGroups = parseCSV(getEnvDefault("SN_ROLE_HR_GROUPS", "so-talento-humano"))
	cfg.RoleNurseGroups = parseCSV(getEnvDefault("SN_ROLE_NURSE_GROUPS", "so-enfermeria"))
	cfg.RoleReadonlyGroups = parseCSV(getEnvDefault("SN_ROLE_READONLY_GROUPS", "so-consulta"))

	cfg.AuthzPolicyPath = getEnvDefault("SN_AUTHZ_POLICY_PATH", "")
	if cfg.AuthzPolicyPath != "" {
		if _, statErr := os.Stat(cfg.AuthzPolicyPath); statErr != nil {
			return nil, fmt.Errorf("SN_AUTHZ_POLICY_PATH: файл политики недоступен: %w", statErr)
		}
	}

	// --- Предметная область ---

	tz := getEnvDefault("SN_TIMEZONE", "America/Bogota")
	cfg.Timezone, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("SN_TIMEZONE: неизвестный часовой пояс %q", tz)
	}

	cfg.MissingDatePolicy = strings.ToLower(getEnvDefault("SN_MISSING_DATE_POLICY", MissingDateExclude))
	if cfg.MissingDatePolicy != MissingDateExclude && cfg.MissingDatePolicy != MissingDateInclude {
		return nil, fmt.Errorf("SN_MISSING_DATE_POLICY: недопустимое значение %q, допустимые: exclude, include", cfg.MissingDatePolicy)
	}

	// --- Рабочие сессии ---

	cfg.SessionTTL, err = getEnvDuration("SN_SESSION_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("SN_SESSION_TTL: %w", err)
	}
	cfg.SessionMax, err = getEnvInt("SN_SESSION_MAX", 1000)
	if err != nil {
		return nil, fmt.Errorf("SN_SESSION_MAX: %w", err)
	}
	if cfg.SessionMax < 1 {
		return nil, fmt.Errorf("SN_SESSION_MAX: значение %d должно быть положительным", cfg.SessionMax)
	}

	// --- Мониторинг зависимостей ---

	cfg.DephealthGroup = getEnvDefault("SN_DEPHEALTH_GROUP", "salud-ocupacional")
	cfg.DephealthCheckInterval, err = getEnvDuration("SN_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SN_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("SN_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("SN_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL без учётных данных
// (для меток метрик зависимостей).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%d/%s", c.DBHost, c.DBPort, c.DBName)
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

func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

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
