package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"SN_DB_HOST":     "localhost",
		"SN_DB_NAME":     "novedades",
		"SN_DB_USER":     "novedades",
		"SN_DB_PASSWORD": "secret",
		"SN_OIDC_URL":    "https://sso.example.org",
	}
}

// resetEnvs очищает обязательные переменные перед подстановкой нового набора.
func resetEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k := range minimalEnvs() {
		os.Unsetenv(k)
	}
	setEnvs(t, envs)
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if cfg.DBMaxConns != 10 {
		t.Errorf("DBMaxConns = %d, ожидается 10", cfg.DBMaxConns)
	}
	if cfg.OIDCRealm != "salud-ocupacional" {
		t.Errorf("OIDCRealm = %q, ожидается salud-ocupacional", cfg.OIDCRealm)
	}
	if cfg.JWTLeeway != 30*time.Second {
		t.Errorf("JWTLeeway = %v, ожидается 30s", cfg.JWTLeeway)
	}
	if cfg.Timezone == nil || cfg.Timezone.String() != "America/Bogota" {
		t.Errorf("Timezone = %v, ожидается America/Bogota", cfg.Timezone)
	}
	if cfg.MissingDatePolicy != MissingDateExclude {
		t.Errorf("MissingDatePolicy = %q, ожидается exclude", cfg.MissingDatePolicy)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v, ожидается 30m", cfg.SessionTTL)
	}
	if cfg.SessionMax != 1000 {
		t.Errorf("SessionMax = %d, ожидается 1000", cfg.SessionMax)
	}
	if len(cfg.RoleNurseGroups) != 1 || cfg.RoleNurseGroups[0] != "so-enfermeria" {
		t.Errorf("RoleNurseGroups = %v, ожидается [so-enfermeria]", cfg.RoleNurseGroups)
	}
	if cfg.DephealthCheckInterval != 15*time.Second {
		t.Errorf("DephealthCheckInterval = %v, ожидается 15s", cfg.DephealthCheckInterval)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_JWTAutoDerive(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	expectedIssuer := "https://sso.example.org/realms/salud-ocupacional"
	if cfg.JWTIssuer != expectedIssuer {
		t.Errorf("JWTIssuer = %q, ожидается %q", cfg.JWTIssuer, expectedIssuer)
	}
	expectedJWKS := "https://sso.example.org/realms/salud-ocupacional/protocol/openid-connect/certs"
	if cfg.JWTJWKSURL != expectedJWKS {
		t.Errorf("JWTJWKSURL = %q, ожидается %q", cfg.JWTJWKSURL, expectedJWKS)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	policy := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(policy, []byte("p, admin, novedades, create\n"), 0o600); err != nil {
		t.Fatalf("запись политики: %v", err)
	}

	envs := minimalEnvs()
	envs["SN_PORT"] = "9090"
	envs["SN_LOG_LEVEL"] = "debug"
	envs["SN_LOG_FORMAT"] = "text"
	envs["SN_DB_SSL_MODE"] = "require"
	envs["SN_DB_MAX_CONNS"] = "24"
	envs["SN_ROLE_ADMIN_GROUPS"] = "admins, super-admins"
	envs["SN_ROLE_HR_GROUPS"] = "rrhh"
	envs["SN_AUTHZ_POLICY_PATH"] = policy
	envs["SN_TIMEZONE"] = "UTC"
	envs["SN_MISSING_DATE_POLICY"] = "Include"
	envs["SN_SESSION_TTL"] = "1h"
	envs["SN_SESSION_MAX"] = "50"
	envs["SN_SHUTDOWN_TIMEOUT"] = "10s"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, ожидается 9090", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.DBSSLMode != "require" {
		t.Errorf("DBSSLMode = %q, ожидается require", cfg.DBSSLMode)
	}
	if cfg.DBMaxConns != 24 {
		t.Errorf("DBMaxConns = %d, ожидается 24", cfg.DBMaxConns)
	}
	if len(cfg.RoleAdminGroups) != 2 || cfg.RoleAdminGroups[1] != "super-admins" {
		t.Errorf("RoleAdminGroups = %v, ожидается [admins super-admins]", cfg.RoleAdminGroups)
	}
	if len(cfg.RoleHRGroups) != 1 || cfg.RoleHRGroups[0] != "rrhh" {
		t.Errorf("RoleHRGroups = %v, ожидается [rrhh]", cfg.RoleHRGroups)
	}
	if cfg.AuthzPolicyPath != policy {
		t.Errorf("AuthzPolicyPath = %q, ожидается %q", cfg.AuthzPolicyPath, policy)
	}
	if cfg.Timezone != time.UTC && cfg.Timezone.String() != "UTC" {
		t.Errorf("Timezone = %v, ожидается UTC", cfg.Timezone)
	}
	if cfg.MissingDatePolicy != MissingDateInclude {
		t.Errorf("MissingDatePolicy = %q, ожидается include", cfg.MissingDatePolicy)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("SessionTTL = %v, ожидается 1h", cfg.SessionTTL)
	}
	if cfg.SessionMax != 50 {
		t.Errorf("SessionMax = %d, ожидается 50", cfg.SessionMax)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	for missing := range minimalEnvs() {
		t.Run(missing, func(t *testing.T) {
			envs := minimalEnvs()
			delete(envs, missing)
			resetEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() не вернул ошибку при отсутствии %s", missing)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"порт ноль", "SN_PORT", "0"},
		{"порт выше диапазона", "SN_PORT", "70000"},
		{"порт не число", "SN_PORT", "abc"},
		{"уровень логов", "SN_LOG_LEVEL", "verbose"},
		{"формат логов", "SN_LOG_FORMAT", "xml"},
		{"режим SSL", "SN_DB_SSL_MODE", "prefer"},
		{"размер пула ноль", "SN_DB_MAX_CONNS", "0"},
		{"размер пула не число", "SN_DB_MAX_CONNS", "many"},
		{"часовой пояс", "SN_TIMEZONE", "Marte/Olympus"},
		{"политика дат", "SN_MISSING_DATE_POLICY", "sometimes"},
		{"длительность сессии", "SN_SESSION_TTL", "abc"},
		{"размер сессий", "SN_SESSION_MAX", "0"},
		{"файл политики", "SN_AUTHZ_POLICY_PATH", "/nonexistent/policy.csv"},
		{"leeway", "SN_JWT_LEEWAY", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs[tt.key] = tt.value
			resetEnvs(t, envs)

			if _, err := Load(); err == nil {
				t.Errorf("Load() не вернул ошибку при %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_OIDCURLTrailingSlash(t *testing.T) {
	envs := minimalEnvs()
	envs["SN_OIDC_URL"] = "https://sso.example.org/"
	resetEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.OIDCURL != "https://sso.example.org" {
		t.Errorf("OIDCURL = %q, ожидается без trailing slash", cfg.OIDCURL)
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.example.com",
		DBPort:     5432,
		DBName:     "novedades",
		DBUser:     "user",
		DBPassword: "pass",
		DBSSLMode:  "disable",
	}
	expected := "host=db.example.com port=5432 dbname=novedades user=user password=pass sslmode=disable"
	if dsn := cfg.DatabaseDSN(); dsn != expected {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", dsn, expected)
	}
	if u := cfg.DatabaseURL(); u != "postgres://db.example.com:5432/novedades" {
		t.Errorf("DatabaseURL() = %q, учётные данные не должны попадать в URL", u)
	}
}

func TestSetupLogger(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		t.Run(format, func(t *testing.T) {
			logger := SetupLogger(&Config{LogLevel: slog.LevelInfo, LogFormat: format})
			if logger == nil {
				t.Error("SetupLogger() вернул nil")
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"so-admins", []string{"so-admins"}},
		{"so-admins, rrhh", []string{"so-admins", "rrhh"}},
		{"so-admins,,rrhh,", []string{"so-admins", "rrhh"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseCSV(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("parseCSV(%q) = %v, ожидается %v", tt.input, result, tt.expected)
			}
			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("parseCSV(%q)[%d] = %q, ожидается %q", tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}
