package middleware

import (
	"context"
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
	"github.com/golang-jwt/jwt/v5"

	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/rbac"
)

const (
	testKeyID  = "test-key-sn"
	testIssuer = "https://sso.test/realms/salud-ocupacional"
)

// generateTestKey генерирует RSA ключ для тестов.
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	return key
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	}
	data, _ := json.Marshal(jwks)
	return data
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testGroups() rbac.GroupMapping {
	return rbac.GroupMapping{
		Admin:    []string{"so-admins"},
		HR:       []string{"so-talento-humano"},
		Nurse:    []string{"so-enfermeria"},
		Readonly: []string{"so-consulta"},
	}
}

func newTestJWTAuth(t *testing.T, key *rsa.PrivateKey) *JWTAuth {
	t.Helper()
	kf, err := keyfunc.NewJWKSetJSON(buildJWKSetJSON(&key.PublicKey, testKeyID))
	if err != nil {
		t.Fatalf("не удалось создать keyfunc: %v", err)
	}
	return NewJWTAuthWithKeyfunc(kf, testIssuer, testGroups(), testLogger())
}

// signToken подписывает claims тестовым ключом.
func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	tokenStr, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return tokenStr
}

// generateUserToken генерирует JWT оператора.
func generateUserToken(t *testing.T, key *rsa.PrivateKey, sub string, roles, groups []string, expired bool) string {
	t.Helper()

	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}

	claims := jwt.MapClaims{
		"sub":                sub,
		"preferred_username": "operadora",
		"email":              "operadora@test.co",
		"iss":                testIssuer,
		"exp":                jwt.NewNumericDate(exp),
		"nbf":                jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		"iat":                jwt.NewNumericDate(time.Now()),
	}
	if len(roles) > 0 {
		claims["realm_access"] = map[string]any{"roles": roles}
	}
	if len(groups) > 0 {
		claims["groups"] = groups
	}
	return signToken(t, key, claims)
}

// serveWithToken прогоняет запрос через middleware и возвращает claims,
// увиденные обработчиком, и код ответа.
func serveWithToken(t *testing.T, auth *JWTAuth, header string) (*AuthClaims, int) {
	t.Helper()
	var got *AuthClaims
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return got, rec.Code
}

// --- Тесты JWT Middleware ---

func TestJWTAuth_ValidUserToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tokenStr := generateUserToken(t, key, "user-123", nil, []string{"so-enfermeria"}, false)
	claims, code := serveWithToken(t, auth, "Bearer "+tokenStr)

	if code != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d", code)
	}
	if claims == nil {
		t.Fatal("claims не найдены в контексте")
	}
	if claims.Subject != "user-123" {
		t.Errorf("ожидался sub=user-123, получен %s", claims.Subject)
	}
	if claims.PreferredUsername != "operadora" {
		t.Errorf("ожидался username=operadora, получен %s", claims.PreferredUsername)
	}
	if claims.Email != "operadora@test.co" {
		t.Errorf("ожидался email=operadora@test.co, получен %s", claims.Email)
	}
	if claims.Role != rbac.RoleNurse {
		t.Errorf("ожидалась роль %s, получена %s", rbac.RoleNurse, claims.Role)
	}
}

func TestJWTAuth_MissingToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	if _, code := serveWithToken(t, auth, ""); code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", code)
	}
}

func TestJWTAuth_ExpiredToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tokenStr := generateUserToken(t, key, "user-123", nil, []string{"so-admins"}, true)
	if _, code := serveWithToken(t, auth, "Bearer "+tokenStr); code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", code)
	}
}

func TestJWTAuth_InvalidFormat(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tests := []struct {
		name   string
		header string
	}{
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"no bearer prefix", "token123"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer abc.def.ghi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, code := serveWithToken(t, auth, tt.header); code != http.StatusUnauthorized {
				t.Errorf("ожидался статус 401, получен %d", code)
			}
		})
	}
}

func TestJWTAuth_ForeignKey(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	other := generateTestKey(t)
	tokenStr := generateUserToken(t, other, "user-123", nil, []string{"so-admins"}, false)
	if _, code := serveWithToken(t, auth, "Bearer "+tokenStr); code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", code)
	}
}

func TestJWTAuth_WrongIssuer(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tokenStr := signToken(t, key, jwt.MapClaims{
		"sub":    "user-123",
		"groups": []string{"so-admins"},
		"iss":    "https://other-sso.test/realms/other",
		"exp":    jwt.NewNumericDate(time.Now().Add(time.Hour)),
		"iat":    jwt.NewNumericDate(time.Now()),
	})
	if _, code := serveWithToken(t, auth, "Bearer "+tokenStr); code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", code)
	}
}

func TestJWTAuth_MissingSubject(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	tokenStr := signToken(t, key, jwt.MapClaims{
		"groups": []string{"so-admins"},
		"iss":    testIssuer,
		"exp":    jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if _, code := serveWithToken(t, auth, "Bearer "+tokenStr); code != http.StatusUnauthorized {
		t.Errorf("ожидался статус 401, получен %d", code)
	}
}

func TestJWTAuth_GroupMapping(t *testing.T) {
	tests := []struct {
		name         string
		groups       []string
		roles        []string
		expectedRole string
	}{
		{"admin group", []string{"so-admins"}, nil, rbac.RoleAdmin},
		{"hr group", []string{"so-talento-humano"}, nil, rbac.RoleHR},
		{"readonly group", []string{"so-consulta"}, nil, rbac.RoleReadonly},
		{"nurse and hr", []string{"so-enfermeria", "so-talento-humano"}, nil, rbac.RoleHR},
		{"all groups", []string{"so-consulta", "so-admins", "so-enfermeria"}, nil, rbac.RoleAdmin},
		{"unknown group", []string{"other-group"}, nil, ""},
		{"no groups", nil, nil, ""},
		{"realm roles only", nil, []string{"enfermeria", "default-roles"}, rbac.RoleNurse},
		{"realm roles highest", nil, []string{"consulta", "talento_humano"}, rbac.RoleHR},
		{"groups win over realm roles", []string{"so-consulta"}, []string{"admin"}, rbac.RoleReadonly},
	}

	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenStr := generateUserToken(t, key, "user-123", tt.roles, tt.groups, false)
			claims, code := serveWithToken(t, auth, "Bearer "+tokenStr)
			if code != http.StatusOK {
				t.Fatalf("ожидался статус 200, получен %d", code)
			}
			if claims.Role != tt.expectedRole {
				t.Errorf("ожидалась роль %q, получена %q", tt.expectedRole, claims.Role)
			}
		})
	}
}

// --- Тесты RBAC middleware ---

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		claims   *AuthClaims
		expected int
	}{
		{"has role", &AuthClaims{Subject: "u", Role: rbac.RoleAdmin}, http.StatusOK},
		{"missing role", &AuthClaims{Subject: "u", Role: rbac.RoleReadonly}, http.StatusForbidden},
		{"no role", &AuthClaims{Subject: "u"}, http.StatusForbidden},
		{"no claims", nil, http.StatusUnauthorized},
	}

	handler := RequireRole(rbac.RoleAdmin, rbac.RoleHR)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.claims != nil {
				ctx = WithClaims(ctx, tt.claims)
			}
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.expected {
				t.Errorf("ожидался статус %d, получен %d", tt.expected, rec.Code)
			}
		})
	}
}

func TestClaimsFromContext_Empty(t *testing.T) {
	if claims := ClaimsFromContext(context.Background()); claims != nil {
		t.Error("ожидался nil для пустого контекста")
	}
}

func TestOIDCReadinessChecker(t *testing.T) {
	key := generateTestKey(t)
	jwks := buildJWKSetJSON(&key.PublicKey, testKeyID)

	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"ok", http.StatusOK, string(jwks), "ok"},
		{"no keys", http.StatusOK, `{"keys":[]}`, "degraded"},
		{"bad json", http.StatusOK, `not json`, "degraded"},
		{"server error", http.StatusInternalServerError, ``, "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			status, msg := NewOIDCReadinessChecker(srv.URL, time.Second).CheckReady()
			if status != tt.expected {
				t.Errorf("ожидался статус %s, получен %s (%s)", tt.expected, status, msg)
			}
		})
	}
}
