package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRequestLogger_OperatorAndRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			claims := &AuthClaims{Subject: "u-7", Role: "enfermeria"}
			next.ServeHTTP(w, req.WithContext(WithClaims(req.Context(), claims)))
		})
	})
	r.Delete("/api/v1/novedades/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/novedades/abc", nil)
	req.Header.Set(SessionHeader, "tab-2")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("запись журнала не JSON: %v (%s)", err, buf.String())
	}

	want := map[string]any{
		"level":   "WARN",
		"route":   "/api/v1/novedades/{id}",
		"path":    "/api/v1/novedades/abc",
		"subject": "u-7",
		"role":    "enfermeria",
		"tab":     "tab-2",
	}
	for key, val := range want {
		if entry[key] != val {
			t.Errorf("%s = %v, ожидается %v", key, entry[key], val)
		}
	}
	if status, _ := entry["status"].(float64); status != http.StatusForbidden {
		t.Errorf("status = %v, ожидается 403", entry["status"])
	}
}

func TestRequestLogger_Anonymous(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("запись журнала не JSON: %v", err)
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, ожидается INFO", entry["level"])
	}
	if _, ok := entry["subject"]; ok {
		t.Error("анонимный запрос не должен содержать subject")
	}
	if n, _ := entry["bytes"].(float64); n != 2 {
		t.Errorf("bytes = %v, ожидается 2", entry["bytes"])
	}
}
