package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	status string
}

func (s stubChecker) CheckReady() (string, string) {
	return s.status, "проверка " + s.status
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		expected string
	}{
		{"all ok", []string{"ok", "ok"}, "ok"},
		{"one degraded", []string{"ok", "degraded"}, "degraded"},
		{"fail wins", []string{"degraded", "fail"}, "fail"},
		{"empty", nil, "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overallStatus(tt.statuses...); got != tt.expected {
				t.Errorf("overallStatus(%v) = %s, ожидалось %s", tt.statuses, got, tt.expected)
			}
		})
	}
}

func TestHealthReady(t *testing.T) {
	tests := []struct {
		name     string
		pg, oidc ReadinessChecker
		status   int
		overall  string
	}{
		{"ok", stubChecker{"ok"}, stubChecker{"ok"}, http.StatusOK, "ok"},
		{"degraded oidc", stubChecker{"ok"}, stubChecker{"degraded"}, http.StatusOK, "degraded"},
		{"pg down", stubChecker{"fail"}, stubChecker{"ok"}, http.StatusServiceUnavailable, "fail"},
		{"not initialized", nil, nil, http.StatusServiceUnavailable, "fail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.pg, tt.oidc)
			rec := httptest.NewRecorder()
			h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tt.status {
				t.Errorf("ожидался статус %d, получен %d", tt.status, rec.Code)
			}
			var resp healthReadyResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("невалидный JSON: %v", err)
			}
			if resp.Status != tt.overall {
				t.Errorf("status = %s, ожидался %s", resp.Status, tt.overall)
			}
			if resp.Service != serviceName {
				t.Errorf("service = %s", resp.Service)
			}
		})
	}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil, nil).HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ожидался статус 200, получен %d", rec.Code)
	}
}
