package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthCheck_BasicMode(t *testing.T) {
	t.Parallel()

	// Basic mode reports liveness without touching any dependency.
	checker := NewHealthChecker(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	checker.HealthCheck(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Status != "healthy" {
		t.Errorf("status = %q, want healthy", response.Status)
	}
	if response.Checks != nil {
		t.Errorf("checks = %v, want none in basic mode", response.Checks)
	}
	if response.Timestamp == "" {
		t.Error("timestamp missing")
	}
}

func TestHealthCheck_ExtendedMode_UnwiredDeps(t *testing.T) {
	t.Parallel()

	// Without a database handle the extended check must fail, while the
	// optional dependencies report "not configured" rather than failing.
	checker := NewHealthCheckerWithDeps(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil)
	w := httptest.NewRecorder()
	checker.HealthCheck(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}

	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Status != "unhealthy" {
		t.Errorf("status = %q, want unhealthy", response.Status)
	}
	if !strings.HasPrefix(response.Checks["database"], "unhealthy") {
		t.Errorf("database check = %q, want unhealthy prefix", response.Checks["database"])
	}
	if response.Checks["redis"] != "not configured" {
		t.Errorf("redis check = %q, want 'not configured'", response.Checks["redis"])
	}
	if response.Checks["rabbitmq"] != "not configured" {
		t.Errorf("rabbitmq check = %q, want 'not configured'", response.Checks["rabbitmq"])
	}
}

func TestOverallStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		checks map[string]string
		want   string
	}{
		{
			name: "all healthy",
			checks: map[string]string{
				"database": "healthy",
				"redis":    "healthy",
				"rabbitmq": "healthy",
			},
			want: "healthy",
		},
		{
			name: "not configured does not count against health",
			checks: map[string]string{
				"database": "healthy",
				"redis":    "not configured",
				"rabbitmq": "not configured",
			},
			want: "healthy",
		},
		{
			name: "one unhealthy dependency fails the check",
			checks: map[string]string{
				"database": "healthy",
				"redis":    "unhealthy: connection refused",
				"rabbitmq": "healthy",
			},
			want: "unhealthy",
		},
		{
			name:   "no checks",
			checks: map[string]string{},
			want:   "healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := overallStatus(tt.checks); got != tt.want {
				t.Errorf("overallStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}
