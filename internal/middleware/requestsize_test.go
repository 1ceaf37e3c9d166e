package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		maxBytes   int64
		body       string
		wantStatus int
	}{
		{
			name:       "body under limit",
			maxBytes:   64,
			body:       `{"text":"call dentist"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "declared length over limit",
			maxBytes:   8,
			body:       strings.Repeat("x", 64),
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "zero max falls back to default",
			maxBytes:   0,
			body:       `{"text":"call dentist"}`,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			middleware := MaxRequestSize(tt.maxBytes)(handler)

			req := httptest.NewRequest("POST", "/test", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			middleware.ServeHTTP(w, req)

			resp := w.Result()
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
		})
	}
}
