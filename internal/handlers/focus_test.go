package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/starcrunch/starcrunch-api/internal/middleware"
)

func newFocusRouter() *mux.Router {
	r := mux.NewRouter()
	handler := NewFocusHandler(nil, nil)
	handler.RegisterRoutes(r.PathPrefix("/focus").Subrouter())
	return r
}

func TestFocusHandler_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		withUser   bool
		wantStatus int
	}{
		{
			name:       "list without user",
			method:     http.MethodGet,
			path:       "/focus",
			withUser:   false,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "start without user",
			method:     http.MethodPost,
			path:       "/focus",
			body:       map[string]any{"duration_minutes": 25},
			withUser:   false,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "start with zero duration",
			method:     http.MethodPost,
			path:       "/focus",
			body:       map[string]any{"duration_minutes": 0},
			withUser:   true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "start with oversized duration",
			method:     http.MethodPost,
			path:       "/focus",
			body:       map[string]any{"duration_minutes": 500},
			withUser:   true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "complete with malformed session id",
			method:     http.MethodPost,
			path:       "/focus/not-a-uuid/complete",
			withUser:   true,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newFocusRouter()
			req := newTestRequest(tt.method, tt.path, tt.body)
			if tt.withUser {
				req = req.WithContext(middleware.SetUserInContext(req.Context(), testUser()))
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body: %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
