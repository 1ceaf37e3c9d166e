package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/starcrunch/starcrunch-api/internal/middleware"
	"go.uber.org/zap"
)

func newScheduleRouter() *mux.Router {
	h := NewScheduleHandler(nil, nil, nil, zap.NewNop())
	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix("/schedule").Subrouter())
	return r
}

func TestScheduleHandler_RejectsBeforePipeline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       any
		withUser   bool
		wantStatus int
	}{
		{
			name:       "no user in context",
			body:       map[string]string{"text": "buy milk"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing text",
			body:       map[string]string{},
			withUser:   true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "whitespace-only text",
			body:       map[string]string{"text": "   "},
			withUser:   true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "only empty segments",
			body:       map[string]string{"text": ", ,,"},
			withUser:   true,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newScheduleRouter()
			req := newTestRequest(http.MethodPost, "/schedule", tt.body)
			if tt.withUser {
				req = req.WithContext(middleware.SetUserInContext(req.Context(), testUser()))
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}
