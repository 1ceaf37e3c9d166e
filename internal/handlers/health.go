package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/starcrunch/starcrunch-api/internal/database"
	"github.com/starcrunch/starcrunch-api/internal/middleware"
	"github.com/starcrunch/starcrunch-api/internal/queue"
)

// healthCheckTimeout bounds each dependency probe
const healthCheckTimeout = 5 * time.Second

// HealthChecker handles health check requests
type HealthChecker struct {
	db       *database.DB
	redis    *middleware.RedisRateLimiter
	jobQueue queue.JobQueue
}

// NewHealthChecker creates a health checker that only probes the database
func NewHealthChecker(db *database.DB) *HealthChecker {
	return &HealthChecker{db: db}
}

// NewHealthCheckerWithDeps creates a health checker that also probes the
// optional Redis and RabbitMQ dependencies. Nil dependencies report
// "not configured" instead of failing the check.
func NewHealthCheckerWithDeps(db *database.DB, redis *middleware.RedisRateLimiter, jobQueue queue.JobQueue) *HealthChecker {
	return &HealthChecker{
		db:       db,
		redis:    redis,
		jobQueue: jobQueue,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the health endpoint. Basic mode only reports that
// the server is up; ?mode=extended probes every dependency.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = h.runChecks(r.Context())
		response.Status = overallStatus(response.Checks)
		if response.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

// runChecks probes each dependency with a bounded timeout
func (h *HealthChecker) runChecks(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)

	if h.db == nil {
		checks["database"] = "unhealthy: no database handle"
	} else if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
	} else {
		checks["database"] = "healthy"
	}

	if h.redis == nil {
		checks["redis"] = "not configured"
	} else if err := h.redis.Ping(ctx); err != nil {
		checks["redis"] = "unhealthy: " + err.Error()
	} else {
		checks["redis"] = "healthy"
	}

	if h.jobQueue == nil {
		checks["rabbitmq"] = "not configured"
	} else if err := h.jobQueue.HealthCheck(ctx); err != nil {
		checks["rabbitmq"] = "unhealthy: " + err.Error()
	} else {
		checks["rabbitmq"] = "healthy"
	}

	return checks
}

// overallStatus reduces a check map to a single status. "not configured"
// dependencies do not count against health.
func overallStatus(checks map[string]string) string {
	for _, result := range checks {
		if strings.HasPrefix(result, "unhealthy") {
			return "unhealthy"
		}
	}
	return "healthy"
}
