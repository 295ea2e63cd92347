// Package health provides liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/MiguelCoelho27/UALFlix/internal/cache"
	"github.com/MiguelCoelho27/UALFlix/internal/store"
)

// Checker probes the stores and cache backing the catalog.
type Checker struct {
	primary   store.VideoStore
	secondary store.VideoStore
	cache     cache.VideoCache
	logger    *zap.Logger
}

// Status is the probe response body.
type Status struct {
	Status    string            `json:"status"`
	Timestamp int64             `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// NewChecker creates a health checker.
func NewChecker(primary, secondary store.VideoStore, videoCache cache.VideoCache, logger *zap.Logger) *Checker {
	return &Checker{
		primary:   primary,
		secondary: secondary,
		cache:     videoCache,
		logger:    logger,
	}
}

// LivenessHandler reports that the process is running.
func (c *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, Status{
		Status:    "alive",
		Timestamp: time.Now().Unix(),
	})
}

// ReadinessHandler reports whether the service can serve traffic. Both
// stores must be reachable; the cache only degrades the report because
// every operation falls back to the stores when the cache is down.
func (c *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	if err := c.primary.Ping(ctx); err != nil {
		c.logger.Error("primary store health check failed", zap.Error(err))
		checks["primary"] = "unhealthy: " + err.Error()
		ready = false
	} else {
		checks["primary"] = "healthy"
	}

	if err := c.secondary.Ping(ctx); err != nil {
		c.logger.Error("secondary store health check failed", zap.Error(err))
		checks["secondary"] = "unhealthy: " + err.Error()
		ready = false
	} else {
		checks["secondary"] = "healthy"
	}

	if err := c.cache.Ping(ctx); err != nil {
		c.logger.Warn("cache health check failed", zap.Error(err))
		checks["cache"] = "degraded: " + err.Error()
	} else {
		checks["cache"] = "healthy"
	}

	status := Status{
		Timestamp: time.Now().Unix(),
		Checks:    checks,
	}

	if ready {
		status.Status = "ready"
		writeStatus(w, http.StatusOK, status)
	} else {
		status.Status = "not_ready"
		writeStatus(w, http.StatusServiceUnavailable, status)
	}
}

func writeStatus(w http.ResponseWriter, code int, status Status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
