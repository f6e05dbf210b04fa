package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"prophet/internal/cache"
	"prophet/internal/ml"
	"prophet/pkg/logger"
)

// expectedModels is the full registry: two clusterers, two regressors
const expectedModels = 4

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	registry    *ml.Registry
	cache       *cache.Cache // nil when caching is disabled
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler
func New(log *logger.Logger, registry *ml.Registry, responseCache *cache.Cache, serviceName, version string) *Handler {
	return &Handler{
		log:         log,
		registry:    registry,
		cache:       responseCache,
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // "healthy", "degraded", "unhealthy"
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HandleLiveness returns 200 OK if service is running
// Used by Kubernetes liveness probe
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "alive",
	})
}

// HandleReadiness checks if service is ready to accept traffic.
// The model registry is mandatory; the cache is not.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := h.runChecks(ctx)

	status := h.buildStatus(checks)
	statusCode := http.StatusOK
	if checks["models"].Status != "healthy" {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
		h.log.Warnw("Readiness check failed", "checks", checks)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(status)
}

// HandleHealth returns detailed health status (includes all checks)
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks := h.runChecks(ctx)
	status := h.buildStatus(checks)

	statusCode := http.StatusOK
	if checks["models"].Status != "healthy" {
		status.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	} else {
		for _, c := range checks {
			if c.Status != "healthy" {
				// Degraded (cache down) still serves predictions
				status.Status = "degraded"
				break
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(status)
}

func (h *Handler) runChecks(ctx context.Context) map[string]ComponentHealth {
	checks := map[string]ComponentHealth{
		"models": h.checkModels(),
	}
	if h.cache != nil {
		checks["cache"] = h.checkCache(ctx)
	}
	return checks
}

func (h *Handler) buildStatus(checks map[string]ComponentHealth) HealthStatus {
	return HealthStatus{
		Status:    "healthy",
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().Format(time.RFC3339),
		Checks:    checks,
	}
}

// checkModels verifies the full model registry was loaded
func (h *Handler) checkModels() ComponentHealth {
	if h.registry == nil || h.registry.Size() < expectedModels {
		loaded := 0
		if h.registry != nil {
			loaded = h.registry.Size()
		}
		h.log.Errorw("Model registry incomplete", "loaded", loaded, "expected", expectedModels)
		return ComponentHealth{
			Status: "unhealthy",
			Error:  "model registry incomplete",
		}
	}
	return ComponentHealth{Status: "healthy"}
}

// checkCache verifies Redis connectivity
func (h *Handler) checkCache(ctx context.Context) ComponentHealth {
	start := time.Now()
	err := h.cache.Health(ctx)
	elapsed := time.Since(start)

	if err != nil {
		h.log.Errorw("Cache health check failed", "error", err, "elapsed", elapsed)
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}

	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: elapsed.String(),
	}
}
