package server

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 3 * time.Second

// HealthStatus is the status of a health check.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the /health response body.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthCheck is a named dependency probe. A failing critical check makes the service
// unhealthy, a failing non-critical one only degraded.
type HealthCheck struct {
	Name     string
	Critical bool
	Ping     func(ctx context.Context) error
}

func (h HealthCheck) run(ctx context.Context) CheckResult {
	start := time.Now()
	err := h.Ping(ctx)
	latency := time.Since(start).String()

	if err == nil {
		return CheckResult{Status: HealthStatusHealthy, Message: h.Name + " connection OK", Latency: latency}
	}
	status := HealthStatusDegraded
	if h.Critical {
		status = HealthStatusUnhealthy
	}
	return CheckResult{Status: status, Message: h.Name + " connection failed", Latency: latency}
}

// RegisterHealthRoutes adds GET and HEAD /health.
func RegisterHealthRoutes(router gin.IRouter, service, version string, startedAt time.Time, checks []HealthCheck) {
	sort.Slice(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		resp := HealthResponse{
			Status:  HealthStatusHealthy,
			Service: service,
			Version: version,
			Uptime:  time.Since(startedAt).Round(time.Second).String(),
		}
		if len(checks) > 0 {
			resp.Checks = make(map[string]CheckResult, len(checks))
		}
		for _, check := range checks {
			result := check.run(ctx)
			resp.Checks[check.Name] = result
			switch {
			case result.Status == HealthStatusUnhealthy:
				resp.Status = HealthStatusUnhealthy
			case result.Status == HealthStatusDegraded && resp.Status == HealthStatusHealthy:
				resp.Status = HealthStatusDegraded
			}
		}

		code := http.StatusOK
		if resp.Status == HealthStatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	})
	router.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
}
