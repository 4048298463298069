package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

const healthCheckTimeout = 3 * time.Second

var startTime = time.Now()

// HealthChecker is a dependency that can report its own health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Capabilities lists which optional features are wired.
type Capabilities struct {
	Sentiment     bool `json:"sentiment"`
	LLMScorer     bool `json:"llm_scorer"`
	Cache         bool `json:"cache"`
	Watchlist     bool `json:"watchlist"`
	History       bool `json:"history"`
	Notifications bool `json:"notifications"`
	Scanner       bool `json:"scanner"`
}

type HealthHandler struct {
	checks       map[string]HealthChecker
	version      string
	capabilities Capabilities
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
}

// HostStats is the host section of /status. Fields are zero when the
// platform does not expose them.
type HostStats struct {
	Hostname        string  `json:"hostname,omitempty"`
	OS              string  `json:"os"`
	Platform        string  `json:"platform,omitempty"`
	MemoryTotalMB   uint64  `json:"memory_total_mb"`
	MemoryUsedPct   float64 `json:"memory_used_percent"`
	Goroutines      int     `json:"goroutines"`
	HeapAllocatedMB uint64  `json:"heap_allocated_mb"`
}

type StatusResponse struct {
	Service      string       `json:"service"`
	Version      string       `json:"version"`
	Uptime       string       `json:"uptime"`
	UptimeSecs   int64        `json:"uptime_seconds"`
	Capabilities Capabilities `json:"capabilities"`
	Host         HostStats    `json:"host"`
}

// NewHealthHandler creates a handler. Nil checkers are skipped, so disabled
// dependencies never mark the service unhealthy.
func NewHealthHandler(checks map[string]HealthChecker, version string, capabilities Capabilities) *HealthHandler {
	active := make(map[string]HealthChecker, len(checks))
	for name, check := range checks {
		if check != nil {
			active[name] = check
		}
	}
	if version == "" {
		version = "dev"
	}
	return &HealthHandler{checks: active, version: version, capabilities: capabilities}
}

func (h *HealthHandler) runChecks(ctx context.Context, healthy, unhealthy string) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	services := make(map[string]string, len(h.checks))
	ok := true
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			services[name] = unhealthy + ": " + err.Error()
			ok = false
			continue
		}
		services[name] = healthy
	}
	return services, ok
}

// HealthCheck reports every enabled dependency.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	services, ok := h.runChecks(c.Request.Context(), "healthy", "unhealthy")

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  services,
		Version:   h.version,
		Uptime:    time.Since(startTime).String(),
	}
	status := http.StatusOK
	if !ok {
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}

// ReadinessCheck for Kubernetes-style deployments
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	services, ok := h.runChecks(c.Request.Context(), "ready", "not ready")
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"ready":    ok,
		"services": services,
	})
}

// Ping is a liveness probe.
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Status reports uptime, wired capabilities and host memory.
func (h *HealthHandler) Status(c *gin.Context) {
	uptime := time.Since(startTime)
	c.JSON(http.StatusOK, StatusResponse{
		Service:      "stockai-go",
		Version:      h.version,
		Uptime:       uptime.Round(time.Second).String(),
		UptimeSecs:   int64(uptime.Seconds()),
		Capabilities: h.capabilities,
		Host:         hostStats(c.Request.Context()),
	})
}

func hostStats(ctx context.Context) HostStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := HostStats{
		OS:              runtime.GOOS,
		Goroutines:      runtime.NumGoroutine(),
		HeapAllocatedMB: ms.HeapAlloc / 1024 / 1024,
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryTotalMB = vm.Total / 1024 / 1024
		stats.MemoryUsedPct = round(vm.UsedPercent, 2)
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		stats.Hostname = info.Hostname
		stats.Platform = info.Platform
	}
	return stats
}
