package api

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"
)

// healthCheckTimeout bounds each component check on /health.
const healthCheckTimeout = 2 * time.Second

// Health statuses.
const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status         string            `json:"status"`
	Version        string            `json:"version"`
	Timestamp      string            `json:"timestamp"`
	UptimeSeconds  int64             `json:"uptime_seconds"`
	ActiveSessions int               `json:"active_sessions"`
	Runtime        RuntimeMetrics    `json:"runtime"`
	Components     map[string]string `json:"components,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// handleHealth reports liveness, runtime statistics and the state of optional components.
// A failing component degrades the status but the endpoint still answers 200.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	resp := HealthResponse{
		Status:         healthOK,
		Version:        s.version,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
		ActiveSessions: s.sessions.Len(),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
	}

	if len(s.checks) > 0 {
		resp.Components = make(map[string]string, len(s.checks))
		names := make([]string, 0, len(s.checks))
		for name := range s.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := s.checks[name].HealthCheck(ctx)
			cancel()

			if err != nil {
				resp.Status = healthDegraded
				resp.Components[name] = err.Error()
				continue
			}
			resp.Components[name] = healthOK
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
