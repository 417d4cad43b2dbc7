// Package health provides health checking functionality for the pharmasearch API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/pharmasearch/interfaces"
)

// staleAfterIntervals is how many missed analytics refreshes make the
// service degraded
const staleAfterIntervals = 3

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	graph           interfaces.GraphReader
	statsStore      interfaces.StatsStore
	refreshInterval time.Duration
	now             func() time.Time
}

// NewHealthChecker creates a new health checker with injected dependencies.
// refreshInterval is the analytics refresh period of the scheduler.
func NewHealthChecker(graph interfaces.GraphReader, statsStore interfaces.StatsStore, refreshInterval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		graph:           graph,
		statsStore:      statsStore,
		refreshInterval: refreshInterval,
		now:             time.Now,
	}
}

// HealthCheck returns HTTP-specific health data.
// Used by /health HTTP endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	nodes := h.graph.NodeCount()
	edges := h.graph.EdgeCount()
	lastUpdate := h.statsStore.GetLastUpdated()
	isUpdating := h.statsStore.IsUpdating()

	now := h.now()
	statsAge := now.Sub(lastUpdate)

	switch {
	case nodes == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case lastUpdate.IsZero() || statsAge > staleAfterIntervals*h.refreshInterval:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"nodes":       nodes,
		"edges":       edges,
		"is_updating": isUpdating,
	}
	if lastUpdate.IsZero() {
		data["last_update"] = nil
		data["stats_age_seconds"] = nil
	} else {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
		data["stats_age_seconds"] = math.Round(statsAge.Seconds()*10) / 10
		data["next_refresh"] = h.CalculateNextRefresh().Format(time.RFC3339)
	}
	if start := h.statsStore.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = math.Round(now.Sub(start).Seconds())
	}

	return status, data, httpStatus
}

// CalculateNextRefresh returns when the scheduler is next expected to
// refresh the analytics
func (h *HealthCheckerImpl) CalculateNextRefresh() time.Time {
	now := h.now()
	lastUpdate := h.statsStore.GetLastUpdated()
	if lastUpdate.IsZero() {
		return now
	}

	next := lastUpdate.Add(h.refreshInterval)
	if next.Before(now) {
		return now
	}
	return next
}
