// Package data provides thread-safe storage of the derived graph data served
// by the API. The StatsContainer keeps the latest analytics snapshot behind
// atomic values so readers never block while the scheduler refreshes it.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/interfaces"
	"github.com/giygas/pharmasearch/logging"
)

// Compile-time check to ensure StatsContainer implements StatsStore
var _ interfaces.StatsStore = (*StatsContainer)(nil)

// StatsContainer holds the analytics snapshot with atomic values for
// zero-downtime replacement
type StatsContainer struct {
	stats           atomic.Value // entities.GraphStats
	lastUpdated     atomic.Value // time.Time
	refreshDuration atomic.Int64 // nanoseconds
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewStatsContainer creates a new StatsContainer with an empty snapshot
func NewStatsContainer() *StatsContainer {
	sc := &StatsContainer{}
	sc.stats.Store(emptyStats())
	sc.lastUpdated.Store(time.Time{})
	sc.serverStartTime.Store(time.Time{})
	return sc
}

func emptyStats() entities.GraphStats {
	return entities.GraphStats{
		Hubs:     []entities.NodeDegree{},
		Bridges:  []entities.BridgeNode{},
		Clusters: []entities.Cluster{},
	}
}

// GetStats returns the latest analytics snapshot
func (sc *StatsContainer) GetStats() entities.GraphStats {
	if v := sc.stats.Load(); v != nil {
		if stats, ok := v.(entities.GraphStats); ok {
			return stats
		}
	}

	logging.Warn("Graph stats are empty or invalid")
	return emptyStats()
}

// HasStats reports whether a snapshot was stored since startup
func (sc *StatsContainer) HasStats() bool {
	return !sc.GetLastUpdated().IsZero()
}

// GetLastUpdated returns the timestamp of the last stats update
func (sc *StatsContainer) GetLastUpdated() time.Time {
	if v := sc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// GetRefreshDuration returns how long the last analytics computation took
func (sc *StatsContainer) GetRefreshDuration() time.Duration {
	return time.Duration(sc.refreshDuration.Load())
}

// SetRefreshDuration records how long the last analytics computation took
func (sc *StatsContainer) SetRefreshDuration(d time.Duration) {
	sc.refreshDuration.Store(int64(d))
}

// IsUpdating returns true if a stats refresh is currently in progress
func (sc *StatsContainer) IsUpdating() bool {
	return sc.updating.Load()
}

// SetServerStartTime sets the server start time
func (sc *StatsContainer) SetServerStartTime(startTime time.Time) {
	sc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (sc *StatsContainer) GetServerStartTime() time.Time {
	if v := sc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateStats atomically replaces the snapshot
func (sc *StatsContainer) UpdateStats(stats entities.GraphStats) {
	// Atomic swap (zero downtime replacement)
	sc.stats.Store(stats)
	sc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a refresh.
// Returns true if the refresh can proceed, false if another one is in progress
func (sc *StatsContainer) BeginUpdate() bool {
	return sc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a refresh
func (sc *StatsContainer) EndUpdate() {
	sc.updating.Store(false)
}
