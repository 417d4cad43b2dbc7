// Package scheduler refreshes the knowledge graph analytics in the
// background. It computes the analytics at startup and on a fixed interval,
// stores the snapshot in the stats store and publishes the graph gauges.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/giygas/pharmasearch/interfaces"
	"github.com/giygas/pharmasearch/logging"
	"github.com/giygas/pharmasearch/metrics"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles analytics refreshes and staleness monitoring using dependency injection
type Scheduler struct {
	graph      interfaces.GraphReader
	statsStore interfaces.StatsStore
	interval   time.Duration
	scheduler  *gocron.Scheduler
	stop       chan struct{}
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(graph interfaces.GraphReader, statsStore interfaces.StatsStore, interval time.Duration) *Scheduler {
	return &Scheduler{
		graph:      graph,
		statsStore: statsStore,
		interval:   interval,
		scheduler:  gocron.NewScheduler(time.Local),
		stop:       make(chan struct{}),
	}
}

// Start computes the analytics once, then schedules the periodic refresh
// and the staleness monitor
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("invalid analytics refresh interval: %v", s.interval)
	}

	s.refresh()

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.refresh)
	if err != nil {
		logging.Error("Failed to schedule analytics refresh", "error", err)
		return fmt.Errorf("failed to schedule analytics refresh: %w", err)
	}

	s.scheduler.StartAsync()

	s.startStalenessMonitoring()

	return nil
}

// Stop stops the scheduler and the staleness monitor. It must be called at
// most once.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	close(s.stop)
}

// refresh recomputes the analytics snapshot
func (s *Scheduler) refresh() {
	// Prevent concurrent refreshes
	if !s.statsStore.BeginUpdate() {
		logging.Info("Analytics refresh already in progress, skipping...")
		return
	}
	defer s.statsStore.EndUpdate()

	start := time.Now()
	stats := s.graph.Analytics()
	elapsed := time.Since(start)

	s.statsStore.UpdateStats(stats)
	s.statsStore.SetRefreshDuration(elapsed)

	metrics.SetGraphSize(stats.NodeCount, stats.EdgeCount)
	metrics.AnalyticsRefreshSeconds.Set(elapsed.Seconds())

	if stats.NodeCount == 0 {
		logging.Warn("Knowledge graph is empty")
	}
	logging.Debug("Analytics refresh completed",
		"duration", elapsed.String(),
		"nodes", stats.NodeCount,
		"edges", stats.EdgeCount,
		"clusters", len(stats.Clusters),
	)
}

// startStalenessMonitoring warns when refreshes stop landing
func (s *Scheduler) startStalenessMonitoring() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				lastUpdate := s.statsStore.GetLastUpdated()
				if time.Since(lastUpdate) > 3*s.interval {
					logging.Warn("Analytics haven't been refreshed in over three intervals", "last_update", lastUpdate)
				}
			}
		}
	}()
}
