// Package search runs the enhanced strategy fan-out against an external
// search executor and ranks the merged records.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/giygas/pharmasearch/entities"
	"github.com/giygas/pharmasearch/interfaces"
	"github.com/giygas/pharmasearch/logging"
)

const (
	DefaultParallelism   = 4
	DefaultMaxStrategies = 12
)

// ErrAllStrategiesFailed is returned when no strategy produced records.
var ErrAllStrategiesFailed = errors.New("all search strategies failed")

// StrategyOutcome reports how one strategy fared.
type StrategyOutcome struct {
	Strategy   entities.SearchStrategy `json:"strategy"`
	Query      entities.SearchParams   `json:"query"`
	Confidence float64                 `json:"confidence"`
	Records    int                     `json:"records"`
	Error      string                  `json:"error,omitempty"`
}

type Result struct {
	Enhanced   entities.EnhancedQuery  `json:"enhanced"`
	Strategies []StrategyOutcome       `json:"strategies"`
	Records    []entities.ScoredRecord `json:"records"`
}

type Orchestrator struct {
	enhancer interfaces.QueryEnhancer
	scorer   interfaces.RelevanceScorer
	executor interfaces.SearchExecutor

	breaker       *gobreaker.CircuitBreaker
	group         singleflight.Group
	parallelism   int
	maxStrategies int
}

type Option func(*Orchestrator)

// WithParallelism bounds how many strategies run at once.
func WithParallelism(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.parallelism = n
		}
	}
}

// WithMaxStrategies bounds the fan-out; extra strategies are dropped in order.
func WithMaxStrategies(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxStrategies = n
		}
	}
}

// WithBreakerSettings replaces the executor circuit breaker settings.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(o *Orchestrator) {
		o.breaker = gobreaker.NewCircuitBreaker(st)
	}
}

// DefaultBreakerSettings trips after five requests when at least 60% of them
// failed, and probes again after 30 seconds.
func DefaultBreakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logging.Warn("Search executor circuit breaker changed state", "breaker", name, "from", from.String(), "to", to.String())
		},
		// Cancellations come from the caller, not from the executor
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	}
}

func NewOrchestrator(enhancer interfaces.QueryEnhancer, scorer interfaces.RelevanceScorer, executor interfaces.SearchExecutor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		enhancer:      enhancer,
		scorer:        scorer,
		executor:      executor,
		breaker:       gobreaker.NewCircuitBreaker(DefaultBreakerSettings("search-executor")),
		parallelism:   DefaultParallelism,
		maxStrategies: DefaultMaxStrategies,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// BreakerState exposes the executor circuit breaker state.
func (o *Orchestrator) BreakerState() gobreaker.State {
	return o.breaker.State()
}

// Search generates the strategy fan-out for params, executes the strategies
// concurrently and returns the merged records ranked by relevance. A failing
// strategy is reported in the result; the call only fails when every
// strategy failed or ctx was cancelled.
func (o *Orchestrator) Search(ctx context.Context, params entities.SearchParams, sctx *entities.ScoringContext) (*Result, error) {
	strategies := o.enhancer.GenerateStrategies(params, sctx)
	if len(strategies) > o.maxStrategies {
		logging.Debug("Dropping search strategies over the limit", "generated", len(strategies), "limit", o.maxStrategies)
		strategies = strategies[:o.maxStrategies]
	}

	records := make([][]entities.Record, len(strategies))
	outcomes := make([]StrategyOutcome, len(strategies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.parallelism)
	for i, q := range strategies {
		outcomes[i] = StrategyOutcome{
			Strategy:   q.SearchStrategy,
			Query:      q.EnhancedQuery,
			Confidence: q.Confidence,
		}
		g.Go(func() error {
			recs, err := o.execute(gctx, q.EnhancedQuery)
			if err != nil {
				// Only cancellation aborts the fan-out
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logging.Warn("Search strategy failed", "strategy", q.SearchStrategy, "error", err)
				outcomes[i].Error = err.Error()
				return nil
			}
			records[i] = recs
			outcomes[i].Records = len(recs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search cancelled: %w", err)
	}

	var firstErr string
	failed := 0
	for _, out := range outcomes {
		if out.Error != "" {
			failed++
			if firstErr == "" {
				firstErr = out.Error
			}
		}
	}
	if len(outcomes) > 0 && failed == len(outcomes) {
		return nil, fmt.Errorf("%w: %s", ErrAllStrategiesFailed, firstErr)
	}

	var scoring entities.ScoringContext
	if sctx != nil {
		scoring = *sctx
	}

	result := &Result{
		Strategies: outcomes,
		Records:    o.scorer.ScoreAll(Merge(records), scoring),
	}
	if len(strategies) > 0 {
		result.Enhanced = strategies[0]
	}
	return result, nil
}

// execute runs one query through the circuit breaker. Identical queries in
// flight at the same time share a single executor call. The shared call is
// detached from the caller that started it; each caller stops waiting when
// its own ctx is done.
func (o *Orchestrator) execute(ctx context.Context, params entities.SearchParams) ([]entities.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search params: %w", err)
	}

	shared := context.WithoutCancel(ctx)
	ch := o.group.DoChan(string(key), func() (interface{}, error) {
		return o.breaker.Execute(func() (interface{}, error) {
			return o.executor.Execute(shared, params)
		})
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logging.Debug("Shared in-flight search execution")
		}
		recs, _ := res.Val.([]entities.Record)
		return recs, nil
	}
}

// Merge concatenates the records of every strategy in order, keeping the
// first occurrence of each record id. Records without an id are all kept.
func Merge(batches [][]entities.Record) []entities.Record {
	seen := make(map[string]struct{})
	var out []entities.Record
	for _, batch := range batches {
		for _, r := range batch {
			if r.ID != "" {
				if _, dup := seen[r.ID]; dup {
					continue
				}
				seen[r.ID] = struct{}{}
			}
			out = append(out, r)
		}
	}
	return out
}
