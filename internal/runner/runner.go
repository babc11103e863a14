// Package runner executes simulation trials across a worker pool.
package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tos-network/emission-sim/internal/config"
	"github.com/tos-network/emission-sim/internal/emission"
	"github.com/tos-network/emission-sim/internal/sim"
	"github.com/tos-network/emission-sim/internal/stats"
	"github.com/tos-network/emission-sim/internal/util"
)

// Progress is a snapshot of a run in flight.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// ProgressFunc receives progress snapshots. It may be called from
// multiple worker goroutines at once.
type ProgressFunc func(Progress)

// Result is the outcome of a completed run.
type Result struct {
	RunID     string
	Trials    int
	Elapsed   time.Duration
	Summaries []stats.PoolSummary
}

// Runner drives the configured number of trials and folds their
// outcomes into one aggregator. Each trial owns its random stream and
// pool instances, so trials are independent and can run in parallel;
// seeds are enumerated consecutively from the configured first seed.
type Runner struct {
	cfg         *config.Config
	sched       *emission.Schedule
	agg         *stats.Aggregator
	startHeight uint64
	startSupply uint64

	onProgress ProgressFunc
	done       atomic.Int64
}

// New creates a runner for the given configuration.
func New(cfg *config.Config) *Runner {
	params := cfg.EmissionParams()

	pools := make([]*stats.PoolStats, len(cfg.Pools))
	for i, p := range cfg.Pools {
		pools[i] = stats.NewPoolStats(p.Name, p.Share, params.UnitScale)
	}

	return &Runner{
		cfg:         cfg,
		sched:       emission.NewSchedule(params),
		agg:         stats.NewAggregator(pools),
		startHeight: cfg.Scenario.StartHeight,
		startSupply: cfg.StartSupplyAtomic(),
	}
}

// SetProgressFunc registers a progress callback. Must be called before Run.
func (r *Runner) SetProgressFunc(fn ProgressFunc) {
	r.onProgress = fn
}

// Aggregator returns the aggregator the trials fold into.
func (r *Runner) Aggregator() *stats.Aggregator {
	return r.agg
}

// runTrial executes one full trial for the given seed.
func (r *Runner) runTrial(seed int64) {
	pools := r.agg.NewPools()
	net := sim.NewNetwork(r.sched, seed, r.startHeight, r.startSupply, pools)
	net.RunToTail()
	r.agg.Accumulate(pools)
}

// Run executes all trials and returns the aggregated result. Workers
// drain a shared seed channel; ctx cancels the run between trials, in
// which case the error is returned and the aggregator holds whatever
// trials completed.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	trials := r.cfg.Simulation.Trials
	workers := r.cfg.WorkerCount()
	if workers > trials {
		workers = trials
	}

	util.Infof("Running %d trials on %d workers (seeds %d..%d)",
		trials, workers, r.cfg.Simulation.FirstSeed, r.cfg.Simulation.FirstSeed+int64(trials)-1)

	start := time.Now()
	seeds := make(chan int64)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seed := range seeds {
				r.runTrial(seed)
				done := r.done.Add(1)
				if r.onProgress != nil {
					r.onProgress(Progress{Done: int(done), Total: trials})
				}
			}
		}()
	}

	first := r.cfg.Simulation.FirstSeed
	var err error
feed:
	for seed := first; seed < first+int64(trials); seed++ {
		select {
		case seeds <- seed:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(seeds)
	wg.Wait()

	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     r.cfg.RunID(),
		Trials:    r.agg.Trials(),
		Elapsed:   time.Since(start),
		Summaries: r.agg.Summaries(),
	}
	util.Infof("Completed %d trials in %s", result.Trials, result.Elapsed.Round(time.Millisecond))
	return result, nil
}
