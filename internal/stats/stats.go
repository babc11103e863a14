// Package stats aggregates per-pool outcomes across simulation trials.
package stats

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/tos-network/emission-sim/internal/sim"
)

// Series collects one scalar observation per trial.
type Series struct {
	values []float64
}

// Add appends an observation.
func (s *Series) Add(v float64) {
	s.values = append(s.values, v)
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.values)
}

// Mean returns the arithmetic mean. At least one observation must have
// been added; an empty series yields NaN.
func (s *Series) Mean() float64 {
	return stat.Mean(s.values, nil)
}

// StdErr returns the standard error of the mean, using the population
// variance normalization: sqrt(popvar / n). This is intentionally not
// the sample standard deviation. The empty-series precondition of Mean
// applies here as well.
func (s *Series) StdErr() float64 {
	return math.Sqrt(stat.PopVariance(s.values, nil) / float64(len(s.values)))
}

// PoolStats accumulates the outcomes of one configured pool across
// trials. It also carries the immutable template (name, share) used to
// build the pool's fresh per-trial instance.
type PoolStats struct {
	name      string
	share     float64
	unitScale float64

	blocks Series
	reward Series
}

// NewPoolStats creates the accumulator for a pool template. unitScale
// converts credited atomic amounts into display coins for the reward
// series.
func NewPoolStats(name string, share, unitScale float64) *PoolStats {
	return &PoolStats{name: name, share: share, unitScale: unitScale}
}

// Name returns the pool's identifier.
func (ps *PoolStats) Name() string {
	return ps.name
}

// Share returns the pool's hashrate share.
func (ps *PoolStats) Share() float64 {
	return ps.share
}

// NewPool instantiates a fresh pool for one trial.
func (ps *PoolStats) NewPool() *sim.Pool {
	return sim.NewPool(ps.name, ps.share)
}

// Accumulate folds one finished trial's counters into the series.
func (ps *PoolStats) Accumulate(p *sim.Pool) {
	ps.blocks.Add(float64(p.Blocks()))
	ps.reward.Add(float64(p.Reward()) / ps.unitScale)
}

// Blocks returns the blocks-won series.
func (ps *PoolStats) Blocks() *Series {
	return &ps.blocks
}

// Reward returns the reward series, in display coins.
func (ps *PoolStats) Reward() *Series {
	return &ps.reward
}

// PoolSummary is the aggregated outcome for one pool.
type PoolSummary struct {
	Name       string  `json:"name"`
	Share      float64 `json:"share"`
	BlocksMean float64 `json:"blocks_mean"`
	BlocksErr  float64 `json:"blocks_err"`
	RewardMean float64 `json:"reward_mean"`
	RewardErr  float64 `json:"reward_err"`
}

// Aggregator folds completed trials into per-pool statistics, keeping
// pools in configuration order. Accumulate serializes internally, so
// trials may run on concurrent workers.
type Aggregator struct {
	mu     sync.Mutex
	pools  []*PoolStats
	trials int
}

// NewAggregator creates an aggregator over the given pool accumulators.
func NewAggregator(pools []*PoolStats) *Aggregator {
	return &Aggregator{pools: pools}
}

// NewPools instantiates a fresh pool set for one trial, in
// configuration order. The returned slice parallels the accumulators,
// so Accumulate can match them up by index.
func (a *Aggregator) NewPools() []*sim.Pool {
	pools := make([]*sim.Pool, len(a.pools))
	for i, ps := range a.pools {
		pools[i] = ps.NewPool()
	}
	return pools
}

// Accumulate folds one finished trial into the statistics. pools must
// be a slice previously returned by NewPools.
func (a *Aggregator) Accumulate(pools []*sim.Pool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, ps := range a.pools {
		ps.Accumulate(pools[i])
	}
	a.trials++
}

// Trials returns the number of trials accumulated so far.
func (a *Aggregator) Trials() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.trials
}

// Summaries reports mean and standard error per pool, in configuration
// order. At least one trial must have been accumulated; summarizing an
// empty aggregator yields NaN statistics.
func (a *Aggregator) Summaries() []PoolSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]PoolSummary, len(a.pools))
	for i, ps := range a.pools {
		out[i] = PoolSummary{
			Name:       ps.name,
			Share:      ps.share,
			BlocksMean: ps.blocks.Mean(),
			BlocksErr:  ps.blocks.StdErr(),
			RewardMean: ps.reward.Mean(),
			RewardErr:  ps.reward.StdErr(),
		}
	}
	return out
}
