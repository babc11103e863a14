package stats

import (
	"math"
	"sync"
	"testing"

	"github.com/tos-network/emission-sim/internal/sim"
)

func TestSeriesMean(t *testing.T) {
	var s Series
	for _, v := range []float64{1, 2, 3, 4} {
		s.Add(v)
	}

	if got := s.Mean(); got != 2.5 {
		t.Errorf("Mean() = %v, want 2.5", got)
	}
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
}

func TestSeriesStdErr(t *testing.T) {
	var s Series
	for _, v := range []float64{1, 2, 3, 4} {
		s.Add(v)
	}

	// Population variance is 1.25; standard error is sqrt(1.25/4).
	want := math.Sqrt(1.25 / 4)
	if got := s.StdErr(); math.Abs(got-want) > 1e-12 {
		t.Errorf("StdErr() = %v, want %v", got, want)
	}
}

func TestSeriesStdErrIsNotSampleStdDev(t *testing.T) {
	var s Series
	for _, v := range []float64{2, 4, 6} {
		s.Add(v)
	}

	// Sample stddev would be sqrt(4) = 2; the standard error of the
	// mean with population normalization is sqrt((8/3)/3).
	want := math.Sqrt(8.0 / 9.0)
	if got := s.StdErr(); math.Abs(got-want) > 1e-12 {
		t.Errorf("StdErr() = %v, want %v", got, want)
	}
}

func TestSeriesSingleObservation(t *testing.T) {
	var s Series
	s.Add(7)

	if got := s.Mean(); got != 7 {
		t.Errorf("Mean() = %v, want 7", got)
	}
	if got := s.StdErr(); got != 0 {
		t.Errorf("StdErr() = %v, want 0", got)
	}
}

func TestEmptySeriesIsUndefined(t *testing.T) {
	// Summarizing without observations is a caller precondition
	// violation; the result is NaN, not a silent zero.
	var s Series
	if !math.IsNaN(s.Mean()) {
		t.Errorf("Mean() of empty series = %v, want NaN", s.Mean())
	}
	if !math.IsNaN(s.StdErr()) {
		t.Errorf("StdErr() of empty series = %v, want NaN", s.StdErr())
	}
}

func TestPoolStatsAccumulate(t *testing.T) {
	ps := NewPoolStats("A", 0.3, 1e6)

	p := ps.NewPool()
	p.Credit(sim.Block{Reward: 2500000, Height: 1})
	p.Credit(sim.Block{Reward: 500000, Height: 2})
	ps.Accumulate(p)

	if got := ps.Blocks().Mean(); got != 2 {
		t.Errorf("blocks mean = %v, want 2", got)
	}
	if got := ps.Reward().Mean(); got != 3.0 {
		t.Errorf("reward mean = %v, want 3.0 coins", got)
	}
}

func TestAggregatorOneObservationPerTrial(t *testing.T) {
	agg := NewAggregator([]*PoolStats{
		NewPoolStats("A", 0.3, 1e6),
		NewPoolStats("B", 0.003, 1e6),
	})

	const trials = 25
	for i := 0; i < trials; i++ {
		pools := agg.NewPools()
		pools[0].Credit(sim.Block{Reward: 1000000, Height: 1})
		agg.Accumulate(pools)
	}

	if agg.Trials() != trials {
		t.Errorf("Trials() = %d, want %d", agg.Trials(), trials)
	}
	for _, ps := range []*PoolStats{agg.pools[0], agg.pools[1]} {
		if ps.Blocks().Len() != trials || ps.Reward().Len() != trials {
			t.Errorf("pool %s has %d/%d observations, want %d of each",
				ps.Name(), ps.Blocks().Len(), ps.Reward().Len(), trials)
		}
	}
}

func TestAggregatorConcurrentAccumulate(t *testing.T) {
	agg := NewAggregator([]*PoolStats{NewPoolStats("A", 0.5, 1e6)})

	const trials = 200
	var wg sync.WaitGroup
	for i := 0; i < trials; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pools := agg.NewPools()
			pools[0].Credit(sim.Block{Reward: 1000000, Height: 1})
			agg.Accumulate(pools)
		}()
	}
	wg.Wait()

	if agg.Trials() != trials {
		t.Errorf("Trials() = %d, want %d", agg.Trials(), trials)
	}
	sum := agg.Summaries()
	if sum[0].BlocksMean != 1 {
		t.Errorf("blocks mean = %v, want 1", sum[0].BlocksMean)
	}
	if sum[0].RewardMean != 1 {
		t.Errorf("reward mean = %v, want 1 coin", sum[0].RewardMean)
	}
}

func TestSummariesOrder(t *testing.T) {
	agg := NewAggregator([]*PoolStats{
		NewPoolStats("B", 0.003, 1e6),
		NewPoolStats("A", 0.3, 1e6),
	})
	agg.Accumulate(agg.NewPools())

	sum := agg.Summaries()
	if sum[0].Name != "B" || sum[1].Name != "A" {
		t.Errorf("summaries out of configuration order: %s, %s", sum[0].Name, sum[1].Name)
	}
}
