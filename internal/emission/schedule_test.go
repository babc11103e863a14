package emission

import (
	"math"
	"testing"
)

func testParams() Params {
	return Params{
		MaxSupply:     math.MaxUint64,
		EmissionSpeed: 18,
		TailEmission:  600000000000, // 0.6 coins at 1e12 scale
		UnitScale:     1e12,
	}
}

func TestBaseRewardAtZeroSupply(t *testing.T) {
	s := NewSchedule(testParams())

	want := uint64(math.MaxUint64) >> 18
	if got := s.BaseReward(0); got != want {
		t.Errorf("BaseReward(0) = %d, want %d", got, want)
	}
}

func TestBaseRewardMonotonic(t *testing.T) {
	s := NewSchedule(testParams())

	supplies := []uint64{
		0,
		1,
		1 << 20,
		math.MaxUint64 / 2,
		17532973286521961314,
		math.MaxUint64 - 1,
		math.MaxUint64,
	}

	prev := uint64(math.MaxUint64)
	for _, supply := range supplies {
		reward := s.BaseReward(supply)
		if reward > prev {
			t.Errorf("BaseReward(%d) = %d, exceeds reward %d at lower supply", supply, reward, prev)
		}
		prev = reward
	}
}

func TestRewardFloor(t *testing.T) {
	params := testParams()
	s := NewSchedule(params)

	supplies := []uint64{
		0,
		17532973286521961314,
		math.MaxUint64 - 1000,
		math.MaxUint64,
	}

	for _, supply := range supplies {
		if got := s.Reward(supply); got < params.TailEmission {
			t.Errorf("Reward(%d) = %d, below tail emission %d", supply, got, params.TailEmission)
		}
	}
}

func TestRewardAtCeilingIsTail(t *testing.T) {
	params := testParams()
	s := NewSchedule(params)

	if got := s.BaseReward(math.MaxUint64); got != 0 {
		t.Errorf("BaseReward(MaxSupply) = %d, want 0", got)
	}
	if got := s.Reward(math.MaxUint64); got != params.TailEmission {
		t.Errorf("Reward(MaxSupply) = %d, want %d", got, params.TailEmission)
	}
}

func TestRewardAboveFloorMatchesBase(t *testing.T) {
	s := NewSchedule(testParams())

	// Far from the ceiling the floor must not interfere.
	supply := uint64(17532973286521961314)
	if s.BaseReward(supply) != s.Reward(supply) {
		t.Errorf("Reward(%d) = %d, want base reward %d", supply, s.Reward(supply), s.BaseReward(supply))
	}
}

func TestEmissionSpeedDivisor(t *testing.T) {
	params := Params{MaxSupply: 1 << 30, EmissionSpeed: 10, TailEmission: 1, UnitScale: 1e6}
	s := NewSchedule(params)

	if got, want := s.BaseReward(0), uint64(1<<20); got != want {
		t.Errorf("BaseReward(0) = %d, want %d", got, want)
	}
	if got, want := s.BaseReward(1<<29), uint64(1<<19); got != want {
		t.Errorf("BaseReward(2^29) = %d, want %d", got, want)
	}
}
