// Package emission implements the block reward schedule of the simulated chain.
package emission

// Params defines the emission curve. All amounts are in atomic units.
type Params struct {
	// MaxSupply is the emission ceiling: the total number of atomic units
	// the curve asymptotically approaches.
	MaxSupply uint64

	// EmissionSpeed is the power-of-two divisor of the decay: each block
	// pays out (MaxSupply - supply) >> EmissionSpeed.
	EmissionSpeed uint

	// TailEmission is the fixed minimum reward per block.
	TailEmission uint64

	// UnitScale is the number of atomic units per display coin.
	UnitScale float64
}

// Schedule computes block rewards from cumulative supply. It holds no
// mutable state; the same Schedule can serve any number of trials.
type Schedule struct {
	params Params
}

// NewSchedule creates a schedule for the given emission parameters.
func NewSchedule(params Params) *Schedule {
	return &Schedule{params: params}
}

// Params returns the emission parameters.
func (s *Schedule) Params() Params {
	return s.params
}

// BaseReward returns the reward the decay formula yields at the given
// supply, before the tail emission floor is applied. Supply must not
// exceed MaxSupply.
func (s *Schedule) BaseReward(supply uint64) uint64 {
	return (s.params.MaxSupply - supply) >> s.params.EmissionSpeed
}

// Reward returns the reward paid for the next block at the given supply,
// clamped to never fall below the tail emission.
func (s *Schedule) Reward(supply uint64) uint64 {
	reward := s.BaseReward(supply)
	if reward < s.params.TailEmission {
		reward = s.params.TailEmission
	}
	return reward
}
