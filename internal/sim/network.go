package sim

import (
	"math/rand"

	"github.com/tos-network/emission-sim/internal/emission"
)

// Block is the outcome of one mining step. Winner is an index into the
// trial's pool slice; -1 means no tracked pool found the block. Blocks
// are not retained after the step that produced them.
type Block struct {
	Winner int
	Reward uint64
	Height uint64
}

// Network drives a single trial: a chain state (height, supply), a set
// of pools and a seeded random source. A Network must not be shared
// between trials or goroutines; every trial constructs its own.
type Network struct {
	sched  *emission.Schedule
	rng    *rand.Rand
	height uint64
	supply uint64
	pools  []*Pool
}

// NewNetwork creates the state for one trial. The same seed with the
// same configuration reproduces an identical block sequence.
func NewNetwork(sched *emission.Schedule, seed int64, height, supply uint64, pools []*Pool) *Network {
	return &Network{
		sched:  sched,
		rng:    rand.New(rand.NewSource(seed)),
		height: height,
		supply: supply,
		pools:  pools,
	}
}

// Height returns the current chain height.
func (n *Network) Height() uint64 {
	return n.height
}

// Supply returns the cumulative coins created, in atomic units.
func (n *Network) Supply() uint64 {
	return n.supply
}

// assign picks the winner for one uniform draw u in [0, 1): the first
// pool whose running share prefix sum reaches u, scanning in listed
// order. Returns -1 when the combined shares leave u uncovered.
func (n *Network) assign(u float64) int {
	probe := 0.0
	for i, p := range n.pools {
		probe += p.share
		if probe >= u {
			return i
		}
	}
	return -1
}

// MineBlock advances the chain by one block: computes the reward at the
// current supply, draws the winner, then updates height and supply and
// credits the winning pool, if any.
func (n *Network) MineBlock() Block {
	reward := n.sched.Reward(n.supply)
	winner := n.assign(n.rng.Float64())

	n.height++
	b := Block{Winner: winner, Reward: reward, Height: n.height}
	n.supply += reward

	if winner >= 0 {
		n.pools[winner].Credit(b)
	}
	return b
}

// RunToTail mines until the reward decays down to the tail emission.
// The loop starts from a sentinel reward equal to the base reward at
// zero supply, so at least one block is mined even when the starting
// supply is already at the ceiling. It stops after the first block
// whose reward is no longer above the floor.
func (n *Network) RunToTail() {
	tail := n.sched.Params().TailEmission
	for reward := n.sched.BaseReward(0); reward > tail; {
		reward = n.MineBlock().Reward
	}
}
