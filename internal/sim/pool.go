// Package sim implements the block-by-block mining simulation for one trial.
package sim

// Pool is one mining pool within a single trial. Name and hashrate share
// are fixed at construction; the counters accumulate over the trial and
// are never reset (a fresh Pool is built for every trial).
type Pool struct {
	name   string
	share  float64
	blocks uint64
	reward uint64
}

// NewPool creates a pool with the given name and hashrate share. The
// share is a probability weight in [0, 1]; the shares of all pools in a
// trial may sum to less than 1, modeling untracked hashrate.
func NewPool(name string, share float64) *Pool {
	return &Pool{name: name, share: share}
}

// Name returns the pool's identifier.
func (p *Pool) Name() string {
	return p.name
}

// Share returns the pool's hashrate share.
func (p *Pool) Share() float64 {
	return p.share
}

// Blocks returns the number of blocks the pool has won this trial.
func (p *Pool) Blocks() uint64 {
	return p.blocks
}

// Reward returns the total reward the pool has earned this trial, in
// atomic units.
func (p *Pool) Reward() uint64 {
	return p.reward
}

// Credit records a won block.
func (p *Pool) Credit(b Block) {
	p.blocks++
	p.reward += b.Reward
}
