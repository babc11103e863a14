// Package fingerprint derives stable run identifiers from scenario inputs.
package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/zeebo/blake3"
)

// IDLength is the run ID length in bytes before hex encoding.
const IDLength = 8

// Pool is one pool template as it enters the fingerprint.
type Pool struct {
	Name  string
	Share float64
}

// Scenario captures every input that affects simulation output. Two
// runs with equal scenarios produce identical results, so the derived
// ID doubles as a cache and storage key.
type Scenario struct {
	StartHeight   uint64
	StartSupply   uint64
	MaxSupply     uint64
	EmissionSpeed uint
	TailEmission  uint64
	UnitScale     float64
	Trials        int
	FirstSeed     int64
	Pools         []Pool
}

// RunID hashes the canonical scenario encoding with Blake3 and returns
// the truncated digest as a hex string.
func (s Scenario) RunID() string {
	h := blake3.New()

	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	writeU64(s.StartHeight)
	writeU64(s.StartSupply)
	writeU64(s.MaxSupply)
	writeU64(uint64(s.EmissionSpeed))
	writeU64(s.TailEmission)
	writeU64(math.Float64bits(s.UnitScale))
	writeU64(uint64(s.Trials))
	writeU64(uint64(s.FirstSeed))

	writeU64(uint64(len(s.Pools)))
	for _, p := range s.Pools {
		writeU64(uint64(len(p.Name)))
		h.Write([]byte(p.Name))
		writeU64(math.Float64bits(p.Share))
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:IDLength])
}
