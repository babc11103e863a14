// Package storage persists completed simulation runs in Redis.
package storage

import "github.com/tos-network/emission-sim/internal/stats"

// ScenarioRecord is the scenario a run was produced from, in display units.
type ScenarioRecord struct {
	StartHeight   uint64  `json:"start_height"`
	StartSupply   float64 `json:"start_supply"`
	TailEmission  float64 `json:"tail_emission"`
	EmissionSpeed uint    `json:"emission_speed"`
	UnitScale     float64 `json:"unit_scale"`
}

// RunRecord is one completed run: the scenario, the trial count and the
// aggregated per-pool outcomes.
type RunRecord struct {
	RunID       string              `json:"run_id"`
	Scenario    ScenarioRecord      `json:"scenario"`
	Trials      int                 `json:"trials"`
	ElapsedMS   int64               `json:"elapsed_ms"`
	CompletedAt int64               `json:"completed_at"`
	Pools       []stats.PoolSummary `json:"pools"`
}
