package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	return Config{
		Scenario: ScenarioConfig{
			StartHeight:   2082536,
			StartSupply:   17532973.286521961314,
			TailEmission:  0.6,
			MaxSupply:     math.MaxUint64,
			EmissionSpeed: 18,
			UnitScale:     1e12,
		},
		Simulation: SimulationConfig{
			Trials:    1000,
			FirstSeed: 1,
		},
		Pools: []PoolConfig{
			{Name: "A", Share: 0.3},
			{Name: "B", Share: 0.003},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name: "zero unit scale",
			mutate: func(c *Config) {
				c.Scenario.UnitScale = 0
			},
			wantErr: true,
			errMsg:  "scenario.unit_scale must be positive",
		},
		{
			name: "emission speed out of range",
			mutate: func(c *Config) {
				c.Scenario.EmissionSpeed = 64
			},
			wantErr: true,
			errMsg:  "scenario.emission_speed must be below 64",
		},
		{
			name: "negative starting supply",
			mutate: func(c *Config) {
				c.Scenario.StartSupply = -1
			},
			wantErr: true,
			errMsg:  "scenario.start_supply must not be negative",
		},
		{
			name: "supply above ceiling",
			mutate: func(c *Config) {
				c.Scenario.MaxSupply = 1000
			},
			wantErr: true,
			errMsg:  "scenario.start_supply exceeds scenario.max_supply",
		},
		{
			name: "zero trials",
			mutate: func(c *Config) {
				c.Simulation.Trials = 0
			},
			wantErr: true,
			errMsg:  "simulation.trials must be positive",
		},
		{
			name: "negative workers",
			mutate: func(c *Config) {
				c.Simulation.Workers = -1
			},
			wantErr: true,
			errMsg:  "simulation.workers must not be negative",
		},
		{
			name: "no pools",
			mutate: func(c *Config) {
				c.Pools = nil
			},
			wantErr: true,
			errMsg:  "at least one pool is required",
		},
		{
			name: "unnamed pool",
			mutate: func(c *Config) {
				c.Pools[1].Name = ""
			},
			wantErr: true,
			errMsg:  "pools[1].name is required",
		},
		{
			name: "duplicate pool name",
			mutate: func(c *Config) {
				c.Pools[1].Name = "A"
			},
			wantErr: true,
			errMsg:  `duplicate pool name "A"`,
		},
		{
			name: "share above 1",
			mutate: func(c *Config) {
				c.Pools[0].Share = 1.5
			},
			wantErr: true,
			errMsg:  "pools[0].share must be between 0 and 1",
		},
		{
			name: "negative share",
			mutate: func(c *Config) {
				c.Pools[0].Share = -0.1
			},
			wantErr: true,
			errMsg:  "pools[0].share must be between 0 and 1",
		},
		{
			name: "shares sum above 1",
			mutate: func(c *Config) {
				c.Pools[0].Share = 0.7
				c.Pools[1].Share = 0.5
			},
			wantErr: true,
		},
		{
			name: "shares summing below 1 are valid",
			mutate: func(c *Config) {
				c.Pools[0].Share = 0.1
				c.Pools[1].Share = 0.05
			},
			wantErr: false,
		},
		{
			name: "shares summing to exactly 1 are valid",
			mutate: func(c *Config) {
				c.Pools[0].Share = 0.5
				c.Pools[1].Share = 0.5
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				} else if tt.errMsg != "" && err.Error() != tt.errMsg {
					t.Errorf("Error = %q, want %q", err.Error(), tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Scenario.StartHeight != 2082536 {
		t.Errorf("start_height = %d, want 2082536", cfg.Scenario.StartHeight)
	}
	if cfg.Scenario.MaxSupply != math.MaxUint64 {
		t.Errorf("max_supply = %d, want max uint64", cfg.Scenario.MaxSupply)
	}
	if cfg.Simulation.Trials != 1000 {
		t.Errorf("trials = %d, want 1000", cfg.Simulation.Trials)
	}
	if cfg.Simulation.FirstSeed != 1 {
		t.Errorf("first_seed = %d, want 1", cfg.Simulation.FirstSeed)
	}
	if len(cfg.Pools) != 2 || cfg.Pools[0].Name != "A" || cfg.Pools[1].Share != 0.003 {
		t.Errorf("default pools = %+v, want A:0.3 and B:0.003", cfg.Pools)
	}
	if cfg.API.Enabled || cfg.Redis.Enabled || cfg.Notify.Enabled || cfg.NewRelic.Enabled {
		t.Error("optional services should default to disabled")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
scenario:
  start_height: 100
  start_supply: 0
  tail_emission: 0.5
  emission_speed: 10
  unit_scale: 1000000.0
simulation:
  trials: 50
  first_seed: 7
  workers: 2
pools:
  - name: solo
    share: 0.25
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Scenario.StartHeight != 100 {
		t.Errorf("start_height = %d, want 100", cfg.Scenario.StartHeight)
	}
	if cfg.Scenario.EmissionSpeed != 10 {
		t.Errorf("emission_speed = %d, want 10", cfg.Scenario.EmissionSpeed)
	}
	if cfg.Simulation.Workers != 2 {
		t.Errorf("workers = %d, want 2", cfg.Simulation.Workers)
	}
	if len(cfg.Pools) != 1 || cfg.Pools[0].Name != "solo" || cfg.Pools[0].Share != 0.25 {
		t.Errorf("pools = %+v, want solo:0.25", cfg.Pools)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
simulation:
  trials: 0
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() accepted a config with zero trials")
	}
}

func TestEmissionParams(t *testing.T) {
	cfg := validConfig()
	params := cfg.EmissionParams()

	if params.MaxSupply != math.MaxUint64 {
		t.Errorf("MaxSupply = %d, want max uint64", params.MaxSupply)
	}
	if params.TailEmission != 600000000000 {
		t.Errorf("TailEmission = %d, want 600000000000", params.TailEmission)
	}
	if params.UnitScale != 1e12 {
		t.Errorf("UnitScale = %v, want 1e12", params.UnitScale)
	}
}

func TestWorkerCount(t *testing.T) {
	cfg := validConfig()

	cfg.Simulation.Workers = 4
	if got := cfg.WorkerCount(); got != 4 {
		t.Errorf("WorkerCount() = %d, want 4", got)
	}

	cfg.Simulation.Workers = 0
	if got := cfg.WorkerCount(); got < 1 {
		t.Errorf("WorkerCount() = %d, want at least 1", got)
	}
}

func TestRunIDTracksScenario(t *testing.T) {
	cfg := validConfig()
	base := cfg.RunID()

	if base == "" {
		t.Fatal("RunID() is empty")
	}
	same := validConfig()
	if other := same.RunID(); other != base {
		t.Errorf("equal configs produced different run IDs: %s vs %s", base, other)
	}

	cfg.Simulation.Trials = 500
	if cfg.RunID() == base {
		t.Error("changing trials did not change the run ID")
	}
}
