// Package config handles configuration loading and validation for the simulator.
package config

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/spf13/viper"

	"github.com/tos-network/emission-sim/internal/emission"
	"github.com/tos-network/emission-sim/internal/fingerprint"
)

// Config holds all configuration for the simulator
type Config struct {
	Scenario   ScenarioConfig   `mapstructure:"scenario"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Pools      []PoolConfig     `mapstructure:"pools"`
	API        APIConfig        `mapstructure:"api"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	NewRelic   NewRelicConfig   `mapstructure:"newrelic"`
	Profiling  ProfilingConfig  `mapstructure:"profiling"`
	Log        LogConfig        `mapstructure:"log"`
}

// ScenarioConfig defines the simulated chain. Amounts are given in
// display coins and converted to atomic units via the unit scale.
type ScenarioConfig struct {
	StartHeight   uint64  `mapstructure:"start_height"`
	StartSupply   float64 `mapstructure:"start_supply"`
	TailEmission  float64 `mapstructure:"tail_emission"`
	MaxSupply     uint64  `mapstructure:"max_supply"`
	EmissionSpeed uint    `mapstructure:"emission_speed"`
	UnitScale     float64 `mapstructure:"unit_scale"`
}

// SimulationConfig defines how many trials run and how
type SimulationConfig struct {
	Trials    int   `mapstructure:"trials"`
	FirstSeed int64 `mapstructure:"first_seed"`
	Workers   int   `mapstructure:"workers"`
}

// PoolConfig defines one tracked mining pool
type PoolConfig struct {
	Name  string  `mapstructure:"name"`
	Share float64 `mapstructure:"share"`
}

// APIConfig defines API server settings
type APIConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Bind       string        `mapstructure:"bind"`
	StatsCache time.Duration `mapstructure:"stats_cache"`
}

// RedisConfig defines Redis connection settings for result persistence
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NotifyConfig defines run-completion webhook settings
type NotifyConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DiscordURL   string `mapstructure:"discord_url"`
	TelegramBot  string `mapstructure:"telegram_bot"`
	TelegramChat string `mapstructure:"telegram_chat"`
	ReportURL    string `mapstructure:"report_url"`
}

// NewRelicConfig defines APM settings
type NewRelicConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	AppName    string `mapstructure:"app_name"`
	LicenseKey string `mapstructure:"license_key"`
}

// ProfilingConfig defines pprof server settings
type ProfilingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bind    string `mapstructure:"bind"`
}

// LogConfig defines logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load reads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/emission-sim")
	}

	// Read environment variables
	v.SetEnvPrefix("EMISSION_SIM")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. The scenario defaults
// reproduce the reference estimate: a chain a few hundred thousand
// blocks away from tail emission, with one large and one marginal
// tracked pool.
func setDefaults(v *viper.Viper) {
	// Scenario defaults
	v.SetDefault("scenario.start_height", 2082536)
	v.SetDefault("scenario.start_supply", 17532973.286521961314)
	v.SetDefault("scenario.tail_emission", 0.6)
	v.SetDefault("scenario.max_supply", uint64(math.MaxUint64))
	v.SetDefault("scenario.emission_speed", 18)
	v.SetDefault("scenario.unit_scale", 1e12)

	// Simulation defaults
	v.SetDefault("simulation.trials", 1000)
	v.SetDefault("simulation.first_seed", 1)
	v.SetDefault("simulation.workers", 0) // 0 = one per CPU

	// Pool defaults
	v.SetDefault("pools", []map[string]interface{}{
		{"name": "A", "share": 0.3},
		{"name": "B", "share": 0.003},
	})

	// API defaults
	v.SetDefault("api.enabled", false)
	v.SetDefault("api.bind", "0.0.0.0:8080")
	v.SetDefault("api.stats_cache", "10s")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	// Notify defaults
	v.SetDefault("notify.enabled", false)

	// New Relic defaults
	v.SetDefault("newrelic.enabled", false)
	v.SetDefault("newrelic.app_name", "Emission Sim")

	// Profiling defaults
	v.SetDefault("profiling.enabled", false)
	v.SetDefault("profiling.bind", "127.0.0.1:6060")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.Scenario.UnitScale <= 0 {
		return fmt.Errorf("scenario.unit_scale must be positive")
	}

	if c.Scenario.EmissionSpeed >= 64 {
		return fmt.Errorf("scenario.emission_speed must be below 64")
	}

	if c.Scenario.StartSupply < 0 {
		return fmt.Errorf("scenario.start_supply must not be negative")
	}

	if c.Scenario.TailEmission < 0 {
		return fmt.Errorf("scenario.tail_emission must not be negative")
	}

	if c.StartSupplyAtomic() > c.Scenario.MaxSupply {
		return fmt.Errorf("scenario.start_supply exceeds scenario.max_supply")
	}

	if c.Simulation.Trials <= 0 {
		return fmt.Errorf("simulation.trials must be positive")
	}

	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation.workers must not be negative")
	}

	if len(c.Pools) == 0 {
		return fmt.Errorf("at least one pool is required")
	}

	seen := make(map[string]bool)
	var total float64
	for i, p := range c.Pools {
		if p.Name == "" {
			return fmt.Errorf("pools[%d].name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate pool name %q", p.Name)
		}
		seen[p.Name] = true

		if p.Share < 0 || p.Share > 1 {
			return fmt.Errorf("pools[%d].share must be between 0 and 1", i)
		}
		total += p.Share
	}

	// Shares summing below 1 model untracked hashrate and are valid;
	// above 1 the selection weights stop being probabilities.
	if total > 1+1e-9 {
		return fmt.Errorf("pool shares sum to %v, must not exceed 1", total)
	}

	return nil
}

// EmissionParams returns the emission curve in atomic units
func (c *Config) EmissionParams() emission.Params {
	p := emission.Params{
		MaxSupply:     c.Scenario.MaxSupply,
		EmissionSpeed: c.Scenario.EmissionSpeed,
		UnitScale:     c.Scenario.UnitScale,
	}
	p.TailEmission = p.ToAtomic(c.Scenario.TailEmission)
	return p
}

// StartSupplyAtomic returns the starting supply in atomic units
func (c *Config) StartSupplyAtomic() uint64 {
	return c.EmissionParams().ToAtomic(c.Scenario.StartSupply)
}

// WorkerCount resolves the trial worker count, defaulting to one per CPU
func (c *Config) WorkerCount() int {
	if c.Simulation.Workers > 0 {
		return c.Simulation.Workers
	}
	return runtime.NumCPU()
}

// Fingerprint returns the canonical scenario used to derive the run ID
func (c *Config) Fingerprint() fingerprint.Scenario {
	params := c.EmissionParams()
	s := fingerprint.Scenario{
		StartHeight:   c.Scenario.StartHeight,
		StartSupply:   c.StartSupplyAtomic(),
		MaxSupply:     params.MaxSupply,
		EmissionSpeed: params.EmissionSpeed,
		TailEmission:  params.TailEmission,
		UnitScale:     params.UnitScale,
		Trials:        c.Simulation.Trials,
		FirstSeed:     c.Simulation.FirstSeed,
	}
	for _, p := range c.Pools {
		s.Pools = append(s.Pools, fingerprint.Pool{Name: p.Name, Share: p.Share})
	}
	return s
}

// RunID returns the stable identifier of the configured scenario
func (c *Config) RunID() string {
	return c.Fingerprint().RunID()
}
