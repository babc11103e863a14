// emission-sim - Monte Carlo estimator for block reward distribution
// across mining pools until tail emission.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tos-network/emission-sim/internal/api"
	"github.com/tos-network/emission-sim/internal/config"
	"github.com/tos-network/emission-sim/internal/newrelic"
	"github.com/tos-network/emission-sim/internal/notify"
	"github.com/tos-network/emission-sim/internal/profiling"
	"github.com/tos-network/emission-sim/internal/report"
	"github.com/tos-network/emission-sim/internal/runner"
	"github.com/tos-network/emission-sim/internal/storage"
	"github.com/tos-network/emission-sim/internal/util"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	trials := flag.Int("trials", 0, "Override configured trial count")
	workers := flag.Int("workers", 0, "Override configured worker count")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("emission-sim v%s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *trials > 0 {
		cfg.Simulation.Trials = *trials
	}
	if *workers > 0 {
		cfg.Simulation.Workers = *workers
	}

	// Initialize logger
	if err := util.InitLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	runID := cfg.RunID()
	util.Infof("emission-sim v%s starting run %s", version, runID)

	// New Relic APM
	nrAgent := newrelic.NewAgent(&cfg.NewRelic)
	if err := nrAgent.Start(); err != nil {
		util.Fatalf("Failed to start New Relic agent: %v", err)
	}
	defer nrAgent.Stop()

	// pprof server
	profiler := profiling.NewServer(&cfg.Profiling)
	if err := profiler.Start(); err != nil {
		util.Fatalf("Failed to start profiling server: %v", err)
	}
	defer profiler.Stop()

	// Redis for result persistence
	var redis *storage.RedisClient
	if cfg.Redis.Enabled {
		redis, err = storage.NewRedisClient(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			util.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redis.Close()
	}

	// API server
	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.NewServer(cfg, redis)
		if err := apiServer.Start(); err != nil {
			util.Fatalf("Failed to start API server: %v", err)
		}
	}

	// Ctrl+C cancels an in-flight run between trials.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run := runner.New(cfg)
	run.SetProgressFunc(func(p runner.Progress) {
		if apiServer != nil {
			apiServer.PublishProgress(p)
		}
		nrAgent.UpdateRunMetrics(p.Done, p.Total)
	})

	nrAgent.RecordRunStarted(runID, cfg.Simulation.Trials, cfg.WorkerCount())

	result, err := run.Run(ctx)
	if err != nil {
		util.Fatalf("Run aborted: %v", err)
	}

	if err := report.WriteRun(os.Stdout, result.RunID, result.Trials, result.Summaries); err != nil {
		util.Errorf("Failed to write report: %v", err)
	}

	rec := &storage.RunRecord{
		RunID: result.RunID,
		Scenario: storage.ScenarioRecord{
			StartHeight:   cfg.Scenario.StartHeight,
			StartSupply:   cfg.Scenario.StartSupply,
			TailEmission:  cfg.Scenario.TailEmission,
			EmissionSpeed: cfg.Scenario.EmissionSpeed,
			UnitScale:     cfg.Scenario.UnitScale,
		},
		Trials:      result.Trials,
		ElapsedMS:   result.Elapsed.Milliseconds(),
		CompletedAt: time.Now().Unix(),
		Pools:       result.Summaries,
	}

	if redis != nil {
		if err := redis.SaveRun(rec); err != nil {
			util.Errorf("Failed to save run: %v", err)
		}
	}

	nrAgent.RecordRunCompleted(result.RunID, result.Trials, result.Elapsed)
	for _, p := range result.Summaries {
		nrAgent.RecordPoolEstimate(result.RunID, p.Name, p.BlocksMean, p.RewardMean)
	}

	notifier := notify.NewNotifier(&cfg.Notify)
	notifier.NotifyRunComplete(rec)

	if apiServer != nil {
		apiServer.PublishResult(result)

		// Keep serving results until interrupted.
		util.Info("Run complete. Press Ctrl+C to stop.")
		<-ctx.Done()
		util.Info("Shutting down...")
		apiServer.Stop()
	}

	util.Info("Done")
}
