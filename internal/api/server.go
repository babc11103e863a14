// Package api provides the REST API server for simulation results.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/tos-network/emission-sim/internal/config"
	"github.com/tos-network/emission-sim/internal/runner"
	"github.com/tos-network/emission-sim/internal/stats"
	"github.com/tos-network/emission-sim/internal/storage"
	"github.com/tos-network/emission-sim/internal/util"
)

// Run states reported by /api/status
const (
	StateRunning  = "running"
	StateComplete = "complete"
)

// ScenarioResponse is the /api/scenario response
type ScenarioResponse struct {
	RunID         string             `json:"run_id"`
	StartHeight   uint64             `json:"start_height"`
	StartSupply   float64            `json:"start_supply"`
	TailEmission  float64            `json:"tail_emission"`
	EmissionSpeed uint               `json:"emission_speed"`
	UnitScale     float64            `json:"unit_scale"`
	Trials        int                `json:"trials"`
	FirstSeed     int64              `json:"first_seed"`
	Pools         []PoolDescription  `json:"pools"`
}

// PoolDescription is one configured pool in the scenario response
type PoolDescription struct {
	Name  string  `json:"name"`
	Share float64 `json:"share"`
}

// StatusResponse is the /api/status response
type StatusResponse struct {
	State    string          `json:"state"`
	Progress runner.Progress `json:"progress"`
	Now      int64           `json:"now"`
}

// ResultsResponse is the /api/results response
type ResultsResponse struct {
	RunID     string              `json:"run_id"`
	Trials    int                 `json:"trials"`
	ElapsedMS int64               `json:"elapsed_ms"`
	Pools     []stats.PoolSummary `json:"pools"`
}

// Server is the API server
type Server struct {
	cfg    *config.Config
	redis  *storage.RedisClient // nil when persistence is disabled
	router *gin.Engine
	server *http.Server

	mu       sync.RWMutex
	progress runner.Progress
	result   *runner.Result

	hub *progressHub
}

// NewServer creates a new API server. redis may be nil.
func NewServer(cfg *config.Config, redis *storage.RedisClient) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		cfg:      cfg,
		redis:    redis,
		router:   router,
		progress: runner.Progress{Total: cfg.Simulation.Trials},
		hub:      newProgressHub(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures API endpoints
func (s *Server) setupRoutes() {
	// CORS middleware
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := s.router.Group("/api")
	{
		api.GET("/scenario", s.handleScenario)
		api.GET("/status", s.handleStatus)
		api.GET("/results", s.handleResults)
		api.GET("/runs", s.handleRuns)
		api.GET("/runs/:id", s.handleRun)
		api.GET("/progress/ws", s.handleProgressWS)
	}

	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}

// Start begins the API server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.cfg.API.Bind,
		Handler: s.router,
	}

	util.Infof("API server listening on %s", s.cfg.API.Bind)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Errorf("API server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts down the API server
func (s *Server) Stop() error {
	s.hub.closeAll()
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// PublishProgress records a progress snapshot and forwards it to
// websocket subscribers. Safe for concurrent use by trial workers.
func (s *Server) PublishProgress(p runner.Progress) {
	s.mu.Lock()
	if p.Done > s.progress.Done {
		s.progress = p
	}
	p = s.progress
	s.mu.Unlock()

	s.hub.broadcast(p)
}

// PublishResult records the completed run for /api/results.
func (s *Server) PublishResult(result *runner.Result) {
	s.mu.Lock()
	s.result = result
	s.progress = runner.Progress{Done: result.Trials, Total: result.Trials}
	s.mu.Unlock()

	s.hub.broadcast(s.progress)
}

// handleScenario returns the configured scenario
func (s *Server) handleScenario(c *gin.Context) {
	resp := &ScenarioResponse{
		RunID:         s.cfg.RunID(),
		StartHeight:   s.cfg.Scenario.StartHeight,
		StartSupply:   s.cfg.Scenario.StartSupply,
		TailEmission:  s.cfg.Scenario.TailEmission,
		EmissionSpeed: s.cfg.Scenario.EmissionSpeed,
		UnitScale:     s.cfg.Scenario.UnitScale,
		Trials:        s.cfg.Simulation.Trials,
		FirstSeed:     s.cfg.Simulation.FirstSeed,
	}
	for _, p := range s.cfg.Pools {
		resp.Pools = append(resp.Pools, PoolDescription{Name: p.Name, Share: p.Share})
	}
	c.JSON(200, resp)
}

// handleStatus returns the run state and progress
func (s *Server) handleStatus(c *gin.Context) {
	s.mu.RLock()
	state := StateRunning
	if s.result != nil {
		state = StateComplete
	}
	resp := &StatusResponse{
		State:    state,
		Progress: s.progress,
		Now:      time.Now().Unix(),
	}
	s.mu.RUnlock()

	c.JSON(200, resp)
}

// handleResults returns the aggregated statistics of the completed run
func (s *Server) handleResults(c *gin.Context) {
	s.mu.RLock()
	result := s.result
	s.mu.RUnlock()

	if result == nil {
		c.JSON(404, gin.H{"error": "run not complete"})
		return
	}

	c.JSON(200, &ResultsResponse{
		RunID:     result.RunID,
		Trials:    result.Trials,
		ElapsedMS: result.Elapsed.Milliseconds(),
		Pools:     result.Summaries,
	})
}

// handleRuns lists persisted runs, newest first
func (s *Server) handleRuns(c *gin.Context) {
	if s.redis == nil {
		c.JSON(503, gin.H{"error": "persistence disabled"})
		return
	}

	runs, err := s.redis.ListRuns(50)
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to list runs"})
		return
	}
	c.JSON(200, gin.H{"runs": runs})
}

// handleRun returns one persisted run by ID
func (s *Server) handleRun(c *gin.Context) {
	if s.redis == nil {
		c.JSON(503, gin.H{"error": "persistence disabled"})
		return
	}

	rec, err := s.redis.GetRun(c.Param("id"))
	if err == redis.Nil {
		c.JSON(404, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		c.JSON(500, gin.H{"error": "Failed to get run"})
		return
	}
	c.JSON(200, rec)
}
