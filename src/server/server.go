package server

import (
	"fmt"
	"sync"

	"market-pipeline/src/logger"
	"market-pipeline/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// DashboardServer is the distribution edge for presentation clients: REST
// snapshot endpoints plus a websocket hub pushing canonical records.
// -----------------------------------------------------------------------------

// MetricsFunc supplies the current pipeline counters for /api/metrics.
type MetricsFunc func() models.MProcessingMetrics

type DashboardServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Metrics MetricsFunc
	engine  *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan models.MCanonicalRecord
	register   chan *Client
	unregister chan *Client

	// Latest canonical record per symbol
	latest     map[string]models.MCanonicalRecord
	stateMutex sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDashboardServer(cfg *models.MConfig, log *logger.Logger, metrics MetricsFunc) *DashboardServer {
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &DashboardServer{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics,
		engine:  gin.Default(),
		clients: make(map[*Client]struct{}),
		// Buffered queue so bursts of records do not block the pipeline
		broadcast:  make(chan models.MCanonicalRecord, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		latest:     make(map[string]models.MCanonicalRecord),
	}

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/metrics", s.getMetrics)
	s.engine.GET("/api/snapshot", s.getSnapshot)
	s.engine.GET("/api/snapshot/:symbol", s.getSymbolSnapshot)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *DashboardServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.runHub()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) Stop() error {
	close(s.broadcast)
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *DashboardServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	symbols := len(s.latest)
	s.stateMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":      "ok",
		"connections": connections,
		"symbols":     symbols,
	})
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getMetrics(c *gin.Context) {
	if s.Metrics == nil {
		c.JSON(200, models.MProcessingMetrics{})
		return
	}
	c.JSON(200, s.Metrics())
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getSnapshot(c *gin.Context) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	c.JSON(200, s.latest)
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) getSymbolSnapshot(c *gin.Context) {
	symbol := c.Param("symbol")

	s.stateMutex.RLock()
	rec, ok := s.latest[symbol]
	s.stateMutex.RUnlock()

	if !ok {
		c.JSON(404, gin.H{"error": fmt.Sprintf("no data for symbol %s", symbol)})
		return
	}
	c.JSON(200, rec)
}
