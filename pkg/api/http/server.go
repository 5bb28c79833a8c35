package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/livegraph/pkg/domain"
	"github.com/aescanero/livegraph/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// LiveGraph is the live graph client as seen by the API.
type LiveGraph interface {
	Status() domain.Status
	Snapshot() domain.Snapshot
	Connect(ctx context.Context) error
	Disconnect()
}

// Server represents the HTTP API server
type Server struct {
	router   *gin.Engine
	server   *http.Server
	client   LiveGraph
	storage  ports.SnapshotStorage
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr    string
	Client  LiveGraph
	Storage ports.SnapshotStorage
	// Gatherer backs /metrics. Nil means prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(corsMiddleware())

	s := &Server{
		router:   router,
		client:   cfg.Client,
		storage:  cfg.Storage,
		gatherer: gatherer,
		logger:   logger,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// setupRoutes configures API routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// Metrics
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.handleGetStatus)
		v1.GET("/graph", s.handleGetGraph)
		v1.GET("/graph/saved", s.handleGetSavedGraph)
		v1.POST("/connect", s.handleConnect)
		v1.POST("/disconnect", s.handleDisconnect)
	}
}

// SetupWebSocket adds the graph viewer WebSocket route
func (s *Server) SetupWebSocket(handler interface{ HandleGraphStream(*gin.Context) }) {
	s.router.GET("/api/v1/graph/ws", handler.HandleGraphStream)
}

// Handler returns the HTTP handler serving the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}
