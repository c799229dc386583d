package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AImitSK/skamp-monitoring/internal/api/middleware"
	"github.com/AImitSK/skamp-monitoring/internal/logger"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server wraps the gin engine and its http.Server.
type Server struct {
	config   ServerConfig
	engine   *gin.Engine
	server   *http.Server
	security *middleware.SecurityMiddleware
	log      logger.Interface
}

// NewServer creates the API server and registers all routes.
func NewServer(
	cfg ServerConfig,
	security *middleware.SecurityMiddleware,
	monitoring *MonitoringHandler,
	admin *AdminHandler,
	log logger.Interface,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	registerRoutes(engine, security, monitoring, admin)

	return &Server{
		config:   cfg,
		engine:   engine,
		security: security,
		log:      log,
		server: &http.Server{
			Addr:         cfg.Address,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// registerRoutes wires the route tree.
func registerRoutes(
	engine *gin.Engine,
	security *middleware.SecurityMiddleware,
	monitoring *MonitoringHandler,
	admin *AdminHandler,
) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	mon := engine.Group("/monitoring", security.Secret())
	{
		mon.POST("/auto-import", monitoring.AutoImport)
		mon.POST("/trackers", monitoring.CreateTracker)
		mon.GET("/trackers/:id/health", monitoring.TrackerHealth)
		mon.GET("/trackers/:id/pending", monitoring.PendingCandidates)
		mon.POST("/candidates/:id/confirm", monitoring.ConfirmCandidate)
		mon.POST("/candidates/:id/spam", monitoring.SpamCandidate)
		mon.POST("/clippings/:id/correct", monitoring.CorrectClipping)
		mon.POST("/channels/:id/enable", monitoring.EnableChannel)
		mon.POST("/channels/:id/disable", monitoring.DisableChannel)
	}

	adm := engine.Group("/admin/crawler", security.Admin())
	{
		adm.POST("/pause", admin.Pause)
		adm.POST("/resume", admin.Resume)
		adm.POST("/trigger", admin.Trigger)
		adm.POST("/trigger/:orgID", admin.Trigger)
		adm.GET("/status", admin.Status)
	}
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start runs the HTTP server and the rate limiter cleanup until the
// context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.security.Cleanup(ctx)

	s.log.Info("api server listening", "address", s.config.Address)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("api server shutting down")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}

	return nil
}
