package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/mirador-pcap/internal/api/handlers"
	"github.com/platformbuilds/mirador-pcap/internal/api/middleware"
	"github.com/platformbuilds/mirador-pcap/internal/config"
	"github.com/platformbuilds/mirador-pcap/internal/monitoring"
	"github.com/platformbuilds/mirador-pcap/pkg/lock"
	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

type Server struct {
	config     *config.Config
	logger     logger.Logger
	locker     lock.Locker
	webhook    *handlers.WebhookHandler
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(cfg *config.Config, log logger.Logger, runner handlers.PipelineRunner, locker lock.Locker) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if locker == nil {
		locker = lock.NewNoopLocker()
	}

	server := &Server{
		config:  cfg,
		logger:  log,
		locker:  locker,
		webhook: handlers.NewWebhookHandler(runner, cfg.Server.MaxBodyBytes, log),
		router:  gin.New(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// Request id, reused as the pipeline invocation id
	s.router.Use(middleware.RequestID())

	// Request logging
	s.router.Use(middleware.RequestLogger(s.logger))

	// Prometheus request metrics
	s.router.Use(middleware.MetricsMiddleware())

	// Typed error rendering
	s.router.Use(middleware.ErrorHandler(s.logger))

	// Prometheus metrics endpoint
	monitoring.SetupPrometheusMetrics(s.router, s.config.Monitoring.MetricsPath)
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.locker, s.logger)

	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)

	v1 := s.router.Group("/api/v1")
	v1.GET("/health", healthHandler.HealthCheck)
	v1.POST("/alerts/packet-capture", s.webhook.HandleAlert)

	// Function-style trigger route kept for existing alert action groups
	s.router.POST("/api/AlertPacketCapture", s.webhook.HandleAlert)
	s.router.GET("/api/AlertPacketCapture", s.webhook.HandleAlert)
}

// SetRunner swaps the pipeline after a configuration reload.
func (s *Server) SetRunner(runner handlers.PipelineRunner) {
	s.webhook.SetRunner(runner)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddr(),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout(),
		WriteTimeout: s.config.Server.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("MIRADOR-PCAP webhook server starting", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("Shutting down MIRADOR-PCAP gracefully")
	}

	// In-flight pipelines get the full shutdown window to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.DefaultShutdownTimeout*time.Millisecond)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}
