package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platformbuilds/mirador-pcap/internal/api"
	"github.com/platformbuilds/mirador-pcap/internal/bootstrap"
	"github.com/platformbuilds/mirador-pcap/internal/config"
	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

func main() {
	// Load configuration
	cfg, configFile, err := config.LoadFile(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)
	if s, ok := logger.(interface{ Sync() error }); ok {
		defer s.Sync()
	}
	logger.Info("Starting MIRADOR-PCAP", "version", config.ServiceVersion, "environment", cfg.Environment,
		"configFile", configFile)

	if !cfg.Azure.HasCredentials() {
		logger.Warn("Service principal settings are incomplete; alerts will fail with CREDENTIALS_MISSING")
	}

	tracer, shutdownTracing, err := bootstrap.NewTracing(cfg.Tracing, logger)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", "error", err)
	}

	locker, err := bootstrap.NewLocker(cfg.Lock, logger)
	if err != nil {
		logger.Fatal("Failed to initialize watcher lock", "error", err)
	}
	defer locker.Close()

	auth, err := bootstrap.NewAuthenticator(cfg.Azure, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Azure authenticator", "error", err)
	}

	orchestrator := bootstrap.NewOrchestrator(cfg, auth, locker, tracer, logger)
	apiServer := api.NewServer(cfg, logger, orchestrator, locker)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	// Rebuild the pipeline when the config file changes. Listener, lock and
	// tracing settings need a restart.
	if configFile != "" {
		watcher := config.NewConfigWatcher(configFile, cfg, logger)
		watcher.RegisterWatcher(func(next *config.Config) {
			nextAuth, err := bootstrap.NewAuthenticator(next.Azure, logger)
			if err != nil {
				logger.Error("Ignoring reloaded configuration", "error", err)
				return
			}
			apiServer.SetRunner(bootstrap.NewOrchestrator(next, nextAuth, locker, tracer, logger))
			logger.Info("Capture pipeline rebuilt from reloaded configuration",
				"maxCaptures", next.Capture.MaxCaptures, "timeLimitSeconds", next.Capture.TimeLimitSeconds)
		})
		go func() {
			if err := watcher.Start(ctx); err != nil {
				logger.Error("Configuration watcher stopped", "error", err)
			}
		}()
	}

	// Start server
	if err := apiServer.Start(ctx); err != nil {
		logger.Fatal("Server failed to start", "error", err)
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("Tracing shutdown failed", "error", err)
	}

	logger.Info("MIRADOR-PCAP shutdown complete")
}
