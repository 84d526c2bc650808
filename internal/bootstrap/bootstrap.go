// Package bootstrap wires configuration into the runtime collaborators shared
// by the server and the CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/platformbuilds/mirador-pcap/internal/azure"
	"github.com/platformbuilds/mirador-pcap/internal/config"
	"github.com/platformbuilds/mirador-pcap/internal/controlplane"
	"github.com/platformbuilds/mirador-pcap/internal/monitoring"
	"github.com/platformbuilds/mirador-pcap/internal/services"
	"github.com/platformbuilds/mirador-pcap/internal/tracing"
	"github.com/platformbuilds/mirador-pcap/pkg/lock"
	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

// NewLocker returns the Redis-backed watcher lock, or a no-op one when disabled.
func NewLocker(cfg config.LockConfig, log logger.Logger) (lock.Locker, error) {
	if !cfg.Enabled {
		log.Info("Watcher lock disabled; invocations are not serialized across replicas")
		return lock.NewNoopLocker(), nil
	}

	locker, err := lock.NewRedisLocker(lock.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		TTL:         cfg.TTL(),
		WaitTimeout: cfg.WaitTimeout(),
	}, log)
	if err != nil {
		return nil, err
	}
	log.Info("Watcher lock initialized", "addr", cfg.Addr, "ttl", cfg.TTL(), "wait", cfg.WaitTimeout())
	return locker, nil
}

// NewTracing installs the OTLP tracer provider when enabled and returns its
// shutdown func. The returned tracer is always usable.
func NewTracing(cfg config.TracingConfig, log logger.Logger) (*tracing.PipelineTracer, func(context.Context) error, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = config.ServiceName
	}
	noop := func(context.Context) error { return nil }

	if !cfg.Enabled {
		return tracing.NewPipelineTracer(serviceName), noop, nil
	}

	tp, err := tracing.NewTracerProvider(serviceName, config.ServiceVersion, cfg.Endpoint)
	if err != nil {
		return nil, noop, fmt.Errorf("initializing tracing: %w", err)
	}
	log.Info("Tracing enabled", "endpoint", cfg.Endpoint, "service", serviceName)
	return tracing.NewPipelineTracer(serviceName), tp.Shutdown, nil
}

// NewAuthenticator returns the instrumented Azure authenticator for cfg.
func NewAuthenticator(cfg config.AzureConfig, log logger.Logger) (controlplane.Authenticator, error) {
	auth, err := azure.NewAuthenticator(cfg.Cloud, log)
	if err != nil {
		return nil, err
	}
	return monitoring.InstrumentAuthenticator(auth), nil
}

// NewOrchestrator builds the capture pipeline for one configuration snapshot.
func NewOrchestrator(cfg *config.Config, auth controlplane.Authenticator, locker lock.Locker,
	tracer *tracing.PipelineTracer, log logger.Logger) *services.Orchestrator {
	return services.NewOrchestrator(cfg, services.Dependencies{
		Authenticator: auth,
		Locker:        locker,
		Tracer:        tracer,
		Logger:        log,
	})
}
