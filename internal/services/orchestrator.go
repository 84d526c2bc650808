package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/platformbuilds/mirador-pcap/internal/alert"
	"github.com/platformbuilds/mirador-pcap/internal/config"
	"github.com/platformbuilds/mirador-pcap/internal/controlplane"
	"github.com/platformbuilds/mirador-pcap/internal/metrics"
	"github.com/platformbuilds/mirador-pcap/internal/models"
	"github.com/platformbuilds/mirador-pcap/internal/tracing"
	"github.com/platformbuilds/mirador-pcap/pkg/lock"
	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

// Pipeline step names, used for spans, logs and the step duration metric.
const (
	StepExtract         = "extract"
	StepResolve         = "resolve_credentials"
	StepLocateCompute   = "locate_compute"
	StepLock            = "acquire_lock"
	StepEnsureWatcher   = "ensure_watcher"
	StepEnsureAgent     = "ensure_agent"
	StepLocateStorage   = "locate_storage"
	StepRotateAndCreate = "rotate_and_create"
)

const lockReleaseTimeout = 5 * time.Second

// Dependencies are the collaborators an Orchestrator is built with.
type Dependencies struct {
	Authenticator controlplane.Authenticator
	Locker        lock.Locker
	Tracer        *tracing.PipelineTracer
	Logger        logger.Logger
	Now           func() time.Time
}

// Orchestrator runs one alert through the capture pipeline. It holds no
// per-invocation state and is safe for concurrent use.
type Orchestrator struct {
	resolver *CredentialResolver
	locator  *ResourceLocator
	watchers *WatcherEnsurer
	agents   *AgentEnsurer
	pool     *CapturePool
	locker   lock.Locker
	tracer   *tracing.PipelineTracer
	logger   logger.Logger
}

func NewOrchestrator(cfg *config.Config, deps Dependencies) *Orchestrator {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	locker := deps.Locker
	if locker == nil {
		locker = lock.NewNoopLocker()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = tracing.NewPipelineTracer(config.ServiceName)
	}

	capture := cfg.Capture
	return &Orchestrator{
		resolver: NewCredentialResolver(cfg.Azure, deps.Authenticator),
		locator:  NewResourceLocator(capture.StorageAccountID),
		watchers: NewWatcherEnsurer(capture.WatcherResourceGroup, capture.WatcherNamePrefix, log),
		agents:   NewAgentEnsurer(capture.Agent, log),
		pool: NewCapturePool(PoolPolicy{
			MaxCaptures:      capture.MaxCaptures,
			TimeLimitSeconds: int32(capture.TimeLimitSeconds),
			NameMaxLength:    capture.NameMaxLength,
		}, deps.Now, log),
		locker: locker,
		tracer: tracer,
		logger: log,
	}
}

// LockKey identifies the watcher pool an invocation mutates.
func LockKey(subscriptionID, region string) string {
	return fmt.Sprintf("pcap:%s:%s", subscriptionID, models.NormalizeRegion(region))
}

// Run executes the pipeline for one raw alert payload. It stops at the first
// failing step and returns a *models.PipelineError. Completed steps are not
// rolled back.
func (o *Orchestrator) Run(ctx context.Context, invocationID string, raw []byte) (result *models.CaptureResult, err error) {
	start := time.Now()
	ctx, span := o.tracer.StartInvocationSpan(ctx, invocationID)
	log := o.logger.With("invocationId", invocationID)

	defer func() {
		outcome := "success"
		if err != nil {
			kind := models.KindOf(err)
			outcome = string(kind)
			o.tracer.RecordError(span, err, attribute.String("error.kind", outcome))
			log.Error("Packet capture pipeline failed", "kind", kind, "error", err, "duration", time.Since(start))
		}
		metrics.AlertsProcessed.WithLabelValues(outcome).Inc()
		metrics.PipelineDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		span.End()
	}()

	var ac *models.AlertContext
	if err = o.step(ctx, log, StepExtract, func(context.Context) error {
		var xerr error
		ac, xerr = extract(raw)
		return xerr
	}); err != nil {
		return nil, err
	}

	log = log.With(ac.LogFields()...)
	span.SetAttributes(
		attribute.String("alert.subscription_id", ac.SubscriptionID),
		attribute.String("alert.resource_id", ac.ResourceID),
		attribute.String("alert.region", ac.ResourceRegion),
	)

	var cp controlplane.ControlPlane
	if err = o.step(ctx, log, StepResolve, func(ctx context.Context) error {
		var rerr error
		cp, rerr = o.resolver.Resolve(ctx, ac.SubscriptionID)
		return rerr
	}); err != nil {
		return nil, err
	}

	var target *models.ComputeTarget
	if err = o.step(ctx, log, StepLocateCompute, func(ctx context.Context) error {
		var lerr error
		target, lerr = o.locator.LocateCompute(ctx, cp, ac.ResourceID)
		return lerr
	}); err != nil {
		return nil, err
	}

	var unlock lock.Unlock
	key := LockKey(ac.SubscriptionID, ac.ResourceRegion)
	if err = o.step(ctx, log, StepLock, func(ctx context.Context) error {
		var lerr error
		unlock, lerr = o.acquire(ctx, key)
		return lerr
	}); err != nil {
		return nil, err
	}
	defer o.release(ctx, log, key, unlock)

	var endpoint *models.DiagnosticsEndpoint
	var watcherCreated bool
	if err = o.step(ctx, log, StepEnsureWatcher, func(ctx context.Context) error {
		var werr error
		endpoint, watcherCreated, werr = o.watchers.Ensure(ctx, cp, ac.ResourceRegion)
		return werr
	}); err != nil {
		return nil, err
	}
	if watcherCreated {
		metrics.WatchersCreated.WithLabelValues(models.NormalizeRegion(ac.ResourceRegion)).Inc()
	}

	var agentInstalled bool
	if err = o.step(ctx, log, StepEnsureAgent, func(ctx context.Context) error {
		var aerr error
		agentInstalled, aerr = o.agents.Ensure(ctx, cp, target)
		return aerr
	}); err != nil {
		return nil, err
	}
	if agentInstalled {
		metrics.AgentsInstalled.Inc()
	}

	var storage *models.StorageTarget
	if err = o.step(ctx, log, StepLocateStorage, func(ctx context.Context) error {
		var serr error
		storage, serr = o.locator.LocateStorage(ctx, cp)
		return serr
	}); err != nil {
		return nil, err
	}

	var record *models.CaptureRecord
	var evicted string
	if err = o.step(ctx, log, StepRotateAndCreate, func(ctx context.Context) error {
		var cerr error
		record, evicted, cerr = o.pool.RotateAndCreate(ctx, cp, *endpoint, target, storage)
		return cerr
	}); err != nil {
		return nil, err
	}

	region := models.NormalizeRegion(ac.ResourceRegion)
	if evicted != "" {
		metrics.CapturesEvicted.WithLabelValues(region).Inc()
	}
	metrics.CapturesCreated.WithLabelValues(region).Inc()

	result = &models.CaptureResult{
		InvocationID:   invocationID,
		CaptureName:    record.Name,
		Watcher:        endpoint.Name,
		Region:         endpoint.Region,
		TargetID:       target.ID,
		Evicted:        evicted,
		AgentInstalled: agentInstalled,
		WatcherCreated: watcherCreated,
	}

	log.Info("Packet capture started", "capture", result.CaptureName, "watcher", result.Watcher,
		"evicted", evicted, "agentInstalled", agentInstalled, "watcherCreated", watcherCreated,
		"duration", time.Since(start))
	return result, nil
}

func (o *Orchestrator) step(ctx context.Context, log logger.Logger, name string, fn func(context.Context) error) error {
	ctx, span := o.tracer.StartStepSpan(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	metrics.StepDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	if err != nil {
		o.tracer.RecordError(span, err, attribute.String("error.kind", string(models.KindOf(err))))
		log.Warn("Pipeline step failed", "step", name, "duration", elapsed)
		return err
	}
	log.Debug("Pipeline step completed", "step", name, "duration", elapsed)
	return nil
}

func (o *Orchestrator) acquire(ctx context.Context, key string) (lock.Unlock, error) {
	unlock, err := o.locker.Acquire(ctx, key)
	switch {
	case err == nil:
		metrics.LockAcquisitions.WithLabelValues("acquired").Inc()
		return unlock, nil
	case errors.Is(err, lock.ErrBusy):
		metrics.LockAcquisitions.WithLabelValues("busy").Inc()
		return nil, &models.PipelineError{Kind: models.KindBusy, Op: "acquire watcher lock", Fields: []string{key}, Err: err}
	default:
		metrics.LockAcquisitions.WithLabelValues("error").Inc()
		return nil, &models.PipelineError{Kind: models.KindProvisioning, Op: "acquire watcher lock", Fields: []string{key}, Err: err}
	}
}

func (o *Orchestrator) release(ctx context.Context, log logger.Logger, key string, unlock lock.Unlock) {
	if unlock == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lockReleaseTimeout)
	defer cancel()
	if err := unlock(rctx); err != nil {
		log.Warn("Failed to release watcher lock", "key", key, "error", err)
	}
}

func extract(raw []byte) (*models.AlertContext, error) {
	ac, err := alert.Extract(raw)
	if err == nil {
		return ac, nil
	}
	pe := &models.PipelineError{Kind: models.KindValidation, Op: "extract alert context", Err: err}
	var ve *alert.ValidationError
	if errors.As(err, &ve) {
		pe.Fields = ve.Fields()
	}
	return nil, pe
}
