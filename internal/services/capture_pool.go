package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/platformbuilds/mirador-pcap/internal/config"
	"github.com/platformbuilds/mirador-pcap/internal/controlplane"
	"github.com/platformbuilds/mirador-pcap/internal/metrics"
	"github.com/platformbuilds/mirador-pcap/internal/models"
	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

// CaptureNameTimeLayout is appended to the truncated VM name (UTC, 24h).
const CaptureNameTimeLayout = "20060102150405"

// PoolPolicy bounds the capture pool of a watcher.
type PoolPolicy struct {
	MaxCaptures      int
	TimeLimitSeconds int32
	NameMaxLength    int
}

// CapturePool enforces the pool bound and creates new captures.
type CapturePool struct {
	policy PoolPolicy
	now    func() time.Time
	logger logger.Logger
}

// NewCapturePool clamps policy to usable values: at least one capture per
// pool, and the default name length when none is set.
func NewCapturePool(policy PoolPolicy, now func() time.Time, log logger.Logger) *CapturePool {
	if policy.MaxCaptures < 1 {
		policy.MaxCaptures = 1
	}
	if policy.NameMaxLength < 1 {
		policy.NameMaxLength = config.DefaultNameMaxLength
	}
	if policy.TimeLimitSeconds < 1 {
		policy.TimeLimitSeconds = config.DefaultTimeLimitSeconds
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &CapturePool{policy: policy, now: now, logger: log}
}

// CaptureName builds the capture name from the first maxLen runes of the VM name.
func CaptureName(vmName string, maxLen int, at time.Time) string {
	runes := []rune(vmName)
	if maxLen < 0 {
		maxLen = 0
	}
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	return string(runes) + at.UTC().Format(CaptureNameTimeLayout)
}

type rankedCapture struct {
	record models.CaptureRecord
	start  time.Time
}

// RotateAndCreate evicts the earliest-started capture when the pool is full,
// then creates one for target. It returns the created record and the name of
// the evicted capture, if any. When eviction fails nothing is created.
func (p *CapturePool) RotateAndCreate(ctx context.Context, cp controlplane.ControlPlane, endpoint models.DiagnosticsEndpoint,
	target *models.ComputeTarget, storage *models.StorageTarget) (*models.CaptureRecord, string, error) {
	const op = "rotate and create capture"

	captures, err := cp.ListCaptures(ctx, endpoint)
	if err != nil {
		return nil, "", models.NewPipelineError(models.KindProvisioning, op,
			fmt.Errorf("list captures on %s: %w", endpoint.Name, err))
	}
	metrics.CapturePoolSize.WithLabelValues(endpoint.Name).Set(float64(len(captures)))

	var evicted string
	if len(captures) >= p.policy.MaxCaptures {
		evicted, err = p.evictOldest(ctx, cp, endpoint, captures)
		if err != nil {
			return nil, "", models.NewPipelineError(models.KindProvisioning, op, err)
		}
	}

	req := models.CaptureRequest{
		Name:             CaptureName(target.Name, p.policy.NameMaxLength, p.now()),
		TargetID:         target.ID,
		StorageID:        storage.ID,
		TimeLimitSeconds: p.policy.TimeLimitSeconds,
	}

	record, err := cp.CreateCapture(ctx, endpoint, req)
	if err != nil {
		return nil, evicted, models.NewPipelineError(models.KindProvisioning, op,
			fmt.Errorf("create capture %s: %w", req.Name, err))
	}

	p.logger.Info("Created packet capture", "capture", req.Name, "watcher", endpoint.Name,
		"vm", target.Name, "timeLimitSeconds", req.TimeLimitSeconds, "poolSize", len(captures))
	return record, evicted, nil
}

// evictOldest deletes exactly one capture: the one with the earliest start
// time. Captures that never started (zero start time) rank first.
func (p *CapturePool) evictOldest(ctx context.Context, cp controlplane.ControlPlane, endpoint models.DiagnosticsEndpoint,
	captures []models.CaptureRecord) (string, error) {
	if len(captures) == 0 {
		return "", nil
	}
	ranked := make([]rankedCapture, len(captures))

	g, gctx := errgroup.WithContext(ctx)
	for i := range captures {
		g.Go(func() error {
			status, err := cp.GetCaptureStatus(gctx, endpoint, captures[i].Name)
			if err != nil {
				return fmt.Errorf("get status of capture %s: %w", captures[i].Name, err)
			}
			start := status.StartTime
			if start.IsZero() {
				start = captures[i].StartTime
			}
			ranked[i] = rankedCapture{record: captures[i], start: start}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].start.Before(ranked[b].start)
	})

	oldest := ranked[0].record
	if err := cp.DeleteCapture(ctx, endpoint, oldest.Name); err != nil {
		return "", fmt.Errorf("delete capture %s: %w", oldest.Name, err)
	}

	p.logger.Info("Evicted oldest packet capture", "capture", oldest.Name, "watcher", endpoint.Name,
		"startTime", ranked[0].start, "poolSize", len(captures), "maxCaptures", p.policy.MaxCaptures)
	return oldest.Name, nil
}
