package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/mirador-pcap/internal/api/middleware"
	"github.com/platformbuilds/mirador-pcap/internal/models"
	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

// PipelineRunner runs one alert payload through the capture pipeline.
type PipelineRunner interface {
	Run(ctx context.Context, invocationID string, raw []byte) (*models.CaptureResult, error)
}

type runnerRef struct{ PipelineRunner }

// WebhookHandler receives alert webhooks. The runner can be swapped while
// requests are in flight; each request uses the runner it started with.
type WebhookHandler struct {
	runner       atomic.Pointer[runnerRef]
	maxBodyBytes int64
	logger       logger.Logger
}

// CaptureResponse is the success body of the webhook
type CaptureResponse struct {
	Status string `json:"status"`
	models.CaptureResult
}

func NewWebhookHandler(runner PipelineRunner, maxBodyBytes int64, log logger.Logger) *WebhookHandler {
	h := &WebhookHandler{maxBodyBytes: maxBodyBytes, logger: log}
	h.SetRunner(runner)
	return h
}

// SetRunner replaces the pipeline used by subsequent requests.
func (h *WebhookHandler) SetRunner(runner PipelineRunner) {
	h.runner.Store(&runnerRef{runner})
}

// POST /api/v1/alerts/packet-capture
func (h *WebhookHandler) HandleAlert(c *gin.Context) {
	raw, err := h.readBody(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// The pipeline runs to completion even if the sender hangs up; stopping
	// between evict and create would shrink the pool without a new capture.
	ctx := context.WithoutCancel(c.Request.Context())
	invocationID := c.GetString(middleware.RequestIDKey)
	result, err := h.runner.Load().Run(ctx, invocationID, raw)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, CaptureResponse{Status: "success", CaptureResult: *result})
}

func (h *WebhookHandler) readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	raw, err := io.ReadAll(body)
	if err == nil {
		return raw, nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, &models.PipelineError{
			Kind: models.KindValidation,
			Op:   "read alert body",
			Err:  errors.New("alert payload exceeds the size limit"),
		}
	}
	return nil, &models.PipelineError{Kind: models.KindValidation, Op: "read alert body", Err: err}
}
