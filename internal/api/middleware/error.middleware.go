package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/mirador-pcap/internal/models"
	"github.com/platformbuilds/mirador-pcap/internal/monitoring"
	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

// Error codes returned to the alert sender
const (
	CodeInvalidAlert       = "INVALID_ALERT"
	CodeResourceNotFound   = "RESOURCE_NOT_FOUND"
	CodeCredentialsMissing = "CREDENTIALS_MISSING"
	CodeAuthFailed         = "AUTH_FAILED"
	CodeConfigError        = "CONFIG_ERROR"
	CodeProvisioningFailed = "PROVISIONING_FAILED"
	CodeEndpointBusy       = "ENDPOINT_BUSY"
	CodeInternal           = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Status  string       `json:"status"`
	Error   string       `json:"error"`
	Code    string       `json:"code,omitempty"`
	Details *ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail carries the classification of a pipeline failure
type ErrorDetail struct {
	Kind         string   `json:"kind"`
	Operation    string   `json:"operation,omitempty"`
	Fields       []string `json:"fields,omitempty"`
	InvocationID string   `json:"invocation_id,omitempty"`
}

// ErrorHandler renders the last handler error as an ErrorResponse
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		statusCode, resp := buildErrorResponse(err)
		if resp.Details != nil {
			resp.Details.InvocationID = c.GetString(RequestIDKey)
		}

		logError(log, statusCode, resp, c)
		monitoring.RecordError(resp.Code, "webhook_api")

		if c.Writer.Written() {
			return
		}
		c.JSON(statusCode, resp)
	}
}

func buildErrorResponse(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Status: "error", Error: err.Error(), Code: CodeInternal}

	var pe *models.PipelineError
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError, resp
	}

	resp.Code = CodeFor(pe.Kind)
	resp.Details = &ErrorDetail{Kind: string(pe.Kind), Operation: pe.Op, Fields: pe.Fields}
	return StatusFor(pe.Kind), resp
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind models.ErrorKind) int {
	switch {
	case kind.ClientFault():
		return http.StatusBadRequest
	case kind == models.KindBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CodeFor maps an error kind to its machine-readable code
func CodeFor(kind models.ErrorKind) string {
	switch kind {
	case models.KindValidation:
		return CodeInvalidAlert
	case models.KindNotFound:
		return CodeResourceNotFound
	case models.KindCredential:
		return CodeCredentialsMissing
	case models.KindAuth:
		return CodeAuthFailed
	case models.KindConfig:
		return CodeConfigError
	case models.KindProvisioning:
		return CodeProvisioningFailed
	case models.KindBusy:
		return CodeEndpointBusy
	default:
		return CodeInternal
	}
}

// logError logs errors with appropriate level
func logError(log logger.Logger, statusCode int, resp ErrorResponse, c *gin.Context) {
	fields := []interface{}{
		"status", statusCode,
		"code", resp.Code,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
		"error", resp.Error,
	}

	if requestID := c.GetString(RequestIDKey); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}

	if statusCode >= 500 {
		log.Error("HTTP Error", fields...)
	} else {
		log.Warn("HTTP Error", fields...)
	}
}
