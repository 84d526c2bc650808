// Package monitoring exposes the Prometheus endpoint for MIRADOR-PCAP and
// records control-plane call metrics.
//
// Usage:
//
//	router := gin.New()
//	monitoring.SetupPrometheusMetrics(router, "/metrics")
//
//	start := time.Now()
//	// ... remote call ...
//	monitoring.RecordRemoteCall("list_captures", time.Since(start), err)
//
// Available Metrics:
//   - mirador_pcap_remote_calls_total{operation, status}
//   - mirador_pcap_remote_call_duration_seconds{operation}
//   - mirador_pcap_errors_total{type, component}
//   - mirador_pcap_build_info{version, component}
//
// Pipeline and HTTP metrics live in internal/metrics.
package monitoring

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platformbuilds/mirador-pcap/internal/controlplane"
)

// Version is stamped into the build info metric.
var Version = "v0.3.0"

var (
	remoteCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirador_pcap_remote_calls_total",
			Help: "Total number of control-plane calls",
		},
		[]string{"operation", "status"}, // status: success, not_found, unauthorized, error
	)

	remoteCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mirador_pcap_remote_call_duration_seconds",
			Help:    "Control-plane call duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirador_pcap_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type", "component"},
	)
)

func init() {
	prometheus.MustRegister(remoteCallsTotal, remoteCallDuration, errorsTotal)
}

// SetupPrometheusMetrics mounts the metrics endpoint on router.
func SetupPrometheusMetrics(router gin.IRoutes, path string) {
	if path == "" {
		path = "/metrics"
	}

	// Register build info (ignore if already registered)
	_ = prometheus.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "mirador_pcap_build_info",
		Help: "Build information for MIRADOR-PCAP",
		ConstLabels: prometheus.Labels{
			"version":   Version,
			"component": "mirador-pcap",
		},
	}, func() float64 { return 1 }))

	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// RecordRemoteCall records one control-plane call.
func RecordRemoteCall(operation string, duration time.Duration, err error) {
	status := remoteStatus(err)
	if status == "error" {
		errorsTotal.WithLabelValues("remote", operation).Inc()
	}
	remoteCallsTotal.WithLabelValues(operation, status).Inc()
	remoteCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordError counts an error by type and component.
func RecordError(errType, component string) {
	errorsTotal.WithLabelValues(errType, component).Inc()
}

func remoteStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, controlplane.ErrNotFound):
		return "not_found"
	case errors.Is(err, controlplane.ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}
