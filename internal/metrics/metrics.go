// ================================
// internal/metrics/metrics.go - Self-monitoring for MIRADOR-PCAP
// ================================

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirador_pcap_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mirador_pcap_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Alert pipeline metrics
	AlertsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirador_pcap_alerts_processed_total",
			Help: "Total number of alerts run through the capture pipeline",
		},
		[]string{"result"}, // success or the error kind
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mirador_pcap_pipeline_duration_seconds",
			Help:    "End-to-end capture pipeline duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"result"},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mirador_pcap_pipeline_step_duration_seconds",
			Help:    "Duration of each pipeline step in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"step"},
	)

	CapturesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirador_pcap_captures_created_total",
			Help: "Total number of packet captures created",
		},
		[]string{"region"},
	)

	CapturesEvicted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirador_pcap_captures_evicted_total",
			Help: "Total number of packet captures deleted to make room in a full pool",
		},
		[]string{"region"},
	)

	CapturePoolSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mirador_pcap_capture_pool_size",
			Help: "Number of captures observed on a watcher before rotation",
		},
		[]string{"watcher"},
	)

	WatchersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirador_pcap_watchers_created_total",
			Help: "Total number of network watchers created",
		},
		[]string{"region"},
	)

	AgentsInstalled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mirador_pcap_agents_installed_total",
			Help: "Total number of capture agent extensions installed",
		},
	)

	// Endpoint lock metrics
	LockAcquisitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirador_pcap_lock_acquisitions_total",
			Help: "Endpoint lock acquisition attempts",
		},
		[]string{"result"}, // acquired, busy, error
	)
)
