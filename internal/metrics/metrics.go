package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// Transfers
	TransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfers_total",
			Help: "Transfer requests by resulting status",
		},
		[]string{"status"}, // pending|confirmed|rejected
	)
	TransferFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_operation_failures_total",
			Help: "Failed approve/reject operations by error kind",
		},
		[]string{"operation", "kind"},
	)
	AuditWriteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "transfer_audit_write_failures_total",
			Help: "Rejected transfer records that could not be persisted",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// Handler serves /metrics.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(TransfersTotal)
	prometheus.MustRegister(TransferFailures)
	prometheus.MustRegister(AuditWriteFailures)
	prometheus.MustRegister(WorkerQueueDepth)
}
