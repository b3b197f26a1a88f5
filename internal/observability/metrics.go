package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	collaboratorRequestsTotal  *prometheus.CounterVec
	collaboratorLatencySeconds *prometheus.HistogramVec
	collaboratorFailuresTotal  *prometheus.CounterVec

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	uploadRejectedTotal *prometheus.CounterVec
	evaluationsTotal    prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the client and the collaborator stub.
func RegisterMetrics() {
	registerOnce.Do(func() {
		collaboratorRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Requests sent to the REST collaborator.",
		}, []string{"operation", "status"})

		collaboratorLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gema",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests sent to the REST collaborator.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"operation"})

		collaboratorFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "client",
			Name:      "failures_total",
			Help:      "Failed collaborator requests by failure kind.",
		}, []string{"operation", "kind"})

		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "collaborator",
			Name:      "http_requests_total",
			Help:      "Total number of requests served by the collaborator stub.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gema",
			Subsystem: "collaborator",
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for collaborator stub requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "collaborator",
			Name:      "http_errors_total",
			Help:      "Total number of error responses returned by the collaborator stub.",
		}, []string{"method", "route", "status"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "collaborator",
			Name:      "upload_rejected_total",
			Help:      "Project uploads rejected by the collaborator stub.",
		}, []string{"reason"})

		evaluationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gema",
			Subsystem: "collaborator",
			Name:      "evaluations_total",
			Help:      "Evaluations stored by the collaborator stub.",
		})

		prometheus.MustRegister(
			collaboratorRequestsTotal,
			collaboratorLatencySeconds,
			collaboratorFailuresTotal,
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			uploadRejectedTotal,
			evaluationsTotal,
		)
	})
}

// CollaboratorRequests counts client requests by operation and HTTP status.
func CollaboratorRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return collaboratorRequestsTotal
}

// CollaboratorLatency observes client request latency by operation.
func CollaboratorLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return collaboratorLatencySeconds
}

// CollaboratorFailures counts client failures by kind (network, rejected, unauthorized, decode).
func CollaboratorFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return collaboratorFailuresTotal
}

// HTTPRequests exposes the counter for stub requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for stub requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for stub error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// UploadRejected counts rejected uploads by reason.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// Evaluations counts stored evaluations.
func Evaluations() prometheus.Counter {
	RegisterMetrics()
	return evaluationsTotal
}
