package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archiver_http_requests_total",
			Help: "HTTP requests by route, method and status",
		},
		[]string{"path", "method", "status"},
	)

	httpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archiver_http_errors_total",
			Help: "HTTP errors by route, method and error code",
		},
		[]string{"path", "method", "code"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "archiver_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	poolTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archiver_pool_tasks_total",
			Help: "Worker pool tasks by pool and outcome",
		},
		[]string{"pool", "outcome"},
	)

	poolQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "archiver_pool_queue_depth",
			Help: "Tasks waiting for a worker",
		},
		[]string{"pool"},
	)

	poolTaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "archiver_pool_task_duration_seconds",
			Help:    "Time spent executing a pool task",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pool"},
	)

	transcripts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archiver_transcripts_total",
			Help: "Transcript generations by outcome",
		},
		[]string{"outcome"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "archiver_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	breakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archiver_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result",
		},
		[]string{"name", "result"},
	)

	reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archiver_reconciliations_total",
			Help: "Deletion reconciliations by outcome",
		},
		[]string{"outcome"},
	)
)

// Metrics records service counters into the default prometheus registry.
type Metrics struct{}

// NewMetrics returns a metrics recorder.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	httpRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	httpErrors.WithLabelValues(path, method, code).Inc()
}

// RecordTranscript counts a transcript generation outcome.
func (m *Metrics) RecordTranscript(outcome string) {
	if m == nil {
		return
	}
	transcripts.WithLabelValues(outcome).Inc()
}

// RecordReconciliation counts a deletion reconciliation outcome.
func (m *Metrics) RecordReconciliation(outcome string) {
	if m == nil {
		return
	}
	reconciliations.WithLabelValues(outcome).Inc()
}

// PoolQueued adjusts the queue depth gauge of a worker pool.
func PoolQueued(pool string, delta float64) {
	poolQueueDepth.WithLabelValues(pool).Add(delta)
}

// PoolTaskDone records a finished pool task.
func PoolTaskDone(pool, outcome string, duration time.Duration) {
	poolTasks.WithLabelValues(pool, outcome).Inc()
	poolTaskDuration.WithLabelValues(pool).Observe(duration.Seconds())
}

// BreakerState records the current state of a circuit breaker.
func BreakerState(name string, state float64) {
	breakerState.WithLabelValues(name).Set(state)
}

// BreakerRequest counts a call through a circuit breaker as success, failure or rejected.
func BreakerRequest(name, result string) {
	breakerRequests.WithLabelValues(name, result).Inc()
}
