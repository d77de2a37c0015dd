package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpDurationHistogram *prometheus.HistogramVec
	workflowCounter       *prometheus.CounterVec
	idempotencyCounter    *prometheus.CounterVec
	reviewQueueGauge      *prometheus.GaugeVec
	rateCacheCounter      *prometheus.CounterVec
	workerRunCounter      *prometheus.CounterVec
)

// Init registers all Prometheus collectors.
func Init() {
	registerOnce.Do(func() {
		httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"})

		workflowCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_workflow_transitions_total",
			Help: "Workflow state transitions by entity and action",
		}, []string{"entity", "action"})

		idempotencyCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idempotency_events_total",
			Help: "Idempotency middleware outcomes",
		}, []string{"outcome"})

		reviewQueueGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "otc_review_queue_size",
			Help: "Items waiting for an administrator, by kind",
		}, []string{"kind"})

		rateCacheCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_rate_cache_events_total",
			Help: "Current exchange rate cache lookups",
		}, []string{"outcome"})

		workerRunCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Background worker run outcomes",
		}, []string{"worker", "result"})

		prometheus.MustRegister(
			httpDurationHistogram,
			workflowCounter,
			idempotencyCounter,
			reviewQueueGauge,
			rateCacheCounter,
			workerRunCounter,
		)
	})
}

func ObserveHTTP(method, path string, status int, duration time.Duration) {
	if httpDurationHistogram == nil {
		return
	}
	httpDurationHistogram.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func IncrementWorkflowTransition(entity, action string) {
	if workflowCounter == nil {
		return
	}
	workflowCounter.WithLabelValues(entity, action).Inc()
}

func IncrementIdempotencyEvent(outcome string) {
	if idempotencyCounter == nil {
		return
	}
	idempotencyCounter.WithLabelValues(outcome).Inc()
}

func SetReviewQueueSize(kind string, size int64) {
	if reviewQueueGauge == nil {
		return
	}
	reviewQueueGauge.WithLabelValues(kind).Set(float64(size))
}

func IncrementRateCache(outcome string) {
	if rateCacheCounter == nil {
		return
	}
	rateCacheCounter.WithLabelValues(outcome).Inc()
}

func IncrementWorkerRun(worker, result string) {
	if workerRunCounter == nil {
		return
	}
	workerRunCounter.WithLabelValues(worker, result).Inc()
}
