package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors used by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	created        prometheus.Counter
	deleted        prometheus.Counter
	bulkFailures   prometheus.Counter
	storageFailure *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "polaris",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "polaris",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		created: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "polaris",
			Name:      "measurements_created_total",
			Help:      "Total number of measurements persisted, single and bulk.",
		}),
		deleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "polaris",
			Name:      "measurements_deleted_total",
			Help:      "Total number of measurements deleted.",
		}),
		bulkFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "polaris",
			Name:      "bulk_create_failures_total",
			Help:      "Total number of rolled back bulk creates.",
		}),
		storageFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "polaris",
			Name:      "storage_errors_total",
			Help:      "Total number of storage failures by operation.",
		}, []string{"operation"}),
	}
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) MeasurementsCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.created.Add(float64(n))
}

func (m *Metrics) MeasurementDeleted() {
	if m == nil {
		return
	}
	m.deleted.Inc()
}

func (m *Metrics) BulkCreateFailed() {
	if m == nil {
		return
	}
	m.bulkFailures.Inc()
}

func (m *Metrics) StorageError(operation string) {
	if m == nil {
		return
	}
	m.storageFailure.WithLabelValues(operation).Inc()
}
