package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordDomainEvents(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.MeasurementsCreated(3)
	m.MeasurementsCreated(0)
	m.MeasurementDeleted()
	m.BulkCreateFailed()
	m.StorageError("create")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.created))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bulkFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageFailure.WithLabelValues("create")))
}

func TestMetricsObserveHTTPRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/measurements/{id}", http.StatusNotFound, 15*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/measurements/{id}", "404")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.MeasurementsCreated(1)
		m.MeasurementDeleted()
		m.BulkCreateFailed()
		m.StorageError("list")
	})
}
