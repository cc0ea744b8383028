package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordProviderCall(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordProviderCall("balance", 0.1, nil)
	m.RecordProviderCall("balance", 0.2, errors.New("boom"))
	m.RecordProviderCall("balance", 0.3, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.providerCallsTotal.WithLabelValues("balance", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.providerCallsTotal.WithLabelValues("balance", "error")))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordHTTPRequest("status", "GET", 200)
	m.RecordHTTPRequest("transfer", "POST", 400)
	m.RecordHTTPRequest("transfer", "POST", 404)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("status", "GET", "2xx")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("transfer", "POST", "4xx")))
}

func TestWSClientGauge(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordWSClientChange(1)
	m.RecordWSClientChange(1)
	m.RecordWSClientChange(-1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.wsActiveClients))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordProviderCall("balance", 1, nil)
		m.RecordConnect("success")
		m.RecordNotification("info")
		m.RecordHTTPRequest("status", "GET", 200)
		m.RecordWSClientChange(1)
	})
}

func TestStatusCodeToString(t *testing.T) {
	assert.Equal(t, "2xx", statusCodeToString(204))
	assert.Equal(t, "3xx", statusCodeToString(302))
	assert.Equal(t, "5xx", statusCodeToString(503))
	assert.Equal(t, "unknown", statusCodeToString(0))
}
