package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilReceiverIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFlush(time.Millisecond, nil)
		m.ObserveHTTP("/v0/status", "GET", 200, time.Millisecond)
		m.ReplicaFailed("http://localhost:8081")
		m.SetDiskTables(3)
	})
}

func TestMetrics_CountsFlushResults(t *testing.T) {
	m := NewMetrics()
	m.ObserveFlush(time.Millisecond, nil)
	m.ObserveFlush(time.Millisecond, errors.New("disk full"))
	m.ObserveFlush(time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.flushes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.flushes.WithLabelValues("error")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveOperation("GET", "OK")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "quorumkv_replicated_operations_total"))
}
