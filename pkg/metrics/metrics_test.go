package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordersUpdateCounters(t *testing.T) {
	m := New("test")
	require.NoError(t, m.Register())

	m.RecordCartOperation("add_item", nil)
	m.RecordCartOperation("add_item", errors.New("bad qty"))
	m.RecordCartOperation("add_item", nil)
	m.RecordOrderCreated(25.98)
	m.RecordOutbox("order.created", "sent")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CartOperationsTotal.WithLabelValues("add_item", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CartOperationsTotal.WithLabelValues("add_item", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersCreatedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEventsTotal.WithLabelValues("order.created", "sent")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/cart", 200, time.Millisecond)
		m.RecordCartOperation("clear", nil)
		m.RecordOrderCreated(1)
		m.RecordStatusChange("Preparing")
		m.RecordOrderCancelled()
		m.RecordOutbox("cart.cleared", "sent")
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New("test")
	require.NoError(t, m.Register())
	m.RecordHTTPRequest("GET", "/api/v1/cart", 200, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "pizzashop_test_http_requests_total")
}
