package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// One collector for the package; registration is global.
var testCollector = NewMetricsCollector("metrics-test")

func TestRecordStoreOperation(t *testing.T) {
	before := testutil.ToFloat64(storeOperationsTotal.WithLabelValues("login", "ok", "metrics-test"))

	testCollector.RecordStoreOperation("login", "ok")
	testCollector.RecordStoreOperation("login", "ok")
	testCollector.RecordStoreOperation("trigger_sos", "denied")

	assert.Equal(t, before+2, testutil.ToFloat64(storeOperationsTotal.WithLabelValues("login", "ok", "metrics-test")))
	assert.Equal(t, float64(1), testutil.ToFloat64(storeOperationsTotal.WithLabelValues("trigger_sos", "denied", "metrics-test")))
}

func TestRecordSOSAlertAndGauge(t *testing.T) {
	before := testutil.ToFloat64(sosAlertsTotal.WithLabelValues("metrics-test"))

	testCollector.RecordSOSAlert()
	testCollector.SetActiveAlerts(3)

	assert.Equal(t, before+1, testutil.ToFloat64(sosAlertsTotal.WithLabelValues("metrics-test")))
	assert.Equal(t, float64(3), testutil.ToFloat64(sosAlertsActive.WithLabelValues("metrics-test")))
}

func TestRecordAssistantCall(t *testing.T) {
	before := testutil.ToFloat64(assistantCallsTotal.WithLabelValues("chat", "ok", "metrics-test"))

	testCollector.RecordAssistantCall("chat", "ok", 120*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(assistantCallsTotal.WithLabelValues("chat", "ok", "metrics-test")))
}
