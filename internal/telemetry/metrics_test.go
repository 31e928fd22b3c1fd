package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordRequest(t *testing.T) {
	c := NewCollector()

	c.RecordRequest("POST", "/projects/{id}/export-openapi", 200, 120*time.Millisecond)
	c.RecordRequest("POST", "/projects/{id}/export-openapi", 200, 80*time.Millisecond)
	c.RecordRequest("POST", "/projects/{id}/import-openapi", 0, time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.requestsTotal.WithLabelValues("POST", "/projects/{id}/export-openapi", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.requestsTotal.WithLabelValues("POST", "/projects/{id}/import-openapi", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.requestDuration))
}

func TestCollector_ToolCallsAndViolations(t *testing.T) {
	c := NewCollector()

	c.RecordToolCall("create_api_endpoint", "error", 10*time.Millisecond)
	c.RecordViolations("create_api_endpoint", 3)
	c.RecordViolations("create_api_endpoint", 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.toolCallsTotal.WithLabelValues("create_api_endpoint", "error")))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.violationsTotal.WithLabelValues("create_api_endpoint")))
}

func TestCollector_Report(t *testing.T) {
	c := NewCollector()
	c.RecordImport(1, 0, 2, 1)
	c.RecordToolCall("list_tags", "success", 5*time.Millisecond)
	c.RecordExport()

	report, err := c.GetReport()
	require.NoError(t, err)

	assert.Contains(t, report, "Metrics Report")
	assert.Contains(t, report, "imported_entities_total:")
	assert.Contains(t, report, "{action=created,kind=schema} 2")
	assert.Contains(t, report, "{status=success,tool=list_tags} 1")
	assert.NotContains(t, report, "never")
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	c.RecordToolCall("list_tags", "success", time.Millisecond)
	c.Reset()

	assert.Equal(t, 0, testutil.CollectAndCount(c.toolCallsTotal))
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordRequest("GET", "/x", 200, time.Millisecond)
		c.RecordToolCall("x", "success", time.Millisecond)
		c.RecordViolations("x", 1)
		c.RecordImport(1, 1, 1, 1)
		c.RecordExport()
	})
}
