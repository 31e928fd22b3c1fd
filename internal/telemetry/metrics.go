// Package telemetry provides metrics collection and reporting
// for monitoring calls to the Apifox platform and tool usage.
package telemetry

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Namespace prefixes every metric name.
const Namespace = "apifoxmcp"

// Collector records platform requests, tool calls, validation failures
// and import counters on a private Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	toolCallsTotal   *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec
	violationsTotal  *prometheus.CounterVec
	importedTotal    *prometheus.CounterVec
	lastExport       prometheus.Gauge

	mu        sync.RWMutex
	startedAt time.Time
}

// NewCollector creates a Collector with its own registry
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{
		registry:  reg,
		startedAt: time.Now(),
	}

	c.requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "platform_requests_total",
			Help:      "Total number of requests sent to the Apifox open API",
		},
		[]string{"method", "endpoint", "status"},
	)

	c.requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "platform_request_duration_seconds",
			Help:      "Apifox open API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	c.toolCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of MCP tool invocations",
		},
		[]string{"tool", "status"},
	)

	c.toolCallDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "MCP tool invocation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	c.violationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "validation_violations_total",
			Help:      "Documentation rule violations reported to callers",
		},
		[]string{"tool"},
	)

	c.importedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "imported_entities_total",
			Help:      "Entities created or updated through import-openapi",
		},
		[]string{"kind", "action"},
	)

	c.lastExport = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_export_timestamp_seconds",
		Help:      "Unix time of the last successful export-openapi call",
	})

	return c
}

// Registry returns the registry holding every metric
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRequest records one outbound platform request. status is 0 when no reply arrived.
func (c *Collector) RecordRequest(method, endpoint string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	c.requestsTotal.WithLabelValues(method, endpoint, label).Inc()
	c.requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordToolCall records one tool invocation with its outcome ("success" or "error")
func (c *Collector) RecordToolCall(tool, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.toolCallsTotal.WithLabelValues(tool, status).Inc()
	c.toolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordViolations adds n rule violations for a tool
func (c *Collector) RecordViolations(tool string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.violationsTotal.WithLabelValues(tool).Add(float64(n))
}

// RecordImport records the counters returned by an import call
func (c *Collector) RecordImport(endpointCreated, endpointUpdated, schemaCreated, schemaUpdated int) {
	if c == nil {
		return
	}
	c.importedTotal.WithLabelValues("endpoint", "created").Add(float64(endpointCreated))
	c.importedTotal.WithLabelValues("endpoint", "updated").Add(float64(endpointUpdated))
	c.importedTotal.WithLabelValues("schema", "created").Add(float64(schemaCreated))
	c.importedTotal.WithLabelValues("schema", "updated").Add(float64(schemaUpdated))
}

// RecordExport marks a successful export
func (c *Collector) RecordExport() {
	if c == nil {
		return
	}
	c.lastExport.SetToCurrentTime()
}

// GetReport generates a text report of all collected metrics
func (c *Collector) GetReport() (string, error) {
	c.mu.RLock()
	started := c.startedAt
	c.mu.RUnlock()

	families, err := c.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}

	var b strings.Builder
	b.WriteString("Metrics Report\n")
	b.WriteString("==============\n")
	fmt.Fprintf(&b, "Uptime: %s\n", time.Since(started).Round(time.Second))

	for _, mf := range families {
		name := strings.TrimPrefix(mf.GetName(), Namespace+"_")
		fmt.Fprintf(&b, "\n%s:\n", name)

		lines := make([]string, 0, len(mf.GetMetric()))
		for _, m := range mf.GetMetric() {
			labels := formatLabels(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				lines = append(lines, fmt.Sprintf("  %s %d", labels, int64(m.GetCounter().GetValue())))
			case dto.MetricType_GAUGE:
				v := m.GetGauge().GetValue()
				if v == 0 {
					lines = append(lines, "  never")
				} else {
					lines = append(lines, "  "+time.Unix(int64(v), 0).UTC().Format(time.RFC3339))
				}
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				avg := time.Duration(0)
				if h.GetSampleCount() > 0 {
					avg = time.Duration(h.GetSampleSum() / float64(h.GetSampleCount()) * float64(time.Second))
				}
				lines = append(lines, fmt.Sprintf("  %s count=%d avg=%s", labels, h.GetSampleCount(), avg.Round(time.Millisecond)))
			}
		}
		sort.Strings(lines)
		for _, line := range lines {
			b.WriteString(line + "\n")
		}
	}

	return b.String(), nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.GetName()+"="+p.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Reset clears all collected metrics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestsTotal.Reset()
	c.requestDuration.Reset()
	c.toolCallsTotal.Reset()
	c.toolCallDuration.Reset()
	c.violationsTotal.Reset()
	c.importedTotal.Reset()
	c.lastExport.Set(0)
	c.startedAt = time.Now()
}
