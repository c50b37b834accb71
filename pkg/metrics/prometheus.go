package metrics

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
)

// PrometheusExporter exports metrics in Prometheus text format.
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates a new Prometheus exporter for the given collector.
// The namespace is prepended to all metric names (e.g., "kembridge").
func NewPrometheusExporter(c *Collector, namespace string) *PrometheusExporter {
	return &PrometheusExporter{
		collector: c,
		namespace: namespace,
	}
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (e *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		e.WriteMetrics(w)
	})
}

// WriteMetrics writes all metrics in Prometheus text format to the writer.
func (e *PrometheusExporter) WriteMetrics(w io.Writer) {
	snap := e.collector.Snapshot()
	labels := e.formatLabels(snap.Labels)

	// --- Swap Metrics ---
	e.writeHelp(w, "swaps_initiated_total", "Total number of swaps initiated")
	e.writeType(w, "swaps_initiated_total", "counter")
	e.writeMetric(w, "swaps_initiated_total", labels, float64(snap.SwapsInitiated))

	e.writeHelp(w, "swaps_completed_total", "Total number of swaps that reached a success terminal state")
	e.writeType(w, "swaps_completed_total", "counter")
	e.writeMetric(w, "swaps_completed_total", labels, float64(snap.SwapsCompleted))

	e.writeHelp(w, "swaps_failed_total", "Total number of swaps that failed without recovering")
	e.writeType(w, "swaps_failed_total", "counter")
	e.writeMetric(w, "swaps_failed_total", labels, float64(snap.SwapsFailed))

	e.writeHelp(w, "swaps_refunded_total", "Total number of swaps that recovered via the refund path")
	e.writeType(w, "swaps_refunded_total", "counter")
	e.writeMetric(w, "swaps_refunded_total", labels, float64(snap.SwapsRefunded))

	// --- Adapter Metrics ---
	e.writeHelp(w, "adapter_calls_total", "Total chain adapter calls")
	e.writeType(w, "adapter_calls_total", "counter")
	e.writeMetric(w, "adapter_calls_total", labels, float64(snap.AdapterCalls))

	e.writeHelp(w, "adapter_errors_total", "Total chain adapter call errors")
	e.writeType(w, "adapter_errors_total", "counter")
	e.writeMetric(w, "adapter_errors_total", labels, float64(snap.AdapterErrors))

	// --- Key Manager Metrics ---
	e.writeHelp(w, "key_rotations_total", "Total quantum key rotations")
	e.writeType(w, "key_rotations_total", "counter")
	e.writeMetric(w, "key_rotations_total", labels, float64(snap.KeyRotations))

	e.writeHelp(w, "envelope_integrity_failures_total", "Total envelope integrity check failures")
	e.writeType(w, "envelope_integrity_failures_total", "counter")
	e.writeMetric(w, "envelope_integrity_failures_total", labels, float64(snap.EnvelopeFailures))

	// --- Auth Metrics ---
	e.writeHelp(w, "nonce_issued_total", "Total authentication nonces issued")
	e.writeType(w, "nonce_issued_total", "counter")
	e.writeMetric(w, "nonce_issued_total", labels, float64(snap.NonceIssued))

	e.writeHelp(w, "auth_failures_total", "Total authentication failures")
	e.writeType(w, "auth_failures_total", "counter")
	e.writeMetric(w, "auth_failures_total", labels, float64(snap.AuthFailures))

	// --- Rate Limit Metrics ---
	e.writeHelp(w, "nonce_rate_limits_total", "Total nonce issuance requests rejected by rate limiting")
	e.writeType(w, "nonce_rate_limits_total", "counter")
	e.writeMetric(w, "nonce_rate_limits_total", labels, float64(snap.NonceRateLimits))

	e.writeHelp(w, "swap_rate_limits_total", "Total swap initiation requests rejected by rate limiting")
	e.writeType(w, "swap_rate_limits_total", "counter")
	e.writeMetric(w, "swap_rate_limits_total", labels, float64(snap.SwapRateLimits))

	// --- Uptime ---
	e.writeHelp(w, "uptime_seconds", "Time since the collector was created")
	e.writeType(w, "uptime_seconds", "gauge")
	e.writeMetric(w, "uptime_seconds", labels, snap.Uptime.Seconds())

	// --- Histograms ---
	e.writeHistogram(w, "swap_duration_seconds", "Swap duration from init to terminal state, in seconds", labels, snap.SwapLatency)
	e.writeHistogram(w, "adapter_call_duration_milliseconds", "Chain adapter call duration in milliseconds", labels, snap.AdapterLatency)
	e.writeHistogram(w, "key_generation_duration_microseconds", "ML-KEM-1024 key generation duration in microseconds", labels, snap.KeyGenLatency)
	e.writeHistogram(w, "auth_duration_microseconds", "Signature verification duration in microseconds", labels, snap.AuthLatency)
}

// writeHelp writes a HELP line.
func (e *PrometheusExporter) writeHelp(w io.Writer, name, help string) {
	fmt.Fprintf(w, "# HELP %s_%s %s\n", e.namespace, name, help)
}

// writeType writes a TYPE line.
func (e *PrometheusExporter) writeType(w io.Writer, name, typ string) {
	fmt.Fprintf(w, "# TYPE %s_%s %s\n", e.namespace, name, typ)
}

// writeMetric writes a single metric line.
func (e *PrometheusExporter) writeMetric(w io.Writer, name, labels string, value float64) {
	if labels != "" {
		fmt.Fprintf(w, "%s_%s{%s} %g\n", e.namespace, name, labels, value)
	} else {
		fmt.Fprintf(w, "%s_%s %g\n", e.namespace, name, value)
	}
}

// writeHistogram writes a histogram in Prometheus format.
func (e *PrometheusExporter) writeHistogram(w io.Writer, name, help, labels string, h HistogramSummary) {
	e.writeHelp(w, name, help)
	e.writeType(w, name, "histogram")

	fullName := e.namespace + "_" + name

	// Write bucket counts
	for _, b := range h.Buckets {
		le := fmt.Sprintf("%g", b.UpperBound)
		if math.IsInf(b.UpperBound, 1) {
			le = "+Inf"
		}
		if labels != "" {
			fmt.Fprintf(w, "%s_bucket{%s,le=\"%s\"} %d\n", fullName, labels, le, b.Count)
		} else {
			fmt.Fprintf(w, "%s_bucket{le=\"%s\"} %d\n", fullName, le, b.Count)
		}
	}

	// Write sum and count
	if labels != "" {
		fmt.Fprintf(w, "%s_sum{%s} %g\n", fullName, labels, h.Sum)
		fmt.Fprintf(w, "%s_count{%s} %d\n", fullName, labels, h.Count)
	} else {
		fmt.Fprintf(w, "%s_sum %g\n", fullName, h.Sum)
		fmt.Fprintf(w, "%s_count %d\n", fullName, h.Count)
	}
}

// formatLabels converts Labels to Prometheus label format.
func (e *PrometheusExporter) formatLabels(labels Labels) string {
	if len(labels) == 0 {
		return ""
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		// Escape label values
		v := escapePromValue(labels[k])
		parts = append(parts, fmt.Sprintf("%s=\"%s\"", k, v))
	}

	return strings.Join(parts, ",")
}

// escapePromValue escapes a string for use as a Prometheus label value.
func escapePromValue(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// --- Convenience Functions ---

// ServePrometheus starts an HTTP server serving Prometheus metrics.
// This is a convenience function for simple use cases.
func ServePrometheus(addr string, c *Collector, namespace string) error {
	exp := NewPrometheusExporter(c, namespace)
	http.Handle("/metrics", exp.Handler())
	return http.ListenAndServe(addr, nil)
}
