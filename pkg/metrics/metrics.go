// Package metrics provides observability primitives for the bridge: counters
// and histograms for swaps, key rotations, and authentication, Prometheus
// export, OpenTelemetry-shaped tracing, structured logging, and health
// checks.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates metrics from the swap coordinator, the key manager,
// and the auth subsystem.
type Collector struct {
	// Swap lifecycle metrics
	swapsInitiated atomic.Uint64
	swapsCompleted atomic.Uint64
	swapsFailed    atomic.Uint64
	swapsRefunded  atomic.Uint64
	swapLatency    *Histogram

	// Chain adapter metrics
	adapterCalls    atomic.Uint64
	adapterErrors   atomic.Uint64
	adapterLatency  *Histogram

	// Key manager metrics
	keyRotations     atomic.Uint64
	keyGenLatency    *Histogram
	envelopeFailures atomic.Uint64

	// Auth metrics
	nonceIssued   atomic.Uint64
	authFailures  atomic.Uint64
	authLatency   *Histogram

	// Rate limiting
	nonceRateLimits atomic.Uint64
	swapRateLimits  atomic.Uint64

	// Creation time for uptime tracking
	createdAt time.Time

	// Labels for this collector instance
	labels Labels
}

// Labels represents key-value pairs for metric labeling.
type Labels map[string]string

// NewCollector creates a new metrics collector.
func NewCollector(labels Labels) *Collector {
	if labels == nil {
		labels = make(Labels)
	}

	return &Collector{
		swapLatency:    NewHistogram(SwapLatencyBuckets),
		adapterLatency: NewHistogram(AdapterLatencyBuckets),
		keyGenLatency:  NewHistogram(LatencyBuckets),
		authLatency:    NewHistogram(LatencyBuckets),
		createdAt:      time.Now(),
		labels:         labels,
	}
}

// Default bucket configurations for histograms.
var (
	// SwapLatencyBuckets for full swap duration, init to terminal (seconds).
	SwapLatencyBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800}

	// AdapterLatencyBuckets for a single chain adapter call (milliseconds).
	AdapterLatencyBuckets = []float64{10, 25, 50, 100, 250, 500, 1000, 5000, 30000}

	// LatencyBuckets for key generation and auth verification (microseconds).
	LatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000}
)

// --- Swap Metrics ---

// SwapInitiated records a new swap entering the coordinator.
func (c *Collector) SwapInitiated() {
	c.swapsInitiated.Add(1)
}

// SwapCompleted records a swap reaching its success terminal state.
func (c *Collector) SwapCompleted() {
	c.swapsCompleted.Add(1)
}

// SwapFailed records a swap reaching LockFailed without recovering.
func (c *Collector) SwapFailed() {
	c.swapsFailed.Add(1)
}

// SwapRefunded records a swap that recovered via the refund path.
func (c *Collector) SwapRefunded() {
	c.swapsRefunded.Add(1)
}

// RecordSwapLatency records the time from init_swap to a terminal state.
func (c *Collector) RecordSwapLatency(d time.Duration) {
	c.swapLatency.Observe(d.Seconds())
}

// --- Adapter Metrics ---

// RecordAdapterCall increments the adapter call counter.
func (c *Collector) RecordAdapterCall() {
	c.adapterCalls.Add(1)
}

// RecordAdapterError increments the adapter error counter.
func (c *Collector) RecordAdapterError() {
	c.adapterErrors.Add(1)
}

// RecordAdapterLatency records a single lock/release/refund call's duration.
func (c *Collector) RecordAdapterLatency(d time.Duration) {
	c.adapterLatency.Observe(float64(d.Milliseconds()))
}

// --- Key Manager Metrics ---

// RecordKeyRotation increments the key rotation counter.
func (c *Collector) RecordKeyRotation() {
	c.keyRotations.Add(1)
}

// RecordKeyGenLatency records an ML-KEM-1024 key generation's duration.
func (c *Collector) RecordKeyGenLatency(d time.Duration) {
	c.keyGenLatency.Observe(float64(d.Microseconds()))
}

// RecordEnvelopeIntegrityFailure increments the envelope integrity failure
// counter, recorded when an AEAD open fails or an envelope's key binding
// doesn't match its claimed owner.
func (c *Collector) RecordEnvelopeIntegrityFailure() {
	c.envelopeFailures.Add(1)
}

// --- Auth Metrics ---

// RecordNonceIssued increments the nonce issuance counter.
func (c *Collector) RecordNonceIssued() {
	c.nonceIssued.Add(1)
}

// RecordAuthFailure increments the authentication failure counter.
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Add(1)
}

// RecordAuthLatency records a signature verification's duration.
func (c *Collector) RecordAuthLatency(d time.Duration) {
	c.authLatency.Observe(float64(d.Microseconds()))
}

// --- Rate Limit Metrics ---

// RecordNonceRateLimit increments the nonce-issuance rate limit counter.
func (c *Collector) RecordNonceRateLimit() {
	c.nonceRateLimits.Add(1)
}

// RecordSwapRateLimit increments the swap-initiation rate limit counter.
func (c *Collector) RecordSwapRateLimit() {
	c.swapRateLimits.Add(1)
}

// --- Snapshot ---

// Snapshot is a point-in-time snapshot of all metrics.
type Snapshot struct {
	// Timestamp of the snapshot
	Timestamp time.Time

	// Uptime since collector creation
	Uptime time.Duration

	// Swap metrics
	SwapsInitiated uint64
	SwapsCompleted uint64
	SwapsFailed    uint64
	SwapsRefunded  uint64

	// Adapter metrics
	AdapterCalls  uint64
	AdapterErrors uint64

	// Key manager metrics
	KeyRotations     uint64
	EnvelopeFailures uint64

	// Auth metrics
	NonceIssued  uint64
	AuthFailures uint64

	// Rate limit metrics
	NonceRateLimits uint64
	SwapRateLimits  uint64

	// Histogram summaries
	SwapLatency    HistogramSummary
	AdapterLatency HistogramSummary
	KeyGenLatency  HistogramSummary
	AuthLatency    HistogramSummary

	// Labels
	Labels Labels
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:        time.Now(),
		Uptime:           time.Since(c.createdAt),
		SwapsInitiated:   c.swapsInitiated.Load(),
		SwapsCompleted:   c.swapsCompleted.Load(),
		SwapsFailed:      c.swapsFailed.Load(),
		SwapsRefunded:    c.swapsRefunded.Load(),
		AdapterCalls:     c.adapterCalls.Load(),
		AdapterErrors:    c.adapterErrors.Load(),
		KeyRotations:     c.keyRotations.Load(),
		EnvelopeFailures: c.envelopeFailures.Load(),
		NonceIssued:      c.nonceIssued.Load(),
		AuthFailures:     c.authFailures.Load(),
		NonceRateLimits:  c.nonceRateLimits.Load(),
		SwapRateLimits:   c.swapRateLimits.Load(),
		SwapLatency:      c.swapLatency.Summary(),
		AdapterLatency:   c.adapterLatency.Summary(),
		KeyGenLatency:    c.keyGenLatency.Summary(),
		AuthLatency:      c.authLatency.Summary(),
		Labels:           c.labels,
	}
}

// Reset clears all metrics (useful for testing).
func (c *Collector) Reset() {
	c.swapsInitiated.Store(0)
	c.swapsCompleted.Store(0)
	c.swapsFailed.Store(0)
	c.swapsRefunded.Store(0)
	c.adapterCalls.Store(0)
	c.adapterErrors.Store(0)
	c.keyRotations.Store(0)
	c.envelopeFailures.Store(0)
	c.nonceIssued.Store(0)
	c.authFailures.Store(0)
	c.nonceRateLimits.Store(0)
	c.swapRateLimits.Store(0)
	c.swapLatency.Reset()
	c.adapterLatency.Reset()
	c.keyGenLatency.Reset()
	c.authLatency.Reset()
	c.createdAt = time.Now()
}

// --- Global Collector ---

var (
	globalCollector     *Collector
	globalCollectorOnce sync.Once
)

// Global returns the global metrics collector.
// Creates one with default settings if not already initialized.
func Global() *Collector {
	globalCollectorOnce.Do(func() {
		globalCollector = NewCollector(Labels{"instance": "default"})
	})
	return globalCollector
}

// SetGlobal sets the global metrics collector.
// Should be called during initialization before any metrics are recorded.
func SetGlobal(c *Collector) {
	globalCollectorOnce.Do(func() {})
	globalCollector = c
}
