package metrics

import (
	"context"
	"time"
)

// BridgeObserver provides observability hooks for the swap coordinator, the
// key manager, and the auth subsystem. Attach one to each so metrics and
// structured logs are recorded without those packages depending on a
// concrete Prometheus or tracing backend.
type BridgeObserver struct {
	collector *Collector
	tracer    Tracer
	logger    *Logger
}

// BridgeObserverConfig configures a BridgeObserver.
type BridgeObserverConfig struct {
	Collector *Collector
	Tracer    Tracer
	Logger    *Logger
	Component string // "swap", "keymanager", or "auth"
}

// NewBridgeObserver creates a new bridge observer.
func NewBridgeObserver(cfg BridgeObserverConfig) *BridgeObserver {
	if cfg.Collector == nil {
		cfg.Collector = Global()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = GetTracer()
	}
	if cfg.Logger == nil {
		cfg.Logger = GetLogger()
	}

	return &BridgeObserver{
		collector: cfg.Collector,
		tracer:    cfg.Tracer,
		logger:    cfg.Logger.Named(cfg.Component),
	}
}

// --- Swap Coordinator Hooks ---

// OnSwapInitiated should be called when init_swap admits a new operation.
func (o *BridgeObserver) OnSwapInitiated(swapID, fromChain, toChain string) {
	o.collector.SwapInitiated()
	o.logger.Info("swap initiated", Fields{"swap_id": swapID, "from_chain": fromChain, "to_chain": toChain})
}

// OnSwapStateTransition should be called on every FSM transition.
func (o *BridgeObserver) OnSwapStateTransition(swapID, from, to string) {
	o.logger.Debug("swap state transition", Fields{"swap_id": swapID, "from": from, "to": to})
}

// OnSwapTerminal should be called once a swap reaches a terminal state, with
// the total duration from init_swap.
func (o *BridgeObserver) OnSwapTerminal(swapID, state string, duration time.Duration) {
	o.collector.RecordSwapLatency(duration)
	switch state {
	case "Completed":
		o.collector.SwapCompleted()
	case "Refunded":
		o.collector.SwapRefunded()
	case "LockFailed":
		o.collector.SwapFailed()
	}
	o.logger.Info("swap reached terminal state", Fields{
		"swap_id":  swapID,
		"state":    state,
		"duration": duration.String(),
	})
}

// OnAdapterCall wraps a chain adapter call (lock/release/refund) with a
// span and latency/error recording. spanName should be one of
// SpanSwapLock, SpanSwapRelease, SpanSwapRefund.
func (o *BridgeObserver) OnAdapterCall(ctx context.Context, spanName, chain string) (context.Context, func(error)) {
	start := time.Now()
	ctx, endSpan := o.tracer.StartSpan(ctx, spanName, WithSpanKind(SpanKindClient))
	o.collector.RecordAdapterCall()

	return ctx, func(err error) {
		duration := time.Since(start)
		o.collector.RecordAdapterLatency(duration)

		if err != nil {
			o.collector.RecordAdapterError()
			o.logger.Error("adapter call failed", Fields{
				"chain":    chain,
				"error":    err.Error(),
				"duration": duration.String(),
			})
		} else {
			o.logger.Debug("adapter call completed", Fields{
				"chain":    chain,
				"duration": duration.String(),
			})
		}

		endSpan(err)
	}
}

// --- Key Manager Hooks ---

// OnKeyGenerated should be called after a new ML-KEM-1024 keypair is
// generated and bound to an owner.
func (o *BridgeObserver) OnKeyGenerated(keyID string, duration time.Duration) {
	o.collector.RecordKeyGenLatency(duration)
	o.logger.Info("quantum key generated", Fields{"key_id": keyID, "duration": duration.String()})
}

// OnKeyRotation should be called when a key is rotated.
func (o *BridgeObserver) OnKeyRotation(oldKeyID, newKeyID string) {
	o.collector.RecordKeyRotation()
	o.logger.Info("quantum key rotated", Fields{"old_key_id": oldKeyID, "new_key_id": newKeyID})
}

// OnEnvelopeIntegrityFailure should be called when an AEAD open fails or an
// envelope's key binding doesn't match its claimed owner.
func (o *BridgeObserver) OnEnvelopeIntegrityFailure(reason string) {
	o.collector.RecordEnvelopeIntegrityFailure()
	o.logger.Warn("envelope integrity failure", Fields{"reason": reason})
}

// --- Auth Hooks ---

// OnNonceIssued should be called when a nonce is handed to a wallet.
func (o *BridgeObserver) OnNonceIssued(wallet, chain string) {
	o.collector.RecordNonceIssued()
	o.logger.Debug("nonce issued", Fields{"wallet": wallet, "chain": chain})
}

// OnAuthVerify wraps a signature verification with a span and
// latency/failure recording.
func (o *BridgeObserver) OnAuthVerify(ctx context.Context, wallet, chain string) (context.Context, func(error)) {
	start := time.Now()
	ctx, endSpan := o.tracer.StartSpan(ctx, SpanAuthVerify)

	return ctx, func(err error) {
		duration := time.Since(start)
		o.collector.RecordAuthLatency(duration)

		if err != nil {
			o.collector.RecordAuthFailure()
			o.logger.Warn("authentication failed", Fields{"wallet": wallet, "chain": chain, "error": err.Error()})
		} else {
			o.logger.Info("authentication succeeded", Fields{"wallet": wallet, "chain": chain})
		}

		endSpan(err)
	}
}

// Logger returns the observer's logger for custom logging.
func (o *BridgeObserver) Logger() *Logger {
	return o.logger
}

// --- Event Types ---

// EventType represents a type of bridge event for structured logging.
type EventType string

const (
	EventSwapInitiated    EventType = "swap.initiated"
	EventSwapTransition   EventType = "swap.transition"
	EventSwapTerminal     EventType = "swap.terminal"
	EventAdapterCall      EventType = "swap.adapter_call"
	EventKeyGenerated     EventType = "keymanager.generated"
	EventKeyRotated       EventType = "keymanager.rotated"
	EventEnvelopeFailure  EventType = "keymanager.envelope_failure"
	EventNonceIssued      EventType = "auth.nonce_issued"
	EventAuthFailed       EventType = "auth.failed"
	EventError            EventType = "error"
)

// Event represents a structured bridge event.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	SwapID    string                 `json:"swap_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}
