package metrics

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestBridgeObserver(collector *Collector) *BridgeObserver {
	return NewBridgeObserver(BridgeObserverConfig{
		Collector: collector,
		Tracer:    NewSimpleTracer(),
		Logger:    NullLogger(),
		Component: "test",
	})
}

func TestBridgeObserverSwapLifecycle(t *testing.T) {
	collector := NewCollector(nil)
	o := newTestBridgeObserver(collector)

	o.OnSwapInitiated("swap-1", "ethereum", "near")
	o.OnSwapStateTransition("swap-1", "Initialized", "SourceLocked")
	o.OnSwapTerminal("swap-1", "Completed", 50*time.Millisecond)

	snap := collector.Snapshot()
	if snap.SwapsInitiated != 1 {
		t.Errorf("SwapsInitiated = %d, want 1", snap.SwapsInitiated)
	}
	if snap.SwapsCompleted != 1 {
		t.Errorf("SwapsCompleted = %d, want 1", snap.SwapsCompleted)
	}
	if snap.SwapLatency.Count != 1 {
		t.Errorf("SwapLatency.Count = %d, want 1", snap.SwapLatency.Count)
	}
}

func TestBridgeObserverSwapTerminalVariants(t *testing.T) {
	cases := []struct {
		state string
		check func(Snapshot) uint64
	}{
		{"Refunded", func(s Snapshot) uint64 { return s.SwapsRefunded }},
		{"LockFailed", func(s Snapshot) uint64 { return s.SwapsFailed }},
	}

	for _, tc := range cases {
		collector := NewCollector(nil)
		o := newTestBridgeObserver(collector)
		o.OnSwapTerminal("swap-x", tc.state, time.Millisecond)
		if got := tc.check(collector.Snapshot()); got != 1 {
			t.Errorf("state %q: counter = %d, want 1", tc.state, got)
		}
	}
}

func TestBridgeObserverAdapterCallRecordsErrorsAndLatency(t *testing.T) {
	collector := NewCollector(nil)
	o := newTestBridgeObserver(collector)

	_, end := o.OnAdapterCall(context.Background(), SpanSwapLock, "ethereum")
	end(errors.New("rpc timeout"))

	_, end2 := o.OnAdapterCall(context.Background(), SpanSwapRelease, "near")
	end2(nil)

	snap := collector.Snapshot()
	if snap.AdapterCalls != 2 {
		t.Errorf("AdapterCalls = %d, want 2", snap.AdapterCalls)
	}
	if snap.AdapterErrors != 1 {
		t.Errorf("AdapterErrors = %d, want 1", snap.AdapterErrors)
	}
	if snap.AdapterLatency.Count != 2 {
		t.Errorf("AdapterLatency.Count = %d, want 2", snap.AdapterLatency.Count)
	}
}

func TestBridgeObserverKeyAndEnvelopeHooks(t *testing.T) {
	collector := NewCollector(nil)
	o := newTestBridgeObserver(collector)

	o.OnKeyGenerated("key-1", time.Microsecond)
	o.OnKeyRotation("key-1", "key-2")
	o.OnEnvelopeIntegrityFailure("mac mismatch")

	snap := collector.Snapshot()
	if snap.KeyRotations != 1 {
		t.Errorf("KeyRotations = %d, want 1", snap.KeyRotations)
	}
	if snap.EnvelopeFailures != 1 {
		t.Errorf("EnvelopeFailures = %d, want 1", snap.EnvelopeFailures)
	}
	if snap.KeyGenLatency.Count != 1 {
		t.Errorf("KeyGenLatency.Count = %d, want 1", snap.KeyGenLatency.Count)
	}
}

func TestBridgeObserverAuthVerifyRecordsFailure(t *testing.T) {
	collector := NewCollector(nil)
	o := newTestBridgeObserver(collector)

	o.OnNonceIssued("0xabc", "ethereum")

	_, end := o.OnAuthVerify(context.Background(), "0xabc", "ethereum")
	end(errors.New("bad signature"))

	_, end2 := o.OnAuthVerify(context.Background(), "0xabc", "ethereum")
	end2(nil)

	snap := collector.Snapshot()
	if snap.NonceIssued != 1 {
		t.Errorf("NonceIssued = %d, want 1", snap.NonceIssued)
	}
	if snap.AuthFailures != 1 {
		t.Errorf("AuthFailures = %d, want 1", snap.AuthFailures)
	}
	if snap.AuthLatency.Count != 2 {
		t.Errorf("AuthLatency.Count = %d, want 2", snap.AuthLatency.Count)
	}
}

func TestBridgeObserverDefaultsToGlobals(t *testing.T) {
	o := NewBridgeObserver(BridgeObserverConfig{Component: "defaults"})
	if o.Logger() == nil {
		t.Fatal("expected a non-nil logger even with a zero-value config")
	}
}
