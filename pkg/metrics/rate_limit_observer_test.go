package metrics

import "testing"

func TestRateLimitObserverRecordsMetrics(t *testing.T) {
	collector := NewCollector(nil)
	nonceObserver := NewRateLimitObserver(collector, NullLogger(), "nonce")
	swapObserver := NewRateLimitObserver(collector, NullLogger(), "swap")

	nonceObserver.OnLimited("0xabc")
	swapObserver.OnLimited("0xabc")
	swapObserver.OnLimited("0xdef")

	snap := collector.Snapshot()
	if snap.NonceRateLimits != 1 {
		t.Fatalf("expected NonceRateLimits to be 1, got %d", snap.NonceRateLimits)
	}
	if snap.SwapRateLimits != 2 {
		t.Fatalf("expected SwapRateLimits to be 2, got %d", snap.SwapRateLimits)
	}
}
