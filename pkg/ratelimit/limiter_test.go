package ratelimit

import (
	"testing"
	"time"
)

func TestKeyLimiter(t *testing.T) {
	limiter := NewKeyLimiter(2)

	wallet := "0xabc"
	other := "0xdef"

	if !limiter.Allow(wallet) {
		t.Error("expected first operation to be allowed")
	}
	if !limiter.Allow(wallet) {
		t.Error("expected second operation to be allowed")
	}
	if limiter.Allow(wallet) {
		t.Error("expected third operation to be blocked")
	}
	if !limiter.Allow(other) {
		t.Error("expected operation from a different key to be allowed")
	}

	limiter.Release(wallet)
	if !limiter.Allow(wallet) {
		t.Error("expected operation to be allowed after release")
	}

	noLimit := NewKeyLimiter(0)
	for i := 0; i < 100; i++ {
		if !noLimit.Allow(wallet) {
			t.Error("expected operation to always be allowed with no limit")
		}
	}
}

func TestTokenBucketLimiter(t *testing.T) {
	limiter := NewTokenBucketLimiter(10, 2)
	wallet := "0xabc"

	if !limiter.Allow(wallet) {
		t.Error("expected 1st request (burst) to be allowed")
	}
	if !limiter.Allow(wallet) {
		t.Error("expected 2nd request (burst) to be allowed")
	}
	if limiter.Allow(wallet) {
		t.Error("expected 3rd request (burst exceeded) to be blocked")
	}

	time.Sleep(110 * time.Millisecond)
	if !limiter.Allow(wallet) {
		t.Error("expected request to be allowed after token refill")
	}

	// A different key has its own independent bucket.
	if !limiter.Allow("0xdef") {
		t.Error("expected a different key's bucket to be unaffected")
	}

	noLimit := NewTokenBucketLimiter(0, 0)
	for i := 0; i < 100; i++ {
		if !noLimit.Allow(wallet) {
			t.Error("expected request to always be allowed with no limit")
		}
	}
}
