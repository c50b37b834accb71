package near_test

import (
	"context"
	"testing"

	"github.com/kembridge/kembridge-core/pkg/chainadapter/near"
)

func TestValidateAddress(t *testing.T) {
	a := near.New("https://rpc.example", "mainnet", nil)
	cases := []struct {
		addr string
		want bool
	}{
		{"alice.near", true},
		{"bob_sub.alice.near", true},
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true}, // 64 hex chars
		{"Alice.near", false},                                                    // uppercase not allowed
		{"-leading-dash", false},
		{"", false},
	}
	for _, c := range cases {
		if got := a.ValidateAddress(c.addr); got != c.want {
			t.Errorf("ValidateAddress(%q) = %v, want %v", c.addr, got, c.want)
		}
	}
}

func TestRefundIsIdempotent(t *testing.T) {
	a := near.New("https://rpc.example", "mainnet", nil)
	ctx := context.Background()

	first, err := a.Refund(ctx, "alice.near", "100", "near-tx-1", "swap-1:refund")
	if err != nil {
		t.Fatalf("Refund failed: %v", err)
	}
	second, err := a.Refund(ctx, "alice.near", "100", "near-tx-1", "swap-1:refund")
	if err != nil {
		t.Fatalf("repeated Refund failed: %v", err)
	}
	if first != second {
		t.Errorf("Refund returned %q then %q for the same idempotency key", first, second)
	}
}
