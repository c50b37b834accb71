package ethereum_test

import (
	"context"
	"testing"

	"github.com/kembridge/kembridge-core/pkg/chainadapter/ethereum"
)

func TestValidateAddress(t *testing.T) {
	a := ethereum.New("https://rpc.example", "1", nil)
	cases := []struct {
		addr string
		want bool
	}{
		{"0x00000000000000000000000000000000000000aa", true},
		{"0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAaa", true},
		{"not-an-address", false},
		{"0x1234", false},
		{"", false},
	}
	for _, c := range cases {
		if got := a.ValidateAddress(c.addr); got != c.want {
			t.Errorf("ValidateAddress(%q) = %v, want %v", c.addr, got, c.want)
		}
	}
}

func TestLockIsIdempotent(t *testing.T) {
	a := ethereum.New("https://rpc.example", "1", nil)
	ctx := context.Background()

	first, err := a.Lock(ctx, "0xabc", "100", "near", "commitment", "0xuser", "swap-1:source_lock")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	second, err := a.Lock(ctx, "0xabc", "100", "near", "commitment", "0xuser", "swap-1:source_lock")
	if err != nil {
		t.Fatalf("repeated Lock failed: %v", err)
	}
	if first != second {
		t.Errorf("Lock returned %q then %q for the same idempotency key", first, second)
	}

	other, err := a.Lock(ctx, "0xabc", "100", "near", "commitment", "0xuser", "swap-2:source_lock")
	if err != nil {
		t.Fatalf("Lock for a different key failed: %v", err)
	}
	if other == first {
		t.Error("distinct idempotency keys produced the same transaction id")
	}
}

func TestTxStatusReflectsIssuedTransactions(t *testing.T) {
	a := ethereum.New("https://rpc.example", "1", nil)
	ctx := context.Background()

	txID, err := a.Lock(ctx, "0xabc", "100", "near", "commitment", "0xuser", "swap-1:source_lock")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	status, err := a.TxStatus(ctx, txID)
	if err != nil {
		t.Fatalf("TxStatus failed: %v", err)
	}
	if status.Kind != "confirmed" {
		t.Errorf("TxStatus kind = %q, want confirmed", status.Kind)
	}

	unknown, err := a.TxStatus(ctx, "0xneverissued")
	if err != nil {
		t.Fatalf("TxStatus for unknown tx failed: %v", err)
	}
	if unknown.Kind != "not_found" {
		t.Errorf("TxStatus kind = %q, want not_found", unknown.Kind)
	}
}
