// Package near is a reference swap.ChainAdapter for NEAR Protocol,
// mirroring pkg/chainadapter/ethereum's shape: address validation and an
// idempotency ledger, no real RPC client wired in.
package near

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/kembridge/kembridge-core/pkg/swap"
)

// namedAccountPattern matches NEAR's named-account rules: lowercase
// alphanumerics, '-', '_', and '.' as a separator between sub-account
// segments, 2-64 characters.
var namedAccountPattern = regexp.MustCompile(`^[a-z0-9]+([._-][a-z0-9]+)*$`)

var implicitAccountPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// jsonrpcClient mirrors pkg/chainadapter/ethereum's placeholder: the
// surface a real NEAR RPC client would fill, unused by this reference
// adapter.
type jsonrpcClient interface {
	Call(ctx context.Context, method string, args ...any) (json []byte, err error)
}

// Adapter is a reference, non-authoritative implementation of
// swap.ChainAdapter for NEAR.
type Adapter struct {
	RPCURL  string
	ChainID string
	client  jsonrpcClient

	mu    sync.Mutex
	seen  map[string]string
	txSeq int
}

// New builds a reference NEAR adapter.
func New(rpcURL, chainID string, client jsonrpcClient) *Adapter {
	return &Adapter{RPCURL: rpcURL, ChainID: chainID, client: client, seen: make(map[string]string)}
}

var _ swap.ChainAdapter = (*Adapter)(nil)

func (a *Adapter) idempotent(idempotencyKey string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if txID, ok := a.seen[idempotencyKey]; ok {
		return txID, true
	}
	a.txSeq++
	txID := fmt.Sprintf("near-tx-%d", a.txSeq)
	a.seen[idempotencyKey] = txID
	return txID, false
}

func (a *Adapter) Lock(ctx context.Context, fromAddress, amount, destinationChain, quantumCommitment, userWallet, idempotencyKey string) (string, error) {
	txID, _ := a.idempotent(idempotencyKey)
	return txID, nil
}

func (a *Adapter) Release(ctx context.Context, destinationAddress, amount, sourceProof, quantumCommitment, idempotencyKey string) (string, error) {
	txID, _ := a.idempotent(idempotencyKey)
	return txID, nil
}

func (a *Adapter) Refund(ctx context.Context, userWallet, amount, sourceTxID, idempotencyKey string) (string, error) {
	txID, _ := a.idempotent(idempotencyKey)
	return txID, nil
}

func (a *Adapter) TxStatus(ctx context.Context, txID string) (swap.TxStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, seenTxID := range a.seen {
		if seenTxID == txID {
			return swap.TxStatus{Kind: swap.TxConfirmed, Confirmations: 1}, nil
		}
	}
	return swap.TxStatus{Kind: swap.TxNotFound}, nil
}

// ValidateAddress accepts both named accounts ("alice.near") and
// 64-character hex implicit accounts, NEAR's two account ID forms.
func (a *Adapter) ValidateAddress(addr string) bool {
	if len(addr) < 2 || len(addr) > 64 {
		return false
	}
	return namedAccountPattern.MatchString(addr) || implicitAccountPattern.MatchString(addr)
}
