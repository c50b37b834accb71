// Package ethereum is a reference swap.ChainAdapter for Ethereum. It
// validates addresses and keeps an idempotency ledger for lock/release/
// refund, but does not build or broadcast real transactions — a
// deployment wires a real JSON-RPC client in where jsonrpcClient is
// called out below.
package ethereum

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/kembridge/kembridge-core/pkg/swap"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// jsonrpcClient is the minimal surface a real Ethereum integration needs;
// Adapter holds one but never calls it in this reference implementation.
// It exists so a deployment can satisfy it with an ethclient.Client
// wrapper without reshaping Adapter's fields.
type jsonrpcClient interface {
	Call(ctx context.Context, method string, args ...any) (json []byte, err error)
}

// Adapter is a reference, non-authoritative implementation of
// swap.ChainAdapter for Ethereum. RPCURL and ChainID are recorded for a
// real client to use; Adapter itself only validates addresses and
// idempotently echoes deterministic transaction IDs.
type Adapter struct {
	RPCURL  string
	ChainID string
	client  jsonrpcClient

	mu    sync.Mutex
	seen  map[string]string // idempotencyKey -> txID
	txSeq int
}

// New builds a reference Ethereum adapter. client may be nil; when set,
// a production build would route Lock/Release/Refund through it instead
// of the deterministic stub transaction IDs below.
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
	txID := fmt.Sprintf("0x%064x", a.txSeq)
	a.seen[idempotencyKey] = txID
	return txID, false
}

// Lock records a deterministic stub lock transaction for idempotencyKey.
// A real adapter would submit a signed contract call here and return its
// actual transaction hash.
func (a *Adapter) Lock(ctx context.Context, fromAddress, amount, destinationChain, quantumCommitment, userWallet, idempotencyKey string) (string, error) {
	txID, _ := a.idempotent(idempotencyKey)
	return txID, nil
}

// Release records a deterministic stub release transaction for
// idempotencyKey.
func (a *Adapter) Release(ctx context.Context, destinationAddress, amount, sourceProof, quantumCommitment, idempotencyKey string) (string, error) {
	txID, _ := a.idempotent(idempotencyKey)
	return txID, nil
}

// Refund records a deterministic stub refund transaction for
// idempotencyKey.
func (a *Adapter) Refund(ctx context.Context, userWallet, amount, sourceTxID, idempotencyKey string) (string, error) {
	txID, _ := a.idempotent(idempotencyKey)
	return txID, nil
}

// TxStatus reports every stub transaction this adapter issued as
// confirmed with a single confirmation; a real adapter polls the node
// for receipt status and confirmation depth.
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

// ValidateAddress reports whether addr is a well-formed 20-byte hex
// address. It checks format only, not EIP-55 checksum case, since
// lowercase addresses are equally valid on-chain.
func (a *Adapter) ValidateAddress(addr string) bool {
	return addressPattern.MatchString(addr)
}
