package swap

import "context"

// TxStatusKind is the coarse state of a chain transaction (spec §6).
type TxStatusKind string

const (
	TxPending   TxStatusKind = "pending"
	TxConfirmed TxStatusKind = "confirmed"
	TxFailed    TxStatusKind = "failed"
	TxNotFound  TxStatusKind = "not_found"
)

// TxStatus reports a transaction's on-chain status. Confirmations is only
// meaningful when Kind == TxConfirmed.
type TxStatus struct {
	Kind          TxStatusKind
	Confirmations int
}

// ChainAdapter is the capability set the coordinator needs from a chain
// integration: lock, release, refund, tx_status, validate_address, exactly
// as named at the core's external boundary. The coordinator never inspects
// chain-specific transaction encoding; everything crosses this interface as
// opaque identifiers and decimal-string amounts.
type ChainAdapter interface {
	// Lock commits funds on this (source) chain. idempotencyKey is derived
	// from the swap id and MUST make repeated calls for the same step
	// return the same sourceTxID rather than double-spending.
	Lock(ctx context.Context, fromAddress, amount, destinationChain, quantumCommitment, userWallet, idempotencyKey string) (sourceTxID string, err error)

	// Release unlocks funds on this (destination) chain.
	Release(ctx context.Context, destinationAddress, amount, sourceProof, quantumCommitment, idempotencyKey string) (destTxID string, err error)

	// Refund returns locked funds to the user on this (source) chain after
	// a failed release.
	Refund(ctx context.Context, userWallet, amount, sourceTxID, idempotencyKey string) (refundTxID string, err error)

	// TxStatus reports the current status of a previously returned tx id.
	TxStatus(ctx context.Context, txID string) (TxStatus, error)

	// ValidateAddress reports whether addr is well-formed for this chain.
	ValidateAddress(addr string) bool
}
