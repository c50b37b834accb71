// Package swap implements the bridge swap coordinator (C4): the atomic-swap
// state machine that locks funds on a source chain, releases them on a
// destination chain, and persists every transition durably enough to
// recover from a crash between steps.
package swap

import "time"

// State is one node of the swap finite state machine (spec §4.4).
type State string

const (
	StateInitialized          State = "initialized"
	StateSourceLocking        State = "source_locking"
	StateSourceLocked         State = "source_locked"
	StateLockFailed           State = "lock_failed" // terminal
	StateDestinationReleasing State = "destination_releasing"
	StateCompleted            State = "completed" // terminal
	StateReleaseFailed        State = "release_failed"
	StateExpired              State = "expired"
	StateRefunding            State = "refunding"
	StateRefunded             State = "refunded" // terminal
	StateRefundFailed         State = "refund_failed" // terminal
)

// Terminal reports whether s has no successor transitions.
func (s State) Terminal() bool {
	switch s {
	case StateLockFailed, StateCompleted, StateRefunded, StateRefundFailed:
		return true
	default:
		return false
	}
}

// ChainType identifies a supported chain at the coordinator boundary.
type ChainType = string // re-exported as a plain string; see internal/constants.ChainType for the enum values.

// StateTransition is one append-only entry in an operation's state history.
type StateTransition struct {
	From State
	To   State
	At   time.Time
	Note string
}

// Operation is the durable record of one cross-chain swap. Every field
// except State, SourceTxID, DestTxID, RefundTxID, LastError, LastAttemptAt,
// UpdatedAt, and History is set once at creation and never changes.
type Operation struct {
	SwapID string `gorm:"primaryKey"`

	UserID    string `gorm:"index"`
	FromChain string
	ToChain   string
	Amount    string // decimal string; chain-native precision, never a float
	Recipient string

	QuantumKeyID string

	SealedEnvelope []byte // wire-encoded HybridEnvelope carrying (from_addr, to_addr, amount, routing_metadata)

	State State `gorm:"index"`

	SourceTxID string
	DestTxID   string
	RefundTxID string

	LastError     string
	LastAttemptAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time

	History []StateTransition `gorm:"serializer:json"`
}

// TableName pins the gorm table name.
func (Operation) TableName() string { return "swap_operations" }

// IdempotencyKey derives the deterministic key every adapter call for this
// operation's current step MUST carry, so a retried call after a timeout or
// crash is recognized by the adapter as the same request.
func (op *Operation) IdempotencyKey(step string) string {
	return op.SwapID + ":" + step
}
